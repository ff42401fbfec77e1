package custody

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"filippo.io/edwards25519"
	"github.com/iov-one/custody/errors"
	"github.com/patrickmn/go-cache"
)

const (
	// MaxSeeds is the maximum number of seeds, bump included, that can
	// be used to derive an authority.
	MaxSeeds = 16

	// MaxSeedLength is the maximum length of a single seed.
	MaxSeedLength = 32
)

// authorityMarker is appended to every derivation so that a derived
// authority can never collide with a digest computed for another purpose.
var authorityMarker = []byte("ProgramDerivedAddress")

// derivations memoises FindAuthority results. A bump search can take up to
// 256 hashes and point decompressions.
var derivations = cache.New(30*time.Minute, time.Hour)

type derivation struct {
	address Address
	bump    uint8
}

// CreateAuthority computes the address controlled by the given program for
// the seed tuple. The last seed is usually the bump returned by
// FindAuthority.
//
// Derivation fails if the computed address is a valid ed25519 point, since
// such an address could have a private key.
func CreateAuthority(program Address, seeds ...[]byte) (Address, error) {
	if len(seeds) > MaxSeeds {
		return nil, errors.ErrInvalidSeeds.Newf("%d seeds, at most %d allowed", len(seeds), MaxSeeds)
	}
	h := sha256.New()
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return nil, errors.ErrInvalidSeeds.Newf("seed %d is %d bytes long", i, len(s))
		}
		h.Write(s)
	}
	h.Write(program)
	h.Write(authorityMarker)
	addr := Address(h.Sum(nil))
	if isOnCurve(addr) {
		return nil, errors.ErrInvalidSeeds.New("derived address is on the curve")
	}
	return addr, nil
}

// FindAuthority searches for the highest bump that, appended to the seeds,
// produces an address without a private key. The result is deterministic
// for a given program and seed tuple.
func FindAuthority(program Address, seeds ...[]byte) (Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return nil, 0, errors.ErrInvalidSeeds.Newf("%d seeds, at most %d allowed with a bump", len(seeds), MaxSeeds-1)
	}
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return nil, 0, errors.ErrInvalidSeeds.Newf("seed %d is %d bytes long", i, len(s))
		}
	}
	key := memoKey(program, seeds)
	if v, ok := derivations.Get(key); ok {
		d := v.(derivation)
		return d.address.Clone(), d.bump, nil
	}

	candidate := make([][]byte, len(seeds)+1)
	copy(candidate, seeds)
	for bump := 255; bump >= 0; bump-- {
		candidate[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateAuthority(program, candidate...)
		if err != nil {
			// Seeds are validated above, only on curve digests fail.
			continue
		}
		derivations.Set(key, derivation{address: addr.Clone(), bump: uint8(bump)}, cache.DefaultExpiration)
		return addr, uint8(bump), nil
	}
	return nil, 0, errors.ErrInvalidSeeds.New("no viable bump found")
}

// VerifyAuthority returns true if addr is the authority of program for the
// given seeds and bump. Anybody can run this check.
func VerifyAuthority(program, addr Address, bump uint8, seeds ...[]byte) bool {
	got, err := CreateAuthority(program, withBump(seeds, bump)...)
	if err != nil {
		return false
	}
	return got.Equals(addr)
}

func withBump(seeds [][]byte, bump uint8) [][]byte {
	all := make([][]byte, 0, len(seeds)+1)
	all = append(all, seeds...)
	return append(all, []byte{bump})
}

func memoKey(program Address, seeds [][]byte) string {
	parts := make([]string, 0, len(seeds)+1)
	parts = append(parts, hex.EncodeToString(program))
	for _, s := range seeds {
		parts = append(parts, hex.EncodeToString(s))
	}
	return strings.Join(parts, "/")
}

// isOnCurve returns true if b is the encoding of a point on the ed25519
// curve.
func isOnCurve(b []byte) bool {
	if len(b) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// Program is the signing capability of one on-ledger program. A program can
// authorize actions as any authority derived from its identifier, but only
// the code holding the Program value can do so.
//
// Keep the value in an unexported package variable of the extension that
// owns it and never hand it out.
type Program struct {
	name string
	id   Address
}

var (
	programsMu sync.Mutex
	programs   = make(map[string]*Program)
)

// NewProgram registers a program under a unique name. Registering the same
// name twice panics, so there is exactly one capability per program.
//
// Use this function only during a program startup phase.
func NewProgram(name string) *Program {
	programsMu.Lock()
	defer programsMu.Unlock()

	if _, ok := programs[name]; ok {
		panic(fmt.Sprintf("program %q is already registered", name))
	}
	p := &Program{name: name, id: ProgramAddress(name)}
	programs[name] = p
	return p
}

// ProgramAddress returns the identifier of the program registered under the
// given name.
func ProgramAddress(name string) Address {
	sum := sha256.Sum256([]byte("program:" + name))
	return Address(sum[:])
}

// ID returns the program identifier.
func (p *Program) ID() Address {
	return p.id.Clone()
}

// Name returns the name the program was registered with.
func (p *Program) Name() string {
	return p.name
}

// Find derives an authority of this program.
func (p *Program) Find(seeds ...[]byte) (Address, uint8, error) {
	return FindAuthority(p.id, seeds...)
}

// Verify checks that addr is the authority of this program for the seeds
// and bump.
func (p *Program) Verify(addr Address, bump uint8, seeds ...[]byte) bool {
	return VerifyAuthority(p.id, addr, bump, seeds...)
}

// Sign returns a context in which the authority derived from the seeds and
// bump is an authorized signer. Pass the returned context only to the sub
// operation that needs the signature.
func (p *Program) Sign(ctx Context, bump uint8, seeds ...[]byte) (Context, error) {
	addr, err := CreateAuthority(p.id, withBump(seeds, bump)...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s cannot sign", p.name)
	}
	prev := signedAuthorities(ctx)
	signed := make([]Address, 0, len(prev)+1)
	signed = append(signed, prev...)
	signed = append(signed, addr)
	return context.WithValue(ctx, contextKeyAuthorities, signed), nil
}

func signedAuthorities(ctx Context) []Address {
	val, _ := ctx.Value(contextKeyAuthorities).([]Address)
	return val
}

// AuthorityAuth authenticates derived authorities that a Program signed for
// in the given context.
type AuthorityAuth struct{}

// GetSigners returns all derived authorities signed for in this context.
func (AuthorityAuth) GetSigners(ctx Context) []Address {
	return signedAuthorities(ctx)
}

// HasAddress returns true iff the derived authority was signed for.
func (AuthorityAuth) HasAddress(ctx Context, addr Address) bool {
	for _, a := range signedAuthorities(ctx) {
		if a.Equals(addr) {
			return true
		}
	}
	return false
}
