package custodytest

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"

	"github.com/iov-one/custody"
	"golang.org/x/crypto/ed25519"
)

// Key is an ed25519 key pair whose public key is the ledger identity.
type Key struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// NewKey generates a random key pair.
func NewKey() Key {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	return Key{Public: pub, Private: priv}
}

// Address returns the identity of this key.
func (k Key) Address() custody.Address {
	return custody.Address(k.Public)
}

// Sign signs the given bytes.
func (k Key) Sign(msg []byte) []byte {
	return ed25519.Sign(k.Private, msg)
}

// NewAddress returns a fresh identity of a key holder.
func NewAddress() custody.Address {
	return NewKey().Address()
}

// SequenceAddress returns an address derived from the sequence number. The
// same number always produces the same address, which makes test failures
// easier to read than random keys. These addresses are not keys and cannot
// sign.
func SequenceAddress(n uint64) custody.Address {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	sum := sha256.Sum256(append([]byte("sequence:"), b[:]...))
	return custody.Address(sum[:])
}
