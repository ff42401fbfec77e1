package escrow

import (
	"encoding/binary"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

var program = custody.NewProgram("escrow")

// ProgramID returns the identity of the escrow program.
func ProgramID() custody.Address {
	return program.ID()
}

var escrowSeed = []byte("escrow")

func escrowSeeds(maker custody.Address, seed uint64) [][]byte {
	le := make([]byte, 8)
	binary.LittleEndian.PutUint64(le, seed)
	return [][]byte{escrowSeed, maker, le}
}

// EscrowAddress returns the address of the escrow opened by maker with the
// given seed. The address is also the authority of the vault.
func EscrowAddress(maker custody.Address, seed uint64) (custody.Address, uint8, error) {
	return program.Find(escrowSeeds(maker, seed)...)
}

// Escrow is an open offer of the vault content in exchange for
// ReceiveAmount units of MintB.
type Escrow struct {
	Maker         custody.Address
	MintA         custody.Address
	MintB         custody.Address
	Seed          uint64
	ReceiveAmount uint64
	Bump          uint8
}

var _ orm.Model = (*Escrow)(nil)

func (e *Escrow) Marshal() ([]byte, error) {
	w := orm.NewWriter(3*custody.AddressLength + 17)
	w.Address(e.Maker)
	w.Address(e.MintA)
	w.Address(e.MintB)
	w.Uint64(e.Seed)
	w.Uint64(e.ReceiveAmount)
	w.Uint8(e.Bump)
	return w.Bytes(), nil
}

func (e *Escrow) Unmarshal(raw []byte) error {
	r := orm.NewReader(raw)
	e.Maker = r.Address()
	e.MintA = r.Address()
	e.MintB = r.Address()
	e.Seed = r.Uint64()
	e.ReceiveAmount = r.Uint64()
	e.Bump = r.Uint8()
	return r.Done()
}

func (e *Escrow) Validate() error {
	if err := e.Maker.Validate(); err != nil {
		return errors.Wrap(err, "maker")
	}
	if err := e.MintA.Validate(); err != nil {
		return errors.Wrap(err, "mint a")
	}
	if err := e.MintB.Validate(); err != nil {
		return errors.Wrap(err, "mint b")
	}
	if e.ReceiveAmount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "receive amount")
	}
	return nil
}

var escrows = orm.NewBucket("escrow", program.ID())

// LoadEscrow returns the escrow stored at addr.
func LoadEscrow(db custody.ReadOnlyKVStore, addr custody.Address) (*Escrow, error) {
	var e Escrow
	if err := escrows.One(db, addr, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
