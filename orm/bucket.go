/*
Package orm stores typed records inside ledger accounts.

Every record lives in an Account: a lamport balance that pays rent for the
stored bytes, the program that owns the record and the record data. Record
data starts with an 8 byte discriminator that identifies the record type,
followed by the fixed little endian layout produced by the Model.

A Bucket binds one record type to the program that owns it. Only the
owner program can create, change or close records of that type, and a
Bucket refuses to load an account that holds a different type.
*/
package orm

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"regexp"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// DiscriminatorLength is the size of the record type tag.
const DiscriminatorLength = 8

var isBucketName = regexp.MustCompile(`^[a-z_]{3,20}$`).MatchString

// Model is a record with a fixed binary layout.
type Model interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
	Validate() error
}

// Bucket stores records of one type owned by one program.
type Bucket struct {
	name          string
	owner         custody.Address
	discriminator []byte
}

// NewBucket returns a bucket for records called name, owned by the given
// program. It panics if the name is not a valid bucket name.
func NewBucket(name string, owner custody.Address) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	sum := sha256.Sum256([]byte("account:" + name))
	return Bucket{
		name:          name,
		owner:         owner,
		discriminator: sum[:DiscriminatorLength],
	}
}

// Name returns the record type name.
func (b Bucket) Name() string {
	return b.name
}

// Owner returns the address of the program owning the records.
func (b Bucket) Owner() custody.Address {
	return b.owner
}

// Discriminator returns the record type tag.
func (b Bucket) Discriminator() []byte {
	return b.discriminator
}

// Size returns the number of bytes a record occupies, discriminator
// included.
func (b Bucket) Size(m Model) (int, error) {
	raw, err := m.Marshal()
	if err != nil {
		return 0, errors.Wrap(err, "marshal")
	}
	return DiscriminatorLength + len(raw), nil
}

func (b Bucket) checkAccount(addr custody.Address, acc *Account) error {
	if !acc.Owner.Equals(b.owner) {
		return errors.Wrapf(errors.ErrConstraint, "%s %s is owned by %s", b.name, addr, acc.Owner)
	}
	if len(acc.Data) < DiscriminatorLength || !bytes.Equal(acc.Data[:DiscriminatorLength], b.discriminator) {
		return errors.Wrapf(errors.ErrInvalidType, "%s does not hold a %s", addr, b.name)
	}
	return nil
}

// One loads the record stored at addr into dest. It fails with ErrNotFound
// if there is no account, ErrConstraint if the account belongs to another
// program and ErrInvalidType if it holds a different record type.
func (b Bucket) One(db custody.ReadOnlyKVStore, addr custody.Address, dest Model) error {
	acc, err := LoadAccount(db, addr)
	if err != nil {
		return errors.Wrap(err, b.name)
	}
	if err := b.checkAccount(addr, acc); err != nil {
		return err
	}
	if err := dest.Unmarshal(acc.Data[DiscriminatorLength:]); err != nil {
		return errors.Wrapf(err, "%s %s", b.name, addr)
	}
	return nil
}

// Has returns true if addr holds a record of this bucket.
func (b Bucket) Has(db custody.ReadOnlyKVStore, addr custody.Address) (bool, error) {
	acc, err := LoadAccount(db, addr)
	switch {
	case errors.ErrNotFound.Is(err):
		return false, nil
	case err != nil:
		return false, err
	}
	return b.checkAccount(addr, acc) == nil, nil
}

func (b Bucket) encode(m Model) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", b.name)
	}
	raw, err := m.Marshal()
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s", b.name)
	}
	data := make([]byte, 0, DiscriminatorLength+len(raw))
	data = append(data, b.discriminator...)
	return append(data, raw...), nil
}

// Create stores a new record at addr. The rent deposit is debited from
// payer and kept in the account until it is closed. It fails with
// ErrDuplicate if any account already exists at addr.
func (b Bucket) Create(db custody.KVStore, payer, addr custody.Address, m Model) error {
	data, err := b.encode(m)
	if err != nil {
		return err
	}
	exists, err := Exists(db, addr)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(errors.ErrDuplicate, "%s %s", b.name, addr)
	}
	rent := MinimumBalance(len(data))
	if err := Debit(db, payer, rent); err != nil {
		return errors.Wrapf(err, "rent for %s", b.name)
	}
	acc := Account{Lamports: rent, Owner: b.owner, Data: data}
	return SaveAccount(db, addr, &acc)
}

// Save overwrites an existing record at addr. The layout size of a record
// type is fixed, so the rent deposit does not change.
func (b Bucket) Save(db custody.KVStore, addr custody.Address, m Model) error {
	acc, err := LoadAccount(db, addr)
	if err != nil {
		return errors.Wrap(err, b.name)
	}
	if err := b.checkAccount(addr, acc); err != nil {
		return err
	}
	data, err := b.encode(m)
	if err != nil {
		return err
	}
	if len(data) != len(acc.Data) {
		return errors.Wrapf(errors.ErrInvalidModel, "%s size changed from %d to %d", b.name, len(acc.Data), len(data))
	}
	acc.Data = data
	return SaveAccount(db, addr, acc)
}

// Close deletes the record at addr and sends its lamports to recipient.
func (b Bucket) Close(db custody.KVStore, addr, recipient custody.Address) error {
	acc, err := LoadAccount(db, addr)
	if err != nil {
		return errors.Wrap(err, b.name)
	}
	if err := b.checkAccount(addr, acc); err != nil {
		return err
	}
	return CloseAccount(db, addr, recipient)
}

// Put stores a record at addr together with its rent deposit, without
// charging anyone. Use it only to load genesis state.
func (b Bucket) Put(db custody.KVStore, addr custody.Address, m Model) error {
	data, err := b.encode(m)
	if err != nil {
		return err
	}
	exists, err := Exists(db, addr)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(errors.ErrDuplicate, "%s %s", b.name, addr)
	}
	acc := Account{Lamports: MinimumBalance(len(data)), Owner: b.owner, Data: data}
	return SaveAccount(db, addr, &acc)
}
