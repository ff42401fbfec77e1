package orm

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Account is the envelope every record lives in: a lamport balance that
// pays for its storage, the program that owns it, and the record data.
// Accounts owned by the system program hold lamports only.
type Account struct {
	Lamports uint64
	Owner    custody.Address
	Data     []byte
}

const accountHeaderSize = 8 + custody.AddressLength

// SystemProgramID owns accounts that only hold lamports, such as the
// wallets of key holders.
var SystemProgramID = custody.ProgramAddress("system")

// Rent parameters. An account must hold MinimumBalance(len(data)) lamports
// for as long as it exists; closing it returns the deposit.
const (
	accountStorageOverhead = 128
	lamportsPerByteYear    = 3480
	exemptionYears         = 2
)

// MinimumBalance returns the deposit required to store dataLen bytes.
func MinimumBalance(dataLen int) uint64 {
	return uint64(dataLen+accountStorageOverhead) * lamportsPerByteYear * exemptionYears
}

// Marshal serializes the account as lamports, owner and data.
func (a *Account) Marshal() ([]byte, error) {
	w := NewWriter(accountHeaderSize + len(a.Data))
	w.Uint64(a.Lamports)
	w.Address(a.Owner)
	return append(w.Bytes(), a.Data...), nil
}

// Unmarshal loads an account serialized by Marshal.
func (a *Account) Unmarshal(raw []byte) error {
	if len(raw) < accountHeaderSize {
		return errors.Wrapf(errors.ErrInvalidModel, "account of %d bytes", len(raw))
	}
	r := NewReader(raw[:accountHeaderSize])
	a.Lamports = r.Uint64()
	a.Owner = r.Address()
	a.Data = append([]byte(nil), raw[accountHeaderSize:]...)
	return r.Done()
}

var accountPrefix = []byte("acct:")

func accountKey(addr custody.Address) []byte {
	return append(append([]byte{}, accountPrefix...), addr...)
}

// LoadAccount returns the account stored under addr, or ErrNotFound.
func LoadAccount(db custody.ReadOnlyKVStore, addr custody.Address) (*Account, error) {
	raw, err := db.Get(accountKey(addr))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "account %s", addr)
	}
	var acc Account
	if err := acc.Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(err, "account %s", addr)
	}
	return &acc, nil
}

// Exists returns true if an account is stored under addr.
func Exists(db custody.ReadOnlyKVStore, addr custody.Address) (bool, error) {
	ok, err := db.Has(accountKey(addr))
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return ok, nil
}

// SaveAccount writes the account under addr.
func SaveAccount(db custody.KVStore, addr custody.Address, acc *Account) error {
	if err := addr.Validate(); err != nil {
		return errors.Wrap(err, "account address")
	}
	raw, err := acc.Marshal()
	if err != nil {
		return err
	}
	if err := db.Set(accountKey(addr), raw); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func deleteAccount(db custody.KVStore, addr custody.Address) error {
	if err := db.Delete(accountKey(addr)); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Balance returns the lamports held by addr, zero if there is no account.
func Balance(db custody.ReadOnlyKVStore, addr custody.Address) (uint64, error) {
	acc, err := LoadAccount(db, addr)
	switch {
	case errors.ErrNotFound.Is(err):
		return 0, nil
	case err != nil:
		return 0, err
	}
	return acc.Lamports, nil
}

// Credit adds lamports to addr, creating a system account when needed.
func Credit(db custody.KVStore, addr custody.Address, amount uint64) error {
	acc, err := LoadAccount(db, addr)
	switch {
	case errors.ErrNotFound.Is(err):
		acc = &Account{Owner: SystemProgramID}
	case err != nil:
		return err
	}
	if acc.Lamports+amount < acc.Lamports {
		return errors.Wrapf(errors.ErrOverflow, "credit %d to %s", amount, addr)
	}
	acc.Lamports += amount
	return SaveAccount(db, addr, acc)
}

// Debit removes lamports from addr. Callers are responsible for checking
// that addr authorized the debit.
func Debit(db custody.KVStore, addr custody.Address, amount uint64) error {
	acc, err := LoadAccount(db, addr)
	if err != nil {
		return errors.Wrap(err, "debit")
	}
	if acc.Lamports < amount {
		return errors.ErrInsufficientAmount.Newf("%s holds %d lamports, needs %d", addr, acc.Lamports, amount)
	}
	acc.Lamports -= amount
	if acc.Lamports == 0 && len(acc.Data) == 0 {
		return deleteAccount(db, addr)
	}
	return SaveAccount(db, addr, acc)
}

// CloseAccount deletes the account under addr and credits its whole
// lamport balance to recipient.
func CloseAccount(db custody.KVStore, addr, recipient custody.Address) error {
	acc, err := LoadAccount(db, addr)
	if err != nil {
		return errors.Wrap(err, "close")
	}
	if addr.Equals(recipient) {
		return errors.Wrap(errors.ErrInvalidInput, "account cannot be closed into itself")
	}
	if err := deleteAccount(db, addr); err != nil {
		return err
	}
	return Credit(db, recipient, acc.Lamports)
}
