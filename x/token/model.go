package token

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

var (
	program    = custody.NewProgram("token")
	associated = custody.NewProgram("associated_token")
)

// ProgramID returns the identity of the token program, the owner of all
// mints and token accounts.
func ProgramID() custody.Address {
	return program.ID()
}

// AssociatedProgramID returns the identity of the program under which
// associated token account addresses are derived.
func AssociatedProgramID() custody.Address {
	return associated.ID()
}

// AssociatedAddress returns the token account address of owner for mint.
func AssociatedAddress(owner, mint custody.Address) (custody.Address, error) {
	addr, _, err := associated.Find(owner, program.ID(), mint)
	return addr, err
}

// IsAssociated returns true if addr is the associated token account of
// owner for mint.
func IsAssociated(addr, owner, mint custody.Address) bool {
	want, err := AssociatedAddress(owner, mint)
	return err == nil && want.Equals(addr)
}

// Mint describes an asset.
type Mint struct {
	// MintAuthority may issue new units. Nil means the supply is fixed.
	MintAuthority custody.Address
	Supply        uint64
	Decimals      uint8
	// FreezeAuthority may freeze and thaw token accounts. Nil means
	// accounts of this mint cannot be frozen.
	FreezeAuthority custody.Address
}

var _ orm.Model = (*Mint)(nil)

func (m *Mint) Marshal() ([]byte, error) {
	w := orm.NewWriter(2*(1+custody.AddressLength) + 9)
	w.OptionAddress(m.MintAuthority)
	w.Uint64(m.Supply)
	w.Uint8(m.Decimals)
	w.OptionAddress(m.FreezeAuthority)
	return w.Bytes(), nil
}

func (m *Mint) Unmarshal(raw []byte) error {
	r := orm.NewReader(raw)
	m.MintAuthority = r.OptionAddress()
	m.Supply = r.Uint64()
	m.Decimals = r.Uint8()
	m.FreezeAuthority = r.OptionAddress()
	return r.Done()
}

func (m *Mint) Validate() error {
	if m.MintAuthority != nil {
		if err := m.MintAuthority.Validate(); err != nil {
			return errors.Wrap(err, "mint authority")
		}
	}
	if m.FreezeAuthority != nil {
		if err := m.FreezeAuthority.Validate(); err != nil {
			return errors.Wrap(err, "freeze authority")
		}
	}
	return nil
}

// TokenAccount holds units of one mint for one owner.
type TokenAccount struct {
	Mint   custody.Address
	Owner  custody.Address
	Amount uint64
	// Delegate may move up to DelegatedAmount units on behalf of the
	// owner.
	Delegate        custody.Address
	DelegatedAmount uint64
	Frozen          bool
}

var _ orm.Model = (*TokenAccount)(nil)

func (a *TokenAccount) Marshal() ([]byte, error) {
	w := orm.NewWriter(3*custody.AddressLength + 18)
	w.Address(a.Mint)
	w.Address(a.Owner)
	w.Uint64(a.Amount)
	w.OptionAddress(a.Delegate)
	w.Uint64(a.DelegatedAmount)
	w.Bool(a.Frozen)
	return w.Bytes(), nil
}

func (a *TokenAccount) Unmarshal(raw []byte) error {
	r := orm.NewReader(raw)
	a.Mint = r.Address()
	a.Owner = r.Address()
	a.Amount = r.Uint64()
	a.Delegate = r.OptionAddress()
	a.DelegatedAmount = r.Uint64()
	a.Frozen = r.Bool()
	return r.Done()
}

func (a *TokenAccount) Validate() error {
	if err := a.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	if err := a.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if a.Delegate == nil {
		if a.DelegatedAmount != 0 {
			return errors.Wrap(errors.ErrInvalidState, "delegated amount without delegate")
		}
		return nil
	}
	return errors.Wrap(a.Delegate.Validate(), "delegate")
}

var (
	mints    = orm.NewBucket("mint", program.ID())
	accounts = orm.NewBucket("token_account", program.ID())
)

// LoadMint returns the mint stored at addr.
func LoadMint(db custody.ReadOnlyKVStore, addr custody.Address) (*Mint, error) {
	var m Mint
	if err := mints.One(db, addr, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadAccount returns the token account stored at addr.
func LoadAccount(db custody.ReadOnlyKVStore, addr custody.Address) (*TokenAccount, error) {
	var a TokenAccount
	if err := accounts.One(db, addr, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// HasAccount returns true if addr holds a token account.
func HasAccount(db custody.ReadOnlyKVStore, addr custody.Address) (bool, error) {
	return accounts.Has(db, addr)
}
