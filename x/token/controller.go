package token

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
)

// AuthorityType selects which authority of a mint SetAuthority changes.
type AuthorityType int

const (
	MintTokens AuthorityType = iota
	FreezeAccount
)

// Controller executes token operations. Authorization is taken from the
// authenticator, so derived authorities signed for in the context can act
// as owners, delegates and mint authorities.
type Controller struct {
	auth x.Authenticator
}

// NewController returns a controller authorizing with auth.
func NewController(auth x.Authenticator) *Controller {
	return &Controller{auth: auth}
}

func (c *Controller) requireSigner(ctx custody.Context, addr custody.Address, role string) error {
	if addr == nil || !c.auth.HasAddress(ctx, addr) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s %s did not sign", role, addr)
	}
	return nil
}

// InitializeMint creates a mint at addr. The payer signs and funds the
// rent deposit.
func (c *Controller) InitializeMint(ctx custody.Context, db custody.KVStore, payer, addr custody.Address, decimals uint8, mintAuthority, freezeAuthority custody.Address) error {
	if err := c.requireSigner(ctx, payer, "payer"); err != nil {
		return err
	}
	m := Mint{
		MintAuthority:   mintAuthority,
		Decimals:        decimals,
		FreezeAuthority: freezeAuthority,
	}
	return mints.Create(db, payer, addr, &m)
}

// CreateAssociatedAccount creates the associated token account of owner
// for mint and returns its address. The payer signs and funds the rent
// deposit. It fails with ErrDuplicate if the account exists.
func (c *Controller) CreateAssociatedAccount(ctx custody.Context, db custody.KVStore, payer, owner, mint custody.Address) (custody.Address, error) {
	if err := c.requireSigner(ctx, payer, "payer"); err != nil {
		return nil, err
	}
	if _, err := LoadMint(db, mint); err != nil {
		return nil, errors.Wrap(err, "mint")
	}
	addr, err := AssociatedAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	a := TokenAccount{Mint: mint, Owner: owner}
	if err := accounts.Create(db, payer, addr, &a); err != nil {
		return nil, err
	}
	custody.GetLogger(ctx).Debug("token account created", "account", addr, "owner", owner, "mint", mint)
	return addr, nil
}

// EnsureAssociatedAccount returns the associated token account of owner
// for mint, creating it when it does not exist yet. created reports
// whether the payer funded a new account.
func (c *Controller) EnsureAssociatedAccount(ctx custody.Context, db custody.KVStore, payer, owner, mint custody.Address) (addr custody.Address, created bool, err error) {
	addr, err = AssociatedAddress(owner, mint)
	if err != nil {
		return nil, false, err
	}
	acc, err := LoadAccount(db, addr)
	switch {
	case errors.ErrNotFound.Is(err):
		addr, err = c.CreateAssociatedAccount(ctx, db, payer, owner, mint)
		return addr, err == nil, err
	case err != nil:
		return nil, false, err
	}
	if !acc.Owner.Equals(owner) || !acc.Mint.Equals(mint) {
		return nil, false, errors.Wrapf(errors.ErrConstraint, "%s is not the token account of %s for %s", addr, owner, mint)
	}
	return addr, false, nil
}

// MintTo issues amount new units into dest. The mint authority signs.
func (c *Controller) MintTo(ctx custody.Context, db custody.KVStore, mint, dest custody.Address, amount uint64) error {
	m, err := LoadMint(db, mint)
	if err != nil {
		return errors.Wrap(err, "mint")
	}
	if m.MintAuthority == nil {
		return errors.Wrap(errors.ErrInvalidState, "supply is fixed")
	}
	if err := c.requireSigner(ctx, m.MintAuthority, "mint authority"); err != nil {
		return err
	}
	acc, err := LoadAccount(db, dest)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if !acc.Mint.Equals(mint) {
		return errors.Wrapf(errors.ErrInvalidInput, "destination holds %s", acc.Mint)
	}
	if acc.Frozen {
		return errors.Wrap(errors.ErrFrozen, "destination")
	}
	if m.Supply+amount < m.Supply {
		return errors.Wrap(errors.ErrOverflow, "supply")
	}
	m.Supply += amount
	acc.Amount += amount
	if err := mints.Save(db, mint, m); err != nil {
		return err
	}
	return accounts.Save(db, dest, acc)
}

// TransferChecked moves amount units of mint from src to dest. The caller
// states the decimals of the mint and the transfer fails if they do not
// match. Either the owner of src or its delegate signs; a delegate spends
// its allowance.
func (c *Controller) TransferChecked(ctx custody.Context, db custody.KVStore, src, mint, dest custody.Address, amount uint64, decimals uint8) error {
	m, err := LoadMint(db, mint)
	if err != nil {
		return errors.Wrap(err, "mint")
	}
	if m.Decimals != decimals {
		return errors.Wrapf(errors.ErrInvalidInput, "mint has %d decimals, got %d", m.Decimals, decimals)
	}
	from, err := LoadAccount(db, src)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	to, err := LoadAccount(db, dest)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if !from.Mint.Equals(mint) || !to.Mint.Equals(mint) {
		return errors.Wrapf(errors.ErrInvalidInput, "transfer of %s between %s and %s accounts", mint, from.Mint, to.Mint)
	}
	if from.Frozen {
		return errors.Wrap(errors.ErrFrozen, "source")
	}
	if to.Frozen {
		return errors.Wrap(errors.ErrFrozen, "destination")
	}
	if from.Amount < amount {
		return errors.ErrInsufficientAmount.Newf("%s holds %d, needs %d", src, from.Amount, amount)
	}

	switch {
	case c.auth.HasAddress(ctx, from.Owner):
	case from.Delegate != nil && c.auth.HasAddress(ctx, from.Delegate):
		if from.DelegatedAmount < amount {
			return errors.ErrInsufficientAmount.Newf("delegate may move %d, needs %d", from.DelegatedAmount, amount)
		}
		from.DelegatedAmount -= amount
		if from.DelegatedAmount == 0 {
			from.Delegate = nil
		}
	default:
		return errors.Wrap(errors.ErrUnauthorized, "neither owner nor delegate signed")
	}

	if src.Equals(dest) {
		return accounts.Save(db, src, from)
	}
	if to.Amount+amount < to.Amount {
		return errors.Wrap(errors.ErrOverflow, "destination")
	}
	from.Amount -= amount
	to.Amount += amount
	if err := accounts.Save(db, src, from); err != nil {
		return err
	}
	return accounts.Save(db, dest, to)
}

// Approve lets delegate move up to amount units out of src. The owner of
// src signs. A new approval replaces the previous one.
func (c *Controller) Approve(ctx custody.Context, db custody.KVStore, src, delegate custody.Address, amount uint64) error {
	acc, err := c.ownedAccount(ctx, db, src)
	if err != nil {
		return err
	}
	if err := delegate.Validate(); err != nil {
		return errors.Wrap(err, "delegate")
	}
	acc.Delegate = delegate
	acc.DelegatedAmount = amount
	return accounts.Save(db, src, acc)
}

// Revoke removes the delegate of src. The owner of src signs.
func (c *Controller) Revoke(ctx custody.Context, db custody.KVStore, src custody.Address) error {
	acc, err := c.ownedAccount(ctx, db, src)
	if err != nil {
		return err
	}
	acc.Delegate = nil
	acc.DelegatedAmount = 0
	return accounts.Save(db, src, acc)
}

// CloseAccount deletes an empty token account and sends its lamports to
// dest. The owner signs.
func (c *Controller) CloseAccount(ctx custody.Context, db custody.KVStore, addr, dest custody.Address) error {
	acc, err := c.ownedAccount(ctx, db, addr)
	if err != nil {
		return err
	}
	if acc.Amount != 0 {
		return errors.Wrapf(errors.ErrInvalidState, "account still holds %d", acc.Amount)
	}
	return accounts.Close(db, addr, dest)
}

func (c *Controller) ownedAccount(ctx custody.Context, db custody.ReadOnlyKVStore, addr custody.Address) (*TokenAccount, error) {
	acc, err := LoadAccount(db, addr)
	if err != nil {
		return nil, err
	}
	if err := c.requireSigner(ctx, acc.Owner, "owner"); err != nil {
		return nil, err
	}
	if acc.Frozen {
		return nil, errors.Wrapf(errors.ErrFrozen, "account %s", addr)
	}
	return acc, nil
}

// Freeze stops all movements out of and into the account. The freeze
// authority of the mint signs.
func (c *Controller) Freeze(ctx custody.Context, db custody.KVStore, addr, mint custody.Address) error {
	return c.setFrozen(ctx, db, addr, mint, true)
}

// Thaw reverts Freeze. The freeze authority of the mint signs.
func (c *Controller) Thaw(ctx custody.Context, db custody.KVStore, addr, mint custody.Address) error {
	return c.setFrozen(ctx, db, addr, mint, false)
}

func (c *Controller) setFrozen(ctx custody.Context, db custody.KVStore, addr, mint custody.Address, frozen bool) error {
	m, err := LoadMint(db, mint)
	if err != nil {
		return errors.Wrap(err, "mint")
	}
	if m.FreezeAuthority == nil {
		return errors.Wrap(errors.ErrInvalidState, "mint cannot freeze")
	}
	if err := c.requireSigner(ctx, m.FreezeAuthority, "freeze authority"); err != nil {
		return err
	}
	acc, err := LoadAccount(db, addr)
	if err != nil {
		return err
	}
	if !acc.Mint.Equals(mint) {
		return errors.Wrapf(errors.ErrInvalidInput, "account holds %s", acc.Mint)
	}
	if acc.Frozen == frozen {
		if frozen {
			return errors.Wrapf(errors.ErrFrozen, "account %s already frozen", addr)
		}
		return errors.Wrapf(errors.ErrInvalidState, "account %s not frozen", addr)
	}
	acc.Frozen = frozen
	return accounts.Save(db, addr, acc)
}

// SetAuthority replaces the mint or freeze authority of a mint. The
// current authority signs. A nil authority disables the role for good.
func (c *Controller) SetAuthority(ctx custody.Context, db custody.KVStore, mint custody.Address, kind AuthorityType, authority custody.Address) error {
	m, err := LoadMint(db, mint)
	if err != nil {
		return errors.Wrap(err, "mint")
	}
	var current *custody.Address
	switch kind {
	case MintTokens:
		current = &m.MintAuthority
	case FreezeAccount:
		current = &m.FreezeAuthority
	default:
		return errors.Wrapf(errors.ErrInvalidInput, "authority type %d", kind)
	}
	if *current == nil {
		return errors.Wrap(errors.ErrInvalidState, "authority disabled")
	}
	if err := c.requireSigner(ctx, *current, "authority"); err != nil {
		return err
	}
	*current = authority
	return mints.Save(db, mint, m)
}

// Supply returns the number of issued units of mint.
func Supply(db custody.ReadOnlyKVStore, mint custody.Address) (uint64, error) {
	m, err := LoadMint(db, mint)
	if err != nil {
		return 0, err
	}
	return m.Supply, nil
}
