package token

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// AssociatedConstraint checks that addr is the associated token account of
// owner for mint. When the account exists it must hold mint for owner. A
// missing account only passes when it may still be created.
func AssociatedConstraint(db custody.ReadOnlyKVStore, name string, addr, owner, mint custody.Address, mayCreate bool) custody.Constraint {
	return custody.Constraint{
		Name: name,
		Check: func() error {
			if !IsAssociated(addr, owner, mint) {
				return errors.Wrapf(errors.ErrConstraint, "%s is not the token account of %s for %s", addr, owner, mint)
			}
			acc, err := LoadAccount(db, addr)
			switch {
			case errors.ErrNotFound.Is(err) && mayCreate:
				return nil
			case err != nil:
				return err
			}
			return OwnedConstraint(name, acc, owner, mint).Check()
		},
	}
}

// OwnedConstraint checks that a loaded token account holds mint for owner.
func OwnedConstraint(name string, acc *TokenAccount, owner, mint custody.Address) custody.Constraint {
	return custody.Constraint{
		Name: name,
		Check: func() error {
			if !acc.Owner.Equals(owner) {
				return errors.Wrapf(errors.ErrConstraint, "owner is %s, want %s", acc.Owner, owner)
			}
			if !acc.Mint.Equals(mint) {
				return errors.Wrapf(errors.ErrConstraint, "mint is %s, want %s", acc.Mint, mint)
			}
			return nil
		},
	}
}
