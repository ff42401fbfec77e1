package token

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

const optKey = "token"

// GenesisMint is used to parse the json from genesis file.
type GenesisMint struct {
	Address         custody.Address `json:"address"`
	Decimals        uint8           `json:"decimals"`
	MintAuthority   custody.Address `json:"mint_authority"`
	FreezeAuthority custody.Address `json:"freeze_authority"`
}

// GenesisAccount is an associated token account with its initial balance.
type GenesisAccount struct {
	Owner  custody.Address `json:"owner"`
	Mint   custody.Address `json:"mint"`
	Amount uint64          `json:"amount"`
}

// Genesis is the "token" section of the genesis file.
type Genesis struct {
	Mints    []GenesisMint    `json:"mints"`
	Accounts []GenesisAccount `json:"accounts"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ custody.Initializer = Initializer{}

// FromGenesis will parse initial mints and balances from genesis
// and save them to the database. Balances count towards the supply of
// their mint.
func (Initializer) FromGenesis(ctx custody.Context, opts custody.Options, db custody.KVStore) error {
	var gen Genesis
	if err := opts.ReadOptions(optKey, &gen); err != nil {
		return err
	}
	for i, g := range gen.Mints {
		m := Mint{
			MintAuthority:   g.MintAuthority,
			Decimals:        g.Decimals,
			FreezeAuthority: g.FreezeAuthority,
		}
		if err := mints.Put(db, g.Address, &m); err != nil {
			return errors.Wrapf(err, "mint #%d", i)
		}
	}
	for i, g := range gen.Accounts {
		m, err := LoadMint(db, g.Mint)
		if err != nil {
			return errors.Wrapf(err, "account #%d", i)
		}
		if m.Supply+g.Amount < m.Supply {
			return errors.Wrapf(errors.ErrOverflow, "account #%d", i)
		}
		m.Supply += g.Amount
		if err := mints.Save(db, g.Mint, m); err != nil {
			return err
		}
		addr, err := AssociatedAddress(g.Owner, g.Mint)
		if err != nil {
			return errors.Wrapf(err, "account #%d", i)
		}
		a := TokenAccount{Mint: g.Mint, Owner: g.Owner, Amount: g.Amount}
		if err := accounts.Put(db, addr, &a); err != nil {
			return errors.Wrapf(err, "account #%d", i)
		}
	}
	return nil
}
