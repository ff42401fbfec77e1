package metadata

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/token"
)

const optKey = "metadata"

// GenesisAsset is used to parse the json from genesis file.
//
// An asset with MasterEdition set must have its mint and freeze
// authorities already set to its edition address in the token section.
type GenesisAsset struct {
	Mint               custody.Address `json:"mint"`
	UpdateAuthority    custody.Address `json:"update_authority"`
	Name               string          `json:"name"`
	URI                string          `json:"uri"`
	Collection         custody.Address `json:"collection,omitempty"`
	CollectionVerified bool            `json:"collection_verified"`
	MasterEdition      bool            `json:"master_edition"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file. It must run after the token initializer.
type Initializer struct{}

var _ custody.Initializer = Initializer{}

// FromGenesis creates metadata and master editions of genesis assets.
func (Initializer) FromGenesis(ctx custody.Context, opts custody.Options, db custody.KVStore) error {
	var assets []GenesisAsset
	if err := opts.ReadOptions(optKey, &assets); err != nil {
		return err
	}
	for i, a := range assets {
		if err := loadAsset(db, a); err != nil {
			return errors.Wrapf(err, "asset #%d", i)
		}
	}
	return nil
}

func loadAsset(db custody.KVStore, a GenesisAsset) error {
	m, err := token.LoadMint(db, a.Mint)
	if err != nil {
		return errors.Wrap(err, "mint")
	}
	mdAddr, mdBump, err := MetadataAddress(a.Mint)
	if err != nil {
		return err
	}
	md := Metadata{
		Mint:            a.Mint,
		UpdateAuthority: a.UpdateAuthority,
		Name:            a.Name,
		URI:             a.URI,
		Bump:            mdBump,
	}
	if a.Collection != nil {
		md.Collection = &Collection{Key: a.Collection, Verified: a.CollectionVerified}
	}
	if err := metadatas.Put(db, mdAddr, &md); err != nil {
		return err
	}
	if !a.MasterEdition {
		return nil
	}

	edAddr, edBump, err := EditionAddress(a.Mint)
	if err != nil {
		return err
	}
	if !edAddr.Equals(m.MintAuthority) || !edAddr.Equals(m.FreezeAuthority) {
		return errors.Wrapf(errors.ErrInvalidState, "mint authorities must be the edition %s", edAddr)
	}
	if m.Decimals != 0 || m.Supply != 1 {
		return errors.Wrap(errors.ErrInvalidState, "mint is not unique")
	}
	return editions.Put(db, edAddr, &MasterEdition{Bump: edBump})
}
