package staking

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

const optKey = "staking"

// Genesis is the "staking" section of the genesis file.
type Genesis struct {
	MaxStake uint32 `json:"max_stake"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ custody.Initializer = Initializer{}

// FromGenesis stores the StakeConfig at its derived address. Nothing is
// stored when the section is absent.
func (Initializer) FromGenesis(ctx custody.Context, opts custody.Options, db custody.KVStore) error {
	if _, ok := opts[optKey]; !ok {
		return nil
	}
	var gen Genesis
	if err := opts.ReadOptions(optKey, &gen); err != nil {
		return err
	}
	addr, bump, err := ConfigAddress()
	if err != nil {
		return err
	}
	if err := configs.Put(db, addr, &StakeConfig{MaxStake: gen.MaxStake, Bump: bump}); err != nil {
		return errors.Wrap(err, "config")
	}
	return nil
}
