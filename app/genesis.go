package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// Genesis file format
type Genesis struct {
	ChainID  string          `json:"chain_id"`
	AppState custody.Options `json:"app_state"`
}

// LoadGenesis tries to load a given file into a Genesis struct
func LoadGenesis(filePath string) (*Genesis, error) {
	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "loading genesis file: %s", err)
	}
	var gen Genesis
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unmarshaling genesis file: %s", err)
	}
	if !custody.IsValidChainID(gen.ChainID) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid chain id %q", gen.ChainID)
	}
	return &gen, nil
}

//------ init state -----

// ChainInitializers lets you initialize many extensions with one function.
// Initializers run in the given order.
func ChainInitializers(inits ...custody.Initializer) custody.Initializer {
	return chainInitializers(inits)
}

type chainInitializers []custody.Initializer

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializers) FromGenesis(ctx custody.Context, opts custody.Options, kv custody.KVStore) error {
	for _, i := range c {
		if err := i.FromGenesis(ctx, opts, kv); err != nil {
			return err
		}
	}
	return nil
}

// GenesisWallet is an account funded with lamports at genesis.
type GenesisWallet struct {
	Address  custody.Address `json:"address"`
	Lamports uint64          `json:"lamports"`
}

// Wallets loads the "wallets" section of the genesis file.
type Wallets struct{}

var _ custody.Initializer = Wallets{}

// FromGenesis credits each wallet.
func (Wallets) FromGenesis(ctx custody.Context, opts custody.Options, kv custody.KVStore) error {
	var wallets []GenesisWallet
	if err := opts.ReadOptions("wallets", &wallets); err != nil {
		return err
	}
	for i, w := range wallets {
		if err := w.Address.Validate(); err != nil {
			return errors.Wrapf(err, "wallet #%d", i)
		}
		if err := orm.Credit(kv, w.Address, w.Lamports); err != nil {
			return errors.Wrapf(err, "wallet #%d", i)
		}
	}
	return nil
}

//------- storing chainID ---------

var chainIDKey = []byte("_internal:chain_id")

// loadChainID returns the chain id stored if any
func loadChainID(kv interface{ Get([]byte) ([]byte, error) }) (string, error) {
	v, err := kv.Get(chainIDKey)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name
func saveChainID(kv custody.KVStore, chainID string) error {
	if !custody.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInvalidInput, "chain id %q", chainID)
	}
	has, err := kv.Has(chainIDKey)
	if err != nil {
		return err
	}
	if has {
		return errors.Wrap(errors.ErrDuplicate, "chain id already set")
	}
	return kv.Set(chainIDKey, []byte(chainID))
}
