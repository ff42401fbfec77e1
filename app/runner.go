package app

import (
	"context"
	"io"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Runner executes transactions against a committed store. Delivered
// transactions accumulate in a block that Commit persists as one new
// version. Each transaction runs in its own cache wrap: a failing one
// leaves no trace, not even in the pending block.
type Runner struct {
	store   custody.CommitKVStore
	handler custody.Handler
	logger  log.Logger
	chainID string

	// block holds the writes of the transactions delivered since the
	// last commit.
	block custody.KVCacheWrap
}

// NewRunner loads the latest version of the store. The store must have
// been initialized with InitChain, unless InitChain is called next.
func NewRunner(store custody.CommitKVStore, handler custody.Handler, logger log.Logger) (*Runner, error) {
	if err := store.LoadLatestVersion(); err != nil {
		return nil, err
	}
	chainID, err := loadChainID(store)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Runner{
		store:   store,
		handler: handler,
		logger:  logger,
		chainID: chainID,
		block:   store.CacheWrap(),
	}, nil
}

// ChainID returns the chain the store was initialized for.
func (r *Runner) ChainID() string {
	return r.chainID
}

// InitChain stores the chain id and loads the genesis state, then commits
// the first version.
func (r *Runner) InitChain(gen *Genesis, init custody.Initializer) (custody.CommitID, error) {
	if r.chainID != "" {
		return custody.CommitID{}, errors.Wrapf(errors.ErrDuplicate, "store already holds chain %q", r.chainID)
	}
	if err := saveChainID(r.block, gen.ChainID); err != nil {
		r.block.Discard()
		r.block = r.store.CacheWrap()
		return custody.CommitID{}, err
	}
	ctx := custody.WithChainID(context.Background(), gen.ChainID)
	ctx = custody.WithLogger(ctx, r.logger)
	if err := init.FromGenesis(ctx, gen.AppState, r.block); err != nil {
		r.block.Discard()
		r.block = r.store.CacheWrap()
		return custody.CommitID{}, errors.Wrap(err, "genesis")
	}
	r.chainID = gen.ChainID
	return r.Commit()
}

// height returns the height of the block in progress.
func (r *Runner) height() (int64, error) {
	id, err := r.store.LatestVersion()
	if err != nil {
		return 0, err
	}
	return id.Version + 1, nil
}

func (r *Runner) context(call string, blockTime time.Time, tx custody.Tx) (custody.Context, error) {
	if r.chainID == "" {
		return nil, errors.Wrap(errors.ErrInvalidState, "chain not initialized")
	}
	height, err := r.height()
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	ctx = custody.WithChainID(ctx, r.chainID)
	ctx = custody.WithHeight(ctx, height)
	ctx = custody.WithBlockTime(ctx, blockTime)
	ctx = custody.WithLogger(ctx, r.logger)
	ctx = custody.WithLogInfo(ctx, "call", call, "path", custody.GetPath(tx))
	return ctx, nil
}

// Check runs the checks of tx against the pending block. Nothing is
// written.
func (r *Runner) Check(blockTime time.Time, tx custody.Tx) (*custody.CheckResult, error) {
	ctx, err := r.context("check_tx", blockTime, tx)
	if err != nil {
		return nil, err
	}
	cache := r.block.CacheWrap()
	defer cache.Discard()
	return r.handler.Check(ctx, cache, tx)
}

// Deliver executes tx as part of the pending block. The writes of tx are
// kept only when it succeeds.
func (r *Runner) Deliver(blockTime time.Time, tx custody.Tx) (*custody.DeliverResult, error) {
	ctx, err := r.context("deliver_tx", blockTime, tx)
	if err != nil {
		return nil, err
	}
	cache := r.block.CacheWrap()
	res, err := r.handler.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return res, nil
}

// Commit persists the pending block as a new version.
func (r *Runner) Commit() (custody.CommitID, error) {
	if err := r.block.Write(); err != nil {
		return custody.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	id, err := r.store.Commit()
	if err != nil {
		return custody.CommitID{}, err
	}
	r.block = r.store.CacheWrap()
	r.logger.Info("commit", "height", id.Version, "hash", id.Hash)
	return id, nil
}

// Store gives read access to the pending block.
func (r *Runner) Store() custody.ReadOnlyKVStore {
	return r.block
}

// Close discards the pending block and releases the store if it holds
// resources.
func (r *Runner) Close() error {
	r.block.Discard()
	if c, ok := r.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
