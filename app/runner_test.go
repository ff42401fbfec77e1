package app

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/store/iavl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockTimeHandler writes the block time under its key.
type blockTimeHandler struct {
	key []byte
	err error
}

func (h blockTimeHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	return &custody.CheckResult{}, h.write(ctx, db)
}

func (h blockTimeHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	if err := h.write(ctx, db); err != nil {
		return nil, err
	}
	if h.err != nil {
		return nil, h.err
	}
	return &custody.DeliverResult{Data: h.key}, nil
}

func (h blockTimeHandler) write(ctx custody.Context, db custody.KVStore) error {
	now, err := custody.BlockTime(ctx)
	if err != nil {
		return err
	}
	return db.Set(h.key, []byte(now.UTC().Format(time.RFC3339)))
}

func newRunner(t *testing.T) (*Runner, iavl.CommitStore) {
	t.Helper()
	kv := iavl.NewMemCommitStore()
	r := NewRouter()
	r.Handle(&custodytest.Msg{RoutePath: "test/ok"}, blockTimeHandler{key: []byte("ok")})
	r.Handle(&custodytest.Msg{RoutePath: "test/fail"}, blockTimeHandler{key: []byte("fail"), err: errors.ErrCapacity})
	runner, err := NewRunner(kv, r, nil)
	require.NoError(t, err)
	return runner, kv
}

func TestRunner(t *testing.T) {
	runner, kv := newRunner(t)
	now := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	ok := &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: "test/ok"}}
	fail := &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: "test/fail"}}

	_, err := runner.Deliver(now, ok)
	assert.True(t, errors.ErrInvalidState.Is(err), "chain not initialized")

	wallet := custodytest.SequenceAddress(1)
	state, err := json.Marshal(map[string]interface{}{
		"wallets": []GenesisWallet{{Address: wallet, Lamports: 1000}},
	})
	require.NoError(t, err)
	var opts custody.Options
	require.NoError(t, json.Unmarshal(state, &opts))
	id, err := runner.InitChain(&Genesis{ChainID: "test-chain", AppState: opts}, ChainInitializers(Wallets{}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Version)
	assert.Equal(t, "test-chain", runner.ChainID())

	balance, err := orm.Balance(runner.Store(), wallet)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), balance)

	_, err = runner.InitChain(&Genesis{ChainID: "test-chain"}, ChainInitializers())
	assert.True(t, errors.ErrDuplicate.Is(err))

	// check never writes
	_, err = runner.Check(now, ok)
	require.NoError(t, err)
	has, err := runner.Store().Has([]byte("ok"))
	require.NoError(t, err)
	assert.False(t, has)

	// a failing delivery leaves no trace
	_, err = runner.Deliver(now, fail)
	assert.True(t, errors.ErrCapacity.Is(err))
	has, err = runner.Store().Has([]byte("fail"))
	require.NoError(t, err)
	assert.False(t, has)

	res, err := runner.Deliver(now, ok)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), res.Data)

	// nothing is committed before Commit
	val, err := kv.Get([]byte("ok"))
	require.NoError(t, err)
	assert.Nil(t, val)

	id, err = runner.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(2), id.Version)
	val, err = kv.Get([]byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, "2020-01-02T03:04:05Z", string(val))

	// a reopened runner knows its chain
	reopened, err := NewRunner(kv, NewRouter(), nil)
	require.NoError(t, err)
	assert.Equal(t, "test-chain", reopened.ChainID())
}

func TestLoadGenesis(t *testing.T) {
	dir, err := ioutil.TempDir("", "genesis")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	good := filepath.Join(dir, "good.json")
	require.NoError(t, ioutil.WriteFile(good, []byte(`{"chain_id": "test-chain", "app_state": {"staking": {"max_stake": 5}}}`), 0600))
	gen, err := LoadGenesis(good)
	require.NoError(t, err)
	assert.Equal(t, "test-chain", gen.ChainID)
	assert.JSONEq(t, `{"max_stake": 5}`, string(gen.AppState["staking"]))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, ioutil.WriteFile(bad, []byte(`{"chain_id": "x"}`), 0600))
	_, err = LoadGenesis(bad)
	assert.True(t, errors.ErrInvalidInput.Is(err))

	_, err = LoadGenesis(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.ErrHuman.Is(err))
}

func TestWalletsRejectInvalidAddress(t *testing.T) {
	runner, _ := newRunner(t)
	opts := custody.Options{"wallets": []byte(`[{"address": "", "lamports": 5}]`)}
	_, err := runner.InitChain(&Genesis{ChainID: "test-chain", AppState: opts}, Wallets{})
	assert.True(t, errors.ErrInvalidInput.Is(err))
	assert.Equal(t, "", runner.ChainID())
}
