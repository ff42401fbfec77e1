package app

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/x/escrow"
	"github.com/iov-one/custody/x/metadata"
	"github.com/iov-one/custody/x/sigs"
	"github.com/iov-one/custody/x/staking"
	"github.com/iov-one/custody/x/token"
	"github.com/iov-one/custody/x/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainID = "custody-test"

var blockTime = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

type testChain struct {
	t      *testing.T
	runner *app.Runner
	seq    map[string]int64
}

func (c *testChain) deliver(key custodytest.Key, msg custody.Msg) (*custody.DeliverResult, error) {
	c.t.Helper()
	tx := &Tx{Msg: msg}
	addr := key.Address().String()
	require.NoError(c.t, tx.Sign(key.Private, chainID, c.seq[addr]))

	// everything goes through the wire format
	raw, err := TxEncoder(tx)
	require.NoError(c.t, err)
	decoded, err := TxDecoder(raw)
	require.NoError(c.t, err)

	res, err := c.runner.Deliver(blockTime, decoded)
	if err == nil {
		c.seq[addr]++
	}
	return res, err
}

func ata(t *testing.T, owner, mint custody.Address) custody.Address {
	t.Helper()
	addr, err := token.AssociatedAddress(owner, mint)
	require.NoError(t, err)
	return addr
}

func amount(t *testing.T, db custody.ReadOnlyKVStore, owner, mint custody.Address) uint64 {
	t.Helper()
	acc, err := token.LoadAccount(db, ata(t, owner, mint))
	if errors.ErrNotFound.Is(err) {
		return 0
	}
	require.NoError(t, err)
	return acc.Amount
}

func TestApplication(t *testing.T) {
	maker, taker, user := custodytest.NewKey(), custodytest.NewKey(), custodytest.NewKey()
	issuer := custodytest.SequenceAddress(1)
	mintA, mintB := custodytest.SequenceAddress(2), custodytest.SequenceAddress(3)
	collection, asset := custodytest.SequenceAddress(4), custodytest.SequenceAddress(5)
	edition := func(mint custody.Address) custody.Address {
		addr, _, err := metadata.EditionAddress(mint)
		require.NoError(t, err)
		return addr
	}

	state := map[string]interface{}{
		"wallets": []app.GenesisWallet{
			{Address: maker.Address(), Lamports: 1e10},
			{Address: taker.Address(), Lamports: 1e10},
			{Address: user.Address(), Lamports: 1e10},
		},
		"token": token.Genesis{
			Mints: []token.GenesisMint{
				{Address: mintA, Decimals: 6, MintAuthority: issuer},
				{Address: mintB, Decimals: 2, MintAuthority: issuer},
				{Address: collection, MintAuthority: edition(collection), FreezeAuthority: edition(collection)},
				{Address: asset, MintAuthority: edition(asset), FreezeAuthority: edition(asset)},
			},
			Accounts: []token.GenesisAccount{
				{Owner: maker.Address(), Mint: mintA, Amount: 100},
				{Owner: taker.Address(), Mint: mintB, Amount: 80},
				{Owner: issuer, Mint: collection, Amount: 1},
				{Owner: user.Address(), Mint: asset, Amount: 1},
			},
		},
		"metadata": []metadata.GenesisAsset{
			{Mint: collection, UpdateAuthority: issuer, Name: "collection", MasterEdition: true},
			{Mint: asset, UpdateAuthority: issuer, Name: "asset", Collection: collection, CollectionVerified: true, MasterEdition: true},
		},
		"staking": staking.Genesis{MaxStake: 1},
	}
	raw, err := json.Marshal(state)
	require.NoError(t, err)
	var opts custody.Options
	require.NoError(t, json.Unmarshal(raw, &opts))

	reg := prometheus.NewRegistry()
	metrics, err := utils.NewMetrics(reg)
	require.NoError(t, err)
	kv, err := CommitKVStore("")
	require.NoError(t, err)
	runner, err := app.NewRunner(kv, Stack(metrics), nil)
	require.NoError(t, err)
	_, err = runner.InitChain(&app.Genesis{ChainID: chainID, AppState: opts}, Initializers())
	require.NoError(t, err)

	c := &testChain{t: t, runner: runner, seq: make(map[string]int64)}

	// escrow swap
	res, err := c.deliver(maker, &escrow.MakeMsg{
		Maker:   maker.Address(),
		MintA:   mintA,
		MintB:   mintB,
		Seed:    42,
		Deposit: 100,
		Receive: 50,
	})
	require.NoError(t, err)
	escrowAddr := custody.Address(res.Data)
	take := &escrow.TakeMsg{
		Taker:         taker.Address(),
		Maker:         maker.Address(),
		MintA:         mintA,
		MintB:         mintB,
		TakerAccountA: ata(t, taker.Address(), mintA),
		TakerAccountB: ata(t, taker.Address(), mintB),
		MakerAccountB: ata(t, maker.Address(), mintB),
		Escrow:        escrowAddr,
		Vault:         ata(t, escrowAddr, mintA),
	}

	// a message signed by the wrong key is rejected
	_, err = c.deliver(maker, take)
	assert.True(t, errors.ErrUnauthorized.Is(err))

	_, err = c.deliver(taker, take)
	require.NoError(t, err)
	_, err = c.deliver(taker, take)
	assert.True(t, errors.ErrNotFound.Is(err))

	// stake lock
	_, err = c.deliver(user, &staking.RegisterUserMsg{User: user.Address()})
	require.NoError(t, err)
	config, _, err := staking.ConfigAddress()
	require.NoError(t, err)
	stakeAddr, _, err := staking.StakeAddress(asset, config)
	require.NoError(t, err)
	userAddr, _, err := staking.UserAddress(user.Address())
	require.NoError(t, err)
	mdAddr, _, err := metadata.MetadataAddress(asset)
	require.NoError(t, err)
	_, err = c.deliver(user, &staking.StakeMsg{
		User:           user.Address(),
		Mint:           asset,
		CollectionMint: collection,
		TokenAccount:   ata(t, user.Address(), asset),
		Metadata:       mdAddr,
		Edition:        edition(asset),
		Config:         config,
		StakeRecord:    stakeAddr,
		UserAccount:    userAddr,
	})
	require.NoError(t, err)

	_, err = runner.Commit()
	require.NoError(t, err)

	// state survives a restart
	reopened, err := app.NewRunner(kv, Stack(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, chainID, reopened.ChainID())
	db := reopened.Store()

	assert.Equal(t, uint64(100), amount(t, db, taker.Address(), mintA))
	assert.Equal(t, uint64(30), amount(t, db, taker.Address(), mintB))
	assert.Equal(t, uint64(50), amount(t, db, maker.Address(), mintB))
	exists, err := orm.Exists(db, escrowAddr)
	require.NoError(t, err)
	assert.False(t, exists)

	held, err := token.LoadAccount(db, ata(t, user.Address(), asset))
	require.NoError(t, err)
	assert.True(t, held.Frozen)
	assert.Equal(t, stakeAddr, held.Delegate)
	u, err := staking.LoadUser(db, userAddr)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), u.Amount)
	rec, err := staking.LoadStake(db, stakeAddr)
	require.NoError(t, err)
	assert.Equal(t, blockTime.Unix(), rec.StakedAt)

	// every delivery was counted
	families, err := reg.Gather()
	require.NoError(t, err)
	var delivered float64
	for _, f := range families {
		if f.GetName() != "custody_transactions_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			delivered += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(6), delivered)
}

func TestReplayedSignature(t *testing.T) {
	key := custodytest.NewKey()
	kv, err := CommitKVStore("")
	require.NoError(t, err)
	runner, err := app.NewRunner(kv, Stack(nil), nil)
	require.NoError(t, err)
	opts := custody.Options{"wallets": []byte(`[{"address": "` + key.Address().String() + `", "lamports": 1000000000}]`)}
	_, err = runner.InitChain(&app.Genesis{ChainID: chainID, AppState: opts}, Initializers())
	require.NoError(t, err)

	tx := &Tx{Msg: &staking.RegisterUserMsg{User: key.Address()}}
	require.NoError(t, tx.Sign(key.Private, chainID, 0))
	_, err = runner.Deliver(blockTime, tx)
	require.NoError(t, err)

	seq, err := sigs.Sequence(runner.Store(), key.Public)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	_, err = runner.Deliver(blockTime, tx)
	assert.True(t, sigs.ErrInvalidSequence.Is(err))

	// unsigned transactions are refused
	_, err = runner.Deliver(blockTime, &Tx{Msg: &staking.RegisterUserMsg{User: key.Address()}})
	assert.True(t, errors.ErrUnauthorized.Is(err))
}

func TestTxJSON(t *testing.T) {
	key := custodytest.NewKey()
	tx := &Tx{Msg: &escrow.MakeMsg{
		Maker:   key.Address(),
		MintA:   custodytest.SequenceAddress(1),
		MintB:   custodytest.SequenceAddress(2),
		Seed:    7,
		Deposit: 10,
		Receive: 5,
	}}
	require.NoError(t, tx.Sign(key.Private, chainID, 3))

	raw, err := TxToJSON(tx)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"custody/escrow/make"`)
	assert.Contains(t, string(raw), key.Address().String())

	back, err := TxFromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, tx, back)

	_, err = TxFromJSON([]byte(`{"msg": {"type": "custody/unknown", "value": {}}}`))
	assert.True(t, errors.ErrInvalidInput.Is(err))
}
