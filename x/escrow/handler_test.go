package escrow

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/custodytest/assert"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/token"
)

type router map[string]custody.Handler

func (r router) Handle(m custody.Msg, h custody.Handler) {
	r[m.Path()] = h
}

type env struct {
	t     testing.TB
	db    custody.CacheableKVStore
	ctx   custody.Context
	maker custody.Address
	taker custody.Address
	mintA custody.Address
	mintB custody.Address
}

// newEnv creates two mints. The maker holds 100 units of A and the taker
// holds takerB units of B.
func newEnv(t testing.TB, takerB uint64) *env {
	t.Helper()
	e := &env{
		t:     t,
		db:    store.MemStore(),
		ctx:   context.Background(),
		maker: custodytest.SequenceAddress(1),
		taker: custodytest.SequenceAddress(2),
		mintA: custodytest.SequenceAddress(3),
		mintB: custodytest.SequenceAddress(4),
	}
	issuer := custodytest.SequenceAddress(5)
	gen, err := json.Marshal(token.Genesis{
		Mints: []token.GenesisMint{
			{Address: e.mintA, Decimals: 6, MintAuthority: issuer},
			{Address: e.mintB, Decimals: 2, MintAuthority: issuer},
		},
		Accounts: []token.GenesisAccount{
			{Owner: e.maker, Mint: e.mintA, Amount: 100},
			{Owner: e.taker, Mint: e.mintB, Amount: takerB},
		},
	})
	assert.Nil(t, err)
	assert.Nil(t, token.Initializer{}.FromGenesis(e.ctx, custody.Options{"token": gen}, e.db))
	assert.Nil(t, orm.Credit(e.db, e.maker, 1e9))
	assert.Nil(t, orm.Credit(e.db, e.taker, 1e9))
	return e
}

// deliver runs msg signed by signer in a cache wrap that is only written
// when the handler succeeds.
func (e *env) deliver(signer custody.Address, msg custody.Msg) (*custody.DeliverResult, error) {
	e.t.Helper()
	r := router{}
	RegisterRoutes(r, x.ChainAuth(&custodytest.Auth{Signer: signer}, custody.AuthorityAuth{}))
	h, ok := r[msg.Path()]
	if !ok {
		e.t.Fatalf("no handler for %q", msg.Path())
	}
	tx := &custodytest.Tx{Msg: msg}

	cache := e.db.CacheWrap()
	if _, err := h.Check(e.ctx, cache, tx); err != nil {
		cache.Discard()
		return nil, err
	}
	res, err := h.Deliver(e.ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	assert.Nil(e.t, cache.Write())
	return res, nil
}

func (e *env) ata(owner, mint custody.Address) custody.Address {
	e.t.Helper()
	addr, err := token.AssociatedAddress(owner, mint)
	assert.Nil(e.t, err)
	return addr
}

func (e *env) amount(owner, mint custody.Address) uint64 {
	e.t.Helper()
	acc, err := token.LoadAccount(e.db, e.ata(owner, mint))
	if errors.ErrNotFound.Is(err) {
		return 0
	}
	assert.Nil(e.t, err)
	return acc.Amount
}

func (e *env) exists(addr custody.Address) bool {
	e.t.Helper()
	ok, err := orm.Exists(e.db, addr)
	assert.Nil(e.t, err)
	return ok
}

// make opens the escrow of scenario A: 100 units of A for 50 units of B
// under seed 7.
func (e *env) make() (escrow, vault custody.Address) {
	e.t.Helper()
	res, err := e.deliver(e.maker, &MakeMsg{
		Maker:   e.maker,
		MintA:   e.mintA,
		MintB:   e.mintB,
		Seed:    7,
		Deposit: 100,
		Receive: 50,
	})
	assert.Nil(e.t, err)
	escrow = custody.Address(res.Data)
	return escrow, e.ata(escrow, e.mintA)
}

func (e *env) takeMsg(escrow, vault custody.Address) *TakeMsg {
	return &TakeMsg{
		Taker:         e.taker,
		Maker:         e.maker,
		MintA:         e.mintA,
		MintB:         e.mintB,
		TakerAccountA: e.ata(e.taker, e.mintA),
		TakerAccountB: e.ata(e.taker, e.mintB),
		MakerAccountB: e.ata(e.maker, e.mintB),
		Escrow:        escrow,
		Vault:         vault,
	}
}

func TestMake(t *testing.T) {
	e := newEnv(t, 80)
	escrow, vault := e.make()

	want, bump, err := EscrowAddress(e.maker, 7)
	assert.Nil(t, err)
	assert.Equal(t, want, escrow)

	rec, err := LoadEscrow(e.db, escrow)
	assert.Nil(t, err)
	assert.Equal(t, &Escrow{
		Maker:         e.maker,
		MintA:         e.mintA,
		MintB:         e.mintB,
		Seed:          7,
		ReceiveAmount: 50,
		Bump:          bump,
	}, rec)

	acc, err := token.LoadAccount(e.db, vault)
	assert.Nil(t, err)
	assert.Equal(t, uint64(100), acc.Amount)
	assert.Equal(t, escrow, acc.Owner)
	assert.Equal(t, uint64(0), e.amount(e.maker, e.mintA))

	// The same seed cannot be reused while the escrow is open.
	_, err = e.deliver(e.maker, &MakeMsg{Maker: e.maker, MintA: e.mintA, MintB: e.mintB, Seed: 7, Deposit: 1, Receive: 1})
	assert.IsErr(t, errors.ErrDuplicate, err)

	_, err = e.deliver(e.taker, &MakeMsg{Maker: e.maker, MintA: e.mintA, MintB: e.mintB, Seed: 8, Deposit: 1, Receive: 1})
	assert.IsErr(t, errors.ErrUnauthorized, err)
}

func TestTakeScenarioA(t *testing.T) {
	e := newEnv(t, 80)
	escrow, vault := e.make()
	takerLamports, err := orm.Balance(e.db, e.taker)
	assert.Nil(t, err)

	_, err = e.deliver(e.taker, e.takeMsg(escrow, vault))
	assert.Nil(t, err)

	assert.Equal(t, uint64(100), e.amount(e.taker, e.mintA))
	assert.Equal(t, uint64(30), e.amount(e.taker, e.mintB))
	assert.Equal(t, uint64(50), e.amount(e.maker, e.mintB))
	assert.Equal(t, false, e.exists(vault))
	assert.Equal(t, false, e.exists(escrow))

	// The taker paid for two token accounts and got the vault and escrow
	// deposits back.
	tokenAccountRent := orm.MinimumBalance(orm.DiscriminatorLength + 3*custody.AddressLength + 18)
	escrowRent := orm.MinimumBalance(orm.DiscriminatorLength + 3*custody.AddressLength + 17)
	got, err := orm.Balance(e.db, e.taker)
	assert.Nil(t, err)
	assert.Equal(t, takerLamports-tokenAccountRent+escrowRent, got)
}

func TestTakeTwice(t *testing.T) {
	e := newEnv(t, 80)
	escrow, vault := e.make()

	_, err := e.deliver(e.taker, e.takeMsg(escrow, vault))
	assert.Nil(t, err)
	_, err = e.deliver(e.taker, e.takeMsg(escrow, vault))
	assert.IsErr(t, errors.ErrNotFound, err)
	assert.Equal(t, uint64(100), e.amount(e.taker, e.mintA))
	assert.Equal(t, uint64(50), e.amount(e.maker, e.mintB))
}

func TestTakeInsufficientBalance(t *testing.T) {
	e := newEnv(t, 49)
	escrow, vault := e.make()
	lamports, err := orm.Balance(e.db, e.taker)
	assert.Nil(t, err)

	_, err = e.deliver(e.taker, e.takeMsg(escrow, vault))
	assert.IsErr(t, errors.ErrInsufficientAmount, err)

	assert.Equal(t, uint64(49), e.amount(e.taker, e.mintB))
	assert.Equal(t, uint64(0), e.amount(e.maker, e.mintB))
	assert.Equal(t, uint64(0), e.amount(e.taker, e.mintA))
	assert.Equal(t, true, e.exists(escrow))
	acc, err := token.LoadAccount(e.db, vault)
	assert.Nil(t, err)
	assert.Equal(t, uint64(100), acc.Amount)
	assert.Equal(t, false, e.exists(e.ata(e.taker, e.mintA)))
	after, err := orm.Balance(e.db, e.taker)
	assert.Nil(t, err)
	assert.Equal(t, lamports, after)
}

func TestTakeConstraints(t *testing.T) {
	stranger := custodytest.SequenceAddress(9)

	cases := map[string]struct {
		signer  func(e *env) custody.Address
		modify  func(e *env, msg *TakeMsg)
		wantErr *errors.Error
	}{
		"taker did not sign": {
			signer:  func(e *env) custody.Address { return stranger },
			modify:  func(e *env, msg *TakeMsg) {},
			wantErr: errors.ErrUnauthorized,
		},
		"mint a is not the vault asset": {
			modify:  func(e *env, msg *TakeMsg) { msg.MintA = e.mintB },
			wantErr: errors.ErrConstraint,
		},
		"mint b differs": {
			modify:  func(e *env, msg *TakeMsg) { msg.MintB = e.mintA },
			wantErr: errors.ErrConstraint,
		},
		"maker differs": {
			modify:  func(e *env, msg *TakeMsg) { msg.Maker = stranger },
			wantErr: errors.ErrConstraint,
		},
		"vault of someone else": {
			modify:  func(e *env, msg *TakeMsg) { msg.Vault = e.ata(e.maker, e.mintA) },
			wantErr: errors.ErrConstraint,
		},
		"maker destination is not the maker's": {
			modify:  func(e *env, msg *TakeMsg) { msg.MakerAccountB = e.ata(stranger, e.mintB) },
			wantErr: errors.ErrConstraint,
		},
		"maker destination holds mint a": {
			modify:  func(e *env, msg *TakeMsg) { msg.MakerAccountB = e.ata(e.maker, e.mintA) },
			wantErr: errors.ErrConstraint,
		},
		"payment from another account": {
			modify:  func(e *env, msg *TakeMsg) { msg.TakerAccountB = e.ata(e.taker, e.mintA) },
			wantErr: errors.ErrConstraint,
		},
		"taker receives into a foreign account": {
			modify:  func(e *env, msg *TakeMsg) { msg.TakerAccountA = e.ata(e.maker, e.mintA) },
			wantErr: errors.ErrConstraint,
		},
		"unknown escrow": {
			modify:  func(e *env, msg *TakeMsg) { msg.Escrow = stranger },
			wantErr: errors.ErrNotFound,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := newEnv(t, 80)
			escrow, vault := e.make()
			msg := e.takeMsg(escrow, vault)
			tc.modify(e, msg)
			signer := e.taker
			if tc.signer != nil {
				signer = tc.signer(e)
			}

			_, err := e.deliver(signer, msg)
			assert.IsErr(t, tc.wantErr, err)

			assert.Equal(t, true, e.exists(escrow))
			assert.Equal(t, uint64(80), e.amount(e.taker, e.mintB))
			assert.Equal(t, uint64(0), e.amount(e.maker, e.mintB))
			acc, err := token.LoadAccount(e.db, vault)
			assert.Nil(t, err)
			assert.Equal(t, uint64(100), acc.Amount)
		})
	}
}

func TestRefund(t *testing.T) {
	e := newEnv(t, 80)
	escrow, vault := e.make()
	msg := &RefundMsg{
		Maker:         e.maker,
		MintA:         e.mintA,
		MakerAccountA: e.ata(e.maker, e.mintA),
		Escrow:        escrow,
		Vault:         vault,
	}

	_, err := e.deliver(e.taker, msg)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	_, err = e.deliver(e.maker, msg)
	assert.Nil(t, err)
	assert.Equal(t, uint64(100), e.amount(e.maker, e.mintA))
	assert.Equal(t, false, e.exists(escrow))
	assert.Equal(t, false, e.exists(vault))

	// Refund and take are mutually exclusive.
	_, err = e.deliver(e.taker, e.takeMsg(escrow, vault))
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = e.deliver(e.maker, msg)
	assert.IsErr(t, errors.ErrNotFound, err)
}
