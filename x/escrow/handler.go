package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/token"
)

// RegisterRoutes will instantiate and register
// all handlers in this package. The authenticator must accept derived
// authorities signed for in the context.
func RegisterRoutes(r custody.Registry, auth x.Authenticator) {
	tokens := token.NewController(auth)
	r.Handle(&MakeMsg{}, MakeHandler{auth: auth, tokens: tokens})
	r.Handle(&TakeMsg{}, TakeHandler{auth: auth, tokens: tokens})
	r.Handle(&RefundMsg{}, RefundHandler{auth: auth, tokens: tokens})
}

// MakeHandler opens escrows.
type MakeHandler struct {
	auth   x.Authenticator
	tokens *token.Controller
}

var _ custody.Handler = MakeHandler{}

// Check just verifies it is properly formed.
func (h MakeHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

// Deliver creates the escrow record and its vault, and deposits the
// offered units.
func (h MakeHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	addr, bump, err := EscrowAddress(msg.Maker, msg.Seed)
	if err != nil {
		return nil, err
	}
	mintA, err := token.LoadMint(db, msg.MintA)
	if err != nil {
		return nil, errors.Wrap(err, "mint a")
	}
	if _, err := token.LoadMint(db, msg.MintB); err != nil {
		return nil, errors.Wrap(err, "mint b")
	}

	e := Escrow{
		Maker:         msg.Maker,
		MintA:         msg.MintA,
		MintB:         msg.MintB,
		Seed:          msg.Seed,
		ReceiveAmount: msg.Receive,
		Bump:          bump,
	}
	if err := escrows.Create(db, msg.Maker, addr, &e); err != nil {
		return nil, errors.Wrap(err, "cannot store escrow")
	}
	vault, err := h.tokens.CreateAssociatedAccount(ctx, db, msg.Maker, addr, msg.MintA)
	if err != nil {
		return nil, errors.Wrap(err, "vault")
	}
	source, err := token.AssociatedAddress(msg.Maker, msg.MintA)
	if err != nil {
		return nil, err
	}
	if err := h.tokens.TransferChecked(ctx, db, source, msg.MintA, vault, msg.Deposit, mintA.Decimals); err != nil {
		return nil, errors.Wrap(err, "deposit")
	}

	custody.GetLogger(ctx).Info("escrow opened",
		"escrow", addr, "maker", msg.Maker, "deposit", msg.Deposit, "receive", msg.Receive)
	return &custody.DeliverResult{Data: addr}, nil
}

func (h MakeHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*MakeMsg, error) {
	var msg MakeMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Maker) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "maker signature missing")
	}
	return &msg, nil
}

// TakeHandler redeems escrows.
type TakeHandler struct {
	auth   x.Authenticator
	tokens *token.Controller
}

var _ custody.Handler = TakeHandler{}

// Check runs every constraint of the redemption without moving anything.
func (h TakeHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

// Deliver pays the maker, hands the vault content to the taker and closes
// both the vault and the escrow record.
func (h TakeHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, e, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	mintA, err := token.LoadMint(db, msg.MintA)
	if err != nil {
		return nil, errors.Wrap(err, "mint a")
	}
	mintB, err := token.LoadMint(db, msg.MintB)
	if err != nil {
		return nil, errors.Wrap(err, "mint b")
	}
	payment, err := token.LoadAccount(db, msg.TakerAccountB)
	if err != nil {
		return nil, errors.Wrap(err, "taker account b")
	}
	if payment.Amount < e.ReceiveAmount {
		return nil, errors.ErrInsufficientAmount.Newf("taker holds %d, escrow wants %d", payment.Amount, e.ReceiveAmount)
	}
	vault, err := token.LoadAccount(db, msg.Vault)
	if err != nil {
		return nil, errors.Wrap(err, "vault")
	}

	if _, _, err := h.tokens.EnsureAssociatedAccount(ctx, db, msg.Taker, msg.Taker, msg.MintA); err != nil {
		return nil, errors.Wrap(err, "taker account a")
	}
	if _, _, err := h.tokens.EnsureAssociatedAccount(ctx, db, msg.Taker, msg.Maker, msg.MintB); err != nil {
		return nil, errors.Wrap(err, "maker account b")
	}
	if err := h.tokens.TransferChecked(ctx, db, msg.TakerAccountB, msg.MintB, msg.MakerAccountB, e.ReceiveAmount, mintB.Decimals); err != nil {
		return nil, errors.Wrap(err, "pay maker")
	}

	signed, err := program.Sign(ctx, e.Bump, escrowSeeds(e.Maker, e.Seed)...)
	if err != nil {
		return nil, err
	}
	if err := h.tokens.TransferChecked(signed, db, msg.Vault, msg.MintA, msg.TakerAccountA, vault.Amount, mintA.Decimals); err != nil {
		return nil, errors.Wrap(err, "drain vault")
	}
	if err := h.tokens.CloseAccount(signed, db, msg.Vault, msg.Taker); err != nil {
		return nil, errors.Wrap(err, "close vault")
	}
	if err := escrows.Close(db, msg.Escrow, msg.Taker); err != nil {
		return nil, errors.Wrap(err, "close escrow")
	}

	custody.GetLogger(ctx).Info("escrow taken",
		"escrow", msg.Escrow, "taker", msg.Taker, "amount_a", vault.Amount, "amount_b", e.ReceiveAmount)
	return &custody.DeliverResult{}, nil
}

// validate loads the escrow and checks every account reference against
// it. Nothing is written.
func (h TakeHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*TakeMsg, *Escrow, error) {
	var msg TakeMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Taker) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "taker signature missing")
	}
	e, err := LoadEscrow(db, msg.Escrow)
	if err != nil {
		return nil, nil, errors.Wrap(err, "escrow")
	}

	constraints := custody.Constraints{
		custody.HasOne("maker", e.Maker, msg.Maker),
		custody.HasOne("mint a", e.MintA, msg.MintA),
		custody.HasOne("mint b", e.MintB, msg.MintB),
		custody.Derived("escrow", program, msg.Escrow, e.Bump, escrowSeeds(e.Maker, e.Seed)...),
		token.AssociatedConstraint(db, "vault", msg.Vault, msg.Escrow, e.MintA, false),
		token.AssociatedConstraint(db, "taker account b", msg.TakerAccountB, msg.Taker, e.MintB, false),
		token.AssociatedConstraint(db, "maker account b", msg.MakerAccountB, e.Maker, e.MintB, true),
		token.AssociatedConstraint(db, "taker account a", msg.TakerAccountA, msg.Taker, e.MintA, true),
	}
	if err := constraints.Validate(); err != nil {
		return nil, nil, err
	}
	return &msg, e, nil
}

// RefundHandler cancels escrows.
type RefundHandler struct {
	auth   x.Authenticator
	tokens *token.Controller
}

var _ custody.Handler = RefundHandler{}

// Check runs every constraint of the refund without moving anything.
func (h RefundHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

// Deliver returns the vault content to the maker and closes both the
// vault and the escrow record.
func (h RefundHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, e, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	mintA, err := token.LoadMint(db, msg.MintA)
	if err != nil {
		return nil, errors.Wrap(err, "mint a")
	}
	vault, err := token.LoadAccount(db, msg.Vault)
	if err != nil {
		return nil, errors.Wrap(err, "vault")
	}
	if _, _, err := h.tokens.EnsureAssociatedAccount(ctx, db, msg.Maker, msg.Maker, msg.MintA); err != nil {
		return nil, errors.Wrap(err, "maker account a")
	}

	signed, err := program.Sign(ctx, e.Bump, escrowSeeds(e.Maker, e.Seed)...)
	if err != nil {
		return nil, err
	}
	if err := h.tokens.TransferChecked(signed, db, msg.Vault, msg.MintA, msg.MakerAccountA, vault.Amount, mintA.Decimals); err != nil {
		return nil, errors.Wrap(err, "drain vault")
	}
	if err := h.tokens.CloseAccount(signed, db, msg.Vault, msg.Maker); err != nil {
		return nil, errors.Wrap(err, "close vault")
	}
	if err := escrows.Close(db, msg.Escrow, msg.Maker); err != nil {
		return nil, errors.Wrap(err, "close escrow")
	}

	custody.GetLogger(ctx).Info("escrow refunded", "escrow", msg.Escrow, "maker", msg.Maker, "amount_a", vault.Amount)
	return &custody.DeliverResult{}, nil
}

func (h RefundHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*RefundMsg, *Escrow, error) {
	var msg RefundMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Maker) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "maker signature missing")
	}
	e, err := LoadEscrow(db, msg.Escrow)
	if err != nil {
		return nil, nil, errors.Wrap(err, "escrow")
	}

	constraints := custody.Constraints{
		custody.HasOne("maker", e.Maker, msg.Maker),
		custody.HasOne("mint a", e.MintA, msg.MintA),
		custody.Derived("escrow", program, msg.Escrow, e.Bump, escrowSeeds(e.Maker, e.Seed)...),
		token.AssociatedConstraint(db, "vault", msg.Vault, msg.Escrow, e.MintA, false),
		token.AssociatedConstraint(db, "maker account a", msg.MakerAccountA, e.Maker, e.MintA, true),
	}
	if err := constraints.Validate(); err != nil {
		return nil, nil, err
	}
	return &msg, e, nil
}
