package token

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r custody.Registry, auth x.Authenticator) {
	control := NewController(auth)
	r.Handle(&CreateAccountMsg{}, CreateAccountHandler{auth: auth, control: control})
	r.Handle(&MintToMsg{}, MintToHandler{control: control})
	r.Handle(&TransferMsg{}, TransferHandler{control: control})
}

// CreateAccountHandler creates associated token accounts.
type CreateAccountHandler struct {
	auth    x.Authenticator
	control *Controller
}

var _ custody.Handler = CreateAccountHandler{}

func (h CreateAccountHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h CreateAccountHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	addr, err := h.control.CreateAssociatedAccount(ctx, db, msg.Payer, msg.Owner, msg.Mint)
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: addr}, nil
}

func (h CreateAccountHandler) validate(ctx custody.Context, tx custody.Tx) (*CreateAccountMsg, error) {
	var msg CreateAccountMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Payer) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "payer signature missing")
	}
	return &msg, nil
}

// MintToHandler issues new units.
type MintToHandler struct {
	control *Controller
}

var _ custody.Handler = MintToHandler{}

func (h MintToHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	var msg MintToMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return &custody.CheckResult{}, nil
}

func (h MintToHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	var msg MintToMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := h.control.MintTo(ctx, db, msg.Mint, msg.Destination, msg.Amount); err != nil {
		return nil, err
	}
	return &custody.DeliverResult{}, nil
}

// TransferHandler moves units between token accounts.
type TransferHandler struct {
	control *Controller
}

var _ custody.Handler = TransferHandler{}

func (h TransferHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	var msg TransferMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return &custody.CheckResult{}, nil
}

func (h TransferHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	var msg TransferMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	err := h.control.TransferChecked(ctx, db, msg.Source, msg.Mint, msg.Destination, msg.Amount, uint8(msg.Decimals))
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{}, nil
}
