package metadata

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/token"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r custody.Registry, auth x.Authenticator) {
	h := handler{control: NewController(auth, token.NewController(auth))}
	r.Handle(&CreateMetadataMsg{}, h)
	r.Handle(&CreateMasterEditionMsg{}, h)
	r.Handle(&VerifyCollectionMsg{}, h)
	r.Handle(&FreezeDelegatedMsg{}, h)
	r.Handle(&ThawDelegatedMsg{}, h)
}

// handler dispatches every metadata message to the controller. All
// authorization happens in the controller.
type handler struct {
	control *Controller
}

var _ custody.Handler = handler{}

func (h handler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := loadMsg(tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h handler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, err := loadMsg(tx)
	if err != nil {
		return nil, err
	}

	var created custody.Address
	switch msg := msg.(type) {
	case *CreateMetadataMsg:
		created, err = h.control.CreateMetadata(ctx, db, msg.Payer, msg.Mint, msg.UpdateAuthority, msg.Name, msg.URI, msg.Collection)
	case *CreateMasterEditionMsg:
		created, err = h.control.CreateMasterEdition(ctx, db, msg.Payer, msg.Mint)
	case *VerifyCollectionMsg:
		err = h.control.VerifyCollection(ctx, db, msg.Mint, msg.CollectionMint)
	case *FreezeDelegatedMsg:
		err = h.control.FreezeDelegated(ctx, db, msg.Delegate, msg.TokenAccount, msg.Mint)
	case *ThawDelegatedMsg:
		err = h.control.ThawDelegated(ctx, db, msg.Delegate, msg.TokenAccount, msg.Mint)
	}
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{Data: created}, nil
}

func loadMsg(tx custody.Tx) (custody.Msg, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	switch msg.(type) {
	case *CreateMetadataMsg, *CreateMasterEditionMsg, *VerifyCollectionMsg, *FreezeDelegatedMsg, *ThawDelegatedMsg:
	default:
		return nil, errors.Wrapf(errors.ErrInvalidMsg, "unknown message %T", msg)
	}
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid message")
	}
	return msg, nil
}
