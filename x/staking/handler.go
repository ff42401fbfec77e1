package staking

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/metadata"
	"github.com/iov-one/custody/x/token"
)

// RegisterRoutes will instantiate and register
// all handlers in this package. The authenticator must accept derived
// authorities signed for in the context.
func RegisterRoutes(r custody.Registry, auth x.Authenticator) {
	tokens := token.NewController(auth)
	meta := metadata.NewController(auth, tokens)
	r.Handle(&RegisterUserMsg{}, RegisterUserHandler{auth: auth})
	r.Handle(&StakeMsg{}, StakeHandler{auth: auth, tokens: tokens, meta: meta})
	r.Handle(&UnstakeMsg{}, UnstakeHandler{auth: auth, tokens: tokens, meta: meta})
}

// RegisterUserHandler creates user accounts.
type RegisterUserHandler struct {
	auth x.Authenticator
}

var _ custody.Handler = RegisterUserHandler{}

// Check just verifies it is properly formed and signed.
func (h RegisterUserHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

// Deliver stores an empty UserAccount paid for by its owner.
func (h RegisterUserHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	addr, bump, err := UserAddress(msg.User)
	if err != nil {
		return nil, err
	}
	if err := users.Create(db, msg.User, addr, &UserAccount{Bump: bump}); err != nil {
		return nil, errors.Wrap(err, "cannot store user")
	}
	return &custody.DeliverResult{Data: addr}, nil
}

func (h RegisterUserHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*RegisterUserMsg, error) {
	var msg RegisterUserMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.User) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "user signature missing")
	}
	return &msg, nil
}

// StakeHandler locks assets.
type StakeHandler struct {
	auth   x.Authenticator
	tokens *token.Controller
	meta   *metadata.Controller
}

var _ custody.Handler = StakeHandler{}

// Check runs every constraint of the lock and the capacity check without
// changing anything.
func (h StakeHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

// Deliver records the lock, delegates the asset to the stake record and
// freezes it in place.
func (h StakeHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	s, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	msg := s.msg
	now, err := custody.BlockTime(ctx)
	if err != nil {
		return nil, err
	}
	_, bump, err := StakeAddress(msg.Mint, msg.Config)
	if err != nil {
		return nil, err
	}

	rec := StakeRecord{
		Owner:    msg.User,
		Mint:     msg.Mint,
		StakedAt: now.Unix(),
		Bump:     bump,
	}
	if err := stakes.Create(db, msg.User, msg.StakeRecord, &rec); err != nil {
		return nil, errors.Wrap(err, "cannot store stake record")
	}
	if err := h.tokens.Approve(ctx, db, msg.TokenAccount, msg.StakeRecord, 1); err != nil {
		return nil, errors.Wrap(err, "approve")
	}
	signed, err := program.Sign(ctx, bump, stakeSeeds(msg.Mint, msg.Config)...)
	if err != nil {
		return nil, err
	}
	if err := h.meta.FreezeDelegated(signed, db, msg.StakeRecord, msg.TokenAccount, msg.Mint); err != nil {
		return nil, errors.Wrap(err, "freeze")
	}
	s.user.Amount++
	if err := users.Save(db, msg.UserAccount, s.user); err != nil {
		return nil, errors.Wrap(err, "cannot store user")
	}

	custody.GetLogger(ctx).Info("asset staked",
		"stake", msg.StakeRecord, "owner", msg.User, "mint", msg.Mint, "active", s.user.Amount)
	return &custody.DeliverResult{Data: msg.StakeRecord}, nil
}

type stakeRequest struct {
	msg  *StakeMsg
	user *UserAccount
}

// validate checks every account reference of the lock. Records are loaded
// by the constraint that first needs them so that a wrong reference fails
// on its own label. Nothing is written.
func (h StakeHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*stakeRequest, error) {
	var msg StakeMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.User) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "user signature missing")
	}

	var (
		cfg  *StakeConfig
		user *UserAccount
	)
	constraints := custody.Constraints{
		token.AssociatedConstraint(db, "token account", msg.TokenAccount, msg.User, msg.Mint, false),
		{
			Name: "token balance",
			Check: func() error {
				acc, err := token.LoadAccount(db, msg.TokenAccount)
				if err != nil {
					return err
				}
				switch {
				case acc.Amount == 0:
					return errors.ErrInsufficientAmount.Newf("%s holds no %s", msg.TokenAccount, msg.Mint)
				case acc.Amount > 1:
					return errors.Wrapf(errors.ErrConstraint, "%s holds %d units of %s", msg.TokenAccount, acc.Amount, msg.Mint)
				}
				return nil
			},
		},
		{
			Name: "metadata derivation",
			Check: func() error {
				return custody.Require(metadata.VerifyMetadataAddress(msg.Metadata, msg.Mint),
					"%s is not the metadata of %s", msg.Metadata, msg.Mint)
			},
		},
		{
			Name: "edition derivation",
			Check: func() error {
				return custody.Require(metadata.VerifyEditionAddress(msg.Edition, msg.Mint),
					"%s is not the edition of %s", msg.Edition, msg.Mint)
			},
		},
		{
			Name: "collection",
			Check: func() error {
				md, err := metadata.LoadMetadata(db, msg.Metadata)
				if err != nil {
					return err
				}
				if md.Collection == nil || !md.Collection.Key.Equals(msg.CollectionMint) {
					return errors.ErrUnverified.Newf("asset is not part of collection %s", msg.CollectionMint)
				}
				if !md.Collection.Verified {
					return errors.ErrUnverified.Newf("membership of collection %s is not verified", msg.CollectionMint)
				}
				return nil
			},
		},
		{
			Name: "config derivation",
			Check: func() error {
				var err error
				if cfg, err = LoadConfig(db, msg.Config); err != nil {
					return err
				}
				return custody.Derived("config", program, msg.Config, cfg.Bump, configSeeds()...).Check()
			},
		},
		{
			Name: "user derivation",
			Check: func() error {
				var err error
				if user, err = LoadUser(db, msg.UserAccount); err != nil {
					return err
				}
				return custody.Derived("user", program, msg.UserAccount, user.Bump, userSeeds(msg.User)...).Check()
			},
		},
		{
			Name: "stake record derivation",
			Check: func() error {
				addr, _, err := StakeAddress(msg.Mint, msg.Config)
				if err != nil {
					return err
				}
				return custody.Require(addr.Equals(msg.StakeRecord),
					"%s is not the stake record of %s", msg.StakeRecord, msg.Mint)
			},
		},
	}
	if err := constraints.Validate(); err != nil {
		return nil, err
	}
	if user.Amount >= cfg.MaxStake {
		return nil, errors.ErrCapacity.Newf("%d of %d assets staked", user.Amount, cfg.MaxStake)
	}
	return &stakeRequest{msg: &msg, user: user}, nil
}

// UnstakeHandler releases assets.
type UnstakeHandler struct {
	auth   x.Authenticator
	tokens *token.Controller
	meta   *metadata.Controller
}

var _ custody.Handler = UnstakeHandler{}

// Check runs every constraint of the release without changing anything.
func (h UnstakeHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

// Deliver thaws the asset, revokes the delegation and closes the stake
// record, returning its deposit to the owner.
func (h UnstakeHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, rec, user, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	signed, err := program.Sign(ctx, rec.Bump, stakeSeeds(msg.Mint, msg.Config)...)
	if err != nil {
		return nil, err
	}
	if err := h.meta.ThawDelegated(signed, db, msg.StakeRecord, msg.TokenAccount, msg.Mint); err != nil {
		return nil, errors.Wrap(err, "thaw")
	}
	if err := h.tokens.Revoke(ctx, db, msg.TokenAccount); err != nil {
		return nil, errors.Wrap(err, "revoke")
	}
	if err := stakes.Close(db, msg.StakeRecord, msg.User); err != nil {
		return nil, errors.Wrap(err, "close stake record")
	}
	user.Amount--
	if err := users.Save(db, msg.UserAccount, user); err != nil {
		return nil, errors.Wrap(err, "cannot store user")
	}

	custody.GetLogger(ctx).Info("asset unstaked",
		"stake", msg.StakeRecord, "owner", msg.User, "mint", msg.Mint, "active", user.Amount)
	return &custody.DeliverResult{}, nil
}

func (h UnstakeHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*UnstakeMsg, *StakeRecord, *UserAccount, error) {
	var msg UnstakeMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.User) {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "user signature missing")
	}
	rec, err := LoadStake(db, msg.StakeRecord)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "stake record")
	}

	var user *UserAccount
	constraints := custody.Constraints{
		custody.HasOne("owner", rec.Owner, msg.User),
		custody.HasOne("mint", rec.Mint, msg.Mint),
		custody.Derived("stake record", program, msg.StakeRecord, rec.Bump, stakeSeeds(msg.Mint, msg.Config)...),
		{
			Name: "config",
			Check: func() error {
				_, err := LoadConfig(db, msg.Config)
				return err
			},
		},
		{
			Name: "user derivation",
			Check: func() error {
				var err error
				if user, err = LoadUser(db, msg.UserAccount); err != nil {
					return err
				}
				return custody.Derived("user", program, msg.UserAccount, user.Bump, userSeeds(msg.User)...).Check()
			},
		},
		token.AssociatedConstraint(db, "token account", msg.TokenAccount, msg.User, msg.Mint, false),
	}
	if err := constraints.Validate(); err != nil {
		return nil, nil, nil, err
	}
	if user.Amount == 0 {
		return nil, nil, nil, errors.Wrap(errors.ErrInvalidState, "user has no active stake")
	}
	return &msg, rec, user, nil
}
