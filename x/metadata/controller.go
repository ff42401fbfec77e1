package metadata

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/token"
)

// Controller executes metadata operations.
type Controller struct {
	auth   x.Authenticator
	tokens *token.Controller
}

// NewController returns a controller authorizing with auth. The token
// controller must accept derived authorities signed for in the context,
// because the master edition signs token freezes.
func NewController(auth x.Authenticator, tokens *token.Controller) *Controller {
	return &Controller{auth: auth, tokens: tokens}
}

func (c *Controller) requireSigner(ctx custody.Context, addr custody.Address, role string) error {
	if addr == nil || !c.auth.HasAddress(ctx, addr) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s %s did not sign", role, addr)
	}
	return nil
}

// CreateMetadata creates the metadata of mint. The mint authority signs
// and the payer funds the rent deposit. A non nil collection is stored
// unverified.
func (c *Controller) CreateMetadata(ctx custody.Context, db custody.KVStore, payer, mint, updateAuthority custody.Address, name, uri string, collection custody.Address) (custody.Address, error) {
	if err := c.requireSigner(ctx, payer, "payer"); err != nil {
		return nil, err
	}
	m, err := token.LoadMint(db, mint)
	if err != nil {
		return nil, errors.Wrap(err, "mint")
	}
	if err := c.requireSigner(ctx, m.MintAuthority, "mint authority"); err != nil {
		return nil, err
	}
	addr, bump, err := MetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	md := Metadata{
		Mint:            mint,
		UpdateAuthority: updateAuthority,
		Name:            name,
		URI:             uri,
		Bump:            bump,
	}
	if collection != nil {
		md.Collection = &Collection{Key: collection}
	}
	if err := metadatas.Create(db, payer, addr, &md); err != nil {
		return nil, err
	}
	return addr, nil
}

// CreateMasterEdition turns mint into a unique asset. The mint must have
// zero decimals and a supply of one. Its mint and freeze authorities move
// to the edition, so both the update authority and the current mint and
// freeze authorities sign.
func (c *Controller) CreateMasterEdition(ctx custody.Context, db custody.KVStore, payer, mint custody.Address) (custody.Address, error) {
	if err := c.requireSigner(ctx, payer, "payer"); err != nil {
		return nil, err
	}
	mdAddr, _, err := MetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	md, err := LoadMetadata(db, mdAddr)
	if err != nil {
		return nil, errors.Wrap(err, "metadata")
	}
	if err := c.requireSigner(ctx, md.UpdateAuthority, "update authority"); err != nil {
		return nil, err
	}
	m, err := token.LoadMint(db, mint)
	if err != nil {
		return nil, errors.Wrap(err, "mint")
	}
	if m.Decimals != 0 || m.Supply != 1 {
		return nil, errors.Wrapf(errors.ErrInvalidState, "mint with %d decimals and supply %d is not unique", m.Decimals, m.Supply)
	}
	if m.FreezeAuthority == nil {
		return nil, errors.Wrap(errors.ErrInvalidState, "mint cannot freeze")
	}

	addr, bump, err := EditionAddress(mint)
	if err != nil {
		return nil, err
	}
	e := MasterEdition{Supply: 0, MaxSupply: 0, Bump: bump}
	if err := editions.Create(db, payer, addr, &e); err != nil {
		return nil, err
	}
	if err := c.tokens.SetAuthority(ctx, db, mint, token.MintTokens, addr); err != nil {
		return nil, errors.Wrap(err, "mint authority")
	}
	if err := c.tokens.SetAuthority(ctx, db, mint, token.FreezeAccount, addr); err != nil {
		return nil, errors.Wrap(err, "freeze authority")
	}
	return addr, nil
}

// VerifyCollection marks the collection of the asset minted by mint as
// verified. The update authority of the collection signs, and the
// collection must itself be a unique asset.
func (c *Controller) VerifyCollection(ctx custody.Context, db custody.KVStore, mint, collectionMint custody.Address) error {
	mdAddr, _, err := MetadataAddress(mint)
	if err != nil {
		return err
	}
	md, err := LoadMetadata(db, mdAddr)
	if err != nil {
		return errors.Wrap(err, "metadata")
	}
	if md.Collection == nil || !md.Collection.Key.Equals(collectionMint) {
		return errors.Wrapf(errors.ErrUnverified, "asset does not claim collection %s", collectionMint)
	}

	colAddr, _, err := MetadataAddress(collectionMint)
	if err != nil {
		return err
	}
	col, err := LoadMetadata(db, colAddr)
	if err != nil {
		return errors.Wrap(err, "collection metadata")
	}
	if err := c.requireSigner(ctx, col.UpdateAuthority, "collection update authority"); err != nil {
		return err
	}
	edAddr, _, err := EditionAddress(collectionMint)
	if err != nil {
		return err
	}
	if _, err := LoadEdition(db, edAddr); err != nil {
		return errors.Wrap(err, "collection master edition")
	}

	md.Collection.Verified = true
	return metadatas.Save(db, mdAddr, md)
}

// FreezeDelegated freezes the token account holding the asset minted by
// mint. The delegate of the account signs; the master edition signs the
// freeze itself.
func (c *Controller) FreezeDelegated(ctx custody.Context, db custody.KVStore, delegate, account, mint custody.Address) error {
	ctx, err := c.delegated(ctx, db, delegate, account, mint)
	if err != nil {
		return err
	}
	return c.tokens.Freeze(ctx, db, account, mint)
}

// ThawDelegated reverts FreezeDelegated.
func (c *Controller) ThawDelegated(ctx custody.Context, db custody.KVStore, delegate, account, mint custody.Address) error {
	ctx, err := c.delegated(ctx, db, delegate, account, mint)
	if err != nil {
		return err
	}
	return c.tokens.Thaw(ctx, db, account, mint)
}

// delegated checks the delegate and returns a context in which the
// master edition of mint signed.
func (c *Controller) delegated(ctx custody.Context, db custody.KVStore, delegate, account, mint custody.Address) (custody.Context, error) {
	if err := c.requireSigner(ctx, delegate, "delegate"); err != nil {
		return nil, err
	}
	acc, err := token.LoadAccount(db, account)
	if err != nil {
		return nil, errors.Wrap(err, "token account")
	}
	if !acc.Mint.Equals(mint) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "account holds %s", acc.Mint)
	}
	if !delegate.Equals(acc.Delegate) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%s is not the delegate of %s", delegate, account)
	}
	if acc.Amount < 1 {
		return nil, errors.ErrInsufficientAmount.Newf("%s holds no %s", account, mint)
	}
	// the delegate must control the whole holding
	if acc.DelegatedAmount != acc.Amount {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%d of %d units delegated", acc.DelegatedAmount, acc.Amount)
	}
	edAddr, _, err := EditionAddress(mint)
	if err != nil {
		return nil, err
	}
	e, err := LoadEdition(db, edAddr)
	if err != nil {
		return nil, errors.Wrap(err, "master edition")
	}
	return program.Sign(ctx, e.Bump, editionSeeds(mint)...)
}
