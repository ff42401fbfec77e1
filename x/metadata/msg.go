package metadata

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

var (
	_ custody.Msg = (*CreateMetadataMsg)(nil)
	_ custody.Msg = (*CreateMasterEditionMsg)(nil)
	_ custody.Msg = (*VerifyCollectionMsg)(nil)
	_ custody.Msg = (*FreezeDelegatedMsg)(nil)
	_ custody.Msg = (*ThawDelegatedMsg)(nil)
)

// CreateMetadataMsg describes the asset minted by Mint.
type CreateMetadataMsg struct {
	Payer           custody.Address `json:"payer"`
	Mint            custody.Address `json:"mint"`
	UpdateAuthority custody.Address `json:"update_authority"`
	Name            string          `json:"name"`
	URI             string          `json:"uri"`
	Collection      custody.Address `json:"collection,omitempty"`
}

// Path returns the routing path for this message
func (CreateMetadataMsg) Path() string {
	return "metadata/create"
}

// Validate makes sure that this is sensible
func (m *CreateMetadataMsg) Validate() error {
	if err := m.Payer.Validate(); err != nil {
		return errors.Wrap(err, "payer")
	}
	if err := m.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	if err := m.UpdateAuthority.Validate(); err != nil {
		return errors.Wrap(err, "update authority")
	}
	if len(m.Name) == 0 || len(m.Name) > maxNameLength {
		return errors.Wrapf(errors.ErrInvalidInput, "name must have 1 to %d bytes", maxNameLength)
	}
	if len(m.URI) > maxURILength {
		return errors.Wrapf(errors.ErrInvalidInput, "uri longer than %d", maxURILength)
	}
	if m.Collection != nil {
		return errors.Wrap(m.Collection.Validate(), "collection")
	}
	return nil
}

// CreateMasterEditionMsg turns Mint into a unique asset.
type CreateMasterEditionMsg struct {
	Payer custody.Address `json:"payer"`
	Mint  custody.Address `json:"mint"`
}

// Path returns the routing path for this message
func (CreateMasterEditionMsg) Path() string {
	return "metadata/create_master_edition"
}

// Validate makes sure that this is sensible
func (m *CreateMasterEditionMsg) Validate() error {
	if err := m.Payer.Validate(); err != nil {
		return errors.Wrap(err, "payer")
	}
	return errors.Wrap(m.Mint.Validate(), "mint")
}

// VerifyCollectionMsg confirms that Mint belongs to CollectionMint.
type VerifyCollectionMsg struct {
	Mint           custody.Address `json:"mint"`
	CollectionMint custody.Address `json:"collection_mint"`
}

// Path returns the routing path for this message
func (VerifyCollectionMsg) Path() string {
	return "metadata/verify_collection"
}

// Validate makes sure that this is sensible
func (m *VerifyCollectionMsg) Validate() error {
	if err := m.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	return errors.Wrap(m.CollectionMint.Validate(), "collection mint")
}

// FreezeDelegatedMsg freezes TokenAccount on behalf of its Delegate.
type FreezeDelegatedMsg struct {
	Delegate     custody.Address `json:"delegate"`
	TokenAccount custody.Address `json:"token_account"`
	Mint         custody.Address `json:"mint"`
}

// Path returns the routing path for this message
func (FreezeDelegatedMsg) Path() string {
	return "metadata/freeze_delegated"
}

// Validate makes sure that this is sensible
func (m *FreezeDelegatedMsg) Validate() error {
	return validateDelegated(m.Delegate, m.TokenAccount, m.Mint)
}

// ThawDelegatedMsg reverts FreezeDelegatedMsg.
type ThawDelegatedMsg struct {
	Delegate     custody.Address `json:"delegate"`
	TokenAccount custody.Address `json:"token_account"`
	Mint         custody.Address `json:"mint"`
}

// Path returns the routing path for this message
func (ThawDelegatedMsg) Path() string {
	return "metadata/thaw_delegated"
}

// Validate makes sure that this is sensible
func (m *ThawDelegatedMsg) Validate() error {
	return validateDelegated(m.Delegate, m.TokenAccount, m.Mint)
}

func validateDelegated(delegate, account, mint custody.Address) error {
	if err := delegate.Validate(); err != nil {
		return errors.Wrap(err, "delegate")
	}
	if err := account.Validate(); err != nil {
		return errors.Wrap(err, "token account")
	}
	return errors.Wrap(mint.Validate(), "mint")
}
