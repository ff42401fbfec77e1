package token

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

var (
	_ custody.Msg = (*CreateAccountMsg)(nil)
	_ custody.Msg = (*MintToMsg)(nil)
	_ custody.Msg = (*TransferMsg)(nil)
)

// CreateAccountMsg creates the associated token account of Owner for Mint,
// funded by Payer.
type CreateAccountMsg struct {
	Payer custody.Address `json:"payer"`
	Owner custody.Address `json:"owner"`
	Mint  custody.Address `json:"mint"`
}

// Path returns the routing path for this message
func (CreateAccountMsg) Path() string {
	return "token/create_account"
}

// Validate makes sure that this is sensible
func (m *CreateAccountMsg) Validate() error {
	if err := m.Payer.Validate(); err != nil {
		return errors.Wrap(err, "payer")
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return errors.Wrap(m.Mint.Validate(), "mint")
}

// MintToMsg issues Amount new units of Mint into Destination.
type MintToMsg struct {
	Mint        custody.Address `json:"mint"`
	Destination custody.Address `json:"destination"`
	Amount      uint64          `json:"amount"`
}

// Path returns the routing path for this message
func (MintToMsg) Path() string {
	return "token/mint_to"
}

// Validate makes sure that this is sensible
func (m *MintToMsg) Validate() error {
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero amount")
	}
	if err := m.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	return errors.Wrap(m.Destination.Validate(), "destination")
}

// TransferMsg moves Amount units of Mint from Source to Destination.
type TransferMsg struct {
	Source      custody.Address `json:"source"`
	Mint        custody.Address `json:"mint"`
	Destination custody.Address `json:"destination"`
	Amount      uint64          `json:"amount"`
	Decimals    uint32          `json:"decimals"`
}

// Path returns the routing path for this message
func (TransferMsg) Path() string {
	return "token/transfer"
}

// Validate makes sure that this is sensible
func (m *TransferMsg) Validate() error {
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero amount")
	}
	if m.Decimals > 255 {
		return errors.Wrapf(errors.ErrInvalidInput, "decimals %d", m.Decimals)
	}
	if err := m.Source.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if err := m.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	return errors.Wrap(m.Destination.Validate(), "destination")
}
