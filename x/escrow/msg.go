package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

var (
	_ custody.Msg = (*MakeMsg)(nil)
	_ custody.Msg = (*TakeMsg)(nil)
	_ custody.Msg = (*RefundMsg)(nil)
)

// MakeMsg opens an escrow offering Deposit units of MintA for Receive
// units of MintB.
type MakeMsg struct {
	Maker   custody.Address `json:"maker"`
	MintA   custody.Address `json:"mint_a"`
	MintB   custody.Address `json:"mint_b"`
	Seed    uint64          `json:"seed"`
	Deposit uint64          `json:"deposit"`
	Receive uint64          `json:"receive"`
}

// Path returns the routing path for this message
func (MakeMsg) Path() string {
	return "escrow/make"
}

// Validate makes sure that this is sensible
func (m *MakeMsg) Validate() error {
	if err := m.Maker.Validate(); err != nil {
		return errors.Wrap(err, "maker")
	}
	if err := m.MintA.Validate(); err != nil {
		return errors.Wrap(err, "mint a")
	}
	if err := m.MintB.Validate(); err != nil {
		return errors.Wrap(err, "mint b")
	}
	if m.Deposit == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "deposit")
	}
	if m.Receive == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "receive")
	}
	return nil
}

// TakeMsg redeems an escrow. It references every account the redemption
// touches; each reference is checked against the escrow before anything
// moves.
type TakeMsg struct {
	Taker         custody.Address `json:"taker"`
	Maker         custody.Address `json:"maker"`
	MintA         custody.Address `json:"mint_a"`
	MintB         custody.Address `json:"mint_b"`
	TakerAccountA custody.Address `json:"taker_account_a"`
	TakerAccountB custody.Address `json:"taker_account_b"`
	MakerAccountB custody.Address `json:"maker_account_b"`
	Escrow        custody.Address `json:"escrow"`
	Vault         custody.Address `json:"vault"`
}

// Path returns the routing path for this message
func (TakeMsg) Path() string {
	return "escrow/take"
}

// Validate makes sure that this is sensible
func (m *TakeMsg) Validate() error {
	return validateAddresses([]namedAddress{
		{"taker", m.Taker},
		{"maker", m.Maker},
		{"mint a", m.MintA},
		{"mint b", m.MintB},
		{"taker account a", m.TakerAccountA},
		{"taker account b", m.TakerAccountB},
		{"maker account b", m.MakerAccountB},
		{"escrow", m.Escrow},
		{"vault", m.Vault},
	})
}

// RefundMsg closes an escrow and returns the deposit to the maker.
type RefundMsg struct {
	Maker         custody.Address `json:"maker"`
	MintA         custody.Address `json:"mint_a"`
	MakerAccountA custody.Address `json:"maker_account_a"`
	Escrow        custody.Address `json:"escrow"`
	Vault         custody.Address `json:"vault"`
}

// Path returns the routing path for this message
func (RefundMsg) Path() string {
	return "escrow/refund"
}

// Validate makes sure that this is sensible
func (m *RefundMsg) Validate() error {
	return validateAddresses([]namedAddress{
		{"maker", m.Maker},
		{"mint a", m.MintA},
		{"maker account a", m.MakerAccountA},
		{"escrow", m.Escrow},
		{"vault", m.Vault},
	})
}

type namedAddress struct {
	name string
	addr custody.Address
}

// validateAddresses reports the first invalid address in field order.
func validateAddresses(fields []namedAddress) error {
	for _, f := range fields {
		if err := f.addr.Validate(); err != nil {
			return errors.Wrap(err, f.name)
		}
	}
	return nil
}
