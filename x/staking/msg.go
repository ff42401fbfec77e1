package staking

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

var (
	_ custody.Msg = (*RegisterUserMsg)(nil)
	_ custody.Msg = (*StakeMsg)(nil)
	_ custody.Msg = (*UnstakeMsg)(nil)
)

// RegisterUserMsg creates the UserAccount of User.
type RegisterUserMsg struct {
	User custody.Address `json:"user"`
}

// Path returns the routing path for this message
func (RegisterUserMsg) Path() string {
	return "staking/register_user"
}

// Validate makes sure that this is sensible
func (m *RegisterUserMsg) Validate() error {
	return errors.Wrap(m.User.Validate(), "user")
}

// StakeMsg locks the asset minted by Mint, held by User in TokenAccount.
// Every referenced account is checked before anything changes.
type StakeMsg struct {
	User           custody.Address `json:"user"`
	Mint           custody.Address `json:"mint"`
	CollectionMint custody.Address `json:"collection_mint"`
	TokenAccount   custody.Address `json:"token_account"`
	Metadata       custody.Address `json:"metadata"`
	Edition        custody.Address `json:"edition"`
	Config         custody.Address `json:"config"`
	StakeRecord    custody.Address `json:"stake_record"`
	UserAccount    custody.Address `json:"user_account"`
}

// Path returns the routing path for this message
func (StakeMsg) Path() string {
	return "staking/stake"
}

// Validate makes sure that this is sensible
func (m *StakeMsg) Validate() error {
	return validateAddresses(
		"user", m.User,
		"mint", m.Mint,
		"collection mint", m.CollectionMint,
		"token account", m.TokenAccount,
		"metadata", m.Metadata,
		"edition", m.Edition,
		"config", m.Config,
		"stake record", m.StakeRecord,
		"user account", m.UserAccount,
	)
}

// UnstakeMsg releases the asset locked by StakeRecord.
type UnstakeMsg struct {
	User         custody.Address `json:"user"`
	Mint         custody.Address `json:"mint"`
	TokenAccount custody.Address `json:"token_account"`
	Config       custody.Address `json:"config"`
	StakeRecord  custody.Address `json:"stake_record"`
	UserAccount  custody.Address `json:"user_account"`
}

// Path returns the routing path for this message
func (UnstakeMsg) Path() string {
	return "staking/unstake"
}

// Validate makes sure that this is sensible
func (m *UnstakeMsg) Validate() error {
	return validateAddresses(
		"user", m.User,
		"mint", m.Mint,
		"token account", m.TokenAccount,
		"config", m.Config,
		"stake record", m.StakeRecord,
		"user account", m.UserAccount,
	)
}

// validateAddresses takes name and address pairs.
func validateAddresses(pairs ...interface{}) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		addr, _ := pairs[i+1].(custody.Address)
		if err := addr.Validate(); err != nil {
			return errors.Wrapf(err, "%v", pairs[i])
		}
	}
	return nil
}
