package staking

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

var program = custody.NewProgram("staking")

// ProgramID returns the identity of the staking program.
func ProgramID() custody.Address {
	return program.ID()
}

var (
	configSeed = []byte("config")
	userSeed   = []byte("user")
	stakeSeed  = []byte("stake")
)

func configSeeds() [][]byte {
	return [][]byte{configSeed}
}

func userSeeds(owner custody.Address) [][]byte {
	return [][]byte{userSeed, owner}
}

func stakeSeeds(mint, config custody.Address) [][]byte {
	return [][]byte{stakeSeed, mint, config}
}

// ConfigAddress returns the address of the singleton StakeConfig.
func ConfigAddress() (custody.Address, uint8, error) {
	return program.Find(configSeeds()...)
}

// UserAddress returns the address of the UserAccount of owner.
func UserAddress(owner custody.Address) (custody.Address, uint8, error) {
	return program.Find(userSeeds(owner)...)
}

// StakeAddress returns the address of the StakeRecord locking mint. The
// address is also the delegate of the locked token account.
func StakeAddress(mint, config custody.Address) (custody.Address, uint8, error) {
	return program.Find(stakeSeeds(mint, config)...)
}

// StakeConfig is the staking policy.
type StakeConfig struct {
	// MaxStake is the number of assets one owner may stake at a time.
	MaxStake uint32
	Bump     uint8
}

var _ orm.Model = (*StakeConfig)(nil)

func (c *StakeConfig) Marshal() ([]byte, error) {
	w := orm.NewWriter(5)
	w.Uint32(c.MaxStake)
	w.Uint8(c.Bump)
	return w.Bytes(), nil
}

func (c *StakeConfig) Unmarshal(raw []byte) error {
	r := orm.NewReader(raw)
	c.MaxStake = r.Uint32()
	c.Bump = r.Uint8()
	return r.Done()
}

func (c *StakeConfig) Validate() error {
	return nil
}

// UserAccount counts the active stakes of one owner.
type UserAccount struct {
	Amount uint32
	Bump   uint8
}

var _ orm.Model = (*UserAccount)(nil)

func (u *UserAccount) Marshal() ([]byte, error) {
	w := orm.NewWriter(5)
	w.Uint32(u.Amount)
	w.Uint8(u.Bump)
	return w.Bytes(), nil
}

func (u *UserAccount) Unmarshal(raw []byte) error {
	r := orm.NewReader(raw)
	u.Amount = r.Uint32()
	u.Bump = r.Uint8()
	return r.Done()
}

func (u *UserAccount) Validate() error {
	return nil
}

// StakeRecord is one active lock.
type StakeRecord struct {
	Owner custody.Address
	Mint  custody.Address
	// StakedAt is the block time of the lock in unix seconds.
	StakedAt int64
	Bump     uint8
}

var _ orm.Model = (*StakeRecord)(nil)

func (s *StakeRecord) Marshal() ([]byte, error) {
	w := orm.NewWriter(2*custody.AddressLength + 9)
	w.Address(s.Owner)
	w.Address(s.Mint)
	w.Int64(s.StakedAt)
	w.Uint8(s.Bump)
	return w.Bytes(), nil
}

func (s *StakeRecord) Unmarshal(raw []byte) error {
	r := orm.NewReader(raw)
	s.Owner = r.Address()
	s.Mint = r.Address()
	s.StakedAt = r.Int64()
	s.Bump = r.Uint8()
	return r.Done()
}

func (s *StakeRecord) Validate() error {
	if err := s.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return errors.Wrap(s.Mint.Validate(), "mint")
}

var (
	configs = orm.NewBucket("stake_config", program.ID())
	users   = orm.NewBucket("user_account", program.ID())
	stakes  = orm.NewBucket("stake_account", program.ID())
)

// LoadConfig returns the StakeConfig stored at addr.
func LoadConfig(db custody.ReadOnlyKVStore, addr custody.Address) (*StakeConfig, error) {
	var c StakeConfig
	if err := configs.One(db, addr, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadUser returns the UserAccount stored at addr.
func LoadUser(db custody.ReadOnlyKVStore, addr custody.Address) (*UserAccount, error) {
	var u UserAccount
	if err := users.One(db, addr, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// LoadStake returns the StakeRecord stored at addr.
func LoadStake(db custody.ReadOnlyKVStore, addr custody.Address) (*StakeRecord, error) {
	var s StakeRecord
	if err := stakes.One(db, addr, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
