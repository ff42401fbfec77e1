package metadata

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

var program = custody.NewProgram("metadata")

// ProgramID returns the identity of the metadata program.
func ProgramID() custody.Address {
	return program.ID()
}

const (
	maxNameLength = 32
	maxURILength  = 200
)

var (
	metadataSeed = []byte("metadata")
	editionSeed  = []byte("edition")
)

func metadataSeeds(mint custody.Address) [][]byte {
	return [][]byte{metadataSeed, program.ID(), mint}
}

func editionSeeds(mint custody.Address) [][]byte {
	return [][]byte{metadataSeed, program.ID(), mint, editionSeed}
}

// MetadataAddress returns the address of the metadata of mint.
func MetadataAddress(mint custody.Address) (custody.Address, uint8, error) {
	return program.Find(metadataSeeds(mint)...)
}

// EditionAddress returns the address of the master edition of mint. It
// is also the mint and freeze authority of the mint once the edition
// exists.
func EditionAddress(mint custody.Address) (custody.Address, uint8, error) {
	return program.Find(editionSeeds(mint)...)
}

// VerifyMetadataAddress returns true if addr is the metadata address of
// mint.
func VerifyMetadataAddress(addr, mint custody.Address) bool {
	want, _, err := MetadataAddress(mint)
	return err == nil && want.Equals(addr)
}

// VerifyEditionAddress returns true if addr is the master edition address
// of mint.
func VerifyEditionAddress(addr, mint custody.Address) bool {
	want, _, err := EditionAddress(mint)
	return err == nil && want.Equals(addr)
}

// Collection is the collection an asset claims to belong to.
type Collection struct {
	// Key is the mint of the collection asset.
	Key custody.Address
	// Verified is set by the update authority of the collection.
	Verified bool
}

// Metadata describes a unique asset.
type Metadata struct {
	Mint            custody.Address
	UpdateAuthority custody.Address
	Name            string
	URI             string
	// Collection is nil for assets that do not belong to a collection.
	Collection *Collection
	Bump       uint8
}

var _ orm.Model = (*Metadata)(nil)

func (m *Metadata) Marshal() ([]byte, error) {
	w := orm.NewWriter(2*custody.AddressLength + 8 + len(m.Name) + len(m.URI) + custody.AddressLength + 3)
	w.Address(m.Mint)
	w.Address(m.UpdateAuthority)
	w.String(m.Name)
	w.String(m.URI)
	if m.Collection == nil {
		w.OptionAddress(nil)
		w.Bool(false)
	} else {
		w.OptionAddress(m.Collection.Key)
		w.Bool(m.Collection.Verified)
	}
	w.Uint8(m.Bump)
	return w.Bytes(), nil
}

func (m *Metadata) Unmarshal(raw []byte) error {
	r := orm.NewReader(raw)
	m.Mint = r.Address()
	m.UpdateAuthority = r.Address()
	m.Name = r.String()
	m.URI = r.String()
	key := r.OptionAddress()
	verified := r.Bool()
	m.Collection = nil
	if key != nil {
		m.Collection = &Collection{Key: key, Verified: verified}
	}
	m.Bump = r.Uint8()
	return r.Done()
}

func (m *Metadata) Validate() error {
	if err := m.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	if err := m.UpdateAuthority.Validate(); err != nil {
		return errors.Wrap(err, "update authority")
	}
	if len(m.Name) > maxNameLength {
		return errors.Wrapf(errors.ErrInvalidInput, "name longer than %d", maxNameLength)
	}
	if len(m.URI) > maxURILength {
		return errors.Wrapf(errors.ErrInvalidInput, "uri longer than %d", maxURILength)
	}
	if m.Collection != nil {
		if err := m.Collection.Key.Validate(); err != nil {
			return errors.Wrap(err, "collection")
		}
	}
	return nil
}

// MasterEdition marks a mint as a unique asset.
type MasterEdition struct {
	Supply    uint64
	MaxSupply uint64
	Bump      uint8
}

var _ orm.Model = (*MasterEdition)(nil)

func (e *MasterEdition) Marshal() ([]byte, error) {
	w := orm.NewWriter(17)
	w.Uint64(e.Supply)
	w.Uint64(e.MaxSupply)
	w.Uint8(e.Bump)
	return w.Bytes(), nil
}

func (e *MasterEdition) Unmarshal(raw []byte) error {
	r := orm.NewReader(raw)
	e.Supply = r.Uint64()
	e.MaxSupply = r.Uint64()
	e.Bump = r.Uint8()
	return r.Done()
}

func (e *MasterEdition) Validate() error {
	if e.Supply > e.MaxSupply && e.MaxSupply != 0 {
		return errors.Wrapf(errors.ErrInvalidState, "supply %d above max %d", e.Supply, e.MaxSupply)
	}
	return nil
}

var (
	metadatas = orm.NewBucket("metadata", program.ID())
	editions  = orm.NewBucket("master_edition", program.ID())
)

// LoadMetadata returns the metadata stored at addr.
func LoadMetadata(db custody.ReadOnlyKVStore, addr custody.Address) (*Metadata, error) {
	var m Metadata
	if err := metadatas.One(db, addr, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadEdition returns the master edition stored at addr.
func LoadEdition(db custody.ReadOnlyKVStore, addr custody.Address) (*MasterEdition, error) {
	var e MasterEdition
	if err := editions.One(db, addr, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
