package app

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/escrow"
	"github.com/iov-one/custody/x/metadata"
	"github.com/iov-one/custody/x/sigs"
	"github.com/iov-one/custody/x/staking"
	"github.com/iov-one/custody/x/token"
	amino "github.com/tendermint/go-amino"
	"golang.org/x/crypto/ed25519"
)

// Tx is the transaction format of custodyd: a single message and the
// signatures authorizing it.
type Tx struct {
	Msg        custody.Msg          `json:"msg"`
	Signatures []*sigs.StdSignature `json:"signatures"`
}

// make sure tx fulfills all interfaces
var _ custody.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// GetMsg returns the single message of the transaction.
func (tx *Tx) GetMsg() (custody.Msg, error) {
	return tx.Msg, nil
}

// GetSignatures returns the signatures on the transaction.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign: the encoded transaction
// without any signatures.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	bz, err := cdc.MarshalBinaryBare(&Tx{Msg: tx.Msg})
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return bz, nil
}

// Sign appends a signature of key at the given sequence.
func (tx *Tx) Sign(key ed25519.PrivateKey, chainID string, seq int64) error {
	sig, err := sigs.SignTx(key, tx, chainID, seq)
	if err != nil {
		return err
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

var cdc = newCodec()

func newCodec() *amino.Codec {
	c := amino.NewCodec()
	c.RegisterInterface((*custody.Msg)(nil), nil)
	for name, msg := range map[string]custody.Msg{
		"custody/token/create_account":      &token.CreateAccountMsg{},
		"custody/token/mint_to":             &token.MintToMsg{},
		"custody/token/transfer":            &token.TransferMsg{},
		"custody/metadata/create":           &metadata.CreateMetadataMsg{},
		"custody/metadata/master_edition":   &metadata.CreateMasterEditionMsg{},
		"custody/metadata/verify":           &metadata.VerifyCollectionMsg{},
		"custody/metadata/freeze_delegated": &metadata.FreezeDelegatedMsg{},
		"custody/metadata/thaw_delegated":   &metadata.ThawDelegatedMsg{},
		"custody/escrow/make":               &escrow.MakeMsg{},
		"custody/escrow/take":               &escrow.TakeMsg{},
		"custody/escrow/refund":             &escrow.RefundMsg{},
		"custody/staking/register_user":     &staking.RegisterUserMsg{},
		"custody/staking/stake":             &staking.StakeMsg{},
		"custody/staking/unstake":           &staking.UnstakeMsg{},
	} {
		c.RegisterConcrete(msg, name, nil)
	}
	c.Seal()
	return c
}

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (*Tx, error) {
	var tx Tx
	if err := cdc.UnmarshalBinaryLengthPrefixed(bz, &tx); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return &tx, nil
}

// TxEncoder is the inverse of TxDecoder.
func TxEncoder(tx *Tx) ([]byte, error) {
	bz, err := cdc.MarshalBinaryLengthPrefixed(tx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return bz, nil
}

// TxFromJSON decodes the JSON form of a transaction, in which messages
// are tagged with their registered name.
func TxFromJSON(bz []byte) (*Tx, error) {
	var tx Tx
	if err := cdc.UnmarshalJSON(bz, &tx); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return &tx, nil
}

// TxToJSON is the inverse of TxFromJSON.
func TxToJSON(tx *Tx) ([]byte, error) {
	bz, err := cdc.MarshalJSONIndent(tx, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return bz, nil
}
