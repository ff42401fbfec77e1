package sigs

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
)

// stdTx carries raw sign bytes and signatures.
type stdTx struct {
	Payload    []byte
	Signatures []*StdSignature
}

var _ SignedTx = (*stdTx)(nil)
var _ custody.Tx = (*stdTx)(nil)

func (tx *stdTx) GetMsg() (custody.Msg, error) {
	return nil, nil
}

func (tx *stdTx) GetSignBytes() ([]byte, error) {
	return tx.Payload, nil
}

func (tx *stdTx) GetSignatures() []*StdSignature {
	return tx.Signatures
}

func newKey(t testing.TB) ed25519.PrivateKey {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return priv
}

func TestSignBytes(t *testing.T) {
	bz := []byte("foobar")
	tx := &stdTx{Payload: bz}
	bz2 := []byte("blast")

	chainID := "test-sign-bytes"
	c1, err := BuildSignBytesTx(tx, chainID, 17)
	require.NoError(t, err)
	c1a, err := BuildSignBytes(bz, chainID, 17)
	require.NoError(t, err)
	assert.Equal(t, c1, c1a)
	assert.NotEqual(t, bz, c1)

	// make sure sign bytes change on tx, chain_id and seq
	ct, err := BuildSignBytes(bz2, chainID, 17)
	require.NoError(t, err)
	assert.NotEqual(t, c1, ct)
	c2, err := BuildSignBytes(bz, chainID+"2", 17)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2)
	c3, err := BuildSignBytes(bz, chainID, 18)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c3)

	_, err = BuildSignBytes(bz, chainID, -1)
	assert.True(t, ErrInvalidSequence.Is(err))
	_, err = BuildSignBytes(bz, "no", 1)
	assert.True(t, errors.ErrInvalidInput.Is(err))
}

func TestVerifySignature(t *testing.T) {
	kv := store.MemStore()
	priv := newKey(t)
	signer := custody.Address(priv.Public().(ed25519.PublicKey))

	chainID := "emo-music-2345"
	bz := []byte("my special valentine")
	tx := &stdTx{Payload: bz}

	sig0, err := SignTx(priv, tx, chainID, 0)
	require.NoError(t, err)
	sig1, err := SignTx(priv, tx, chainID, 1)
	require.NoError(t, err)
	sig13, err := SignTx(priv, tx, chainID, 13)
	require.NoError(t, err)

	// the first one must carry sequence zero
	_, err = VerifySignature(kv, sig1, bz, chainID)
	assert.True(t, ErrInvalidSequence.Is(err))

	_, err = VerifySignature(kv, new(StdSignature), bz, chainID)
	assert.True(t, errors.ErrUnauthorized.Is(err))

	// signed for another chain
	_, err = VerifySignature(kv, sig0, bz, chainID+"x")
	assert.True(t, errors.ErrUnauthorized.Is(err))

	got, err := VerifySignature(kv, sig0, bz, chainID)
	require.NoError(t, err)
	assert.Equal(t, signer, got)

	// replay
	_, err = VerifySignature(kv, sig0, bz, chainID)
	assert.True(t, ErrInvalidSequence.Is(err))

	_, err = VerifySignature(kv, sig13, bz, chainID)
	assert.True(t, ErrInvalidSequence.Is(err))

	got, err = VerifySignature(kv, sig1, bz, chainID)
	require.NoError(t, err)
	assert.Equal(t, signer, got)

	seq, err := Sequence(kv, sig0.PubKey)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	// a signature over other bytes is rejected
	_, err = VerifySignature(kv, sig1, []byte("other"), chainID)
	assert.True(t, errors.ErrUnauthorized.Is(err))
}
