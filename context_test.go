package custody

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func TestContextBlockTime(t *testing.T) {
	bg := context.Background()
	_, err := BlockTime(bg)
	require.Error(t, err)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	ctx := WithBlockTime(bg, now)
	got, err := BlockTime(ctx)
	require.NoError(t, err)
	assert.True(t, now.Equal(got))
	assert.Equal(t, time.UTC, got.Location())

	assert.Panics(t, func() { WithBlockTime(ctx, now) })
}

func TestContextHeightAndChainID(t *testing.T) {
	bg := context.Background()
	_, ok := GetHeight(bg)
	assert.False(t, ok)

	ctx := WithHeight(bg, 7)
	h, ok := GetHeight(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(7), h)
	assert.Panics(t, func() { WithHeight(ctx, 8) })

	assert.Panics(t, func() { GetChainID(bg) })
	assert.Panics(t, func() { WithChainID(bg, "no") })
	ctx = WithChainID(ctx, "custody-test")
	assert.Equal(t, "custody-test", GetChainID(ctx))
}

func TestContextLogger(t *testing.T) {
	bg := context.Background()
	assert.Equal(t, DefaultLogger, GetLogger(bg))

	logger := log.NewTMLogger(log.NewSyncWriter(nopWriter{}))
	ctx := WithLogger(bg, logger)
	assert.Equal(t, logger, GetLogger(ctx))

	ctx2 := WithLogInfo(ctx, "escrow", "abc")
	assert.NotEqual(t, GetLogger(ctx), GetLogger(ctx2))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
