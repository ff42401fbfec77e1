package utils

import (
	"bytes"
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/stretchr/testify/assert"
	"github.com/tendermint/tendermint/libs/log"
)

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	ctx := custody.WithLogger(context.Background(), log.NewTMLogger(log.NewSyncWriter(&buf)))
	db := store.MemStore()
	tx := &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: "staking/stake"}}
	h := &custodytest.Handler{Panic: "broken vault"}
	r := NewRecovery()

	assert.Panics(t, func() { h.Deliver(ctx, db, tx) })

	_, err := r.Check(ctx, db, tx, h)
	assert.True(t, errors.ErrPanic.Is(err))
	assert.Contains(t, buf.String(), "phase=check")

	buf.Reset()
	_, err = r.Deliver(ctx, db, tx, h)
	assert.True(t, errors.ErrPanic.Is(err))
	assert.Equal(t, "internal error", errors.Redact(err).Error())
	assert.Contains(t, buf.String(), "path=staking/stake")
	assert.Contains(t, buf.String(), "broken vault")

	// Without a panic nothing is logged.
	buf.Reset()
	_, err = r.Deliver(ctx, db, tx, &custodytest.Handler{})
	assert.NoError(t, err)
	assert.Empty(t, buf.String())
}
