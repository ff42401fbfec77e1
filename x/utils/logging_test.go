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

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	ctx := custody.WithLogger(context.Background(), log.NewTMLogger(log.NewSyncWriter(&buf)))
	tx := &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: "test/log"}}
	db := store.MemStore()

	h := &custodytest.Handler{DeliverResult: custody.DeliverResult{Log: "all good"}}
	_, err := NewLogging().Deliver(ctx, db, tx, h)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "all good")
	assert.Contains(t, buf.String(), "path=test/log")

	buf.Reset()
	h = &custodytest.Handler{DeliverErr: errors.ErrCapacity.New("full")}
	_, err = NewLogging().Deliver(ctx, db, tx, h)
	assert.True(t, errors.ErrCapacity.Is(err))
	assert.Contains(t, buf.String(), "full")
}
