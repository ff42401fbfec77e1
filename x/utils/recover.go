package utils

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Recovery turns a panic in the wrapped handler into ErrPanic and logs
// the message path that caused it. The caller only sees the redacted
// error; the panic value stays in the log.
type Recovery struct{}

var _ custody.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

// Check turns panics into normal errors
func (r Recovery) Check(ctx custody.Context, store custody.KVStore, tx custody.Tx, next custody.Checker) (_ *custody.CheckResult, err error) {
	defer recovered(ctx, "check", tx, &err)
	return next.Check(ctx, store, tx)
}

// Deliver turns panics into normal errors
func (r Recovery) Deliver(ctx custody.Context, store custody.KVStore, tx custody.Tx, next custody.Deliverer) (_ *custody.DeliverResult, err error) {
	defer recovered(ctx, "deliver", tx, &err)
	return next.Deliver(ctx, store, tx)
}

func recovered(ctx custody.Context, phase string, tx custody.Tx, err *error) {
	if r := recover(); r != nil {
		*err = errors.Wrapf(errors.ErrPanic, "%v", r)
		custody.GetLogger(ctx).Error("handler panic",
			"phase", phase, "path", custody.GetPath(tx), "panic", r)
	}
}
