package assert

import (
	"fmt"
	"testing"

	"github.com/iov-one/custody/errors"
)

type recorder struct {
	failed bool
}

func (r *recorder) Helper()                       {}
func (r *recorder) Fatal(...interface{})          { r.failed = true }
func (r *recorder) Fatalf(string, ...interface{}) { r.failed = true }

func TestNil(t *testing.T) {
	var nilSlice []byte
	var nilErr error
	cases := map[string]struct {
		value interface{}
		fail  bool
	}{
		"nil":       {value: nil, fail: false},
		"nil slice": {value: nilSlice, fail: false},
		"nil error": {value: nilErr, fail: false},
		"int":       {value: 0, fail: true},
		"error":     {value: fmt.Errorf("x"), fail: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := &recorder{}
			Nil(r, tc.value)
			if r.failed != tc.fail {
				t.Fatalf("want fail=%v", tc.fail)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	r := &recorder{}
	Equal(r, []byte{1}, []byte{1})
	if r.failed {
		t.Fatal("equal slices reported as different")
	}
	Equal(r, uint32(1), 1)
	if !r.failed {
		t.Fatal("different types reported as equal")
	}
}

func TestIsErr(t *testing.T) {
	IsErr(t, errors.ErrCapacity, errors.Wrap(errors.ErrCapacity, "full"))
	IsErr(t, nil, nil)
}

func TestPanics(t *testing.T) {
	Panics(t, func() { panic("boom") })
}
