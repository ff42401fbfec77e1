package custody

import (
	"github.com/iov-one/custody/errors"
)

// Constraint is a named predicate over the records an operation
// references. Check must only read, never mutate.
type Constraint struct {
	Name  string
	Check func() error
}

// Constraints is an ordered list of predicates that all must pass before
// an operation may change any state.
type Constraints []Constraint

// Validate evaluates the constraints in order and returns the first failure
// labeled with the constraint name. A failure that does not wrap a
// registered error is reported as ErrConstraint.
func (cs Constraints) Validate() error {
	for _, c := range cs {
		err := c.Check()
		if err == nil {
			continue
		}
		if errors.Code(err) == 1 {
			err = errors.Wrap(errors.ErrConstraint, err.Error())
		}
		return errors.Wrap(err, c.Name)
	}
	return nil
}

// Require is a helper for the common predicate shape: a condition that
// must hold, reported as ErrConstraint with the given description.
func Require(ok bool, format string, args ...interface{}) error {
	if ok {
		return nil
	}
	return errors.ErrConstraint.Newf(format, args...)
}

// HasOne checks that a field stored in a record refers to the supplied
// account, the usual "record.maker == maker" relationship.
func HasOne(field string, stored, supplied Address) Constraint {
	return Constraint{
		Name: "has one " + field,
		Check: func() error {
			return Require(stored.Equals(supplied), "%s is %s, got %s", field, stored, supplied)
		},
	}
}

// Derived checks that addr is the authority of program for seeds and bump.
func Derived(name string, p *Program, addr Address, bump uint8, seeds ...[]byte) Constraint {
	return Constraint{
		Name: name + " derivation",
		Check: func() error {
			return Require(p.Verify(addr, bump, seeds...), "%s does not derive from its seeds", addr)
		},
	}
}

// DerivedByID is Derived for programs the caller does not own, where only
// the identifier is known.
func DerivedByID(name string, program, addr Address, bump uint8, seeds ...[]byte) Constraint {
	return Constraint{
		Name: name + " derivation",
		Check: func() error {
			return Require(VerifyAuthority(program, addr, bump, seeds...), "%s does not derive from its seeds", addr)
		},
	}
}
