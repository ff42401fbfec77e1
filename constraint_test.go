package custody

import (
	stderrors "errors"
	"testing"

	"github.com/iov-one/custody/custodytest/assert"
	"github.com/iov-one/custody/errors"
)

func TestConstraintsStopAtFirstFailure(t *testing.T) {
	var calls []string
	check := func(name string, err error) Constraint {
		return Constraint{
			Name: name,
			Check: func() error {
				calls = append(calls, name)
				return err
			},
		}
	}

	cs := Constraints{
		check("first", nil),
		check("second", errors.ErrUnverified.New("collection")),
		check("third", errors.ErrConstraint.New("never run")),
	}
	err := cs.Validate()
	assert.IsErr(t, errors.ErrUnverified, err)
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, "second: collection: unverified membership", err.Error())
}

func TestConstraintsLabelUnregisteredErrors(t *testing.T) {
	cs := Constraints{{
		Name:  "plain",
		Check: func() error { return stderrors.New("boom") },
	}}
	assert.IsErr(t, errors.ErrConstraint, cs.Validate())
}

func TestConstraintsPass(t *testing.T) {
	a := ProgramAddress("a")
	assert.Nil(t, Constraints{HasOne("maker", a, a.Clone())}.Validate())
	assert.Nil(t, Constraints{}.Validate())
}

func TestHasOne(t *testing.T) {
	a, b := ProgramAddress("a"), ProgramAddress("b")
	err := Constraints{HasOne("mint b", a, b)}.Validate()
	assert.IsErr(t, errors.ErrConstraint, err)
}

func TestDerived(t *testing.T) {
	p := NewProgram("constraint-test")
	addr, bump, err := p.Find([]byte("config"))
	assert.Nil(t, err)

	assert.Nil(t, Constraints{Derived("config", p, addr, bump, []byte("config"))}.Validate())
	assert.Nil(t, Constraints{DerivedByID("config", p.ID(), addr, bump, []byte("config"))}.Validate())

	err = Constraints{Derived("config", p, addr, bump, []byte("user"))}.Validate()
	assert.IsErr(t, errors.ErrConstraint, err)
}
