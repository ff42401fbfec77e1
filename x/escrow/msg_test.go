package escrow

import (
	"strings"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/custodytest/assert"
	"github.com/iov-one/custody/errors"
)

func TestMakeMsgValidate(t *testing.T) {
	a := custodytest.SequenceAddress(1)
	b := custodytest.SequenceAddress(2)
	c := custodytest.SequenceAddress(3)

	cases := map[string]struct {
		msg     custody.Msg
		wantErr *errors.Error
	}{
		"valid": {
			msg: &MakeMsg{Maker: a, MintA: b, MintB: c, Seed: 7, Deposit: 100, Receive: 50},
		},
		"no deposit": {
			msg:     &MakeMsg{Maker: a, MintA: b, MintB: c, Seed: 7, Receive: 50},
			wantErr: errors.ErrInvalidAmount,
		},
		"nothing to receive": {
			msg:     &MakeMsg{Maker: a, MintA: b, MintB: c, Seed: 7, Deposit: 100},
			wantErr: errors.ErrInvalidAmount,
		},
		"missing maker": {
			msg:     &MakeMsg{MintA: b, MintB: c, Deposit: 100, Receive: 50},
			wantErr: errors.ErrInvalidInput,
		},
		"take without vault": {
			msg:     &TakeMsg{Taker: a, Maker: b, MintA: c, MintB: c, TakerAccountA: a, TakerAccountB: a, MakerAccountB: b, Escrow: c},
			wantErr: errors.ErrInvalidInput,
		},
		"refund": {
			msg: &RefundMsg{Maker: a, MintA: b, MakerAccountA: c, Escrow: a, Vault: b},
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr == nil {
				assert.Nil(t, err)
			} else {
				assert.IsErr(t, tc.wantErr, err)
			}
		})
	}
}

func TestEscrowAddress(t *testing.T) {
	maker := custodytest.SequenceAddress(1)
	a, bump, err := EscrowAddress(maker, 7)
	assert.Nil(t, err)
	b, _, err := EscrowAddress(maker, 8)
	assert.Nil(t, err)
	assert.Equal(t, false, a.Equals(b))
	assert.Equal(t, true, custody.VerifyAuthority(ProgramID(), a, bump, escrowSeeds(maker, 7)...))
}

func TestTakeMsgReportsFirstInvalidField(t *testing.T) {
	a := custodytest.SequenceAddress(1)
	msg := &TakeMsg{Taker: a, MintA: a, MintB: a, TakerAccountA: a, TakerAccountB: a, MakerAccountB: a, Escrow: a}
	for i := 0; i < 20; i++ {
		err := msg.Validate()
		assert.IsErr(t, errors.ErrInvalidInput, err)
		if got := err.Error(); !strings.HasPrefix(got, "maker: ") {
			t.Fatalf("want the maker reported first, got %q", got)
		}
	}
}
