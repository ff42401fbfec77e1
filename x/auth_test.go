package x

import (
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/custodytest/assert"
)

var authTestProgram = custody.NewProgram("x-auth-test")

func TestAuth(t *testing.T) {
	a := custodytest.SequenceAddress(1)
	b := custodytest.SequenceAddress(2)
	c := custodytest.SequenceAddress(3)

	derived, bump, err := authTestProgram.Find([]byte("vault"))
	assert.Nil(t, err)
	signed, err := authTestProgram.Sign(context.Background(), bump, []byte("vault"))
	assert.Nil(t, err)

	cases := map[string]struct {
		ctx          custody.Context
		auth         Authenticator
		mainSigner   custody.Address
		wantInCtx    custody.Address
		wantNotInCtx custody.Address
		wantAll      []custody.Address
	}{
		"empty context": {
			ctx:          context.Background(),
			auth:         &custodytest.Auth{},
			wantNotInCtx: b,
		},
		"signer a": {
			ctx:          context.Background(),
			auth:         &custodytest.Auth{Signer: a},
			mainSigner:   a,
			wantInCtx:    a,
			wantNotInCtx: b,
			wantAll:      []custody.Address{a},
		},
		"signer b": {
			ctx: context.Background(),
			auth: ChainAuth(
				&custodytest.Auth{Signer: b},
				&custodytest.Auth{Signers: []custody.Address{a, b}}),
			mainSigner:   b,
			wantInCtx:    b,
			wantNotInCtx: c,
			wantAll:      []custody.Address{b, a},
		},
		"derived authority signed in context": {
			ctx:          signed,
			auth:         ChainAuth(&custodytest.Auth{Signer: a}, custody.AuthorityAuth{}),
			mainSigner:   a,
			wantInCtx:    derived,
			wantNotInCtx: c,
			wantAll:      []custody.Address{a, derived},
		},
		"derived authority not signed": {
			ctx:          context.Background(),
			auth:         custody.AuthorityAuth{},
			wantNotInCtx: derived,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.mainSigner, MainSigner(tc.ctx, tc.auth))
			if tc.wantInCtx != nil && !tc.auth.HasAddress(tc.ctx, tc.wantInCtx) {
				t.Fatal("address that was expected in context not found")
			}
			if tc.wantNotInCtx != nil && tc.auth.HasAddress(tc.ctx, tc.wantNotInCtx) {
				t.Fatal("address that was expected not to be in context found")
			}

			all := tc.auth.GetSigners(tc.ctx)
			assert.Equal(t, tc.wantAll, all)
			if !HasAllAddresses(tc.ctx, tc.auth, all) {
				t.Fatal("context does not hold all of its own signers")
			}
			if HasAllAddresses(tc.ctx, tc.auth, append(all, c)) {
				t.Fatal("unexpected signer accepted")
			}
		})
	}
}
