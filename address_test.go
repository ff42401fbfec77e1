package custody

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressJSON(t *testing.T) {
	addr := ProgramAddress("json")
	raw, err := json.Marshal(addr)
	require.NoError(t, err)
	assert.Equal(t, `"`+addr.String()+`"`, string(raw))

	var got Address
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.True(t, addr.Equals(got))

	var fromHex Address
	require.NoError(t, json.Unmarshal([]byte(`"hex:`+hex.EncodeToString(addr)+`"`), &fromHex))
	assert.True(t, addr.Equals(fromHex))

	var empty Address
	require.NoError(t, json.Unmarshal([]byte(`""`), &empty))
	assert.Nil(t, empty)
}

func TestParseAddressErrors(t *testing.T) {
	cases := map[string]string{
		"not base58":   "0OIl",
		"too short":    "2g",
		"hex too long": "hex:" + hex.EncodeToString(make([]byte, 33)),
		"bad hex":      "hex:zz",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAddress(in)
			assert.Error(t, err)
		})
	}
}

func TestAddressCloneAndString(t *testing.T) {
	var nilAddr Address
	assert.Equal(t, "(nil)", nilAddr.String())
	assert.Nil(t, nilAddr.Clone())

	addr := ProgramAddress("clone")
	c := addr.Clone()
	c[0]++
	assert.False(t, addr.Equals(c))
}
