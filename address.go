package custody

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/iov-one/custody/errors"
	"github.com/mr-tron/base58"
)

// AddressLength is the length of every identity on the ledger: key holders
// use their ed25519 public key, derived authorities a sha256 digest.
const AddressLength = 32

// Address identifies an account on the ledger. It is either a public key,
// a program identifier or a derived authority.
type Address []byte

// Equals checks if two addresses are the same
func (a Address) Equals(b Address) bool {
	return bytes.Equal(a, b)
}

// Clone returns a copy that does not share memory with a.
func (a Address) Clone() Address {
	if a == nil {
		return nil
	}
	c := make(Address, len(a))
	copy(c, a)
	return c
}

// String returns the base58 representation.
func (a Address) String() string {
	if len(a) == 0 {
		return "(nil)"
	}
	return base58.Encode(a)
}

// Validate returns an error if the address is not the valid size
func (a Address) Validate() error {
	if len(a) != AddressLength {
		return errors.ErrInvalidInput.Newf("address: %X", []byte(a))
	}
	return nil
}

// MarshalJSON provides a base58 representation for JSON,
// to override the standard base64 []byte encoding
func (a Address) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return json.Marshal("")
	}
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts base58 and, when prefixed with "hex:", hex encoded
// addresses.
func (a *Address) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(err, "cannot decode json")
	}
	if len(enc) == 0 {
		*a = nil
		return nil
	}
	addr, err := ParseAddress(enc)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ParseAddress decodes a base58 or "hex:" prefixed address and validates
// its length.
func ParseAddress(s string) (Address, error) {
	var (
		raw []byte
		err error
	)
	if strings.HasPrefix(s, "hex:") {
		raw, err = hex.DecodeString(s[len("hex:"):])
	} else {
		raw, err = base58.Decode(s)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "cannot decode address %q: %s", s, err)
	}
	addr := Address(raw)
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}
