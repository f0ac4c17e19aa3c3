package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address is a 20-byte account identity.
type Address = common.Address

// ZeroAddress is the all-zero identity. In an allowlist it stands for
// "every address".
var ZeroAddress = common.Address{}

// ErrInvalidAddress is returned for strings that are not 20-byte hex.
var ErrInvalidAddress = errors.New("dailymood: invalid address")

// ParseAddress parses a hex address with or without the 0x prefix.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return ZeroAddress, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether a is the zero address.
func IsZero(a Address) bool {
	return a == ZeroAddress
}

// AddressKey is the canonical string form used for map and storage keys.
func AddressKey(a Address) string {
	return strings.ToLower(a.Hex())
}
