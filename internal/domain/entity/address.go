package entity

import (
	"fmt"
	"regexp"
	"strings"
)

// ZeroAddress represents the Ethereum zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Address is a canonicalized (lowercase) EVM account identifier.
type Address string

// ParseAddress validates the raw input against the fixed-length hex pattern
// and returns the lowercase canonical form. Malformed input is rejected here,
// before any downstream call is issued.
func ParseAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !addressPattern.MatchString(trimmed) {
		return "", fmt.Errorf("invalid wallet address %q: must match 0x followed by 40 hex characters", raw)
	}
	return Address(strings.ToLower(trimmed)), nil
}

// String returns the canonical lowercase form.
func (a Address) String() string {
	return string(a)
}

// Is reports whether the address equals other, ignoring case.
func (a Address) Is(other string) bool {
	return strings.EqualFold(string(a), other)
}
