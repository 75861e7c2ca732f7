package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsValidAddress reports whether s is a 0x-prefixed 20-byte hex address.
// All-lowercase and all-uppercase digits are accepted as-is; mixed case must
// carry a valid EIP-55 checksum.
func IsValidAddress(s string) bool {
	if len(s) != 2+2*common.AddressLength || !strings.HasPrefix(s, "0x") {
		return false
	}
	if !common.IsHexAddress(s) {
		return false
	}
	body := s[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return common.HexToAddress(s).Hex() == s
}

// ParseAddress validates s and converts it to a common.Address.
func ParseAddress(s string) (common.Address, error) {
	if !IsValidAddress(s) {
		return common.Address{}, InvalidAddressError(s)
	}
	return common.HexToAddress(s), nil
}
