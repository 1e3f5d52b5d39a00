package chain

import (
	"github.com/ethereum/go-ethereum/common"

	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

// ZeroAddress is the sentinel address meaning "no contract deployed at this slot".
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// FormatAddress shortens an address for display: first 6 characters, "...",
// last 4 characters. Strings too short to shorten are returned unchanged.
func FormatAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// FormatHash shortens a transaction hash to its first 10 characters followed by "...".
func FormatHash(hash string) string {
	if len(hash) <= 10 {
		return hash
	}
	return hash[:10] + "..."
}

// IsZeroAddress reports whether address is the all-zero sentinel.
func IsZeroAddress(address common.Address) bool {
	return address == (common.Address{})
}

// ValidateAddress checks that address is a 20-byte hex address with 0x prefix.
func ValidateAddress(address string) error {
	if len(address) != 42 || !common.IsHexAddress(address) {
		return brewerr.WithDetails(brewerr.ErrInvalidAddress, map[string]string{
			"address": address,
		})
	}
	return nil
}

// ChecksumAddress returns the EIP-55 mixed-case form of a valid address.
func ChecksumAddress(address string) string {
	return common.HexToAddress(address).Hex()
}
