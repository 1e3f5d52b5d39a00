// Package chain provides Ethereum value and address helpers shared by the
// provider gateway, the registry prober and the storefront.
package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ETHDecimals is the number of decimals for ETH (wei per ether = 10^18).
const ETHDecimals = 18

// BalanceDisplayPlaces is the number of fractional digits shown for balances.
const BalanceDisplayPlaces = 4

// ParseDecimalAmount parses a decimal amount string to big.Int with the given decimal places.
// For example, "1.5" with 18 decimals returns 1500000000000000000.
// Digits beyond decimalPlaces are truncated.
//
//nolint:gocognit,gocyclo // Decimal parsing requires sequential validation steps
func ParseDecimalAmount(amount string, decimalPlaces int, invalidAmountErr error) (*big.Int, error) {
	if amount == "" {
		return nil, invalidAmountErr
	}

	if strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") {
		return nil, invalidAmountErr
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return nil, invalidAmountErr
	}

	intPart := parts[0]
	decPart := ""
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if intPart == "" {
		intPart = "0"
	}
	for _, c := range intPart {
		if c < '0' || c > '9' {
			return nil, invalidAmountErr
		}
	}
	intVal, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, invalidAmountErr
	}

	multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimalPlaces)), nil)
	result := new(big.Int).Mul(intVal, multiplier)

	if decPart != "" {
		for _, c := range decPart {
			if c < '0' || c > '9' {
				return nil, invalidAmountErr
			}
		}

		for len(decPart) < decimalPlaces {
			decPart += "0"
		}
		decPart = decPart[:decimalPlaces]

		if decPart != "" {
			decVal, ok := new(big.Int).SetString(decPart, 10)
			if !ok {
				return nil, invalidAmountErr
			}
			result = result.Add(result, decVal)
		}
	}

	return result, nil
}

// ParseETH converts a decimal ETH string to wei.
func ParseETH(amount string, invalidAmountErr error) (*big.Int, error) {
	return ParseDecimalAmount(amount, ETHDecimals, invalidAmountErr)
}

// FormatDecimalAmount converts a big.Int to a human-readable string with the given decimal places.
// Trailing zeros after the decimal point are removed.
// For example, 1500000000000000000 with 18 decimals returns "1.5".
func FormatDecimalAmount(amount *big.Int, decimalPlaces int) string {
	if amount == nil {
		return "0"
	}

	str := amount.String()

	for len(str) <= decimalPlaces {
		str = "0" + str
	}

	decimalPos := len(str) - decimalPlaces
	result := str[:decimalPos] + "." + str[decimalPos:]

	for len(result) > 1 && result[len(result)-1] == '0' && result[len(result)-2] != '.' {
		result = result[:len(result)-1]
	}

	return result
}

// FormatFixed formats amount (scaled by decimalPlaces) with exactly places
// fractional digits, rounding half up. FormatFixed(1234567e12, 18, 4) is "1.2346".
func FormatFixed(amount *big.Int, decimalPlaces, places int) string {
	if amount == nil {
		amount = new(big.Int)
	}
	if places > decimalPlaces {
		places = decimalPlaces
	}

	drop := decimalPlaces - places
	rounded := new(big.Int).Set(amount)
	if drop > 0 {
		divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(drop)), nil)
		half := new(big.Int).Rsh(divisor, 1)
		rounded.Add(rounded, half)
		rounded.Quo(rounded, divisor)
	}

	str := rounded.String()
	if places == 0 {
		return str
	}
	for len(str) <= places {
		str = "0" + str
	}
	pos := len(str) - places
	return str[:pos] + "." + str[pos:]
}

// FormatBalance renders a wei amount as ETH with four fractional digits.
func FormatBalance(wei *big.Int) string {
	return FormatFixed(wei, ETHDecimals, BalanceDisplayPlaces)
}

// WeiToHex encodes a wei amount as a JSON-RPC quantity ("0x" + hex, no leading zeros).
func WeiToHex(wei *big.Int) string {
	if wei == nil {
		return "0x0"
	}
	return hexutil.EncodeBig(wei)
}

// ParseHexQuantity decodes a JSON-RPC hex quantity. Unlike hexutil.DecodeBig it
// tolerates leading zeros and a bare "0x", which some wallets return.
func ParseHexQuantity(s string, invalidErr error) (*big.Int, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, invalidErr
	}
	digits := s[2:]
	if digits == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(digits, 16)
	if !ok || n.Sign() < 0 {
		return nil, invalidErr
	}
	return n, nil
}
