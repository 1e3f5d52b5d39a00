package storefront

import (
	"math"
	"math/big"
	"strings"
)

// parseLeadingInt reads an optional sign and the leading decimal digits of s,
// ignoring anything after them. It reports false when s has no leading digits.
func parseLeadingInt(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil, false
	}

	n, ok := new(big.Int).SetString(sign+s[:end], 10)
	return n, ok
}

// parseIndex parses index text. Empty or non-numeric text means index 0.
func parseIndex(s string) int {
	n, ok := parseLeadingInt(s)
	if !ok || !n.IsInt64() {
		return 0
	}
	v := n.Int64()
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0
	}
	return int(v)
}

// parseValue parses value text for a storage write.
func parseValue(s string) (*big.Int, bool) {
	n, ok := parseLeadingInt(s)
	if !ok || n.Sign() < 0 {
		return nil, false
	}
	return n, true
}
