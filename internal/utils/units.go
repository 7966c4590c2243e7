package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatUnitsTrim converts a raw integer amount to a human string:
// divides by 10^decimals, keeps at most maxFrac fractional digits and drops
// trailing zeros.
//
//	amount=1234500000000000000, decimals=18 -> "1.2345"
//	amount=1000000000000000000, decimals=18 -> "1"
func FormatUnitsTrim(amount *big.Int, decimals uint8, maxFrac int) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}
	d := ToDecimal(amount, decimals)
	if maxFrac < 0 {
		maxFrac = 0
	}
	s := d.Truncate(int32(maxFrac)).String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

// FormatEther is FormatUnitsTrim with 18 decimals and full precision.
func FormatEther(wei *big.Int) string {
	return FormatUnitsTrim(wei, 18, 18)
}

// ToDecimal scales a raw integer amount down by 10^decimals.
func ToDecimal(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// ToUnits scales a human amount up by 10^decimals, truncating extra precision.
func ToUnits(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).Truncate(0).BigInt()
}

// ParseUnits parses a human decimal string ("1.5") into raw units.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return nil, err
	}
	return ToUnits(d, decimals), nil
}

// ParseEther parses an ETH amount into wei.
func ParseEther(s string) (*big.Int, error) {
	return ParseUnits(s, 18)
}

// ParseAmount parses a non-negative decimal string.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount must not be negative: %q", s)
	}
	return d, nil
}

func NormalizeHex0x(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return "0x" + strings.ToLower(s[2:])
	}
	return "0x" + strings.ToLower(s)
}

// ChainIDHex renders a chain id the way wallets expect it ("0xaa36a7").
func ChainIDHex(chainID uint64) string {
	return fmt.Sprintf("0x%x", chainID)
}
