package math

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseUnits converts a decimal string such as "1000" or "2.5" into an integer
// amount with the given number of decimals ("2.5", 6 -> 2500000).
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty amount")
	}

	negative := false
	if value[0] == '-' {
		negative = true
		value = value[1:]
	}

	whole, frac, hasFrac := strings.Cut(value, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && frac == "" {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", value, decimals)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	amount, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if negative {
		amount.Neg(amount)
	}
	return amount, nil
}

// FormatUnits renders an integer amount as a decimal string, trimming
// trailing zeros from the fractional part.
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}

	abs := new(big.Int).Abs(amount)
	digits := abs.String()
	if decimals > 0 {
		if len(digits) <= int(decimals) {
			digits = strings.Repeat("0", int(decimals)-len(digits)+1) + digits
		}
		split := len(digits) - int(decimals)
		whole, frac := digits[:split], strings.TrimRight(digits[split:], "0")
		digits = whole
		if frac != "" {
			digits += "." + frac
		}
	}

	if amount.Sign() < 0 {
		return "-" + digits
	}
	return digits
}

// MulDiv returns x*num/den using integer division, without mutating x.
func MulDiv(x *big.Int, num, den int64) *big.Int {
	out := new(big.Int).Mul(x, big.NewInt(num))
	return out.Div(out, big.NewInt(den))
}

// Pow10 returns 10^n.
func Pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
