// Package amount converts between human decimal strings and base-unit token
// amounts. Parsing fails closed on anything that is not a plain decimal or
// integer literal, and digits past the mint's precision are truncated rather
// than rounded so a user never moves more than they typed.
package amount

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrMalformed = errors.New("malformed amount")
	ErrOverflow  = errors.New("amount exceeds u64 range")
)

var (
	decimalPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
	integerPattern = regexp.MustCompile(`^\d+$`)
)

var maxUint64 = new(big.Int).SetUint64(math.MaxUint64)

// ParseDecimal converts a decimal string like "100.25" into base units of a
// mint with the given number of decimals. The empty string is zero.
func ParseDecimal(input string, decimals uint8) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}
	if !decimalPattern.MatchString(input) {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, input)
	}

	// Truncate, never round, digits past the mint's precision; pad short
	// fractions to exactly `decimals` digits.
	whole, frac, _ := strings.Cut(input, ".")
	if len(frac) > int(decimals) {
		frac = frac[:decimals]
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	units, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, input)
	}
	if units.Cmp(maxUint64) > 0 {
		return 0, fmt.Errorf("%w: %q", ErrOverflow, input)
	}
	return units.Uint64(), nil
}

// ParseInteger converts a raw base-unit string. The empty string is zero.
func ParseInteger(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}
	if !integerPattern.MatchString(input) {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, input)
	}
	value, err := strconv.ParseUint(input, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %q", ErrOverflow, input)
		}
		return 0, fmt.Errorf("%w: %q", ErrMalformed, input)
	}
	return value, nil
}

// Format renders base units as a decimal string, trimming trailing zeros.
func Format(units *big.Int, decimals uint8) string {
	if decimals == 0 {
		return units.String()
	}
	text := units.String()
	if negative := strings.HasPrefix(text, "-"); negative {
		return "-" + Format(new(big.Int).Neg(units), decimals)
	}
	if len(text) <= int(decimals) {
		text = strings.Repeat("0", int(decimals)-len(text)+1) + text
	}
	split := len(text) - int(decimals)
	whole, frac := text[:split], strings.TrimRight(text[split:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

// FormatUint is Format for amounts that fit in a u64.
func FormatUint(units uint64, decimals uint8) string {
	return Format(new(big.Int).SetUint64(units), decimals)
}
