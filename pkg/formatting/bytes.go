// Package formatting parses human-written values and model output.
package formatting

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidSize is returned for byte sizes that cannot be parsed.
var ErrInvalidSize = errors.New("invalid byte size")

var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n with the largest base-1024 unit that keeps the
// value at or above one.
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)

	value := float64(n)
	i := 0
	for i < len(units)-1 && (value >= 1024 || value <= -1024) {
		value /= 1024
		i++
	}

	return strconv.FormatFloat(value, 'f', precision, 64) + " " + units[i]
}

// ParseBytes parses sizes such as "512", "64KB", "1.5 MiB" or "2g" into a
// byte count. Units are base-1024 and case-insensitive; the trailing "B"
// and the binary "i" are optional.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})

	number, unit := s, ""
	if split >= 0 {
		number, unit = s[:split], strings.TrimSpace(s[split:])
	}
	if number == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	unit = strings.ToUpper(unit)
	unit = strings.TrimSuffix(unit, "B")
	unit = strings.TrimSuffix(unit, "I")

	if unit == "" {
		return int64(value), nil
	}
	for i, u := range units[1:] {
		if u[:1] == unit {
			return int64(value * float64(int64(1)<<(10*(i+1)))), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown unit in %q", ErrInvalidSize, s)
}
