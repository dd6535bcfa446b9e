// Package formatting converts byte counts to and from the short sizes
// used in configuration files and log lines, such as "256KB" or "1.5 MB".
package formatting

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidSize is returned for sizes ParseBytes cannot read.
var ErrInvalidSize = errors.New("invalid byte size")

// Sizes are binary. "KB" and "KiB" both mean 1024 bytes.
var units = [...]string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n with the largest unit that keeps the value at or
// above one. precision below zero is treated as zero.
func FormatBytes(n int64, precision int) string {
	if n < 0 {
		return "-" + FormatBytes(-n, precision)
	}
	precision = max(precision, 0)

	exp := 0
	value := float64(n)
	for value >= 1024 && exp < len(units)-1 {
		value /= 1024
		exp++
	}
	if exp == 0 {
		return strconv.FormatInt(n, 10) + " B"
	}

	return strconv.FormatFloat(value, 'f', precision, 64) + " " + units[exp]
}

// ParseBytes reads a non-negative size made of a decimal number and an
// optional unit. Units are case-insensitive and may be written with or
// without the "i" and "B" (k, kb, kib). A bare number is bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)

	split := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
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

	exp, ok := unitExponent(unit)
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidSize, unit)
	}

	size := value * math.Pow(1024, float64(exp))
	if size >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}
	return int64(size), nil
}

func unitExponent(unit string) (int, bool) {
	u := strings.ToUpper(unit)
	if u == "" || u == "B" {
		return 0, true
	}

	u = strings.TrimSuffix(u, "B")
	u = strings.TrimSuffix(u, "I")
	for exp, name := range units[1:] {
		if u == name[:1] {
			return exp + 1, true
		}
	}
	return 0, false
}
