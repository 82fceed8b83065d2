package misc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMissingDelimiter = errors.New("delimiter not found")

// ParsePair splits s on the first delim and parses both halves, i.e. "1000x750" or "-1.20,0.35".
func ParsePair[T int | float64](s string, delim string) (T, T, error) {
	var zero T
	index := strings.Index(s, delim)
	if index < 0 {
		return zero, zero, fmt.Errorf("%w: %q in %q", ErrMissingDelimiter, delim, s)
	}

	x, err := parseNumber[T](s[:index])
	if err != nil {
		return zero, zero, fmt.Errorf("parsing %q: %w", s, err)
	}
	y, err := parseNumber[T](s[index+len(delim):])
	if err != nil {
		return zero, zero, fmt.Errorf("parsing %q: %w", s, err)
	}
	return x, y, nil
}

func parseNumber[T int | float64](s string) (T, error) {
	var value T
	switch any(value).(type) {
	case int:
		v, err := strconv.Atoi(s)
		return T(v), err
	default:
		v, err := strconv.ParseFloat(s, 64)
		return T(v), err
	}
}

// ParseBounds parses a "WIDTHxHEIGHT" pixel size.
func ParseBounds(s string) (int, int, error) {
	return ParsePair[int](s, "x")
}

// ParseComplex parses a "RE,IM" point on the complex plane.
func ParseComplex(s string) (complex128, error) {
	re, im, err := ParsePair[float64](s, ",")
	if err != nil {
		return 0, err
	}
	return complex(re, im), nil
}
