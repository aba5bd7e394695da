package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

func SafeAtoi(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

var nonNumericRegex = regexp.MustCompile(`[^\d]`)

func CleanNumericString(s string) string {
	return nonNumericRegex.ReplaceAllString(s, "")
}

var extractSignedNumberRegex = regexp.MustCompile(`-?\d+`)

func ParseSignedNumericString(s string) string {
	return extractSignedNumberRegex.FindString(s)
}

var priceRegex = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// ParsePrice coerces a source price string ("79,99 €", "129.99", "1 299,00€")
// into a non-negative float. Empty or unrecognizable input is an error so the
// caller can drop the record.
func ParsePrice(s string) (float64, error) {
	compact := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	compact = strings.ReplaceAll(compact, " ", "")
	match := priceRegex.FindString(compact)
	if match == "" {
		return 0, fmt.Errorf("no numeric price in %q", s)
	}
	match = strings.ReplaceAll(match, ",", ".")
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative price %q", s)
	}
	return v, nil
}

// ParseOptionalInt returns nil for empty input and a pointer to the first
// signed integer found otherwise. Unrecognizable non-empty input yields nil
// as well; optional counters are best-effort.
func ParseOptionalInt(s string) *int {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	match := ParseSignedNumericString(s)
	if match == "" {
		return nil
	}
	i, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &i
}
