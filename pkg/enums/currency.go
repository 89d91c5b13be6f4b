package enums

import (
	"fmt"
	"strings"
)

// Currency is the settlement currency of a wholesale amount.
type Currency string

const (
	CurrencyDKK Currency = "DKK"
	CurrencyEUR Currency = "EUR"
)

var validCurrencies = []Currency{
	CurrencyDKK,
	CurrencyEUR,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCurrency converts raw input into a Currency.
func ParseCurrency(value string) (Currency, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validCurrencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
