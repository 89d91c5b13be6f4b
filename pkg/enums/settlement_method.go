package enums

import (
	"fmt"
	"strings"
)

// SettlementMethod distinguishes how consumption is settled.
type SettlementMethod string

const (
	SettlementMethodFlex        SettlementMethod = "flex"
	SettlementMethodNonProfiled SettlementMethod = "non_profiled"
)

var validSettlementMethods = []SettlementMethod{
	SettlementMethodFlex,
	SettlementMethodNonProfiled,
}

var settlementMethodCodes = map[SettlementMethod]string{
	SettlementMethodFlex:        "D01",
	SettlementMethodNonProfiled: "E02",
}

// String implements fmt.Stringer.
func (s SettlementMethod) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SettlementMethod) IsValid() bool {
	for _, candidate := range validSettlementMethods {
		if candidate == s {
			return true
		}
	}
	return false
}

// Code returns the document wire code for the settlement method.
func (s SettlementMethod) Code() string {
	return settlementMethodCodes[s]
}

// ParseSettlementMethod converts raw input into a SettlementMethod.
func ParseSettlementMethod(value string) (SettlementMethod, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validSettlementMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid settlement method %q", value)
}

// SettlementMethodFromCode resolves a document wire code back to a method.
func SettlementMethodFromCode(code string) (SettlementMethod, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for method, candidate := range settlementMethodCodes {
		if candidate == code {
			return method, nil
		}
	}
	return "", fmt.Errorf("unknown settlement method code %q", code)
}
