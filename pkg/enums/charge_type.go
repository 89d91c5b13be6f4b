package enums

import (
	"fmt"
	"strings"
)

// ChargeType categorizes wholesale settlement charges.
type ChargeType string

const (
	ChargeTypeTariff       ChargeType = "tariff"
	ChargeTypeFee          ChargeType = "fee"
	ChargeTypeSubscription ChargeType = "subscription"
)

var validChargeTypes = []ChargeType{
	ChargeTypeTariff,
	ChargeTypeFee,
	ChargeTypeSubscription,
}

var chargeTypeCodes = map[ChargeType]string{
	ChargeTypeTariff:       "D03",
	ChargeTypeFee:          "D02",
	ChargeTypeSubscription: "D01",
}

// String implements fmt.Stringer.
func (c ChargeType) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c ChargeType) IsValid() bool {
	for _, candidate := range validChargeTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// Code returns the document wire code for the charge type.
func (c ChargeType) Code() string {
	return chargeTypeCodes[c]
}

// ParseChargeType converts raw input into a ChargeType.
func ParseChargeType(value string) (ChargeType, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validChargeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid charge type %q", value)
}

// ChargeTypeFromCode resolves a document wire code back to a charge type.
func ChargeTypeFromCode(code string) (ChargeType, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for chargeType, candidate := range chargeTypeCodes {
		if candidate == code {
			return chargeType, nil
		}
	}
	return "", fmt.Errorf("unknown charge type code %q", code)
}
