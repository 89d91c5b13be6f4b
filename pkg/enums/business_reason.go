package enums

import (
	"fmt"
	"strings"
)

// BusinessReason is the regulatory category of a request or result.
type BusinessReason string

const (
	BusinessReasonPreliminaryAggregation BusinessReason = "preliminary_aggregation"
	BusinessReasonBalanceFixing          BusinessReason = "balance_fixing"
	BusinessReasonWholesaleFixing        BusinessReason = "wholesale_fixing"
	BusinessReasonPeriodicMetering       BusinessReason = "periodic_metering"
	BusinessReasonYearlyMetering         BusinessReason = "yearly_metering"
)

var validBusinessReasons = []BusinessReason{
	BusinessReasonPreliminaryAggregation,
	BusinessReasonBalanceFixing,
	BusinessReasonWholesaleFixing,
	BusinessReasonPeriodicMetering,
	BusinessReasonYearlyMetering,
}

var businessReasonCodes = map[BusinessReason]string{
	BusinessReasonPreliminaryAggregation: "D03",
	BusinessReasonBalanceFixing:          "D04",
	BusinessReasonWholesaleFixing:        "D05",
	BusinessReasonPeriodicMetering:       "E23",
	BusinessReasonYearlyMetering:         "D42",
}

// String implements fmt.Stringer.
func (b BusinessReason) String() string {
	return string(b)
}

// IsValid reports whether the value is known.
func (b BusinessReason) IsValid() bool {
	for _, candidate := range validBusinessReasons {
		if candidate == b {
			return true
		}
	}
	return false
}

// Code returns the document wire code for the reason.
func (b BusinessReason) Code() string {
	return businessReasonCodes[b]
}

// ParseBusinessReason converts raw input into a BusinessReason.
func ParseBusinessReason(value string) (BusinessReason, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validBusinessReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid business reason %q", value)
}

// BusinessReasonFromCode resolves a document wire code back to a reason.
func BusinessReasonFromCode(code string) (BusinessReason, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for reason, candidate := range businessReasonCodes {
		if candidate == code {
			return reason, nil
		}
	}
	return "", fmt.Errorf("unknown business reason code %q", code)
}
