package enums

import (
	"fmt"
	"strings"
)

// MeteringPointType classifies the metering point a series was measured at.
type MeteringPointType string

const (
	MeteringPointTypeConsumption MeteringPointType = "consumption"
	MeteringPointTypeProduction  MeteringPointType = "production"
	MeteringPointTypeExchange    MeteringPointType = "exchange"
)

var validMeteringPointTypes = []MeteringPointType{
	MeteringPointTypeConsumption,
	MeteringPointTypeProduction,
	MeteringPointTypeExchange,
}

var meteringPointTypeCodes = map[MeteringPointType]string{
	MeteringPointTypeConsumption: "E17",
	MeteringPointTypeProduction:  "E18",
	MeteringPointTypeExchange:    "E20",
}

// String implements fmt.Stringer.
func (m MeteringPointType) String() string {
	return string(m)
}

// IsValid reports whether the value is known.
func (m MeteringPointType) IsValid() bool {
	for _, candidate := range validMeteringPointTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// Code returns the document wire code for the metering point type.
func (m MeteringPointType) Code() string {
	return meteringPointTypeCodes[m]
}

// ParseMeteringPointType converts raw input into a MeteringPointType.
func ParseMeteringPointType(value string) (MeteringPointType, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validMeteringPointTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid metering point type %q", value)
}

// MeteringPointTypeFromCode resolves a document wire code back to a type.
func MeteringPointTypeFromCode(code string) (MeteringPointType, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for mpType, candidate := range meteringPointTypeCodes {
		if candidate == code {
			return mpType, nil
		}
	}
	return "", fmt.Errorf("unknown metering point type code %q", code)
}
