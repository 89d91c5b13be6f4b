package enums

import (
	"fmt"
	"strings"
)

// MeasurementUnit is the unit energy quantities are expressed in; the
// value is the wire code.
type MeasurementUnit string

const (
	MeasurementUnitKWH MeasurementUnit = "KWH"
	MeasurementUnitMWH MeasurementUnit = "MWH"
)

var validMeasurementUnits = []MeasurementUnit{
	MeasurementUnitKWH,
	MeasurementUnitMWH,
}

// String implements fmt.Stringer.
func (m MeasurementUnit) String() string {
	return string(m)
}

// IsValid reports whether the value is known.
func (m MeasurementUnit) IsValid() bool {
	for _, candidate := range validMeasurementUnits {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMeasurementUnit converts raw input into a MeasurementUnit.
func ParseMeasurementUnit(value string) (MeasurementUnit, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validMeasurementUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid measurement unit %q", value)
}
