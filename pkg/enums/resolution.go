package enums

import (
	"fmt"
	"strings"
)

// Resolution is the duration of one position in a time series, expressed
// as an ISO 8601 duration (which is also the wire code).
type Resolution string

const (
	ResolutionQuarterHourly Resolution = "PT15M"
	ResolutionHourly        Resolution = "PT1H"
	ResolutionMonthly       Resolution = "P1M"
)

var validResolutions = []Resolution{
	ResolutionQuarterHourly,
	ResolutionHourly,
	ResolutionMonthly,
}

// String implements fmt.Stringer.
func (r Resolution) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r Resolution) IsValid() bool {
	for _, candidate := range validResolutions {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsMonthly reports whether the resolution is the monthly settlement one.
func (r Resolution) IsMonthly() bool {
	return r == ResolutionMonthly
}

// ParseResolution converts raw input into a Resolution.
func ParseResolution(value string) (Resolution, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validResolutions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid resolution %q", value)
}
