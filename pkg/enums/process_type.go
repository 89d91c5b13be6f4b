package enums

import (
	"fmt"
	"strings"
)

// ProcessType is the category of work a request kicks off; delegations are
// scoped to exactly one of these.
type ProcessType string

const (
	ProcessTypeRequestEnergyResults    ProcessType = "request_energy_results"
	ProcessTypeRequestWholesaleResults ProcessType = "request_wholesale_results"
	ProcessTypeSubmitMeteredData       ProcessType = "submit_metered_data"
)

var validProcessTypes = []ProcessType{
	ProcessTypeRequestEnergyResults,
	ProcessTypeRequestWholesaleResults,
	ProcessTypeSubmitMeteredData,
}

// String implements fmt.Stringer.
func (p ProcessType) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p ProcessType) IsValid() bool {
	for _, candidate := range validProcessTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProcessType converts raw input into a ProcessType.
func ParseProcessType(value string) (ProcessType, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validProcessTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid process type %q", value)
}
