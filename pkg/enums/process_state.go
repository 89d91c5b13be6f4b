package enums

import (
	"fmt"
	"strings"
)

// ProcessState tracks a dispatched calculation through its lifecycle.
type ProcessState string

const (
	ProcessStateDispatched ProcessState = "dispatched"
	ProcessStateAccepted   ProcessState = "accepted"
	ProcessStateRejected   ProcessState = "rejected"
)

var validProcessStates = []ProcessState{
	ProcessStateDispatched,
	ProcessStateAccepted,
	ProcessStateRejected,
}

// String implements fmt.Stringer.
func (p ProcessState) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p ProcessState) IsValid() bool {
	for _, candidate := range validProcessStates {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the process has reached a final state.
func (p ProcessState) IsTerminal() bool {
	return p == ProcessStateAccepted || p == ProcessStateRejected
}

// ParseProcessState converts raw input into a ProcessState.
func ParseProcessState(value string) (ProcessState, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validProcessStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid process state %q", value)
}
