package enums

import (
	"fmt"
	"strings"
)

// Quality qualifies a time-series point; the value is the wire code.
type Quality string

const (
	QualityMissing    Quality = "A02"
	QualityEstimated  Quality = "A03"
	QualityMeasured   Quality = "A04"
	QualityCalculated Quality = "A06"
)

var validQualities = []Quality{
	QualityMissing,
	QualityEstimated,
	QualityMeasured,
	QualityCalculated,
}

// String implements fmt.Stringer.
func (q Quality) String() string {
	return string(q)
}

// IsValid reports whether the value is known.
func (q Quality) IsValid() bool {
	for _, candidate := range validQualities {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuality converts raw input into a Quality.
func ParseQuality(value string) (Quality, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validQualities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quality %q", value)
}
