package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/voltbridge/markethub/pkg/enums"
)

// ChargeTypes stores a request's charge-type filter as a comma-joined text
// column; an empty list means "no filter".
type ChargeTypes []enums.ChargeType

func (c *ChargeTypes) Scan(src any) error {
	if src == nil {
		*c = ChargeTypes{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return c.parseFromString(v)
	case []byte:
		return c.parseFromString(string(v))
	default:
		return fmt.Errorf("ChargeTypes: unsupported Scan type %T", src)
	}
}

func (c ChargeTypes) Value() (driver.Value, error) {
	if len(c) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(c))
	for _, ct := range c {
		parts = append(parts, string(ct))
	}
	return strings.Join(parts, ","), nil
}

// Contains reports whether the filter includes the given charge type. An
// empty filter matches everything.
func (c ChargeTypes) Contains(ct enums.ChargeType) bool {
	if len(c) == 0 {
		return true
	}
	for _, candidate := range c {
		if candidate == ct {
			return true
		}
	}
	return false
}

func (c *ChargeTypes) parseFromString(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*c = ChargeTypes{}
		return nil
	}
	raw := strings.Split(s, ",")
	out := make([]enums.ChargeType, 0, len(raw))
	for _, r := range raw {
		ct, err := enums.ParseChargeType(r)
		if err != nil {
			return fmt.Errorf("ChargeTypes: %w", err)
		}
		out = append(out, ct)
	}
	*c = ChargeTypes(out)
	return nil
}
