package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltbridge/markethub/pkg/enums"
)

// Delegation grants the delegate the right to request and receive data on
// behalf of the delegator for one grid area and one process category,
// within the half-open interval [StartsAt, StopsAt). A nil StopsAt means
// the grant is open-ended.
type Delegation struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DelegatorNumber string            `gorm:"column:delegator_number;not null;index:idx_delegations_parties"`
	DelegateNumber  string            `gorm:"column:delegate_number;not null;index:idx_delegations_parties"`
	GridArea        string            `gorm:"column:grid_area;not null"`
	ProcessType     enums.ProcessType `gorm:"column:process_type;type:text;not null"`
	StartsAt        time.Time         `gorm:"column:starts_at;not null"`
	StopsAt         *time.Time        `gorm:"column:stops_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// ActiveAt reports whether the delegation covers the given instant.
func (d Delegation) ActiveAt(asOf time.Time) bool {
	if asOf.Before(d.StartsAt) {
		return false
	}
	if d.StopsAt != nil && !asOf.Before(*d.StopsAt) {
		return false
	}
	return true
}
