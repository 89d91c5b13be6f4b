package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/voltbridge/markethub/pkg/db/types"
	"github.com/voltbridge/markethub/pkg/enums"
)

// Process is one tracked unit of calculation work. A request that expands
// to N grid areas produces N rows sharing the same request transaction id.
type Process struct {
	ID                   uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestTransactionID string                   `gorm:"column:request_transaction_id;not null;index:idx_processes_request_txn;uniqueIndex:ux_processes_request_txn_grid_area"`
	SeriesTransactionID  string                   `gorm:"column:series_transaction_id;not null"`
	RequestedByNumber    string                   `gorm:"column:requested_by_number;not null"`
	RequestedByRole      enums.ActorRole          `gorm:"column:requested_by_role;type:text;not null"`
	RequesterNumber      string                   `gorm:"column:requester_number;not null"`
	RequesterRole        enums.ActorRole          `gorm:"column:requester_role;type:text;not null"`
	GridArea             string                   `gorm:"column:grid_area;not null;uniqueIndex:ux_processes_request_txn_grid_area"`
	ProcessType          enums.ProcessType        `gorm:"column:process_type;type:text;not null"`
	BusinessReason       enums.BusinessReason     `gorm:"column:business_reason;type:text;not null"`
	RequestedFormat      enums.DocumentFormat     `gorm:"column:requested_format;type:text;not null"`
	PeriodStart          time.Time                `gorm:"column:period_start;not null"`
	PeriodEnd            time.Time                `gorm:"column:period_end;not null"`
	MeteringPointType    *enums.MeteringPointType `gorm:"column:metering_point_type;type:text"`
	SettlementMethod     *enums.SettlementMethod  `gorm:"column:settlement_method;type:text"`
	ChargeTypes          dbtypes.ChargeTypes      `gorm:"column:charge_types;type:text"`
	State                enums.ProcessState       `gorm:"column:state;type:text;not null;default:'dispatched'"`
	CompletedAt          *time.Time               `gorm:"column:completed_at"`
	RejectCode           *string                  `gorm:"column:reject_code"`
	RejectMessage        *string                  `gorm:"column:reject_message"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
