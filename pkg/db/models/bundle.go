package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltbridge/markethub/pkg/enums"
)

// Bundle accumulates outgoing documents for one (receiver, role, document
// type, format) key. CreatedAt is the first-insert timestamp the bundling
// window is measured from; a closed bundle is immutable.
type Bundle struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReceiverNumber string               `gorm:"column:receiver_number;not null;index:idx_bundles_receiver"`
	ReceiverRole   enums.ActorRole      `gorm:"column:receiver_role;type:text;not null;index:idx_bundles_receiver"`
	DocumentType   enums.DocumentType   `gorm:"column:document_type;type:text;not null"`
	Format         enums.DocumentFormat `gorm:"column:format;type:text;not null;index:idx_bundles_receiver"`
	DocumentCount  int                  `gorm:"column:document_count;not null;default:0"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	ClosedAt       *time.Time           `gorm:"column:closed_at"`
	RetrievedAt    *time.Time           `gorm:"column:retrieved_at"`
	Documents      []BundleDocument     `gorm:"foreignKey:BundleID;constraint:OnDelete:CASCADE"`
}

// BundleDocument is one rendered document inside a bundle, ordered by
// insertion position.
type BundleDocument struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BundleID  uuid.UUID `gorm:"column:bundle_id;type:uuid;not null;index:idx_bundle_documents_bundle"`
	MessageID string    `gorm:"column:message_id;not null"`
	Position  int       `gorm:"column:position;not null"`
	GridArea  *string   `gorm:"column:grid_area"`
	Payload   []byte    `gorm:"column:payload;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
