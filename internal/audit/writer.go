package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/voltbridge/markethub/pkg/config"
	"github.com/voltbridge/markethub/pkg/enums"
	"github.com/voltbridge/markethub/pkg/logger"
)

// DocumentEvent is one outgoing document as recorded for analytics. Rows are
// append-only; the operational stores stay the source of truth.
type DocumentEvent struct {
	MessageID      string
	BundleID       uuid.UUID
	ReceiverNumber string
	ReceiverRole   enums.ActorRole
	DocumentType   enums.DocumentType
	Format         enums.DocumentFormat
	BusinessReason enums.BusinessReason
	RecordCount    int
	Rejected       bool
	CreatedAt      time.Time
}

type documentRow struct {
	MessageID      string    `bigquery:"message_id"`
	BundleID       string    `bigquery:"bundle_id"`
	ReceiverNumber string    `bigquery:"receiver_number"`
	ReceiverRole   string    `bigquery:"receiver_role"`
	DocumentType   string    `bigquery:"document_type"`
	Format         string    `bigquery:"format"`
	BusinessReason string    `bigquery:"business_reason"`
	RecordCount    int       `bigquery:"record_count"`
	Rejected       bool      `bigquery:"rejected"`
	CreatedAt      time.Time `bigquery:"created_at"`
}

type inserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// Writer streams outgoing-document events to the analytics warehouse.
// Auditing is best effort: a failed insert is logged, never surfaced to the
// pipeline that produced the document.
type Writer struct {
	client inserter
	table  string
	logg   *logger.Logger
}

// NewWriter builds an audit writer. A nil client disables auditing, which
// keeps local development working without warehouse credentials.
func NewWriter(client inserter, cfg config.BigQueryConfig, logg *logger.Logger) (*Writer, error) {
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Writer{client: client, table: cfg.DocumentAuditTable, logg: logg}, nil
}

// RecordDocument writes one event row.
func (w *Writer) RecordDocument(ctx context.Context, event DocumentEvent) {
	if w == nil || w.client == nil {
		return
	}
	row := documentRow{
		MessageID:      event.MessageID,
		BundleID:       event.BundleID.String(),
		ReceiverNumber: event.ReceiverNumber,
		ReceiverRole:   event.ReceiverRole.String(),
		DocumentType:   event.DocumentType.String(),
		Format:         event.Format.String(),
		BusinessReason: event.BusinessReason.String(),
		RecordCount:    event.RecordCount,
		Rejected:       event.Rejected,
		CreatedAt:      event.CreatedAt.UTC(),
	}
	if err := w.client.InsertRows(ctx, w.table, []any{row}); err != nil {
		w.logg.Error(w.logg.WithField(ctx, "message_id", event.MessageID), "failed to audit outgoing document", err)
	}
}
