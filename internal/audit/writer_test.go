package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/voltbridge/markethub/pkg/config"
	"github.com/voltbridge/markethub/pkg/enums"
	"github.com/voltbridge/markethub/pkg/logger"
)

type fakeInserter struct {
	table string
	rows  []any
	err   error
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	f.table = table
	f.rows = append(f.rows, rows...)
	return f.err
}

func testEvent() DocumentEvent {
	return DocumentEvent{
		MessageID:      "msg-1",
		BundleID:       uuid.New(),
		ReceiverNumber: "5790000000005",
		ReceiverRole:   enums.ActorRoleEnergySupplier,
		DocumentType:   enums.DocumentTypeNotifyAggregatedMeasureData,
		Format:         enums.DocumentFormatCIMXML,
		BusinessReason: enums.BusinessReasonBalanceFixing,
		RecordCount:    3,
		CreatedAt:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordDocumentWritesRow(t *testing.T) {
	client := &fakeInserter{}
	logg := logger.New(logger.Options{ServiceName: "audit-test"})
	writer, err := NewWriter(client, config.BigQueryConfig{DocumentAuditTable: "outgoing_documents"}, logg)
	if err != nil {
		t.Fatalf("building writer: %v", err)
	}

	writer.RecordDocument(context.Background(), testEvent())

	if client.table != "outgoing_documents" {
		t.Fatalf("unexpected table %q", client.table)
	}
	if len(client.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(client.rows))
	}
	row, ok := client.rows[0].(documentRow)
	if !ok {
		t.Fatalf("unexpected row type %T", client.rows[0])
	}
	if row.MessageID != "msg-1" || row.RecordCount != 3 || row.Rejected {
		t.Fatalf("row fields not mapped: %+v", row)
	}
}

func TestRecordDocumentSwallowsInsertErrors(t *testing.T) {
	client := &fakeInserter{err: errors.New("stream closed")}
	logg := logger.New(logger.Options{ServiceName: "audit-test"})
	writer, err := NewWriter(client, config.BigQueryConfig{DocumentAuditTable: "outgoing_documents"}, logg)
	if err != nil {
		t.Fatalf("building writer: %v", err)
	}

	// must not panic or propagate
	writer.RecordDocument(context.Background(), testEvent())
}

func TestRecordDocumentWithNilClientIsNoop(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "audit-test"})
	writer, err := NewWriter(nil, config.BigQueryConfig{}, logg)
	if err != nil {
		t.Fatalf("building writer: %v", err)
	}
	writer.RecordDocument(context.Background(), testEvent())
}
