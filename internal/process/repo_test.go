package process

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voltbridge/markethub/pkg/db/models"
	"github.com/voltbridge/markethub/pkg/enums"
)

func setupProcessTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS processes (
  id TEXT PRIMARY KEY,
  request_transaction_id TEXT NOT NULL,
  series_transaction_id TEXT NOT NULL,
  requested_by_number TEXT NOT NULL,
  requested_by_role TEXT NOT NULL,
  requester_number TEXT NOT NULL,
  requester_role TEXT NOT NULL,
  grid_area TEXT NOT NULL,
  process_type TEXT NOT NULL,
  business_reason TEXT NOT NULL,
  requested_format TEXT NOT NULL,
  period_start DATETIME NOT NULL,
  period_end DATETIME NOT NULL,
  metering_point_type TEXT,
  settlement_method TEXT,
  charge_types TEXT,
  state TEXT NOT NULL DEFAULT 'dispatched',
  completed_at DATETIME,
  reject_code TEXT,
  reject_message TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (request_transaction_id, grid_area)
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newProcess(txn, gridArea string) *models.Process {
	return &models.Process{
		ID:                   uuid.New(),
		RequestTransactionID: txn,
		SeriesTransactionID:  txn + "-1",
		RequestedByNumber:    "5790001330552",
		RequestedByRole:      enums.ActorRoleEnergySupplier,
		RequesterNumber:      "5790001330552",
		RequesterRole:        enums.ActorRoleEnergySupplier,
		GridArea:             gridArea,
		ProcessType:          enums.ProcessTypeRequestEnergyResults,
		BusinessReason:       enums.BusinessReasonBalanceFixing,
		RequestedFormat:      enums.DocumentFormatCIMXML,
		PeriodStart:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:            time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		State:                enums.ProcessStateDispatched,
	}
}

func TestCreateProcessesIsIdempotent(t *testing.T) {
	db := setupProcessTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := newProcess("txn-1", "512")
	require.NoError(t, repo.CreateProcesses(ctx, []*models.Process{first}))

	// same (transaction, grid area) key; insert must be a no-op
	dup := newProcess("txn-1", "512")
	require.NoError(t, repo.CreateProcesses(ctx, []*models.Process{dup}))

	procs, err := repo.ListByRequestTransactionID(ctx, "txn-1")
	require.NoError(t, err)
	require.Len(t, procs, 1)
	require.Equal(t, first.ID, procs[0].ID)
}

func TestListBySeriesTransactionIDScopesToOneSeries(t *testing.T) {
	db := setupProcessTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := newProcess("txn-5", "512")
	second := newProcess("txn-5", "804")
	second.SeriesTransactionID = "txn-5-2"
	require.NoError(t, repo.CreateProcesses(ctx, []*models.Process{first, second}))

	procs, err := repo.ListBySeriesTransactionID(ctx, "txn-5", "txn-5-2")
	require.NoError(t, err)
	require.Len(t, procs, 1)
	require.Equal(t, second.ID, procs[0].ID)

	all, err := repo.ListByRequestTransactionID(ctx, "txn-5")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestMarkRejectedClosesAllProcessesOfTransaction(t *testing.T) {
	db := setupProcessTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateProcesses(ctx, []*models.Process{
		newProcess("txn-2", "512"),
		newProcess("txn-2", "804"),
		newProcess("txn-other", "512"),
	}))

	completedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkRejectedByRequestTransactionID(ctx, "txn-2", "E17", "period is invalid", completedAt))

	procs, err := repo.ListByRequestTransactionID(ctx, "txn-2")
	require.NoError(t, err)
	require.Len(t, procs, 2)
	for _, proc := range procs {
		require.Equal(t, enums.ProcessStateRejected, proc.State)
		require.NotNil(t, proc.RejectCode)
		require.Equal(t, "E17", *proc.RejectCode)
		require.NotNil(t, proc.CompletedAt)
	}

	other, err := repo.ListByRequestTransactionID(ctx, "txn-other")
	require.NoError(t, err)
	require.Len(t, other, 1)
	require.Equal(t, enums.ProcessStateDispatched, other[0].State)
}

func TestMarkAcceptedOnlyTouchesDispatched(t *testing.T) {
	db := setupProcessTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	proc := newProcess("txn-3", "512")
	require.NoError(t, repo.CreateProcesses(ctx, []*models.Process{proc}))

	completedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkAccepted(ctx, proc.ID, completedAt))

	stored, err := repo.FindByID(ctx, proc.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, enums.ProcessStateAccepted, stored.State)

	// second transition attempt is a no-op
	require.NoError(t, repo.MarkRejectedByRequestTransactionID(ctx, "txn-3", "E17", "late reject", completedAt))
	stored, err = repo.FindByID(ctx, proc.ID)
	require.NoError(t, err)
	require.Equal(t, enums.ProcessStateAccepted, stored.State)
}

func TestFindByIDReturnsNilWhenMissing(t *testing.T) {
	db := setupProcessTestDB(t)
	repo := NewRepository(db)

	proc, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, proc)
}
