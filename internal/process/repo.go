package process

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voltbridge/markethub/pkg/db/models"
	"github.com/voltbridge/markethub/pkg/enums"
)

// Repository handles process persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProcesses(ctx context.Context, processes []*models.Process) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Process, error)
	ListByRequestTransactionID(ctx context.Context, transactionID string) ([]models.Process, error)
	ListBySeriesTransactionID(ctx context.Context, requestTransactionID, seriesTransactionID string) ([]models.Process, error)
	MarkAccepted(ctx context.Context, id uuid.UUID, completedAt time.Time) error
	MarkRejectedByRequestTransactionID(ctx context.Context, transactionID, rejectCode, rejectMessage string, completedAt time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a process repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateProcesses inserts one row per (request transaction, grid area).
// Conflicts on that key are ignored so redelivered requests do not spawn
// duplicate processes.
func (r *repository) CreateProcesses(ctx context.Context, processes []*models.Process) error {
	if len(processes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_transaction_id"}, {Name: "grid_area"}},
			DoNothing: true,
		}).
		Create(processes).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Process, error) {
	var proc models.Process
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&proc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &proc, nil
}

func (r *repository) ListByRequestTransactionID(ctx context.Context, transactionID string) ([]models.Process, error) {
	var procs []models.Process
	if err := r.db.WithContext(ctx).
		Where("request_transaction_id = ?", transactionID).
		Order("grid_area ASC").
		Find(&procs).Error; err != nil {
		return nil, err
	}
	return procs, nil
}

func (r *repository) ListBySeriesTransactionID(ctx context.Context, requestTransactionID, seriesTransactionID string) ([]models.Process, error) {
	var procs []models.Process
	if err := r.db.WithContext(ctx).
		Where("request_transaction_id = ?", requestTransactionID).
		Where("series_transaction_id = ?", seriesTransactionID).
		Order("grid_area ASC").
		Find(&procs).Error; err != nil {
		return nil, err
	}
	return procs, nil
}

func (r *repository) MarkAccepted(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Process{}).
		Where("id = ?", id).
		Where("state = ?", enums.ProcessStateDispatched).
		Updates(map[string]any{
			"state":        enums.ProcessStateAccepted,
			"completed_at": completedAt,
		}).Error
}

func (r *repository) MarkRejectedByRequestTransactionID(ctx context.Context, transactionID, rejectCode, rejectMessage string, completedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Process{}).
		Where("request_transaction_id = ?", transactionID).
		Where("state = ?", enums.ProcessStateDispatched).
		Updates(map[string]any{
			"state":          enums.ProcessStateRejected,
			"reject_code":    rejectCode,
			"reject_message": rejectMessage,
			"completed_at":   completedAt,
		}).Error
}
