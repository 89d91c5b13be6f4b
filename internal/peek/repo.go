package peek

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltbridge/markethub/pkg/db/models"
	"github.com/voltbridge/markethub/pkg/enums"
)

// Repository reads closed bundles for delivery and claims them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListClosedUnretrieved(ctx context.Context, receiverNumber string, role enums.ActorRole, format enums.DocumentFormat) ([]models.Bundle, error)
	ClaimBundle(ctx context.Context, id uuid.UUID, retrievedAt time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a peek repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListClosedUnretrieved(ctx context.Context, receiverNumber string, role enums.ActorRole, format enums.DocumentFormat) ([]models.Bundle, error) {
	var bundles []models.Bundle
	if err := r.db.WithContext(ctx).
		Preload("Documents", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Where("receiver_number = ?", receiverNumber).
		Where("receiver_role = ?", role).
		Where("format = ?", format).
		Where("closed_at IS NOT NULL").
		Where("retrieved_at IS NULL").
		Order("closed_at ASC").
		Find(&bundles).Error; err != nil {
		return nil, err
	}
	return bundles, nil
}

// ClaimBundle marks one bundle retrieved. The guard on retrieved_at makes the
// claim win at most once across concurrent peeks.
func (r *repository) ClaimBundle(ctx context.Context, id uuid.UUID, retrievedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Bundle{}).
		Where("id = ?", id).
		Where("retrieved_at IS NULL").
		Update("retrieved_at", retrievedAt)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
