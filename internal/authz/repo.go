package authz

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/voltbridge/markethub/pkg/db/models"
	"github.com/voltbridge/markethub/pkg/enums"
)

// Repository handles delegation and grid-area ownership lookups.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActiveDelegations(ctx context.Context, delegator, delegate string, processType enums.ProcessType, asOf time.Time) ([]models.Delegation, error)
	ListOwnedGridAreas(ctx context.Context, ownerNumber string) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an authorization repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActiveDelegations(ctx context.Context, delegator, delegate string, processType enums.ProcessType, asOf time.Time) ([]models.Delegation, error) {
	var delegations []models.Delegation
	if err := r.db.WithContext(ctx).
		Where("delegator_number = ?", delegator).
		Where("delegate_number = ?", delegate).
		Where("process_type = ?", processType).
		Where("starts_at <= ?", asOf).
		Where("stops_at IS NULL OR stops_at > ?", asOf).
		Order("starts_at ASC").
		Find(&delegations).Error; err != nil {
		return nil, err
	}
	return delegations, nil
}

func (r *repository) ListOwnedGridAreas(ctx context.Context, ownerNumber string) ([]string, error) {
	var areas []string
	if err := r.db.WithContext(ctx).
		Model(&models.GridAreaOwnership{}).
		Where("owner_number = ?", ownerNumber).
		Order("grid_area ASC").
		Pluck("grid_area", &areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}
