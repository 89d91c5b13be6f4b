package bundling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltbridge/markethub/pkg/db/models"
	"github.com/voltbridge/markethub/pkg/enums"
)

// Key identifies one bundle stream. Documents for the same key accumulate in
// the same open bundle until the sweep closes it.
type Key struct {
	ReceiverNumber string
	ReceiverRole   enums.ActorRole
	DocumentType   enums.DocumentType
	Format         enums.DocumentFormat
}

// Repository handles bundle persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertDocument(ctx context.Context, key Key, doc *models.BundleDocument, now time.Time) (uuid.UUID, error)
	CloseExpired(ctx context.Context, openedBy time.Time, closedAt time.Time) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bundle, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a bundle repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// InsertDocument appends one rendered document to the key's open bundle,
// starting a fresh bundle when none is open. The whole step runs in one
// transaction so the sweep can never observe a bundle with a document count
// ahead of its rows. The caller's clock stamps the first insert so the
// bundling window stays replayable in tests.
func (r *repository) InsertDocument(ctx context.Context, key Key, doc *models.BundleDocument, now time.Time) (uuid.UUID, error) {
	var bundleID uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, position, err := claimSlot(tx, key, now)
		if err != nil {
			return err
		}

		doc.BundleID = id
		doc.Position = position
		doc.CreatedAt = now
		if doc.ID == uuid.Nil {
			doc.ID = uuid.New()
		}
		if err := tx.Create(doc).Error; err != nil {
			return err
		}

		bundleID = id
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return bundleID, nil
}

// claimSlot reserves the next document position in the key's open bundle.
// The sweep runs in another binary, so the database is the only arbiter
// between insert and close: the count increment re-checks closed_at and
// matches zero rows when a sweep committed after the lookup, in which case
// the loop re-reads and opens a fresh bundle the finished sweep cannot
// touch. The position comes from a re-read after the increment, so
// concurrent inserts into the same bundle never share one.
func claimSlot(tx *gorm.DB, key Key, now time.Time) (uuid.UUID, int, error) {
	for {
		var bundle models.Bundle
		err := tx.
			Where("receiver_number = ?", key.ReceiverNumber).
			Where("receiver_role = ?", key.ReceiverRole).
			Where("document_type = ?", key.DocumentType).
			Where("format = ?", key.Format).
			Where("closed_at IS NULL").
			Order("created_at ASC").
			First(&bundle).Error
		if err == gorm.ErrRecordNotFound {
			bundle = models.Bundle{
				ID:             uuid.New(),
				ReceiverNumber: key.ReceiverNumber,
				ReceiverRole:   key.ReceiverRole,
				DocumentType:   key.DocumentType,
				Format:         key.Format,
				DocumentCount:  1,
				CreatedAt:      now,
			}
			if err := tx.Create(&bundle).Error; err != nil {
				return uuid.Nil, 0, err
			}
			return bundle.ID, 1, nil
		}
		if err != nil {
			return uuid.Nil, 0, err
		}

		claimed := tx.Model(&models.Bundle{}).
			Where("id = ?", bundle.ID).
			Where("closed_at IS NULL").
			Update("document_count", gorm.Expr("document_count + 1"))
		if claimed.Error != nil {
			return uuid.Nil, 0, claimed.Error
		}
		if claimed.RowsAffected == 0 {
			// the sweep closed this bundle after the lookup
			continue
		}

		var count int
		if err := tx.Model(&models.Bundle{}).
			Select("document_count").
			Where("id = ?", bundle.ID).
			Scan(&count).Error; err != nil {
			return uuid.Nil, 0, err
		}
		return bundle.ID, count, nil
	}
}

// CloseExpired closes every open bundle first inserted into at or before the
// cutoff. The guarded update makes the sweep idempotent and safe to run from
// several workers at once.
func (r *repository) CloseExpired(ctx context.Context, openedBy time.Time, closedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Bundle{}).
		Where("closed_at IS NULL").
		Where("created_at <= ?", openedBy).
		Update("closed_at", closedAt)
	return result.RowsAffected, result.Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	var bundle models.Bundle
	if err := r.db.WithContext(ctx).
		Preload("Documents", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&bundle).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &bundle, nil
}
