package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockcore/backend/internal/domain/catalog"
	"github.com/stockcore/backend/internal/domain/shared"
)

// NamingSequence is one per-series counter behind auto-generated batch
// numbers. The counter advances under the submitting transaction.
type NamingSequence struct {
	Series  string `gorm:"type:varchar(50);primaryKey"`
	Current int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (NamingSequence) TableName() string {
	return "naming_sequences"
}

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Batch, error) {
	var batch catalog.Batch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByBatchID finds a batch by its human-readable batch number
func (r *GormBatchRepository) FindByBatchID(ctx context.Context, batchID string) (*catalog.Batch, error) {
	var batch catalog.Batch
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// Save creates or updates a batch
func (r *GormBatchRepository) Save(ctx context.Context, batch *catalog.Batch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

// ForItem returns all batches of an item
func (r *GormBatchRepository) ForItem(ctx context.Context, itemID uuid.UUID) ([]*catalog.Batch, error) {
	var batches []*catalog.Batch
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("batch_id ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// Next advances the naming series and returns the new counter value.
// The upsert takes a row lock, so concurrent submissions serialize here.
func (r *GormBatchRepository) Next(series string) (int64, error) {
	var current int64
	err := r.db.Raw(`
		INSERT INTO naming_sequences (series, current)
		VALUES (?, 1)
		ON CONFLICT (series)
		DO UPDATE SET current = naming_sequences.current + 1
		RETURNING current
	`, series).Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return current, nil
}

// Ensure GormBatchRepository implements BatchRepository
var _ catalog.BatchRepository = (*GormBatchRepository)(nil)
