package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockcore/backend/internal/domain/shared"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// GormReconciliationRepository implements ReconciliationRepository using GORM
type GormReconciliationRepository struct {
	db *gorm.DB
}

// NewGormReconciliationRepository creates a new GormReconciliationRepository
func NewGormReconciliationRepository(db *gorm.DB) *GormReconciliationRepository {
	return &GormReconciliationRepository{db: db}
}

// FindByID finds a reconciliation with its rows
func (r *GormReconciliationRepository) FindByID(ctx context.Context, id uuid.UUID) (*voucher.StockReconciliation, error) {
	var rec voucher.StockReconciliation
	if err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Save creates or updates a reconciliation with its rows
func (r *GormReconciliationRepository) Save(ctx context.Context, rec *voucher.StockReconciliation) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(rec).Error
}

// Ensure GormReconciliationRepository implements ReconciliationRepository
var _ voucher.ReconciliationRepository = (*GormReconciliationRepository)(nil)
