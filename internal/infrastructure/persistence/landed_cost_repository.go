package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockcore/backend/internal/domain/shared"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// GormLandedCostRepository implements LandedCostRepository using GORM
type GormLandedCostRepository struct {
	db *gorm.DB
}

// NewGormLandedCostRepository creates a new GormLandedCostRepository
func NewGormLandedCostRepository(db *gorm.DB) *GormLandedCostRepository {
	return &GormLandedCostRepository{db: db}
}

// FindByID finds a landed cost voucher with its charges and items
func (r *GormLandedCostRepository) FindByID(ctx context.Context, id uuid.UUID) (*voucher.LandedCostVoucher, error) {
	var lcv voucher.LandedCostVoucher
	if err := r.db.WithContext(ctx).
		Preload("Charges").
		Preload("Items").
		First(&lcv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &lcv, nil
}

// Save creates or updates a landed cost voucher with its children
func (r *GormLandedCostRepository) Save(ctx context.Context, lcv *voucher.LandedCostVoucher) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(lcv).Error
}

// Ensure GormLandedCostRepository implements LandedCostRepository
var _ voucher.LandedCostRepository = (*GormLandedCostRepository)(nil)
