package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockcore/backend/internal/domain/shared"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// GormStockEntryRepository implements StockEntryRepository using GORM
type GormStockEntryRepository struct {
	db *gorm.DB
}

// NewGormStockEntryRepository creates a new GormStockEntryRepository
func NewGormStockEntryRepository(db *gorm.DB) *GormStockEntryRepository {
	return &GormStockEntryRepository{db: db}
}

// FindByID finds a stock entry with its rows
func (r *GormStockEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*voucher.StockEntry, error) {
	var entry voucher.StockEntry
	if err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindByVoucherNo finds a stock entry by its voucher number
func (r *GormStockEntryRepository) FindByVoucherNo(ctx context.Context, voucherNo string) (*voucher.StockEntry, error) {
	var entry voucher.StockEntry
	if err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Where("voucher_no = ?", voucherNo).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// Save creates or updates a stock entry with its rows
func (r *GormStockEntryRepository) Save(ctx context.Context, entry *voucher.StockEntry) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(entry).Error
}

// Ensure GormStockEntryRepository implements StockEntryRepository
var _ voucher.StockEntryRepository = (*GormStockEntryRepository)(nil)
