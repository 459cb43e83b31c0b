package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockcore/backend/internal/domain/ledger"
	"github.com/stockcore/backend/internal/domain/shared"
)

// GormBinRepository implements BinRepository using GORM
type GormBinRepository struct {
	db *gorm.DB
}

// NewGormBinRepository creates a new GormBinRepository
func NewGormBinRepository(db *gorm.DB) *GormBinRepository {
	return &GormBinRepository{db: db}
}

// Get returns the bin of the pair
func (r *GormBinRepository) Get(ctx context.Context, itemID, warehouseID uuid.UUID) (*ledger.Bin, error) {
	var bin ledger.Bin
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND warehouse_id = ?", itemID, warehouseID).
		First(&bin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &bin, nil
}

// lockPair fetches the bin row FOR UPDATE. The bin row serializes
// concurrent postings against the same (item, warehouse) pair for the
// rest of the caller's transaction.
func (r *GormBinRepository) lockPair(ctx context.Context, itemID, warehouseID uuid.UUID) (*ledger.Bin, error) {
	var bin ledger.Bin
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id = ? AND warehouse_id = ?", itemID, warehouseID).
		First(&bin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &bin, nil
}

// GetOrCreate returns the bin locked for update, creating an empty one
// under the caller's transaction when the pair has never moved. The
// insert tolerates a concurrent creation through the unique pair index.
func (r *GormBinRepository) GetOrCreate(ctx context.Context, itemID, warehouseID uuid.UUID) (*ledger.Bin, error) {
	bin, err := r.lockPair(ctx, itemID, warehouseID)
	if err == nil {
		return bin, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	fresh := ledger.NewBin(itemID, warehouseID)
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}, {Name: "warehouse_id"}},
			DoNothing: true,
		}).
		Create(fresh).Error
	if err != nil {
		return nil, err
	}
	return r.lockPair(ctx, itemID, warehouseID)
}

// Save creates or updates a bin
func (r *GormBinRepository) Save(ctx context.Context, bin *ledger.Bin) error {
	return r.db.WithContext(ctx).Save(bin).Error
}

// ForItem returns all bins of an item across warehouses
func (r *GormBinRepository) ForItem(ctx context.Context, itemID uuid.UUID) ([]*ledger.Bin, error) {
	var bins []*ledger.Bin
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Find(&bins).Error; err != nil {
		return nil, err
	}
	return bins, nil
}

// Ensure GormBinRepository implements BinRepository
var _ ledger.BinRepository = (*GormBinRepository)(nil)
