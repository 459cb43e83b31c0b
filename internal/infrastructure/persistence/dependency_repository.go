package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockcore/backend/internal/domain/ledger"
)

// GormDependencyRepository implements DependencyRepository using GORM
type GormDependencyRepository struct {
	db *gorm.DB
}

// NewGormDependencyRepository creates a new GormDependencyRepository
func NewGormDependencyRepository(db *gorm.DB) *GormDependencyRepository {
	return &GormDependencyRepository{db: db}
}

// Insert persists a dependency edge
func (r *GormDependencyRepository) Insert(ctx context.Context, edge *ledger.DependencyEdge) error {
	return r.db.WithContext(ctx).Create(edge).Error
}

// ForDependent returns the edges of a dependent ledger entry
func (r *GormDependencyRepository) ForDependent(ctx context.Context, dependentEntryID uuid.UUID) ([]*ledger.DependencyEdge, error) {
	var edges []*ledger.DependencyEdge
	if err := r.db.WithContext(ctx).
		Where("dependent_entry_id = ?", dependentEntryID).
		Find(&edges).Error; err != nil {
		return nil, err
	}
	return edges, nil
}

// Dependents returns edges pointing at a source voucher
func (r *GormDependencyRepository) Dependents(ctx context.Context, voucherType ledger.VoucherType, voucherNo string) ([]*ledger.DependencyEdge, error) {
	var edges []*ledger.DependencyEdge
	if err := r.db.WithContext(ctx).
		Where("source_voucher_type = ? AND source_voucher_no = ?", voucherType, voucherNo).
		Find(&edges).Error; err != nil {
		return nil, err
	}
	return edges, nil
}

// DeleteForDependent removes the edges of a dependent entry
func (r *GormDependencyRepository) DeleteForDependent(ctx context.Context, dependentEntryID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&ledger.DependencyEdge{}, "dependent_entry_id = ?", dependentEntryID).Error
}

// Ensure GormDependencyRepository implements DependencyRepository
var _ ledger.DependencyRepository = (*GormDependencyRepository)(nil)
