package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockcore/backend/internal/domain/catalog"
	"github.com/stockcore/backend/internal/domain/shared"
)

// GormConversionRepository implements ConversionRepository using GORM
type GormConversionRepository struct {
	db *gorm.DB
}

// NewGormConversionRepository creates a new GormConversionRepository
func NewGormConversionRepository(db *gorm.DB) *GormConversionRepository {
	return &GormConversionRepository{db: db}
}

// GlobalEdges returns the conversion edges with no item scope
func (r *GormConversionRepository) GlobalEdges(ctx context.Context) ([]catalog.UOMConversion, error) {
	var edges []catalog.UOMConversion
	if err := r.db.WithContext(ctx).
		Where("item_id IS NULL").
		Find(&edges).Error; err != nil {
		return nil, err
	}
	return edges, nil
}

// ItemEdges returns the per-item conversion overlay
func (r *GormConversionRepository) ItemEdges(ctx context.Context, itemID uuid.UUID) ([]catalog.UOMConversion, error) {
	var edges []catalog.UOMConversion
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Find(&edges).Error; err != nil {
		return nil, err
	}
	return edges, nil
}

// SaveEdge creates or updates a conversion edge
func (r *GormConversionRepository) SaveEdge(ctx context.Context, edge *catalog.UOMConversion) error {
	return r.db.WithContext(ctx).Save(edge).Error
}

// FindUOM finds a UOM record by code
func (r *GormConversionRepository) FindUOM(ctx context.Context, code string) (*catalog.UOM, error) {
	var uom catalog.UOM
	if err := r.db.WithContext(ctx).First(&uom, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &uom, nil
}

// SaveUOM creates or updates a UOM record
func (r *GormConversionRepository) SaveUOM(ctx context.Context, uom *catalog.UOM) error {
	return r.db.WithContext(ctx).Save(uom).Error
}

// Ensure GormConversionRepository implements ConversionRepository
var _ catalog.ConversionRepository = (*GormConversionRepository)(nil)
