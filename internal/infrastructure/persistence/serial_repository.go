package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockcore/backend/internal/domain/catalog"
	"github.com/stockcore/backend/internal/domain/shared"
)

// GormSerialRepository implements SerialRepository using GORM
type GormSerialRepository struct {
	db *gorm.DB
}

// NewGormSerialRepository creates a new GormSerialRepository
func NewGormSerialRepository(db *gorm.DB) *GormSerialRepository {
	return &GormSerialRepository{db: db}
}

// FindBySerial finds a serial number by its identifier
func (r *GormSerialRepository) FindBySerial(ctx context.Context, serial string) (*catalog.SerialNo, error) {
	var sn catalog.SerialNo
	if err := r.db.WithContext(ctx).
		Where("serial_no = ?", serial).
		First(&sn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sn, nil
}

// Save creates or updates a serial number
func (r *GormSerialRepository) Save(ctx context.Context, serial *catalog.SerialNo) error {
	return r.db.WithContext(ctx).Save(serial).Error
}

// InStock returns the on-hand serials of the item in a warehouse. The
// ordering matches the automatic allocation pool: oldest serial first.
func (r *GormSerialRepository) InStock(ctx context.Context, itemID, warehouseID uuid.UUID) ([]*catalog.SerialNo, error) {
	var serials []*catalog.SerialNo
	if err := r.db.WithContext(ctx).
		Where("item_id = ? AND warehouse_id = ? AND status = ?",
			itemID, warehouseID, catalog.SerialStatusInStock).
		Order("serial_no ASC").
		Find(&serials).Error; err != nil {
		return nil, err
	}
	return serials, nil
}

// Ensure GormSerialRepository implements SerialRepository
var _ catalog.SerialRepository = (*GormSerialRepository)(nil)
