package catalog

import (
	"strings"

	"github.com/google/uuid"

	"github.com/stockcore/backend/internal/domain/shared"
)

// Warehouse represents a storage location. Warehouses form a tree through
// ParentID; only leaf warehouses hold stock, group warehouses are query-only
// rollups.
type Warehouse struct {
	shared.BaseAggregateRoot
	Code     string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name     string     `gorm:"type:varchar(200);not null"`
	ParentID *uuid.UUID `gorm:"type:uuid;index"`
	IsGroup  bool       `gorm:"not null;default:false"`
	Disabled bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}

// NewWarehouse creates a new warehouse
func NewWarehouse(code, name string, isGroup bool) (*Warehouse, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE_CODE", "Warehouse code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE_NAME", "Warehouse name cannot be empty")
	}
	return &Warehouse{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		IsGroup:           isGroup,
	}, nil
}

// ValidateStockUse rejects ledger writes against group warehouses
func (w *Warehouse) ValidateStockUse() error {
	if w.IsGroup {
		return shared.NewDomainErrorf("GROUP_WAREHOUSE", "Group warehouse %s cannot hold stock", w.Code)
	}
	if w.Disabled {
		return shared.NewDomainErrorf("WAREHOUSE_DISABLED", "Warehouse %s is disabled", w.Code)
	}
	return nil
}
