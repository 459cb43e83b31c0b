package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/shared"
)

// Bin is the denormalized per (item, warehouse) balance. It is a projection
// of the ledger plus open-order counters: readers use it for availability,
// the ledger never reads it back for valuation.
type Bin struct {
	shared.BaseEntity
	ItemID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bin_item_warehouse,priority:1"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bin_item_warehouse,priority:2"`

	ActualQty     decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	ReservedQty   decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"` // open sales orders
	OrderedQty    decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"` // open purchase orders
	IndentedQty   decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"` // open material requests
	PlannedQty    decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"` // open work orders
	ProjectedQty  decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	ValuationRate decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockValue    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Bin) TableName() string {
	return "bins"
}

// NewBin creates an empty bin for the pair
func NewBin(itemID, warehouseID uuid.UUID) *Bin {
	return &Bin{
		BaseEntity:  shared.NewBaseEntity(),
		ItemID:      itemID,
		WarehouseID: warehouseID,
	}
}

// ApplyLedgerState overwrites the ledger-derived columns from the latest
// fold state. Counters are untouched; they belong to the order documents.
func (b *Bin) ApplyLedgerState(s *StockState) {
	b.ActualQty = s.Qty
	b.ValuationRate = s.ValuationRate
	b.StockValue = s.StockValue
	b.recomputeProjected()
}

// SetOrderCounters re-derives the open-order counters. Callers always pass
// freshly computed totals, never deltas.
func (b *Bin) SetOrderCounters(reserved, ordered, indented, planned decimal.Decimal) {
	b.ReservedQty = reserved
	b.OrderedQty = ordered
	b.IndentedQty = indented
	b.PlannedQty = planned
	b.recomputeProjected()
}

func (b *Bin) recomputeProjected() {
	b.ProjectedQty = b.ActualQty.
		Add(b.OrderedQty).
		Add(b.IndentedQty).
		Add(b.PlannedQty).
		Sub(b.ReservedQty)
}
