package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/shared"
)

// ValuationMethod represents the inventory costing method of an item
type ValuationMethod string

const (
	ValuationMethodFIFO          ValuationMethod = "FIFO"
	ValuationMethodMovingAverage ValuationMethod = "MOVING_AVERAGE"
)

// IsValid checks if the method is a valid ValuationMethod
func (m ValuationMethod) IsValid() bool {
	switch m {
	case ValuationMethodFIFO, ValuationMethodMovingAverage:
		return true
	}
	return false
}

// String returns the string representation of ValuationMethod
func (m ValuationMethod) String() string {
	return string(m)
}

// Item represents a stock-keeping unit in the catalog.
// It is the aggregate root for item reference data; ledger movements never
// mutate it. Once the first ledger entry exists for the item, the valuation
// method, batch/serial policy and UOM fields become immutable.
type Item struct {
	shared.BaseAggregateRoot
	Code            string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name            string          `gorm:"type:varchar(200);not null"`
	StockUOM        string          `gorm:"type:varchar(20);not null"`
	AltUOM          string          `gorm:"type:varchar(20)"`              // optional contents unit
	AltUOMSize      decimal.Decimal `gorm:"type:decimal(18,6);default:0"`  // contents per stock unit
	ValuationMethod ValuationMethod `gorm:"type:varchar(20)"`              // empty = company default
	IsStockItem     bool            `gorm:"not null;default:true"`
	HasBatchNo      bool            `gorm:"not null;default:false"`
	HasSerialNo     bool            `gorm:"not null;default:false"`
	IsFixedAsset    bool            `gorm:"not null;default:false"`
	IsVehicle       bool            `gorm:"not null;default:false"`
	HasVariants     bool            `gorm:"not null;default:false"`
	VariantOf       *uuid.UUID      `gorm:"type:uuid;index"`
	BatchNumberSeries string        `gorm:"type:varchar(50)"` // e.g. "BATCH-.####"
	ShelfLifeDays   int             `gorm:"not null;default:0"`
	Disabled        bool            `gorm:"not null;default:false"`

	// Per-item UOM conversion edges, overlaid on the global table.
	Conversions []UOMConversion `gorm:"foreignKey:ItemID;references:ID"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "items"
}

// NewItem creates a new item
func NewItem(code, name, stockUOM string) (*Item, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_CODE", "Item code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_ITEM_CODE", "Item code cannot exceed 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	if strings.TrimSpace(stockUOM) == "" {
		return nil, shared.NewDomainError("INVALID_UOM", "Stock UOM cannot be empty")
	}

	return &Item{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		StockUOM:          stockUOM,
		IsStockItem:       true,
		AltUOMSize:        decimal.Zero,
		Conversions:       make([]UOMConversion, 0),
	}, nil
}

// NewVariant creates a variant item of a template.
// Variants inherit the stock UOM and batch/serial policy of the template.
func NewVariant(template *Item, code, name string) (*Item, error) {
	if template == nil {
		return nil, shared.NewDomainError("INVALID_TEMPLATE", "Template item cannot be nil")
	}
	if !template.HasVariants {
		return nil, shared.NewDomainError("NOT_A_TEMPLATE", "Item does not have variants")
	}

	variant, err := NewItem(code, name, template.StockUOM)
	if err != nil {
		return nil, err
	}
	templateID := template.ID
	variant.VariantOf = &templateID
	variant.HasBatchNo = template.HasBatchNo
	variant.HasSerialNo = template.HasSerialNo
	variant.ValuationMethod = template.ValuationMethod
	variant.AltUOM = template.AltUOM
	variant.AltUOMSize = template.AltUOMSize
	return variant, nil
}

// SetSerialized marks the item as serialized.
// A serialized item cannot be a variant template.
func (i *Item) SetSerialized(hasSerialNo bool) error {
	if hasSerialNo && i.HasVariants {
		return shared.NewDomainError("INVALID_ITEM", "A template item cannot be serialized")
	}
	i.HasSerialNo = hasSerialNo
	return nil
}

// SetAltUOM declares the alternative (contents) UOM and its size.
// The relationship always contributes a conversion edge stock -> alt.
func (i *Item) SetAltUOM(uom string, size decimal.Decimal) error {
	if uom != "" && size.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_UOM", "Alt UOM size must be positive")
	}
	i.AltUOM = uom
	i.AltUOMSize = size
	return nil
}

// LedgerExistence reports whether any stock ledger entry references an item.
// The catalog consults it to freeze valuation-affecting fields.
type LedgerExistence interface {
	HasLedgerEntries(itemID uuid.UUID) (bool, error)
}

// immutableOnceLedgered lists fields frozen after the first ledger entry.
type immutableField string

const (
	FieldValuationMethod immutableField = "valuation_method"
	FieldHasBatchNo      immutableField = "has_batch_no"
	FieldHasSerialNo     immutableField = "has_serial_no"
	FieldStockUOM        immutableField = "stock_uom"
	FieldAltUOM          immutableField = "alt_uom"
)

// EnsureMutable returns an error when the field may no longer change because
// the item already has ledger entries.
func (i *Item) EnsureMutable(field immutableField, ledger LedgerExistence) error {
	has, err := ledger.HasLedgerEntries(i.ID)
	if err != nil {
		return err
	}
	if has {
		return shared.NewDomainErrorf("ITEM_FIELD_FROZEN",
			"Cannot change %s of item %s after stock transactions exist", field, i.Code)
	}
	return nil
}

// EffectiveValuation resolves the valuation method for ledger computation.
// Batched non-serialized items are always valued with Moving Average within
// the batch; FIFO-per-batch is not supported.
func (i *Item) EffectiveValuation(companyDefault ValuationMethod) (ValuationMethod, bool) {
	method := i.ValuationMethod
	if method == "" {
		method = companyDefault
	}
	if method == "" {
		method = ValuationMethodFIFO
	}

	batchWise := i.HasBatchNo && !i.HasSerialNo
	if batchWise {
		method = ValuationMethodMovingAverage
	}
	return method, batchWise
}

// ValidateStockUse rejects ledger use of items that cannot carry stock.
func (i *Item) ValidateStockUse() error {
	if !i.IsStockItem {
		return shared.NewDomainErrorf("NOT_STOCK_ITEM", "Item %s must be a stock item", i.Code)
	}
	if i.HasVariants {
		return shared.NewDomainErrorf(shared.ErrTemplateHasStock.Code,
			"Stock cannot exist for item %s since it has variants", i.Code)
	}
	if i.Disabled {
		return shared.NewDomainErrorf("ITEM_DISABLED", "Item %s is disabled", i.Code)
	}
	return nil
}

// Disable marks the item as disabled. Referenced items are disabled, never
// deleted.
func (i *Item) Disable() {
	i.Disabled = true
}
