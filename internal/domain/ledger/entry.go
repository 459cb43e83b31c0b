package ledger

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/shared"
)

// valuationPrecision is the decimal precision of ledger money and rate
// columns. Quantities keep their full precision.
const valuationPrecision = 4

// VoucherType identifies the kind of document a ledger entry belongs to.
type VoucherType string

const (
	VoucherTypePurchaseReceipt     VoucherType = "PURCHASE_RECEIPT"
	VoucherTypePurchaseInvoice     VoucherType = "PURCHASE_INVOICE"
	VoucherTypeDeliveryNote        VoucherType = "DELIVERY_NOTE"
	VoucherTypeSalesInvoice        VoucherType = "SALES_INVOICE"
	VoucherTypeStockEntry          VoucherType = "STOCK_ENTRY"
	VoucherTypeStockReconciliation VoucherType = "STOCK_RECONCILIATION"
	VoucherTypeLandedCostVoucher   VoucherType = "LANDED_COST_VOUCHER"
)

// IsValid checks if the voucher type is known
func (v VoucherType) IsValid() bool {
	switch v {
	case VoucherTypePurchaseReceipt, VoucherTypePurchaseInvoice,
		VoucherTypeDeliveryNote, VoucherTypeSalesInvoice,
		VoucherTypeStockEntry, VoucherTypeStockReconciliation,
		VoucherTypeLandedCostVoucher:
		return true
	}
	return false
}

// String returns the string representation of VoucherType
func (v VoucherType) String() string {
	return string(v)
}

// PostingKey is the total order of the stock ledger: posting date, posting
// time, then the monotonically increasing creation sequence as tie breaker.
type PostingKey struct {
	PostingDate time.Time
	PostingTime time.Time
	CreationSeq int64
}

// Before reports whether k sorts strictly before other in ledger order
func (k PostingKey) Before(other PostingKey) bool {
	if !k.PostingDate.Equal(other.PostingDate) {
		return k.PostingDate.Before(other.PostingDate)
	}
	if !k.PostingTime.Equal(other.PostingTime) {
		return k.PostingTime.Before(other.PostingTime)
	}
	return k.CreationSeq < other.CreationSeq
}

// StockLedgerEntry is one immutable movement of stock for an (item,
// warehouse) pair. Entries are append-only: corrections happen through
// cancellation flags and reposting, never through edits to quantity or
// posting fields. The valuation columns are projections recomputed by the
// reposting fold.
type StockLedgerEntry struct {
	shared.BaseEntity
	ItemID      uuid.UUID `gorm:"type:uuid;not null;index:idx_sle_item_warehouse,priority:1"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;index:idx_sle_item_warehouse,priority:2"`
	BatchID     *uuid.UUID `gorm:"type:uuid;index:idx_sle_batch,priority:1"`
	SerialNos   string    `gorm:"type:text"` // newline separated

	VoucherType     VoucherType `gorm:"type:varchar(30);not null;index:idx_sle_voucher,priority:2"`
	VoucherNo       string      `gorm:"type:varchar(50);not null;index:idx_sle_voucher,priority:1"`
	VoucherDetailNo string      `gorm:"type:varchar(50);not null"`

	PostingDate time.Time `gorm:"type:date;not null;index:idx_sle_posting,priority:1"`
	PostingTime time.Time `gorm:"not null;index:idx_sle_posting,priority:2"`
	CreationSeq int64     `gorm:"autoIncrement;uniqueIndex;index:idx_sle_posting,priority:3"`

	// ActualQty is the signed movement in stock UOM. Zero only for
	// revaluation entries (landed cost, reconciliation rate fix).
	ActualQty    decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	IncomingRate decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OutgoingRate decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	// WrittenRate is the incoming rate the voucher originally wrote. Rate
	// derivation always starts from it, so refolding an entry any number
	// of times yields the same incoming rate.
	WrittenRate decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	// Projected columns, owned by the valuation fold.
	QtyAfterTransaction  decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	ValuationRate        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockValue           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockValueDifference decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockQueue           string          `gorm:"type:text"` // FIFO layers as JSON

	// Batch-scoped projections, populated only for batch-wise items.
	BatchQtyAfterTransaction decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	BatchValuationRate       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	IsCancelled bool   `gorm:"not null;default:false"`
	Remarks     string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (StockLedgerEntry) TableName() string {
	return "stock_ledger_entries"
}

// Key returns the entry's position in ledger order
func (e *StockLedgerEntry) Key() PostingKey {
	return PostingKey{
		PostingDate: e.PostingDate,
		PostingTime: e.PostingTime,
		CreationSeq: e.CreationSeq,
	}
}

// LookupKey returns the key to read predecessors with. An entry that has
// not been inserted yet carries sequence zero, but once the database
// assigns its sequence it will sort after every persisted entry at its
// posting instant, so the lookup substitutes the maximum sequence. That
// keeps same-instant siblings written earlier in the same voucher visible
// as predecessors.
func (e *StockLedgerEntry) LookupKey() PostingKey {
	k := e.Key()
	if k.CreationSeq == 0 {
		k.CreationSeq = math.MaxInt64
	}
	return k
}

// IsInbound reports whether the entry adds stock
func (e *StockLedgerEntry) IsInbound() bool {
	return e.ActualQty.GreaterThan(decimal.Zero)
}

// IsOutbound reports whether the entry removes stock
func (e *StockLedgerEntry) IsOutbound() bool {
	return e.ActualQty.LessThan(decimal.Zero)
}

// Validate performs the field-level checks done before an entry is written.
func (e *StockLedgerEntry) Validate() error {
	if e.ItemID == uuid.Nil {
		return shared.NewDomainError("INVALID_ENTRY", "Ledger entry requires an item")
	}
	if e.WarehouseID == uuid.Nil {
		return shared.NewDomainError("INVALID_ENTRY", "Ledger entry requires a warehouse")
	}
	if !e.VoucherType.IsValid() {
		return shared.NewDomainErrorf("INVALID_ENTRY", "Unknown voucher type %s", e.VoucherType)
	}
	if strings.TrimSpace(e.VoucherNo) == "" {
		return shared.NewDomainError("INVALID_ENTRY", "Ledger entry requires a voucher number")
	}
	if e.PostingDate.IsZero() {
		return shared.NewDomainError("INVALID_ENTRY", "Ledger entry requires a posting date")
	}
	if e.IncomingRate.LessThan(decimal.Zero) {
		return shared.NewDomainError("INVALID_ENTRY", "Incoming rate cannot be negative")
	}
	return nil
}

// roundValue rounds to the ledger valuation precision
func roundValue(d decimal.Decimal) decimal.Decimal {
	return d.Round(valuationPrecision)
}
