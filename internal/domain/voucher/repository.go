package voucher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LastPurchase is the most recent submitted purchase price of an item,
// drawn from either a purchase order row or a purchase receipt row.
type LastPurchase struct {
	Rate      decimal.Decimal
	Date      time.Time
	VoucherNo string
	Source    string
}

const (
	LastPurchaseFromOrder   = "PURCHASE_ORDER"
	LastPurchaseFromReceipt = "PURCHASE_RECEIPT"
)

// OrderRepository is the persistence port for the Order aggregate
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)
	Save(ctx context.Context, order *Order) error
	// OpenRows returns the submitted, not closed and not cancelled order
	// rows of the pair, for re-deriving bin reservation counters.
	OpenRows(ctx context.Context, kind OrderKind, itemID, warehouseID uuid.UUID) ([]*OrderRow, error)
	// LastPurchaseFor returns the newest submitted purchase-order row of
	// the item, or shared.ErrNotFound when none exists.
	LastPurchaseFor(ctx context.Context, itemID uuid.UUID) (*LastPurchase, error)
}

// PurchaseReceiptRepository is the persistence port for purchase receipts
type PurchaseReceiptRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseReceipt, error)
	FindByVoucherNo(ctx context.Context, voucherNo string) (*PurchaseReceipt, error)
	Save(ctx context.Context, receipt *PurchaseReceipt) error
	// SubmittedForOrder returns all submitted receipts with at least one
	// row linked to the order. Fulfillment totals are re-derived from
	// this stream, never incremented.
	SubmittedForOrder(ctx context.Context, orderID uuid.UUID) ([]*PurchaseReceipt, error)
	// LastReceiptFor returns the newest submitted non-return receipt row
	// of the item, or shared.ErrNotFound when none exists.
	LastReceiptFor(ctx context.Context, itemID uuid.UUID) (*LastPurchase, error)
}

// DeliveryNoteRepository is the persistence port for delivery notes
type DeliveryNoteRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*DeliveryNote, error)
	FindByVoucherNo(ctx context.Context, voucherNo string) (*DeliveryNote, error)
	Save(ctx context.Context, note *DeliveryNote) error
	SubmittedForOrder(ctx context.Context, orderID uuid.UUID) ([]*DeliveryNote, error)
}

// InvoiceRepository is the persistence port for purchase and sales invoices
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByVoucherNo(ctx context.Context, kind InvoiceKind, voucherNo string) (*Invoice, error)
	Save(ctx context.Context, invoice *Invoice) error
	SubmittedForOrder(ctx context.Context, orderID uuid.UUID) ([]*Invoice, error)
}

// StockEntryRepository is the persistence port for stock entries
type StockEntryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockEntry, error)
	FindByVoucherNo(ctx context.Context, voucherNo string) (*StockEntry, error)
	Save(ctx context.Context, entry *StockEntry) error
}

// ReconciliationRepository is the persistence port for stock reconciliations
type ReconciliationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockReconciliation, error)
	Save(ctx context.Context, rec *StockReconciliation) error
}

// LandedCostRepository is the persistence port for landed cost vouchers
type LandedCostRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LandedCostVoucher, error)
	Save(ctx context.Context, lcv *LandedCostVoucher) error
}
