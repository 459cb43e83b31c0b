package voucher

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/ledger"
	"github.com/stockcore/backend/internal/domain/shared"
)

// PurchaseReceiptRow is one received line. PurchaseOrderRowID links the row
// back to the order it fulfills; billing and receipt counters on the order
// are re-derived from these links.
type PurchaseReceiptRow struct {
	shared.BaseEntity
	ReceiptID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Idx         int             `gorm:"not null"`
	ItemID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null"`
	Qty         decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Rate        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BatchID     *uuid.UUID      `gorm:"type:uuid"`
	SerialNos   string          `gorm:"type:text"`

	PurchaseOrderID    *uuid.UUID `gorm:"type:uuid;index"`
	PurchaseOrderRowID *uuid.UUID `gorm:"type:uuid;index"`
	// ReturnAgainstRowID names the original receipt row for return rows.
	ReturnAgainstRowID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (PurchaseReceiptRow) TableName() string {
	return "purchase_receipt_rows"
}

// PurchaseReceipt records goods arriving from a supplier. A return receipt
// (IsReturn) sends goods back and is valued at the original incoming rate
// through a dependency edge, never at the current market rate.
type PurchaseReceipt struct {
	shared.BaseAggregateRoot
	voucherHeader
	SupplierID    uuid.UUID `gorm:"type:uuid;not null;index"`
	IsReturn      bool      `gorm:"not null;default:false"`
	ReturnAgainst string    `gorm:"type:varchar(50)"`

	Rows []PurchaseReceiptRow `gorm:"foreignKey:ReceiptID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseReceipt) TableName() string {
	return "purchase_receipts"
}

// NewPurchaseReceipt creates a draft purchase receipt
func NewPurchaseReceipt(voucherNo string, supplierID uuid.UUID, postingDate, postingTime time.Time) (*PurchaseReceipt, error) {
	if strings.TrimSpace(voucherNo) == "" {
		return nil, shared.NewDomainError("INVALID_VOUCHER", "Voucher number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VOUCHER", "Purchase receipt requires a supplier")
	}
	return &PurchaseReceipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		voucherHeader: voucherHeader{
			VoucherNo:   voucherNo,
			PostingDate: postingDate,
			PostingTime: postingTime,
			DocStatus:   DocStatusDraft,
		},
		SupplierID: supplierID,
		Rows:       make([]PurchaseReceiptRow, 0),
	}, nil
}

// MarkReturn flags the receipt as a return against an earlier receipt
func (r *PurchaseReceipt) MarkReturn(returnAgainst string) error {
	if r.DocStatus != DocStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft receipts can become returns")
	}
	if strings.TrimSpace(returnAgainst) == "" {
		return shared.NewDomainError("INVALID_VOUCHER", "Return requires the original receipt number")
	}
	r.IsReturn = true
	r.ReturnAgainst = returnAgainst
	return nil
}

// AddRow appends a line to a draft receipt
func (r *PurchaseReceipt) AddRow(itemID, warehouseID uuid.UUID, qty, rate decimal.Decimal) (*PurchaseReceiptRow, error) {
	if r.DocStatus != DocStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Rows can only be added to draft receipts")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Receipt row quantity must be positive")
	}
	if rate.LessThan(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_RATE", "Receipt row rate cannot be negative")
	}
	row := PurchaseReceiptRow{
		BaseEntity:  shared.NewBaseEntity(),
		ReceiptID:   r.ID,
		Idx:         len(r.Rows) + 1,
		ItemID:      itemID,
		WarehouseID: warehouseID,
		Qty:         qty,
		Rate:        rate,
	}
	r.Rows = append(r.Rows, row)
	return &r.Rows[len(r.Rows)-1], nil
}

// LedgerVoucherType returns the ledger voucher type
func (r *PurchaseReceipt) LedgerVoucherType() ledger.VoucherType {
	return ledger.VoucherTypePurchaseReceipt
}

// LedgerPlan builds the ledger movements of the receipt. Normal receipts
// add stock at the row rate. Returns remove stock with a rate edge back to
// the original receipt row so the outgoing value matches the incoming one.
func (r *PurchaseReceipt) LedgerPlan() ([]PlannedEntry, error) {
	plan := make([]PlannedEntry, 0, len(r.Rows))
	for i := range r.Rows {
		row := &r.Rows[i]
		entry := PlannedEntry{
			ItemID:      row.ItemID,
			WarehouseID: row.WarehouseID,
			BatchID:     row.BatchID,
			SerialNos:   splitSerials(row.SerialNos),
			DetailNo:    row.ID.String(),
		}
		if r.IsReturn {
			if row.ReturnAgainstRowID == nil {
				return nil, shared.NewDomainErrorf("INVALID_RETURN",
					"Return row %d must reference the original receipt row", row.Idx)
			}
			entry.Qty = row.Qty.Neg()
			entry.Edges = []EdgeSpec{{
				SourceType:   ledger.VoucherTypePurchaseReceipt,
				SourceNo:     r.ReturnAgainst,
				SourceDetail: row.ReturnAgainstRowID.String(),
				Kind:         ledger.DependencyKindRate,
				Filter:       ledger.QtyFilterPositive,
				Percentage:   hundred,
			}}
		} else {
			entry.Qty = row.Qty
			entry.IncomingRate = row.Rate
		}
		plan = append(plan, entry)
	}
	return plan, nil
}

// Submit moves the receipt to the submitted state
func (r *PurchaseReceipt) Submit() error {
	if !r.DocStatus.CanTransitionTo(DocStatusSubmitted) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot submit receipt in %s status", r.DocStatus))
	}
	if len(r.Rows) == 0 {
		return shared.NewDomainError("INVALID_VOUCHER", "Cannot submit a receipt without rows")
	}
	r.DocStatus = DocStatusSubmitted
	r.IncrementVersion()
	return nil
}

// Cancel cancels a submitted receipt
func (r *PurchaseReceipt) Cancel() error {
	if !r.DocStatus.CanTransitionTo(DocStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel receipt in %s status", r.DocStatus))
	}
	r.DocStatus = DocStatusCancelled
	r.IncrementVersion()
	return nil
}

// splitSerials parses the stored newline separated serial list
func splitSerials(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if s := strings.TrimSpace(f); s != "" {
			out = append(out, s)
		}
	}
	return out
}
