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

// InvoiceKind distinguishes purchase from sales invoices
type InvoiceKind string

const (
	InvoiceKindPurchase InvoiceKind = "PURCHASE"
	InvoiceKindSales    InvoiceKind = "SALES"
)

// IsValid checks if the kind is valid
func (k InvoiceKind) IsValid() bool {
	return k == InvoiceKindPurchase || k == InvoiceKindSales
}

// InvoiceRow is one billed line. The order and fulfillment links drive the
// billed counters on the upstream order.
type InvoiceRow struct {
	shared.BaseEntity
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Idx         int             `gorm:"not null"`
	ItemID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID *uuid.UUID      `gorm:"type:uuid"` // required when the invoice updates stock
	Qty         decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Rate        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BatchID     *uuid.UUID      `gorm:"type:uuid"`
	SerialNos   string          `gorm:"type:text"`

	OrderID    *uuid.UUID `gorm:"type:uuid;index"`
	OrderRowID *uuid.UUID `gorm:"type:uuid;index"`
	// FulfillmentRowID links to the delivery note or receipt row already
	// covering this line, so billing does not double-move stock.
	FulfillmentRowID *uuid.UUID `gorm:"type:uuid;index"`
	// ReturnAgainstRowID names the original invoice row for return rows.
	ReturnAgainstRowID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (InvoiceRow) TableName() string {
	return "invoice_rows"
}

// Invoice bills an order or a fulfillment document. With UpdateStock set it
// also moves stock itself, standing in for the receipt or delivery.
type Invoice struct {
	shared.BaseAggregateRoot
	voucherHeader
	Kind        InvoiceKind `gorm:"type:varchar(10);not null"`
	PartyID     uuid.UUID   `gorm:"type:uuid;not null;index"`
	UpdateStock bool        `gorm:"not null;default:false"`
	IsReturn    bool        `gorm:"not null;default:false"`
	// ReturnAgainst is the voucher number of the invoice being returned.
	ReturnAgainst string `gorm:"type:varchar(50)"`

	Rows []InvoiceRow `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a draft invoice
func NewInvoice(kind InvoiceKind, voucherNo string, partyID uuid.UUID, postingDate, postingTime time.Time) (*Invoice, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_VOUCHER", "Unknown invoice kind %s", kind)
	}
	if strings.TrimSpace(voucherNo) == "" {
		return nil, shared.NewDomainError("INVALID_VOUCHER", "Voucher number cannot be empty")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VOUCHER", "Invoice requires a party")
	}
	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		voucherHeader: voucherHeader{
			VoucherNo:   voucherNo,
			PostingDate: postingDate,
			PostingTime: postingTime,
			DocStatus:   DocStatusDraft,
		},
		Kind:    kind,
		PartyID: partyID,
		Rows:    make([]InvoiceRow, 0),
	}, nil
}

// MarkReturn flags the invoice as a return against an earlier invoice
func (inv *Invoice) MarkReturn(returnAgainst string) error {
	if inv.DocStatus != DocStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft invoices can become returns")
	}
	if strings.TrimSpace(returnAgainst) == "" {
		return shared.NewDomainError("INVALID_VOUCHER", "Return requires the original invoice number")
	}
	inv.IsReturn = true
	inv.ReturnAgainst = returnAgainst
	return nil
}

// AddRow appends a line to a draft invoice
func (inv *Invoice) AddRow(itemID uuid.UUID, qty, rate decimal.Decimal) (*InvoiceRow, error) {
	if inv.DocStatus != DocStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Rows can only be added to draft invoices")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Invoice row quantity must be positive")
	}
	row := InvoiceRow{
		BaseEntity: shared.NewBaseEntity(),
		InvoiceID:  inv.ID,
		Idx:        len(inv.Rows) + 1,
		ItemID:     itemID,
		Qty:        qty,
		Rate:       rate,
	}
	inv.Rows = append(inv.Rows, row)
	return &inv.Rows[len(inv.Rows)-1], nil
}

// LedgerVoucherType returns the ledger voucher type
func (inv *Invoice) LedgerVoucherType() ledger.VoucherType {
	if inv.Kind == InvoiceKindPurchase {
		return ledger.VoucherTypePurchaseInvoice
	}
	return ledger.VoucherTypeSalesInvoice
}

// LedgerPlan moves stock only when UpdateStock is set. Rows already covered
// by a fulfillment document are skipped so the same goods never move twice.
func (inv *Invoice) LedgerPlan() ([]PlannedEntry, error) {
	if !inv.UpdateStock {
		return nil, nil
	}
	plan := make([]PlannedEntry, 0, len(inv.Rows))
	for i := range inv.Rows {
		row := &inv.Rows[i]
		if row.FulfillmentRowID != nil {
			continue
		}
		if row.WarehouseID == nil {
			return nil, shared.NewDomainErrorf("INVALID_VOUCHER",
				"Row %d: stock-updating invoices need a warehouse on every unfulfilled row", row.Idx)
		}
		entry := PlannedEntry{
			ItemID:      row.ItemID,
			WarehouseID: *row.WarehouseID,
			BatchID:     row.BatchID,
			SerialNos:   splitSerials(row.SerialNos),
			DetailNo:    row.ID.String(),
		}
		inbound := inv.Kind == InvoiceKindPurchase
		if inv.IsReturn {
			inbound = !inbound
		}
		if inbound {
			entry.Qty = row.Qty
			entry.IncomingRate = row.Rate
		} else {
			entry.Qty = row.Qty.Neg()
		}
		// Returns are valued against the original invoice row, not the
		// row's billed rate: a sales return re-enters at the rate the goods
		// left with, a purchase return leaves at the rate they came in at.
		if inv.IsReturn {
			if row.ReturnAgainstRowID == nil {
				return nil, shared.NewDomainErrorf("INVALID_RETURN",
					"Return row %d must reference the original invoice row", row.Idx)
			}
			filter := ledger.QtyFilterNegative
			if inv.Kind == InvoiceKindPurchase {
				filter = ledger.QtyFilterPositive
			}
			entry.IncomingRate = decimal.Zero
			entry.Edges = []EdgeSpec{{
				SourceType:   inv.LedgerVoucherType(),
				SourceNo:     inv.ReturnAgainst,
				SourceDetail: row.ReturnAgainstRowID.String(),
				Kind:         ledger.DependencyKindRate,
				Filter:       filter,
				Percentage:   hundred,
			}}
		}
		plan = append(plan, entry)
	}
	return plan, nil
}

// Submit moves the invoice to the submitted state
func (inv *Invoice) Submit() error {
	if !inv.DocStatus.CanTransitionTo(DocStatusSubmitted) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot submit invoice in %s status", inv.DocStatus))
	}
	if len(inv.Rows) == 0 {
		return shared.NewDomainError("INVALID_VOUCHER", "Cannot submit an invoice without rows")
	}
	inv.DocStatus = DocStatusSubmitted
	inv.IncrementVersion()
	return nil
}

// Cancel cancels a submitted invoice
func (inv *Invoice) Cancel() error {
	if !inv.DocStatus.CanTransitionTo(DocStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel invoice in %s status", inv.DocStatus))
	}
	inv.DocStatus = DocStatusCancelled
	inv.IncrementVersion()
	return nil
}
