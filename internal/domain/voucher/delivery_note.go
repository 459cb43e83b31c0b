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

// DeliveryNoteRow is one shipped line. SalesOrderRowID links the row to the
// order it fulfills.
type DeliveryNoteRow struct {
	shared.BaseEntity
	DeliveryID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Idx         int             `gorm:"not null"`
	ItemID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null"`
	Qty         decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Rate        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	BatchID     *uuid.UUID      `gorm:"type:uuid"`
	SerialNos   string          `gorm:"type:text"`

	SalesOrderID    *uuid.UUID `gorm:"type:uuid;index"`
	SalesOrderRowID *uuid.UUID `gorm:"type:uuid;index"`
	// ReturnAgainstRowID names the original delivery row for return rows.
	ReturnAgainstRowID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (DeliveryNoteRow) TableName() string {
	return "delivery_note_rows"
}

// DeliveryNote records goods shipped to a customer. A sales return
// (IsReturn) brings stock back valued at the rate it originally left with,
// via a dependency edge on the outgoing entry.
type DeliveryNote struct {
	shared.BaseAggregateRoot
	voucherHeader
	CustomerID    uuid.UUID `gorm:"type:uuid;not null;index"`
	IsReturn      bool      `gorm:"not null;default:false"`
	ReturnAgainst string    `gorm:"type:varchar(50)"`

	Rows []DeliveryNoteRow `gorm:"foreignKey:DeliveryID;references:ID"`
}

// TableName returns the table name for GORM
func (DeliveryNote) TableName() string {
	return "delivery_notes"
}

// NewDeliveryNote creates a draft delivery note
func NewDeliveryNote(voucherNo string, customerID uuid.UUID, postingDate, postingTime time.Time) (*DeliveryNote, error) {
	if strings.TrimSpace(voucherNo) == "" {
		return nil, shared.NewDomainError("INVALID_VOUCHER", "Voucher number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VOUCHER", "Delivery note requires a customer")
	}
	return &DeliveryNote{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		voucherHeader: voucherHeader{
			VoucherNo:   voucherNo,
			PostingDate: postingDate,
			PostingTime: postingTime,
			DocStatus:   DocStatusDraft,
		},
		CustomerID: customerID,
		Rows:       make([]DeliveryNoteRow, 0),
	}, nil
}

// MarkReturn flags the note as a return against an earlier delivery
func (n *DeliveryNote) MarkReturn(returnAgainst string) error {
	if n.DocStatus != DocStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft delivery notes can become returns")
	}
	if strings.TrimSpace(returnAgainst) == "" {
		return shared.NewDomainError("INVALID_VOUCHER", "Return requires the original delivery number")
	}
	n.IsReturn = true
	n.ReturnAgainst = returnAgainst
	return nil
}

// AddRow appends a line to a draft delivery note
func (n *DeliveryNote) AddRow(itemID, warehouseID uuid.UUID, qty, rate decimal.Decimal) (*DeliveryNoteRow, error) {
	if n.DocStatus != DocStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Rows can only be added to draft delivery notes")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Delivery row quantity must be positive")
	}
	row := DeliveryNoteRow{
		BaseEntity:  shared.NewBaseEntity(),
		DeliveryID:  n.ID,
		Idx:         len(n.Rows) + 1,
		ItemID:      itemID,
		WarehouseID: warehouseID,
		Qty:         qty,
		Rate:        rate,
	}
	n.Rows = append(n.Rows, row)
	return &n.Rows[len(n.Rows)-1], nil
}

// ReplaceRowAllocation splits one row into allocated slices after batch
// picking: the original row is replaced in place and the remaining picks
// are inserted after it, then every row is renumbered.
func (n *DeliveryNote) ReplaceRowAllocation(rowID uuid.UUID, picks []AllocatedSlice) error {
	if n.DocStatus != DocStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Allocation applies to draft delivery notes only")
	}
	if len(picks) == 0 {
		return shared.NewDomainError("INVALID_ALLOCATION", "Allocation requires at least one slice")
	}

	idx := -1
	for i := range n.Rows {
		if n.Rows[i].ID == rowID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return shared.NewDomainErrorf(shared.ErrNotFound.Code, "Delivery row %s not found", rowID)
	}

	template := n.Rows[idx]
	replacement := make([]DeliveryNoteRow, 0, len(picks))
	for i, p := range picks {
		row := template
		if i > 0 {
			row.BaseEntity = shared.NewBaseEntity()
		}
		row.Qty = p.Qty
		row.BatchID = p.BatchID
		replacement = append(replacement, row)
	}

	n.Rows = append(n.Rows[:idx], append(replacement, n.Rows[idx+1:]...)...)
	for i := range n.Rows {
		n.Rows[i].Idx = i + 1
	}
	return nil
}

// AllocatedSlice is one batch pick applied back onto document rows
type AllocatedSlice struct {
	BatchID *uuid.UUID
	Qty     decimal.Decimal
}

// NewAllocatedSlice builds a slice for ReplaceRowAllocation
func NewAllocatedSlice(batchID *uuid.UUID, qty decimal.Decimal) AllocatedSlice {
	return AllocatedSlice{BatchID: batchID, Qty: qty}
}

// LedgerVoucherType returns the ledger voucher type
func (n *DeliveryNote) LedgerVoucherType() ledger.VoucherType {
	return ledger.VoucherTypeDeliveryNote
}

// LedgerPlan builds the ledger movements: issues for deliveries, receipts
// valued at the original outgoing rate for returns.
func (n *DeliveryNote) LedgerPlan() ([]PlannedEntry, error) {
	plan := make([]PlannedEntry, 0, len(n.Rows))
	for i := range n.Rows {
		row := &n.Rows[i]
		entry := PlannedEntry{
			ItemID:      row.ItemID,
			WarehouseID: row.WarehouseID,
			BatchID:     row.BatchID,
			SerialNos:   splitSerials(row.SerialNos),
			DetailNo:    row.ID.String(),
		}
		if n.IsReturn {
			if row.ReturnAgainstRowID == nil {
				return nil, shared.NewDomainErrorf("INVALID_RETURN",
					"Return row %d must reference the original delivery row", row.Idx)
			}
			entry.Qty = row.Qty
			entry.Edges = []EdgeSpec{{
				SourceType:   ledger.VoucherTypeDeliveryNote,
				SourceNo:     n.ReturnAgainst,
				SourceDetail: row.ReturnAgainstRowID.String(),
				Kind:         ledger.DependencyKindRate,
				Filter:       ledger.QtyFilterNegative,
				Percentage:   hundred,
			}}
		} else {
			entry.Qty = row.Qty.Neg()
		}
		plan = append(plan, entry)
	}
	return plan, nil
}

// Submit moves the delivery note to the submitted state
func (n *DeliveryNote) Submit() error {
	if !n.DocStatus.CanTransitionTo(DocStatusSubmitted) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot submit delivery note in %s status", n.DocStatus))
	}
	if len(n.Rows) == 0 {
		return shared.NewDomainError("INVALID_VOUCHER", "Cannot submit a delivery note without rows")
	}
	n.DocStatus = DocStatusSubmitted
	n.IncrementVersion()
	return nil
}

// Cancel cancels a submitted delivery note
func (n *DeliveryNote) Cancel() error {
	if !n.DocStatus.CanTransitionTo(DocStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel delivery note in %s status", n.DocStatus))
	}
	n.DocStatus = DocStatusCancelled
	n.IncrementVersion()
	return nil
}
