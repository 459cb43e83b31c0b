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

// StockEntryPurpose is the movement shape of a stock entry
type StockEntryPurpose string

const (
	// StockEntryReceipt brings stock in from outside the system
	StockEntryReceipt StockEntryPurpose = "MATERIAL_RECEIPT"
	// StockEntryIssue writes stock off
	StockEntryIssue StockEntryPurpose = "MATERIAL_ISSUE"
	// StockEntryTransfer moves stock between warehouses at carried value
	StockEntryTransfer StockEntryPurpose = "MATERIAL_TRANSFER"
)

// IsValid checks if the purpose is valid
func (p StockEntryPurpose) IsValid() bool {
	switch p {
	case StockEntryReceipt, StockEntryIssue, StockEntryTransfer:
		return true
	}
	return false
}

// String returns the string representation
func (p StockEntryPurpose) String() string {
	return string(p)
}

// StockEntryRow is one moved line. Transfers use both warehouses; receipts
// only the target, issues only the source.
type StockEntryRow struct {
	shared.BaseEntity
	EntryID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Idx               int             `gorm:"not null"`
	ItemID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	SourceWarehouseID *uuid.UUID      `gorm:"type:uuid"`
	TargetWarehouseID *uuid.UUID      `gorm:"type:uuid"`
	Qty               decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	// BasicRate values receipts; issues and transfers take the ledger's
	// carried rate.
	BasicRate decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	BatchID   *uuid.UUID      `gorm:"type:uuid"`
	SerialNos string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (StockEntryRow) TableName() string {
	return "stock_entry_rows"
}

// StockEntry is the free-form stock movement document: receipts into the
// system, write-offs, and transfers between warehouses. A transfer writes
// an issue and a receipt per row, with the receipt's rate chained to the
// issue through a dependency edge so value moves unchanged.
type StockEntry struct {
	shared.BaseAggregateRoot
	voucherHeader
	Purpose StockEntryPurpose `gorm:"type:varchar(30);not null"`

	Rows []StockEntryRow `gorm:"foreignKey:EntryID;references:ID"`
}

// TableName returns the table name for GORM
func (StockEntry) TableName() string {
	return "stock_entries"
}

// NewStockEntry creates a draft stock entry
func NewStockEntry(voucherNo string, purpose StockEntryPurpose, postingDate, postingTime time.Time) (*StockEntry, error) {
	if strings.TrimSpace(voucherNo) == "" {
		return nil, shared.NewDomainError("INVALID_VOUCHER", "Voucher number cannot be empty")
	}
	if !purpose.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_VOUCHER", "Unknown stock entry purpose %s", purpose)
	}
	return &StockEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		voucherHeader: voucherHeader{
			VoucherNo:   voucherNo,
			PostingDate: postingDate,
			PostingTime: postingTime,
			DocStatus:   DocStatusDraft,
		},
		Purpose: purpose,
		Rows:    make([]StockEntryRow, 0),
	}, nil
}

// AddRow appends a line, validating the warehouse shape against the purpose
func (e *StockEntry) AddRow(itemID uuid.UUID, source, target *uuid.UUID, qty, basicRate decimal.Decimal) (*StockEntryRow, error) {
	if e.DocStatus != DocStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Rows can only be added to draft stock entries")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Stock entry row quantity must be positive")
	}
	switch e.Purpose {
	case StockEntryReceipt:
		if target == nil || source != nil {
			return nil, shared.NewDomainError("INVALID_VOUCHER", "Material receipt rows need only a target warehouse")
		}
	case StockEntryIssue:
		if source == nil || target != nil {
			return nil, shared.NewDomainError("INVALID_VOUCHER", "Material issue rows need only a source warehouse")
		}
	case StockEntryTransfer:
		if source == nil || target == nil {
			return nil, shared.NewDomainError("INVALID_VOUCHER", "Transfer rows need both warehouses")
		}
		if *source == *target {
			return nil, shared.NewDomainError("INVALID_VOUCHER", "Transfer source and target must differ")
		}
	}
	row := StockEntryRow{
		BaseEntity:        shared.NewBaseEntity(),
		EntryID:           e.ID,
		Idx:               len(e.Rows) + 1,
		ItemID:            itemID,
		SourceWarehouseID: source,
		TargetWarehouseID: target,
		Qty:               qty,
		BasicRate:         basicRate,
	}
	e.Rows = append(e.Rows, row)
	return &e.Rows[len(e.Rows)-1], nil
}

// LedgerVoucherType returns the ledger voucher type
func (e *StockEntry) LedgerVoucherType() ledger.VoucherType {
	return ledger.VoucherTypeStockEntry
}

// LedgerPlan builds the ledger movements. Transfer rows produce the issue
// leg first so the receipt leg's dependency resolves within the same
// voucher.
func (e *StockEntry) LedgerPlan() ([]PlannedEntry, error) {
	plan := make([]PlannedEntry, 0, len(e.Rows)*2)
	for i := range e.Rows {
		row := &e.Rows[i]
		serials := splitSerials(row.SerialNos)

		switch e.Purpose {
		case StockEntryReceipt:
			plan = append(plan, PlannedEntry{
				ItemID:       row.ItemID,
				WarehouseID:  *row.TargetWarehouseID,
				BatchID:      row.BatchID,
				SerialNos:    serials,
				DetailNo:     row.ID.String(),
				Qty:          row.Qty,
				IncomingRate: row.BasicRate,
			})
		case StockEntryIssue:
			plan = append(plan, PlannedEntry{
				ItemID:      row.ItemID,
				WarehouseID: *row.SourceWarehouseID,
				BatchID:     row.BatchID,
				SerialNos:   serials,
				DetailNo:    row.ID.String(),
				Qty:         row.Qty.Neg(),
			})
		case StockEntryTransfer:
			plan = append(plan,
				PlannedEntry{
					ItemID:      row.ItemID,
					WarehouseID: *row.SourceWarehouseID,
					BatchID:     row.BatchID,
					SerialNos:   serials,
					DetailNo:    row.ID.String(),
					Qty:         row.Qty.Neg(),
				},
				PlannedEntry{
					ItemID:      row.ItemID,
					WarehouseID: *row.TargetWarehouseID,
					BatchID:     row.BatchID,
					SerialNos:   serials,
					DetailNo:    row.ID.String(),
					Qty:         row.Qty,
					Edges: []EdgeSpec{{
						SourceType:   ledger.VoucherTypeStockEntry,
						SourceNo:     e.VoucherNo,
						SourceDetail: row.ID.String(),
						Kind:         ledger.DependencyKindRate,
						Filter:       ledger.QtyFilterNegative,
						Percentage:   hundred,
					}},
				})
		}
	}
	return plan, nil
}

// Submit moves the stock entry to the submitted state
func (e *StockEntry) Submit() error {
	if !e.DocStatus.CanTransitionTo(DocStatusSubmitted) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot submit stock entry in %s status", e.DocStatus))
	}
	if len(e.Rows) == 0 {
		return shared.NewDomainError("INVALID_VOUCHER", "Cannot submit a stock entry without rows")
	}
	e.DocStatus = DocStatusSubmitted
	e.IncrementVersion()
	return nil
}

// Cancel cancels a submitted stock entry
func (e *StockEntry) Cancel() error {
	if !e.DocStatus.CanTransitionTo(DocStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel stock entry in %s status", e.DocStatus))
	}
	e.DocStatus = DocStatusCancelled
	e.IncrementVersion()
	return nil
}
