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

// ReconciliationRow fixes the counted quantity and, optionally, the
// valuation rate of one (item, warehouse) pair. CurrentQty and CurrentRate
// are snapshots the application reads under the submitting transaction
// before planning.
type ReconciliationRow struct {
	shared.BaseEntity
	ReconciliationID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Idx              int        `gorm:"not null"`
	ItemID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	WarehouseID      uuid.UUID  `gorm:"type:uuid;not null"`
	BatchID          *uuid.UUID `gorm:"type:uuid"`

	// CountedQty nil means the row only fixes the rate.
	CountedQty *decimal.Decimal `gorm:"type:decimal(18,6)"`
	// NewRate nil means the row only fixes the quantity.
	NewRate *decimal.Decimal `gorm:"type:decimal(18,4)"`

	CurrentQty  decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	CurrentRate decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ReconciliationRow) TableName() string {
	return "stock_reconciliation_rows"
}

// StockReconciliation forces ledger balances to physically counted values.
// Each row turns into a single adjusting movement, or a zero-quantity
// revaluation when only the rate changes.
type StockReconciliation struct {
	shared.BaseAggregateRoot
	voucherHeader

	Rows []ReconciliationRow `gorm:"foreignKey:ReconciliationID;references:ID"`
}

// TableName returns the table name for GORM
func (StockReconciliation) TableName() string {
	return "stock_reconciliations"
}

// NewStockReconciliation creates a draft reconciliation
func NewStockReconciliation(voucherNo string, postingDate, postingTime time.Time) (*StockReconciliation, error) {
	if strings.TrimSpace(voucherNo) == "" {
		return nil, shared.NewDomainError("INVALID_VOUCHER", "Voucher number cannot be empty")
	}
	return &StockReconciliation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		voucherHeader: voucherHeader{
			VoucherNo:   voucherNo,
			PostingDate: postingDate,
			PostingTime: postingTime,
			DocStatus:   DocStatusDraft,
		},
		Rows: make([]ReconciliationRow, 0),
	}, nil
}

// AddRow appends a line fixing quantity, rate or both
func (s *StockReconciliation) AddRow(itemID, warehouseID uuid.UUID, countedQty, newRate *decimal.Decimal) (*ReconciliationRow, error) {
	if s.DocStatus != DocStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Rows can only be added to draft reconciliations")
	}
	if countedQty == nil && newRate == nil {
		return nil, shared.NewDomainError("INVALID_VOUCHER", "Reconciliation rows must fix a quantity or a rate")
	}
	if countedQty != nil && countedQty.LessThan(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Counted quantity cannot be negative")
	}
	if newRate != nil && newRate.LessThan(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_RATE", "Valuation rate cannot be negative")
	}
	row := ReconciliationRow{
		BaseEntity:       shared.NewBaseEntity(),
		ReconciliationID: s.ID,
		Idx:              len(s.Rows) + 1,
		ItemID:           itemID,
		WarehouseID:      warehouseID,
		CountedQty:       countedQty,
		NewRate:          newRate,
	}
	s.Rows = append(s.Rows, row)
	return &s.Rows[len(s.Rows)-1], nil
}

// SetCurrentState records the balance snapshot of a row before planning
func (s *StockReconciliation) SetCurrentState(rowID uuid.UUID, qty, rate decimal.Decimal) error {
	for i := range s.Rows {
		if s.Rows[i].ID == rowID {
			s.Rows[i].CurrentQty = qty
			s.Rows[i].CurrentRate = rate
			return nil
		}
	}
	return shared.NewDomainErrorf(shared.ErrNotFound.Code, "Reconciliation row %s not found", rowID)
}

// LedgerVoucherType returns the ledger voucher type
func (s *StockReconciliation) LedgerVoucherType() ledger.VoucherType {
	return ledger.VoucherTypeStockReconciliation
}

// LedgerPlan turns each row into its adjusting movement. Quantity increases
// come in at the target rate, decreases leave at carried value, and pure
// rate fixes remove the old balance and re-add it at the new rate.
func (s *StockReconciliation) LedgerPlan() ([]PlannedEntry, error) {
	plan := make([]PlannedEntry, 0, len(s.Rows))
	for i := range s.Rows {
		row := &s.Rows[i]

		targetRate := row.CurrentRate
		if row.NewRate != nil {
			targetRate = *row.NewRate
		}

		if row.CountedQty != nil {
			diff := row.CountedQty.Sub(row.CurrentQty)
			if diff.IsZero() && row.NewRate == nil {
				continue
			}
			if !diff.IsZero() && row.NewRate == nil {
				entry := PlannedEntry{
					ItemID:      row.ItemID,
					WarehouseID: row.WarehouseID,
					BatchID:     row.BatchID,
					DetailNo:    row.ID.String(),
					Qty:         diff,
				}
				if diff.GreaterThan(decimal.Zero) {
					entry.IncomingRate = targetRate
				}
				plan = append(plan, entry)
				continue
			}
		}

		// Rate fix (with or without a quantity change): remove the carried
		// balance and re-add the counted quantity at the target rate.
		targetQty := row.CurrentQty
		if row.CountedQty != nil {
			targetQty = *row.CountedQty
		}
		if row.CurrentQty.GreaterThan(decimal.Zero) {
			plan = append(plan, PlannedEntry{
				ItemID:      row.ItemID,
				WarehouseID: row.WarehouseID,
				BatchID:     row.BatchID,
				DetailNo:    row.ID.String() + "-out",
				Qty:         row.CurrentQty.Neg(),
			})
		}
		if targetQty.GreaterThan(decimal.Zero) {
			plan = append(plan, PlannedEntry{
				ItemID:       row.ItemID,
				WarehouseID:  row.WarehouseID,
				BatchID:      row.BatchID,
				DetailNo:     row.ID.String() + "-in",
				Qty:          targetQty,
				IncomingRate: targetRate,
			})
		}
	}
	return plan, nil
}

// Submit moves the reconciliation to the submitted state
func (s *StockReconciliation) Submit() error {
	if !s.DocStatus.CanTransitionTo(DocStatusSubmitted) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot submit reconciliation in %s status", s.DocStatus))
	}
	if len(s.Rows) == 0 {
		return shared.NewDomainError("INVALID_VOUCHER", "Cannot submit a reconciliation without rows")
	}
	s.DocStatus = DocStatusSubmitted
	s.IncrementVersion()
	return nil
}

// Cancel cancels a submitted reconciliation
func (s *StockReconciliation) Cancel() error {
	if !s.DocStatus.CanTransitionTo(DocStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel reconciliation in %s status", s.DocStatus))
	}
	s.DocStatus = DocStatusCancelled
	s.IncrementVersion()
	return nil
}
