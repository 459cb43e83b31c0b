package voucher

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/ledger"
)

// EdgeSpec declares a dependency of a planned entry on another voucher's
// ledger entry, resolved to a concrete edge at write time.
type EdgeSpec struct {
	SourceType   ledger.VoucherType
	SourceNo     string
	SourceDetail string
	Kind         ledger.DependencyKind
	Filter       ledger.QtyFilter
	Percentage   decimal.Decimal
}

// PlannedEntry is one ledger movement a voucher wants written on submit.
// The write path fills the projected columns; the plan carries only the
// facts the document knows.
type PlannedEntry struct {
	ItemID      uuid.UUID
	WarehouseID uuid.UUID
	BatchID     *uuid.UUID
	SerialNos   []string
	DetailNo    string

	// Qty is signed: positive receives, negative issues.
	Qty          decimal.Decimal
	IncomingRate decimal.Decimal
	OutgoingRate decimal.Decimal

	Edges []EdgeSpec
}

// StockVoucher is implemented by every document that writes ledger entries
// on submission.
type StockVoucher interface {
	LedgerVoucherType() ledger.VoucherType
	LedgerVoucherNo() string
	GetDocStatus() DocStatus
	GetPostingDate() time.Time
	GetPostingTime() time.Time
	// LedgerPlan returns the entries the voucher wants written. Planning
	// never touches storage; rows needing current balances carry them.
	LedgerPlan() ([]PlannedEntry, error)
	Submit() error
	Cancel() error
}

// voucherHeader carries the fields every stock document shares
type voucherHeader struct {
	VoucherNo   string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	PostingDate time.Time `gorm:"type:date;not null"`
	PostingTime time.Time `gorm:"not null"`
	DocStatus   DocStatus `gorm:"not null;default:0"`
	Remarks     string    `gorm:"type:text"`
}

// GetDocStatus returns the submission state
func (h *voucherHeader) GetDocStatus() DocStatus { return h.DocStatus }

// GetPostingDate returns the posting date
func (h *voucherHeader) GetPostingDate() time.Time { return h.PostingDate }

// GetPostingTime returns the posting time
func (h *voucherHeader) GetPostingTime() time.Time { return h.PostingTime }

// LedgerVoucherNo returns the document number used on ledger entries
func (h *voucherHeader) LedgerVoucherNo() string { return h.VoucherNo }
