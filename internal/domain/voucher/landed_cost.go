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

// DistributionMethod spreads landed charges over the receipt rows
type DistributionMethod string

const (
	// DistributeByQty splits charges in proportion to row quantities
	DistributeByQty DistributionMethod = "QTY"
	// DistributeByAmount splits charges in proportion to row values
	DistributeByAmount DistributionMethod = "AMOUNT"
)

// IsValid checks if the method is valid
func (m DistributionMethod) IsValid() bool {
	return m == DistributeByQty || m == DistributeByAmount
}

// LandedCostCharge is one extra cost to fold into the receipt valuation
type LandedCostCharge struct {
	shared.BaseEntity
	VoucherID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(200);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (LandedCostCharge) TableName() string {
	return "landed_cost_charges"
}

// LandedCostItem is one receipt row the voucher revalues. Qty and Amount
// are copied from the receipt so distribution works offline.
type LandedCostItem struct {
	shared.BaseEntity
	VoucherID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReceiptVoucherNo string          `gorm:"type:varchar(50);not null;index"`
	ReceiptRowID     uuid.UUID       `gorm:"type:uuid;not null"`
	ItemID           uuid.UUID       `gorm:"type:uuid;not null"`
	WarehouseID      uuid.UUID       `gorm:"type:uuid;not null"`
	Qty              decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`

	// ApplicableCharge is the share of the charges landed on this row,
	// filled by Distribute.
	ApplicableCharge decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (LandedCostItem) TableName() string {
	return "landed_cost_items"
}

// Revaluation is the per-receipt-row outcome of a landed cost voucher: the
// extra per-unit rate to fold into the original receipt entry before
// reposting forward.
type Revaluation struct {
	ReceiptVoucherNo string
	ReceiptRowID     uuid.UUID
	ItemID           uuid.UUID
	WarehouseID      uuid.UUID
	ExtraRatePerUnit decimal.Decimal
}

// LandedCostVoucher folds freight, duty and similar charges into the
// valuation of already-received stock. Submission rewrites the incoming
// rate of the referenced receipt entries and reposts each affected pair
// forward, with the voucher itself excluded from the cascade.
type LandedCostVoucher struct {
	shared.BaseAggregateRoot
	voucherHeader
	Method DistributionMethod `gorm:"type:varchar(10);not null;default:'AMOUNT'"`

	Charges []LandedCostCharge `gorm:"foreignKey:VoucherID;references:ID"`
	Items   []LandedCostItem   `gorm:"foreignKey:VoucherID;references:ID"`
}

// TableName returns the table name for GORM
func (LandedCostVoucher) TableName() string {
	return "landed_cost_vouchers"
}

// NewLandedCostVoucher creates a draft landed cost voucher
func NewLandedCostVoucher(voucherNo string, method DistributionMethod, postingDate, postingTime time.Time) (*LandedCostVoucher, error) {
	if strings.TrimSpace(voucherNo) == "" {
		return nil, shared.NewDomainError("INVALID_VOUCHER", "Voucher number cannot be empty")
	}
	if method == "" {
		method = DistributeByAmount
	}
	if !method.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_VOUCHER", "Unknown distribution method %s", method)
	}
	return &LandedCostVoucher{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		voucherHeader: voucherHeader{
			VoucherNo:   voucherNo,
			PostingDate: postingDate,
			PostingTime: postingTime,
			DocStatus:   DocStatusDraft,
		},
		Method:  method,
		Charges: make([]LandedCostCharge, 0),
		Items:   make([]LandedCostItem, 0),
	}, nil
}

// AddCharge appends one cost line
func (v *LandedCostVoucher) AddCharge(description string, amount decimal.Decimal) error {
	if v.DocStatus != DocStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Charges can only be added to draft vouchers")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_VOUCHER", "Charge amount must be positive")
	}
	v.Charges = append(v.Charges, LandedCostCharge{
		BaseEntity:  shared.NewBaseEntity(),
		VoucherID:   v.ID,
		Description: description,
		Amount:      amount,
	})
	return nil
}

// AddItem references one receipt row to revalue
func (v *LandedCostVoucher) AddItem(receiptNo string, receiptRowID, itemID, warehouseID uuid.UUID, qty, amount decimal.Decimal) error {
	if v.DocStatus != DocStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Items can only be added to draft vouchers")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_VOUCHER", "Landed cost item quantity must be positive")
	}
	v.Items = append(v.Items, LandedCostItem{
		BaseEntity:       shared.NewBaseEntity(),
		VoucherID:        v.ID,
		ReceiptVoucherNo: receiptNo,
		ReceiptRowID:     receiptRowID,
		ItemID:           itemID,
		WarehouseID:      warehouseID,
		Qty:              qty,
		Amount:           amount,
	})
	return nil
}

// TotalCharges sums the cost lines
func (v *LandedCostVoucher) TotalCharges() decimal.Decimal {
	total := decimal.Zero
	for _, c := range v.Charges {
		total = total.Add(c.Amount)
	}
	return total
}

// Distribute spreads the charges over the items by the configured method.
// The last row absorbs the rounding remainder so the shares always sum to
// the charge total exactly.
func (v *LandedCostVoucher) Distribute() error {
	if len(v.Items) == 0 {
		return shared.NewDomainError("INVALID_VOUCHER", "Landed cost voucher has no items")
	}
	total := v.TotalCharges()
	if total.IsZero() {
		return shared.NewDomainError("INVALID_VOUCHER", "Landed cost voucher has no charges")
	}

	base := decimal.Zero
	for i := range v.Items {
		base = base.Add(v.weight(&v.Items[i]))
	}
	if base.IsZero() {
		return shared.NewDomainError("INVALID_VOUCHER", "Distribution base is zero")
	}

	assigned := decimal.Zero
	for i := range v.Items {
		item := &v.Items[i]
		if i == len(v.Items)-1 {
			item.ApplicableCharge = total.Sub(assigned)
			break
		}
		share := total.Mul(v.weight(item)).Div(base).Round(4)
		item.ApplicableCharge = share
		assigned = assigned.Add(share)
	}
	return nil
}

func (v *LandedCostVoucher) weight(item *LandedCostItem) decimal.Decimal {
	if v.Method == DistributeByQty {
		return item.Qty
	}
	return item.Amount
}

// Revaluations converts the distributed charges into per-unit rate
// increments for the receipt entries. Rows whose share rounded to zero
// drop out rather than producing a zero-delta repost.
func (v *LandedCostVoucher) Revaluations() ([]Revaluation, error) {
	distributed := false
	for i := range v.Items {
		if !v.Items[i].ApplicableCharge.IsZero() {
			distributed = true
			break
		}
	}
	if !distributed {
		return nil, shared.NewDomainError("INVALID_VOUCHER",
			"Charges are not distributed; call Distribute first")
	}

	out := make([]Revaluation, 0, len(v.Items))
	for i := range v.Items {
		item := &v.Items[i]
		if item.ApplicableCharge.IsZero() {
			continue
		}
		out = append(out, Revaluation{
			ReceiptVoucherNo: item.ReceiptVoucherNo,
			ReceiptRowID:     item.ReceiptRowID,
			ItemID:           item.ItemID,
			WarehouseID:      item.WarehouseID,
			ExtraRatePerUnit: item.ApplicableCharge.Div(item.Qty).Round(4),
		})
	}
	return out, nil
}

// LedgerVoucherType returns the ledger voucher type
func (v *LandedCostVoucher) LedgerVoucherType() ledger.VoucherType {
	return ledger.VoucherTypeLandedCostVoucher
}

// LedgerPlan is empty: the voucher rewrites existing receipt entries
// through Revaluations instead of writing its own movements.
func (v *LandedCostVoucher) LedgerPlan() ([]PlannedEntry, error) {
	return nil, nil
}

// Submit moves the voucher to the submitted state
func (v *LandedCostVoucher) Submit() error {
	if !v.DocStatus.CanTransitionTo(DocStatusSubmitted) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot submit landed cost voucher in %s status", v.DocStatus))
	}
	if len(v.Items) == 0 || len(v.Charges) == 0 {
		return shared.NewDomainError("INVALID_VOUCHER", "Landed cost voucher needs items and charges")
	}
	v.DocStatus = DocStatusSubmitted
	v.IncrementVersion()
	return nil
}

// Cancel cancels a submitted voucher
func (v *LandedCostVoucher) Cancel() error {
	if !v.DocStatus.CanTransitionTo(DocStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel landed cost voucher in %s status", v.DocStatus))
	}
	v.DocStatus = DocStatusCancelled
	v.IncrementVersion()
	return nil
}
