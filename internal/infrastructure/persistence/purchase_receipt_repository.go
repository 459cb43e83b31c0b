package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockcore/backend/internal/domain/shared"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// GormPurchaseReceiptRepository implements PurchaseReceiptRepository using GORM
type GormPurchaseReceiptRepository struct {
	db *gorm.DB
}

// NewGormPurchaseReceiptRepository creates a new GormPurchaseReceiptRepository
func NewGormPurchaseReceiptRepository(db *gorm.DB) *GormPurchaseReceiptRepository {
	return &GormPurchaseReceiptRepository{db: db}
}

// FindByID finds a receipt with its rows
func (r *GormPurchaseReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*voucher.PurchaseReceipt, error) {
	var receipt voucher.PurchaseReceipt
	if err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		First(&receipt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// FindByVoucherNo finds a receipt by its voucher number
func (r *GormPurchaseReceiptRepository) FindByVoucherNo(ctx context.Context, voucherNo string) (*voucher.PurchaseReceipt, error) {
	var receipt voucher.PurchaseReceipt
	if err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Where("voucher_no = ?", voucherNo).
		First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// Save creates or updates a receipt with its rows
func (r *GormPurchaseReceiptRepository) Save(ctx context.Context, receipt *voucher.PurchaseReceipt) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(receipt).Error
}

// SubmittedForOrder returns all submitted receipts with at least one row
// linked to the order
func (r *GormPurchaseReceiptRepository) SubmittedForOrder(ctx context.Context, orderID uuid.UUID) ([]*voucher.PurchaseReceipt, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&voucher.PurchaseReceiptRow{}).
		Distinct("receipt_id").
		Where("purchase_order_id = ?", orderID).
		Pluck("receipt_id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*voucher.PurchaseReceipt{}, nil
	}

	var receipts []*voucher.PurchaseReceipt
	err = r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Where("id IN ? AND doc_status = ?", ids, voucher.DocStatusSubmitted).
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

// LastReceiptFor returns the newest submitted non-return receipt row of
// the item, dated by the receipt posting instant
func (r *GormPurchaseReceiptRepository) LastReceiptFor(ctx context.Context, itemID uuid.UUID) (*voucher.LastPurchase, error) {
	var row struct {
		Rate        decimal.Decimal
		PostingDate time.Time
		VoucherNo   string
	}
	err := r.db.WithContext(ctx).
		Model(&voucher.PurchaseReceiptRow{}).
		Select("purchase_receipt_rows.rate, purchase_receipts.posting_date, purchase_receipts.voucher_no").
		Joins("JOIN purchase_receipts ON purchase_receipts.id = purchase_receipt_rows.receipt_id").
		Where("purchase_receipts.doc_status = ? AND purchase_receipts.is_return = false",
			voucher.DocStatusSubmitted).
		Where("purchase_receipt_rows.item_id = ?", itemID).
		Order("purchase_receipts.posting_date DESC, purchase_receipts.posting_time DESC, purchase_receipt_rows.created_at DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.VoucherNo == "" {
		return nil, shared.ErrNotFound
	}
	return &voucher.LastPurchase{
		Rate:      row.Rate,
		Date:      row.PostingDate,
		VoucherNo: row.VoucherNo,
		Source:    voucher.LastPurchaseFromReceipt,
	}, nil
}

// Ensure GormPurchaseReceiptRepository implements PurchaseReceiptRepository
var _ voucher.PurchaseReceiptRepository = (*GormPurchaseReceiptRepository)(nil)
