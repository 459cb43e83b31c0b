package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockcore/backend/internal/domain/shared"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice with its rows
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*voucher.Invoice, error) {
	var invoice voucher.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByVoucherNo finds an invoice by kind and voucher number. Purchase and
// sales invoices number independently, so the kind is part of the key.
func (r *GormInvoiceRepository) FindByVoucherNo(ctx context.Context, kind voucher.InvoiceKind, voucherNo string) (*voucher.Invoice, error) {
	var invoice voucher.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Where("kind = ? AND voucher_no = ?", kind, voucherNo).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// Save creates or updates an invoice with its rows
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *voucher.Invoice) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(invoice).Error
}

// SubmittedForOrder returns all submitted invoices with at least one row
// linked to the order
func (r *GormInvoiceRepository) SubmittedForOrder(ctx context.Context, orderID uuid.UUID) ([]*voucher.Invoice, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&voucher.InvoiceRow{}).
		Distinct("invoice_id").
		Where("order_id = ?", orderID).
		Pluck("invoice_id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*voucher.Invoice{}, nil
	}

	var invoices []*voucher.Invoice
	err = r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Where("id IN ? AND doc_status = ?", ids, voucher.DocStatusSubmitted).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ voucher.InvoiceRepository = (*GormInvoiceRepository)(nil)
