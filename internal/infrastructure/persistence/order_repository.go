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

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with its rows
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*voucher.Order, error) {
	var order voucher.Order
	if err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderNo finds an order by its number
func (r *GormOrderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*voucher.Order, error) {
	var order voucher.Order
	if err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Where("order_no = ?", orderNo).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Save creates or updates an order with its rows
func (r *GormOrderRepository) Save(ctx context.Context, order *voucher.Order) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(order).Error
}

// OpenRows returns the submitted, not closed and not cancelled order rows
// of the pair, for re-deriving bin reservation counters
func (r *GormOrderRepository) OpenRows(ctx context.Context, kind voucher.OrderKind, itemID, warehouseID uuid.UUID) ([]*voucher.OrderRow, error) {
	var rows []*voucher.OrderRow
	err := r.db.WithContext(ctx).
		Model(&voucher.OrderRow{}).
		Joins("JOIN orders ON orders.id = order_rows.order_id").
		Where("orders.kind = ? AND orders.doc_status = ? AND orders.closed = false",
			kind, voucher.DocStatusSubmitted).
		Where("order_rows.item_id = ? AND order_rows.warehouse_id = ?", itemID, warehouseID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LastPurchaseFor returns the newest submitted purchase-order row of the
// item, dated by the order header
func (r *GormOrderRepository) LastPurchaseFor(ctx context.Context, itemID uuid.UUID) (*voucher.LastPurchase, error) {
	var row struct {
		Rate            decimal.Decimal
		TransactionDate time.Time
		OrderNo         string
	}
	err := r.db.WithContext(ctx).
		Model(&voucher.OrderRow{}).
		Select("order_rows.rate, orders.transaction_date, orders.order_no").
		Joins("JOIN orders ON orders.id = order_rows.order_id").
		Where("orders.kind = ? AND orders.doc_status = ?",
			voucher.OrderKindPurchase, voucher.DocStatusSubmitted).
		Where("order_rows.item_id = ?", itemID).
		Order("orders.transaction_date DESC, order_rows.created_at DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.OrderNo == "" {
		return nil, shared.ErrNotFound
	}
	return &voucher.LastPurchase{
		Rate:      row.Rate,
		Date:      row.TransactionDate,
		VoucherNo: row.OrderNo,
		Source:    voucher.LastPurchaseFromOrder,
	}, nil
}

// Ensure GormOrderRepository implements OrderRepository
var _ voucher.OrderRepository = (*GormOrderRepository)(nil)
