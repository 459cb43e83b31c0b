package voucher

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/shared"
)

// OrderKind distinguishes the two order directions. Sales orders are
// fulfilled by delivery notes, purchase orders by purchase receipts; the
// status machine is the same.
type OrderKind string

const (
	OrderKindSales    OrderKind = "SALES"
	OrderKindPurchase OrderKind = "PURCHASE"
)

// IsValid checks if the kind is valid
func (k OrderKind) IsValid() bool {
	return k == OrderKindSales || k == OrderKindPurchase
}

// OrderStatus is the derived fulfillment status of an order. It is never
// incremented in place: every refresh recomputes it from the live rows of
// the downstream documents.
type OrderStatus string

const (
	OrderStatusDraft            OrderStatus = "DRAFT"
	OrderStatusToDeliverAndBill OrderStatus = "TO_DELIVER_AND_BILL"
	OrderStatusToDeliver        OrderStatus = "TO_DELIVER"
	OrderStatusToBill           OrderStatus = "TO_BILL"
	OrderStatusCompleted        OrderStatus = "COMPLETED"
	OrderStatusCancelled        OrderStatus = "CANCELLED"
	OrderStatusClosed           OrderStatus = "CLOSED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusToDeliverAndBill, OrderStatusToDeliver,
		OrderStatusToBill, OrderStatusCompleted, OrderStatusCancelled, OrderStatusClosed:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// OrderRow is one line of an order. The fulfillment counters are
// projections owned by ApplyFulfillment.
type OrderRow struct {
	shared.BaseEntity
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Idx         int             `gorm:"not null"`
	ItemID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null"`
	Qty         decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Rate        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	DeliveredQty decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	BilledQty    decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	ReturnedQty  decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderRow) TableName() string {
	return "order_rows"
}

// Order is a sales or purchase order: the upstream anchor that delivery and
// billing documents link back to.
type Order struct {
	shared.BaseAggregateRoot
	Kind            OrderKind   `gorm:"type:varchar(10);not null"`
	OrderNo         string      `gorm:"type:varchar(50);not null;uniqueIndex"`
	PartyID         uuid.UUID   `gorm:"type:uuid;not null;index"`
	TransactionDate time.Time   `gorm:"type:date;not null"`
	DocStatus       DocStatus   `gorm:"not null;default:0"`
	Status          OrderStatus `gorm:"type:varchar(30);not null;default:'DRAFT'"`
	Closed          bool        `gorm:"not null;default:false"`

	PerDelivered decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0"`
	PerBilled    decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0"`

	Rows []OrderRow `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a draft order
func NewOrder(kind OrderKind, orderNo string, partyID uuid.UUID, transactionDate time.Time) (*Order, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_ORDER", "Unknown order kind %s", kind)
	}
	if strings.TrimSpace(orderNo) == "" {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order number cannot be empty")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order requires a party")
	}
	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		OrderNo:           orderNo,
		PartyID:           partyID,
		TransactionDate:   transactionDate,
		DocStatus:         DocStatusDraft,
		Status:            OrderStatusDraft,
		Rows:              make([]OrderRow, 0),
	}, nil
}

// AddRow appends a line to a draft order
func (o *Order) AddRow(itemID, warehouseID uuid.UUID, qty, rate decimal.Decimal) (*OrderRow, error) {
	if o.DocStatus != DocStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Rows can only be added to draft orders")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Order row quantity must be positive")
	}
	row := OrderRow{
		BaseEntity:  shared.NewBaseEntity(),
		OrderID:     o.ID,
		Idx:         len(o.Rows) + 1,
		ItemID:      itemID,
		WarehouseID: warehouseID,
		Qty:         qty,
		Rate:        rate,
	}
	o.Rows = append(o.Rows, row)
	return &o.Rows[len(o.Rows)-1], nil
}

// Submit moves the order to the submitted state
func (o *Order) Submit() error {
	if !o.DocStatus.CanTransitionTo(DocStatusSubmitted) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot submit order in %s status", o.DocStatus))
	}
	if len(o.Rows) == 0 {
		return shared.NewDomainError("INVALID_ORDER", "Cannot submit an order without rows")
	}
	o.DocStatus = DocStatusSubmitted
	o.Status = OrderStatusToDeliverAndBill
	o.IncrementVersion()
	return nil
}

// Cancel cancels a submitted order. Orders with live downstream documents
// cannot be cancelled; the application layer checks that before calling.
func (o *Order) Cancel() error {
	if !o.DocStatus.CanTransitionTo(DocStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel order in %s status", o.DocStatus))
	}
	o.DocStatus = DocStatusCancelled
	o.Status = OrderStatusCancelled
	o.IncrementVersion()
	return nil
}

// Close marks a submitted order closed, stopping further fulfillment
func (o *Order) Close() error {
	if o.DocStatus != DocStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", "Only submitted orders can be closed")
	}
	o.Closed = true
	o.Status = OrderStatusClosed
	o.IncrementVersion()
	return nil
}

// Reopen reverses Close. The next fulfillment refresh recomputes the status.
func (o *Order) Reopen() error {
	if !o.Closed {
		return shared.NewDomainError("INVALID_STATE", "Order is not closed")
	}
	o.Closed = false
	o.deriveStatus()
	o.IncrementVersion()
	return nil
}

// RowByID finds a row by its ID
func (o *Order) RowByID(rowID uuid.UUID) (*OrderRow, error) {
	for i := range o.Rows {
		if o.Rows[i].ID == rowID {
			return &o.Rows[i], nil
		}
	}
	return nil, shared.NewDomainErrorf(shared.ErrNotFound.Code, "Order row %s not found", rowID)
}
