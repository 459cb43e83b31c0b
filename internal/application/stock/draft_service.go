package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockcore/backend/internal/domain/voucher"
)

// DraftService creates and reads stock vouchers in draft state. Drafts
// carry no ledger effect until SubmissionService submits them.
type DraftService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewDraftService creates a DraftService
func NewDraftService(scope TransactionScope, logger *zap.Logger) *DraftService {
	return &DraftService{scope: scope, logger: logger}
}

// OrderRowRequest is one row of an order draft
type OrderRowRequest struct {
	ItemID      uuid.UUID       `json:"item_id" binding:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	Qty         decimal.Decimal `json:"qty" binding:"required"`
	Rate        decimal.Decimal `json:"rate"`
}

// CreateOrderRequest creates a purchase or sales order draft
type CreateOrderRequest struct {
	Kind            string            `json:"kind" binding:"required,oneof=PURCHASE SALES"`
	OrderNo         string            `json:"order_no" binding:"required,max=50"`
	PartyID         uuid.UUID         `json:"party_id" binding:"required"`
	TransactionDate time.Time         `json:"transaction_date" binding:"required"`
	Rows            []OrderRowRequest `json:"rows" binding:"required,min=1,dive"`
}

// CreateOrder creates an order draft
func (s *DraftService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*voucher.Order, error) {
	order, err := voucher.NewOrder(voucher.OrderKind(req.Kind), req.OrderNo, req.PartyID, req.TransactionDate)
	if err != nil {
		return nil, err
	}
	for _, row := range req.Rows {
		if _, err := order.AddRow(row.ItemID, row.WarehouseID, row.Qty, row.Rate); err != nil {
			return nil, err
		}
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Orders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order draft created",
		zap.String("order_no", order.OrderNo),
		zap.String("kind", string(order.Kind)))
	return order, nil
}

// GetOrder loads an order with its rows
func (s *DraftService) GetOrder(ctx context.Context, id uuid.UUID) (*voucher.Order, error) {
	var order *voucher.Order
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = repos.Orders().FindByID(ctx, id)
		return err
	})
	return order, err
}

// ReceiptRowRequest is one row of a purchase receipt draft
type ReceiptRowRequest struct {
	ItemID             uuid.UUID       `json:"item_id" binding:"required"`
	WarehouseID        uuid.UUID       `json:"warehouse_id" binding:"required"`
	Qty                decimal.Decimal `json:"qty" binding:"required"`
	Rate               decimal.Decimal `json:"rate" binding:"required"`
	BatchID            *uuid.UUID      `json:"batch_id"`
	SerialNos          string          `json:"serial_nos"`
	PurchaseOrderID    *uuid.UUID      `json:"purchase_order_id"`
	PurchaseOrderRowID *uuid.UUID      `json:"purchase_order_row_id"`
	ReturnAgainstRowID *uuid.UUID      `json:"return_against_row_id"`
}

// CreatePurchaseReceiptRequest creates a purchase receipt draft
type CreatePurchaseReceiptRequest struct {
	VoucherNo     string              `json:"voucher_no" binding:"required,max=50"`
	SupplierID    uuid.UUID           `json:"supplier_id" binding:"required"`
	PostingDate   time.Time           `json:"posting_date" binding:"required"`
	PostingTime   time.Time           `json:"posting_time" binding:"required"`
	IsReturn      bool                `json:"is_return"`
	ReturnAgainst string              `json:"return_against" binding:"max=50"`
	Remarks       string              `json:"remarks"`
	Rows          []ReceiptRowRequest `json:"rows" binding:"required,min=1,dive"`
}

// CreatePurchaseReceipt creates a purchase receipt draft
func (s *DraftService) CreatePurchaseReceipt(ctx context.Context, req CreatePurchaseReceiptRequest) (*voucher.PurchaseReceipt, error) {
	receipt, err := voucher.NewPurchaseReceipt(req.VoucherNo, req.SupplierID, req.PostingDate, req.PostingTime)
	if err != nil {
		return nil, err
	}
	receipt.Remarks = req.Remarks
	if req.IsReturn {
		if err := receipt.MarkReturn(req.ReturnAgainst); err != nil {
			return nil, err
		}
	}
	for _, row := range req.Rows {
		r, err := receipt.AddRow(row.ItemID, row.WarehouseID, row.Qty, row.Rate)
		if err != nil {
			return nil, err
		}
		r.BatchID = row.BatchID
		r.SerialNos = row.SerialNos
		r.PurchaseOrderID = row.PurchaseOrderID
		r.PurchaseOrderRowID = row.PurchaseOrderRowID
		r.ReturnAgainstRowID = row.ReturnAgainstRowID
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.PurchaseReceipts().Save(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("purchase receipt draft created", zap.String("voucher_no", receipt.VoucherNo))
	return receipt, nil
}

// GetPurchaseReceipt loads a purchase receipt with its rows
func (s *DraftService) GetPurchaseReceipt(ctx context.Context, id uuid.UUID) (*voucher.PurchaseReceipt, error) {
	var receipt *voucher.PurchaseReceipt
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		receipt, err = repos.PurchaseReceipts().FindByID(ctx, id)
		return err
	})
	return receipt, err
}

// DeliveryRowRequest is one row of a delivery note draft
type DeliveryRowRequest struct {
	ItemID             uuid.UUID       `json:"item_id" binding:"required"`
	WarehouseID        uuid.UUID       `json:"warehouse_id" binding:"required"`
	Qty                decimal.Decimal `json:"qty" binding:"required"`
	Rate               decimal.Decimal `json:"rate"`
	BatchID            *uuid.UUID      `json:"batch_id"`
	SerialNos          string          `json:"serial_nos"`
	SalesOrderID       *uuid.UUID      `json:"sales_order_id"`
	SalesOrderRowID    *uuid.UUID      `json:"sales_order_row_id"`
	ReturnAgainstRowID *uuid.UUID      `json:"return_against_row_id"`
}

// CreateDeliveryNoteRequest creates a delivery note draft
type CreateDeliveryNoteRequest struct {
	VoucherNo     string               `json:"voucher_no" binding:"required,max=50"`
	CustomerID    uuid.UUID            `json:"customer_id" binding:"required"`
	PostingDate   time.Time            `json:"posting_date" binding:"required"`
	PostingTime   time.Time            `json:"posting_time" binding:"required"`
	IsReturn      bool                 `json:"is_return"`
	ReturnAgainst string               `json:"return_against" binding:"max=50"`
	Remarks       string               `json:"remarks"`
	Rows          []DeliveryRowRequest `json:"rows" binding:"required,min=1,dive"`
}

// CreateDeliveryNote creates a delivery note draft
func (s *DraftService) CreateDeliveryNote(ctx context.Context, req CreateDeliveryNoteRequest) (*voucher.DeliveryNote, error) {
	note, err := voucher.NewDeliveryNote(req.VoucherNo, req.CustomerID, req.PostingDate, req.PostingTime)
	if err != nil {
		return nil, err
	}
	note.Remarks = req.Remarks
	if req.IsReturn {
		if err := note.MarkReturn(req.ReturnAgainst); err != nil {
			return nil, err
		}
	}
	for _, row := range req.Rows {
		r, err := note.AddRow(row.ItemID, row.WarehouseID, row.Qty, row.Rate)
		if err != nil {
			return nil, err
		}
		r.BatchID = row.BatchID
		r.SerialNos = row.SerialNos
		r.SalesOrderID = row.SalesOrderID
		r.SalesOrderRowID = row.SalesOrderRowID
		r.ReturnAgainstRowID = row.ReturnAgainstRowID
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.DeliveryNotes().Save(ctx, note)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("delivery note draft created", zap.String("voucher_no", note.VoucherNo))
	return note, nil
}

// GetDeliveryNote loads a delivery note with its rows
func (s *DraftService) GetDeliveryNote(ctx context.Context, id uuid.UUID) (*voucher.DeliveryNote, error) {
	var note *voucher.DeliveryNote
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		note, err = repos.DeliveryNotes().FindByID(ctx, id)
		return err
	})
	return note, err
}

// InvoiceRowRequest is one row of an invoice draft
type InvoiceRowRequest struct {
	ItemID             uuid.UUID       `json:"item_id" binding:"required"`
	WarehouseID        *uuid.UUID      `json:"warehouse_id"`
	Qty                decimal.Decimal `json:"qty" binding:"required"`
	Rate               decimal.Decimal `json:"rate" binding:"required"`
	BatchID            *uuid.UUID      `json:"batch_id"`
	SerialNos          string          `json:"serial_nos"`
	OrderID            *uuid.UUID      `json:"order_id"`
	OrderRowID         *uuid.UUID      `json:"order_row_id"`
	FulfillmentRowID   *uuid.UUID      `json:"fulfillment_row_id"`
	ReturnAgainstRowID *uuid.UUID      `json:"return_against_row_id"`
}

// CreateInvoiceRequest creates a purchase or sales invoice draft
type CreateInvoiceRequest struct {
	Kind          string              `json:"kind" binding:"required,oneof=PURCHASE SALES"`
	VoucherNo     string              `json:"voucher_no" binding:"required,max=50"`
	PartyID       uuid.UUID           `json:"party_id" binding:"required"`
	PostingDate   time.Time           `json:"posting_date" binding:"required"`
	PostingTime   time.Time           `json:"posting_time" binding:"required"`
	UpdateStock   bool                `json:"update_stock"`
	IsReturn      bool                `json:"is_return"`
	ReturnAgainst string              `json:"return_against"`
	Remarks       string              `json:"remarks"`
	Rows          []InvoiceRowRequest `json:"rows" binding:"required,min=1,dive"`
}

// CreateInvoice creates an invoice draft
func (s *DraftService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*voucher.Invoice, error) {
	inv, err := voucher.NewInvoice(voucher.InvoiceKind(req.Kind), req.VoucherNo, req.PartyID, req.PostingDate, req.PostingTime)
	if err != nil {
		return nil, err
	}
	inv.UpdateStock = req.UpdateStock
	if req.IsReturn {
		if err := inv.MarkReturn(req.ReturnAgainst); err != nil {
			return nil, err
		}
	}
	inv.Remarks = req.Remarks
	for _, row := range req.Rows {
		r, err := inv.AddRow(row.ItemID, row.Qty, row.Rate)
		if err != nil {
			return nil, err
		}
		r.WarehouseID = row.WarehouseID
		r.BatchID = row.BatchID
		r.SerialNos = row.SerialNos
		r.OrderID = row.OrderID
		r.OrderRowID = row.OrderRowID
		r.FulfillmentRowID = row.FulfillmentRowID
		r.ReturnAgainstRowID = row.ReturnAgainstRowID
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Invoices().Save(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("invoice draft created",
		zap.String("voucher_no", inv.VoucherNo),
		zap.String("kind", string(inv.Kind)))
	return inv, nil
}

// GetInvoice loads an invoice with its rows
func (s *DraftService) GetInvoice(ctx context.Context, id uuid.UUID) (*voucher.Invoice, error) {
	var inv *voucher.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = repos.Invoices().FindByID(ctx, id)
		return err
	})
	return inv, err
}

// StockEntryRowRequest is one row of a stock entry draft
type StockEntryRowRequest struct {
	ItemID            uuid.UUID       `json:"item_id" binding:"required"`
	SourceWarehouseID *uuid.UUID      `json:"source_warehouse_id"`
	TargetWarehouseID *uuid.UUID      `json:"target_warehouse_id"`
	Qty               decimal.Decimal `json:"qty" binding:"required"`
	BasicRate         decimal.Decimal `json:"basic_rate"`
	BatchID           *uuid.UUID      `json:"batch_id"`
	SerialNos         string          `json:"serial_nos"`
}

// CreateStockEntryRequest creates a stock entry draft
type CreateStockEntryRequest struct {
	VoucherNo   string                 `json:"voucher_no" binding:"required,max=50"`
	Purpose     string                 `json:"purpose" binding:"required,oneof=MATERIAL_RECEIPT MATERIAL_ISSUE MATERIAL_TRANSFER"`
	PostingDate time.Time              `json:"posting_date" binding:"required"`
	PostingTime time.Time              `json:"posting_time" binding:"required"`
	Remarks     string                 `json:"remarks"`
	Rows        []StockEntryRowRequest `json:"rows" binding:"required,min=1,dive"`
}

// CreateStockEntry creates a stock entry draft
func (s *DraftService) CreateStockEntry(ctx context.Context, req CreateStockEntryRequest) (*voucher.StockEntry, error) {
	entry, err := voucher.NewStockEntry(req.VoucherNo, voucher.StockEntryPurpose(req.Purpose), req.PostingDate, req.PostingTime)
	if err != nil {
		return nil, err
	}
	entry.Remarks = req.Remarks
	for _, row := range req.Rows {
		r, err := entry.AddRow(row.ItemID, row.SourceWarehouseID, row.TargetWarehouseID, row.Qty, row.BasicRate)
		if err != nil {
			return nil, err
		}
		r.BatchID = row.BatchID
		r.SerialNos = row.SerialNos
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.StockEntries().Save(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock entry draft created",
		zap.String("voucher_no", entry.VoucherNo),
		zap.String("purpose", string(entry.Purpose)))
	return entry, nil
}

// GetStockEntry loads a stock entry with its rows
func (s *DraftService) GetStockEntry(ctx context.Context, id uuid.UUID) (*voucher.StockEntry, error) {
	var entry *voucher.StockEntry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entry, err = repos.StockEntries().FindByID(ctx, id)
		return err
	})
	return entry, err
}

// ReconciliationRowRequest is one counted row of a reconciliation draft.
// CountedQty and NewRate are both optional but at least one must be set.
type ReconciliationRowRequest struct {
	ItemID      uuid.UUID        `json:"item_id" binding:"required"`
	WarehouseID uuid.UUID        `json:"warehouse_id" binding:"required"`
	BatchID     *uuid.UUID       `json:"batch_id"`
	CountedQty  *decimal.Decimal `json:"counted_qty"`
	NewRate     *decimal.Decimal `json:"new_rate"`
}

// CreateReconciliationRequest creates a stock reconciliation draft
type CreateReconciliationRequest struct {
	VoucherNo   string                     `json:"voucher_no" binding:"required,max=50"`
	PostingDate time.Time                  `json:"posting_date" binding:"required"`
	PostingTime time.Time                  `json:"posting_time" binding:"required"`
	Remarks     string                     `json:"remarks"`
	Rows        []ReconciliationRowRequest `json:"rows" binding:"required,min=1,dive"`
}

// CreateReconciliation creates a reconciliation draft
func (s *DraftService) CreateReconciliation(ctx context.Context, req CreateReconciliationRequest) (*voucher.StockReconciliation, error) {
	rec, err := voucher.NewStockReconciliation(req.VoucherNo, req.PostingDate, req.PostingTime)
	if err != nil {
		return nil, err
	}
	rec.Remarks = req.Remarks
	for _, row := range req.Rows {
		r, err := rec.AddRow(row.ItemID, row.WarehouseID, row.CountedQty, row.NewRate)
		if err != nil {
			return nil, err
		}
		r.BatchID = row.BatchID
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Reconciliations().Save(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("reconciliation draft created", zap.String("voucher_no", rec.VoucherNo))
	return rec, nil
}

// GetReconciliation loads a reconciliation with its rows
func (s *DraftService) GetReconciliation(ctx context.Context, id uuid.UUID) (*voucher.StockReconciliation, error) {
	var rec *voucher.StockReconciliation
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		rec, err = repos.Reconciliations().FindByID(ctx, id)
		return err
	})
	return rec, err
}

// LandedCostChargeRequest is one charge to distribute
type LandedCostChargeRequest struct {
	Description string          `json:"description" binding:"required,max=200"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
}

// LandedCostItemRequest references one receipt row the charges apply to
type LandedCostItemRequest struct {
	ReceiptVoucherNo string          `json:"receipt_voucher_no" binding:"required,max=50"`
	ReceiptRowID     uuid.UUID       `json:"receipt_row_id" binding:"required"`
	ItemID           uuid.UUID       `json:"item_id" binding:"required"`
	WarehouseID      uuid.UUID       `json:"warehouse_id" binding:"required"`
	Qty              decimal.Decimal `json:"qty" binding:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
}

// CreateLandedCostRequest creates a landed cost voucher draft
type CreateLandedCostRequest struct {
	VoucherNo   string                    `json:"voucher_no" binding:"required,max=50"`
	Method      string                    `json:"method" binding:"omitempty,oneof=AMOUNT QTY"`
	PostingDate time.Time                 `json:"posting_date" binding:"required"`
	PostingTime time.Time                 `json:"posting_time" binding:"required"`
	Remarks     string                    `json:"remarks"`
	Charges     []LandedCostChargeRequest `json:"charges" binding:"required,min=1,dive"`
	Items       []LandedCostItemRequest   `json:"items" binding:"required,min=1,dive"`
}

// CreateLandedCost creates a landed cost voucher draft
func (s *DraftService) CreateLandedCost(ctx context.Context, req CreateLandedCostRequest) (*voucher.LandedCostVoucher, error) {
	method := voucher.DistributionMethod(req.Method)
	if req.Method == "" {
		method = voucher.DistributeByAmount
	}
	lcv, err := voucher.NewLandedCostVoucher(req.VoucherNo, method, req.PostingDate, req.PostingTime)
	if err != nil {
		return nil, err
	}
	lcv.Remarks = req.Remarks
	for _, charge := range req.Charges {
		if err := lcv.AddCharge(charge.Description, charge.Amount); err != nil {
			return nil, err
		}
	}
	for _, item := range req.Items {
		err := lcv.AddItem(item.ReceiptVoucherNo, item.ReceiptRowID, item.ItemID, item.WarehouseID, item.Qty, item.Amount)
		if err != nil {
			return nil, err
		}
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.LandedCosts().Save(ctx, lcv)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("landed cost draft created", zap.String("voucher_no", lcv.VoucherNo))
	return lcv, nil
}

// GetLandedCost loads a landed cost voucher with charges and items
func (s *DraftService) GetLandedCost(ctx context.Context, id uuid.UUID) (*voucher.LandedCostVoucher, error) {
	var lcv *voucher.LandedCostVoucher
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		lcv, err = repos.LandedCosts().FindByID(ctx, id)
		return err
	})
	return lcv, err
}
