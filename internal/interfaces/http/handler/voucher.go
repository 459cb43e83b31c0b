package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/application/stock"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// VoucherHandler handles the stock voucher endpoints: purchase receipts,
// delivery notes, invoices, stock entries, reconciliations and landed cost
// vouchers. Each voucher type supports create (draft), get, submit, cancel.
type VoucherHandler struct {
	BaseHandler
	drafts     *stock.DraftService
	submission *stock.SubmissionService
}

// NewVoucherHandler creates a new VoucherHandler
func NewVoucherHandler(drafts *stock.DraftService, submission *stock.SubmissionService) *VoucherHandler {
	return &VoucherHandler{drafts: drafts, submission: submission}
}

// RegisterRoutes registers voucher routes
func (h *VoucherHandler) RegisterRoutes(rg *gin.RouterGroup) {
	receipts := rg.Group("/purchase-receipts")
	{
		receipts.POST("", h.CreatePurchaseReceipt)
		receipts.GET("/:id", h.GetPurchaseReceipt)
		receipts.POST("/:id/submit", h.SubmitPurchaseReceipt)
		receipts.POST("/:id/cancel", h.CancelPurchaseReceipt)
	}

	deliveries := rg.Group("/delivery-notes")
	{
		deliveries.POST("", h.CreateDeliveryNote)
		deliveries.GET("/:id", h.GetDeliveryNote)
		deliveries.POST("/:id/submit", h.SubmitDeliveryNote)
		deliveries.POST("/:id/cancel", h.CancelDeliveryNote)
	}

	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.CreateInvoice)
		invoices.GET("/:id", h.GetInvoice)
		invoices.POST("/:id/submit", h.SubmitInvoice)
		invoices.POST("/:id/cancel", h.CancelInvoice)
	}

	entries := rg.Group("/stock-entries")
	{
		entries.POST("", h.CreateStockEntry)
		entries.GET("/:id", h.GetStockEntry)
		entries.POST("/:id/submit", h.SubmitStockEntry)
		entries.POST("/:id/cancel", h.CancelStockEntry)
	}

	recos := rg.Group("/reconciliations")
	{
		recos.POST("", h.CreateReconciliation)
		recos.GET("/:id", h.GetReconciliation)
		recos.POST("/:id/submit", h.SubmitReconciliation)
		recos.POST("/:id/cancel", h.CancelReconciliation)
	}

	landedCosts := rg.Group("/landed-costs")
	{
		landedCosts.POST("", h.CreateLandedCost)
		landedCosts.GET("/:id", h.GetLandedCost)
		landedCosts.POST("/:id/submit", h.SubmitLandedCost)
		landedCosts.POST("/:id/cancel", h.CancelLandedCost)
	}
}

// VoucherHeaderResponse carries the fields shared by every stock voucher
type VoucherHeaderResponse struct {
	ID          uuid.UUID `json:"id"`
	VoucherNo   string    `json:"voucher_no"`
	PostingDate time.Time `json:"posting_date"`
	PostingTime time.Time `json:"posting_time"`
	DocStatus   string    `json:"doc_status"`
	Remarks     string    `json:"remarks,omitempty"`
}

// StockRowResponse is one item row of a stock voucher
type StockRowResponse struct {
	ID          uuid.UUID       `json:"id"`
	Idx         int             `json:"idx"`
	ItemID      uuid.UUID       `json:"item_id"`
	WarehouseID *uuid.UUID      `json:"warehouse_id,omitempty"`
	Qty         decimal.Decimal `json:"qty"`
	Rate        decimal.Decimal `json:"rate"`
	BatchID     *uuid.UUID      `json:"batch_id,omitempty"`
	SerialNos   string          `json:"serial_nos,omitempty"`
}

// PurchaseReceiptResponse represents a purchase receipt in API responses
type PurchaseReceiptResponse struct {
	VoucherHeaderResponse
	SupplierID    uuid.UUID          `json:"supplier_id"`
	IsReturn      bool               `json:"is_return"`
	ReturnAgainst string             `json:"return_against,omitempty"`
	Rows          []StockRowResponse `json:"rows"`
}

func toPurchaseReceiptResponse(r *voucher.PurchaseReceipt) PurchaseReceiptResponse {
	rows := make([]StockRowResponse, 0, len(r.Rows))
	for _, row := range r.Rows {
		wh := row.WarehouseID
		rows = append(rows, StockRowResponse{
			ID:          row.ID,
			Idx:         row.Idx,
			ItemID:      row.ItemID,
			WarehouseID: &wh,
			Qty:         row.Qty,
			Rate:        row.Rate,
			BatchID:     row.BatchID,
			SerialNos:   row.SerialNos,
		})
	}
	return PurchaseReceiptResponse{
		VoucherHeaderResponse: VoucherHeaderResponse{
			ID:          r.ID,
			VoucherNo:   r.VoucherNo,
			PostingDate: r.PostingDate,
			PostingTime: r.PostingTime,
			DocStatus:   r.DocStatus.String(),
			Remarks:     r.Remarks,
		},
		SupplierID:    r.SupplierID,
		IsReturn:      r.IsReturn,
		ReturnAgainst: r.ReturnAgainst,
		Rows:          rows,
	}
}

// CreatePurchaseReceipt creates a purchase receipt draft
func (h *VoucherHandler) CreatePurchaseReceipt(c *gin.Context) {
	var req stock.CreatePurchaseReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	receipt, err := h.drafts.CreatePurchaseReceipt(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPurchaseReceiptResponse(receipt))
}

// GetPurchaseReceipt returns a purchase receipt with its rows
func (h *VoucherHandler) GetPurchaseReceipt(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	receipt, err := h.drafts.GetPurchaseReceipt(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPurchaseReceiptResponse(receipt))
}

// SubmitPurchaseReceipt submits a purchase receipt, writing ledger entries
func (h *VoucherHandler) SubmitPurchaseReceipt(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.SubmitPurchaseReceipt(c.Request.Context(), id, getRoles(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CancelPurchaseReceipt cancels a submitted purchase receipt
func (h *VoucherHandler) CancelPurchaseReceipt(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.CancelPurchaseReceipt(c.Request.Context(), id, getRoles(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// DeliveryNoteResponse represents a delivery note in API responses
type DeliveryNoteResponse struct {
	VoucherHeaderResponse
	CustomerID    uuid.UUID          `json:"customer_id"`
	IsReturn      bool               `json:"is_return"`
	ReturnAgainst string             `json:"return_against,omitempty"`
	Rows          []StockRowResponse `json:"rows"`
}

func toDeliveryNoteResponse(n *voucher.DeliveryNote) DeliveryNoteResponse {
	rows := make([]StockRowResponse, 0, len(n.Rows))
	for _, row := range n.Rows {
		wh := row.WarehouseID
		rows = append(rows, StockRowResponse{
			ID:          row.ID,
			Idx:         row.Idx,
			ItemID:      row.ItemID,
			WarehouseID: &wh,
			Qty:         row.Qty,
			Rate:        row.Rate,
			BatchID:     row.BatchID,
			SerialNos:   row.SerialNos,
		})
	}
	return DeliveryNoteResponse{
		VoucherHeaderResponse: VoucherHeaderResponse{
			ID:          n.ID,
			VoucherNo:   n.VoucherNo,
			PostingDate: n.PostingDate,
			PostingTime: n.PostingTime,
			DocStatus:   n.DocStatus.String(),
			Remarks:     n.Remarks,
		},
		CustomerID:    n.CustomerID,
		IsReturn:      n.IsReturn,
		ReturnAgainst: n.ReturnAgainst,
		Rows:          rows,
	}
}

// CreateDeliveryNote creates a delivery note draft
func (h *VoucherHandler) CreateDeliveryNote(c *gin.Context) {
	var req stock.CreateDeliveryNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	note, err := h.drafts.CreateDeliveryNote(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toDeliveryNoteResponse(note))
}

// GetDeliveryNote returns a delivery note with its rows, including the
// batch split chosen at submission
func (h *VoucherHandler) GetDeliveryNote(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	note, err := h.drafts.GetDeliveryNote(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDeliveryNoteResponse(note))
}

// SubmitDeliveryNote submits a delivery note, allocating batches and serials
func (h *VoucherHandler) SubmitDeliveryNote(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.SubmitDeliveryNote(c.Request.Context(), id, getRoles(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CancelDeliveryNote cancels a submitted delivery note
func (h *VoucherHandler) CancelDeliveryNote(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.CancelDeliveryNote(c.Request.Context(), id, getRoles(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	VoucherHeaderResponse
	Kind        string             `json:"kind"`
	PartyID     uuid.UUID          `json:"party_id"`
	UpdateStock bool               `json:"update_stock"`
	IsReturn    bool               `json:"is_return"`
	Rows        []StockRowResponse `json:"rows"`
}

func toInvoiceResponse(inv *voucher.Invoice) InvoiceResponse {
	rows := make([]StockRowResponse, 0, len(inv.Rows))
	for _, row := range inv.Rows {
		rows = append(rows, StockRowResponse{
			ID:          row.ID,
			Idx:         row.Idx,
			ItemID:      row.ItemID,
			WarehouseID: row.WarehouseID,
			Qty:         row.Qty,
			Rate:        row.Rate,
			BatchID:     row.BatchID,
			SerialNos:   row.SerialNos,
		})
	}
	return InvoiceResponse{
		VoucherHeaderResponse: VoucherHeaderResponse{
			ID:          inv.ID,
			VoucherNo:   inv.VoucherNo,
			PostingDate: inv.PostingDate,
			PostingTime: inv.PostingTime,
			DocStatus:   inv.DocStatus.String(),
			Remarks:     inv.Remarks,
		},
		Kind:        string(inv.Kind),
		PartyID:     inv.PartyID,
		UpdateStock: inv.UpdateStock,
		IsReturn:    inv.IsReturn,
		Rows:        rows,
	}
}

// CreateInvoice creates an invoice draft
func (h *VoucherHandler) CreateInvoice(c *gin.Context) {
	var req stock.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	inv, err := h.drafts.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toInvoiceResponse(inv))
}

// GetInvoice returns an invoice with its rows
func (h *VoucherHandler) GetInvoice(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	inv, err := h.drafts.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(inv))
}

// SubmitInvoice submits an invoice, writing ledger entries when it updates
// stock and refreshing billing status on linked orders
func (h *VoucherHandler) SubmitInvoice(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.SubmitInvoice(c.Request.Context(), id, getRoles(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CancelInvoice cancels a submitted invoice
func (h *VoucherHandler) CancelInvoice(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.CancelInvoice(c.Request.Context(), id, getRoles(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// StockEntryRowResponse is one row of a stock entry
type StockEntryRowResponse struct {
	ID                uuid.UUID       `json:"id"`
	Idx               int             `json:"idx"`
	ItemID            uuid.UUID       `json:"item_id"`
	SourceWarehouseID *uuid.UUID      `json:"source_warehouse_id,omitempty"`
	TargetWarehouseID *uuid.UUID      `json:"target_warehouse_id,omitempty"`
	Qty               decimal.Decimal `json:"qty"`
	BasicRate         decimal.Decimal `json:"basic_rate"`
	BatchID           *uuid.UUID      `json:"batch_id,omitempty"`
	SerialNos         string          `json:"serial_nos,omitempty"`
}

// StockEntryResponse represents a stock entry in API responses
type StockEntryResponse struct {
	VoucherHeaderResponse
	Purpose string                  `json:"purpose"`
	Rows    []StockEntryRowResponse `json:"rows"`
}

func toStockEntryResponse(e *voucher.StockEntry) StockEntryResponse {
	rows := make([]StockEntryRowResponse, 0, len(e.Rows))
	for _, row := range e.Rows {
		rows = append(rows, StockEntryRowResponse{
			ID:                row.ID,
			Idx:               row.Idx,
			ItemID:            row.ItemID,
			SourceWarehouseID: row.SourceWarehouseID,
			TargetWarehouseID: row.TargetWarehouseID,
			Qty:               row.Qty,
			BasicRate:         row.BasicRate,
			BatchID:           row.BatchID,
			SerialNos:         row.SerialNos,
		})
	}
	return StockEntryResponse{
		VoucherHeaderResponse: VoucherHeaderResponse{
			ID:          e.ID,
			VoucherNo:   e.VoucherNo,
			PostingDate: e.PostingDate,
			PostingTime: e.PostingTime,
			DocStatus:   e.DocStatus.String(),
			Remarks:     e.Remarks,
		},
		Purpose: string(e.Purpose),
		Rows:    rows,
	}
}

// CreateStockEntry creates a stock entry draft
func (h *VoucherHandler) CreateStockEntry(c *gin.Context) {
	var req stock.CreateStockEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	entry, err := h.drafts.CreateStockEntry(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toStockEntryResponse(entry))
}

// GetStockEntry returns a stock entry with its rows
func (h *VoucherHandler) GetStockEntry(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	entry, err := h.drafts.GetStockEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toStockEntryResponse(entry))
}

// SubmitStockEntry submits a stock entry. Transfers value both legs, with
// the receiving leg priced off the issuing leg.
func (h *VoucherHandler) SubmitStockEntry(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.SubmitStockEntry(c.Request.Context(), id, getRoles(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CancelStockEntry cancels a submitted stock entry
func (h *VoucherHandler) CancelStockEntry(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.CancelStockEntry(c.Request.Context(), id, getRoles(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ReconciliationRowResponse is one counted row of a reconciliation
type ReconciliationRowResponse struct {
	ID          uuid.UUID        `json:"id"`
	Idx         int              `json:"idx"`
	ItemID      uuid.UUID        `json:"item_id"`
	WarehouseID uuid.UUID        `json:"warehouse_id"`
	BatchID     *uuid.UUID       `json:"batch_id,omitempty"`
	CountedQty  *decimal.Decimal `json:"counted_qty,omitempty"`
	NewRate     *decimal.Decimal `json:"new_rate,omitempty"`
	CurrentQty  decimal.Decimal  `json:"current_qty"`
	CurrentRate decimal.Decimal  `json:"current_rate"`
}

// ReconciliationResponse represents a reconciliation in API responses
type ReconciliationResponse struct {
	VoucherHeaderResponse
	Rows []ReconciliationRowResponse `json:"rows"`
}

func toReconciliationResponse(rec *voucher.StockReconciliation) ReconciliationResponse {
	rows := make([]ReconciliationRowResponse, 0, len(rec.Rows))
	for _, row := range rec.Rows {
		rows = append(rows, ReconciliationRowResponse{
			ID:          row.ID,
			Idx:         row.Idx,
			ItemID:      row.ItemID,
			WarehouseID: row.WarehouseID,
			BatchID:     row.BatchID,
			CountedQty:  row.CountedQty,
			NewRate:     row.NewRate,
			CurrentQty:  row.CurrentQty,
			CurrentRate: row.CurrentRate,
		})
	}
	return ReconciliationResponse{
		VoucherHeaderResponse: VoucherHeaderResponse{
			ID:          rec.ID,
			VoucherNo:   rec.VoucherNo,
			PostingDate: rec.PostingDate,
			PostingTime: rec.PostingTime,
			DocStatus:   rec.DocStatus.String(),
			Remarks:     rec.Remarks,
		},
		Rows: rows,
	}
}

// CreateReconciliation creates a stock reconciliation draft
func (h *VoucherHandler) CreateReconciliation(c *gin.Context) {
	var req stock.CreateReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	rec, err := h.drafts.CreateReconciliation(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toReconciliationResponse(rec))
}

// GetReconciliation returns a reconciliation with its rows, including the
// snapshot taken at submission
func (h *VoucherHandler) GetReconciliation(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	rec, err := h.drafts.GetReconciliation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReconciliationResponse(rec))
}

// SubmitReconciliation submits a reconciliation, forcing counted quantities
// and rates onto the ledger
func (h *VoucherHandler) SubmitReconciliation(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.SubmitReconciliation(c.Request.Context(), id, getRoles(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CancelReconciliation cancels a submitted reconciliation
func (h *VoucherHandler) CancelReconciliation(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.CancelReconciliation(c.Request.Context(), id, getRoles(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// LandedCostChargeResponse is one charge of a landed cost voucher
type LandedCostChargeResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// LandedCostItemResponse is one receipt row reference of a landed cost voucher
type LandedCostItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ReceiptVoucherNo string          `json:"receipt_voucher_no"`
	ReceiptRowID     uuid.UUID       `json:"receipt_row_id"`
	ItemID           uuid.UUID       `json:"item_id"`
	WarehouseID      uuid.UUID       `json:"warehouse_id"`
	Qty              decimal.Decimal `json:"qty"`
	Amount           decimal.Decimal `json:"amount"`
	ApplicableCharge decimal.Decimal `json:"applicable_charge"`
}

// LandedCostResponse represents a landed cost voucher in API responses
type LandedCostResponse struct {
	VoucherHeaderResponse
	Method  string                     `json:"method"`
	Charges []LandedCostChargeResponse `json:"charges"`
	Items   []LandedCostItemResponse   `json:"items"`
}

func toLandedCostResponse(lcv *voucher.LandedCostVoucher) LandedCostResponse {
	charges := make([]LandedCostChargeResponse, 0, len(lcv.Charges))
	for _, charge := range lcv.Charges {
		charges = append(charges, LandedCostChargeResponse{
			ID:          charge.ID,
			Description: charge.Description,
			Amount:      charge.Amount,
		})
	}
	items := make([]LandedCostItemResponse, 0, len(lcv.Items))
	for _, item := range lcv.Items {
		items = append(items, LandedCostItemResponse{
			ID:               item.ID,
			ReceiptVoucherNo: item.ReceiptVoucherNo,
			ReceiptRowID:     item.ReceiptRowID,
			ItemID:           item.ItemID,
			WarehouseID:      item.WarehouseID,
			Qty:              item.Qty,
			Amount:           item.Amount,
			ApplicableCharge: item.ApplicableCharge,
		})
	}
	return LandedCostResponse{
		VoucherHeaderResponse: VoucherHeaderResponse{
			ID:          lcv.ID,
			VoucherNo:   lcv.VoucherNo,
			PostingDate: lcv.PostingDate,
			PostingTime: lcv.PostingTime,
			DocStatus:   lcv.DocStatus.String(),
			Remarks:     lcv.Remarks,
		},
		Method:  string(lcv.Method),
		Charges: charges,
		Items:   items,
	}
}

// CreateLandedCost creates a landed cost voucher draft
func (h *VoucherHandler) CreateLandedCost(c *gin.Context) {
	var req stock.CreateLandedCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	lcv, err := h.drafts.CreateLandedCost(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toLandedCostResponse(lcv))
}

// GetLandedCost returns a landed cost voucher with charges and items
func (h *VoucherHandler) GetLandedCost(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	lcv, err := h.drafts.GetLandedCost(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toLandedCostResponse(lcv))
}

// SubmitLandedCost submits a landed cost voucher, revaluing the referenced
// receipt entries in place
func (h *VoucherHandler) SubmitLandedCost(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.SubmitLandedCost(c.Request.Context(), id, getRoles(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CancelLandedCost cancels a landed cost voucher, restoring original rates
func (h *VoucherHandler) CancelLandedCost(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.CancelLandedCost(c.Request.Context(), id, getRoles(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
