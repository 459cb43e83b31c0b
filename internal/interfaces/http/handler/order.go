package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/application/stock"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// OrderHandler handles purchase and sales order endpoints
type OrderHandler struct {
	BaseHandler
	drafts     *stock.DraftService
	submission *stock.SubmissionService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(drafts *stock.DraftService, submission *stock.SubmissionService) *OrderHandler {
	return &OrderHandler{drafts: drafts, submission: submission}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.Create)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/submit", h.Submit)
		orders.POST("/:id/cancel", h.Cancel)
		orders.POST("/:id/close", h.Close)
		orders.POST("/:id/reopen", h.Reopen)
	}
}

// OrderRowResponse is one row of an order in API responses
type OrderRowResponse struct {
	ID           uuid.UUID       `json:"id"`
	Idx          int             `json:"idx"`
	ItemID       uuid.UUID       `json:"item_id"`
	WarehouseID  uuid.UUID       `json:"warehouse_id"`
	Qty          decimal.Decimal `json:"qty"`
	Rate         decimal.Decimal `json:"rate"`
	DeliveredQty decimal.Decimal `json:"delivered_qty"`
	BilledQty    decimal.Decimal `json:"billed_qty"`
	ReturnedQty  decimal.Decimal `json:"returned_qty"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID          `json:"id"`
	Kind            string             `json:"kind"`
	OrderNo         string             `json:"order_no"`
	PartyID         uuid.UUID          `json:"party_id"`
	TransactionDate time.Time          `json:"transaction_date"`
	DocStatus       string             `json:"doc_status"`
	Status          string             `json:"status"`
	Closed          bool               `json:"closed"`
	PerDelivered    decimal.Decimal    `json:"per_delivered"`
	PerBilled       decimal.Decimal    `json:"per_billed"`
	Rows            []OrderRowResponse `json:"rows"`
}

func toOrderResponse(order *voucher.Order) OrderResponse {
	rows := make([]OrderRowResponse, 0, len(order.Rows))
	for _, row := range order.Rows {
		rows = append(rows, OrderRowResponse{
			ID:           row.ID,
			Idx:          row.Idx,
			ItemID:       row.ItemID,
			WarehouseID:  row.WarehouseID,
			Qty:          row.Qty,
			Rate:         row.Rate,
			DeliveredQty: row.DeliveredQty,
			BilledQty:    row.BilledQty,
			ReturnedQty:  row.ReturnedQty,
		})
	}
	return OrderResponse{
		ID:              order.ID,
		Kind:            string(order.Kind),
		OrderNo:         order.OrderNo,
		PartyID:         order.PartyID,
		TransactionDate: order.TransactionDate,
		DocStatus:       order.DocStatus.String(),
		Status:          order.Status.String(),
		Closed:          order.Closed,
		PerDelivered:    order.PerDelivered,
		PerBilled:       order.PerBilled,
		Rows:            rows,
	}
}

// Create creates an order draft
func (h *OrderHandler) Create(c *gin.Context) {
	var req stock.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.drafts.CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toOrderResponse(order))
}

// Get returns an order with its rows and fulfillment state
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.drafts.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(order))
}

// Submit submits an order, reserving or ordering stock in bins
func (h *OrderHandler) Submit(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.SubmitOrder(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Cancel cancels an order
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.CancelOrder(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Close closes an order short, releasing its open quantities
func (h *OrderHandler) Close(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.CloseOrder(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Reopen reopens a closed order
func (h *OrderHandler) Reopen(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.submission.ReopenOrder(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
