package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/application/stock"
	"github.com/stockcore/backend/internal/domain/ledger"
)

// QueryHandler handles stock balance and ledger read endpoints
type QueryHandler struct {
	BaseHandler
	query *stock.QueryService
}

// NewQueryHandler creates a new QueryHandler
func NewQueryHandler(queryService *stock.QueryService) *QueryHandler {
	return &QueryHandler{query: queryService}
}

// RegisterRoutes registers query routes
func (h *QueryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stockGroup := rg.Group("/stock")
	{
		stockGroup.GET("/balance", h.StockBalance)
		stockGroup.GET("/batch-balance", h.BatchBalance)
		stockGroup.GET("/bin", h.Bin)
		stockGroup.GET("/bins/:item_id", h.ItemBins)
		stockGroup.GET("/ledger", h.VoucherLedger)
		stockGroup.GET("/fifo-layers", h.FIFOLayers)
		stockGroup.GET("/incoming-rate", h.IncomingRate)
		stockGroup.GET("/last-purchase-rate", h.LastPurchaseRate)
	}
}

// asOfQuery parses the optional as_of query parameter, defaulting to now
func (h *QueryHandler) asOfQuery(c *gin.Context) (time.Time, bool) {
	raw := c.Query("as_of")
	if raw == "" {
		return time.Now().UTC(), true
	}
	asOf, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		h.BadRequest(c, "Invalid as_of format, expected RFC 3339")
		return time.Time{}, false
	}
	return asOf, true
}

// boolQuery parses an optional boolean query parameter
func (h *QueryHandler) boolQuery(c *gin.Context, name string) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return false, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" value, expected a boolean")
		return false, false
	}
	return value, true
}

// StockBalance returns the quantity of an (item, warehouse) pair as of an
// instant, with optional valuation and serial detail
func (h *QueryHandler) StockBalance(c *gin.Context) {
	itemID, ok := h.uuidQuery(c, "item_id")
	if !ok {
		return
	}
	warehouseID, ok := h.uuidQuery(c, "warehouse_id")
	if !ok {
		return
	}
	asOf, ok := h.asOfQuery(c)
	if !ok {
		return
	}
	withValuation, ok := h.boolQuery(c, "with_valuation")
	if !ok {
		return
	}
	withSerial, ok := h.boolQuery(c, "with_serial")
	if !ok {
		return
	}

	balance, err := h.query.StockBalance(c.Request.Context(), itemID, warehouseID, asOf, withValuation, withSerial)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// BatchBalance returns the live balance of one batch in a warehouse
func (h *QueryHandler) BatchBalance(c *gin.Context) {
	itemID, ok := h.uuidQuery(c, "item_id")
	if !ok {
		return
	}
	warehouseID, ok := h.uuidQuery(c, "warehouse_id")
	if !ok {
		return
	}
	batchID, ok := h.uuidQuery(c, "batch_id")
	if !ok {
		return
	}

	balance, err := h.query.BatchBalance(c.Request.Context(), itemID, warehouseID, batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// Bin returns the denormalized bin of an (item, warehouse) pair
func (h *QueryHandler) Bin(c *gin.Context) {
	itemID, ok := h.uuidQuery(c, "item_id")
	if !ok {
		return
	}
	warehouseID, ok := h.uuidQuery(c, "warehouse_id")
	if !ok {
		return
	}

	bin, err := h.query.Bin(c.Request.Context(), itemID, warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bin)
}

// ItemBins returns all bins of an item across warehouses
func (h *QueryHandler) ItemBins(c *gin.Context) {
	itemID, ok := h.uuidParam(c, "item_id")
	if !ok {
		return
	}

	bins, err := h.query.ItemBins(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bins)
}

// VoucherLedger returns the live ledger entries of one voucher
func (h *QueryHandler) VoucherLedger(c *gin.Context) {
	voucherType := c.Query("voucher_type")
	voucherNo := c.Query("voucher_no")
	if voucherType == "" || voucherNo == "" {
		h.BadRequest(c, "Query parameters voucher_type and voucher_no are required")
		return
	}

	entries, err := h.query.VoucherLedger(c.Request.Context(), ledger.VoucherType(voucherType), voucherNo)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// FIFOLayers returns the live cost layers of a FIFO-valued pair
func (h *QueryHandler) FIFOLayers(c *gin.Context) {
	itemID, ok := h.uuidQuery(c, "item_id")
	if !ok {
		return
	}
	warehouseID, ok := h.uuidQuery(c, "warehouse_id")
	if !ok {
		return
	}
	asOf, ok := h.asOfQuery(c)
	if !ok {
		return
	}

	layers, err := h.query.FIFOLayers(c.Request.Context(), itemID, warehouseID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, layers)
}

// IncomingRateResponse is the estimated valuation of a prospective issue
type IncomingRateResponse struct {
	ItemID      uuid.UUID       `json:"item_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	BatchID     *uuid.UUID      `json:"batch_id,omitempty"`
	AsOf        time.Time       `json:"as_of"`
	Rate        decimal.Decimal `json:"rate"`
}

// IncomingRate estimates the rate an issue posted now would carry
func (h *QueryHandler) IncomingRate(c *gin.Context) {
	itemID, ok := h.uuidQuery(c, "item_id")
	if !ok {
		return
	}
	warehouseID, ok := h.uuidQuery(c, "warehouse_id")
	if !ok {
		return
	}
	asOf, ok := h.asOfQuery(c)
	if !ok {
		return
	}
	var batchID *uuid.UUID
	if raw := c.Query("batch_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid batch_id format")
			return
		}
		batchID = &parsed
	}

	rate, err := h.query.IncomingRateEstimate(c.Request.Context(), itemID, warehouseID, batchID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, IncomingRateResponse{
		ItemID:      itemID,
		WarehouseID: warehouseID,
		BatchID:     batchID,
		AsOf:        asOf,
		Rate:        rate,
	})
}

// LastPurchaseRate returns the most recent purchase price of an item
func (h *QueryHandler) LastPurchaseRate(c *gin.Context) {
	itemID, ok := h.uuidQuery(c, "item_id")
	if !ok {
		return
	}

	last, err := h.query.LastPurchaseRate(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, last)
}
