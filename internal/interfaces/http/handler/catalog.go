package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/application/stock"
	"github.com/stockcore/backend/internal/domain/catalog"
)

// CatalogHandler handles item, warehouse, batch and UOM conversion endpoints
type CatalogHandler struct {
	BaseHandler
	catalog *stock.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService *stock.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalogService}
}

// RegisterRoutes registers catalog routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	items := rg.Group("/items")
	{
		items.POST("", h.CreateItem)
		items.POST("/:id/variants", h.CreateVariant)
		items.PUT("/:id/valuation-method", h.SetValuationMethod)
		items.POST("/:id/disable", h.DisableItem)
		items.GET("/:id/convert", h.ConvertQty)
	}

	rg.POST("/warehouses", h.CreateWarehouse)
	rg.POST("/batches", h.CreateBatch)
	rg.POST("/uoms", h.RegisterUOM)
	rg.POST("/uom-conversions", h.AddConversion)
}

// ItemResponse represents an item in API responses
type ItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	StockUOM          string          `json:"stock_uom"`
	AltUOM            string          `json:"alt_uom,omitempty"`
	AltUOMSize        decimal.Decimal `json:"alt_uom_size"`
	ValuationMethod   string          `json:"valuation_method,omitempty"`
	HasBatchNo        bool            `json:"has_batch_no"`
	HasSerialNo       bool            `json:"has_serial_no"`
	HasVariants       bool            `json:"has_variants"`
	VariantOf         *uuid.UUID      `json:"variant_of,omitempty"`
	BatchNumberSeries string          `json:"batch_number_series,omitempty"`
	ShelfLifeDays     int             `json:"shelf_life_days"`
	Disabled          bool            `json:"disabled"`
}

func toItemResponse(item *catalog.Item) ItemResponse {
	return ItemResponse{
		ID:                item.ID,
		Code:              item.Code,
		Name:              item.Name,
		StockUOM:          item.StockUOM,
		AltUOM:            item.AltUOM,
		AltUOMSize:        item.AltUOMSize,
		ValuationMethod:   string(item.ValuationMethod),
		HasBatchNo:        item.HasBatchNo,
		HasSerialNo:       item.HasSerialNo,
		HasVariants:       item.HasVariants,
		VariantOf:         item.VariantOf,
		BatchNumberSeries: item.BatchNumberSeries,
		ShelfLifeDays:     item.ShelfLifeDays,
		Disabled:          item.Disabled,
	}
}

// CreateItem creates a stock item
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req stock.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	item, err := h.catalog.CreateItem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toItemResponse(item))
}

// CreateVariantRequest creates a variant under a template item
type CreateVariantRequest struct {
	Code string `json:"code" binding:"required,max=50"`
	Name string `json:"name" binding:"required,max=200"`
}

// CreateVariant creates a variant of a template item
func (h *CatalogHandler) CreateVariant(c *gin.Context) {
	templateID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req CreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	variant, err := h.catalog.CreateVariant(c.Request.Context(), templateID, req.Code, req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toItemResponse(variant))
}

// SetValuationMethodRequest changes an item's costing method
type SetValuationMethodRequest struct {
	Method string `json:"method" binding:"required,oneof=FIFO MOVING_AVERAGE"`
}

// SetValuationMethod changes an item's valuation method
func (h *CatalogHandler) SetValuationMethod(c *gin.Context) {
	itemID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req SetValuationMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	err := h.catalog.SetValuationMethod(c.Request.Context(), itemID, catalog.ValuationMethod(req.Method))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// DisableItem disables an item
func (h *CatalogHandler) DisableItem(c *gin.Context) {
	itemID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DisableItem(c.Request.Context(), itemID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ConvertQtyResponse is the result of a unit conversion
type ConvertQtyResponse struct {
	ItemID  uuid.UUID       `json:"item_id"`
	Qty     decimal.Decimal `json:"qty"`
	FromUOM string          `json:"from_uom"`
	ToUOM   string          `json:"to_uom"`
	Result  decimal.Decimal `json:"result"`
}

// ConvertQty converts a quantity between two units of an item
func (h *CatalogHandler) ConvertQty(c *gin.Context) {
	itemID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		h.BadRequest(c, "Query parameters from and to are required")
		return
	}
	qty, err := decimal.NewFromString(c.DefaultQuery("qty", "1"))
	if err != nil {
		h.BadRequest(c, "Invalid qty format")
		return
	}

	result, err := h.catalog.ConvertQty(c.Request.Context(), itemID, qty, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ConvertQtyResponse{
		ItemID:  itemID,
		Qty:     qty,
		FromUOM: from,
		ToUOM:   to,
		Result:  result,
	})
}

// CreateWarehouseRequest creates a warehouse
type CreateWarehouseRequest struct {
	Code     string     `json:"code" binding:"required,max=50"`
	Name     string     `json:"name" binding:"required,max=200"`
	IsGroup  bool       `json:"is_group"`
	ParentID *uuid.UUID `json:"parent_id"`
}

// WarehouseResponse represents a warehouse in API responses
type WarehouseResponse struct {
	ID       uuid.UUID  `json:"id"`
	Code     string     `json:"code"`
	Name     string     `json:"name"`
	IsGroup  bool       `json:"is_group"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	Disabled bool       `json:"disabled"`
}

// CreateWarehouse creates a warehouse
func (h *CatalogHandler) CreateWarehouse(c *gin.Context) {
	var req CreateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	warehouse, err := h.catalog.CreateWarehouse(c.Request.Context(), req.Code, req.Name, req.IsGroup, req.ParentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, WarehouseResponse{
		ID:       warehouse.ID,
		Code:     warehouse.Code,
		Name:     warehouse.Name,
		IsGroup:  warehouse.IsGroup,
		ParentID: warehouse.ParentID,
		Disabled: warehouse.Disabled,
	})
}

// BatchResponse represents a batch in API responses
type BatchResponse struct {
	ID                 uuid.UUID  `json:"id"`
	BatchID            string     `json:"batch_id"`
	ItemID             uuid.UUID  `json:"item_id"`
	ManufacturingDate  *time.Time `json:"manufacturing_date,omitempty"`
	ExpiryDate         *time.Time `json:"expiry_date,omitempty"`
	Disabled           bool       `json:"disabled"`
	ReservedForOrderID *uuid.UUID `json:"reserved_for_order_id,omitempty"`
}

// CreateBatch creates a batch
func (h *CatalogHandler) CreateBatch(c *gin.Context) {
	var req stock.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batch, err := h.catalog.CreateBatch(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, BatchResponse{
		ID:                batch.ID,
		BatchID:           batch.BatchID,
		ItemID:            batch.ItemID,
		ManufacturingDate:  batch.ManufacturingDate,
		ExpiryDate:         batch.ExpiryDate,
		Disabled:           batch.Disabled,
		ReservedForOrderID: batch.ReservedForOrderID,
	})
}

// RegisterUOMRequest creates or updates a UOM record
type RegisterUOMRequest struct {
	Code              string `json:"code" binding:"required,max=20"`
	Name              string `json:"name" binding:"max=50"`
	MustBeWholeNumber bool   `json:"must_be_whole_number"`
}

// UOMResponse represents a UOM in API responses
type UOMResponse struct {
	ID                uuid.UUID `json:"id"`
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	MustBeWholeNumber bool      `json:"must_be_whole_number"`
}

// RegisterUOM creates or updates a UOM record
func (h *CatalogHandler) RegisterUOM(c *gin.Context) {
	var req RegisterUOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	uom, err := h.catalog.RegisterUOM(c.Request.Context(), req.Code, req.Name, req.MustBeWholeNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, UOMResponse{
		ID:                uom.ID,
		Code:              uom.Code,
		Name:              uom.Name,
		MustBeWholeNumber: uom.MustBeWholeNumber,
	})
}

// AddConversionRequest adds a UOM conversion edge. ItemID empty means the
// edge is global.
type AddConversionRequest struct {
	ItemID  *uuid.UUID      `json:"item_id"`
	FromUOM string          `json:"from_uom" binding:"required,max=20"`
	ToUOM   string          `json:"to_uom" binding:"required,max=20"`
	Factor  decimal.Decimal `json:"factor" binding:"required"`
}

// AddConversion adds a UOM conversion edge
func (h *CatalogHandler) AddConversion(c *gin.Context) {
	var req AddConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	err := h.catalog.AddConversion(c.Request.Context(), req.ItemID, req.FromUOM, req.ToUOM, req.Factor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
