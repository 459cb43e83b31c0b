package stock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockcore/backend/internal/domain/catalog"
	"github.com/stockcore/backend/internal/domain/shared"
)

// CatalogService manages the reference data the ledger moves against:
// items, warehouses, batches and unit conversions. Valuation-affecting
// fields freeze once an item has ledger entries.
type CatalogService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewCatalogService creates a CatalogService
func NewCatalogService(scope TransactionScope, logger *zap.Logger) *CatalogService {
	return &CatalogService{scope: scope, logger: logger}
}

// CreateItemRequest creates a stock item
type CreateItemRequest struct {
	Code              string          `json:"code" binding:"required,max=50"`
	Name              string          `json:"name" binding:"required,max=200"`
	StockUOM          string          `json:"stock_uom" binding:"required,max=20"`
	ValuationMethod   string          `json:"valuation_method" binding:"omitempty,oneof=FIFO MOVING_AVERAGE"`
	HasBatchNo        bool            `json:"has_batch_no"`
	HasSerialNo       bool            `json:"has_serial_no"`
	HasVariants       bool            `json:"has_variants"`
	BatchNumberSeries string          `json:"batch_number_series" binding:"max=50"`
	ShelfLifeDays     int             `json:"shelf_life_days" binding:"min=0"`
	AltUOM            string          `json:"alt_uom" binding:"max=20"`
	AltUOMSize        decimal.Decimal `json:"alt_uom_size"`
}

// CreateItem creates an item
func (s *CatalogService) CreateItem(ctx context.Context, req CreateItemRequest) (*catalog.Item, error) {
	item, err := catalog.NewItem(req.Code, req.Name, req.StockUOM)
	if err != nil {
		return nil, err
	}
	item.HasBatchNo = req.HasBatchNo
	item.HasVariants = req.HasVariants
	item.BatchNumberSeries = req.BatchNumberSeries
	item.ShelfLifeDays = req.ShelfLifeDays
	item.ValuationMethod = catalog.ValuationMethod(req.ValuationMethod)
	if err := item.SetSerialized(req.HasSerialNo); err != nil {
		return nil, err
	}
	if req.AltUOM != "" {
		if err := item.SetAltUOM(req.AltUOM, req.AltUOMSize); err != nil {
			return nil, err
		}
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Items().Save(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("item created", zap.String("code", item.Code))
	return item, nil
}

// CreateVariant creates a variant under a template item
func (s *CatalogService) CreateVariant(ctx context.Context, templateID uuid.UUID, code, name string) (*catalog.Item, error) {
	var variant *catalog.Item
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		template, err := repos.Items().FindByID(ctx, templateID)
		if err != nil {
			return err
		}
		variant, err = catalog.NewVariant(template, code, name)
		if err != nil {
			return err
		}
		return repos.Items().Save(ctx, variant)
	})
	if err != nil {
		return nil, err
	}
	return variant, nil
}

// SetValuationMethod changes an item's costing method. Blocked once the
// item has ledger entries.
func (s *CatalogService) SetValuationMethod(ctx context.Context, itemID uuid.UUID, method catalog.ValuationMethod) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.Items().FindByID(ctx, itemID)
		if err != nil {
			return err
		}
		if err := item.EnsureMutable(catalog.FieldValuationMethod, repos.Ledger()); err != nil {
			return err
		}
		item.ValuationMethod = method
		item.IncrementVersion()
		return repos.Items().Save(ctx, item)
	})
}

// DisableItem disables an item; referenced items are never deleted
func (s *CatalogService) DisableItem(ctx context.Context, itemID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.Items().FindByID(ctx, itemID)
		if err != nil {
			return err
		}
		item.Disable()
		return repos.Items().Save(ctx, item)
	})
}

// CreateWarehouse creates a warehouse, optionally under a parent group
func (s *CatalogService) CreateWarehouse(ctx context.Context, code, name string, isGroup bool, parentID *uuid.UUID) (*catalog.Warehouse, error) {
	warehouse, err := catalog.NewWarehouse(code, name, isGroup)
	if err != nil {
		return nil, err
	}
	warehouse.ParentID = parentID
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if parentID != nil {
			parent, err := repos.Warehouses().FindByID(ctx, *parentID)
			if err != nil {
				return err
			}
			if !parent.IsGroup {
				return shared.NewDomainErrorf("INVALID_WAREHOUSE",
					"Parent warehouse %s is not a group", parent.Code)
			}
		}
		return repos.Warehouses().Save(ctx, warehouse)
	})
	if err != nil {
		return nil, err
	}
	return warehouse, nil
}

// CreateBatchRequest creates a batch, auto-naming it when BatchID is empty
type CreateBatchRequest struct {
	ItemID            uuid.UUID  `json:"item_id" binding:"required"`
	BatchID           string     `json:"batch_id" binding:"max=50"`
	ManufacturingDate *time.Time `json:"manufacturing_date"`
	ExpiryDate        *time.Time `json:"expiry_date"`

	// ReservedForOrderID earmarks the batch for a sales order at creation.
	ReservedForOrderID *uuid.UUID `json:"reserved_for_order_id"`
}

// CreateBatch creates a batch for a batched item
func (s *CatalogService) CreateBatch(ctx context.Context, req CreateBatchRequest) (*catalog.Batch, error) {
	var batch *catalog.Batch
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.Items().FindByID(ctx, req.ItemID)
		if err != nil {
			return err
		}

		if req.BatchID != "" {
			batch, err = catalog.NewBatch(req.BatchID, item)
		} else {
			batch, err = catalog.NewAutoNamedBatch(item, repos.Batches())
		}
		if err != nil {
			return err
		}
		batch.ManufacturingDate = req.ManufacturingDate
		batch.ReservedForOrderID = req.ReservedForOrderID
		if err := batch.SetExpiry(req.ExpiryDate, item); err != nil {
			return err
		}
		return repos.Batches().Save(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// RegisterUOM creates or updates a UOM record. The whole-number flag is
// enforced on every ledger movement of items stocked in that UOM.
func (s *CatalogService) RegisterUOM(ctx context.Context, code, name string, mustBeWholeNumber bool) (*catalog.UOM, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_UOM", "UOM code cannot be empty")
	}
	var uom *catalog.UOM
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.Conversions().FindUOM(ctx, code)
		switch {
		case err == nil:
			uom = existing
		case errors.Is(err, shared.ErrNotFound):
			uom = &catalog.UOM{BaseEntity: shared.NewBaseEntity(), Code: code}
		default:
			return err
		}
		uom.Name = name
		uom.MustBeWholeNumber = mustBeWholeNumber
		return repos.Conversions().SaveUOM(ctx, uom)
	})
	if err != nil {
		return nil, err
	}
	return uom, nil
}

// AddConversion adds a UOM conversion edge, rejecting edges that would make
// the graph ambiguous for the item.
func (s *CatalogService) AddConversion(ctx context.Context, itemID *uuid.UUID, fromUOM, toUOM string, factor decimal.Decimal) error {
	edge, err := catalog.NewUOMConversion(itemID, fromUOM, toUOM, factor)
	if err != nil {
		return err
	}
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if itemID != nil {
			item, err := repos.Items().FindByID(ctx, *itemID)
			if err != nil {
				return err
			}
			global, err := repos.Conversions().GlobalEdges(ctx)
			if err != nil {
				return err
			}
			// Rebuild the combined graph before persisting the edge.
			item.Conversions = append(item.Conversions, *edge)
			if _, err := catalog.NewConversionGraph(item, global); err != nil {
				return err
			}
		}
		return repos.Conversions().SaveEdge(ctx, edge)
	})
}

// ConvertQty converts a quantity between two units of an item
func (s *CatalogService) ConvertQty(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal, fromUOM, toUOM string) (decimal.Decimal, error) {
	result := decimal.Zero
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.Items().FindByID(ctx, itemID)
		if err != nil {
			return err
		}
		global, err := repos.Conversions().GlobalEdges(ctx)
		if err != nil {
			return err
		}
		graph, err := catalog.NewConversionGraph(item, global)
		if err != nil {
			return err
		}
		result, err = graph.Convert(qty, fromUOM, toUOM, false)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return result, nil
}
