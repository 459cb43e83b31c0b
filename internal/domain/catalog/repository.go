package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ItemRepository is the persistence port for the Item aggregate
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	FindByCode(ctx context.Context, code string) (*Item, error)
	Save(ctx context.Context, item *Item) error
	ListVariants(ctx context.Context, templateID uuid.UUID) ([]*Item, error)
}

// WarehouseRepository is the persistence port for warehouses
type WarehouseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)
	FindByCode(ctx context.Context, code string) (*Warehouse, error)
	Save(ctx context.Context, warehouse *Warehouse) error
	// Descendants returns the warehouses under a group warehouse,
	// including the node itself when it is a leaf.
	Descendants(ctx context.Context, id uuid.UUID) ([]*Warehouse, error)
}

// BatchRepository is the persistence port for batches. It doubles as the
// naming sequence for auto-generated batch numbers.
type BatchRepository interface {
	BatchSequence
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	FindByBatchID(ctx context.Context, batchID string) (*Batch, error)
	Save(ctx context.Context, batch *Batch) error
	ForItem(ctx context.Context, itemID uuid.UUID) ([]*Batch, error)
}

// SerialRepository is the persistence port for serial numbers
type SerialRepository interface {
	FindBySerial(ctx context.Context, serial string) (*SerialNo, error)
	Save(ctx context.Context, serial *SerialNo) error
	// InStock returns the on-hand serials of the item in a warehouse,
	// the pool automatic allocation draws from.
	InStock(ctx context.Context, itemID, warehouseID uuid.UUID) ([]*SerialNo, error)
}

// ConversionRepository loads the UOM table and the conversion edges the
// graph is built from: the global table plus the per-item overlay.
type ConversionRepository interface {
	GlobalEdges(ctx context.Context) ([]UOMConversion, error)
	ItemEdges(ctx context.Context, itemID uuid.UUID) ([]UOMConversion, error)
	SaveEdge(ctx context.Context, edge *UOMConversion) error
	// FindUOM returns the UOM record by code, ErrNotFound for codes that
	// were never registered. Unregistered codes carry no restrictions.
	FindUOM(ctx context.Context, code string) (*UOM, error)
	SaveUOM(ctx context.Context, uom *UOM) error
}
