package allocation

import (
	"sort"

	"github.com/google/uuid"

	"github.com/stockcore/backend/internal/domain/catalog"
	"github.com/stockcore/backend/internal/domain/shared"
)

// SerialAllocator picks serial numbers for outbound rows when the document
// does not name them explicitly. Picking is FIFO over the purchase date so
// the oldest units leave first.
type SerialAllocator struct{}

// NewSerialAllocator creates a serial allocator
func NewSerialAllocator() *SerialAllocator {
	return &SerialAllocator{}
}

// Allocate picks count serials from the in-stock pool of the warehouse.
// Serials reserved for preferredOrder are drained first. The pool must cover
// the count; serialized stock never goes negative.
func (a *SerialAllocator) Allocate(count int, pool []*catalog.SerialNo, warehouseID uuid.UUID, preferredOrder *uuid.UUID) ([]*catalog.SerialNo, error) {
	if count <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Serial count must be positive")
	}

	usable := make([]*catalog.SerialNo, 0, len(pool))
	for _, s := range pool {
		if s.Status != catalog.SerialStatusInStock {
			continue
		}
		if s.WarehouseID == nil || *s.WarehouseID != warehouseID {
			continue
		}
		usable = append(usable, s)
	}
	if len(usable) < count {
		return nil, shared.NewDomainErrorf(shared.ErrInsufficientStock.Code,
			"Only %d of %d serial numbers available", len(usable), count)
	}

	sort.SliceStable(usable, func(i, j int) bool {
		ri := reservedFor(usable[i], preferredOrder)
		rj := reservedFor(usable[j], preferredOrder)
		if ri != rj {
			return ri
		}
		return usable[i].FIFOBefore(usable[j])
	})
	return usable[:count], nil
}

// Validate checks explicitly named serials against the pool: each must be in
// stock in the source warehouse and belong to the item.
func (a *SerialAllocator) Validate(serials []string, pool []*catalog.SerialNo, itemID, warehouseID uuid.UUID) ([]*catalog.SerialNo, error) {
	byNo := make(map[string]*catalog.SerialNo, len(pool))
	for _, s := range pool {
		byNo[s.SerialNo] = s
	}

	picked := make([]*catalog.SerialNo, 0, len(serials))
	for _, no := range serials {
		s, ok := byNo[no]
		if !ok {
			return nil, shared.NewDomainErrorf(shared.ErrSerialNoState.Code,
				"Serial number %s does not exist", no)
		}
		if s.ItemID != itemID {
			return nil, shared.NewDomainErrorf(shared.ErrSerialNoState.Code,
				"Serial number %s belongs to another item", no)
		}
		if s.Status != catalog.SerialStatusInStock || s.WarehouseID == nil || *s.WarehouseID != warehouseID {
			return nil, shared.NewDomainErrorf(shared.ErrSerialNoState.Code,
				"Serial number %s is not in stock in the source warehouse", no)
		}
		picked = append(picked, s)
	}
	return picked, nil
}

func reservedFor(s *catalog.SerialNo, order *uuid.UUID) bool {
	return order != nil && s.SalesOrderID != nil && *s.SalesOrderID == *order
}
