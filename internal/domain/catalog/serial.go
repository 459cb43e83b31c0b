package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/shared"
)

// SerialStatus represents the delivery state of a serial number
type SerialStatus string

const (
	SerialStatusInStock   SerialStatus = "IN_STOCK"
	SerialStatusDelivered SerialStatus = "DELIVERED"
)

// SerialNo identifies one physical unit of a serialized item. A serial
// number may be in at most one live warehouse at a time.
type SerialNo struct {
	shared.BaseAggregateRoot
	SerialNo     string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	ItemID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID  *uuid.UUID      `gorm:"type:uuid;index"` // nil when delivered
	Status       SerialStatus    `gorm:"type:varchar(20);not null;default:'IN_STOCK'"`
	PurchaseRate decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PurchaseDate *time.Time
	PurchaseTime *time.Time
	SalesOrderID *uuid.UUID `gorm:"type:uuid;index"` // reservation, preferred on allocation
}

// TableName returns the table name for GORM
func (SerialNo) TableName() string {
	return "serial_nos"
}

// NewSerialNo creates a serial number record
func NewSerialNo(serial string, itemID uuid.UUID) (*SerialNo, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, shared.NewDomainError("INVALID_SERIAL", "Serial number cannot be empty")
	}
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	return &SerialNo{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SerialNo:          serial,
		ItemID:            itemID,
		Status:            SerialStatusDelivered, // becomes IN_STOCK on first receipt
		PurchaseRate:      decimal.Zero,
	}, nil
}

// Receive puts the serial into a warehouse. Receiving an on-hand serial is
// a state error: the unit would exist in two live locations.
func (s *SerialNo) Receive(warehouseID uuid.UUID, rate decimal.Decimal, postingDate, postingTime time.Time) error {
	if s.Status == SerialStatusInStock {
		return shared.NewDomainErrorf(shared.ErrSerialNoState.Code,
			"Serial %s is already in stock", s.SerialNo)
	}
	s.Status = SerialStatusInStock
	s.WarehouseID = &warehouseID
	s.PurchaseRate = rate
	s.PurchaseDate = &postingDate
	s.PurchaseTime = &postingTime
	return nil
}

// Deliver takes the serial out of stock from the given warehouse
func (s *SerialNo) Deliver(warehouseID uuid.UUID) error {
	if s.Status != SerialStatusInStock {
		return shared.NewDomainErrorf(shared.ErrSerialNoState.Code,
			"Serial %s is not on hand", s.SerialNo)
	}
	if s.WarehouseID == nil || *s.WarehouseID != warehouseID {
		return shared.NewDomainErrorf(shared.ErrSerialNoState.Code,
			"Serial %s is not in the source warehouse", s.SerialNo)
	}
	s.Status = SerialStatusDelivered
	s.WarehouseID = nil
	return nil
}

// FIFOBefore orders serials for automatic allocation: oldest purchase first,
// then serial number for a total order.
func (s *SerialNo) FIFOBefore(other *SerialNo) bool {
	switch {
	case s.PurchaseDate != nil && other.PurchaseDate != nil:
		if !s.PurchaseDate.Equal(*other.PurchaseDate) {
			return s.PurchaseDate.Before(*other.PurchaseDate)
		}
	case s.PurchaseDate != nil:
		return true
	case other.PurchaseDate != nil:
		return false
	}
	switch {
	case s.PurchaseTime != nil && other.PurchaseTime != nil:
		if !s.PurchaseTime.Equal(*other.PurchaseTime) {
			return s.PurchaseTime.Before(*other.PurchaseTime)
		}
	case s.PurchaseTime != nil:
		return true
	case other.PurchaseTime != nil:
		return false
	}
	return s.SerialNo < other.SerialNo
}

// ParseSerialNos splits a newline or comma separated serial list, rejecting
// duplicates.
func ParseSerialNos(raw string) ([]string, error) {
	raw = strings.ReplaceAll(raw, ",", "\n")
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, line := range strings.Split(raw, "\n") {
		v := strings.TrimSpace(line)
		if v == "" {
			continue
		}
		if seen[v] {
			return nil, shared.NewDomainErrorf("DUPLICATE_SERIAL", "Serial number %s entered more than once", v)
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, nil
}
