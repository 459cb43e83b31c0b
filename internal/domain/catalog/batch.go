package catalog

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockcore/backend/internal/domain/shared"
)

// Batch represents a production lot of a batched item. A batch belongs to
// exactly one item and is immutable after the first ledger reference.
type Batch struct {
	shared.BaseAggregateRoot
	BatchID           string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	ItemID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	ManufacturingDate *time.Time
	ExpiryDate        *time.Time
	FirstReceiptDate  *time.Time // set on the first inbound ledger entry
	Disabled          bool       `gorm:"not null;default:false"`

	// ReservedForOrderID holds the sales order this batch is earmarked for.
	// Allocation drains reserved batches first when delivering that order.
	ReservedForOrderID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (Batch) TableName() string {
	return "batches"
}

// BatchSequence issues the next number of a per-item naming series
type BatchSequence interface {
	Next(series string) (int64, error)
}

// NewBatch creates a batch with an explicit ID
func NewBatch(batchID string, item *Item) (*Batch, error) {
	if item == nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item cannot be nil")
	}
	if !item.HasBatchNo {
		return nil, shared.NewDomainErrorf(shared.ErrInvalidBatch.Code,
			"Item %s cannot have batches", item.Code)
	}
	batchID = strings.TrimSpace(batchID)
	if batchID == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_ID", "Batch ID cannot be empty")
	}
	return &Batch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BatchID:           batchID,
		ItemID:            item.ID,
	}, nil
}

// NewAutoNamedBatch creates a batch with a generated ID: from the item's
// naming series when configured, otherwise a random hash.
func NewAutoNamedBatch(item *Item, seq BatchSequence) (*Batch, error) {
	if item == nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item cannot be nil")
	}
	var batchID string
	if item.BatchNumberSeries != "" && seq != nil {
		n, err := seq.Next(item.BatchNumberSeries)
		if err != nil {
			return nil, err
		}
		batchID = formatBatchSeries(item.BatchNumberSeries, n)
	} else {
		batchID = generateBatchHash()
	}
	return NewBatch(batchID, item)
}

// SetExpiry records the expiry date, deriving it from the manufacturing date
// and the item's shelf life when no explicit date is given.
func (b *Batch) SetExpiry(explicit *time.Time, item *Item) error {
	if explicit != nil {
		b.ExpiryDate = explicit
		return nil
	}
	if item.ShelfLifeDays > 0 {
		if b.ManufacturingDate == nil {
			return shared.NewDomainErrorf(shared.ErrInvalidBatch.Code,
				"Batch %s needs a manufacturing date to derive expiry", b.BatchID)
		}
		d := b.ManufacturingDate.AddDate(0, 0, item.ShelfLifeDays)
		b.ExpiryDate = &d
	}
	return nil
}

// IsExpiredAt reports whether the batch is past expiry at the posting date
func (b *Batch) IsExpiredAt(postingDate time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return postingDate.After(*b.ExpiryDate)
}

// ValidateForItem checks the batch belongs to the item
func (b *Batch) ValidateForItem(itemID uuid.UUID) error {
	if b.ItemID != itemID {
		return shared.NewDomainErrorf(shared.ErrInvalidBatch.Code,
			"Batch %s does not belong to the item", b.BatchID)
	}
	return nil
}

// ReserveForOrder earmarks the batch for one sales order. Passing nil
// releases the reservation.
func (b *Batch) ReserveForOrder(orderID *uuid.UUID) {
	b.ReservedForOrderID = orderID
	b.IncrementVersion()
}

// MarkFirstReceipt records the first inbound posting date; later receipts do
// not move it. The date is the second component of the FEFO key.
func (b *Batch) MarkFirstReceipt(postingDate time.Time) {
	if b.FirstReceiptDate == nil {
		d := postingDate
		b.FirstReceiptDate = &d
	}
}

// FEFOBefore orders batches First-Expiring-First-Out: by expiry date with
// nil expiry last, then by first receipt date, then by batch ID for a total
// order.
func (b *Batch) FEFOBefore(other *Batch) bool {
	switch {
	case b.ExpiryDate != nil && other.ExpiryDate != nil:
		if !b.ExpiryDate.Equal(*other.ExpiryDate) {
			return b.ExpiryDate.Before(*other.ExpiryDate)
		}
	case b.ExpiryDate != nil:
		return true
	case other.ExpiryDate != nil:
		return false
	}
	switch {
	case b.FirstReceiptDate != nil && other.FirstReceiptDate != nil:
		if !b.FirstReceiptDate.Equal(*other.FirstReceiptDate) {
			return b.FirstReceiptDate.Before(*other.FirstReceiptDate)
		}
	case b.FirstReceiptDate != nil:
		return true
	case other.FirstReceiptDate != nil:
		return false
	}
	return b.BatchID < other.BatchID
}

// formatBatchSeries renders a series like "BATCH-.####" with the next number
func formatBatchSeries(series string, n int64) string {
	hashes := strings.Count(series, "#")
	prefix := strings.TrimRight(strings.ReplaceAll(series, "#", ""), ".")
	if hashes == 0 {
		hashes = 5
	}
	return fmt.Sprintf("%s-%0*d", strings.TrimSuffix(prefix, "-"), hashes, n)
}

// generateBatchHash returns a short random uppercase batch ID
func generateBatchHash() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return strings.ToUpper(hex.EncodeToString(buf))[:7]
}
