package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockcore/backend/internal/domain/ledger"
	"github.com/stockcore/backend/internal/domain/shared"
)

// GormStockLedgerRepository implements StockLedgerRepository using GORM.
// The ledger is append-only: rows are inserted and flagged, never edited,
// except for the projected valuation columns the reposting fold owns.
type GormStockLedgerRepository struct {
	db *gorm.DB
}

// NewGormStockLedgerRepository creates a new GormStockLedgerRepository
func NewGormStockLedgerRepository(db *gorm.DB) *GormStockLedgerRepository {
	return &GormStockLedgerRepository{db: db}
}

// Insert appends a new ledger entry. The creation sequence is assigned by
// the database and read back into the entry.
func (r *GormStockLedgerRepository) Insert(ctx context.Context, entry *ledger.StockLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// UpdateProjections rewrites the valuation columns the fold computed.
// Quantity and posting fields stay untouched.
func (r *GormStockLedgerRepository) UpdateProjections(ctx context.Context, entry *ledger.StockLedgerEntry) error {
	return r.db.WithContext(ctx).
		Model(&ledger.StockLedgerEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"incoming_rate":               entry.IncomingRate,
			"outgoing_rate":               entry.OutgoingRate,
			"qty_after_transaction":       entry.QtyAfterTransaction,
			"valuation_rate":              entry.ValuationRate,
			"stock_value":                 entry.StockValue,
			"stock_value_difference":      entry.StockValueDifference,
			"stock_queue":                 entry.StockQueue,
			"batch_qty_after_transaction": entry.BatchQtyAfterTransaction,
			"batch_valuation_rate":        entry.BatchValuationRate,
		}).Error
}

// UpdateIncomingRate rewrites the source rate of one entry, written rate
// included. Landed cost revaluation is the only caller.
func (r *GormStockLedgerRepository) UpdateIncomingRate(ctx context.Context, entryID uuid.UUID, rate decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&ledger.StockLedgerEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{"incoming_rate": rate, "written_rate": rate})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// PreviousEntry returns the latest live entry of the pair strictly before
// the posting key, or nil when the pair has no earlier entries.
func (r *GormStockLedgerRepository) PreviousEntry(ctx context.Context, itemID, warehouseID uuid.UUID, before ledger.PostingKey) (*ledger.StockLedgerEntry, error) {
	var entry ledger.StockLedgerEntry
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND warehouse_id = ? AND is_cancelled = false", itemID, warehouseID).
		Where("(posting_date, posting_time, creation_seq) < (?, ?, ?)",
			before.PostingDate, before.PostingTime, before.CreationSeq).
		Order("posting_date DESC, posting_time DESC, creation_seq DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// PreviousBatchEntry is PreviousEntry scoped to one batch of the pair
func (r *GormStockLedgerRepository) PreviousBatchEntry(ctx context.Context, itemID, warehouseID, batchID uuid.UUID, before ledger.PostingKey) (*ledger.StockLedgerEntry, error) {
	var entry ledger.StockLedgerEntry
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND warehouse_id = ? AND batch_id = ? AND is_cancelled = false",
			itemID, warehouseID, batchID).
		Where("(posting_date, posting_time, creation_seq) < (?, ?, ?)",
			before.PostingDate, before.PostingTime, before.CreationSeq).
		Order("posting_date DESC, posting_time DESC, creation_seq DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// EntriesAfter returns the live entries of the pair at or after the key
// in ledger order
func (r *GormStockLedgerRepository) EntriesAfter(ctx context.Context, itemID, warehouseID uuid.UUID, from ledger.PostingKey) ([]*ledger.StockLedgerEntry, error) {
	var entries []*ledger.StockLedgerEntry
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND warehouse_id = ? AND is_cancelled = false", itemID, warehouseID).
		Where("(posting_date, posting_time, creation_seq) >= (?, ?, ?)",
			from.PostingDate, from.PostingTime, from.CreationSeq).
		Order("posting_date ASC, posting_time ASC, creation_seq ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// EntriesForVoucher returns all live entries written by one voucher
func (r *GormStockLedgerRepository) EntriesForVoucher(ctx context.Context, voucherType ledger.VoucherType, voucherNo string) ([]*ledger.StockLedgerEntry, error) {
	var entries []*ledger.StockLedgerEntry
	err := r.db.WithContext(ctx).
		Where("voucher_type = ? AND voucher_no = ? AND is_cancelled = false", voucherType, voucherNo).
		Order("creation_seq ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CancelVoucherEntries marks a voucher's entries cancelled and returns them
// so callers can repost from each affected pair
func (r *GormStockLedgerRepository) CancelVoucherEntries(ctx context.Context, voucherType ledger.VoucherType, voucherNo string) ([]*ledger.StockLedgerEntry, error) {
	entries, err := r.EntriesForVoucher(ctx, voucherType, voucherNo)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}
	err = r.db.WithContext(ctx).
		Model(&ledger.StockLedgerEntry{}).
		Where("voucher_type = ? AND voucher_no = ? AND is_cancelled = false", voucherType, voucherNo).
		Update("is_cancelled", true).Error
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		e.IsCancelled = true
	}
	return entries, nil
}

// LatestEntry returns the latest live entry of the pair up to the posting
// date, for balance-as-of queries
func (r *GormStockLedgerRepository) LatestEntry(ctx context.Context, itemID, warehouseID uuid.UUID, asOf time.Time) (*ledger.StockLedgerEntry, error) {
	var entry ledger.StockLedgerEntry
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND warehouse_id = ? AND is_cancelled = false", itemID, warehouseID).
		Where("posting_date <= ?", asOf).
		Order("posting_date DESC, posting_time DESC, creation_seq DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// BatchQty returns the latest live batch-scoped entry of the pair, whose
// batch_qty_after_transaction column carries the current batch balance
func (r *GormStockLedgerRepository) BatchQty(ctx context.Context, itemID, warehouseID, batchID uuid.UUID) (*ledger.StockLedgerEntry, error) {
	var entry ledger.StockLedgerEntry
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND warehouse_id = ? AND batch_id = ? AND is_cancelled = false",
			itemID, warehouseID, batchID).
		Order("posting_date DESC, posting_time DESC, creation_seq DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// HasLedgerEntries reports whether the item has any live movement
func (r *GormStockLedgerRepository) HasLedgerEntries(itemID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.
		Model(&ledger.StockLedgerEntry{}).
		Where("item_id = ? AND is_cancelled = false", itemID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormStockLedgerRepository implements StockLedgerRepository
var _ ledger.StockLedgerRepository = (*GormStockLedgerRepository)(nil)
