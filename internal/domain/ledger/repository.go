package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLedgerRepository is the persistence port of the stock ledger. The
// ledger is append-only: implementations expose inserts and flag updates,
// never row edits.
type StockLedgerRepository interface {
	Insert(ctx context.Context, entry *StockLedgerEntry) error
	// Update rewrites only the projected valuation columns of an entry
	// during reposting.
	UpdateProjections(ctx context.Context, entry *StockLedgerEntry) error
	// UpdateIncomingRate rewrites the source incoming rate of an entry.
	// Landed cost revaluation is the only caller; it reposts the pair
	// afterwards so the projections catch up.
	UpdateIncomingRate(ctx context.Context, entryID uuid.UUID, rate decimal.Decimal) error
	// PreviousEntry returns the latest live entry of the pair strictly
	// before the key, or nil when the pair has no earlier entries.
	PreviousEntry(ctx context.Context, itemID, warehouseID uuid.UUID, before PostingKey) (*StockLedgerEntry, error)
	// PreviousBatchEntry is PreviousEntry scoped to one batch of the pair.
	PreviousBatchEntry(ctx context.Context, itemID, warehouseID, batchID uuid.UUID, before PostingKey) (*StockLedgerEntry, error)
	// EntriesAfter returns the live entries of the pair at or after the
	// key in ledger order. Reposting folds over this stream.
	EntriesAfter(ctx context.Context, itemID, warehouseID uuid.UUID, from PostingKey) ([]*StockLedgerEntry, error)
	// EntriesForVoucher returns all live entries written by one voucher.
	EntriesForVoucher(ctx context.Context, voucherType VoucherType, voucherNo string) ([]*StockLedgerEntry, error)
	// CancelVoucherEntries marks a voucher's entries cancelled and returns
	// them so callers can repost from each affected pair.
	CancelVoucherEntries(ctx context.Context, voucherType VoucherType, voucherNo string) ([]*StockLedgerEntry, error)
	// LatestEntry returns the latest live entry of the pair up to the
	// posting instant, for balance-as-of queries.
	LatestEntry(ctx context.Context, itemID, warehouseID uuid.UUID, asOf time.Time) (*StockLedgerEntry, error)
	// BatchQty returns the live batch balance of the pair.
	BatchQty(ctx context.Context, itemID, warehouseID, batchID uuid.UUID) (*StockLedgerEntry, error)
	HasLedgerEntries(itemID uuid.UUID) (bool, error)
}

// BinRepository persists the per-pair balance projection
type BinRepository interface {
	Get(ctx context.Context, itemID, warehouseID uuid.UUID) (*Bin, error)
	// GetOrCreate returns the bin locked against concurrent postings
	// for the rest of the caller's transaction, creating an empty one
	// when the pair has never moved.
	GetOrCreate(ctx context.Context, itemID, warehouseID uuid.UUID) (*Bin, error)
	Save(ctx context.Context, bin *Bin) error
	ForItem(ctx context.Context, itemID uuid.UUID) ([]*Bin, error)
}

// DependencyRepository persists edges between ledger entries
type DependencyRepository interface {
	Insert(ctx context.Context, edge *DependencyEdge) error
	ForDependent(ctx context.Context, dependentEntryID uuid.UUID) ([]*DependencyEdge, error)
	// Dependents returns edges pointing at a source voucher, used to find
	// entries that must repost when the source's valuation changes.
	Dependents(ctx context.Context, voucherType VoucherType, voucherNo string) ([]*DependencyEdge, error)
	DeleteForDependent(ctx context.Context, dependentEntryID uuid.UUID) error
}
