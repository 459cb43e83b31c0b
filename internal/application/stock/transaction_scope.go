package stock

import (
	"context"

	"github.com/stockcore/backend/internal/domain/catalog"
	"github.com/stockcore/backend/internal/domain/ledger"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// TransactionScope provides transactional access to the stock repositories.
// A voucher submission writes the document, its ledger entries, dependency
// edges, bins, batch and serial state all inside one Execute call, so the
// whole movement commits or rolls back atomically.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes every repository scoped to the current
// transaction. All returned repositories share one underlying transaction.
//
// Aggregate boundary notes:
//   - Ledger() is append-only; reposting rewrites projections through
//     UpdateProjections, never whole rows.
//   - Voucher rows (receipt, delivery, invoice rows) are child entities
//     persisted through their aggregate's Save.
//   - Bins() is a projection store. It is written by the ledger fold and
//     the order counter refresh, never directly by handlers.
type TransactionalRepositories interface {
	Items() catalog.ItemRepository
	Warehouses() catalog.WarehouseRepository
	Batches() catalog.BatchRepository
	Serials() catalog.SerialRepository
	Conversions() catalog.ConversionRepository

	Ledger() ledger.StockLedgerRepository
	Bins() ledger.BinRepository
	Dependencies() ledger.DependencyRepository

	Orders() voucher.OrderRepository
	PurchaseReceipts() voucher.PurchaseReceiptRepository
	DeliveryNotes() voucher.DeliveryNoteRepository
	Invoices() voucher.InvoiceRepository
	StockEntries() voucher.StockEntryRepository
	Reconciliations() voucher.ReconciliationRepository
	LandedCosts() voucher.LandedCostRepository
}

// NoOpTransactionScope runs the function without a real transaction. Used
// in tests with in-memory repositories.
type NoOpTransactionScope struct {
	repos TransactionalRepositories
}

// NewNoOpTransactionScope creates a scope over fixed repositories
func NewNoOpTransactionScope(repos TransactionalRepositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function against the fixed repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}
