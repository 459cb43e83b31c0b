package persistence

import (
	"context"

	"gorm.io/gorm"

	appstock "github.com/stockcore/backend/internal/application/stock"
	"github.com/stockcore/backend/internal/domain/catalog"
	"github.com/stockcore/backend/internal/domain/ledger"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every voucher submission runs inside one Execute call, so the document,
// its ledger entries, bins and batch state commit or roll back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appstock.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Items() catalog.ItemRepository {
	return NewGormItemRepository(r.tx)
}

func (r *gormTransactionalRepositories) Warehouses() catalog.WarehouseRepository {
	return NewGormWarehouseRepository(r.tx)
}

func (r *gormTransactionalRepositories) Batches() catalog.BatchRepository {
	return NewGormBatchRepository(r.tx)
}

func (r *gormTransactionalRepositories) Serials() catalog.SerialRepository {
	return NewGormSerialRepository(r.tx)
}

func (r *gormTransactionalRepositories) Conversions() catalog.ConversionRepository {
	return NewGormConversionRepository(r.tx)
}

func (r *gormTransactionalRepositories) Ledger() ledger.StockLedgerRepository {
	return NewGormStockLedgerRepository(r.tx)
}

func (r *gormTransactionalRepositories) Bins() ledger.BinRepository {
	return NewGormBinRepository(r.tx)
}

func (r *gormTransactionalRepositories) Dependencies() ledger.DependencyRepository {
	return NewGormDependencyRepository(r.tx)
}

func (r *gormTransactionalRepositories) Orders() voucher.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) PurchaseReceipts() voucher.PurchaseReceiptRepository {
	return NewGormPurchaseReceiptRepository(r.tx)
}

func (r *gormTransactionalRepositories) DeliveryNotes() voucher.DeliveryNoteRepository {
	return NewGormDeliveryNoteRepository(r.tx)
}

func (r *gormTransactionalRepositories) Invoices() voucher.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockEntries() voucher.StockEntryRepository {
	return NewGormStockEntryRepository(r.tx)
}

func (r *gormTransactionalRepositories) Reconciliations() voucher.ReconciliationRepository {
	return NewGormReconciliationRepository(r.tx)
}

func (r *gormTransactionalRepositories) LandedCosts() voucher.LandedCostRepository {
	return NewGormLandedCostRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appstock.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appstock.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
