package stock

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockcore/backend/internal/domain/voucher"
)

// SubmissionService drives the document lifecycle: submit writes the
// planned ledger entries, cancel flags them and reposts. Each operation
// runs inside one transaction scope so the document, its ledger entries and
// every downstream projection move together.
type SubmissionService struct {
	scope    TransactionScope
	settings Settings
	logger   *zap.Logger
}

// NewSubmissionService creates a SubmissionService
func NewSubmissionService(scope TransactionScope, settings Settings, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{
		scope:    scope,
		settings: settings,
		logger:   logger,
	}
}

// SubmitPurchaseReceipt submits a receipt: goods come in at the row rates,
// return receipts go out at the original incoming rate via their edges.
func (s *SubmissionService) SubmitPurchaseReceipt(ctx context.Context, id uuid.UUID, roles []string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		receipt, err := repos.PurchaseReceipts().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := receipt.Submit(); err != nil {
			return err
		}
		if err := s.postVoucher(ctx, repos, receipt, roles); err != nil {
			return err
		}
		if err := repos.PurchaseReceipts().Save(ctx, receipt); err != nil {
			return err
		}
		s.logger.Info("purchase receipt submitted",
			zap.String("voucher_no", receipt.VoucherNo),
			zap.Bool("is_return", receipt.IsReturn))
		return s.refreshOrders(ctx, repos, receiptOrderIDs(receipt))
	})
}

// CancelPurchaseReceipt cancels a submitted receipt and reposts the pairs
// it touched.
func (s *SubmissionService) CancelPurchaseReceipt(ctx context.Context, id uuid.UUID, roles []string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		receipt, err := repos.PurchaseReceipts().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := receipt.Cancel(); err != nil {
			return err
		}
		if err := s.cancelLedger(ctx, repos, receipt, roles); err != nil {
			return err
		}
		if err := repos.PurchaseReceipts().Save(ctx, receipt); err != nil {
			return err
		}
		return s.refreshOrders(ctx, repos, receiptOrderIDs(receipt))
	})
}

// SubmitDeliveryNote allocates batches and serials where the rows left them
// open, then submits and posts the note.
func (s *SubmissionService) SubmitDeliveryNote(ctx context.Context, id uuid.UUID, roles []string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		note, err := repos.DeliveryNotes().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !note.IsReturn {
			if err := s.allocateDeliveryRows(ctx, repos, note); err != nil {
				return err
			}
		}
		if err := note.Submit(); err != nil {
			return err
		}
		if err := s.postVoucher(ctx, repos, note, roles); err != nil {
			return err
		}
		if err := repos.DeliveryNotes().Save(ctx, note); err != nil {
			return err
		}
		s.logger.Info("delivery note submitted",
			zap.String("voucher_no", note.VoucherNo),
			zap.Bool("is_return", note.IsReturn))
		return s.refreshOrders(ctx, repos, deliveryOrderIDs(note))
	})
}

// CancelDeliveryNote cancels a submitted delivery note
func (s *SubmissionService) CancelDeliveryNote(ctx context.Context, id uuid.UUID, roles []string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		note, err := repos.DeliveryNotes().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := note.Cancel(); err != nil {
			return err
		}
		if err := s.cancelLedger(ctx, repos, note, roles); err != nil {
			return err
		}
		if err := repos.DeliveryNotes().Save(ctx, note); err != nil {
			return err
		}
		return s.refreshOrders(ctx, repos, deliveryOrderIDs(note))
	})
}

// SubmitInvoice submits an invoice. Stock moves only for stock-updating
// invoices, and only on rows not already covered by a receipt or delivery.
func (s *SubmissionService) SubmitInvoice(ctx context.Context, id uuid.UUID, roles []string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.Invoices().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := inv.Submit(); err != nil {
			return err
		}
		if err := s.postVoucher(ctx, repos, inv, roles); err != nil {
			return err
		}
		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		return s.refreshOrders(ctx, repos, invoiceOrderIDs(inv))
	})
}

// CancelInvoice cancels a submitted invoice
func (s *SubmissionService) CancelInvoice(ctx context.Context, id uuid.UUID, roles []string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.Invoices().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := inv.Cancel(); err != nil {
			return err
		}
		if inv.UpdateStock {
			if err := s.cancelLedger(ctx, repos, inv, roles); err != nil {
				return err
			}
		}
		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		return s.refreshOrders(ctx, repos, invoiceOrderIDs(inv))
	})
}

// SubmitStockEntry submits a receipt, issue or transfer entry
func (s *SubmissionService) SubmitStockEntry(ctx context.Context, id uuid.UUID, roles []string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entry, err := repos.StockEntries().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := entry.Submit(); err != nil {
			return err
		}
		if err := s.postVoucher(ctx, repos, entry, roles); err != nil {
			return err
		}
		return repos.StockEntries().Save(ctx, entry)
	})
}

// CancelStockEntry cancels a submitted stock entry
func (s *SubmissionService) CancelStockEntry(ctx context.Context, id uuid.UUID, roles []string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entry, err := repos.StockEntries().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := entry.Cancel(); err != nil {
			return err
		}
		if err := s.cancelLedger(ctx, repos, entry, roles); err != nil {
			return err
		}
		return repos.StockEntries().Save(ctx, entry)
	})
}

// SubmitReconciliation snapshots the current balance of each row under the
// submitting transaction, then posts the adjusting movements.
func (s *SubmissionService) SubmitReconciliation(ctx context.Context, id uuid.UUID, roles []string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		rec, err := repos.Reconciliations().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.snapshotCurrentState(ctx, repos, rec); err != nil {
			return err
		}
		if err := rec.Submit(); err != nil {
			return err
		}
		if err := s.postVoucher(ctx, repos, rec, roles); err != nil {
			return err
		}
		return repos.Reconciliations().Save(ctx, rec)
	})
}

// CancelReconciliation cancels a submitted reconciliation
func (s *SubmissionService) CancelReconciliation(ctx context.Context, id uuid.UUID, roles []string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		rec, err := repos.Reconciliations().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := rec.Cancel(); err != nil {
			return err
		}
		if err := s.cancelLedger(ctx, repos, rec, roles); err != nil {
			return err
		}
		return repos.Reconciliations().Save(ctx, rec)
	})
}

// snapshotCurrentState fills the carried quantity and rate of every
// reconciliation row from the ledger as of the posting instant.
func (s *SubmissionService) snapshotCurrentState(ctx context.Context, repos TransactionalRepositories,
	rec *voucher.StockReconciliation) error {
	asOf := postingInstant(rec.GetPostingDate(), rec.GetPostingTime())
	for i := range rec.Rows {
		row := &rec.Rows[i]

		if row.BatchID != nil {
			latest, err := repos.Ledger().BatchQty(ctx, row.ItemID, row.WarehouseID, *row.BatchID)
			if err != nil {
				return err
			}
			if latest != nil {
				if err := rec.SetCurrentState(row.ID, latest.BatchQtyAfterTransaction, latest.BatchValuationRate); err != nil {
					return err
				}
			}
			continue
		}

		latest, err := repos.Ledger().LatestEntry(ctx, row.ItemID, row.WarehouseID, asOf)
		if err != nil {
			return err
		}
		if latest != nil {
			if err := rec.SetCurrentState(row.ID, latest.QtyAfterTransaction, latest.ValuationRate); err != nil {
				return err
			}
		}
	}
	return nil
}

// receiptOrderIDs collects the distinct purchase orders a receipt touches
func receiptOrderIDs(r *voucher.PurchaseReceipt) []uuid.UUID {
	ids := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool)
	for i := range r.Rows {
		if id := r.Rows[i].PurchaseOrderID; id != nil && !seen[*id] {
			seen[*id] = true
			ids = append(ids, *id)
		}
	}
	return ids
}

// deliveryOrderIDs collects the distinct sales orders a note touches
func deliveryOrderIDs(n *voucher.DeliveryNote) []uuid.UUID {
	ids := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool)
	for i := range n.Rows {
		if id := n.Rows[i].SalesOrderID; id != nil && !seen[*id] {
			seen[*id] = true
			ids = append(ids, *id)
		}
	}
	return ids
}

// invoiceOrderIDs collects the distinct orders an invoice bills
func invoiceOrderIDs(inv *voucher.Invoice) []uuid.UUID {
	ids := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool)
	for i := range inv.Rows {
		if id := inv.Rows[i].OrderID; id != nil && !seen[*id] {
			seen[*id] = true
			ids = append(ids, *id)
		}
	}
	return ids
}
