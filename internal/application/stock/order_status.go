package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockcore/backend/internal/domain/voucher"
)

// SubmitOrder submits a draft order and raises the open-order counters on
// the bins of its rows.
func (s *SubmissionService) SubmitOrder(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := order.Submit(); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, order); err != nil {
			return err
		}
		return s.refreshOrderBins(ctx, repos, order)
	})
}

// CancelOrder cancels an order and releases its open counters
func (s *SubmissionService) CancelOrder(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, order); err != nil {
			return err
		}
		return s.refreshOrderBins(ctx, repos, order)
	})
}

// CloseOrder closes an order early, releasing the outstanding counters
func (s *SubmissionService) CloseOrder(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := order.Close(); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, order); err != nil {
			return err
		}
		return s.refreshOrderBins(ctx, repos, order)
	})
}

// ReopenOrder reopens a closed order
func (s *SubmissionService) ReopenOrder(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := order.Reopen(); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, order); err != nil {
			return err
		}
		return s.refreshOrderBins(ctx, repos, order)
	})
}

// refreshOrders re-derives the fulfillment state of each order from its
// submitted downstream documents.
func (s *SubmissionService) refreshOrders(ctx context.Context, repos TransactionalRepositories, orderIDs []uuid.UUID) error {
	for _, id := range orderIDs {
		if err := s.refreshOrder(ctx, repos, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *SubmissionService) refreshOrder(ctx context.Context, repos TransactionalRepositories, orderID uuid.UUID) error {
	order, err := repos.Orders().FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	fulfillment, returns, err := s.computeFulfillment(ctx, repos, order)
	if err != nil {
		return err
	}
	if err := returns.Validate(s.settings.tolerances()); err != nil {
		return err
	}
	if err := order.ApplyFulfillment(fulfillment, s.settings.tolerances()); err != nil {
		return err
	}
	if err := repos.Orders().Save(ctx, order); err != nil {
		return err
	}
	s.logger.Debug("order status refreshed",
		zap.String("order_no", order.OrderNo),
		zap.String("status", order.Status.String()))
	return s.refreshOrderBins(ctx, repos, order)
}

// computeFulfillment sums the submitted receipts, deliveries and invoices
// linked to the order's rows into fresh totals. Alongside, it accumulates
// the per-row return totals so each return can be held against the exact
// row it reverses.
func (s *SubmissionService) computeFulfillment(ctx context.Context, repos TransactionalRepositories,
	order *voucher.Order) (voucher.Fulfillment, *voucher.ReturnTotals, error) {
	returns := voucher.NewReturnTotals()
	f := voucher.Fulfillment{}
	for i := range order.Rows {
		f[order.Rows[i].ID] = voucher.RowFulfillment{}
	}
	add := func(rowID *uuid.UUID, mutate func(*voucher.RowFulfillment)) {
		if rowID == nil {
			return
		}
		rf, ok := f[*rowID]
		if !ok {
			return // row belongs to another order
		}
		mutate(&rf)
		f[*rowID] = rf
	}

	if order.Kind == voucher.OrderKindSales {
		notes, err := repos.DeliveryNotes().SubmittedForOrder(ctx, order.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, note := range notes {
			for i := range note.Rows {
				row := &note.Rows[i]
				if note.IsReturn {
					if row.ReturnAgainstRowID != nil {
						returns.AddReturn(*row.ReturnAgainstRowID, row.Qty)
					}
					add(row.SalesOrderRowID, func(rf *voucher.RowFulfillment) {
						rf.ReturnedQty = rf.ReturnedQty.Add(row.Qty)
					})
				} else {
					returns.AddOrigin(row.ID, row.Qty)
					add(row.SalesOrderRowID, func(rf *voucher.RowFulfillment) {
						rf.DeliveredQty = rf.DeliveredQty.Add(row.Qty)
					})
				}
			}
		}
	} else {
		receipts, err := repos.PurchaseReceipts().SubmittedForOrder(ctx, order.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, receipt := range receipts {
			for i := range receipt.Rows {
				row := &receipt.Rows[i]
				if receipt.IsReturn {
					if row.ReturnAgainstRowID != nil {
						returns.AddReturn(*row.ReturnAgainstRowID, row.Qty)
					}
					add(row.PurchaseOrderRowID, func(rf *voucher.RowFulfillment) {
						rf.ReturnedQty = rf.ReturnedQty.Add(row.Qty)
					})
				} else {
					returns.AddOrigin(row.ID, row.Qty)
					add(row.PurchaseOrderRowID, func(rf *voucher.RowFulfillment) {
						rf.DeliveredQty = rf.DeliveredQty.Add(row.Qty)
					})
				}
			}
		}
	}

	invoices, err := repos.Invoices().SubmittedForOrder(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}
	unlinked := make(map[uuid.UUID]decimal.Decimal)
	for _, inv := range invoices {
		for i := range inv.Rows {
			row := &inv.Rows[i]
			billed := row.Qty
			if inv.IsReturn {
				billed = billed.Neg()
			}
			if row.OrderRowID != nil {
				add(row.OrderRowID, func(rf *voucher.RowFulfillment) {
					rf.BilledQty = rf.BilledQty.Add(billed)
				})
			} else {
				// No explicit row link: the quantity is attributed to the
				// order's rows first-in-first-out after the linked rows.
				unlinked[row.ItemID] = unlinked[row.ItemID].Add(billed)
			}
			// A stock-updating invoice row without a fulfillment link
			// moved the goods itself: it counts as delivery too.
			if inv.UpdateStock && row.FulfillmentRowID == nil {
				if inv.IsReturn {
					if row.ReturnAgainstRowID != nil {
						returns.AddReturn(*row.ReturnAgainstRowID, row.Qty)
					}
					add(row.OrderRowID, func(rf *voucher.RowFulfillment) {
						rf.ReturnedQty = rf.ReturnedQty.Add(row.Qty)
					})
				} else {
					returns.AddOrigin(row.ID, row.Qty)
					add(row.OrderRowID, func(rf *voucher.RowFulfillment) {
						rf.DeliveredQty = rf.DeliveredQty.Add(row.Qty)
					})
				}
			}
		}
	}
	distributeUnlinkedBilling(order, f, unlinked)
	return f, returns, nil
}

// distributeUnlinkedBilling spreads invoice quantities that carry no row
// link over the order's rows of the same item in row order, filling each
// row up to its ordered quantity before moving on. Returns drain in the
// same order. Whatever exceeds every row's ordered quantity lands on the
// item's last row so the order total still carries it.
func distributeUnlinkedBilling(order *voucher.Order, f voucher.Fulfillment, unlinked map[uuid.UUID]decimal.Decimal) {
	for i := range order.Rows {
		row := &order.Rows[i]
		remaining := unlinked[row.ItemID]
		if remaining.IsZero() {
			continue
		}
		rf := f[row.ID]
		if remaining.GreaterThan(decimal.Zero) {
			capacity := decimal.Max(row.Qty.Sub(rf.BilledQty), decimal.Zero)
			take := decimal.Min(remaining, capacity)
			rf.BilledQty = rf.BilledQty.Add(take)
			remaining = remaining.Sub(take)
		} else {
			give := decimal.Min(remaining.Neg(), rf.BilledQty)
			rf.BilledQty = rf.BilledQty.Sub(give)
			remaining = remaining.Add(give)
		}
		f[row.ID] = rf
		unlinked[row.ItemID] = remaining
	}

	for i := len(order.Rows) - 1; i >= 0; i-- {
		row := &order.Rows[i]
		rest := unlinked[row.ItemID]
		if rest.IsZero() {
			continue
		}
		rf := f[row.ID]
		rf.BilledQty = rf.BilledQty.Add(rest)
		f[row.ID] = rf
		unlinked[row.ItemID] = decimal.Zero
	}
}

// refreshOrderBins re-derives the open-order counters of every (item,
// warehouse) pair the order's rows touch.
func (s *SubmissionService) refreshOrderBins(ctx context.Context, repos TransactionalRepositories,
	order *voucher.Order) error {
	seen := make(map[pairKey]bool)
	for i := range order.Rows {
		row := &order.Rows[i]
		key := pairKey{item: row.ItemID, warehouse: row.WarehouseID}
		if seen[key] {
			continue
		}
		seen[key] = true
		if err := s.refreshBinCounters(ctx, repos, row.ItemID, row.WarehouseID); err != nil {
			return err
		}
	}
	return nil
}

// refreshBinCounters recomputes the reserved and ordered totals of one pair
// from all open order rows. Totals are always rebuilt from scratch.
func (s *SubmissionService) refreshBinCounters(ctx context.Context, repos TransactionalRepositories,
	itemID, warehouseID uuid.UUID) error {
	reserved, err := outstandingQty(ctx, repos, voucher.OrderKindSales, itemID, warehouseID)
	if err != nil {
		return err
	}
	ordered, err := outstandingQty(ctx, repos, voucher.OrderKindPurchase, itemID, warehouseID)
	if err != nil {
		return err
	}

	bin, err := repos.Bins().GetOrCreate(ctx, itemID, warehouseID)
	if err != nil {
		return err
	}
	bin.SetOrderCounters(reserved, ordered, bin.IndentedQty, bin.PlannedQty)
	return repos.Bins().Save(ctx, bin)
}

func outstandingQty(ctx context.Context, repos TransactionalRepositories,
	kind voucher.OrderKind, itemID, warehouseID uuid.UUID) (decimal.Decimal, error) {
	rows, err := repos.Orders().OpenRows(ctx, kind, itemID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, row := range rows {
		outstanding := row.Qty.Sub(row.DeliveredQty)
		if outstanding.GreaterThan(decimal.Zero) {
			total = total.Add(outstanding)
		}
	}
	return total, nil
}
