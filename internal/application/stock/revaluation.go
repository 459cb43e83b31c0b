package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockcore/backend/internal/domain/ledger"
	"github.com/stockcore/backend/internal/domain/shared"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// SubmitLandedCost apportions the voucher's charges over the referenced
// receipt rows, folds the extra per-unit rate into the original receipt
// entries and reposts each pair forward. The voucher writes no ledger
// entries of its own.
func (s *SubmissionService) SubmitLandedCost(ctx context.Context, id uuid.UUID, roles []string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lcv, err := repos.LandedCosts().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := lcv.Distribute(); err != nil {
			return err
		}
		if err := lcv.Submit(); err != nil {
			return err
		}

		revaluations, err := lcv.Revaluations()
		if err != nil {
			return err
		}
		if err := lockPairs(ctx, repos, revaluationPairs(revaluations)); err != nil {
			return err
		}
		for _, rv := range revaluations {
			if err := s.revalueReceiptEntry(ctx, repos, rv.ReceiptVoucherNo, rv.ReceiptRowID,
				rv.ExtraRatePerUnit, roles); err != nil {
				return err
			}
		}

		s.logger.Info("landed cost applied",
			zap.String("voucher_no", lcv.VoucherNo),
			zap.Int("receipt_rows", len(revaluations)))
		return repos.LandedCosts().Save(ctx, lcv)
	})
}

// CancelLandedCost backs the extra rate out of the receipt entries and
// reposts again.
func (s *SubmissionService) CancelLandedCost(ctx context.Context, id uuid.UUID, roles []string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lcv, err := repos.LandedCosts().FindByID(ctx, id)
		if err != nil {
			return err
		}
		revaluations, err := lcv.Revaluations()
		if err != nil {
			return err
		}
		if err := lcv.Cancel(); err != nil {
			return err
		}
		if err := lockPairs(ctx, repos, revaluationPairs(revaluations)); err != nil {
			return err
		}
		for _, rv := range revaluations {
			if err := s.revalueReceiptEntry(ctx, repos, rv.ReceiptVoucherNo, rv.ReceiptRowID,
				rv.ExtraRatePerUnit.Neg(), roles); err != nil {
				return err
			}
		}
		return repos.LandedCosts().Save(ctx, lcv)
	})
}

func revaluationPairs(revaluations []voucher.Revaluation) []pairKey {
	pairs := make([]pairKey, 0, len(revaluations))
	for _, rv := range revaluations {
		pairs = append(pairs, pairKey{item: rv.ItemID, warehouse: rv.WarehouseID})
	}
	return pairs
}

// revalueReceiptEntry shifts the incoming rate of one receipt's inbound
// entry and refolds its pair from that entry forward.
func (s *SubmissionService) revalueReceiptEntry(ctx context.Context, repos TransactionalRepositories,
	receiptNo string, receiptRowID uuid.UUID, delta decimal.Decimal, roles []string) error {
	entries, err := repos.Ledger().EntriesForVoucher(ctx, ledger.VoucherTypePurchaseReceipt, receiptNo)
	if err != nil {
		return err
	}
	var target *ledger.StockLedgerEntry
	for _, e := range entries {
		if e.IsCancelled || !e.IsInbound() {
			continue
		}
		if e.VoucherDetailNo == receiptRowID.String() {
			target = e
			break
		}
	}
	if target == nil {
		return shared.NewDomainErrorf(shared.ErrNotFound.Code,
			"Receipt %s has no inbound ledger entry for row %s", receiptNo, receiptRowID)
	}

	// A reconciliation after the receipt restates the pair's value outright;
	// shifting the receipt rate underneath it would silently undo the count.
	later, err := repos.Ledger().EntriesAfter(ctx, target.ItemID, target.WarehouseID, target.Key())
	if err != nil {
		return err
	}
	for _, e := range later {
		if !e.IsCancelled && e.ID != target.ID && e.VoucherType == ledger.VoucherTypeStockReconciliation {
			return shared.NewDomainErrorf(shared.ErrRevalueConflict.Code,
				"Receipt %s was reconciled by %s after the receipt date; the revaluation cannot be applied",
				receiptNo, e.VoucherNo)
		}
	}

	newRate := target.IncomingRate.Add(delta)
	if newRate.LessThan(decimal.Zero) {
		return shared.NewDomainErrorf("INVALID_REVALUATION",
			"Revaluation would drive the incoming rate of %s below zero", receiptNo)
	}
	if err := repos.Ledger().UpdateIncomingRate(ctx, target.ID, newRate); err != nil {
		return err
	}
	target.IncomingRate = newRate

	item, err := repos.Items().FindByID(ctx, target.ItemID)
	if err != nil {
		return err
	}
	opts := s.postingOptions(item, roles)
	opts.AllowNegative = true // value-only change, quantities are untouched
	opts.RateResolver = s.rateResolver(repos)

	ledgerSvc := ledger.NewService(repos.Ledger(), repos.Bins(), s.logger)
	return ledgerSvc.RepostPairs(ctx, []*ledger.StockLedgerEntry{target}, opts)
}
