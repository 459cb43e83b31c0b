package stock

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/catalog"
	"github.com/stockcore/backend/internal/domain/ledger"
	"github.com/stockcore/backend/internal/domain/shared"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// postVoucher writes the ledger entries a submitted voucher plans, in plan
// order. Transfers rely on that ordering: the issue leg lands first so the
// receiving leg's rate edge resolves against it.
func (s *SubmissionService) postVoucher(ctx context.Context, repos TransactionalRepositories,
	v voucher.StockVoucher, roles []string) error {
	plan, err := v.LedgerPlan()
	if err != nil {
		return err
	}
	if len(plan) == 0 {
		return nil
	}

	pairs := make([]pairKey, 0, len(plan))
	for i := range plan {
		pairs = append(pairs, pairKey{item: plan[i].ItemID, warehouse: plan[i].WarehouseID})
	}
	if err := lockPairs(ctx, repos, pairs); err != nil {
		return err
	}

	ledgerSvc := ledger.NewService(repos.Ledger(), repos.Bins(), s.logger)
	for i := range plan {
		if err := s.postPlanned(ctx, repos, ledgerSvc, v, &plan[i], roles); err != nil {
			return err
		}
	}
	return nil
}

func (s *SubmissionService) postPlanned(ctx context.Context, repos TransactionalRepositories,
	ledgerSvc *ledger.Service, v voucher.StockVoucher, p *voucher.PlannedEntry, roles []string) error {
	item, err := repos.Items().FindByID(ctx, p.ItemID)
	if err != nil {
		return err
	}
	if err := item.ValidateStockUse(); err != nil {
		return err
	}
	warehouse, err := repos.Warehouses().FindByID(ctx, p.WarehouseID)
	if err != nil {
		return err
	}
	if err := warehouse.ValidateStockUse(); err != nil {
		return err
	}
	if err := s.checkWholeNumberUOM(ctx, repos, item, p.Qty); err != nil {
		return err
	}

	if item.HasBatchNo {
		if err := s.checkBatch(ctx, repos, item, p, v.GetPostingDate()); err != nil {
			return err
		}
	} else if p.BatchID != nil {
		return shared.NewDomainErrorf(shared.ErrInvalidBatch.Code,
			"Item %s does not track batches", item.Code)
	}
	if item.HasSerialNo {
		if err := s.moveSerials(ctx, repos, item, p, v); err != nil {
			return err
		}
	} else if len(p.SerialNos) > 0 {
		return shared.NewDomainErrorf(shared.ErrSerialNoState.Code,
			"Item %s does not track serial numbers", item.Code)
	}

	entry := &ledger.StockLedgerEntry{
		BaseEntity:      shared.NewBaseEntity(),
		ItemID:          p.ItemID,
		WarehouseID:     p.WarehouseID,
		BatchID:         p.BatchID,
		SerialNos:       strings.Join(p.SerialNos, "\n"),
		VoucherType:     v.LedgerVoucherType(),
		VoucherNo:       v.LedgerVoucherNo(),
		VoucherDetailNo: p.DetailNo,
		PostingDate:     v.GetPostingDate(),
		PostingTime:     v.GetPostingTime(),
		ActualQty:       p.Qty,
		IncomingRate:    p.IncomingRate,
		OutgoingRate:    p.OutgoingRate,
		WrittenRate:     p.IncomingRate,
	}

	edges := make([]*ledger.DependencyEdge, 0, len(p.Edges))
	for _, spec := range p.Edges {
		edge, err := ledger.NewDependencyEdge(entry.ID, spec.SourceType, spec.SourceNo,
			spec.SourceDetail, spec.Kind, spec.Filter, spec.Percentage)
		if err != nil {
			return err
		}
		edges = append(edges, edge)
	}
	if err := ledger.ValidateEdges(edges); err != nil {
		return err
	}
	for _, edge := range edges {
		if err := repos.Dependencies().Insert(ctx, edge); err != nil {
			return err
		}
	}

	opts := s.postingOptions(item, roles)
	opts.RateResolver = s.rateResolver(repos)
	return ledgerSvc.PostEntry(ctx, entry, opts)
}

// checkWholeNumberUOM rejects fractional quantities when the item's stock
// UOM is registered as whole-number only. Unregistered UOM codes carry no
// restriction.
func (s *SubmissionService) checkWholeNumberUOM(ctx context.Context, repos TransactionalRepositories,
	item *catalog.Item, qty decimal.Decimal) error {
	uom, err := repos.Conversions().FindUOM(ctx, item.StockUOM)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return catalog.ValidateWholeNumber(uom, qty)
}

// cancelLedger reverts the stock side of a cancelled voucher: serials go
// back to their prior state, the voucher's dependency edges are dropped and
// the ledger reposts every affected pair.
func (s *SubmissionService) cancelLedger(ctx context.Context, repos TransactionalRepositories,
	v voucher.StockVoucher, roles []string) error {
	entries, err := repos.Ledger().EntriesForVoucher(ctx, v.LedgerVoucherType(), v.LedgerVoucherNo())
	if err != nil {
		return err
	}
	pairs := make([]pairKey, 0, len(entries))
	for _, e := range entries {
		pairs = append(pairs, pairKey{item: e.ItemID, warehouse: e.WarehouseID})
	}
	if err := lockPairs(ctx, repos, pairs); err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsCancelled {
			continue
		}
		if err := s.revertSerials(ctx, repos, e); err != nil {
			return err
		}
		if err := repos.Dependencies().DeleteForDependent(ctx, e.ID); err != nil {
			return err
		}
	}

	ledgerSvc := ledger.NewService(repos.Ledger(), repos.Bins(), s.logger)
	opts := ledger.PostingOptions{
		// Cancellation reposting folds the surviving entries; each pair
		// may carry a different method, so resolve per item.
		AllowNegative: true,
		Frozen:        s.settings.Frozen,
		Roles:         roles,
		RateResolver:  s.rateResolver(repos),
	}
	return s.cancelPerItem(ctx, repos, ledgerSvc, v, entries, opts, roles)
}

// cancelPerItem flags the entries cancelled, then reposts pair by pair with
// each item's own valuation method.
func (s *SubmissionService) cancelPerItem(ctx context.Context, repos TransactionalRepositories,
	ledgerSvc *ledger.Service, v voucher.StockVoucher, entries []*ledger.StockLedgerEntry,
	base ledger.PostingOptions, roles []string) error {
	if _, err := repos.Ledger().CancelVoucherEntries(ctx, v.LedgerVoucherType(), v.LedgerVoucherNo()); err != nil {
		return err
	}

	seen := make(map[pairKey]bool)
	for _, e := range entries {
		key := pairKey{item: e.ItemID, warehouse: e.WarehouseID}
		if seen[key] {
			continue
		}
		seen[key] = true

		item, err := repos.Items().FindByID(ctx, e.ItemID)
		if err != nil {
			return err
		}
		opts := s.postingOptions(item, roles)
		opts.AllowNegative = base.AllowNegative
		opts.RateResolver = base.RateResolver
		if err := ledgerSvc.RepostPairs(ctx, []*ledger.StockLedgerEntry{e}, opts); err != nil {
			return err
		}
	}
	return nil
}

type pairKey struct {
	item      uuid.UUID
	warehouse uuid.UUID
}

// lockPairs takes the bin row lock of every distinct (item, warehouse)
// pair a posting will touch, before any ledger read. Pairs are locked in
// canonical order so two postings over overlapping pairs serialize rather
// than deadlock.
func lockPairs(ctx context.Context, repos TransactionalRepositories, pairs []pairKey) error {
	seen := make(map[pairKey]bool)
	uniq := make([]pairKey, 0, len(pairs))
	for _, p := range pairs {
		if seen[p] {
			continue
		}
		seen[p] = true
		uniq = append(uniq, p)
	}
	sort.Slice(uniq, func(i, j int) bool {
		if c := bytes.Compare(uniq[i].item[:], uniq[j].item[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(uniq[i].warehouse[:], uniq[j].warehouse[:]) < 0
	})
	for _, p := range uniq {
		if _, err := repos.Bins().GetOrCreate(ctx, p.item, p.warehouse); err != nil {
			return err
		}
	}
	return nil
}

// postingOptions builds the ledger policy for one item
func (s *SubmissionService) postingOptions(item *catalog.Item, roles []string) ledger.PostingOptions {
	method, batchWise := item.EffectiveValuation(s.settings.DefaultValuationMethod)
	return ledger.PostingOptions{
		Method:        valuationKind(method),
		BatchWise:     batchWise,
		AllowNegative: s.settings.AllowNegativeStock,
		Frozen:        s.settings.Frozen,
		Roles:         roles,
	}
}

// rateResolver derives entry rates from their dependency edges. RATE edges
// replace the written rate, AMOUNT edges add their per-unit share on top.
func (s *SubmissionService) rateResolver(repos TransactionalRepositories) ledger.RateResolver {
	return func(ctx context.Context, entry *ledger.StockLedgerEntry) (decimal.Decimal, bool, error) {
		edges, err := repos.Dependencies().ForDependent(ctx, entry.ID)
		if err != nil {
			return decimal.Zero, false, err
		}
		if len(edges) == 0 {
			return decimal.Zero, false, nil
		}

		rate := entry.WrittenRate
		for _, edge := range edges {
			candidates, err := repos.Ledger().EntriesForVoucher(ctx, edge.SourceVoucherType, edge.SourceVoucherNo)
			if err != nil {
				return decimal.Zero, false, err
			}
			source, err := edge.Resolve(candidates)
			if err != nil {
				return decimal.Zero, false, err
			}
			derived, err := edge.DerivedRate(source, entry.ActualQty)
			if err != nil {
				return decimal.Zero, false, err
			}
			if edge.Kind == ledger.DependencyKindAmount {
				rate = rate.Add(derived)
			} else {
				rate = derived
			}
		}
		return rate, true, nil
	}
}

// checkBatch validates the batch of a planned movement and stamps the first
// receipt date on inbound entries.
func (s *SubmissionService) checkBatch(ctx context.Context, repos TransactionalRepositories,
	item *catalog.Item, p *voucher.PlannedEntry, postingDate time.Time) error {
	if p.BatchID == nil {
		if p.Qty.IsZero() {
			return nil
		}
		return shared.NewDomainErrorf(shared.ErrInvalidBatch.Code,
			"Item %s requires a batch on every movement", item.Code)
	}
	batch, err := repos.Batches().FindByID(ctx, *p.BatchID)
	if err != nil {
		return err
	}
	if err := batch.ValidateForItem(item.ID); err != nil {
		return err
	}
	if p.Qty.LessThan(decimal.Zero) && batch.IsExpiredAt(postingDate) {
		return shared.NewDomainErrorf(shared.ErrInvalidBatch.Code,
			"Batch %s is expired on the posting date", batch.BatchID)
	}
	if p.Qty.GreaterThan(decimal.Zero) {
		batch.MarkFirstReceipt(postingDate)
		return repos.Batches().Save(ctx, batch)
	}
	return nil
}

// moveSerials walks every serial of a planned movement through its state
// machine. Inbound movements may create new serial records; outbound
// movements require known, on-hand ones.
func (s *SubmissionService) moveSerials(ctx context.Context, repos TransactionalRepositories,
	item *catalog.Item, p *voucher.PlannedEntry, v voucher.StockVoucher) error {
	if p.Qty.IsZero() {
		return nil
	}
	count := p.Qty.Abs()
	if !count.Equal(count.Truncate(0)) {
		return shared.NewDomainErrorf(shared.ErrUOMMustBeInteger.Code,
			"Serialized item %s cannot move in fractional quantities", item.Code)
	}
	if int64(len(p.SerialNos)) != count.IntPart() {
		return shared.NewDomainErrorf(shared.ErrSerialNoState.Code,
			"Movement of %s needs %s serial numbers, got %d", item.Code, count, len(p.SerialNos))
	}

	inbound := p.Qty.GreaterThan(decimal.Zero)
	for _, sn := range p.SerialNos {
		rec, err := repos.Serials().FindBySerial(ctx, sn)
		switch {
		case err == nil:
		case inbound && errors.Is(err, shared.ErrNotFound):
			rec, err = catalog.NewSerialNo(sn, item.ID)
			if err != nil {
				return err
			}
		default:
			return err
		}
		if rec.ItemID != item.ID {
			return shared.NewDomainErrorf(shared.ErrSerialNoState.Code,
				"Serial %s belongs to another item", sn)
		}

		if inbound {
			err = rec.Receive(p.WarehouseID, p.IncomingRate, v.GetPostingDate(), v.GetPostingTime())
		} else {
			err = rec.Deliver(p.WarehouseID)
		}
		if err != nil {
			return err
		}
		if err := repos.Serials().Save(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// revertSerials undoes the serial movement of one cancelled ledger entry
func (s *SubmissionService) revertSerials(ctx context.Context, repos TransactionalRepositories,
	e *ledger.StockLedgerEntry) error {
	if e.SerialNos == "" {
		return nil
	}
	serials, err := catalog.ParseSerialNos(e.SerialNos)
	if err != nil {
		return err
	}
	for _, sn := range serials {
		rec, err := repos.Serials().FindBySerial(ctx, sn)
		if err != nil {
			return err
		}
		if e.IsInbound() {
			err = rec.Deliver(e.WarehouseID)
		} else {
			err = rec.Receive(e.WarehouseID, e.OutgoingRate, e.PostingDate, e.PostingTime)
		}
		if err != nil {
			return err
		}
		if err := repos.Serials().Save(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// postingInstant merges the posting date and clock time into one timestamp
// for as-of balance reads.
func postingInstant(date, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), time.UTC)
}
