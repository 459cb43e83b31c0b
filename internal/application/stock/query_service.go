package stock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockcore/backend/internal/domain/ledger"
	"github.com/stockcore/backend/internal/domain/shared"
)

// QueryService answers read-side questions from the ledger projections and
// bins. It never writes.
type QueryService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewQueryService creates a QueryService
func NewQueryService(scope TransactionScope, logger *zap.Logger) *QueryService {
	return &QueryService{scope: scope, logger: logger}
}

// StockBalance returns the quantity of the pair as of the given instant.
// withValuation adds the valuation rate and stock value, withSerial lists
// the on-hand serial numbers of serialized items. Missing pairs report
// zeros.
func (q *QueryService) StockBalance(ctx context.Context, itemID, warehouseID uuid.UUID, asOf time.Time, withValuation, withSerial bool) (*StockBalanceResponse, error) {
	resp := &StockBalanceResponse{
		ItemID:      itemID,
		WarehouseID: warehouseID,
		AsOf:        asOf,
	}
	err := q.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		latest, err := repos.Ledger().LatestEntry(ctx, itemID, warehouseID, asOf)
		if err != nil {
			return err
		}
		if latest != nil {
			resp.Qty = latest.QtyAfterTransaction
			if withValuation {
				rate := latest.ValuationRate
				value := latest.StockValue
				resp.ValuationRate = &rate
				resp.StockValue = &value
			}
		}
		if withSerial {
			item, err := repos.Items().FindByID(ctx, itemID)
			if err != nil {
				return err
			}
			if item.HasSerialNo {
				serials, err := repos.Serials().InStock(ctx, itemID, warehouseID)
				if err != nil {
					return err
				}
				for _, s := range serials {
					resp.Serials = append(resp.Serials, s.SerialNo)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// LastPurchaseRate returns the most recent purchase price of an item, from
// submitted purchase orders and purchase receipts. A receipt wins a
// same-date tie: it records what actually arrived.
func (q *QueryService) LastPurchaseRate(ctx context.Context, itemID uuid.UUID) (*LastPurchaseResponse, error) {
	var resp *LastPurchaseResponse
	err := q.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		fromOrder, err := repos.Orders().LastPurchaseFor(ctx, itemID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		fromReceipt, err := repos.PurchaseReceipts().LastReceiptFor(ctx, itemID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		best := fromReceipt
		if best == nil || (fromOrder != nil && fromOrder.Date.After(best.Date)) {
			best = fromOrder
		}
		if best == nil {
			return shared.ErrNotFound
		}
		resp = &LastPurchaseResponse{
			ItemID:    itemID,
			Rate:      best.Rate,
			Date:      best.Date,
			VoucherNo: best.VoucherNo,
			Source:    best.Source,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// BatchBalance returns the live quantity and rate of one batch in a
// warehouse.
func (q *QueryService) BatchBalance(ctx context.Context, itemID, warehouseID, batchID uuid.UUID) (*BatchBalanceResponse, error) {
	resp := &BatchBalanceResponse{
		ItemID:      itemID,
		WarehouseID: warehouseID,
		BatchID:     batchID,
	}
	err := q.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		latest, err := repos.Ledger().BatchQty(ctx, itemID, warehouseID, batchID)
		if err != nil {
			return err
		}
		if latest != nil {
			resp.Qty = latest.BatchQtyAfterTransaction
			resp.ValuationRate = latest.BatchValuationRate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Bin returns the denormalized balance of the pair, counters included
func (q *QueryService) Bin(ctx context.Context, itemID, warehouseID uuid.UUID) (*BinResponse, error) {
	var resp *BinResponse
	err := q.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		bin, err := repos.Bins().Get(ctx, itemID, warehouseID)
		if err != nil {
			return err
		}
		resp = toBinResponse(bin)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ItemBins lists the balances of an item across all warehouses
func (q *QueryService) ItemBins(ctx context.Context, itemID uuid.UUID) ([]*BinResponse, error) {
	var resp []*BinResponse
	err := q.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		bins, err := repos.Bins().ForItem(ctx, itemID)
		if err != nil {
			return err
		}
		resp = make([]*BinResponse, 0, len(bins))
		for _, bin := range bins {
			resp = append(resp, toBinResponse(bin))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// VoucherLedger lists the live ledger entries a voucher wrote
func (q *QueryService) VoucherLedger(ctx context.Context, voucherType ledger.VoucherType, voucherNo string) ([]*LedgerEntryResponse, error) {
	var resp []*LedgerEntryResponse
	err := q.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entries, err := repos.Ledger().EntriesForVoucher(ctx, voucherType, voucherNo)
		if err != nil {
			return err
		}
		resp = make([]*LedgerEntryResponse, 0, len(entries))
		for _, e := range entries {
			if e.IsCancelled {
				continue
			}
			resp = append(resp, toLedgerEntryResponse(e))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// FIFOLayers returns the live cost layers of a FIFO-valued pair
func (q *QueryService) FIFOLayers(ctx context.Context, itemID, warehouseID uuid.UUID, asOf time.Time) ([]FIFOLayerResponse, error) {
	var resp []FIFOLayerResponse
	err := q.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		latest, err := repos.Ledger().LatestEntry(ctx, itemID, warehouseID, asOf)
		if err != nil {
			return err
		}
		if latest == nil || latest.StockQueue == "" {
			return nil
		}
		queue, err := ledger.ParseFIFOQueue(latest.StockQueue)
		if err != nil {
			return err
		}
		for _, layer := range queue.Layers() {
			resp = append(resp, FIFOLayerResponse{Qty: layer.Qty, Rate: layer.Rate})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// IncomingRateEstimate returns the rate an outbound movement of the pair
// would be valued at right now: the current valuation rate of the pair, or
// of the batch when one is given.
func (q *QueryService) IncomingRateEstimate(ctx context.Context, itemID, warehouseID uuid.UUID, batchID *uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	rate := decimal.Zero
	err := q.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if batchID != nil {
			latest, err := repos.Ledger().BatchQty(ctx, itemID, warehouseID, *batchID)
			if err != nil {
				return err
			}
			if latest != nil {
				rate = latest.BatchValuationRate
			}
			return nil
		}
		latest, err := repos.Ledger().LatestEntry(ctx, itemID, warehouseID, asOf)
		if err != nil {
			return err
		}
		if latest != nil {
			rate = latest.ValuationRate
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}
