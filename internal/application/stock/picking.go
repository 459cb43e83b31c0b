package stock

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockcore/backend/internal/domain/allocation"
	"github.com/stockcore/backend/internal/domain/shared"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// allocateDeliveryRows fills in the batch and serial picks of delivery rows
// that left them open. Batched rows drain batches in FEFO order, preferring
// batches reserved for the row's sales order. Serialized rows take the
// oldest on-hand serials.
func (s *SubmissionService) allocateDeliveryRows(ctx context.Context, repos TransactionalRepositories,
	note *voucher.DeliveryNote) error {
	for idx := 0; idx < len(note.Rows); idx++ {
		row := &note.Rows[idx]
		item, err := repos.Items().FindByID(ctx, row.ItemID)
		if err != nil {
			return err
		}

		if item.HasBatchNo && !item.HasSerialNo && row.BatchID == nil {
			if err := s.allocateBatches(ctx, repos, note, row.ID); err != nil {
				return err
			}
			// Allocation rebuilt the row slice. Rescan from the top;
			// rows that now carry a batch are skipped on revisit.
			idx = -1
			continue
		}

		if item.HasSerialNo && strings.TrimSpace(row.SerialNos) == "" {
			if err := s.allocateSerials(ctx, repos, row); err != nil {
				return err
			}
		}
	}
	return nil
}

// allocateBatches picks batches for one open row and splits it per pick
func (s *SubmissionService) allocateBatches(ctx context.Context, repos TransactionalRepositories,
	note *voucher.DeliveryNote, rowID uuid.UUID) error {
	var row *voucher.DeliveryNoteRow
	for i := range note.Rows {
		if note.Rows[i].ID == rowID {
			row = &note.Rows[i]
			break
		}
	}
	if row == nil {
		return nil
	}

	pools, err := s.batchPools(ctx, repos, row)
	if err != nil {
		return err
	}

	allocator, err := allocation.NewAllocator(allocation.Policy{
		Strategy:       allocation.BatchStrategyFEFO,
		QtyPrecision:   s.settings.QtyPrecision,
		AllowShortfall: s.settings.AllowPartialAllocation,
		PostingDate:    note.GetPostingDate(),
	})
	if err != nil {
		return err
	}
	result, err := allocator.Allocate(row.Qty, pools, row.SalesOrderID)
	if err != nil {
		return err
	}

	slices := make([]voucher.AllocatedSlice, 0, len(result.Picks))
	for _, pick := range result.Picks {
		if pick.BatchID == nil {
			// Shortfall remainder. The row delivers what the batches cover;
			// the undelivered quantity stays open on the sales order.
			continue
		}
		slices = append(slices, voucher.NewAllocatedSlice(pick.BatchID, pick.Qty))
	}
	if len(slices) == 0 {
		return shared.NewDomainErrorf(shared.ErrInsufficientBatchStock.Code,
			"No batch stock available for row %d", row.Idx)
	}
	if !result.ShortfallQty.IsZero() {
		s.logger.Warn("delivery row allocated short",
			zap.String("delivery_note", note.VoucherNo),
			zap.Int("row", row.Idx),
			zap.String("shortfall_qty", result.ShortfallQty.String()))
	}
	return note.ReplaceRowAllocation(row.ID, slices)
}

// batchPools builds the availability list the allocator chooses from
func (s *SubmissionService) batchPools(ctx context.Context, repos TransactionalRepositories,
	row *voucher.DeliveryNoteRow) ([]allocation.BatchAvailability, error) {
	batches, err := repos.Batches().ForItem(ctx, row.ItemID)
	if err != nil {
		return nil, err
	}
	pools := make([]allocation.BatchAvailability, 0, len(batches))
	for _, batch := range batches {
		latest, err := repos.Ledger().BatchQty(ctx, row.ItemID, row.WarehouseID, batch.ID)
		if err != nil {
			return nil, err
		}
		available := decimal.Zero
		if latest != nil {
			available = latest.BatchQtyAfterTransaction
		}
		pools = append(pools, allocation.BatchAvailability{
			Batch:            batch,
			AvailableQty:     available,
			ReservedForOrder: batch.ReservedForOrderID,
		})
	}
	return pools, nil
}

// allocateSerials fills one open serialized row with on-hand serials
func (s *SubmissionService) allocateSerials(ctx context.Context, repos TransactionalRepositories,
	row *voucher.DeliveryNoteRow) error {
	pool, err := repos.Serials().InStock(ctx, row.ItemID, row.WarehouseID)
	if err != nil {
		return err
	}
	picked, err := allocation.NewSerialAllocator().Allocate(
		int(row.Qty.IntPart()), pool, row.WarehouseID, row.SalesOrderID)
	if err != nil {
		return err
	}
	serials := make([]string, 0, len(picked))
	for _, sn := range picked {
		serials = append(serials, sn.SerialNo)
	}
	row.SerialNos = strings.Join(serials, "\n")
	return nil
}
