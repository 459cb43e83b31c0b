package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/ledger"
)

// StockBalanceResponse reports the pair balance as of an instant. The
// valuation fields and serial list are present only when asked for.
type StockBalanceResponse struct {
	ItemID        uuid.UUID        `json:"item_id"`
	WarehouseID   uuid.UUID        `json:"warehouse_id"`
	AsOf          time.Time        `json:"as_of"`
	Qty           decimal.Decimal  `json:"qty"`
	ValuationRate *decimal.Decimal `json:"valuation_rate,omitempty"`
	StockValue    *decimal.Decimal `json:"stock_value,omitempty"`
	Serials       []string         `json:"serials,omitempty"`
}

// LastPurchaseResponse reports the most recent purchase price of an item
type LastPurchaseResponse struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Rate      decimal.Decimal `json:"rate"`
	Date      time.Time       `json:"date"`
	VoucherNo string          `json:"voucher_no"`
	Source    string          `json:"source"`
}

// BatchBalanceResponse reports the live balance of one batch
type BatchBalanceResponse struct {
	ItemID        uuid.UUID       `json:"item_id"`
	WarehouseID   uuid.UUID       `json:"warehouse_id"`
	BatchID       uuid.UUID       `json:"batch_id"`
	Qty           decimal.Decimal `json:"qty"`
	ValuationRate decimal.Decimal `json:"valuation_rate"`
}

// BinResponse reports the denormalized balance and open-order counters
type BinResponse struct {
	ItemID        uuid.UUID       `json:"item_id"`
	WarehouseID   uuid.UUID       `json:"warehouse_id"`
	ActualQty     decimal.Decimal `json:"actual_qty"`
	ReservedQty   decimal.Decimal `json:"reserved_qty"`
	OrderedQty    decimal.Decimal `json:"ordered_qty"`
	ProjectedQty  decimal.Decimal `json:"projected_qty"`
	ValuationRate decimal.Decimal `json:"valuation_rate"`
	StockValue    decimal.Decimal `json:"stock_value"`
}

// LedgerEntryResponse is one ledger movement in API responses
type LedgerEntryResponse struct {
	ID                   uuid.UUID       `json:"id"`
	ItemID               uuid.UUID       `json:"item_id"`
	WarehouseID          uuid.UUID       `json:"warehouse_id"`
	BatchID              *uuid.UUID      `json:"batch_id,omitempty"`
	VoucherType          string          `json:"voucher_type"`
	VoucherNo            string          `json:"voucher_no"`
	PostingDate          time.Time       `json:"posting_date"`
	PostingTime          time.Time       `json:"posting_time"`
	ActualQty            decimal.Decimal `json:"actual_qty"`
	QtyAfterTransaction  decimal.Decimal `json:"qty_after_transaction"`
	IncomingRate         decimal.Decimal `json:"incoming_rate"`
	OutgoingRate         decimal.Decimal `json:"outgoing_rate"`
	ValuationRate        decimal.Decimal `json:"valuation_rate"`
	StockValue           decimal.Decimal `json:"stock_value"`
	StockValueDifference decimal.Decimal `json:"stock_value_difference"`
}

// FIFOLayerResponse is one live cost layer of a FIFO pair
type FIFOLayerResponse struct {
	Qty  decimal.Decimal `json:"qty"`
	Rate decimal.Decimal `json:"rate"`
}

func toBinResponse(bin *ledger.Bin) *BinResponse {
	return &BinResponse{
		ItemID:        bin.ItemID,
		WarehouseID:   bin.WarehouseID,
		ActualQty:     bin.ActualQty,
		ReservedQty:   bin.ReservedQty,
		OrderedQty:    bin.OrderedQty,
		ProjectedQty:  bin.ProjectedQty,
		ValuationRate: bin.ValuationRate,
		StockValue:    bin.StockValue,
	}
}

func toLedgerEntryResponse(e *ledger.StockLedgerEntry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:                   e.ID,
		ItemID:               e.ItemID,
		WarehouseID:          e.WarehouseID,
		BatchID:              e.BatchID,
		VoucherType:          e.VoucherType.String(),
		VoucherNo:            e.VoucherNo,
		PostingDate:          e.PostingDate,
		PostingTime:          e.PostingTime,
		ActualQty:            e.ActualQty,
		QtyAfterTransaction:  e.QtyAfterTransaction,
		IncomingRate:         e.IncomingRate,
		OutgoingRate:         e.OutgoingRate,
		ValuationRate:        e.ValuationRate,
		StockValue:           e.StockValue,
		StockValueDifference: e.StockValueDifference,
	}
}
