package ledger

import (
	"github.com/shopspring/decimal"
)

// StockState is the running balance the valuation fold carries between
// consecutive ledger entries of one (item, warehouse) pair: quantity, value,
// rate and, for FIFO items, the open receipt layers.
type StockState struct {
	Qty           decimal.Decimal
	StockValue    decimal.Decimal
	ValuationRate decimal.Decimal
	Queue         *FIFOQueue
}

// NewStockState returns the zero state with an empty queue
func NewStockState() *StockState {
	return &StockState{
		Qty:           decimal.Zero,
		StockValue:    decimal.Zero,
		ValuationRate: decimal.Zero,
		Queue:         NewFIFOQueue(),
	}
}

// StateFromEntry restores the fold state from the projected columns of the
// previous ledger entry.
func StateFromEntry(e *StockLedgerEntry) (*StockState, error) {
	queue, err := ParseFIFOQueue(e.StockQueue)
	if err != nil {
		return nil, err
	}
	return &StockState{
		Qty:           e.QtyAfterTransaction,
		StockValue:    e.StockValue,
		ValuationRate: e.ValuationRate,
		Queue:         queue,
	}, nil
}

// applyMovingAverage advances the state with the moving average method.
// Inbound stock blends the incoming rate into the running rate; outbound
// stock leaves the rate untouched. A balance at or below zero resets the
// rate to the incoming rate of the next receipt.
func (s *StockState) applyMovingAverage(actualQty, incomingRate decimal.Decimal) {
	newQty := s.Qty.Add(actualQty)

	if actualQty.GreaterThan(decimal.Zero) {
		if s.Qty.LessThanOrEqual(decimal.Zero) {
			// the whole balance takes the rate of the receipt
			s.ValuationRate = incomingRate
		} else {
			value := s.Qty.Mul(s.ValuationRate).Add(actualQty.Mul(incomingRate))
			if newQty.GreaterThan(decimal.Zero) {
				s.ValuationRate = roundValue(value.Div(newQty))
			}
		}
	} else if !incomingRate.IsZero() && actualQty.LessThan(decimal.Zero) {
		// outgoing at an explicit rate (returns at original valuation)
		if newQty.GreaterThan(decimal.Zero) {
			value := s.Qty.Mul(s.ValuationRate).Add(actualQty.Mul(incomingRate))
			s.ValuationRate = roundValue(value.Div(newQty))
		}
	}

	s.Qty = newQty
	s.StockValue = roundValue(s.Qty.Mul(s.ValuationRate))
}

// applyFIFO advances the state with the FIFO method
func (s *StockState) applyFIFO(actualQty, incomingRate, outgoingRate decimal.Decimal) {
	if actualQty.GreaterThan(decimal.Zero) {
		s.Queue.Add(actualQty, incomingRate)
	} else if actualQty.LessThan(decimal.Zero) {
		fallback := s.ValuationRate
		if fallback.IsZero() {
			fallback = incomingRate
		}
		s.Queue.Remove(actualQty.Neg(), outgoingRate, fallback)
	}

	s.Qty = s.Qty.Add(actualQty)
	s.StockValue = roundValue(s.Queue.Value())
	if !s.Qty.IsZero() {
		s.ValuationRate = roundValue(s.StockValue.Div(s.Qty))
	}
}

// Apply advances the state by one ledger entry and returns the change in
// stock value caused by the entry.
func (s *StockState) Apply(method ValuationKind, e *StockLedgerEntry) decimal.Decimal {
	before := s.StockValue

	if method == ValuationKindFIFO {
		s.applyFIFO(e.ActualQty, e.IncomingRate, e.OutgoingRate)
	} else {
		s.applyMovingAverage(e.ActualQty, e.IncomingRate)
	}

	return s.StockValue.Sub(before)
}

// Revalue replaces the valuation rate without moving quantity. Used by
// reconciliation rate fixes and landed cost apportionment. FIFO queues are
// rewritten to a single layer at the new rate so the fold stays consistent.
func (s *StockState) Revalue(newRate decimal.Decimal) decimal.Decimal {
	before := s.StockValue
	s.ValuationRate = roundValue(newRate)
	s.StockValue = roundValue(s.Qty.Mul(s.ValuationRate))
	if s.Qty.GreaterThan(decimal.Zero) {
		s.Queue = NewFIFOQueue()
		s.Queue.Add(s.Qty, s.ValuationRate)
	}
	return s.StockValue.Sub(before)
}

// ValuationKind is the costing method driving the fold
type ValuationKind int

const (
	ValuationKindMovingAverage ValuationKind = iota
	ValuationKindFIFO
)
