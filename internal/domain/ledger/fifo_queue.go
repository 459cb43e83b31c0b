package ledger

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/shared"
)

// Layer is one FIFO bucket: a quantity received at a rate. Serialized as a
// two element JSON array so snapshots stay compact.
type Layer struct {
	Qty  decimal.Decimal
	Rate decimal.Decimal
}

// MarshalJSON renders the layer as [qty, rate]
func (l Layer) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]decimal.Decimal{l.Qty, l.Rate})
}

// UnmarshalJSON reads the [qty, rate] form
func (l *Layer) UnmarshalJSON(data []byte) error {
	var pair [2]decimal.Decimal
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	l.Qty = pair[0]
	l.Rate = pair[1]
	return nil
}

// Value returns qty * rate for the layer
func (l Layer) Value() decimal.Decimal {
	return l.Qty.Mul(l.Rate)
}

// FIFOQueue is the ordered list of open receipt layers for an (item,
// warehouse) pair. The head is consumed first. A negative head layer means
// the pair went below zero and records the rate at which the shortfall was
// booked.
type FIFOQueue struct {
	layers []Layer
}

// NewFIFOQueue returns an empty queue
func NewFIFOQueue() *FIFOQueue {
	return &FIFOQueue{layers: make([]Layer, 0, 4)}
}

// ParseFIFOQueue restores a queue from its JSON snapshot. An empty snapshot
// yields an empty queue.
func ParseFIFOQueue(snapshot string) (*FIFOQueue, error) {
	q := NewFIFOQueue()
	if snapshot == "" || snapshot == "[]" {
		return q, nil
	}
	if err := json.Unmarshal([]byte(snapshot), &q.layers); err != nil {
		return nil, shared.NewDomainErrorf("INVALID_QUEUE", "Cannot parse stock queue: %v", err)
	}
	return q, nil
}

// Snapshot serializes the queue for storage on a ledger entry
func (q *FIFOQueue) Snapshot() string {
	if len(q.layers) == 0 {
		return "[]"
	}
	data, err := json.Marshal(q.layers)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Layers returns a copy of the open layers
func (q *FIFOQueue) Layers() []Layer {
	out := make([]Layer, len(q.layers))
	copy(out, q.layers)
	return out
}

// Qty returns the total quantity across layers
func (q *FIFOQueue) Qty() decimal.Decimal {
	total := decimal.Zero
	for _, l := range q.layers {
		total = total.Add(l.Qty)
	}
	return total
}

// Value returns the total value across layers
func (q *FIFOQueue) Value() decimal.Decimal {
	total := decimal.Zero
	for _, l := range q.layers {
		total = total.Add(l.Value())
	}
	return total
}

// Rate returns the weighted average rate of the queue, zero when empty
func (q *FIFOQueue) Rate() decimal.Decimal {
	qty := q.Qty()
	if qty.IsZero() {
		return decimal.Zero
	}
	return roundValue(q.Value().Div(qty))
}

// Add pushes a receipt layer. A tail layer at the same rate is merged. When
// the balance is negative the incoming stock first settles the negative tail
// layer.
func (q *FIFOQueue) Add(qty, rate decimal.Decimal) {
	if len(q.layers) == 0 {
		q.layers = append(q.layers, Layer{Qty: qty, Rate: rate})
		return
	}

	tail := &q.layers[len(q.layers)-1]
	switch {
	case tail.Rate.Equal(rate):
		tail.Qty = tail.Qty.Add(qty)
	case tail.Qty.GreaterThan(decimal.Zero):
		q.layers = append(q.layers, Layer{Qty: qty, Rate: rate})
	default:
		// negative balance: settle the shortfall before opening a new layer
		settled := tail.Qty.Add(qty)
		if settled.GreaterThan(decimal.Zero) {
			*tail = Layer{Qty: settled, Rate: rate}
		} else {
			tail.Qty = settled
		}
	}

	if len(q.layers) > 0 && q.layers[len(q.layers)-1].Qty.IsZero() {
		q.layers = q.layers[:len(q.layers)-1]
	}
}

// Remove consumes qty from the queue head and returns the layers consumed.
// When outgoingRate is positive and a layer at exactly that rate exists, that
// layer is consumed first. When the queue runs out, the shortfall is booked
// as a negative layer at fallbackRate, so the caller decides the rate of
// stock that was never received.
func (q *FIFOQueue) Remove(qty, outgoingRate, fallbackRate decimal.Decimal) []Layer {
	consumed := make([]Layer, 0, 2)
	remaining := qty

	for remaining.GreaterThan(decimal.Zero) {
		if len(q.layers) == 0 {
			rate := fallbackRate
			if outgoingRate.GreaterThan(decimal.Zero) {
				rate = outgoingRate
			}
			q.layers = append(q.layers, Layer{Qty: decimal.Zero, Rate: rate})
		}

		idx := 0
		if outgoingRate.GreaterThan(decimal.Zero) {
			for i := range q.layers {
				if q.layers[i].Rate.Equal(outgoingRate) {
					idx = i
					break
				}
			}
		}

		layer := &q.layers[idx]
		if layer.Qty.GreaterThan(decimal.Zero) && remaining.GreaterThanOrEqual(layer.Qty) {
			remaining = remaining.Sub(layer.Qty)
			consumed = append(consumed, *layer)
			q.layers = append(q.layers[:idx], q.layers[idx+1:]...)
			continue
		}
		// partial consumption, or deduction into a zero/negative layer
		layer.Qty = layer.Qty.Sub(remaining)
		consumed = append(consumed, Layer{Qty: remaining, Rate: layer.Rate})
		remaining = decimal.Zero
	}

	return consumed
}

// LayerValue sums qty * rate across consumed layers
func LayerValue(layers []Layer) decimal.Decimal {
	total := decimal.Zero
	for _, l := range layers {
		total = total.Add(l.Value())
	}
	return total
}
