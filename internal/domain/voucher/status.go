package voucher

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/shared"
)

var hundred = decimal.NewFromInt(100)

// completionEpsilon absorbs rounding noise in the percentage projections
var completionEpsilon = decimal.New(1, -2)

// RowFulfillment is the re-derived downstream state of one order row:
// quantities summed from the live rows of submitted delivery, billing and
// return documents. Deltas are never passed in; callers always recompute
// totals so cancelled documents simply drop out.
type RowFulfillment struct {
	DeliveredQty decimal.Decimal
	BilledQty    decimal.Decimal
	ReturnedQty  decimal.Decimal
}

// Fulfillment maps order row IDs to their downstream totals
type Fulfillment map[uuid.UUID]RowFulfillment

// Tolerances are the company-level allowances for fulfilling or billing
// more than ordered, in percent of the ordered quantity.
type Tolerances struct {
	OverDeliveryPct decimal.Decimal
	OverBillingPct  decimal.Decimal
	OverReturnPct   decimal.Decimal
}

// ReturnTotals accumulates, per originating document row, the quantity the
// row delivered and the quantity returned against it across all submitted
// return documents.
type ReturnTotals struct {
	originQty map[uuid.UUID]decimal.Decimal
	returned  map[uuid.UUID]decimal.Decimal
}

// NewReturnTotals creates an empty accumulator
func NewReturnTotals() *ReturnTotals {
	return &ReturnTotals{
		originQty: make(map[uuid.UUID]decimal.Decimal),
		returned:  make(map[uuid.UUID]decimal.Decimal),
	}
}

// AddOrigin records the quantity of one originating row
func (rt *ReturnTotals) AddOrigin(rowID uuid.UUID, qty decimal.Decimal) {
	rt.originQty[rowID] = rt.originQty[rowID].Add(qty)
}

// AddReturn records a returned quantity against its originating row
func (rt *ReturnTotals) AddReturn(againstRowID uuid.UUID, qty decimal.Decimal) {
	rt.returned[againstRowID] = rt.returned[againstRowID].Add(qty)
}

// Validate checks each originating row's returned total against the
// quantity it moved, scaled by the over-return allowance. Returns against
// rows outside the accumulated set are left to the order-level check.
func (rt *ReturnTotals) Validate(tol Tolerances) error {
	for rowID, retQty := range rt.returned {
		origin, ok := rt.originQty[rowID]
		if !ok {
			continue
		}
		if retQty.GreaterThan(maxAllowed(origin, tol.OverReturnPct)) {
			return shared.NewDomainErrorf(shared.ErrOverReturn.Code,
				"Returned %s against row %s exceeds its quantity %s beyond the %s%% allowance",
				retQty.String(), rowID, origin.String(), tol.OverReturnPct.String())
		}
	}
	return nil
}

// maxAllowed returns qty scaled by the tolerance percentage
func maxAllowed(qty, tolerancePct decimal.Decimal) decimal.Decimal {
	return qty.Mul(hundred.Add(tolerancePct)).Div(hundred)
}

// ApplyFulfillment overwrites the order's fulfillment counters and derives
// its status. Delivered quantities are net of returns, so a return against
// a completed order reopens it on the next refresh.
func (o *Order) ApplyFulfillment(f Fulfillment, tol Tolerances) error {
	if o.DocStatus != DocStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", "Fulfillment applies to submitted orders only")
	}

	for i := range o.Rows {
		row := &o.Rows[i]
		rf := f[row.ID]

		if rf.ReturnedQty.GreaterThan(rf.DeliveredQty) {
			return shared.NewDomainErrorf(shared.ErrOverReturn.Code,
				"Row %d: returned %s exceeds delivered %s",
				row.Idx, rf.ReturnedQty.String(), rf.DeliveredQty.String())
		}
		if rf.DeliveredQty.GreaterThan(maxAllowed(row.Qty, tol.OverDeliveryPct)) {
			return shared.NewDomainErrorf(shared.ErrOverDelivery.Code,
				"Row %d: delivered %s exceeds ordered %s beyond the %s%% allowance",
				row.Idx, rf.DeliveredQty.String(), row.Qty.String(), tol.OverDeliveryPct.String())
		}
		if rf.BilledQty.GreaterThan(maxAllowed(row.Qty, tol.OverBillingPct)) {
			return shared.NewDomainErrorf(shared.ErrOverBilling.Code,
				"Row %d: billed %s exceeds ordered %s beyond the %s%% allowance",
				row.Idx, rf.BilledQty.String(), row.Qty.String(), tol.OverBillingPct.String())
		}

		row.DeliveredQty = rf.DeliveredQty.Sub(rf.ReturnedQty)
		row.BilledQty = rf.BilledQty
		row.ReturnedQty = rf.ReturnedQty
	}

	o.PerDelivered = o.completion(func(r *OrderRow) decimal.Decimal { return r.DeliveredQty })
	o.PerBilled = o.completion(func(r *OrderRow) decimal.Decimal { return r.BilledQty })
	o.deriveStatus()
	o.IncrementVersion()
	return nil
}

// completion computes the percentage of the ordered quantity covered by the
// counter, capping each row at its ordered quantity so over-fulfilled rows
// cannot mask unfulfilled ones.
func (o *Order) completion(counter func(*OrderRow) decimal.Decimal) decimal.Decimal {
	totalQty := decimal.Zero
	covered := decimal.Zero
	for i := range o.Rows {
		row := &o.Rows[i]
		totalQty = totalQty.Add(row.Qty)
		covered = covered.Add(decimal.Min(counter(row), row.Qty))
	}
	if totalQty.IsZero() {
		return decimal.Zero
	}
	return covered.Mul(hundred).Div(totalQty).Round(4)
}

// deriveStatus recomputes the status label from the percentage projections
func (o *Order) deriveStatus() {
	switch o.DocStatus {
	case DocStatusDraft:
		o.Status = OrderStatusDraft
		return
	case DocStatusCancelled:
		o.Status = OrderStatusCancelled
		return
	}
	if o.Closed {
		o.Status = OrderStatusClosed
		return
	}

	delivered := o.PerDelivered.GreaterThanOrEqual(hundred.Sub(completionEpsilon))
	billed := o.PerBilled.GreaterThanOrEqual(hundred.Sub(completionEpsilon))
	switch {
	case delivered && billed:
		o.Status = OrderStatusCompleted
	case delivered:
		o.Status = OrderStatusToBill
	case billed:
		o.Status = OrderStatusToDeliver
	default:
		o.Status = OrderStatusToDeliverAndBill
	}
}
