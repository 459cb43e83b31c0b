package voucher

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockcore/backend/internal/domain/ledger"
)

var (
	postingDate = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	postingTime = time.Date(2026, 1, 10, 14, 30, 0, 0, time.UTC)
)

func TestPurchaseReceiptPlan(t *testing.T) {
	t.Run("receipt rows become inbound entries at the row rate", func(t *testing.T) {
		pr, err := NewPurchaseReceipt("PR-001", uuid.New(), postingDate, postingTime)
		require.NoError(t, err)
		row, err := pr.AddRow(uuid.New(), uuid.New(), d(10), d(25))
		require.NoError(t, err)

		plan, err := pr.LedgerPlan()
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.True(t, plan[0].Qty.Equal(d(10)))
		assert.True(t, plan[0].IncomingRate.Equal(d(25)))
		assert.Equal(t, row.ID.String(), plan[0].DetailNo)
		assert.Empty(t, plan[0].Edges)
	})

	t.Run("return rows issue stock with a rate edge to the original", func(t *testing.T) {
		pr, err := NewPurchaseReceipt("PR-RET-001", uuid.New(), postingDate, postingTime)
		require.NoError(t, err)
		require.NoError(t, pr.MarkReturn("PR-001"))
		row, err := pr.AddRow(uuid.New(), uuid.New(), d(4), d(25))
		require.NoError(t, err)
		orig := uuid.New()
		row.ReturnAgainstRowID = &orig

		plan, err := pr.LedgerPlan()
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.True(t, plan[0].Qty.Equal(d(-4)))
		require.Len(t, plan[0].Edges, 1)
		edge := plan[0].Edges[0]
		assert.Equal(t, ledger.VoucherTypePurchaseReceipt, edge.SourceType)
		assert.Equal(t, "PR-001", edge.SourceNo)
		assert.Equal(t, orig.String(), edge.SourceDetail)
		assert.Equal(t, ledger.QtyFilterPositive, edge.Filter)
	})

	t.Run("return rows without the original reference fail", func(t *testing.T) {
		pr, err := NewPurchaseReceipt("PR-RET-002", uuid.New(), postingDate, postingTime)
		require.NoError(t, err)
		require.NoError(t, pr.MarkReturn("PR-001"))
		_, err = pr.AddRow(uuid.New(), uuid.New(), d(4), d(25))
		require.NoError(t, err)

		_, err = pr.LedgerPlan()
		assert.Error(t, err)
	})
}

func TestDeliveryNotePlan(t *testing.T) {
	t.Run("delivery rows become outbound entries", func(t *testing.T) {
		dn, err := NewDeliveryNote("DN-001", uuid.New(), postingDate, postingTime)
		require.NoError(t, err)
		_, err = dn.AddRow(uuid.New(), uuid.New(), d(3), d(40))
		require.NoError(t, err)

		plan, err := dn.LedgerPlan()
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.True(t, plan[0].Qty.Equal(d(-3)))
	})

	t.Run("sales return receives at the original outgoing rate", func(t *testing.T) {
		dn, err := NewDeliveryNote("DN-RET-001", uuid.New(), postingDate, postingTime)
		require.NoError(t, err)
		require.NoError(t, dn.MarkReturn("DN-001"))
		row, err := dn.AddRow(uuid.New(), uuid.New(), d(2), d(40))
		require.NoError(t, err)
		orig := uuid.New()
		row.ReturnAgainstRowID = &orig

		plan, err := dn.LedgerPlan()
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.True(t, plan[0].Qty.Equal(d(2)))
		require.Len(t, plan[0].Edges, 1)
		assert.Equal(t, ledger.DependencyKindRate, plan[0].Edges[0].Kind)
		assert.Equal(t, ledger.QtyFilterNegative, plan[0].Edges[0].Filter)
	})
}

func TestDeliveryNoteRowAllocation(t *testing.T) {
	dn, err := NewDeliveryNote("DN-ALLOC", uuid.New(), postingDate, postingTime)
	require.NoError(t, err)
	_, err = dn.AddRow(uuid.New(), uuid.New(), d(1), d(10))
	require.NoError(t, err)
	row, err := dn.AddRow(uuid.New(), uuid.New(), d(8), d(10))
	require.NoError(t, err)

	b1 := uuid.New()
	b2 := uuid.New()
	require.NoError(t, dn.ReplaceRowAllocation(row.ID, []AllocatedSlice{
		NewAllocatedSlice(&b1, d(5)),
		NewAllocatedSlice(&b2, d(3)),
	}))

	require.Len(t, dn.Rows, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{dn.Rows[0].Idx, dn.Rows[1].Idx, dn.Rows[2].Idx})
	assert.True(t, dn.Rows[1].Qty.Equal(d(5)))
	assert.Equal(t, b1, *dn.Rows[1].BatchID)
	assert.True(t, dn.Rows[2].Qty.Equal(d(3)))
	assert.Equal(t, b2, *dn.Rows[2].BatchID)
	// split rows get fresh identities except the first, which keeps the original
	assert.Equal(t, row.ID, dn.Rows[1].ID)
	assert.NotEqual(t, row.ID, dn.Rows[2].ID)
}

func TestStockEntryPlan(t *testing.T) {
	src := uuid.New()
	dst := uuid.New()

	t.Run("transfer writes issue then chained receipt", func(t *testing.T) {
		se, err := NewStockEntry("STE-001", StockEntryTransfer, postingDate, postingTime)
		require.NoError(t, err)
		row, err := se.AddRow(uuid.New(), &src, &dst, d(6), decimal.Zero)
		require.NoError(t, err)

		plan, err := se.LedgerPlan()
		require.NoError(t, err)
		require.Len(t, plan, 2)

		issue, receipt := plan[0], plan[1]
		assert.True(t, issue.Qty.Equal(d(-6)))
		assert.Equal(t, src, issue.WarehouseID)
		assert.True(t, receipt.Qty.Equal(d(6)))
		assert.Equal(t, dst, receipt.WarehouseID)
		require.Len(t, receipt.Edges, 1)
		assert.Equal(t, "STE-001", receipt.Edges[0].SourceNo)
		assert.Equal(t, row.ID.String(), receipt.Edges[0].SourceDetail)
		assert.Equal(t, ledger.QtyFilterNegative, receipt.Edges[0].Filter)
	})

	t.Run("warehouse shape is validated per purpose", func(t *testing.T) {
		se, err := NewStockEntry("STE-002", StockEntryReceipt, postingDate, postingTime)
		require.NoError(t, err)
		_, err = se.AddRow(uuid.New(), &src, &dst, d(1), d(10))
		assert.Error(t, err)

		_, err = se.AddRow(uuid.New(), nil, &dst, d(1), d(10))
		assert.NoError(t, err)

		se2, err := NewStockEntry("STE-003", StockEntryTransfer, postingDate, postingTime)
		require.NoError(t, err)
		_, err = se2.AddRow(uuid.New(), &src, &src, d(1), decimal.Zero)
		assert.Error(t, err)
	})
}

func TestInvoicePlan(t *testing.T) {
	t.Run("invoices without update stock move nothing", func(t *testing.T) {
		inv, err := NewInvoice(InvoiceKindSales, "SI-001", uuid.New(), postingDate, postingTime)
		require.NoError(t, err)
		_, err = inv.AddRow(uuid.New(), d(5), d(20))
		require.NoError(t, err)

		plan, err := inv.LedgerPlan()
		require.NoError(t, err)
		assert.Empty(t, plan)
	})

	t.Run("stock-updating sales invoice issues stock", func(t *testing.T) {
		inv, err := NewInvoice(InvoiceKindSales, "SI-002", uuid.New(), postingDate, postingTime)
		require.NoError(t, err)
		inv.UpdateStock = true
		row, err := inv.AddRow(uuid.New(), d(5), d(20))
		require.NoError(t, err)
		wh := uuid.New()
		row.WarehouseID = &wh

		plan, err := inv.LedgerPlan()
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.True(t, plan[0].Qty.Equal(d(-5)))
	})

	t.Run("rows covered by a delivery are skipped", func(t *testing.T) {
		inv, err := NewInvoice(InvoiceKindSales, "SI-003", uuid.New(), postingDate, postingTime)
		require.NoError(t, err)
		inv.UpdateStock = true
		row, err := inv.AddRow(uuid.New(), d(5), d(20))
		require.NoError(t, err)
		covered := uuid.New()
		row.FulfillmentRowID = &covered

		plan, err := inv.LedgerPlan()
		require.NoError(t, err)
		assert.Empty(t, plan)
	})

	t.Run("stock-updating purchase invoice receives stock", func(t *testing.T) {
		inv, err := NewInvoice(InvoiceKindPurchase, "PI-001", uuid.New(), postingDate, postingTime)
		require.NoError(t, err)
		inv.UpdateStock = true
		row, err := inv.AddRow(uuid.New(), d(5), d(20))
		require.NoError(t, err)
		wh := uuid.New()
		row.WarehouseID = &wh

		plan, err := inv.LedgerPlan()
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.True(t, plan[0].Qty.Equal(d(5)))
		assert.True(t, plan[0].IncomingRate.Equal(d(20)))
	})

	t.Run("sales invoice return re-enters against the original row", func(t *testing.T) {
		inv, err := NewInvoice(InvoiceKindSales, "SI-004", uuid.New(), postingDate, postingTime)
		require.NoError(t, err)
		inv.UpdateStock = true
		require.NoError(t, inv.MarkReturn("SI-002"))
		row, err := inv.AddRow(uuid.New(), d(2), d(35))
		require.NoError(t, err)
		wh := uuid.New()
		row.WarehouseID = &wh

		_, err = inv.LedgerPlan()
		assert.Error(t, err)

		orig := uuid.New()
		row.ReturnAgainstRowID = &orig
		plan, err := inv.LedgerPlan()
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.True(t, plan[0].Qty.Equal(d(2)))
		assert.True(t, plan[0].IncomingRate.IsZero(), "return must not re-enter at the billed rate")
		require.Len(t, plan[0].Edges, 1)
		edge := plan[0].Edges[0]
		assert.Equal(t, ledger.VoucherTypeSalesInvoice, edge.SourceType)
		assert.Equal(t, "SI-002", edge.SourceNo)
		assert.Equal(t, orig.String(), edge.SourceDetail)
		assert.Equal(t, ledger.DependencyKindRate, edge.Kind)
		assert.Equal(t, ledger.QtyFilterNegative, edge.Filter)
	})

	t.Run("purchase invoice return leaves against the original row", func(t *testing.T) {
		inv, err := NewInvoice(InvoiceKindPurchase, "PI-002", uuid.New(), postingDate, postingTime)
		require.NoError(t, err)
		inv.UpdateStock = true
		require.NoError(t, inv.MarkReturn("PI-001"))
		row, err := inv.AddRow(uuid.New(), d(3), d(20))
		require.NoError(t, err)
		wh := uuid.New()
		row.WarehouseID = &wh
		orig := uuid.New()
		row.ReturnAgainstRowID = &orig

		plan, err := inv.LedgerPlan()
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.True(t, plan[0].Qty.Equal(d(-3)))
		require.Len(t, plan[0].Edges, 1)
		assert.Equal(t, ledger.QtyFilterPositive, plan[0].Edges[0].Filter)
	})
}

func TestReconciliationPlan(t *testing.T) {
	item := uuid.New()
	wh := uuid.New()

	t.Run("count increase receives at the carried rate", func(t *testing.T) {
		sr, err := NewStockReconciliation("SR-001", postingDate, postingTime)
		require.NoError(t, err)
		counted := d(12)
		row, err := sr.AddRow(item, wh, &counted, nil)
		require.NoError(t, err)
		require.NoError(t, sr.SetCurrentState(row.ID, d(10), d(50)))

		plan, err := sr.LedgerPlan()
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.True(t, plan[0].Qty.Equal(d(2)))
		assert.True(t, plan[0].IncomingRate.Equal(d(50)))
	})

	t.Run("count decrease issues at carried value", func(t *testing.T) {
		sr, err := NewStockReconciliation("SR-002", postingDate, postingTime)
		require.NoError(t, err)
		counted := d(7)
		row, err := sr.AddRow(item, wh, &counted, nil)
		require.NoError(t, err)
		require.NoError(t, sr.SetCurrentState(row.ID, d(10), d(50)))

		plan, err := sr.LedgerPlan()
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.True(t, plan[0].Qty.Equal(d(-3)))
		assert.True(t, plan[0].IncomingRate.IsZero())
	})

	t.Run("rate fix rewrites the balance at the new rate", func(t *testing.T) {
		sr, err := NewStockReconciliation("SR-003", postingDate, postingTime)
		require.NoError(t, err)
		rate := d(60)
		row, err := sr.AddRow(item, wh, nil, &rate)
		require.NoError(t, err)
		require.NoError(t, sr.SetCurrentState(row.ID, d(10), d(50)))

		plan, err := sr.LedgerPlan()
		require.NoError(t, err)
		require.Len(t, plan, 2)
		assert.True(t, plan[0].Qty.Equal(d(-10)))
		assert.True(t, plan[1].Qty.Equal(d(10)))
		assert.True(t, plan[1].IncomingRate.Equal(d(60)))
	})

	t.Run("matching count without rate change plans nothing", func(t *testing.T) {
		sr, err := NewStockReconciliation("SR-004", postingDate, postingTime)
		require.NoError(t, err)
		counted := d(10)
		row, err := sr.AddRow(item, wh, &counted, nil)
		require.NoError(t, err)
		require.NoError(t, sr.SetCurrentState(row.ID, d(10), d(50)))

		plan, err := sr.LedgerPlan()
		require.NoError(t, err)
		assert.Empty(t, plan)
	})
}
