package stock

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/catalog"
	"github.com/stockcore/backend/internal/domain/ledger"
	"github.com/stockcore/backend/internal/domain/shared"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// In-memory repositories backing the service tests. They mirror the query
// semantics the gorm implementations promise: ledger order by posting key,
// cancelled rows filtered out of reads.

type memItems struct{ byID map[uuid.UUID]*catalog.Item }

func (m *memItems) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	if it, ok := m.byID[id]; ok {
		return it, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memItems) FindByCode(ctx context.Context, code string) (*catalog.Item, error) {
	for _, it := range m.byID {
		if it.Code == code {
			return it, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memItems) Save(ctx context.Context, item *catalog.Item) error {
	m.byID[item.ID] = item
	return nil
}

func (m *memItems) ListVariants(ctx context.Context, templateID uuid.UUID) ([]*catalog.Item, error) {
	var out []*catalog.Item
	for _, it := range m.byID {
		if it.VariantOf != nil && *it.VariantOf == templateID {
			out = append(out, it)
		}
	}
	return out, nil
}

type memWarehouses struct{ byID map[uuid.UUID]*catalog.Warehouse }

func (m *memWarehouses) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Warehouse, error) {
	if w, ok := m.byID[id]; ok {
		return w, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memWarehouses) FindByCode(ctx context.Context, code string) (*catalog.Warehouse, error) {
	for _, w := range m.byID {
		if w.Code == code {
			return w, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memWarehouses) Save(ctx context.Context, w *catalog.Warehouse) error {
	m.byID[w.ID] = w
	return nil
}

func (m *memWarehouses) Descendants(ctx context.Context, id uuid.UUID) ([]*catalog.Warehouse, error) {
	w, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return []*catalog.Warehouse{w}, nil
}

type memBatches struct {
	byID map[uuid.UUID]*catalog.Batch
	seqs map[string]int64
}

func (m *memBatches) Next(series string) (int64, error) {
	m.seqs[series]++
	return m.seqs[series], nil
}

func (m *memBatches) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Batch, error) {
	if b, ok := m.byID[id]; ok {
		return b, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memBatches) FindByBatchID(ctx context.Context, batchID string) (*catalog.Batch, error) {
	for _, b := range m.byID {
		if b.BatchID == batchID {
			return b, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memBatches) Save(ctx context.Context, b *catalog.Batch) error {
	m.byID[b.ID] = b
	return nil
}

func (m *memBatches) ForItem(ctx context.Context, itemID uuid.UUID) ([]*catalog.Batch, error) {
	var out []*catalog.Batch
	for _, b := range m.byID {
		if b.ItemID == itemID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchID < out[j].BatchID })
	return out, nil
}

type memSerials struct{ bySerial map[string]*catalog.SerialNo }

func (m *memSerials) FindBySerial(ctx context.Context, serial string) (*catalog.SerialNo, error) {
	if s, ok := m.bySerial[serial]; ok {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memSerials) Save(ctx context.Context, s *catalog.SerialNo) error {
	m.bySerial[s.SerialNo] = s
	return nil
}

func (m *memSerials) InStock(ctx context.Context, itemID, warehouseID uuid.UUID) ([]*catalog.SerialNo, error) {
	var out []*catalog.SerialNo
	for _, s := range m.bySerial {
		if s.ItemID == itemID && s.Status == catalog.SerialStatusInStock &&
			s.WarehouseID != nil && *s.WarehouseID == warehouseID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SerialNo < out[j].SerialNo })
	return out, nil
}

type memConversions struct {
	edges []*catalog.UOMConversion
	uoms  []*catalog.UOM
}

func (m *memConversions) GlobalEdges(ctx context.Context) ([]catalog.UOMConversion, error) {
	var out []catalog.UOMConversion
	for _, e := range m.edges {
		if e.ItemID == nil {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memConversions) ItemEdges(ctx context.Context, itemID uuid.UUID) ([]catalog.UOMConversion, error) {
	var out []catalog.UOMConversion
	for _, e := range m.edges {
		if e.ItemID != nil && *e.ItemID == itemID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memConversions) SaveEdge(ctx context.Context, edge *catalog.UOMConversion) error {
	m.edges = append(m.edges, edge)
	return nil
}

func (m *memConversions) FindUOM(ctx context.Context, code string) (*catalog.UOM, error) {
	for _, u := range m.uoms {
		if u.Code == code {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memConversions) SaveUOM(ctx context.Context, uom *catalog.UOM) error {
	for i, u := range m.uoms {
		if u.Code == uom.Code {
			m.uoms[i] = uom
			return nil
		}
	}
	m.uoms = append(m.uoms, uom)
	return nil
}

type memSLE struct {
	rows []*ledger.StockLedgerEntry
	seq  int64
}

func (m *memSLE) sorted() []*ledger.StockLedgerEntry {
	out := make([]*ledger.StockLedgerEntry, len(m.rows))
	copy(out, m.rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key().Before(out[j].Key()) })
	return out
}

func (m *memSLE) Insert(ctx context.Context, e *ledger.StockLedgerEntry) error {
	m.seq++
	e.CreationSeq = m.seq
	m.rows = append(m.rows, e)
	return nil
}

func (m *memSLE) UpdateProjections(ctx context.Context, e *ledger.StockLedgerEntry) error {
	return nil // rows are shared pointers
}

func (m *memSLE) UpdateIncomingRate(ctx context.Context, entryID uuid.UUID, rate decimal.Decimal) error {
	for _, e := range m.rows {
		if e.ID == entryID {
			e.IncomingRate = rate
			e.WrittenRate = rate
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *memSLE) PreviousEntry(ctx context.Context, itemID, warehouseID uuid.UUID, before ledger.PostingKey) (*ledger.StockLedgerEntry, error) {
	var prev *ledger.StockLedgerEntry
	for _, e := range m.sorted() {
		if e.IsCancelled || e.ItemID != itemID || e.WarehouseID != warehouseID {
			continue
		}
		if e.Key().Before(before) {
			prev = e
		}
	}
	return prev, nil
}

func (m *memSLE) PreviousBatchEntry(ctx context.Context, itemID, warehouseID, batchID uuid.UUID, before ledger.PostingKey) (*ledger.StockLedgerEntry, error) {
	var prev *ledger.StockLedgerEntry
	for _, e := range m.sorted() {
		if e.IsCancelled || e.ItemID != itemID || e.WarehouseID != warehouseID {
			continue
		}
		if e.BatchID == nil || *e.BatchID != batchID {
			continue
		}
		if e.Key().Before(before) {
			prev = e
		}
	}
	return prev, nil
}

func (m *memSLE) EntriesAfter(ctx context.Context, itemID, warehouseID uuid.UUID, from ledger.PostingKey) ([]*ledger.StockLedgerEntry, error) {
	var out []*ledger.StockLedgerEntry
	for _, e := range m.sorted() {
		if e.ItemID != itemID || e.WarehouseID != warehouseID {
			continue
		}
		if !e.Key().Before(from) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memSLE) EntriesForVoucher(ctx context.Context, vt ledger.VoucherType, no string) ([]*ledger.StockLedgerEntry, error) {
	var out []*ledger.StockLedgerEntry
	for _, e := range m.sorted() {
		if !e.IsCancelled && e.VoucherType == vt && e.VoucherNo == no {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memSLE) CancelVoucherEntries(ctx context.Context, vt ledger.VoucherType, no string) ([]*ledger.StockLedgerEntry, error) {
	var out []*ledger.StockLedgerEntry
	for _, e := range m.rows {
		if !e.IsCancelled && e.VoucherType == vt && e.VoucherNo == no {
			e.IsCancelled = true
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memSLE) LatestEntry(ctx context.Context, itemID, warehouseID uuid.UUID, asOf time.Time) (*ledger.StockLedgerEntry, error) {
	var latest *ledger.StockLedgerEntry
	for _, e := range m.sorted() {
		if e.IsCancelled || e.ItemID != itemID || e.WarehouseID != warehouseID {
			continue
		}
		if !e.PostingDate.After(asOf) {
			latest = e
		}
	}
	return latest, nil
}

func (m *memSLE) BatchQty(ctx context.Context, itemID, warehouseID, batchID uuid.UUID) (*ledger.StockLedgerEntry, error) {
	return m.PreviousBatchEntry(ctx, itemID, warehouseID, batchID,
		ledger.PostingKey{PostingDate: time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)})
}

func (m *memSLE) HasLedgerEntries(itemID uuid.UUID) (bool, error) {
	for _, e := range m.rows {
		if !e.IsCancelled && e.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

type memBins struct{ bins map[pairKey]*ledger.Bin }

func (m *memBins) Get(ctx context.Context, itemID, warehouseID uuid.UUID) (*ledger.Bin, error) {
	if b, ok := m.bins[pairKey{item: itemID, warehouse: warehouseID}]; ok {
		return b, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memBins) GetOrCreate(ctx context.Context, itemID, warehouseID uuid.UUID) (*ledger.Bin, error) {
	key := pairKey{item: itemID, warehouse: warehouseID}
	if b, ok := m.bins[key]; ok {
		return b, nil
	}
	b := ledger.NewBin(itemID, warehouseID)
	m.bins[key] = b
	return b, nil
}

func (m *memBins) Save(ctx context.Context, bin *ledger.Bin) error {
	m.bins[pairKey{item: bin.ItemID, warehouse: bin.WarehouseID}] = bin
	return nil
}

func (m *memBins) ForItem(ctx context.Context, itemID uuid.UUID) ([]*ledger.Bin, error) {
	var out []*ledger.Bin
	for _, b := range m.bins {
		if b.ItemID == itemID {
			out = append(out, b)
		}
	}
	return out, nil
}

type memDeps struct{ edges []*ledger.DependencyEdge }

func (m *memDeps) Insert(ctx context.Context, edge *ledger.DependencyEdge) error {
	m.edges = append(m.edges, edge)
	return nil
}

func (m *memDeps) ForDependent(ctx context.Context, dependentEntryID uuid.UUID) ([]*ledger.DependencyEdge, error) {
	var out []*ledger.DependencyEdge
	for _, e := range m.edges {
		if e.DependentEntryID == dependentEntryID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memDeps) Dependents(ctx context.Context, vt ledger.VoucherType, no string) ([]*ledger.DependencyEdge, error) {
	var out []*ledger.DependencyEdge
	for _, e := range m.edges {
		if e.SourceVoucherType == vt && e.SourceVoucherNo == no {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memDeps) DeleteForDependent(ctx context.Context, dependentEntryID uuid.UUID) error {
	kept := m.edges[:0]
	for _, e := range m.edges {
		if e.DependentEntryID != dependentEntryID {
			kept = append(kept, e)
		}
	}
	m.edges = kept
	return nil
}

type memOrders struct{ byID map[uuid.UUID]*voucher.Order }

func (m *memOrders) FindByID(ctx context.Context, id uuid.UUID) (*voucher.Order, error) {
	if o, ok := m.byID[id]; ok {
		return o, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memOrders) FindByOrderNo(ctx context.Context, orderNo string) (*voucher.Order, error) {
	for _, o := range m.byID {
		if o.OrderNo == orderNo {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memOrders) Save(ctx context.Context, o *voucher.Order) error {
	m.byID[o.ID] = o
	return nil
}

func (m *memOrders) OpenRows(ctx context.Context, kind voucher.OrderKind, itemID, warehouseID uuid.UUID) ([]*voucher.OrderRow, error) {
	var out []*voucher.OrderRow
	for _, o := range m.byID {
		if o.Kind != kind || o.DocStatus != voucher.DocStatusSubmitted || o.Closed {
			continue
		}
		for i := range o.Rows {
			row := &o.Rows[i]
			if row.ItemID == itemID && row.WarehouseID == warehouseID {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (m *memOrders) LastPurchaseFor(ctx context.Context, itemID uuid.UUID) (*voucher.LastPurchase, error) {
	var best *voucher.LastPurchase
	for _, o := range m.byID {
		if o.Kind != voucher.OrderKindPurchase || o.DocStatus != voucher.DocStatusSubmitted {
			continue
		}
		for i := range o.Rows {
			row := &o.Rows[i]
			if row.ItemID != itemID {
				continue
			}
			if best == nil || o.TransactionDate.After(best.Date) {
				best = &voucher.LastPurchase{
					Rate:      row.Rate,
					Date:      o.TransactionDate,
					VoucherNo: o.OrderNo,
					Source:    voucher.LastPurchaseFromOrder,
				}
			}
		}
	}
	if best == nil {
		return nil, shared.ErrNotFound
	}
	return best, nil
}

type memReceipts struct{ byID map[uuid.UUID]*voucher.PurchaseReceipt }

func (m *memReceipts) FindByID(ctx context.Context, id uuid.UUID) (*voucher.PurchaseReceipt, error) {
	if r, ok := m.byID[id]; ok {
		return r, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memReceipts) FindByVoucherNo(ctx context.Context, no string) (*voucher.PurchaseReceipt, error) {
	for _, r := range m.byID {
		if r.VoucherNo == no {
			return r, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memReceipts) Save(ctx context.Context, r *voucher.PurchaseReceipt) error {
	m.byID[r.ID] = r
	return nil
}

func (m *memReceipts) SubmittedForOrder(ctx context.Context, orderID uuid.UUID) ([]*voucher.PurchaseReceipt, error) {
	var out []*voucher.PurchaseReceipt
	for _, r := range m.byID {
		if r.DocStatus != voucher.DocStatusSubmitted {
			continue
		}
		for i := range r.Rows {
			if r.Rows[i].PurchaseOrderID != nil && *r.Rows[i].PurchaseOrderID == orderID {
				out = append(out, r)
				break
			}
		}
	}
	return out, nil
}

func (m *memReceipts) LastReceiptFor(ctx context.Context, itemID uuid.UUID) (*voucher.LastPurchase, error) {
	var best *voucher.LastPurchase
	for _, r := range m.byID {
		if r.DocStatus != voucher.DocStatusSubmitted || r.IsReturn {
			continue
		}
		for i := range r.Rows {
			row := &r.Rows[i]
			if row.ItemID != itemID {
				continue
			}
			if best == nil || r.PostingDate.After(best.Date) {
				best = &voucher.LastPurchase{
					Rate:      row.Rate,
					Date:      r.PostingDate,
					VoucherNo: r.VoucherNo,
					Source:    voucher.LastPurchaseFromReceipt,
				}
			}
		}
	}
	if best == nil {
		return nil, shared.ErrNotFound
	}
	return best, nil
}

type memNotes struct{ byID map[uuid.UUID]*voucher.DeliveryNote }

func (m *memNotes) FindByID(ctx context.Context, id uuid.UUID) (*voucher.DeliveryNote, error) {
	if n, ok := m.byID[id]; ok {
		return n, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memNotes) FindByVoucherNo(ctx context.Context, no string) (*voucher.DeliveryNote, error) {
	for _, n := range m.byID {
		if n.VoucherNo == no {
			return n, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memNotes) Save(ctx context.Context, n *voucher.DeliveryNote) error {
	m.byID[n.ID] = n
	return nil
}

func (m *memNotes) SubmittedForOrder(ctx context.Context, orderID uuid.UUID) ([]*voucher.DeliveryNote, error) {
	var out []*voucher.DeliveryNote
	for _, n := range m.byID {
		if n.DocStatus != voucher.DocStatusSubmitted {
			continue
		}
		for i := range n.Rows {
			if n.Rows[i].SalesOrderID != nil && *n.Rows[i].SalesOrderID == orderID {
				out = append(out, n)
				break
			}
		}
	}
	return out, nil
}

type memInvoices struct{ byID map[uuid.UUID]*voucher.Invoice }

func (m *memInvoices) FindByID(ctx context.Context, id uuid.UUID) (*voucher.Invoice, error) {
	if inv, ok := m.byID[id]; ok {
		return inv, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memInvoices) FindByVoucherNo(ctx context.Context, kind voucher.InvoiceKind, no string) (*voucher.Invoice, error) {
	for _, inv := range m.byID {
		if inv.Kind == kind && inv.VoucherNo == no {
			return inv, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memInvoices) Save(ctx context.Context, inv *voucher.Invoice) error {
	m.byID[inv.ID] = inv
	return nil
}

func (m *memInvoices) SubmittedForOrder(ctx context.Context, orderID uuid.UUID) ([]*voucher.Invoice, error) {
	var out []*voucher.Invoice
	for _, inv := range m.byID {
		if inv.DocStatus != voucher.DocStatusSubmitted {
			continue
		}
		for i := range inv.Rows {
			if inv.Rows[i].OrderID != nil && *inv.Rows[i].OrderID == orderID {
				out = append(out, inv)
				break
			}
		}
	}
	return out, nil
}

type memStockEntries struct{ byID map[uuid.UUID]*voucher.StockEntry }

func (m *memStockEntries) FindByID(ctx context.Context, id uuid.UUID) (*voucher.StockEntry, error) {
	if e, ok := m.byID[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memStockEntries) FindByVoucherNo(ctx context.Context, no string) (*voucher.StockEntry, error) {
	for _, e := range m.byID {
		if e.VoucherNo == no {
			return e, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memStockEntries) Save(ctx context.Context, e *voucher.StockEntry) error {
	m.byID[e.ID] = e
	return nil
}

type memRecs struct{ byID map[uuid.UUID]*voucher.StockReconciliation }

func (m *memRecs) FindByID(ctx context.Context, id uuid.UUID) (*voucher.StockReconciliation, error) {
	if r, ok := m.byID[id]; ok {
		return r, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memRecs) Save(ctx context.Context, r *voucher.StockReconciliation) error {
	m.byID[r.ID] = r
	return nil
}

type memLCVs struct{ byID map[uuid.UUID]*voucher.LandedCostVoucher }

func (m *memLCVs) FindByID(ctx context.Context, id uuid.UUID) (*voucher.LandedCostVoucher, error) {
	if v, ok := m.byID[id]; ok {
		return v, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memLCVs) Save(ctx context.Context, v *voucher.LandedCostVoucher) error {
	m.byID[v.ID] = v
	return nil
}

// memRepos bundles the fakes into a TransactionalRepositories
type memRepos struct {
	items        *memItems
	warehouses   *memWarehouses
	batches      *memBatches
	serials      *memSerials
	conversions  *memConversions
	sle          *memSLE
	bins         *memBins
	deps         *memDeps
	orders       *memOrders
	receipts     *memReceipts
	notes        *memNotes
	invoices     *memInvoices
	stockEntries *memStockEntries
	recs         *memRecs
	lcvs         *memLCVs
}

func newMemRepos() *memRepos {
	return &memRepos{
		items:        &memItems{byID: make(map[uuid.UUID]*catalog.Item)},
		warehouses:   &memWarehouses{byID: make(map[uuid.UUID]*catalog.Warehouse)},
		batches:      &memBatches{byID: make(map[uuid.UUID]*catalog.Batch), seqs: make(map[string]int64)},
		serials:      &memSerials{bySerial: make(map[string]*catalog.SerialNo)},
		conversions:  &memConversions{},
		sle:          &memSLE{},
		bins:         &memBins{bins: make(map[pairKey]*ledger.Bin)},
		deps:         &memDeps{},
		orders:       &memOrders{byID: make(map[uuid.UUID]*voucher.Order)},
		receipts:     &memReceipts{byID: make(map[uuid.UUID]*voucher.PurchaseReceipt)},
		notes:        &memNotes{byID: make(map[uuid.UUID]*voucher.DeliveryNote)},
		invoices:     &memInvoices{byID: make(map[uuid.UUID]*voucher.Invoice)},
		stockEntries: &memStockEntries{byID: make(map[uuid.UUID]*voucher.StockEntry)},
		recs:         &memRecs{byID: make(map[uuid.UUID]*voucher.StockReconciliation)},
		lcvs:         &memLCVs{byID: make(map[uuid.UUID]*voucher.LandedCostVoucher)},
	}
}

func (m *memRepos) Items() catalog.ItemRepository { return m.items }

func (m *memRepos) Warehouses() catalog.WarehouseRepository { return m.warehouses }

func (m *memRepos) Batches() catalog.BatchRepository { return m.batches }

func (m *memRepos) Serials() catalog.SerialRepository { return m.serials }

func (m *memRepos) Conversions() catalog.ConversionRepository { return m.conversions }

func (m *memRepos) Ledger() ledger.StockLedgerRepository { return m.sle }

func (m *memRepos) Bins() ledger.BinRepository { return m.bins }

func (m *memRepos) Dependencies() ledger.DependencyRepository { return m.deps }

func (m *memRepos) Orders() voucher.OrderRepository { return m.orders }

func (m *memRepos) PurchaseReceipts() voucher.PurchaseReceiptRepository { return m.receipts }

func (m *memRepos) DeliveryNotes() voucher.DeliveryNoteRepository { return m.notes }

func (m *memRepos) Invoices() voucher.InvoiceRepository { return m.invoices }

func (m *memRepos) StockEntries() voucher.StockEntryRepository { return m.stockEntries }

func (m *memRepos) Reconciliations() voucher.ReconciliationRepository { return m.recs }

func (m *memRepos) LandedCosts() voucher.LandedCostRepository { return m.lcvs }
