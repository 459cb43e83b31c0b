package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/shared"
)

// DependencyKind tells what a dependent entry takes from its source entry.
type DependencyKind string

const (
	// DependencyKindRate copies the source's per-unit incoming rate.
	DependencyKindRate DependencyKind = "RATE"
	// DependencyKindAmount apportions a share of the source's value.
	DependencyKindAmount DependencyKind = "AMOUNT"
)

// IsValid checks if the kind is known
func (k DependencyKind) IsValid() bool {
	return k == DependencyKindRate || k == DependencyKindAmount
}

// QtyFilter narrows which entries of the source voucher detail qualify as
// the dependency source.
type QtyFilter string

const (
	QtyFilterAny      QtyFilter = "ANY"
	QtyFilterPositive QtyFilter = "POSITIVE"
	QtyFilterNegative QtyFilter = "NEGATIVE"
)

// IsValid checks if the filter is known
func (f QtyFilter) IsValid() bool {
	switch f {
	case QtyFilterAny, QtyFilterPositive, QtyFilterNegative:
		return true
	}
	return false
}

// matches applies the filter to an entry's signed quantity
func (f QtyFilter) matches(qty decimal.Decimal) bool {
	switch f {
	case QtyFilterPositive:
		return qty.GreaterThan(decimal.Zero)
	case QtyFilterNegative:
		return qty.LessThan(decimal.Zero)
	default:
		return true
	}
}

// DependencyEdge links a dependent ledger entry to the source entry its
// valuation derives from, such as a transfer issue feeding the receiving
// leg's rate, or a landed cost charge apportioned onto a receipt. An edge
// must resolve to exactly one live source entry.
type DependencyEdge struct {
	shared.BaseEntity
	DependentEntryID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	SourceVoucherType VoucherType    `gorm:"type:varchar(30);not null"`
	SourceVoucherNo   string         `gorm:"type:varchar(50);not null;index"`
	SourceDetailNo    string         `gorm:"type:varchar(50);not null"`
	Kind              DependencyKind `gorm:"type:varchar(10);not null"`
	QtyFilter         QtyFilter      `gorm:"type:varchar(10);not null;default:'ANY'"`
	// Percentage of the source value taken, used by AMOUNT edges.
	Percentage decimal.Decimal `gorm:"type:decimal(9,4);not null;default:100"`
}

// TableName returns the table name for GORM
func (DependencyEdge) TableName() string {
	return "stock_entry_dependencies"
}

// NewDependencyEdge creates a validated edge
func NewDependencyEdge(dependentEntryID uuid.UUID, srcType VoucherType, srcNo, srcDetail string,
	kind DependencyKind, filter QtyFilter, percentage decimal.Decimal) (*DependencyEdge, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainErrorf(shared.ErrDependencyResolution.Code,
			"Unknown dependency kind %s", kind)
	}
	if filter == "" {
		filter = QtyFilterAny
	}
	if !filter.IsValid() {
		return nil, shared.NewDomainErrorf(shared.ErrDependencyResolution.Code,
			"Unknown quantity filter %s", filter)
	}
	if !srcType.IsValid() || srcNo == "" || srcDetail == "" {
		return nil, shared.NewDomainError(shared.ErrDependencyResolution.Code,
			"Dependency edge requires a source voucher, number and detail")
	}
	if percentage.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.ErrDependencyResolution.Code,
			"Dependency percentage must be positive")
	}
	return &DependencyEdge{
		BaseEntity:        shared.NewBaseEntity(),
		DependentEntryID:  dependentEntryID,
		SourceVoucherType: srcType,
		SourceVoucherNo:   srcNo,
		SourceDetailNo:    srcDetail,
		Kind:              kind,
		QtyFilter:         filter,
		Percentage:        percentage,
	}, nil
}

// Resolve picks the single source entry among the candidates of the source
// voucher. Zero matches and multiple matches are both errors; the edge
// cannot guess.
func (d *DependencyEdge) Resolve(candidates []*StockLedgerEntry) (*StockLedgerEntry, error) {
	var found *StockLedgerEntry
	for _, e := range candidates {
		if e.IsCancelled {
			continue
		}
		if e.VoucherType != d.SourceVoucherType || e.VoucherNo != d.SourceVoucherNo {
			continue
		}
		if e.VoucherDetailNo != d.SourceDetailNo {
			continue
		}
		if !d.QtyFilter.matches(e.ActualQty) {
			continue
		}
		if found != nil {
			return nil, shared.NewDomainErrorf(shared.ErrDependencyResolution.Code,
				"Dependency on %s %s resolves to more than one ledger entry",
				d.SourceVoucherType, d.SourceVoucherNo)
		}
		found = e
	}
	if found == nil {
		return nil, shared.NewDomainErrorf(shared.ErrDependencyResolution.Code,
			"Dependency on %s %s resolves to no ledger entry",
			d.SourceVoucherType, d.SourceVoucherNo)
	}
	return found, nil
}

// DerivedRate computes the rate the dependent entry takes from the resolved
// source entry.
func (d *DependencyEdge) DerivedRate(source *StockLedgerEntry, dependentQty decimal.Decimal) (decimal.Decimal, error) {
	switch d.Kind {
	case DependencyKindRate:
		if source.IsInbound() {
			return source.IncomingRate, nil
		}
		if !source.OutgoingRate.IsZero() || source.ActualQty.IsZero() {
			return source.OutgoingRate, nil
		}
		// The source issued at the folded valuation rate; recover the
		// realized per-unit rate from its value change.
		return roundValue(source.StockValueDifference.Abs().Div(source.ActualQty.Abs())), nil
	case DependencyKindAmount:
		if dependentQty.IsZero() {
			return decimal.Zero, shared.NewDomainError(shared.ErrDependencyResolution.Code,
				"Amount dependency requires a non-zero dependent quantity")
		}
		share := source.StockValueDifference.Abs().
			Mul(d.Percentage).
			Div(decimal.NewFromInt(100))
		return roundValue(share.Div(dependentQty.Abs())), nil
	}
	return decimal.Zero, shared.NewDomainErrorf(shared.ErrDependencyResolution.Code,
		"Unknown dependency kind %s", d.Kind)
}

// ValidateEdges rejects duplicate edges on one dependent entry: two edges to
// the same source detail with the same kind would double count.
func ValidateEdges(edges []*DependencyEdge) error {
	type key struct {
		vt     VoucherType
		no     string
		detail string
		kind   DependencyKind
	}
	seen := make(map[key]bool, len(edges))
	for _, e := range edges {
		k := key{vt: e.SourceVoucherType, no: e.SourceVoucherNo, detail: e.SourceDetailNo, kind: e.Kind}
		if seen[k] {
			return shared.NewDomainErrorf(shared.ErrDependencyResolution.Code,
				"Duplicate dependency on %s %s detail %s", e.SourceVoucherType, e.SourceVoucherNo, e.SourceDetailNo)
		}
		seen[k] = true
	}
	return nil
}
