package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/shared"
)

// conversionEpsilon is the tolerance used when two conversion paths are
// compared; paths that differ by more than this are conflicting.
var conversionEpsilon = decimal.New(1, -9)

// UOM represents a unit of measure in the global table
type UOM struct {
	shared.BaseEntity
	Code              string `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name              string `gorm:"type:varchar(50);not null"`
	MustBeWholeNumber bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (UOM) TableName() string {
	return "uoms"
}

// UOMConversion is a weighted directed edge: 1 FromUOM = Factor ToUOM.
// Rows with a nil ItemID form the global conversion table; item rows
// override it but must not contradict it beyond precision.
type UOMConversion struct {
	shared.BaseEntity
	ItemID  *uuid.UUID      `gorm:"type:uuid;index"`
	FromUOM string          `gorm:"type:varchar(20);not null"`
	ToUOM   string          `gorm:"type:varchar(20);not null"`
	Factor  decimal.Decimal `gorm:"type:decimal(18,6);not null"`
}

// TableName returns the table name for GORM
func (UOMConversion) TableName() string {
	return "uom_conversions"
}

// NewUOMConversion creates a conversion edge
func NewUOMConversion(itemID *uuid.UUID, fromUOM, toUOM string, factor decimal.Decimal) (*UOMConversion, error) {
	if fromUOM == "" || toUOM == "" {
		return nil, shared.NewDomainError("INVALID_UOM", "UOM codes cannot be empty")
	}
	if fromUOM == toUOM {
		return nil, shared.NewDomainError("INVALID_CONVERSION", "Conversion cannot reference the same UOM twice")
	}
	if factor.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_CONVERSION_RATE", "Conversion factor must be positive")
	}
	return &UOMConversion{
		BaseEntity: shared.NewBaseEntity(),
		ItemID:     itemID,
		FromUOM:    fromUOM,
		ToUOM:      toUOM,
		Factor:     factor,
	}, nil
}

// ConversionGraph resolves conversion factors between UOMs for one item.
// Edges come from the global table, the item's own conversion rows and the
// implicit stock -> alt UOM edge. Resolution multiplies factors along the
// shortest path; two non-equivalent paths between the same pair are an
// error, not a choice.
type ConversionGraph struct {
	edges map[string]map[string]decimal.Decimal
}

// NewConversionGraph builds the graph for an item from the global edges plus
// the item's own edges. Item edges replace global edges for the same pair.
func NewConversionGraph(item *Item, global []UOMConversion) (*ConversionGraph, error) {
	g := &ConversionGraph{edges: make(map[string]map[string]decimal.Decimal)}

	for idx := range global {
		g.addEdge(global[idx].FromUOM, global[idx].ToUOM, global[idx].Factor)
	}
	if item != nil {
		for idx := range item.Conversions {
			e := item.Conversions[idx]
			if existing, ok := g.factor(e.FromUOM, e.ToUOM); ok {
				if !withinEpsilon(existing, e.Factor) {
					return nil, shared.NewDomainErrorf(shared.ErrConflictingConversion.Code,
						"Item conversion %s -> %s contradicts the global table", e.FromUOM, e.ToUOM)
				}
			}
			g.addEdge(e.FromUOM, e.ToUOM, e.Factor)
		}
		if item.AltUOM != "" && item.AltUOMSize.GreaterThan(decimal.Zero) {
			g.addEdge(item.StockUOM, item.AltUOM, item.AltUOMSize)
		}
	}
	return g, nil
}

func (g *ConversionGraph) addEdge(from, to string, factor decimal.Decimal) {
	if g.edges[from] == nil {
		g.edges[from] = make(map[string]decimal.Decimal)
	}
	if g.edges[to] == nil {
		g.edges[to] = make(map[string]decimal.Decimal)
	}
	g.edges[from][to] = factor
	// reverse edge: 1 B = 1/w A
	g.edges[to][from] = decimal.NewFromInt(1).Div(factor)
}

func (g *ConversionGraph) factor(from, to string) (decimal.Decimal, bool) {
	if m, ok := g.edges[from]; ok {
		if f, ok := m[to]; ok {
			return f, true
		}
	}
	return decimal.Decimal{}, false
}

// Factor resolves the multiplication factor from one UOM to another by
// breadth-first search. Every distinct simple path discovered must agree
// within precision.
func (g *ConversionGraph) Factor(from, to string) (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)
	if from == to {
		return one, nil
	}
	if g.edges[from] == nil || g.edges[to] == nil {
		return decimal.Decimal{}, shared.NewDomainErrorf(shared.ErrNotConvertible.Code,
			"No conversion path from %s to %s", from, to)
	}

	// BFS accumulating the multiplied factor per visited node. A node reached
	// again with a different accumulated factor means conflicting paths.
	type visit struct {
		uom    string
		factor decimal.Decimal
	}
	resolved := map[string]decimal.Decimal{from: one}
	queue := []visit{{uom: from, factor: one}}
	var result *decimal.Decimal

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next, w := range g.edges[cur.uom] {
			f := cur.factor.Mul(w)
			if prior, seen := resolved[next]; seen {
				if !withinEpsilon(prior, f) {
					return decimal.Decimal{}, shared.NewDomainErrorf(shared.ErrConflictingConversion.Code,
						"Conflicting conversion factors between %s and %s", from, next)
				}
				continue
			}
			resolved[next] = f
			if next == to {
				v := f
				result = &v
			}
			queue = append(queue, visit{uom: next, factor: f})
		}
	}

	if result == nil {
		return decimal.Decimal{}, shared.NewDomainErrorf(shared.ErrNotConvertible.Code,
			"No conversion path from %s to %s", from, to)
	}
	return *result, nil
}

// Convert converts a value between UOMs. Quantities multiply by the factor;
// rates divide, since a rate per larger unit shrinks per smaller unit.
func (g *ConversionGraph) Convert(value decimal.Decimal, from, to string, isRate bool) (decimal.Decimal, error) {
	factor, err := g.Factor(from, to)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if isRate {
		return value.Div(factor), nil
	}
	return value.Mul(factor), nil
}

// ValidateWholeNumber rejects fractional quantities for whole-number UOMs.
// Validated at voucher submit for every row.
func ValidateWholeNumber(uom *UOM, qty decimal.Decimal) error {
	if uom == nil || !uom.MustBeWholeNumber {
		return nil
	}
	if !qty.Equal(qty.Truncate(0)) {
		return shared.NewDomainErrorf(shared.ErrUOMMustBeInteger.Code,
			"Quantity %s must be a whole number for UOM %s", qty.String(), uom.Code)
	}
	return nil
}

func withinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(conversionEpsilon)
}
