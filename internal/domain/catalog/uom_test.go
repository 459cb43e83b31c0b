package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockcore/backend/internal/domain/shared"
)

func newTestItem(t *testing.T, code string) *Item {
	t.Helper()
	item, err := NewItem(code, code+" name", "PCS")
	require.NoError(t, err)
	return item
}

func globalEdge(t *testing.T, from, to string, factor float64) UOMConversion {
	t.Helper()
	e, err := NewUOMConversion(nil, from, to, decimal.NewFromFloat(factor))
	require.NoError(t, err)
	return *e
}

func TestConversionGraph(t *testing.T) {
	t.Run("identity conversion", func(t *testing.T) {
		g, err := NewConversionGraph(nil, nil)
		require.NoError(t, err)
		f, err := g.Factor("PCS", "PCS")
		require.NoError(t, err)
		assert.True(t, f.Equal(decimal.NewFromInt(1)))
	})

	t.Run("direct edge and reverse edge", func(t *testing.T) {
		g, err := NewConversionGraph(nil, []UOMConversion{globalEdge(t, "BOX", "PCS", 24)})
		require.NoError(t, err)

		f, err := g.Factor("BOX", "PCS")
		require.NoError(t, err)
		assert.True(t, f.Equal(decimal.NewFromInt(24)))

		r, err := g.Factor("PCS", "BOX")
		require.NoError(t, err)
		assert.True(t, r.Mul(decimal.NewFromInt(24)).Sub(decimal.NewFromInt(1)).Abs().LessThan(decimal.New(1, -9)))
	})

	t.Run("multi hop path multiplies factors", func(t *testing.T) {
		g, err := NewConversionGraph(nil, []UOMConversion{
			globalEdge(t, "PALLET", "BOX", 10),
			globalEdge(t, "BOX", "PCS", 24),
		})
		require.NoError(t, err)

		f, err := g.Factor("PALLET", "PCS")
		require.NoError(t, err)
		assert.True(t, f.Equal(decimal.NewFromInt(240)))
	})

	t.Run("no path fails with NotConvertible", func(t *testing.T) {
		g, err := NewConversionGraph(nil, []UOMConversion{globalEdge(t, "BOX", "PCS", 24)})
		require.NoError(t, err)

		_, err = g.Factor("BOX", "KG")
		assert.ErrorIs(t, err, shared.ErrNotConvertible)
	})

	t.Run("conflicting paths fail", func(t *testing.T) {
		// BOX -> PCS directly 24, but BOX -> INNER -> PCS gives 20
		g, err := NewConversionGraph(nil, []UOMConversion{
			globalEdge(t, "BOX", "PCS", 24),
			globalEdge(t, "BOX", "INNER", 4),
			globalEdge(t, "INNER", "PCS", 5),
		})
		require.NoError(t, err)

		_, err = g.Factor("BOX", "PCS")
		assert.ErrorIs(t, err, shared.ErrConflictingConversion)
	})

	t.Run("item override must not contradict global table", func(t *testing.T) {
		item := newTestItem(t, "WIDGET")
		itemID := item.ID
		edge, err := NewUOMConversion(&itemID, "BOX", "PCS", decimal.NewFromInt(12))
		require.NoError(t, err)
		item.Conversions = append(item.Conversions, *edge)

		_, err = NewConversionGraph(item, []UOMConversion{globalEdge(t, "BOX", "PCS", 24)})
		assert.ErrorIs(t, err, shared.ErrConflictingConversion)
	})

	t.Run("alt UOM contributes stock to alt edge", func(t *testing.T) {
		item := newTestItem(t, "JUICE")
		require.NoError(t, item.SetAltUOM("ML", decimal.NewFromInt(500)))

		g, err := NewConversionGraph(item, nil)
		require.NoError(t, err)

		f, err := g.Factor("PCS", "ML")
		require.NoError(t, err)
		assert.True(t, f.Equal(decimal.NewFromInt(500)))
	})

	t.Run("rate conversion divides", func(t *testing.T) {
		g, err := NewConversionGraph(nil, []UOMConversion{globalEdge(t, "BOX", "PCS", 24)})
		require.NoError(t, err)

		// 48 per box = 2 per piece
		v, err := g.Convert(decimal.NewFromInt(48), "BOX", "PCS", true)
		require.NoError(t, err)
		assert.True(t, v.Equal(decimal.NewFromInt(2)))
	})
}

func TestValidateWholeNumber(t *testing.T) {
	whole := &UOM{Code: "PCS", MustBeWholeNumber: true}
	loose := &UOM{Code: "KG"}

	assert.NoError(t, ValidateWholeNumber(whole, decimal.NewFromInt(5)))
	assert.NoError(t, ValidateWholeNumber(loose, decimal.NewFromFloat(2.5)))
	assert.ErrorIs(t, ValidateWholeNumber(whole, decimal.NewFromFloat(2.5)), shared.ErrUOMMustBeInteger)
	assert.NoError(t, ValidateWholeNumber(nil, decimal.NewFromFloat(2.5)))
}
