package stock

import (
	"github.com/shopspring/decimal"

	"github.com/stockcore/backend/internal/domain/catalog"
	"github.com/stockcore/backend/internal/domain/ledger"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// Settings carries the company-wide stock policy the services consult on
// every posting. It is loaded once from configuration and treated as
// read-only afterwards.
type Settings struct {
	// DefaultValuationMethod applies to items that do not set their own.
	DefaultValuationMethod catalog.ValuationMethod
	AllowNegativeStock     bool

	// AllowPartialAllocation lets batch allocation leave an open shortfall
	// row on the delivery instead of rejecting it outright.
	AllowPartialAllocation bool

	OverDeliveryAllowancePct decimal.Decimal
	OverBillingAllowancePct  decimal.Decimal
	OverReturnAllowancePct   decimal.Decimal

	// QtyPrecision is the rounding precision of allocated quantities.
	QtyPrecision int32

	Frozen ledger.FrozenPolicy
}

// DefaultSettings returns the policy used when configuration is silent
func DefaultSettings() Settings {
	return Settings{
		DefaultValuationMethod: catalog.ValuationMethodFIFO,
		QtyPrecision:           6,
	}
}

func (s Settings) tolerances() voucher.Tolerances {
	return voucher.Tolerances{
		OverDeliveryPct: s.OverDeliveryAllowancePct,
		OverBillingPct:  s.OverBillingAllowancePct,
		OverReturnPct:   s.OverReturnAllowancePct,
	}
}

// valuationKind maps the catalog method onto the ledger fold
func valuationKind(m catalog.ValuationMethod) ledger.ValuationKind {
	if m == catalog.ValuationMethodFIFO {
		return ledger.ValuationKindFIFO
	}
	return ledger.ValuationKindMovingAverage
}
