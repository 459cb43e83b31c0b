package ledger

import (
	"time"

	"github.com/stockcore/backend/internal/domain/shared"
)

// FrozenPolicy closes past accounting periods to new stock postings. A fixed
// cutoff date and a rolling day window can both be active; the later cutoff
// wins. Holders of the bypass role post anyway.
type FrozenPolicy struct {
	StockFrozenUpto *time.Time
	StockFrozenDays int
	BypassRole      string
}

// Check rejects a posting date inside the frozen period unless the caller
// holds the bypass role.
func (p FrozenPolicy) Check(postingDate time.Time, now time.Time, roles []string) error {
	cutoff := p.cutoff(now)
	if cutoff == nil {
		return nil
	}
	if postingDate.After(*cutoff) {
		return nil
	}
	for _, r := range roles {
		if p.BypassRole != "" && r == p.BypassRole {
			return nil
		}
	}
	return shared.NewDomainErrorf(shared.ErrFrozenPeriod.Code,
		"Stock transactions are frozen up to %s", cutoff.Format("2006-01-02"))
}

func (p FrozenPolicy) cutoff(now time.Time) *time.Time {
	var cutoff *time.Time
	if p.StockFrozenUpto != nil {
		cutoff = p.StockFrozenUpto
	}
	if p.StockFrozenDays > 0 {
		rolling := now.AddDate(0, 0, -p.StockFrozenDays)
		if cutoff == nil || rolling.After(*cutoff) {
			cutoff = &rolling
		}
	}
	return cutoff
}
