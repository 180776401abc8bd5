package risk

import (
	"time"

	"lv-riskdash/internal/model"

	"github.com/shopspring/decimal"
)

// Clock fixes the timezone used for every risk-window boundary. The daily
// window is midnight-to-midnight, the weekly window starts Sunday 00:00 and
// the monthly window starts on the first of the month, all in this one
// location.
type Clock struct {
	loc *time.Location
}

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{loc: loc}
}

func (c Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c Clock) DayStart(now time.Time) time.Time {
	now = now.In(c.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
}

func (c Clock) DayEnd(now time.Time) time.Time {
	return c.DayStart(now).AddDate(0, 0, 1)
}

func (c Clock) WeekStart(now time.Time) time.Time {
	day := c.DayStart(now)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func (c Clock) MonthStart(now time.Time) time.Time {
	now = now.In(c.loc)
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, c.loc)
}

// PnLSums holds the signed P&L totals per risk window. Open and closed trades
// both contribute their current P&L.
type PnLSums struct {
	Daily   decimal.Decimal
	Weekly  decimal.Decimal
	Monthly decimal.Decimal
}

// WindowPnL buckets a trade history into the three risk windows by the time
// each trade entered the ledger.
func WindowPnL(c Clock, trades []model.Trade, now time.Time) PnLSums {
	dayStart := c.DayStart(now)
	dayEnd := c.DayEnd(now)
	weekStart := c.WeekStart(now)
	monthStart := c.MonthStart(now)

	var sums PnLSums
	for _, t := range trades {
		created := t.CreatedAt.In(c.loc)
		if !created.Before(dayStart) && created.Before(dayEnd) {
			sums.Daily = sums.Daily.Add(t.PnL)
		}
		if !created.Before(weekStart) {
			sums.Weekly = sums.Weekly.Add(t.PnL)
		}
		if !created.Before(monthStart) {
			sums.Monthly = sums.Monthly.Add(t.PnL)
		}
	}
	return sums
}

var hundred = decimal.NewFromInt(100)

// UsageFromPnL converts window P&L into percent-of-balance risk usage. A
// non-positive balance reports zero usage; the analyzer attaches the
// mandatory warning for that case.
func UsageFromPnL(sums PnLSums, balance decimal.Decimal) Usage {
	if balance.LessThanOrEqual(decimal.Zero) {
		return Usage{Daily: decimal.Zero, Weekly: decimal.Zero, Monthly: decimal.Zero}
	}
	pct := func(pnl decimal.Decimal) decimal.Decimal {
		return pnl.Abs().Div(balance).Mul(hundred)
	}
	return Usage{
		Daily:   pct(sums.Daily),
		Weekly:  pct(sums.Weekly),
		Monthly: pct(sums.Monthly),
	}
}
