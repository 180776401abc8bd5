package risk

import (
	"testing"
	"time"

	"lv-riskdash/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestClockWindowBoundaries(t *testing.T) {
	t.Parallel()
	clock := NewClock(time.UTC)

	// Wednesday 2026-08-26 15:04:05 UTC.
	now := time.Date(2026, 8, 26, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), clock.DayStart(now))
	assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), clock.DayEnd(now))
	// Week starts the preceding Sunday.
	assert.Equal(t, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), clock.WeekStart(now))
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), clock.MonthStart(now))
}

func TestClockWeekStartOnSunday(t *testing.T) {
	t.Parallel()
	clock := NewClock(time.UTC)

	// A Sunday is its own week start.
	sunday := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), clock.WeekStart(sunday))
}

func TestClockHonorsLocation(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	clock := NewClock(loc)

	// 2026-08-26 02:00 UTC is still 2026-08-25 in New York.
	now := time.Date(2026, 8, 26, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, loc), clock.DayStart(now))
}

func TestWindowPnLBucketsByCreationTime(t *testing.T) {
	t.Parallel()
	clock := NewClock(time.UTC)
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	trades := []model.Trade{
		{PnL: d("-50"), CreatedAt: now.Add(-time.Hour)},                // today
		{PnL: d("-30"), CreatedAt: now.AddDate(0, 0, -2)},              // this week, not today
		{PnL: d("20"), CreatedAt: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)}, // this month only
		{PnL: d("-999"), CreatedAt: time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)}, // last month
	}

	sums := WindowPnL(clock, trades, now)
	assert.True(t, sums.Daily.Equal(d("-50")), "daily got %s", sums.Daily)
	assert.True(t, sums.Weekly.Equal(d("-80")), "weekly got %s", sums.Weekly)
	assert.True(t, sums.Monthly.Equal(d("-60")), "monthly got %s", sums.Monthly)
}

func TestWindowPnLDayBoundaryIsExclusive(t *testing.T) {
	t.Parallel()
	clock := NewClock(time.UTC)
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	trades := []model.Trade{
		{PnL: d("-10"), CreatedAt: time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)},  // midnight, included
		{PnL: d("-99"), CreatedAt: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)},  // next midnight, excluded
	}

	sums := WindowPnL(clock, trades, now)
	assert.True(t, sums.Daily.Equal(d("-10")), "daily got %s", sums.Daily)
}

func TestUsageFromPnL(t *testing.T) {
	t.Parallel()

	sums := PnLSums{Daily: d("-90"), Weekly: d("-120"), Monthly: d("50")}
	usage := UsageFromPnL(sums, d("1000"))

	// Usage is the absolute P&L as a percentage of balance; gains count too.
	assert.True(t, usage.Daily.Equal(d("9")), "daily got %s", usage.Daily)
	assert.True(t, usage.Weekly.Equal(d("12")), "weekly got %s", usage.Weekly)
	assert.True(t, usage.Monthly.Equal(d("5")), "monthly got %s", usage.Monthly)
}

func TestUsageFromPnLZeroBalance(t *testing.T) {
	t.Parallel()

	sums := PnLSums{Daily: d("-90"), Weekly: d("-90"), Monthly: d("-90")}
	for _, balance := range []decimal.Decimal{decimal.Zero, d("-5")} {
		usage := UsageFromPnL(sums, balance)
		assert.True(t, usage.Daily.IsZero())
		assert.True(t, usage.Weekly.IsZero())
		assert.True(t, usage.Monthly.IsZero())
	}
}
