package risk

import (
	"context"
	"testing"

	"lv-riskdash/internal/model"
	"lv-riskdash/internal/store"
	"lv-riskdash/internal/types"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, st *store.Memory, balance string) model.Account {
	t.Helper()
	ctx := context.Background()
	account, err := st.CreateAccount(ctx, model.Account{
		UserID:        "user-1",
		BrokerName:    "Demo Broker",
		AccountNumber: "100200",
		Balance:       d(balance),
		Equity:        d(balance),
		Currency:      "USD",
		Leverage:      100,
	})
	require.NoError(t, err)
	_, err = st.PutRiskSettings(ctx, model.RiskSettings{
		AccountID:         account.ID,
		MaxDailyLossPct:   d("10"),
		MaxWeeklyLossPct:  d("15"),
		MaxMonthlyLossPct: d("20"),
		RiskPerTradePct:   d("1"),
		MaxPositionsOpen:  3,
	})
	require.NoError(t, err)
	return account
}

func seedTrade(t *testing.T, st *store.Memory, accountID, pnl string) {
	t.Helper()
	_, err := st.AppendTrade(context.Background(), model.Trade{
		AccountID:  accountID,
		Symbol:     "EURUSD",
		Direction:  types.TradeDirectionLong,
		EntryPrice: d("1.0850"),
		LotSize:    d("0.10"),
		PnL:        d(pnl),
		Status:     types.TradeStatusClosed,
	})
	require.NoError(t, err)
}

func newTestAnalyzer(st *store.Memory) *Analyzer {
	return NewAnalyzer(st, NewClock(nil), zerolog.Nop())
}

func TestAnalyzeHealthyAccount(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()
	account := seedAccount(t, st, "1000")
	seedTrade(t, st, account.ID, "-20")

	report, err := newTestAnalyzer(st).Analyze(context.Background(), account.ID)
	require.NoError(t, err)

	assert.True(t, report.CanTrade)
	assert.Empty(t, report.RiskWarnings)
	assert.False(t, report.EmergencyStopTriggered)
	assert.True(t, report.CurrentRiskUsage.Daily.Equal(d("2")), "got %s", report.CurrentRiskUsage.Daily)
	assert.True(t, report.RecommendedPositionSize.GreaterThanOrEqual(MinLotSize))
	assert.True(t, report.RecommendedPositionSize.LessThanOrEqual(MaxLotSize))
}

func TestAnalyzeWarnsNearDailyLimit(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()
	account := seedAccount(t, st, "1000")
	seedTrade(t, st, account.ID, "-90")

	report, err := newTestAnalyzer(st).Analyze(context.Background(), account.ID)
	require.NoError(t, err)

	assert.True(t, report.CanTrade, "a warning alone must not halt trading")
	assert.Contains(t, report.RiskWarnings, "Daily risk usage at 9.0% (limit: 10%)")
	assert.NotContains(t, report.RiskWarnings, "DAILY RISK LIMIT EXCEEDED - Trading halted")
}

func TestAnalyzeHaltsAtDailyLimit(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()
	account := seedAccount(t, st, "1000")
	seedTrade(t, st, account.ID, "-100")

	report, err := newTestAnalyzer(st).Analyze(context.Background(), account.ID)
	require.NoError(t, err)

	assert.False(t, report.CanTrade)
	assert.Contains(t, report.RiskWarnings, "Daily risk usage at 10.0% (limit: 10%)")
	assert.Contains(t, report.RiskWarnings, "DAILY RISK LIMIT EXCEEDED - Trading halted")
}

func TestAnalyzeWindowsHaltIndependently(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()
	account := seedAccount(t, st, "1000")
	// 12% usage in every window breaches only the weekly limit.
	daily, weekly, monthly := d("15"), d("10"), d("20")
	_, err := st.UpdateRiskSettings(context.Background(), account.ID, model.RiskSettingsPatch{
		MaxDailyLossPct:   &daily,
		MaxWeeklyLossPct:  &weekly,
		MaxMonthlyLossPct: &monthly,
	})
	require.NoError(t, err)
	seedTrade(t, st, account.ID, "-120")

	report, err := newTestAnalyzer(st).Analyze(context.Background(), account.ID)
	require.NoError(t, err)

	assert.False(t, report.CanTrade)
	assert.Contains(t, report.RiskWarnings, "WEEKLY RISK LIMIT EXCEEDED - Trading halted")
	assert.NotContains(t, report.RiskWarnings, "DAILY RISK LIMIT EXCEEDED - Trading halted")
	assert.NotContains(t, report.RiskWarnings, "MONTHLY RISK LIMIT EXCEEDED - Trading halted")
}

func TestAnalyzeEmergencyStopOverridesEverything(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()
	account := seedAccount(t, st, "1000")

	active, paused := true, true
	_, err := st.UpdateRiskSettings(context.Background(), account.ID, model.RiskSettingsPatch{
		EmergencyStopActive: &active,
		TradingPaused:       &paused,
	})
	require.NoError(t, err)

	report, err := newTestAnalyzer(st).Analyze(context.Background(), account.ID)
	require.NoError(t, err)

	assert.False(t, report.CanTrade)
	assert.True(t, report.EmergencyStopTriggered)
	assert.Contains(t, report.RiskWarnings, "EMERGENCY STOP ACTIVE - All trading halted")
	assert.Contains(t, report.RiskWarnings, "Trading manually paused")
}

func TestAnalyzePausedAccount(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()
	account := seedAccount(t, st, "1000")

	paused := true
	_, err := st.UpdateRiskSettings(context.Background(), account.ID, model.RiskSettingsPatch{TradingPaused: &paused})
	require.NoError(t, err)

	report, err := newTestAnalyzer(st).Analyze(context.Background(), account.ID)
	require.NoError(t, err)

	assert.False(t, report.CanTrade)
	assert.False(t, report.EmergencyStopTriggered)
	assert.Contains(t, report.RiskWarnings, "Trading manually paused")
}

func TestAnalyzeZeroBalance(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()
	account := seedAccount(t, st, "0")
	seedTrade(t, st, account.ID, "-50")

	report, err := newTestAnalyzer(st).Analyze(context.Background(), account.ID)
	require.NoError(t, err)

	// Zero balance is not an error: usage reads 0% with a mandatory warning.
	assert.True(t, report.CurrentRiskUsage.Daily.IsZero())
	assert.Contains(t, report.RiskWarnings, "Account balance is not positive - risk usage reported as 0%")
	assert.True(t, report.CanTrade)
}

func TestAnalyzeUnknownAccount(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()

	_, err := newTestAnalyzer(st).Analyze(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAnalyzeGainsConsumeBudgetToo(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()
	account := seedAccount(t, st, "1000")
	seedTrade(t, st, account.ID, "100")

	report, err := newTestAnalyzer(st).Analyze(context.Background(), account.ID)
	require.NoError(t, err)

	// Usage is magnitude-based: a 10% gain also exhausts the daily window.
	assert.False(t, report.CanTrade)
	assert.Contains(t, report.RiskWarnings, "DAILY RISK LIMIT EXCEEDED - Trading halted")
}

func TestAnalyzeRecommendationShrinksUnderLoad(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()
	fresh := seedAccount(t, st, "2000")
	loaded := seedAccount(t, st, "2000")
	seedTrade(t, st, loaded.ID, "-100")

	analyzer := newTestAnalyzer(st)
	freshReport, err := analyzer.Analyze(context.Background(), fresh.ID)
	require.NoError(t, err)
	loadedReport, err := analyzer.Analyze(context.Background(), loaded.ID)
	require.NoError(t, err)

	assert.True(t, loadedReport.RecommendedPositionSize.LessThan(freshReport.RecommendedPositionSize),
		"loaded %s fresh %s", loadedReport.RecommendedPositionSize, freshReport.RecommendedPositionSize)
}
