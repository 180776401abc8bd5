package risk

import (
	"context"
	"fmt"
	"strings"

	"lv-riskdash/internal/model"
	"lv-riskdash/internal/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WarnThreshold: a window starts warning at 80% of its configured limit.
var warnThreshold = decimal.NewFromFloat(0.8)

const (
	WarningEmergencyStop = "EMERGENCY STOP ACTIVE - All trading halted"
	WarningPaused        = "Trading manually paused"
	WarningZeroBalance   = "Account balance is not positive - risk usage reported as 0%"
)

// Analyzer computes the per-account risk report: time-windowed usage, the
// canTrade verdict, warnings and a recommended position size. Pure
// read-and-compute; safe for concurrent use across accounts.
type Analyzer struct {
	st     store.Store
	clock  Clock
	logger zerolog.Logger
}

func NewAnalyzer(st store.Store, clock Clock, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		st:     st,
		clock:  clock,
		logger: logger.With().Str("component", "risk_analyzer").Logger(),
	}
}

func (a *Analyzer) Clock() Clock {
	return a.clock
}

func (a *Analyzer) Analyze(ctx context.Context, accountID string) (Report, error) {
	account, err := a.st.GetAccount(ctx, accountID)
	if err != nil {
		return Report{}, fmt.Errorf("account %s: %w", accountID, err)
	}
	settings, err := a.st.GetRiskSettings(ctx, accountID)
	if err != nil {
		return Report{}, fmt.Errorf("risk settings for account %s: %w", accountID, err)
	}
	trades, err := a.st.ListTrades(ctx, accountID)
	if err != nil {
		return Report{}, fmt.Errorf("list trades for account %s: %w", accountID, err)
	}

	now := a.clock.Now()
	sums := WindowPnL(a.clock, trades, now)
	usage := UsageFromPnL(sums, account.Balance)

	report := Report{
		CurrentRiskUsage:       usage,
		CanTrade:               true,
		RiskWarnings:           []string{},
		EmergencyStopTriggered: settings.EmergencyStopActive,
	}

	if account.Balance.LessThanOrEqual(decimal.Zero) {
		report.RiskWarnings = append(report.RiskWarnings, WarningZeroBalance)
	}

	checkWindow(&report, "Daily", usage.Daily, settings.MaxDailyLossPct)
	checkWindow(&report, "Weekly", usage.Weekly, settings.MaxWeeklyLossPct)
	checkWindow(&report, "Monthly", usage.Monthly, settings.MaxMonthlyLossPct)

	if settings.EmergencyStopActive {
		report.CanTrade = false
		report.RiskWarnings = append(report.RiskWarnings, WarningEmergencyStop)
	}
	if settings.TradingPaused {
		report.CanTrade = false
		report.RiskWarnings = append(report.RiskWarnings, WarningPaused)
	}

	report.RecommendedPositionSize = RecommendSize(SizeInput{
		Balance:     account.Balance,
		BaseRiskPct: settings.RiskPerTradePct,
		Usage:       usage,
	})

	a.logger.Debug().
		Str("account_id", accountID).
		Bool("can_trade", report.CanTrade).
		Int("warnings", len(report.RiskWarnings)).
		Msg("risk analyzed")
	return report, nil
}

// checkWindow applies the two thresholds of one window independently: a
// warning at 80% of the limit, a halt at the limit itself. Any single window
// breaching its limit halts trading regardless of the others.
func checkWindow(report *Report, window string, usage, limit decimal.Decimal) {
	if usage.LessThan(limit.Mul(warnThreshold)) {
		return
	}
	report.RiskWarnings = append(report.RiskWarnings,
		fmt.Sprintf("%s risk usage at %s%% (limit: %s%%)", window, usage.StringFixed(1), limit))
	if usage.GreaterThanOrEqual(limit) {
		report.CanTrade = false
		report.RiskWarnings = append(report.RiskWarnings,
			fmt.Sprintf("%s RISK LIMIT EXCEEDED - Trading halted", strings.ToUpper(window)))
	}
}

// WindowUsage recomputes current usage for one account; the trade executor
// uses it to feed the sizer without building a full report.
func (a *Analyzer) WindowUsage(ctx context.Context, account model.Account) (Usage, PnLSums, error) {
	trades, err := a.st.ListTrades(ctx, account.ID)
	if err != nil {
		return Usage{}, PnLSums{}, fmt.Errorf("list trades for account %s: %w", account.ID, err)
	}
	sums := WindowPnL(a.clock, trades, a.clock.Now())
	return UsageFromPnL(sums, account.Balance), sums, nil
}
