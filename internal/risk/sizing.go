package risk

import "github.com/shopspring/decimal"

// Hard sizing bounds: never below a micro lot, never above the hand-picked
// maximum exposure unit for small accounts.
var (
	MinLotSize = decimal.NewFromFloat(0.01)
	MaxLotSize = decimal.NewFromFloat(0.15)
)

// Defaults for the majors when a signal carries no stop distance.
var (
	DefaultStopLossPips   = decimal.NewFromInt(20)
	DefaultPipValuePerLot = decimal.NewFromInt(10)
)

// Nominal hard limits used as normalizers for the risk-reduction factor.
// These are deliberately the standard ceilings, not the account's configured
// limits, so the factor saturates as any window approaches its standard cap.
var (
	dailyNormalizer   = decimal.NewFromInt(10)
	weeklyNormalizer  = decimal.NewFromInt(15)
	monthlyNormalizer = decimal.NewFromInt(20)
)

// Account-tier caps on risk percent per trade.
var (
	microBalance  = decimal.NewFromInt(100)
	smallBalance  = decimal.NewFromInt(1000)
	mediumBalance = decimal.NewFromInt(5000)

	microRiskCap  = decimal.NewFromFloat(0.5)
	smallRiskCap  = decimal.NewFromFloat(1.0)
	mediumRiskCap = decimal.NewFromFloat(1.5)
)

type SizeInput struct {
	Balance     decimal.Decimal
	BaseRiskPct decimal.Decimal
	Usage       Usage
	// StopLossPips and PipValuePerLot default to 20 and 10 when zero.
	StopLossPips   decimal.Decimal
	PipValuePerLot decimal.Decimal
}

// RecommendSize derives a safe lot size. Pure; degrades monotonically as the
// balance shrinks or window usage grows, and always lands in
// [MinLotSize, MaxLotSize].
func RecommendSize(in SizeInput) decimal.Decimal {
	baseRisk := in.BaseRiskPct
	switch {
	case in.Balance.LessThan(microBalance):
		baseRisk = decimal.Min(baseRisk, microRiskCap)
	case in.Balance.LessThan(smallBalance):
		baseRisk = decimal.Min(baseRisk, smallRiskCap)
	case in.Balance.LessThan(mediumBalance):
		baseRisk = decimal.Min(baseRisk, mediumRiskCap)
	}

	reduction := decimal.Max(
		in.Usage.Daily.Div(dailyNormalizer),
		in.Usage.Weekly.Div(weeklyNormalizer),
		in.Usage.Monthly.Div(monthlyNormalizer),
	)
	if reduction.GreaterThan(decimal.NewFromInt(1)) {
		reduction = decimal.NewFromInt(1)
	}
	if reduction.IsNegative() {
		reduction = decimal.Zero
	}

	adjustedRisk := baseRisk.Mul(decimal.NewFromInt(1).Sub(reduction))
	riskAmount := in.Balance.Mul(adjustedRisk).Div(hundred)

	stopPips := in.StopLossPips
	if stopPips.LessThanOrEqual(decimal.Zero) {
		stopPips = DefaultStopLossPips
	}
	pipValue := in.PipValuePerLot
	if pipValue.LessThanOrEqual(decimal.Zero) {
		pipValue = DefaultPipValuePerLot
	}

	lot := riskAmount.Div(stopPips.Mul(pipValue)).Round(2)
	return decimal.Max(MinLotSize, decimal.Min(lot, MaxLotSize))
}
