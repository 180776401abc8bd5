package risk

import "github.com/shopspring/decimal"

// Usage is risk consumption per window, in percent of account balance.
type Usage struct {
	Daily   decimal.Decimal `json:"daily"`
	Weekly  decimal.Decimal `json:"weekly"`
	Monthly decimal.Decimal `json:"monthly"`
}

// Report is the derived risk picture of one account. It is recomputed on
// every request and never cached.
type Report struct {
	CurrentRiskUsage        Usage           `json:"currentRiskUsage"`
	CanTrade                bool            `json:"canTrade"`
	RiskWarnings            []string        `json:"riskWarnings"`
	RecommendedPositionSize decimal.Decimal `json:"recommendedPositionSize"`
	EmergencyStopTriggered  bool            `json:"emergencyStopTriggered"`
}
