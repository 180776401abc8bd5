package types

type TradeDirection string

type TradeStatus string

type TradingState string

type RiskWindow string

const (
	TradeDirectionLong  TradeDirection = "long"
	TradeDirectionShort TradeDirection = "short"
)

const (
	TradeStatusOpen    TradeStatus = "open"
	TradeStatusClosed  TradeStatus = "closed"
	TradeStatusPending TradeStatus = "pending"
)

const (
	TradingStateRunning          TradingState = "running"
	TradingStatePaused           TradingState = "paused"
	TradingStateEmergencyStopped TradingState = "emergency_stopped"
)

const (
	RiskWindowDaily   RiskWindow = "daily"
	RiskWindowWeekly  RiskWindow = "weekly"
	RiskWindowMonthly RiskWindow = "monthly"
)
