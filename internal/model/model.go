package model

import (
	"time"

	"lv-riskdash/internal/types"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	BrokerName    string          `json:"broker_name"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	Equity        decimal.Decimal `json:"equity"`
	Currency      string          `json:"currency"`
	Leverage      int             `json:"leverage"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Trade is a single position in the per-account ledger. ClosedAt is set if and
// only if Status is closed; PnL holds realized P&L for closed trades and the
// floating P&L derived from CurrentPrice for open ones.
type Trade struct {
	ID           string               `json:"id"`
	AccountID    string               `json:"account_id"`
	Symbol       string               `json:"symbol"`
	Direction    types.TradeDirection `json:"direction"`
	EntryPrice   decimal.Decimal      `json:"entry_price"`
	CurrentPrice *decimal.Decimal     `json:"current_price"`
	ExitPrice    *decimal.Decimal     `json:"exit_price"`
	LotSize      decimal.Decimal      `json:"lot_size"`
	StopLoss     *decimal.Decimal     `json:"stop_loss"`
	TakeProfit   *decimal.Decimal     `json:"take_profit"`
	PnL          decimal.Decimal      `json:"pnl"`
	Status       types.TradeStatus    `json:"status"`
	OpenedAt     time.Time            `json:"opened_at"`
	ClosedAt     *time.Time           `json:"closed_at"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// RiskSettings is the per-account risk configuration. Exactly one record per
// account. The EmergencyStopActive/TradingPaused pair is only ever mutated
// together through the trading controller so that emergency stop always
// implies paused.
type RiskSettings struct {
	ID                  string          `json:"id"`
	AccountID           string          `json:"account_id"`
	MaxDailyLossPct     decimal.Decimal `json:"max_daily_loss"`
	MaxWeeklyLossPct    decimal.Decimal `json:"max_weekly_loss"`
	MaxMonthlyLossPct   decimal.Decimal `json:"max_monthly_loss"`
	RiskPerTradePct     decimal.Decimal `json:"risk_per_trade"`
	MaxPositionsOpen    int             `json:"max_positions_open"`
	ConservativeMode    bool            `json:"conservative_mode"`
	EmergencyStopActive bool            `json:"emergency_stop_active"`
	TradingPaused       bool            `json:"trading_paused"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// RiskSettingsPatch is a partial update; nil fields are left untouched.
type RiskSettingsPatch struct {
	MaxDailyLossPct     *decimal.Decimal
	MaxWeeklyLossPct    *decimal.Decimal
	MaxMonthlyLossPct   *decimal.Decimal
	RiskPerTradePct     *decimal.Decimal
	MaxPositionsOpen    *int
	ConservativeMode    *bool
	EmergencyStopActive *bool
	TradingPaused       *bool
}
