package store

import (
	"context"
	"errors"
	"time"

	"lv-riskdash/internal/model"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an account, trade or settings record does not
// exist. Callers surface it as-is; it is never retried or auto-corrected.
var ErrNotFound = errors.New("not found")

// Ledger is the append-only trade history of an account.
type Ledger interface {
	ListTrades(ctx context.Context, accountID string) ([]model.Trade, error)
	ListOpenTrades(ctx context.Context, accountID string) ([]model.Trade, error)
	ListAllOpenTrades(ctx context.Context) ([]model.Trade, error)
	GetTrade(ctx context.Context, tradeID string) (model.Trade, error)
	AppendTrade(ctx context.Context, trade model.Trade) (model.Trade, error)
	// MarkTradePrice refreshes the mark price and floating P&L of an open trade.
	MarkTradePrice(ctx context.Context, tradeID string, currentPrice, pnl decimal.Decimal) error
	// CloseTrade is terminal: it sets exit price, final P&L, status closed and
	// closed_at. Closing an already-closed trade is an error.
	CloseTrade(ctx context.Context, tradeID string, exitPrice, pnl decimal.Decimal, closedAt time.Time) (model.Trade, error)
}

// Settings reads and writes per-account risk settings.
type Settings interface {
	GetRiskSettings(ctx context.Context, accountID string) (model.RiskSettings, error)
	// PutRiskSettings creates or replaces the settings record for an account.
	PutRiskSettings(ctx context.Context, settings model.RiskSettings) (model.RiskSettings, error)
	UpdateRiskSettings(ctx context.Context, accountID string, patch model.RiskSettingsPatch) (model.RiskSettings, error)
}

// Accounts reads trading accounts and applies balance/equity updates produced
// by trade open/close events.
type Accounts interface {
	GetAccount(ctx context.Context, accountID string) (model.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]model.Account, error)
	CreateAccount(ctx context.Context, account model.Account) (model.Account, error)
	UpdateAccountFunds(ctx context.Context, accountID string, balance, equity decimal.Decimal) error
}

// Store is the full persistence surface the risk core depends on.
type Store interface {
	Ledger
	Settings
	Accounts
}
