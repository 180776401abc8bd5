package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"lv-riskdash/internal/model"
	"lv-riskdash/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Memory is an in-process Store used when no DB_DSN is configured and as the
// fixture for tests. All methods copy records in and out, so a reader never
// observes a half-written trade.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
	trades   map[string]model.Trade
	settings map[string]model.RiskSettings // keyed by account id
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]model.Account),
		trades:   make(map[string]model.Trade),
		settings: make(map[string]model.RiskSettings),
	}
}

func (m *Memory) ListTrades(ctx context.Context, accountID string) ([]model.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Trade, 0, 8)
	for _, t := range m.trades {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	sortTradesNewestFirst(out)
	return out, nil
}

func (m *Memory) ListOpenTrades(ctx context.Context, accountID string) ([]model.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Trade, 0, 8)
	for _, t := range m.trades {
		if t.AccountID == accountID && t.Status == types.TradeStatusOpen {
			out = append(out, t)
		}
	}
	sortTradesNewestFirst(out)
	return out, nil
}

func (m *Memory) ListAllOpenTrades(ctx context.Context) ([]model.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Trade, 0, 16)
	for _, t := range m.trades {
		if t.Status == types.TradeStatusOpen {
			out = append(out, t)
		}
	}
	sortTradesNewestFirst(out)
	return out, nil
}

func (m *Memory) GetTrade(ctx context.Context, tradeID string) (model.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trades[tradeID]
	if !ok {
		return model.Trade{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) AppendTrade(ctx context.Context, trade model.Trade) (model.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	if trade.OpenedAt.IsZero() {
		trade.OpenedAt = now
	}
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = now
	}
	trade.UpdatedAt = now
	m.trades[trade.ID] = trade
	return trade, nil
}

func (m *Memory) MarkTradePrice(ctx context.Context, tradeID string, currentPrice, pnl decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trades[tradeID]
	if !ok {
		return ErrNotFound
	}
	if t.Status != types.TradeStatusOpen {
		return nil
	}
	t.CurrentPrice = &currentPrice
	t.PnL = pnl
	t.UpdatedAt = time.Now().UTC()
	m.trades[tradeID] = t
	return nil
}

func (m *Memory) CloseTrade(ctx context.Context, tradeID string, exitPrice, pnl decimal.Decimal, closedAt time.Time) (model.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trades[tradeID]
	if !ok {
		return model.Trade{}, ErrNotFound
	}
	if t.Status == types.TradeStatusClosed {
		return model.Trade{}, ErrNotFound
	}
	closedAt = closedAt.UTC()
	t.Status = types.TradeStatusClosed
	t.ExitPrice = &exitPrice
	t.CurrentPrice = &exitPrice
	t.PnL = pnl
	t.ClosedAt = &closedAt
	t.UpdatedAt = time.Now().UTC()
	m.trades[tradeID] = t
	return t, nil
}

func (m *Memory) GetRiskSettings(ctx context.Context, accountID string) (model.RiskSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[accountID]
	if !ok {
		return model.RiskSettings{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) PutRiskSettings(ctx context.Context, settings model.RiskSettings) (model.RiskSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if settings.ID == "" {
		settings.ID = uuid.NewString()
	}
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now
	m.settings[settings.AccountID] = settings
	return settings, nil
}

func (m *Memory) UpdateRiskSettings(ctx context.Context, accountID string, patch model.RiskSettingsPatch) (model.RiskSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[accountID]
	if !ok {
		return model.RiskSettings{}, ErrNotFound
	}
	applyPatch(&s, patch)
	s.UpdatedAt = time.Now().UTC()
	m.settings[accountID] = s
	return s, nil
}

func (m *Memory) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return model.Account{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) ListAccounts(ctx context.Context, userID string) ([]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Account, 0, 4)
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	m.accounts[account.ID] = account
	return account, nil
}

func (m *Memory) UpdateAccountFunds(ctx context.Context, accountID string, balance, equity decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	a.Balance = balance
	a.Equity = equity
	a.UpdatedAt = time.Now().UTC()
	m.accounts[accountID] = a
	return nil
}

func applyPatch(s *model.RiskSettings, patch model.RiskSettingsPatch) {
	if patch.MaxDailyLossPct != nil {
		s.MaxDailyLossPct = *patch.MaxDailyLossPct
	}
	if patch.MaxWeeklyLossPct != nil {
		s.MaxWeeklyLossPct = *patch.MaxWeeklyLossPct
	}
	if patch.MaxMonthlyLossPct != nil {
		s.MaxMonthlyLossPct = *patch.MaxMonthlyLossPct
	}
	if patch.RiskPerTradePct != nil {
		s.RiskPerTradePct = *patch.RiskPerTradePct
	}
	if patch.MaxPositionsOpen != nil {
		s.MaxPositionsOpen = *patch.MaxPositionsOpen
	}
	if patch.ConservativeMode != nil {
		s.ConservativeMode = *patch.ConservativeMode
	}
	if patch.EmergencyStopActive != nil {
		s.EmergencyStopActive = *patch.EmergencyStopActive
	}
	if patch.TradingPaused != nil {
		s.TradingPaused = *patch.TradingPaused
	}
}

func sortTradesNewestFirst(trades []model.Trade) {
	sort.Slice(trades, func(i, j int) bool { return trades[i].CreatedAt.After(trades[j].CreatedAt) })
}
