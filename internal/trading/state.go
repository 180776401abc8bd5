package trading

import (
	"context"
	"fmt"

	"lv-riskdash/internal/marketdata"
	"lv-riskdash/internal/model"
	"lv-riskdash/internal/risk"
	"lv-riskdash/internal/store"
	"lv-riskdash/internal/types"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// StateOf derives the engine state from the settings flag pair. Emergency
// stop dominates pause: the stop always sets both flags, so a stopped account
// also reads as paused once the stop is reset.
func StateOf(settings model.RiskSettings) types.TradingState {
	switch {
	case settings.EmergencyStopActive:
		return types.TradingStateEmergencyStopped
	case settings.TradingPaused:
		return types.TradingStatePaused
	default:
		return types.TradingStateRunning
	}
}

// Status is the engine view returned by the status and control endpoints.
type Status struct {
	State          types.TradingState `json:"state"`
	CanTrade       bool               `json:"can_trade"`
	OpenPositions  int                `json:"open_positions"`
	MaxPositions   int                `json:"max_positions"`
	EmergencyStop  bool               `json:"emergency_stop_active"`
	TradingPaused  bool               `json:"trading_paused"`
	TradesClosed   int                `json:"trades_closed,omitempty"`
	RealizedOnStop string             `json:"realized_on_stop,omitempty"`
}

// Controller owns the pause / resume / emergency-stop lifecycle. Every
// transition goes through the per-account lock so a stop cannot interleave
// with an in-flight trade open.
type Controller struct {
	st     store.Store
	feed   *marketdata.Feed
	bus    *marketdata.Bus
	locks  *LockSet
	clock  risk.Clock
	logger zerolog.Logger
}

func NewController(st store.Store, feed *marketdata.Feed, bus *marketdata.Bus, locks *LockSet, clock risk.Clock, logger zerolog.Logger) *Controller {
	return &Controller{
		st:     st,
		feed:   feed,
		bus:    bus,
		locks:  locks,
		clock:  clock,
		logger: logger.With().Str("component", "trading_controller").Logger(),
	}
}

func (c *Controller) Status(ctx context.Context, accountID string) (Status, error) {
	settings, err := c.st.GetRiskSettings(ctx, accountID)
	if err != nil {
		return Status{}, fmt.Errorf("risk settings for account %s: %w", accountID, err)
	}
	open, err := c.st.ListOpenTrades(ctx, accountID)
	if err != nil {
		return Status{}, fmt.Errorf("open trades for account %s: %w", accountID, err)
	}
	return c.statusFrom(settings, len(open)), nil
}

func (c *Controller) statusFrom(settings model.RiskSettings, openCount int) Status {
	state := StateOf(settings)
	return Status{
		State:         state,
		CanTrade:      state == types.TradingStateRunning,
		OpenPositions: openCount,
		MaxPositions:  settings.MaxPositionsOpen,
		EmergencyStop: settings.EmergencyStopActive,
		TradingPaused: settings.TradingPaused,
	}
}

// Pause halts new trade opens but leaves open positions running. Pausing an
// already-paused or stopped account is a no-op.
func (c *Controller) Pause(ctx context.Context, accountID string) (Status, error) {
	release := c.locks.Acquire(accountID)
	defer release()

	paused := true
	settings, err := c.st.UpdateRiskSettings(ctx, accountID, model.RiskSettingsPatch{TradingPaused: &paused})
	if err != nil {
		return Status{}, fmt.Errorf("pause account %s: %w", accountID, err)
	}
	c.logger.Info().Str("account_id", accountID).Msg("trading paused")
	c.bus.Publish(marketdata.Event{Type: "trading_paused", Data: map[string]any{"accountId": accountID}})
	return c.statusWithCount(ctx, accountID, settings)
}

// Resume re-enables trading after a manual pause. It refuses to resume while
// the emergency stop is active; the stop has to be reset explicitly first.
func (c *Controller) Resume(ctx context.Context, accountID string) (Status, error) {
	release := c.locks.Acquire(accountID)
	defer release()

	current, err := c.st.GetRiskSettings(ctx, accountID)
	if err != nil {
		return Status{}, fmt.Errorf("risk settings for account %s: %w", accountID, err)
	}
	if current.EmergencyStopActive {
		return Status{}, fmt.Errorf("resume account %s: %w", accountID, ErrInvalidTransition)
	}

	paused := false
	settings, err := c.st.UpdateRiskSettings(ctx, accountID, model.RiskSettingsPatch{TradingPaused: &paused})
	if err != nil {
		return Status{}, fmt.Errorf("resume account %s: %w", accountID, err)
	}
	c.logger.Info().Str("account_id", accountID).Msg("trading resumed")
	c.bus.Publish(marketdata.Event{Type: "trading_resumed", Data: map[string]any{"accountId": accountID}})
	return c.statusWithCount(ctx, accountID, settings)
}

// EmergencyStop sets both halt flags in one write, then liquidates every open
// position at the current mark price and settles the realized P&L into the
// account balance. Idempotent: a second stop finds no open trades.
func (c *Controller) EmergencyStop(ctx context.Context, accountID string) (Status, error) {
	release := c.locks.Acquire(accountID)
	defer release()

	stop, paused := true, true
	settings, err := c.st.UpdateRiskSettings(ctx, accountID, model.RiskSettingsPatch{
		EmergencyStopActive: &stop,
		TradingPaused:       &paused,
	})
	if err != nil {
		return Status{}, fmt.Errorf("emergency stop account %s: %w", accountID, err)
	}

	open, err := c.st.ListOpenTrades(ctx, accountID)
	if err != nil {
		return Status{}, fmt.Errorf("open trades for account %s: %w", accountID, err)
	}

	realized := decimal.Zero
	closed := 0
	now := c.clock.Now()
	for _, t := range open {
		mark := t.EntryPrice
		if t.CurrentPrice != nil {
			mark = *t.CurrentPrice
		}
		if q, qerr := c.feed.Quote(t.Symbol); qerr == nil {
			mark = q.MarkPrice(t.Direction)
		}
		pnl := marketdata.FloatingPnL(t.Symbol, t.Direction, t.EntryPrice, mark, t.LotSize)
		if _, cerr := c.st.CloseTrade(ctx, t.ID, mark, pnl, now); cerr != nil {
			c.logger.Error().Err(cerr).Str("trade_id", t.ID).Msg("emergency close failed")
			continue
		}
		realized = realized.Add(pnl)
		closed++
	}

	account, err := c.st.GetAccount(ctx, accountID)
	if err != nil {
		return Status{}, fmt.Errorf("account %s: %w", accountID, err)
	}
	newBalance := account.Balance.Add(realized)
	if err := c.st.UpdateAccountFunds(ctx, accountID, newBalance, newBalance); err != nil {
		return Status{}, fmt.Errorf("settle account %s: %w", accountID, err)
	}

	c.logger.Warn().
		Str("account_id", accountID).
		Int("trades_closed", closed).
		Str("realized_pnl", realized.String()).
		Msg("emergency stop executed")
	c.bus.Publish(marketdata.Event{Type: "emergency_stop", Data: map[string]any{
		"accountId":    accountID,
		"tradesClosed": closed,
		"realizedPnl":  realized,
	}})

	status := c.statusFrom(settings, 0)
	status.TradesClosed = closed
	status.RealizedOnStop = realized.StringFixed(2)
	return status, nil
}

// ResetEmergencyStop clears the stop flag but keeps trading paused, so the
// account comes back in a state that still needs an explicit resume.
func (c *Controller) ResetEmergencyStop(ctx context.Context, accountID string) (Status, error) {
	release := c.locks.Acquire(accountID)
	defer release()

	stop := false
	settings, err := c.st.UpdateRiskSettings(ctx, accountID, model.RiskSettingsPatch{EmergencyStopActive: &stop})
	if err != nil {
		return Status{}, fmt.Errorf("reset emergency stop for account %s: %w", accountID, err)
	}
	c.logger.Info().Str("account_id", accountID).Msg("emergency stop reset")
	c.bus.Publish(marketdata.Event{Type: "emergency_stop_reset", Data: map[string]any{"accountId": accountID}})
	return c.statusWithCount(ctx, accountID, settings)
}

func (c *Controller) statusWithCount(ctx context.Context, accountID string, settings model.RiskSettings) (Status, error) {
	open, err := c.st.ListOpenTrades(ctx, accountID)
	if err != nil {
		return Status{}, fmt.Errorf("open trades for account %s: %w", accountID, err)
	}
	return c.statusFrom(settings, len(open)), nil
}
