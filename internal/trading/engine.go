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

// nominalRiskPct is the base risk percent the executor sizes against. The
// analyzer's report uses the account's configured risk-per-trade instead; the
// executor deliberately sizes from the standard 1% so a misconfigured setting
// cannot inflate live orders.
var nominalRiskPct = decimal.NewFromInt(1)

var hundred = decimal.NewFromInt(100)

// Signal is a request to open a position. EntryPrice zero means "take the
// current quote"; StopLoss, when set, drives the stop-distance part of sizing.
type Signal struct {
	Symbol     string
	Direction  types.TradeDirection
	EntryPrice decimal.Decimal
	StopLoss   *decimal.Decimal
	TakeProfit *decimal.Decimal
}

// Engine executes the trade lifecycle. Every open runs the same gate sequence
// under the account lock: engine state, position count, daily loss budget,
// then sizing, then the ledger append. The first failing gate rejects the
// trade; no partial writes happen before the append.
type Engine struct {
	st       store.Store
	analyzer *risk.Analyzer
	feed     *marketdata.Feed
	bus      *marketdata.Bus
	locks    *LockSet
	logger   zerolog.Logger
}

func NewEngine(st store.Store, analyzer *risk.Analyzer, feed *marketdata.Feed, bus *marketdata.Bus, locks *LockSet, logger zerolog.Logger) *Engine {
	return &Engine{
		st:       st,
		analyzer: analyzer,
		feed:     feed,
		bus:      bus,
		locks:    locks,
		logger:   logger.With().Str("component", "trade_engine").Logger(),
	}
}

func (e *Engine) OpenTrade(ctx context.Context, accountID string, sig Signal) (model.Trade, error) {
	if !marketdata.IsKnownSymbol(sig.Symbol) {
		return model.Trade{}, fmt.Errorf("open trade: %s: %w", sig.Symbol, marketdata.ErrUnknownSymbol)
	}
	if sig.Direction != types.TradeDirectionLong && sig.Direction != types.TradeDirectionShort {
		return model.Trade{}, fmt.Errorf("open trade: invalid direction %q", sig.Direction)
	}

	release := e.locks.Acquire(accountID)
	defer release()

	settings, err := e.st.GetRiskSettings(ctx, accountID)
	if err != nil {
		return model.Trade{}, fmt.Errorf("risk settings for account %s: %w", accountID, err)
	}
	if StateOf(settings) != types.TradingStateRunning {
		return model.Trade{}, fmt.Errorf("open trade for account %s: %w", accountID, ErrEngineInactive)
	}

	open, err := e.st.ListOpenTrades(ctx, accountID)
	if err != nil {
		return model.Trade{}, fmt.Errorf("open trades for account %s: %w", accountID, err)
	}
	if len(open) >= settings.MaxPositionsOpen {
		return model.Trade{}, fmt.Errorf("open trade for account %s: %w", accountID, ErrLimitReached)
	}

	account, err := e.st.GetAccount(ctx, accountID)
	if err != nil {
		return model.Trade{}, fmt.Errorf("account %s: %w", accountID, err)
	}
	usage, sums, err := e.analyzer.WindowUsage(ctx, account)
	if err != nil {
		return model.Trade{}, err
	}
	// Gate on the raw dollar budget, not percent usage: usage reports 0% for
	// a non-positive balance, and such an account has no budget to trade on.
	dailyBudget := account.Balance.Mul(settings.MaxDailyLossPct).Div(hundred)
	if sums.Daily.Abs().GreaterThanOrEqual(dailyBudget) {
		return model.Trade{}, fmt.Errorf("open trade for account %s: %w", accountID, ErrDailyLimitReached)
	}

	entry := sig.EntryPrice
	if entry.LessThanOrEqual(decimal.Zero) {
		q, qerr := e.feed.Quote(sig.Symbol)
		if qerr != nil {
			return model.Trade{}, fmt.Errorf("quote %s: %w", sig.Symbol, qerr)
		}
		// Opens cross the spread: a long buys the ask, a short sells the bid.
		if sig.Direction == types.TradeDirectionLong {
			entry = q.Ask
		} else {
			entry = q.Bid
		}
	}

	lot := risk.RecommendSize(risk.SizeInput{
		Balance:        account.Balance,
		BaseRiskPct:    nominalRiskPct,
		Usage:          usage,
		StopLossPips:   stopDistancePips(sig.Symbol, entry, sig.StopLoss),
		PipValuePerLot: marketdata.PipValuePerLot,
	})

	now := e.analyzer.Clock().Now()
	trade := model.Trade{
		AccountID:    accountID,
		Symbol:       sig.Symbol,
		Direction:    sig.Direction,
		EntryPrice:   entry,
		CurrentPrice: &entry,
		LotSize:      lot,
		StopLoss:     sig.StopLoss,
		TakeProfit:   sig.TakeProfit,
		PnL:          decimal.Zero,
		Status:       types.TradeStatusOpen,
		OpenedAt:     now,
	}
	created, err := e.st.AppendTrade(ctx, trade)
	if err != nil {
		return model.Trade{}, fmt.Errorf("append trade for account %s: %w", accountID, err)
	}

	e.logger.Info().
		Str("account_id", accountID).
		Str("trade_id", created.ID).
		Str("symbol", created.Symbol).
		Str("direction", string(created.Direction)).
		Str("lot_size", created.LotSize.String()).
		Msg("trade opened")
	e.bus.Publish(marketdata.Event{Type: "trade_opened", Data: created})
	return created, nil
}

// CloseTrade closes one position. A nil exitPrice means "close at the current
// mark"; the realized P&L is settled into the account balance and the equity
// rebased on the remaining open positions.
func (e *Engine) CloseTrade(ctx context.Context, tradeID string, exitPrice *decimal.Decimal) (model.Trade, error) {
	trade, err := e.st.GetTrade(ctx, tradeID)
	if err != nil {
		return model.Trade{}, fmt.Errorf("trade %s: %w", tradeID, err)
	}

	release := e.locks.Acquire(trade.AccountID)
	defer release()

	exit := decimal.Zero
	if exitPrice != nil {
		exit = *exitPrice
	} else {
		q, qerr := e.feed.Quote(trade.Symbol)
		if qerr != nil {
			return model.Trade{}, fmt.Errorf("quote %s: %w", trade.Symbol, qerr)
		}
		exit = q.MarkPrice(trade.Direction)
	}

	pnl := marketdata.FloatingPnL(trade.Symbol, trade.Direction, trade.EntryPrice, exit, trade.LotSize)
	closed, err := e.st.CloseTrade(ctx, tradeID, exit, pnl, e.analyzer.Clock().Now())
	if err != nil {
		return model.Trade{}, fmt.Errorf("close trade %s: %w", tradeID, err)
	}

	account, err := e.st.GetAccount(ctx, trade.AccountID)
	if err != nil {
		return model.Trade{}, fmt.Errorf("account %s: %w", trade.AccountID, err)
	}
	newBalance := account.Balance.Add(pnl)

	remaining, err := e.st.ListOpenTrades(ctx, trade.AccountID)
	if err != nil {
		return model.Trade{}, fmt.Errorf("open trades for account %s: %w", trade.AccountID, err)
	}
	floating := decimal.Zero
	for _, t := range remaining {
		floating = floating.Add(t.PnL)
	}
	if err := e.st.UpdateAccountFunds(ctx, trade.AccountID, newBalance, newBalance.Add(floating)); err != nil {
		return model.Trade{}, fmt.Errorf("settle account %s: %w", trade.AccountID, err)
	}

	e.logger.Info().
		Str("account_id", trade.AccountID).
		Str("trade_id", tradeID).
		Str("pnl", pnl.String()).
		Msg("trade closed")
	e.bus.Publish(marketdata.Event{Type: "trade_closed", Data: closed})
	return closed, nil
}

// stopDistancePips converts an absolute stop level into the pip distance the
// sizer wants. No stop, or a stop on the wrong side collapsing to zero, falls
// back to the sizer's default.
func stopDistancePips(symbol string, entry decimal.Decimal, stop *decimal.Decimal) decimal.Decimal {
	if stop == nil {
		return decimal.Zero
	}
	dist := entry.Sub(*stop).Abs().Div(marketdata.PipSize(symbol))
	if dist.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return dist
}
