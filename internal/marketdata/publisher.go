package marketdata

import (
	"context"
	"time"

	"lv-riskdash/internal/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Publisher drives the simulated feed: on every tick it publishes a
// market_update event and re-marks every open trade's floating P&L and its
// account's equity.
type Publisher struct {
	feed     *Feed
	bus      *Bus
	st       store.Store
	interval time.Duration
	logger   zerolog.Logger
}

func NewPublisher(feed *Feed, bus *Bus, st store.Store, interval time.Duration, logger zerolog.Logger) *Publisher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Publisher{
		feed:     feed,
		bus:      bus,
		st:       st,
		interval: interval,
		logger:   logger.With().Str("component", "publisher").Logger(),
	}
}

type marketUpdate struct {
	Timestamp time.Time         `json:"timestamp"`
	Prices    map[string]string `json:"prices"`
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			quotes := p.feed.Tick()
			p.publish(quotes)
			if err := p.remarkOpenTrades(ctx); err != nil {
				p.logger.Error().Err(err).Msg("remark open trades")
			}
		}
	}
}

func (p *Publisher) publish(quotes []Quote) {
	prices := make(map[string]string, len(quotes))
	for _, q := range quotes {
		mid := q.Bid.Add(q.Ask).Div(decimal.NewFromInt(2))
		prices[q.Symbol] = mid.Round(5).String()
	}
	p.bus.Publish(Event{Type: "market_update", Data: marketUpdate{
		Timestamp: time.Now().UTC(),
		Prices:    prices,
	}})
}

func (p *Publisher) remarkOpenTrades(ctx context.Context) error {
	open, err := p.st.ListAllOpenTrades(ctx)
	if err != nil {
		return err
	}
	floating := make(map[string]decimal.Decimal, 4)
	for _, t := range open {
		q, err := p.feed.Quote(t.Symbol)
		if err != nil {
			// Trades on symbols the feed does not quote keep their last mark.
			floating[t.AccountID] = floating[t.AccountID].Add(t.PnL)
			continue
		}
		mark := q.MarkPrice(t.Direction)
		pnl := FloatingPnL(t.Symbol, t.Direction, t.EntryPrice, mark, t.LotSize)
		if err := p.st.MarkTradePrice(ctx, t.ID, mark, pnl); err != nil {
			p.logger.Warn().Err(err).Str("trade_id", t.ID).Msg("mark trade price")
			continue
		}
		floating[t.AccountID] = floating[t.AccountID].Add(pnl)
	}
	for accountID, pnl := range floating {
		acc, err := p.st.GetAccount(ctx, accountID)
		if err != nil {
			continue
		}
		if err := p.st.UpdateAccountFunds(ctx, accountID, acc.Balance, acc.Balance.Add(pnl)); err != nil {
			p.logger.Warn().Err(err).Str("account_id", accountID).Msg("update account equity")
		}
	}
	return nil
}
