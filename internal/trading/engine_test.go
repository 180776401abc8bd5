package trading

import (
	"context"
	"sync"
	"testing"

	"lv-riskdash/internal/marketdata"
	"lv-riskdash/internal/model"
	"lv-riskdash/internal/store"
	"lv-riskdash/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenTradeSuccess(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "1000")

	stop := d("1.0830")
	trade, err := f.engine.OpenTrade(context.Background(), f.account.ID, Signal{
		Symbol:     "EURUSD",
		Direction:  types.TradeDirectionLong,
		EntryPrice: d("1.0850"),
		StopLoss:   &stop,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, trade.ID)
	assert.Equal(t, types.TradeStatusOpen, trade.Status)
	assert.True(t, trade.EntryPrice.Equal(d("1.0850")))
	require.NotNil(t, trade.CurrentPrice)
	assert.True(t, trade.CurrentPrice.Equal(trade.EntryPrice))
	assert.True(t, trade.PnL.IsZero())
	// 1% of 1000 over a 20-pip stop at $10/pip: 10 / 200 = 0.05 lots.
	assert.True(t, trade.LotSize.Equal(d("0.05")), "got %s", trade.LotSize)
}

func TestOpenTradeTakesQuoteWhenNoEntryGiven(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "1000")

	long := f.openTrade(t, "EURUSD")
	q, err := f.feed.Quote("EURUSD")
	require.NoError(t, err)
	assert.True(t, long.EntryPrice.Equal(q.Ask), "long opens at the ask")

	short, err := f.engine.OpenTrade(context.Background(), f.account.ID, Signal{
		Symbol:    "GBPUSD",
		Direction: types.TradeDirectionShort,
	})
	require.NoError(t, err)
	q, err = f.feed.Quote("GBPUSD")
	require.NoError(t, err)
	assert.True(t, short.EntryPrice.Equal(q.Bid), "short opens at the bid")
}

func TestOpenTradeRejectedWhilePaused(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "1000")
	ctx := context.Background()

	_, err := f.controller.Pause(ctx, f.account.ID)
	require.NoError(t, err)

	_, err = f.engine.OpenTrade(ctx, f.account.ID, Signal{
		Symbol:    "EURUSD",
		Direction: types.TradeDirectionLong,
	})
	assert.ErrorIs(t, err, ErrEngineInactive)
}

func TestOpenTradeRejectedWhileEmergencyStopped(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "1000")
	ctx := context.Background()

	_, err := f.controller.EmergencyStop(ctx, f.account.ID)
	require.NoError(t, err)

	_, err = f.engine.OpenTrade(ctx, f.account.ID, Signal{
		Symbol:    "EURUSD",
		Direction: types.TradeDirectionLong,
	})
	assert.ErrorIs(t, err, ErrEngineInactive)
}

func TestOpenTradeRejectedAtPositionCap(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "1000")

	f.openTrade(t, "EURUSD")
	f.openTrade(t, "GBPUSD")
	f.openTrade(t, "USDJPY")

	_, err := f.engine.OpenTrade(context.Background(), f.account.ID, Signal{
		Symbol:    "AUDUSD",
		Direction: types.TradeDirectionLong,
	})
	assert.ErrorIs(t, err, ErrLimitReached)
}

func TestOpenTradeRejectedAtDailyLossLimit(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "1000")
	ctx := context.Background()

	// A closed trade from earlier today that burned the whole daily budget.
	_, err := f.st.AppendTrade(ctx, model.Trade{
		AccountID:  f.account.ID,
		Symbol:     "EURUSD",
		Direction:  types.TradeDirectionLong,
		EntryPrice: d("1.0850"),
		LotSize:    d("0.10"),
		PnL:        d("-100"),
		Status:     types.TradeStatusClosed,
	})
	require.NoError(t, err)

	_, err = f.engine.OpenTrade(ctx, f.account.ID, Signal{
		Symbol:    "EURUSD",
		Direction: types.TradeDirectionLong,
	})
	assert.ErrorIs(t, err, ErrDailyLimitReached)
}

func TestOpenTradeRejectedOnNonPositiveBalance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// A wiped-out account has no daily budget; the zero-usage reporting the
	// analyzer does for it must not let the open through.
	for _, balance := range []string{"0", "-25"} {
		f := newFixture(t, balance)

		_, err := f.engine.OpenTrade(ctx, f.account.ID, Signal{
			Symbol:    "EURUSD",
			Direction: types.TradeDirectionLong,
		})
		assert.ErrorIs(t, err, ErrDailyLimitReached, "balance %s", balance)

		open, err := f.st.ListOpenTrades(ctx, f.account.ID)
		require.NoError(t, err)
		assert.Empty(t, open, "balance %s", balance)
	}
}

func TestOpenTradeRacingEmergencyStop(t *testing.T) {
	t.Parallel()

	// Whichever side wins the account lock, no freshly opened trade may
	// survive the stop: the open is either refused or closed by the stop.
	for i := 0; i < 25; i++ {
		f := newFixture(t, "1000")
		ctx := context.Background()

		var wg sync.WaitGroup
		var openErr, stopErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, openErr = f.engine.OpenTrade(ctx, f.account.ID, Signal{
				Symbol:    "EURUSD",
				Direction: types.TradeDirectionLong,
			})
		}()
		go func() {
			defer wg.Done()
			_, stopErr = f.controller.EmergencyStop(ctx, f.account.ID)
		}()
		wg.Wait()

		require.NoError(t, stopErr)
		if openErr != nil {
			assert.ErrorIs(t, openErr, ErrEngineInactive)
		}

		open, err := f.st.ListOpenTrades(ctx, f.account.ID)
		require.NoError(t, err)
		assert.Empty(t, open)
	}
}

func TestOpenTradeUnknownSymbol(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "1000")

	_, err := f.engine.OpenTrade(context.Background(), f.account.ID, Signal{
		Symbol:    "XAUUSD",
		Direction: types.TradeDirectionLong,
	})
	assert.ErrorIs(t, err, marketdata.ErrUnknownSymbol)
}

func TestOpenTradeUnknownAccount(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "1000")

	_, err := f.engine.OpenTrade(context.Background(), "missing", Signal{
		Symbol:    "EURUSD",
		Direction: types.TradeDirectionLong,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCloseTradeSettlesBalance(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "1000")
	ctx := context.Background()

	stop := d("1.0830")
	trade, err := f.engine.OpenTrade(ctx, f.account.ID, Signal{
		Symbol:     "EURUSD",
		Direction:  types.TradeDirectionLong,
		EntryPrice: d("1.0850"),
		StopLoss:   &stop,
	})
	require.NoError(t, err)

	// Exit 20 pips above entry on 0.05 lots: +$10.
	exit := d("1.0870")
	closed, err := f.engine.CloseTrade(ctx, trade.ID, &exit)
	require.NoError(t, err)

	assert.Equal(t, types.TradeStatusClosed, closed.Status)
	require.NotNil(t, closed.ExitPrice)
	assert.True(t, closed.ExitPrice.Equal(exit))
	assert.True(t, closed.PnL.Equal(d("10")), "got %s", closed.PnL)
	require.NotNil(t, closed.ClosedAt)

	account, err := f.st.GetAccount(ctx, f.account.ID)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(d("1010")), "got %s", account.Balance)
	assert.True(t, account.Equity.Equal(d("1010")), "got %s", account.Equity)
}

func TestCloseTradeIsTerminal(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "1000")
	ctx := context.Background()

	trade := f.openTrade(t, "EURUSD")
	exit := trade.EntryPrice

	_, err := f.engine.CloseTrade(ctx, trade.ID, &exit)
	require.NoError(t, err)

	_, err = f.engine.CloseTrade(ctx, trade.ID, &exit)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCloseTradeUnknownID(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "1000")

	_, err := f.engine.CloseTrade(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOpenTradeInvalidDirection(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "1000")

	_, err := f.engine.OpenTrade(context.Background(), f.account.ID, Signal{
		Symbol:    "EURUSD",
		Direction: types.TradeDirection("sideways"),
	})
	assert.Error(t, err)
}
