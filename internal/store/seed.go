package store

import (
	"context"
	"fmt"

	"lv-riskdash/internal/model"
	"lv-riskdash/internal/types"

	"github.com/shopspring/decimal"
)

// DemoUserID is the owner of the seeded dashboard account.
const DemoUserID = "demo-user-123"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

// SeedDemo loads the demo account, its risk settings and three open positions
// so the dashboard has data to render on a fresh start.
func SeedDemo(ctx context.Context, st Store) (model.Account, error) {
	account, err := st.CreateAccount(ctx, model.Account{
		UserID:        DemoUserID,
		BrokerName:    "IC Markets MT5",
		AccountNumber: "12345678",
		Balance:       dec("1247.83"),
		Equity:        dec("1275.48"),
		Currency:      "USD",
		Leverage:      500,
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("seed account: %w", err)
	}

	_, err = st.PutRiskSettings(ctx, model.RiskSettings{
		AccountID:         account.ID,
		MaxDailyLossPct:   dec("10"),
		MaxWeeklyLossPct:  dec("15"),
		MaxMonthlyLossPct: dec("20"),
		RiskPerTradePct:   dec("1.2"),
		MaxPositionsOpen:  3,
		ConservativeMode:  true,
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("seed risk settings: %w", err)
	}

	demoTrades := []model.Trade{
		{
			AccountID:    account.ID,
			Symbol:       "EURUSD",
			Direction:    types.TradeDirectionLong,
			EntryPrice:   dec("1.0845"),
			CurrentPrice: ptr(dec("1.0869")),
			LotSize:      dec("0.12"),
			StopLoss:     ptr(dec("1.0825")),
			TakeProfit:   ptr(dec("1.0890")),
			PnL:          dec("24.30"),
			Status:       types.TradeStatusOpen,
		},
		{
			AccountID:    account.ID,
			Symbol:       "GBPUSD",
			Direction:    types.TradeDirectionShort,
			EntryPrice:   dec("1.2645"),
			CurrentPrice: ptr(dec("1.2653")),
			LotSize:      dec("0.10"),
			StopLoss:     ptr(dec("1.2670")),
			TakeProfit:   ptr(dec("1.2600")),
			PnL:          dec("-8.50"),
			Status:       types.TradeStatusOpen,
		},
		{
			AccountID:    account.ID,
			Symbol:       "USDJPY",
			Direction:    types.TradeDirectionLong,
			EntryPrice:   dec("149.82"),
			CurrentPrice: ptr(dec("149.95")),
			LotSize:      dec("0.08"),
			StopLoss:     ptr(dec("149.60")),
			TakeProfit:   ptr(dec("150.20")),
			PnL:          dec("12.15"),
			Status:       types.TradeStatusOpen,
		},
	}
	for _, t := range demoTrades {
		if _, err := st.AppendTrade(ctx, t); err != nil {
			return model.Account{}, fmt.Errorf("seed trade %s: %w", t.Symbol, err)
		}
	}
	return account, nil
}
