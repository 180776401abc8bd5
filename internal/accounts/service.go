package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lv-riskdash/internal/model"
	"lv-riskdash/internal/store"

	"github.com/shopspring/decimal"
)

// Accounts in this system are demo accounts a user connects to the dashboard;
// creating one also provisions its risk-settings record so the analyzer never
// sees an account without limits.
type Service struct {
	st store.Store
}

func NewService(st store.Store) *Service {
	return &Service{st: st}
}

var allowedLeverageValues = map[int]struct{}{
	10: {}, 20: {}, 30: {}, 50: {},
	100: {}, 200: {}, 500: {}, 1000: {},
}

const defaultLeverage = 100

// Default limits applied to newly created accounts; tunable afterwards via the
// risk-settings endpoint.
var (
	defaultMaxDailyLoss   = decimal.NewFromInt(10)
	defaultMaxWeeklyLoss  = decimal.NewFromInt(15)
	defaultMaxMonthlyLoss = decimal.NewFromInt(20)
	defaultRiskPerTrade   = decimal.NewFromInt(1)
	defaultMaxPositions   = 3
)

func (s *Service) List(ctx context.Context, userID string) ([]model.Account, error) {
	if userID == "" {
		return nil, errors.New("user_id is required")
	}
	return s.st.ListAccounts(ctx, userID)
}

func (s *Service) Get(ctx context.Context, accountID string) (model.Account, error) {
	account, err := s.st.GetAccount(ctx, accountID)
	if err != nil {
		return model.Account{}, fmt.Errorf("account %s: %w", accountID, err)
	}
	return account, nil
}

type CreateInput struct {
	UserID        string
	BrokerName    string
	AccountNumber string
	Balance       decimal.Decimal
	Currency      string
	Leverage      int
}

func (s *Service) Create(ctx context.Context, in CreateInput) (model.Account, error) {
	if in.UserID == "" {
		return model.Account{}, errors.New("user_id is required")
	}
	if strings.TrimSpace(in.BrokerName) == "" {
		return model.Account{}, errors.New("broker_name is required")
	}
	if strings.TrimSpace(in.AccountNumber) == "" {
		return model.Account{}, errors.New("account_number is required")
	}
	if in.Balance.IsNegative() {
		return model.Account{}, errors.New("balance must not be negative")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}
	leverage := in.Leverage
	if leverage == 0 {
		leverage = defaultLeverage
	}
	if _, ok := allowedLeverageValues[leverage]; !ok {
		return model.Account{}, errors.New("unsupported leverage value; allowed: 10, 20, 30, 50, 100, 200, 500, 1000")
	}

	account, err := s.st.CreateAccount(ctx, model.Account{
		UserID:        in.UserID,
		BrokerName:    strings.TrimSpace(in.BrokerName),
		AccountNumber: strings.TrimSpace(in.AccountNumber),
		Balance:       in.Balance,
		Equity:        in.Balance,
		Currency:      currency,
		Leverage:      leverage,
	})
	if err != nil {
		return model.Account{}, err
	}

	_, err = s.st.PutRiskSettings(ctx, model.RiskSettings{
		AccountID:         account.ID,
		MaxDailyLossPct:   defaultMaxDailyLoss,
		MaxWeeklyLossPct:  defaultMaxWeeklyLoss,
		MaxMonthlyLossPct: defaultMaxMonthlyLoss,
		RiskPerTradePct:   defaultRiskPerTrade,
		MaxPositionsOpen:  defaultMaxPositions,
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("provision risk settings for account %s: %w", account.ID, err)
	}
	return account, nil
}
