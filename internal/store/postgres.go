package store

import (
	"context"
	"errors"
	"time"

	"lv-riskdash/internal/model"
	"lv-riskdash/internal/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Postgres is the durable Store used in deployments. The schema mirrors the
// dashboard's relational model: trading_accounts, trades and risk_settings.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the tables on first start. Kept idempotent so the api
// binary can run against a fresh database without a separate migration step.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		create table if not exists trading_accounts (
			id uuid primary key default gen_random_uuid(),
			user_id text not null,
			broker_name text not null default '',
			account_number text not null default '',
			balance numeric(15,2) not null default 0,
			equity numeric(15,2) not null default 0,
			currency text not null default 'USD',
			leverage int not null default 100,
			created_at timestamptz not null default now(),
			updated_at timestamptz not null default now()
		);
		create table if not exists trades (
			id uuid primary key default gen_random_uuid(),
			account_id uuid not null references trading_accounts(id),
			symbol text not null,
			direction text not null,
			entry_price numeric(15,5) not null,
			current_price numeric(15,5),
			exit_price numeric(15,5),
			lot_size numeric(10,2) not null,
			stop_loss numeric(15,5),
			take_profit numeric(15,5),
			pnl numeric(15,2) not null default 0,
			status text not null default 'open',
			opened_at timestamptz not null default now(),
			closed_at timestamptz,
			created_at timestamptz not null default now(),
			updated_at timestamptz not null default now()
		);
		create index if not exists idx_trades_account_created on trades (account_id, created_at desc);
		create table if not exists risk_settings (
			id uuid primary key default gen_random_uuid(),
			account_id uuid not null unique references trading_accounts(id),
			max_daily_loss numeric(5,2) not null default 10,
			max_weekly_loss numeric(5,2) not null default 15,
			max_monthly_loss numeric(5,2) not null default 20,
			risk_per_trade numeric(5,2) not null default 1.0,
			max_positions_open int not null default 3,
			conservative_mode boolean not null default true,
			emergency_stop_active boolean not null default false,
			trading_paused boolean not null default false,
			created_at timestamptz not null default now(),
			updated_at timestamptz not null default now()
		);
	`)
	return err
}

const tradeColumns = "id, account_id, symbol, direction, entry_price, current_price, exit_price, lot_size, stop_loss, take_profit, pnl, status, opened_at, closed_at, created_at, updated_at"

func scanTrade(row pgx.Row) (model.Trade, error) {
	var t model.Trade
	var direction, status string
	err := row.Scan(&t.ID, &t.AccountID, &t.Symbol, &direction, &t.EntryPrice, &t.CurrentPrice, &t.ExitPrice, &t.LotSize, &t.StopLoss, &t.TakeProfit, &t.PnL, &status, &t.OpenedAt, &t.ClosedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	t.Direction = types.TradeDirection(direction)
	t.Status = types.TradeStatus(status)
	return t, nil
}

func (p *Postgres) listTrades(ctx context.Context, query string, args ...any) ([]model.Trade, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) ListTrades(ctx context.Context, accountID string) ([]model.Trade, error) {
	return p.listTrades(ctx, "select "+tradeColumns+" from trades where account_id = $1 order by created_at desc", accountID)
}

func (p *Postgres) ListOpenTrades(ctx context.Context, accountID string) ([]model.Trade, error) {
	return p.listTrades(ctx, "select "+tradeColumns+" from trades where account_id = $1 and status = 'open' order by opened_at desc", accountID)
}

func (p *Postgres) ListAllOpenTrades(ctx context.Context) ([]model.Trade, error) {
	return p.listTrades(ctx, "select " + tradeColumns + " from trades where status = 'open' order by opened_at desc")
}

func (p *Postgres) GetTrade(ctx context.Context, tradeID string) (model.Trade, error) {
	t, err := scanTrade(p.pool.QueryRow(ctx, "select "+tradeColumns+" from trades where id = $1", tradeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Trade{}, ErrNotFound
	}
	return t, err
}

func (p *Postgres) AppendTrade(ctx context.Context, trade model.Trade) (model.Trade, error) {
	now := time.Now().UTC()
	if trade.OpenedAt.IsZero() {
		trade.OpenedAt = now
	}
	row := p.pool.QueryRow(ctx, `
		insert into trades (account_id, symbol, direction, entry_price, current_price, lot_size, stop_loss, take_profit, pnl, status, opened_at, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		returning `+tradeColumns,
		trade.AccountID, trade.Symbol, string(trade.Direction), trade.EntryPrice, trade.CurrentPrice, trade.LotSize, trade.StopLoss, trade.TakeProfit, trade.PnL, string(trade.Status), trade.OpenedAt, now, now)
	return scanTrade(row)
}

func (p *Postgres) MarkTradePrice(ctx context.Context, tradeID string, currentPrice, pnl decimal.Decimal) error {
	tag, err := p.pool.Exec(ctx, "update trades set current_price = $1, pnl = $2, updated_at = $3 where id = $4 and status = 'open'", currentPrice, pnl, time.Now().UTC(), tradeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CloseTrade(ctx context.Context, tradeID string, exitPrice, pnl decimal.Decimal, closedAt time.Time) (model.Trade, error) {
	row := p.pool.QueryRow(ctx, `
		update trades
		set status = 'closed', exit_price = $1, current_price = $1, pnl = $2, closed_at = $3, updated_at = $4
		where id = $5 and status <> 'closed'
		returning `+tradeColumns,
		exitPrice, pnl, closedAt.UTC(), time.Now().UTC(), tradeID)
	t, err := scanTrade(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Trade{}, ErrNotFound
	}
	return t, err
}

const settingsColumns = "id, account_id, max_daily_loss, max_weekly_loss, max_monthly_loss, risk_per_trade, max_positions_open, conservative_mode, emergency_stop_active, trading_paused, created_at, updated_at"

func scanSettings(row pgx.Row) (model.RiskSettings, error) {
	var s model.RiskSettings
	err := row.Scan(&s.ID, &s.AccountID, &s.MaxDailyLossPct, &s.MaxWeeklyLossPct, &s.MaxMonthlyLossPct, &s.RiskPerTradePct, &s.MaxPositionsOpen, &s.ConservativeMode, &s.EmergencyStopActive, &s.TradingPaused, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (p *Postgres) GetRiskSettings(ctx context.Context, accountID string) (model.RiskSettings, error) {
	s, err := scanSettings(p.pool.QueryRow(ctx, "select "+settingsColumns+" from risk_settings where account_id = $1", accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.RiskSettings{}, ErrNotFound
	}
	return s, err
}

func (p *Postgres) PutRiskSettings(ctx context.Context, settings model.RiskSettings) (model.RiskSettings, error) {
	row := p.pool.QueryRow(ctx, `
		insert into risk_settings (account_id, max_daily_loss, max_weekly_loss, max_monthly_loss, risk_per_trade, max_positions_open, conservative_mode, emergency_stop_active, trading_paused)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		on conflict (account_id) do update set
			max_daily_loss = excluded.max_daily_loss,
			max_weekly_loss = excluded.max_weekly_loss,
			max_monthly_loss = excluded.max_monthly_loss,
			risk_per_trade = excluded.risk_per_trade,
			max_positions_open = excluded.max_positions_open,
			conservative_mode = excluded.conservative_mode,
			emergency_stop_active = excluded.emergency_stop_active,
			trading_paused = excluded.trading_paused,
			updated_at = now()
		returning `+settingsColumns,
		settings.AccountID, settings.MaxDailyLossPct, settings.MaxWeeklyLossPct, settings.MaxMonthlyLossPct, settings.RiskPerTradePct, settings.MaxPositionsOpen, settings.ConservativeMode, settings.EmergencyStopActive, settings.TradingPaused)
	return scanSettings(row)
}

// UpdateRiskSettings applies a partial update inside one transaction so that
// paired flag changes (emergency stop + pause) land atomically.
func (p *Postgres) UpdateRiskSettings(ctx context.Context, accountID string, patch model.RiskSettingsPatch) (model.RiskSettings, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return model.RiskSettings{}, err
	}
	defer tx.Rollback(ctx)

	s, err := scanSettings(tx.QueryRow(ctx, "select "+settingsColumns+" from risk_settings where account_id = $1 for update", accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.RiskSettings{}, ErrNotFound
	}
	if err != nil {
		return model.RiskSettings{}, err
	}
	applyPatch(&s, patch)
	s.UpdatedAt = time.Now().UTC()
	_, err = tx.Exec(ctx, `
		update risk_settings
		set max_daily_loss = $1, max_weekly_loss = $2, max_monthly_loss = $3, risk_per_trade = $4,
			max_positions_open = $5, conservative_mode = $6, emergency_stop_active = $7, trading_paused = $8, updated_at = $9
		where account_id = $10`,
		s.MaxDailyLossPct, s.MaxWeeklyLossPct, s.MaxMonthlyLossPct, s.RiskPerTradePct,
		s.MaxPositionsOpen, s.ConservativeMode, s.EmergencyStopActive, s.TradingPaused, s.UpdatedAt, accountID)
	if err != nil {
		return model.RiskSettings{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.RiskSettings{}, err
	}
	return s, nil
}

const accountColumns = "id, user_id, broker_name, account_number, balance, equity, currency, leverage, created_at, updated_at"

func scanAccount(row pgx.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.UserID, &a.BrokerName, &a.AccountNumber, &a.Balance, &a.Equity, &a.Currency, &a.Leverage, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (p *Postgres) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	a, err := scanAccount(p.pool.QueryRow(ctx, "select "+accountColumns+" from trading_accounts where id = $1", accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, ErrNotFound
	}
	return a, err
}

func (p *Postgres) ListAccounts(ctx context.Context, userID string) ([]model.Account, error) {
	rows, err := p.pool.Query(ctx, "select "+accountColumns+" from trading_accounts where user_id = $1 order by created_at desc", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	row := p.pool.QueryRow(ctx, `
		insert into trading_accounts (user_id, broker_name, account_number, balance, equity, currency, leverage)
		values ($1,$2,$3,$4,$5,$6,$7)
		returning `+accountColumns,
		account.UserID, account.BrokerName, account.AccountNumber, account.Balance, account.Equity, account.Currency, account.Leverage)
	return scanAccount(row)
}

func (p *Postgres) UpdateAccountFunds(ctx context.Context, accountID string, balance, equity decimal.Decimal) error {
	tag, err := p.pool.Exec(ctx, "update trading_accounts set balance = $1, equity = $2, updated_at = $3 where id = $4", balance, equity, time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
