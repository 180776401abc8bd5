package httpserver

import (
	"net/http"

	"lv-riskdash/internal/accounts"
	"lv-riskdash/internal/health"
	"lv-riskdash/internal/httputil"
	"lv-riskdash/internal/marketdata"
	"lv-riskdash/internal/risk"
	"lv-riskdash/internal/trading"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	AccountsHandler *accounts.Handler
	RiskHandler     *risk.Handler
	TradingHandler  *trading.Handler
	MarketHandler   *marketdata.Handler
	HealthHandler   *health.Handler
	WSHandler       http.Handler
	DefaultUserID   string
	Logger          zerolog.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS middleware for development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Use(SecurityHeaders)
	r.Use(RateLimitMiddleware)
	r.Use(AccessLog(d.Logger))

	r.Get("/health", d.HealthHandler.Live)
	r.Get("/health/ready", d.HealthHandler.Ready)
	r.Get("/health/full", d.HealthHandler.Full)

	r.Get("/ws", d.WSHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(WithUser(d.DefaultUserID))

		r.Get("/accounts", func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserID(r)
			if !ok {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "missing user"})
				return
			}
			d.AccountsHandler.List(w, r, userID)
		})
		r.Post("/accounts", func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserID(r)
			if !ok {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "missing user"})
				return
			}
			d.AccountsHandler.Create(w, r, userID)
		})

		r.Route("/accounts/{accountID}", func(r chi.Router) {
			account := func(r *http.Request) string { return chi.URLParam(r, "accountID") }

			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				d.AccountsHandler.Get(w, r, account(r))
			})

			r.Get("/trades", func(w http.ResponseWriter, r *http.Request) {
				d.TradingHandler.ListTrades(w, r, account(r))
			})
			r.Get("/trades/open", func(w http.ResponseWriter, r *http.Request) {
				d.TradingHandler.ListOpenTrades(w, r, account(r))
			})
			r.Post("/trades", func(w http.ResponseWriter, r *http.Request) {
				d.TradingHandler.OpenTrade(w, r, account(r))
			})

			r.Get("/risk-analysis", func(w http.ResponseWriter, r *http.Request) {
				d.RiskHandler.Analysis(w, r, account(r))
			})
			r.Get("/risk-settings", func(w http.ResponseWriter, r *http.Request) {
				d.RiskHandler.GetSettings(w, r, account(r))
			})
			r.Put("/risk-settings", func(w http.ResponseWriter, r *http.Request) {
				d.RiskHandler.UpdateSettings(w, r, account(r))
			})

			r.Get("/trading-engine/status", func(w http.ResponseWriter, r *http.Request) {
				d.TradingHandler.EngineStatus(w, r, account(r))
			})
			r.Post("/emergency-stop", func(w http.ResponseWriter, r *http.Request) {
				d.TradingHandler.EmergencyStop(w, r, account(r))
			})
			r.Post("/pause-trading", func(w http.ResponseWriter, r *http.Request) {
				d.TradingHandler.PauseTrading(w, r, account(r))
			})
			r.Post("/resume-trading", func(w http.ResponseWriter, r *http.Request) {
				d.TradingHandler.ResumeTrading(w, r, account(r))
			})
			r.Post("/reset-emergency-stop", func(w http.ResponseWriter, r *http.Request) {
				d.TradingHandler.ResetEmergencyStop(w, r, account(r))
			})
		})

		r.Post("/trades/{tradeID}/close", func(w http.ResponseWriter, r *http.Request) {
			d.TradingHandler.CloseTrade(w, r, chi.URLParam(r, "tradeID"))
		})

		r.Get("/market-data", d.MarketHandler.Quotes)
		r.Get("/market-data/{symbol}", func(w http.ResponseWriter, r *http.Request) {
			d.MarketHandler.Quote(w, r, chi.URLParam(r, "symbol"))
		})
	})

	return r
}
