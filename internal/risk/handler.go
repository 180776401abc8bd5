package risk

import (
	"errors"
	"net/http"

	"lv-riskdash/internal/httputil"
	"lv-riskdash/internal/model"
	"lv-riskdash/internal/store"

	"github.com/shopspring/decimal"
)

type Handler struct {
	analyzer *Analyzer
	st       store.Store
}

func NewHandler(analyzer *Analyzer, st store.Store) *Handler {
	return &Handler{analyzer: analyzer, st: st}
}

func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request, accountID string) {
	report, err := h.analyzer.Analyze(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "account or risk settings not found"})
			return
		}
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: "failed to analyze risk"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request, accountID string) {
	settings, err := h.st.GetRiskSettings(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "risk settings not found"})
			return
		}
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: "failed to fetch risk settings"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, settings)
}

// updateSettingsRequest carries only the tunable limits. The emergency-stop
// and pause flags are owned by the trading controller and cannot be set here.
type updateSettingsRequest struct {
	MaxDailyLoss     *string `json:"max_daily_loss"`
	MaxWeeklyLoss    *string `json:"max_weekly_loss"`
	MaxMonthlyLoss   *string `json:"max_monthly_loss"`
	RiskPerTrade     *string `json:"risk_per_trade"`
	MaxPositionsOpen *int    `json:"max_positions_open"`
	ConservativeMode *bool   `json:"conservative_mode"`
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request, accountID string) {
	var req updateSettingsRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	var patch model.RiskSettingsPatch
	parsePct := func(raw *string, dst **decimal.Decimal, field string) bool {
		if raw == nil {
			return true
		}
		v, err := decimal.NewFromString(*raw)
		if err != nil || v.LessThanOrEqual(decimal.Zero) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid " + field})
			return false
		}
		*dst = &v
		return true
	}
	if !parsePct(req.MaxDailyLoss, &patch.MaxDailyLossPct, "max_daily_loss") {
		return
	}
	if !parsePct(req.MaxWeeklyLoss, &patch.MaxWeeklyLossPct, "max_weekly_loss") {
		return
	}
	if !parsePct(req.MaxMonthlyLoss, &patch.MaxMonthlyLossPct, "max_monthly_loss") {
		return
	}
	if !parsePct(req.RiskPerTrade, &patch.RiskPerTradePct, "risk_per_trade") {
		return
	}
	if req.MaxPositionsOpen != nil {
		if *req.MaxPositionsOpen <= 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid max_positions_open"})
			return
		}
		patch.MaxPositionsOpen = req.MaxPositionsOpen
	}
	patch.ConservativeMode = req.ConservativeMode

	settings, err := h.st.UpdateRiskSettings(r.Context(), accountID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "risk settings not found"})
			return
		}
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: "failed to update risk settings"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, settings)
}
