package trading

import (
	"errors"
	"net/http"

	"lv-riskdash/internal/httputil"
	"lv-riskdash/internal/marketdata"
	"lv-riskdash/internal/store"
	"lv-riskdash/internal/types"

	"github.com/shopspring/decimal"
)

type Handler struct {
	engine     *Engine
	controller *Controller
	st         store.Store
}

func NewHandler(engine *Engine, controller *Controller, st store.Store) *Handler {
	return &Handler{engine: engine, controller: controller, st: st}
}

func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request, accountID string) {
	trades, err := h.st.ListTrades(r.Context(), accountID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: "failed to fetch trades"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trades)
}

func (h *Handler) ListOpenTrades(w http.ResponseWriter, r *http.Request, accountID string) {
	trades, err := h.st.ListOpenTrades(r.Context(), accountID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: "failed to fetch open trades"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trades)
}

type openTradeRequest struct {
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	EntryPrice *string `json:"entry_price"`
	StopLoss   *string `json:"stop_loss"`
	TakeProfit *string `json:"take_profit"`
}

func (h *Handler) OpenTrade(w http.ResponseWriter, r *http.Request, accountID string) {
	var req openTradeRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}

	dir := types.TradeDirection(req.Direction)
	if dir != types.TradeDirectionLong && dir != types.TradeDirectionShort {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid direction"})
		return
	}

	sig := Signal{Symbol: req.Symbol, Direction: dir}
	parsePrice := func(raw *string, dst **decimal.Decimal, field string) bool {
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
	var entry *decimal.Decimal
	if !parsePrice(req.EntryPrice, &entry, "entry_price") {
		return
	}
	if entry != nil {
		sig.EntryPrice = *entry
	}
	if !parsePrice(req.StopLoss, &sig.StopLoss, "stop_loss") {
		return
	}
	if !parsePrice(req.TakeProfit, &sig.TakeProfit, "take_profit") {
		return
	}

	trade, err := h.engine.OpenTrade(r.Context(), accountID, sig)
	if err != nil {
		writeTradeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, trade)
}

type closeTradeRequest struct {
	ExitPrice *string `json:"exit_price"`
}

func (h *Handler) CloseTrade(w http.ResponseWriter, r *http.Request, tradeID string) {
	var req closeTradeRequest
	if r.ContentLength > 0 {
		if err := httputil.ReadJSON(r, &req); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
			return
		}
	}
	var exit *decimal.Decimal
	if req.ExitPrice != nil {
		v, err := decimal.NewFromString(*req.ExitPrice)
		if err != nil || v.LessThanOrEqual(decimal.Zero) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid exit_price"})
			return
		}
		exit = &v
	}

	trade, err := h.engine.CloseTrade(r.Context(), tradeID, exit)
	if err != nil {
		writeTradeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trade)
}

func (h *Handler) EngineStatus(w http.ResponseWriter, r *http.Request, accountID string) {
	status, err := h.controller.Status(r.Context(), accountID)
	if err != nil {
		writeControlError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) EmergencyStop(w http.ResponseWriter, r *http.Request, accountID string) {
	status, err := h.controller.EmergencyStop(r.Context(), accountID)
	if err != nil {
		writeControlError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) PauseTrading(w http.ResponseWriter, r *http.Request, accountID string) {
	status, err := h.controller.Pause(r.Context(), accountID)
	if err != nil {
		writeControlError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) ResumeTrading(w http.ResponseWriter, r *http.Request, accountID string) {
	status, err := h.controller.Resume(r.Context(), accountID)
	if err != nil {
		writeControlError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) ResetEmergencyStop(w http.ResponseWriter, r *http.Request, accountID string) {
	status, err := h.controller.ResetEmergencyStop(r.Context(), accountID)
	if err != nil {
		writeControlError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func writeTradeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "not found"})
	case errors.Is(err, ErrEngineInactive),
		errors.Is(err, ErrLimitReached),
		errors.Is(err, ErrDailyLimitReached),
		errors.Is(err, marketdata.ErrUnknownSymbol):
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
	default:
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: "trade operation failed"})
	}
}

func writeControlError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "not found"})
	case errors.Is(err, ErrInvalidTransition):
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
	default:
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: "trading control operation failed"})
	}
}
