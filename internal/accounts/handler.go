package accounts

import (
	"errors"
	"net/http"

	"lv-riskdash/internal/httputil"
	"lv-riskdash/internal/model"
	"lv-riskdash/internal/store"

	"github.com/shopspring/decimal"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, userID string) {
	accounts, err := h.svc.List(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: "failed to fetch accounts"})
		return
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	httputil.WriteJSON(w, http.StatusOK, accounts)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, accountID string) {
	account, err := h.svc.Get(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "account not found"})
			return
		}
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: "failed to fetch account"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		BrokerName    string `json:"broker_name"`
		AccountNumber string `json:"account_number"`
		Balance       string `json:"balance"`
		Currency      string `json:"currency"`
		Leverage      int    `json:"leverage"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	balance := decimal.Zero
	if req.Balance != "" {
		v, err := decimal.NewFromString(req.Balance)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid balance"})
			return
		}
		balance = v
	}
	account, err := h.svc.Create(r.Context(), CreateInput{
		UserID:        userID,
		BrokerName:    req.BrokerName,
		AccountNumber: req.AccountNumber,
		Balance:       balance,
		Currency:      req.Currency,
		Leverage:      req.Leverage,
	})
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, account)
}
