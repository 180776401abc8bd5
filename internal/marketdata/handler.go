package marketdata

import (
	"net/http"
	"strings"

	"lv-riskdash/internal/httputil"
)

type Handler struct {
	feed *Feed
}

func NewHandler(feed *Feed) *Handler {
	return &Handler{feed: feed}
}

func (h *Handler) Quotes(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.feed.Snapshot())
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request, symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	q, err := h.feed.Quote(symbol)
	if err != nil {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "unknown symbol"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, q)
}
