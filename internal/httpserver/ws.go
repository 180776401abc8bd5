package httpserver

import (
	"net/http"
	"strings"
	"time"

	"lv-riskdash/internal/marketdata"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WSHandler streams market updates and trade lifecycle events to dashboard
// clients. One bus subscription per connection; slow clients lose events
// rather than stalling the publisher.
type WSHandler struct {
	bus      *marketdata.Bus
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(bus *marketdata.Bus, origin string, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		bus:    bus,
		logger: logger.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return allowOrigin(r, origin) },
		},
	}
}

func allowOrigin(r *http.Request, origin string) bool {
	if origin == "*" {
		return true
	}
	reqOrigin := r.Header.Get("Origin")
	// Allow both localhost and 127.0.0.1 variants for development
	if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
		if strings.Contains(reqOrigin, "localhost") || strings.Contains(reqOrigin, "127.0.0.1") {
			return true
		}
	}
	return strings.EqualFold(reqOrigin, origin)
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	h.logger.Debug().Str("remote", r.RemoteAddr).Msg("client connected")
	if err := conn.WriteJSON(marketdata.Event{
		Type: "connected",
		Data: map[string]any{"timestamp": time.Now().UTC().Format(time.RFC3339)},
	}); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case evt := <-sub:
			if err := conn.WriteJSON(evt); err != nil {
				h.logger.Debug().Str("remote", r.RemoteAddr).Msg("client disconnected")
				return
			}
		case <-done:
			h.logger.Debug().Str("remote", r.RemoteAddr).Msg("client disconnected")
			return
		}
	}
}
