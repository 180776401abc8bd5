package trading

import "errors"

// Business-rule rejections. All are deterministic for the same inputs and are
// surfaced to the caller as-is, never retried or silently defaulted.
var (
	// ErrInvalidTransition rejects an illegal state-machine move, e.g.
	// resuming while emergency-stopped.
	ErrInvalidTransition = errors.New("invalid trading state transition")
	// ErrEngineInactive rejects a trade open while paused or stopped.
	ErrEngineInactive = errors.New("trading engine is not active")
	// ErrLimitReached rejects a trade open at the open-position cap.
	ErrLimitReached = errors.New("maximum open positions reached")
	// ErrDailyLimitReached rejects a trade open once today's absolute P&L has
	// consumed the daily loss budget.
	ErrDailyLimitReached = errors.New("daily loss limit reached")
)
