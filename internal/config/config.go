package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr        string
	DBDSN           string
	WebSocketOrigin string
	// RiskTimezone fixes the clock used for all risk-window boundaries
	// (daily midnight, Sunday week start, first-of-month). One clock for
	// everything; defaults to UTC.
	RiskTimezone  string
	SeedDemo      bool
	QuoteInterval time.Duration
}

func Load() (Config, error) {
	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	c.DBDSN = os.Getenv("DB_DSN")
	c.WebSocketOrigin = os.Getenv("WS_ORIGIN")
	if c.WebSocketOrigin == "" {
		c.WebSocketOrigin = "*"
	}
	c.RiskTimezone = strings.TrimSpace(os.Getenv("RISK_TIMEZONE"))
	if c.RiskTimezone == "" {
		c.RiskTimezone = "UTC"
	}
	if _, err := time.LoadLocation(c.RiskTimezone); err != nil {
		return c, errors.New("invalid RISK_TIMEZONE: " + c.RiskTimezone)
	}
	seed := os.Getenv("SEED_DEMO")
	if seed == "" {
		// The in-memory store starts empty, so seed it by default.
		c.SeedDemo = c.DBDSN == ""
	} else {
		b, err := strconv.ParseBool(seed)
		if err != nil {
			return c, err
		}
		c.SeedDemo = b
	}
	interval := os.Getenv("QUOTE_INTERVAL")
	if interval == "" {
		c.QuoteInterval = 2 * time.Second
	} else {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return c, err
		}
		c.QuoteInterval = d
	}
	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}
