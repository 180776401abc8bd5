package marketdata

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"lv-riskdash/internal/types"

	"github.com/shopspring/decimal"
)

var ErrUnknownSymbol = errors.New("unknown symbol")

// PipValuePerLot is the dollar value of one pip for one standard lot on the
// majors. The sizer uses it as its default pip value.
var PipValuePerLot = decimal.NewFromInt(10)

type symbolSpec struct {
	base       float64
	pipSize    float64
	jitter     float64
	spreadPips float64
}

// Majors only, same set the dashboard trades.
var symbolSpecs = map[string]symbolSpec{
	"EURUSD": {base: 1.0850, pipSize: 0.0001, jitter: 0.001, spreadPips: 2},
	"GBPUSD": {base: 1.2650, pipSize: 0.0001, jitter: 0.001, spreadPips: 2},
	"USDJPY": {base: 149.80, pipSize: 0.01, jitter: 0.1, spreadPips: 2},
	"AUDUSD": {base: 0.6580, pipSize: 0.0001, jitter: 0.001, spreadPips: 2},
	"USDCAD": {base: 1.3720, pipSize: 0.0001, jitter: 0.001, spreadPips: 2},
}

// PipSize returns the quoted pip increment for a symbol, defaulting to the
// four-decimal majors convention for anything unknown.
func PipSize(symbol string) decimal.Decimal {
	if spec, ok := symbolSpecs[symbol]; ok {
		return decimal.NewFromFloat(spec.pipSize)
	}
	return decimal.NewFromFloat(0.0001)
}

// IsKnownSymbol reports whether the simulated feed quotes the symbol.
func IsKnownSymbol(symbol string) bool {
	_, ok := symbolSpecs[symbol]
	return ok
}

type Quote struct {
	Symbol    string          `json:"symbol"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Spread    decimal.Decimal `json:"spread"`
	Timestamp time.Time       `json:"timestamp"`
}

// Feed is the simulated market-data source. Prices wander around fixed base
// levels the way the demo's broker stub did; nothing here talks to a real
// broker.
type Feed struct {
	mu     sync.RWMutex
	rng    *rand.Rand
	quotes map[string]Quote
}

func NewFeed() *Feed {
	f := &Feed{
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		quotes: make(map[string]Quote, len(symbolSpecs)),
	}
	f.Tick()
	return f
}

// Tick regenerates every symbol's quote and returns the new snapshot sorted
// by symbol.
func (f *Feed) Tick() []Quote {
	now := time.Now().UTC()
	f.mu.Lock()
	out := make([]Quote, 0, len(symbolSpecs))
	for symbol, spec := range symbolSpecs {
		mid := spec.base + (f.rng.Float64()-0.5)*spec.jitter
		halfSpread := spec.pipSize * spec.spreadPips / 2
		q := Quote{
			Symbol:    symbol,
			Bid:       decimal.NewFromFloat(mid - halfSpread).Round(5),
			Ask:       decimal.NewFromFloat(mid + halfSpread).Round(5),
			Timestamp: now,
		}
		q.Spread = q.Ask.Sub(q.Bid)
		f.quotes[symbol] = q
		out = append(out, q)
	}
	f.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Snapshot returns the current quote for every symbol, sorted by symbol.
func (f *Feed) Snapshot() []Quote {
	f.mu.RLock()
	out := make([]Quote, 0, len(f.quotes))
	for _, q := range f.quotes {
		out = append(out, q)
	}
	f.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (f *Feed) Quote(symbol string) (Quote, error) {
	f.mu.RLock()
	q, ok := f.quotes[symbol]
	f.mu.RUnlock()
	if !ok {
		return Quote{}, ErrUnknownSymbol
	}
	return q, nil
}

// MarkPrice is the price an open position is valued at: a long exits on the
// bid, a short on the ask.
func (q Quote) MarkPrice(direction types.TradeDirection) decimal.Decimal {
	if direction == types.TradeDirectionShort {
		return q.Ask
	}
	return q.Bid
}

// FloatingPnL values an open position against a mark price in account
// currency: pips moved x lots x pip value.
func FloatingPnL(symbol string, direction types.TradeDirection, entry, mark, lots decimal.Decimal) decimal.Decimal {
	diff := mark.Sub(entry)
	if direction == types.TradeDirectionShort {
		diff = entry.Sub(mark)
	}
	pips := diff.Div(PipSize(symbol))
	return pips.Mul(lots).Mul(PipValuePerLot).Round(2)
}
