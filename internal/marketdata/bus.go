package marketdata

import (
	"sync"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// defaultSubscriberBuffer absorbs a burst of one emergency-stop liquidation
// (trade_closed per position plus the market tick) without dropping.
const defaultSubscriberBuffer = 64

// Bus fans events out to websocket subscribers. Slow subscribers drop events
// instead of blocking the publisher.
type Bus struct {
	mu     sync.RWMutex
	buffer int
	subs   map[chan Event]struct{}
}

// NewBus sizes every subscriber channel at buffer events; non-positive means
// the default.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Bus{buffer: buffer, subs: make(map[chan Event]struct{})}
}

func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.RUnlock()
}
