package timer

import (
	"context"
	"time"
)

type NewTickerFunc func(d time.Duration) (<-chan time.Time, func())

func NewRealTicker(d time.Duration) (<-chan time.Time, func()) {
	ticker := time.NewTicker(d)
	return ticker.C, ticker.Stop
}

// Loop calls Fn on every tick until ctx is done.
type Loop struct {
	Interval  time.Duration
	NewTicker NewTickerFunc
	Fn        func(now time.Time)
}

func (l *Loop) Run(ctx context.Context) {
	newTicker := l.NewTicker
	if newTicker == nil {
		newTicker = NewRealTicker
	}
	ticks, stop := newTicker(l.Interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now, ok := <-ticks:
			if !ok {
				return
			}
			l.Fn(now)
		}
	}
}
