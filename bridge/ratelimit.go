package bridge

import (
	"fmt"
	"time"
)

// rateWindow bounds aggregate lock+release volume per UTC calendar day.
// The reset is lazy: it happens on the first reservation past the day
// boundary, never from a timer.
type rateWindow struct {
	ceiling     uint64
	volume      uint64
	windowStart time.Time // start of the UTC day of the last reset
}

func dayStart(now time.Time) time.Time {
	return now.UTC().Truncate(24 * time.Hour)
}

func (w *rateWindow) checkAndReserve(now time.Time, amount uint64) error {
	if day := dayStart(now); day.After(w.windowStart) {
		w.volume = 0
		w.windowStart = day
	}
	if amount > w.ceiling || w.volume > w.ceiling-amount {
		return fmt.Errorf("%w: %d accumulated + %d requested over ceiling %d",
			ErrRateLimitExceeded, w.volume, amount, w.ceiling)
	}
	w.volume += amount
	return nil
}

// unreserve rolls back a reservation whose operation failed after the check
func (w *rateWindow) unreserve(amount uint64) {
	if amount > w.volume {
		w.volume = 0
		return
	}
	w.volume -= amount
}

// headroom reports remaining capacity without mutating the window,
// accounting for a day boundary that has passed but not yet triggered
// the lazy reset
func (w *rateWindow) headroom(now time.Time) uint64 {
	if dayStart(now).After(w.windowStart) {
		return w.ceiling
	}
	if w.volume >= w.ceiling {
		return 0
	}
	return w.ceiling - w.volume
}
