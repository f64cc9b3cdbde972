// Package timecontrol parses "base+increment" time control strings and
// tracks a per-color running clock for a single game.
package timecontrol

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeControl is a base time budget plus a per-move increment, both applied
// to one color's clock.
type TimeControl struct {
	Base      time.Duration
	Increment time.Duration
}

// Parse reads a "base+increment" string where both parts are seconds, e.g.
// "30+1" means a 30s base budget with a 1s increment added after each reply.
// A bare "30" is treated as "30+0".
func Parse(s string) (TimeControl, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeControl{}, fmt.Errorf("timecontrol: empty spec")
	}

	base, inc, ok := strings.Cut(s, "+")
	baseSec, err := strconv.ParseFloat(strings.TrimSpace(base), 64)
	if err != nil {
		return TimeControl{}, fmt.Errorf("timecontrol: invalid base %q: %w", base, err)
	}
	if baseSec <= 0 {
		return TimeControl{}, fmt.Errorf("timecontrol: base must be positive, got %v", baseSec)
	}

	var incSec float64
	if ok {
		incSec, err = strconv.ParseFloat(strings.TrimSpace(inc), 64)
		if err != nil {
			return TimeControl{}, fmt.Errorf("timecontrol: invalid increment %q: %w", inc, err)
		}
		if incSec < 0 {
			return TimeControl{}, fmt.Errorf("timecontrol: increment must not be negative, got %v", incSec)
		}
	}

	return TimeControl{
		Base:      time.Duration(baseSec * float64(time.Second)),
		Increment: time.Duration(incSec * float64(time.Second)),
	}, nil
}

// Clock tracks one color's remaining time across a game.
type Clock struct {
	remaining time.Duration
	increment time.Duration
}

// NewClock creates a clock starting at tc.Base with tc.Increment applied
// after each successful move.
func NewClock(tc TimeControl) *Clock {
	return &Clock{remaining: tc.Base, increment: tc.Increment}
}

// Deadline returns how long the owning color has to reply right now. It is
// capped at hardCap so a very large base budget never exceeds the protocol
// hard ceiling (spec default 30s) when the caller wants per-move bounding
// rather than whole-game bounding; pass 0 for no cap.
func (c *Clock) Deadline(hardCap time.Duration) time.Duration {
	d := c.remaining
	if hardCap > 0 && d > hardCap {
		d = hardCap
	}
	return d
}

// Remaining returns the time left on the clock.
func (c *Clock) Remaining() time.Duration {
	return c.remaining
}

// Consume deducts elapsed thinking time and then applies the increment, as
// UGI/UCI clocks do after every reply. It returns false if the clock has run
// out (elapsed >= remaining before the increment is applied), signalling a
// flag-fall loss for the owning color.
func (c *Clock) Consume(elapsed time.Duration) bool {
	if elapsed >= c.remaining {
		c.remaining = 0
		return false
	}
	c.remaining -= elapsed
	c.remaining += c.increment
	return true
}
