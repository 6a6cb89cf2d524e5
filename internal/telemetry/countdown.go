package telemetry

import "github.com/Davemasibo/mikrotikDashboard/internal/format"

// ExpiredDisplay is the terminal display state of a countdown.
const ExpiredDisplay = "Expired"

// Countdown maintains a locally decrementing remaining-time value
// seeded from the last authoritative poll. Remaining never goes
// negative; at zero the countdown is expired and further ticks are
// no-ops. Not safe for concurrent use; the owner must serialize access.
type Countdown struct {
	remaining int64
	seeded    bool
}

// Seed replaces the remaining value with an authoritative one,
// discarding any prior local countdown. Negative seeds clamp to zero.
func (c *Countdown) Seed(seconds int64) {
	if seconds < 0 {
		seconds = 0
	}
	c.remaining = seconds
	c.seeded = true
}

// Tick decrements remaining by one second, floored at zero.
func (c *Countdown) Tick() {
	if c.remaining > 0 {
		c.remaining--
	}
}

// Remaining returns the current remaining seconds.
func (c *Countdown) Remaining() int64 {
	return c.remaining
}

// Expired reports whether a seeded countdown has reached zero.
func (c *Countdown) Expired() bool {
	return c.seeded && c.remaining == 0
}

// Display renders the countdown for the session dashboard.
func (c *Countdown) Display() string {
	if !c.seeded {
		return "0h 0m"
	}
	if c.remaining == 0 {
		return ExpiredDisplay
	}
	return format.Seconds(c.remaining).String()
}
