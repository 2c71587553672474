package world

import "time"

// Default clock settings: Monday 2024-01-01 08:00, ten minutes per tick.
var (
	DefaultStartTime    = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)
	DefaultTickDuration = 10 * time.Minute
)

// Clock is the shared tick counter. Only the scheduler advances it.
type Clock struct {
	tick  uint64
	start time.Time
	step  time.Duration
}

func NewClock(start time.Time, step time.Duration) *Clock {
	if start.IsZero() {
		start = DefaultStartTime
	}
	if step <= 0 {
		step = DefaultTickDuration
	}
	return &Clock{start: start, step: step}
}

func (c *Clock) Tick() uint64 { return c.tick }

// Advance moves the clock forward one tick and returns the new tick.
func (c *Clock) Advance() uint64 {
	c.tick++
	return c.tick
}

// Now is the simulated wall time of the current tick.
func (c *Clock) Now() time.Time {
	return c.start.Add(time.Duration(c.tick) * c.step)
}

func (c *Clock) String() string {
	return c.Now().Format("Monday, 03:04 PM")
}
