package shared

import "time"

// Clock is an abstraction for time operations, allowing time to be mocked in tests
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// RealClock implements Clock using the actual system time
type RealClock struct{}

// Now returns the current system time in UTC
func (r *RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Sleep blocks for the given duration
func (r *RealClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// SimulationClock tracks game time. It only moves when the tick loop advances it,
// so timestamps recorded against it are reproducible across runs.
type SimulationClock struct {
	current time.Time
}

// NewSimulationClock creates a SimulationClock at the given epoch.
// A zero epoch starts at the Unix epoch.
func NewSimulationClock(epoch time.Time) *SimulationClock {
	if epoch.IsZero() {
		epoch = time.Unix(0, 0).UTC()
	}
	return &SimulationClock{current: epoch}
}

// Now returns the current game time
func (c *SimulationClock) Now() time.Time {
	return c.current
}

// Sleep advances game time without blocking
func (c *SimulationClock) Sleep(d time.Duration) {
	c.current = c.current.Add(d)
}

// AdvanceSeconds moves game time forward by a fractional timestep
func (c *SimulationClock) AdvanceSeconds(dt float64) {
	c.current = c.current.Add(time.Duration(dt * float64(time.Second)))
}

// NewRealClock creates a RealClock instance
func NewRealClock() Clock {
	return &RealClock{}
}
