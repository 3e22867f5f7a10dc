package attacker

import "time"

// Clock abstracts wall-clock reads and sleeps so the rotation cooldown,
// speed-cap waits, and post-placement settle time are all injectable in
// tests (spec.md §5: "Implementations must expose these as injectable
// clocks for testing").
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the production Clock, backed by the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
