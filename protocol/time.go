package protocol

import "time"

// Timebase anchors GetTime/GetTimeAndClamp evaluation to a monotonic
// seconds-since-creation clock. A Timebase is established once per
// endpoint and shared by every evaluation it performs, so time only ever
// moves forward within a session.
type Timebase struct {
	start time.Time
}

// NewTimebase returns a Timebase anchored to now.
func NewTimebase() *Timebase {
	return &Timebase{start: time.Now()}
}

// Elapsed returns seconds elapsed since the timebase was established, as the
// Double that GetTime evaluates to.
func (t *Timebase) Elapsed() Double {
	return Double(time.Since(t.start).Seconds())
}

// WakeupAt computes the absolute time.Time corresponding to a
// seconds-since-timebase deadline, for scheduling the wake-up that a
// GetTimeAndClamp dependency registers.
func (t *Timebase) WakeupAt(seconds float64) time.Time {
	return t.start.Add(time.Duration(seconds * float64(time.Second)))
}
