package service

import "time"

// Clock supplies "now" to time-dependent checks. Services fall back to
// UTCClock when given a nil Clock; tests inject a fixed one.
type Clock func() time.Time

func UTCClock() Clock {
	return func() time.Time { return time.Now().UTC() }
}

// FixedClock returns a Clock pinned to t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
