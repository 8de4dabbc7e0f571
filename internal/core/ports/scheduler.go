package ports

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports false when the callback already
	// ran or was stopped before.
	Stop() bool
}

// Scheduler runs deferred callbacks. Implementations decide which goroutine
// the callback runs on; the production loop runs all of them serially.
type Scheduler interface {
	Clock
	AfterFunc(d time.Duration, f func()) Timer
	// Offload runs work off the callback goroutine and then runs then where
	// AfterFunc callbacks run. Blocking I/O belongs in work so one slow call
	// does not hold up every other callback.
	Offload(work, then func())
}
