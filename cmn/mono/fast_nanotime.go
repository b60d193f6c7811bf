// Package mono provides low-level monotonic time used for deadlines and
// housekeeper scheduling throughout the core.
package mono

import "time"

// start is the reference point every NanoTime() reading is measured from.
// time.Now() carries both a wall-clock and a monotonic reading; as long as
// every reading is taken via time.Since(start) rather than converted
// through UnixNano(), the monotonic reading is what gets subtracted, so a
// wall-clock adjustment (NTP step, user changing the system clock) never
// perturbs the result.
var start = time.Now()

// NanoTime returns a monotonic-clock reading in nanoseconds, relative to
// package start-up. Unlike time.Now().UnixNano(), which discards the
// monotonic reading, this never jumps on wall-clock adjustment, which
// matters for hk's timing of how long each task runs.
func NanoTime() int64 { return int64(time.Since(start)) }

// Since returns the elapsed duration since a NanoTime() reading.
func Since(ts int64) time.Duration { return time.Duration(NanoTime() - ts) }
