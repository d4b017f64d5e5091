// Package fswtime provides the process-wide monotonic nanosecond clock that
// the Control Node's elapsed-time-in-state counter and the Data Vector
// Logger's timestamps are read from, via Clock.NowNs. The thread manager's
// periods (a timerfd) and the network manager's timeouts (package time)
// do not use it.
//
// Built around a process-wide init instant captured once: rather than a
// free-running process-wide singleton, Init returns an explicit *Clock
// handle that the node assembly frame owns and distributes to every
// consumer, the same way the Thread Manager and FPGA session handles are
// passed down instead of reached for as globals.
package fswtime

import (
	"math"
	"time"

	"github.com/nsp-rocket/fsw/ferr"
)

// Clock is a monotonic nanosecond source referenced to the instant it was
// created.
type Clock struct {
	initInstant time.Time
}

// Init captures the current monotonic instant as the clock's zero point.
// Fails with OverflowImminent if that instant is within one year of the
// platform's 32-bit-seconds overflow, a deliberately conservative guard
// against running past a clock rollover mid-mission.
func Init() (*Clock, *ferr.Error) {
	now := time.Now()

	secs := now.Unix()
	const maxInt32Seconds = math.MaxInt32
	remaining := time.Duration(maxInt32Seconds-secs) * time.Second
	if remaining < 365*24*time.Hour {
		return nil, ferr.New("fswtime.Init", ferr.KindOverflowImminent,
			"monotonic clock is within one year of 32-bit-seconds overflow")
	}

	return &Clock{initInstant: now}, nil
}

// NowNs returns nanoseconds elapsed since Init was called.
func (c *Clock) NowNs() (uint64, *ferr.Error) {
	elapsed := time.Since(c.initInstant)
	if elapsed < 0 {
		return 0, ferr.New("fswtime.NowNs", ferr.KindFailedToGetTime,
			"monotonic clock read returned a time before init instant")
	}
	return uint64(elapsed.Nanoseconds()), nil
}

const (
	NsInUs = uint64(time.Microsecond / time.Nanosecond)
	NsInMs = uint64(time.Millisecond / time.Nanosecond)
	NsInS  = uint64(time.Second / time.Nanosecond)
)
