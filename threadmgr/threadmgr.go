// Package threadmgr owns every real-time OS thread this process creates:
// its SCHED_FIFO priority, its CPU affinity, and (for periodic threads)
// the timerfd that drives it and the deadline-miss detection built on top
// of it.
//
// Built on runtime.LockOSThread plus golang.org/x/sys/unix.SchedSetaffinity
// for affinity pinning, generalized to "one OS thread per periodic or
// one-shot application task."
package threadmgr

import (
	"runtime"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/nsp-rocket/fsw/ferr"
	"github.com/nsp-rocket/fsw/internal/constants"
)

// Priority is an application thread's SCHED_FIFO priority, constrained to
// [MinNewThreadPriority, MaxNewThreadPriority].
type Priority uint8

// Affinity selects which CPU core a thread is pinned to.
type Affinity int

const (
	Core0 Affinity = iota
	Core1
	AnyCore
)

// ThreadFunc is the body of a one-shot or periodic thread. For a periodic
// thread it is invoked once per period; returning a non-nil error stops
// the thread after ErrorHandler (if set) is called.
type ThreadFunc func() error

// ErrorHandler is invoked, on the thread's own OS thread, when ThreadFunc
// returns an error or a deadline is missed.
type ErrorHandler func(*ferr.Error)

// thread tracks one live managed goroutine.
type thread struct {
	name string
	done chan struct{}
	err  *ferr.Error
}

// ThreadManager creates and tracks every real-time thread in the process.
// Callers obtain one explicit instance from Create during node assembly;
// there is no package-level singleton (see the design notes' guidance
// against ambient globals for handles like this one).
type ThreadManager struct {
	mu      sync.Mutex
	threads map[string]*thread
}

// Create returns a new, empty ThreadManager. InitKernelEnvironment should
// be called once per process before any application thread is created.
func Create() *ThreadManager {
	return &ThreadManager{threads: make(map[string]*thread)}
}

func validatePriority(p Priority) *ferr.Error {
	if uint8(p) < constants.MinNewThreadPriority || uint8(p) > constants.MaxNewThreadPriority {
		return ferr.New("ThreadManager", ferr.KindInvalidPriority,
			"priority outside [MinNewThreadPriority, MaxNewThreadPriority]")
	}
	return nil
}

func applySchedAndAffinity(op string, priority Priority, affinity Affinity) *ferr.Error {
	runtime.LockOSThread()

	param := &unix.SchedParam{Priority: int32(priority)}
	if err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, param); err != nil {
		return ferr.Wrap(op, ferr.KindFailedToSetSchedPolicy, err)
	}

	switch affinity {
	case Core0, Core1:
		var mask unix.CPUSet
		mask.Zero()
		if affinity == Core0 {
			mask.Set(0)
		} else {
			mask.Set(1)
		}
		if err := unix.SchedSetaffinity(0, &mask); err != nil {
			return ferr.Wrap(op, ferr.KindFailedToSetAffinity, err)
		}
	case AnyCore:
		// no mask set: inherit the process-wide affinity
	default:
		return ferr.New(op, ferr.KindInvalidAffinity, "unrecognized affinity value")
	}

	return nil
}

// CreateThread spawns name as a one-shot SCHED_FIFO thread at priority,
// pinned per affinity, running fn to completion. Errors returned by fn
// reach handler (if non-nil) but do not block CreateThread's caller;
// WaitForThread observes completion.
func (tm *ThreadManager) CreateThread(
	name string, priority Priority, affinity Affinity, fn ThreadFunc, handler ErrorHandler,
) *ferr.Error {
	const op = "ThreadManager.CreateThread"

	if err := validatePriority(priority); err != nil {
		return err
	}

	tm.mu.Lock()
	if _, exists := tm.threads[name]; exists {
		tm.mu.Unlock()
		return ferr.New(op, ferr.KindFailedToCreateThread, "thread name already in use")
	}
	th := &thread{name: name, done: make(chan struct{})}
	tm.threads[name] = th
	tm.mu.Unlock()

	go func() {
		defer close(th.done)
		defer runtime.UnlockOSThread()

		if err := applySchedAndAffinity(op, priority, affinity); err != nil {
			th.err = err
			if handler != nil {
				handler(err)
			}
			return
		}

		if err := fn(); err != nil {
			fe := ferr.Wrap(op, ferr.KindFailedToCreateThread, err)
			th.err = fe
			if handler != nil {
				handler(fe)
			}
		}
	}()

	return nil
}

// CreatePeriodicThread spawns name as a SCHED_FIFO thread that calls fn
// once per periodNs, driven by a CLOCK_MONOTONIC timerfd. If a single
// timerfd read reports more than one expiration since the previous read,
// the period was missed at least once; handler is called with
// MissedSchedulerDeadline and fn is still invoked for the current tick.
func (tm *ThreadManager) CreatePeriodicThread(
	name string, priority Priority, affinity Affinity, periodNs uint64, fn ThreadFunc, handler ErrorHandler,
) *ferr.Error {
	const op = "ThreadManager.CreatePeriodicThread"

	if err := validatePriority(priority); err != nil {
		return err
	}
	if periodNs == 0 {
		return ferr.New(op, ferr.KindInvalidArgsLength, "period must be nonzero")
	}

	tfd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, 0)
	if err != nil {
		return ferr.Wrap(op, ferr.KindFailedToCreateTimerfd, err)
	}

	spec := unix.NsecToTimespec(int64(periodNs))
	it := &unix.ItimerSpec{Interval: spec, Value: spec}
	if err := unix.TimerfdSettime(tfd, 0, it, nil); err != nil {
		_ = unix.Close(tfd)
		return ferr.Wrap(op, ferr.KindFailedToArmTimerfd, err)
	}

	tm.mu.Lock()
	if _, exists := tm.threads[name]; exists {
		tm.mu.Unlock()
		_ = unix.Close(tfd)
		return ferr.New(op, ferr.KindFailedToCreateThread, "thread name already in use")
	}
	th := &thread{name: name, done: make(chan struct{})}
	tm.threads[name] = th
	tm.mu.Unlock()

	go func() {
		defer close(th.done)
		defer unix.Close(tfd)
		defer runtime.UnlockOSThread()

		if err := applySchedAndAffinity(op, priority, affinity); err != nil {
			th.err = err
			if handler != nil {
				handler(err)
			}
			return
		}

		buf := make([]byte, 8)
		for {
			n, readErr := unix.Read(tfd, buf)
			if readErr != nil || n != 8 {
				th.err = ferr.Wrap(op, ferr.KindFailedToReadTimerfd, readErr)
				if handler != nil {
					handler(th.err)
				}
				return
			}

			expirations := uint64(buf[0]) | uint64(buf[1])<<8 | uint64(buf[2])<<16 | uint64(buf[3])<<24 |
				uint64(buf[4])<<32 | uint64(buf[5])<<40 | uint64(buf[6])<<48 | uint64(buf[7])<<56
			if expirations > 1 && handler != nil {
				handler(ferr.New(op, ferr.KindMissedSchedulerDeadline,
					"periodic thread missed one or more deadlines"))
			}

			if err := fn(); err != nil {
				fe := ferr.Wrap(op, ferr.KindFailedToCreateThread, err)
				th.err = fe
				if handler != nil {
					handler(fe)
				}
				return
			}
		}
	}()

	return nil
}

// WaitForThread blocks until name's thread exits, returning any error it
// recorded. Fails with ThreadNotFound if name was never created.
func (tm *ThreadManager) WaitForThread(name string) *ferr.Error {
	tm.mu.Lock()
	th, ok := tm.threads[name]
	tm.mu.Unlock()
	if !ok {
		return ferr.New("ThreadManager.WaitForThread", ferr.KindThreadNotFound, "no thread with that name")
	}
	<-th.done
	return th.err
}
