package datavector

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"

	"github.com/nsp-rocket/fsw/ferr"
)

// errCheckMutex approximates a PTHREAD_MUTEX_ERRORCHECK lock: a
// non-reentrant mutex that reports a caller trying to re-lock from the same
// goroutine instead of deadlocking it. Go's sync.Mutex has no native notion
// of "owner", so the owner is tracked explicitly by goroutine id, read off
// the runtime stack trace the same way several goroutine-local-storage
// shims in the ecosystem do (there is no supported runtime API for this;
// it is read-only parsing of runtime.Stack's header line).
//
// This is the one place in this module that steps outside straight stdlib
// concurrency primitives, and it exists to keep a specific, deliberately
// chosen piece of source behavior (error-checking double-lock detection)
// rather than silently downgrading it to "would deadlock instead."
type errCheckMutex struct {
	mu     sync.Mutex
	owner  int64 // 0 means unlocked
	ownMu  sync.Mutex
}

func currentGoroutineID() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]
	// Stack's first line looks like "goroutine 123 [running]:".
	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return -1
	}
	buf = buf[len(prefix):]
	end := bytes.IndexByte(buf, ' ')
	if end < 0 {
		return -1
	}
	id, err := strconv.ParseInt(string(buf[:end]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}

// lock acquires the mutex, blocking, and fails with FailedToLock rather than
// deadlocking if the calling goroutine already holds it.
func (l *errCheckMutex) lock(op string) *ferr.Error {
	gid := currentGoroutineID()

	l.ownMu.Lock()
	if gid != -1 && l.owner == gid {
		l.ownMu.Unlock()
		return ferr.New(op, ferr.KindFailedToLock, "lock already held by calling goroutine")
	}
	l.ownMu.Unlock()

	l.mu.Lock()

	l.ownMu.Lock()
	l.owner = gid
	l.ownMu.Unlock()
	return nil
}

// unlock releases the mutex, failing with FailedToUnlock if the calling
// goroutine does not currently hold it.
func (l *errCheckMutex) unlock(op string) *ferr.Error {
	gid := currentGoroutineID()

	l.ownMu.Lock()
	if l.owner == 0 || (gid != -1 && l.owner != gid) {
		l.ownMu.Unlock()
		return ferr.New(op, ferr.KindFailedToUnlock, "unlock called without holding lock")
	}
	l.owner = 0
	l.ownMu.Unlock()

	l.mu.Unlock()
	return nil
}
