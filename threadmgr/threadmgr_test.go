package threadmgr

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/nsp-rocket/fsw/ferr"
	"github.com/stretchr/testify/require"
)

func TestCreateThreadRejectsPriorityOutOfRange(t *testing.T) {
	tm := Create()
	err := tm.CreateThread("too-high", Priority(200), AnyCore, func() error { return nil }, nil)
	require.NotNil(t, err)
	require.Equal(t, ferr.KindInvalidPriority, err.Code)
}

func TestCreateThreadRejectsDuplicateName(t *testing.T) {
	tm := Create()
	require.Nil(t, tm.CreateThread("dup", Priority(2), AnyCore, func() error { return nil }, nil))
	require.Nil(t, tm.WaitForThread("dup"))

	err := tm.CreateThread("dup", Priority(2), AnyCore, func() error { return nil }, nil)
	require.NotNil(t, err)
	require.Equal(t, ferr.KindFailedToCreateThread, err.Code)
}

func TestWaitForThreadUnknownNameFails(t *testing.T) {
	tm := Create()
	err := tm.WaitForThread("nope")
	require.NotNil(t, err)
	require.Equal(t, ferr.KindThreadNotFound, err.Code)
}

func TestWaitForThreadReturnsBodyError(t *testing.T) {
	tm := Create()
	var handled int32
	err := tm.CreateThread("failing", Priority(2), AnyCore, func() error {
		return assertErr{}
	}, func(*ferr.Error) {
		atomic.StoreInt32(&handled, 1)
	})
	require.Nil(t, err)

	werr := tm.WaitForThread("failing")
	require.NotNil(t, werr)
	require.Equal(t, ferr.KindFailedToCreateThread, werr.Code)
	require.Equal(t, int32(1), atomic.LoadInt32(&handled))
}

func TestCreatePeriodicThreadRejectsZeroPeriod(t *testing.T) {
	tm := Create()
	err := tm.CreatePeriodicThread("zero-period", Priority(2), AnyCore, 0, func() error { return nil }, nil)
	require.NotNil(t, err)
	require.Equal(t, ferr.KindInvalidArgsLength, err.Code)
}

func TestCreatePeriodicThreadStopsOnBodyError(t *testing.T) {
	tm := Create()
	var ticks int32

	err := tm.CreatePeriodicThread("periodic", Priority(2), AnyCore, uint64(time.Millisecond), func() error {
		if atomic.AddInt32(&ticks, 1) >= 3 {
			return assertErr{}
		}
		return nil
	}, nil)
	require.Nil(t, err)

	werr := tm.WaitForThread("periodic")
	require.NotNil(t, werr)
	require.GreaterOrEqual(t, atomic.LoadInt32(&ticks), int32(3))
}

type assertErr struct{}

func (assertErr) Error() string { return "intentional test failure" }
