package threadmgr

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/nsp-rocket/fsw/ferr"
	"github.com/nsp-rocket/fsw/internal/constants"
)

// kernelThread is one hardcoded kernel thread this module re-prioritizes
// during process-wide init so application threads at MaxNewThreadPriority
// can't starve IRQ servicing.
type kernelThread struct {
	pid        int
	commPrefix string
}

var kernelThreadsToRaise = []kernelThread{
	{pid: constants.KsoftirqdPID0, commPrefix: "ksoftirqd"},
	{pid: constants.KsoftirqdPID1, commPrefix: "ksoftirqd"},
	{pid: constants.KtimersoftdPID0, commPrefix: "ktimersoftd"},
	{pid: constants.KtimersoftdPID1, commPrefix: "ktimersoftd"},
}

func verifyProcess(pid int, commPrefix string) *ferr.Error {
	const op = "ThreadManager.verifyProcess"

	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return ferr.Wrap(op, ferr.KindFailedToReadFile, err)
	}

	name := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(name, commPrefix) {
		return ferr.New(op, ferr.KindFailedToVerifyProcess,
			fmt.Sprintf("pid %d is %q, expected prefix %q", pid, name, commPrefix))
	}
	return nil
}

func setKernelProcessPriority(pid int, priority uint8) *ferr.Error {
	const op = "ThreadManager.setKernelProcessPriority"

	param := &unix.SchedParam{Priority: int32(priority)}
	if err := unix.SchedSetscheduler(pid, unix.SCHED_FIFO, param); err != nil {
		return ferr.Wrap(op, ferr.KindFailedToSetSchedPolicy, err)
	}
	return nil
}

// InitKernelEnvironment verifies the hardcoded ksoftirqd/ktimersoftd PIDs
// actually name the processes this module expects, then raises them to
// SWIRQPriority. It must run once per process, before any application
// thread is created, and only on the flight target image where those PIDs
// are stable across boots.
func InitKernelEnvironment() *ferr.Error {
	const op = "ThreadManager.InitKernelEnvironment"

	for _, kt := range kernelThreadsToRaise {
		if err := verifyProcess(kt.pid, kt.commPrefix); err != nil {
			return ferr.Wrap(op, ferr.KindFailedToInitKernelEnv, err)
		}
		if err := setKernelProcessPriority(kt.pid, constants.SWIRQPriority); err != nil {
			return ferr.Wrap(op, ferr.KindFailedToInitKernelEnv, err)
		}
	}
	return nil
}
