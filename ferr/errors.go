// Package ferr is the flight-software error handling framework.
//
// Every fallible operation in this module returns a *ferr.Error rather than
// a bare error. This gives every component a closed, comparable kind for the
// failure, an operation tag for logging, and an optional wrapped errno or
// inner error without losing the original cause.
package ferr

import (
	"errors"
	"fmt"
	"syscall"
)

// Kind is the closed enumeration of failure categories every component in
// this module reports through. New Kinds are added here and nowhere else.
type Kind string

const (
	// General
	KindNonfiniteValue   Kind = "nonfinite value"
	KindOutOfBounds      Kind = "out of bounds"
	KindOverflow         Kind = "overflow"
	KindInvalidEnum      Kind = "invalid enum"
	KindDataVectorNull   Kind = "data vector null"
	KindDataVectorRead   Kind = "data vector read failed"
	KindDataVectorWrite  Kind = "data vector write failed"
	KindInvalidElem      Kind = "invalid element"
	KindFailedToOpenFile Kind = "failed to open file"

	// Data Vector
	KindEmptyConfig            Kind = "empty config"
	KindEmptyElems             Kind = "empty elems"
	KindDuplicateRegion        Kind = "duplicate region"
	KindDuplicateElem          Kind = "duplicate elem"
	KindInvalidRegion          Kind = "invalid region"
	KindInvalidType            Kind = "invalid type"
	KindIncorrectType          Kind = "incorrect type"
	KindIncorrectSize          Kind = "incorrect size"
	KindRegionTooLarge         Kind = "region too large"
	KindAlreadyMax             Kind = "already max"
	KindFailedToInitLock       Kind = "failed to init lock"
	KindFailedToLock           Kind = "failed to lock"
	KindFailedToUnlock         Kind = "failed to unlock"
	KindFailedToReadAndUnlock  Kind = "failed to read and unlock"
	KindFailedToWriteAndUnlock Kind = "failed to write and unlock"
	KindEnumStringUndefined    Kind = "enum string undefined"

	// Data Vector Logger
	KindFailedToWriteFile Kind = "failed to write file"
	KindFailedToSeek      Kind = "failed to seek"

	// Network Manager
	KindEmptyNodeConfig          Kind = "empty node config"
	KindEmptyChannelConfig       Kind = "empty channel config"
	KindNonNumericIP             Kind = "non-numeric ip"
	KindInvalidIPRegion          Kind = "invalid ip region"
	KindInvalidIPSize            Kind = "invalid ip size"
	KindInvalidPort              Kind = "invalid port"
	KindInvalidNode              Kind = "invalid node"
	KindUndefinedNodeInChannel   Kind = "undefined node in channel"
	KindUndefinedMeNode          Kind = "undefined me node"
	KindDuplicateIP              Kind = "duplicate ip"
	KindDuplicateChannel         Kind = "duplicate channel"
	KindFailedToCreateSocket     Kind = "failed to create socket"
	KindFailedToSetSocketOptions Kind = "failed to set socket options"
	KindFailedToBindToSocket     Kind = "failed to bind to socket"
	KindFailedToGetSocketFlags   Kind = "failed to get socket flags"
	KindFailedToSetSocketFlags   Kind = "failed to set socket flags"
	KindEmptyBuffer              Kind = "empty buffer"
	KindFailedToSendMsg          Kind = "failed to send msg"
	KindFailedToRecvMsg          Kind = "failed to recv msg"
	KindUnexpectedSendSize       Kind = "unexpected send size"
	KindUnexpectedRecvSize       Kind = "unexpected recv size"
	KindGreaterThanMaxRecvBytes  Kind = "greater than max recv bytes"
	KindVectorsDiffSizes         Kind = "vectors differ in size"
	KindTimeoutTooLarge          Kind = "timeout too large"
	KindSelectFailed             Kind = "select failed"

	// State Machine
	KindInvalidTransition Kind = "invalid transition"
	KindNameNotFound      Kind = "name not found"
	KindDuplicateName     Kind = "duplicate name"
	KindNoStates          Kind = "no states"
	KindInvalidAction     Kind = "invalid action"

	// Command Handler
	KindInvalidCmd Kind = "invalid cmd"

	// Thread Manager
	KindInvalidPriority         Kind = "invalid priority"
	KindInvalidPointer          Kind = "invalid pointer"
	KindInvalidAffinity         Kind = "invalid affinity"
	KindInvalidArgsLength       Kind = "invalid args length"
	KindFailedToInitKernelEnv   Kind = "failed to init kernel scheduling env"
	KindFailedToVerifyProcess   Kind = "failed to verify process"
	KindFailedToReadFile        Kind = "failed to read file"
	KindFailedToCloseFile       Kind = "failed to close file"
	KindFailedToSetSchedPolicy  Kind = "failed to set sched policy"
	KindFailedToSetPriority     Kind = "failed to set priority"
	KindFailedToSetAffinity     Kind = "failed to set affinity"
	KindFailedToCreateThread    Kind = "failed to create thread"
	KindFailedToWaitOnThread    Kind = "failed to wait on thread"
	KindThreadNotFound          Kind = "thread not found"
	KindFailedToCreateTimerfd   Kind = "failed to create timerfd"
	KindFailedToArmTimerfd      Kind = "failed to arm timerfd"
	KindFailedToReadTimerfd     Kind = "failed to read timerfd"
	KindMissedSchedulerDeadline Kind = "missed scheduler deadline"

	// Devices
	KindFpgaInit         Kind = "fpga init failed"
	KindFpgaSessionInit  Kind = "fpga session init failed"
	KindFpgaRead         Kind = "fpga read failed"
	KindFpgaWrite        Kind = "fpga write failed"
	KindFpgaNoSession    Kind = "fpga has no session"
	KindPinNotConfigured Kind = "pin not configured"

	// Time
	KindFailedToGetTime  Kind = "failed to get time"
	KindFailedToInitTime Kind = "failed to init time"
	KindOverflowImminent Kind = "clock overflow imminent"

	// Assembly / config
	KindInvalidConfig Kind = "invalid config"
)

// Error is the structured error every fallible operation in this module
// returns. Op identifies the failing operation for logging; Code is the
// closed failure kind; Errno and Inner carry the underlying cause when one
// exists.
type Error struct {
	Op    string
	Code  Kind
	Errno syscall.Errno
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op == "" {
		return fmt.Sprintf("fsw: %s", msg)
	}
	if e.Errno != 0 {
		return fmt.Sprintf("fsw: %s: %s (errno=%d)", e.Op, msg, e.Errno)
	}
	return fmt.Sprintf("fsw: %s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is(err, &Error{Code: ...}) comparisons by Kind alone.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok || te == nil {
		return false
	}
	return e.Code == te.Code
}

// New constructs an Error with no underlying cause.
func New(op string, code Kind, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewWithErrno constructs an Error wrapping a syscall errno.
func NewWithErrno(op string, code Kind, errno syscall.Errno) *Error {
	return &Error{Op: op, Code: code, Errno: errno, Msg: errno.Error()}
}

// Wrap attaches op to an existing error, preserving it as Inner. If inner is
// already a *Error its Code is carried forward; otherwise code is used.
func Wrap(op string, code Kind, inner error) *Error {
	if inner == nil {
		return nil
	}
	if fe, ok := inner.(*Error); ok {
		return &Error{Op: op, Code: fe.Code, Errno: fe.Errno, Msg: fe.Msg, Inner: fe}
	}
	if errno, ok := inner.(syscall.Errno); ok {
		return &Error{Op: op, Code: code, Errno: errno, Msg: errno.Error(), Inner: inner}
	}
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == kind
	}
	return false
}

// Code returns the Kind carried by err, or "" if err is not a *Error.
func Code(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
