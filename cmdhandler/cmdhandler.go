// Package cmdhandler turns ground commands sitting in the Data Vector into
// a one-tick-wide pulse the state machine can guard on, and (for write
// commands) a narrowed, type-checked Data Vector write.
//
// Built around an edge-triggered request-number dedup design. Every Data
// Vector write's returned error is checked and propagated here rather than
// dropped on the floor.
package cmdhandler

import (
	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
)

// Cmd is the closed set of ground commands.
type Cmd uint8

const (
	CmdNone Cmd = iota
	CmdLaunch
	CmdAbort
	CmdWrite
)

func (c Cmd) valid() bool {
	return c <= CmdWrite
}

// Elements names the fixed set of Data Vector elements the command
// protocol is built from.
type Elements struct {
	CmdReq         datavector.ElementID // u8: ground's requested command
	CmdWriteElem   datavector.ElementID // u32: target element id for CmdWrite
	CmdWriteVal    datavector.ElementID // u64: raw value for CmdWrite, narrowed per target type
	CmdReqNum      datavector.ElementID // u32: ground's request sequence number
	LastCmdProcNum datavector.ElementID // u32: last request number this handler processed
	Cmd            datavector.ElementID // u8: one-tick pulse exposed to the state machine
}

// CommandHandler runs once per Control Node tick.
type CommandHandler struct {
	dv  *datavector.DataVector
	els Elements
}

// Create returns a CommandHandler over dv using els. Validation of els'
// element types is left to Tick's reads/writes, which fail with
// IncorrectType on any mismatch; cmd_write_elem and cmd_write_val are
// only read, and so only checked, when a new Write command arrives.
// There is no independent second validation pass to keep in sync with
// the Data Vector's own checks.
func Create(dv *datavector.DataVector, els Elements) *CommandHandler {
	return &CommandHandler{dv: dv, els: els}
}

// Tick implements the edge-triggered dedup protocol: a newly observed
// cmd_req_num latches cmd_req into cmd (and, for CmdWrite, performs the
// narrowed write); a stale or already-seen request number clears cmd back
// to CmdNone so the pulse lasts exactly one tick.
func (h *CommandHandler) Tick() *ferr.Error {
	const op = "CommandHandler.Tick"

	reqRaw, err := datavector.Read[uint8](h.dv, h.els.CmdReq)
	if err != nil {
		return err
	}
	req := Cmd(reqRaw)
	if !req.valid() {
		return ferr.New(op, ferr.KindInvalidCmd, "cmd_req is not one of None/Launch/Abort/Write")
	}

	reqNum, err := datavector.Read[uint32](h.dv, h.els.CmdReqNum)
	if err != nil {
		return err
	}
	lastProc, err := datavector.Read[uint32](h.dv, h.els.LastCmdProcNum)
	if err != nil {
		return err
	}

	if lastProc >= reqNum {
		// Not a new request: clear the pulse.
		return h.dv.WriteTyped(h.els.Cmd, datavector.U8(uint8(CmdNone)))
	}

	if err := h.dv.WriteTyped(h.els.LastCmdProcNum, datavector.U32(reqNum)); err != nil {
		return err
	}
	if err := h.dv.WriteTyped(h.els.Cmd, datavector.U8(uint8(req))); err != nil {
		return err
	}

	if req != CmdWrite {
		return nil
	}

	targetElem, err := datavector.Read[uint32](h.dv, h.els.CmdWriteElem)
	if err != nil {
		return err
	}
	target := datavector.ElementID(targetElem)

	targetType, err := h.dv.TypeOf(target)
	if err != nil {
		return ferr.New(op, ferr.KindInvalidElem, "cmd_write_elem does not name a configured element")
	}

	raw, err := datavector.Read[uint64](h.dv, h.els.CmdWriteVal)
	if err != nil {
		return err
	}

	narrowed := datavector.FromCommandWriteValue(targetType, raw)
	return h.dv.WriteTyped(target, narrowed)
}
