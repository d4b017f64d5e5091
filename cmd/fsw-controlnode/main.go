// Command fsw-controlnode runs the Control Node process: the ground
// command handler and a small Safed/Armed valve state machine, driving one
// Device Node over the flight UDP network.
//
// Like cmd/fsw-devicenode, this is a reference wiring meant to exercise
// cmdhandler/statemachine/netmgr/node end to end through a real process
// boundary, not a finished mission binary.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/nsp-rocket/fsw/cmdhandler"
	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
	"github.com/nsp-rocket/fsw/internal/logging"
	"github.com/nsp-rocket/fsw/netmgr"
	"github.com/nsp-rocket/fsw/node"
	"github.com/nsp-rocket/fsw/statemachine"
)

// Element and region layout. regionOutbound/regionInbound must stay in
// lockstep, in order and type, with the Device Node's complementary
// regions. See cmd/fsw-devicenode/main.go.
const (
	regionOutbound datavector.RegionID = 1 // ValveCmd, to Device Node
	regionInbound  datavector.RegionID = 2 // ValveFeedback, PressureRaw, from Device Node
	regionControl  datavector.RegionID = 3 // not sent over the wire
	regionDiag     datavector.RegionID = 4 // not sent over the wire

	elemValveCmd      datavector.ElementID = 1
	elemValveFeedback datavector.ElementID = 2
	elemPressureRaw   datavector.ElementID = 3

	elemState          datavector.ElementID = 10
	elemCmdReq         datavector.ElementID = 11
	elemCmdReqNum      datavector.ElementID = 12
	elemLastCmdProcNum datavector.ElementID = 13
	elemCmdWriteElem   datavector.ElementID = 14
	elemCmdWriteVal    datavector.ElementID = 15
	elemCmdPulse       datavector.ElementID = 16

	elemTxCount datavector.ElementID = 20
	elemRxCount datavector.ElementID = 21
)

// Valve state machine states.
const (
	stateSafed statemachine.StateID = 0
	stateArmed statemachine.StateID = 1
)

func main() {
	var (
		me            = flag.String("me", "control", "this node's name")
		deviceNode    = flag.String("device-node", "device0", "the device node's name")
		ipMe          = flag.String("ip-me", "127.0.0.1", "this node's ip address")
		ipDevice      = flag.String("ip-device", "127.0.0.2", "the device node's ip address")
		port          = flag.Uint("port", 2210, "udp port of the control<->device channel")
		skipClockSync = flag.Bool("skip-clock-sync", false, "skip the startup clock sync handshake")
		tickPeriod    = flag.Duration("tick-period", 10*time.Millisecond, "loop tick period")
		recvTimeout   = flag.Duration("recv-timeout", 8*time.Millisecond, "per-tick recv_mult timeout")
		verbose       = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	dvCfg := datavector.Config{
		Regions: []datavector.RegionConfig{
			{ID: regionOutbound, Name: "outbound", Elements: []datavector.ElementConfig{
				{ID: elemValveCmd, Name: "valve_cmd", Type: datavector.TypeBool, InitialValue: datavector.Bool(false)},
			}},
			{ID: regionInbound, Name: "inbound", Elements: []datavector.ElementConfig{
				{ID: elemValveFeedback, Name: "valve_feedback", Type: datavector.TypeBool, InitialValue: datavector.Bool(false)},
				{ID: elemPressureRaw, Name: "pressure_raw", Type: datavector.TypeU32, InitialValue: datavector.U32(0)},
			}},
			{ID: regionControl, Name: "control", Elements: []datavector.ElementConfig{
				{ID: elemState, Name: "state", Type: datavector.TypeU32, InitialValue: datavector.U32(uint32(stateSafed))},
				{ID: elemCmdReq, Name: "cmd_req", Type: datavector.TypeU8, InitialValue: datavector.U8(uint8(cmdhandler.CmdNone))},
				{ID: elemCmdReqNum, Name: "cmd_req_num", Type: datavector.TypeU32, InitialValue: datavector.U32(0)},
				{ID: elemLastCmdProcNum, Name: "last_cmd_proc_num", Type: datavector.TypeU32, InitialValue: datavector.U32(0)},
				{ID: elemCmdWriteElem, Name: "cmd_write_elem", Type: datavector.TypeU32, InitialValue: datavector.U32(0)},
				{ID: elemCmdWriteVal, Name: "cmd_write_val", Type: datavector.TypeU64, InitialValue: datavector.U64(0)},
				{ID: elemCmdPulse, Name: "cmd_pulse", Type: datavector.TypeU8, InitialValue: datavector.U8(uint8(cmdhandler.CmdNone))},
			}},
			{ID: regionDiag, Name: "diag", Elements: []datavector.ElementConfig{
				{ID: elemTxCount, Name: "tx_count", Type: datavector.TypeU32, InitialValue: datavector.U32(0)},
				{ID: elemRxCount, Name: "rx_count", Type: datavector.TypeU32, InitialValue: datavector.U32(0)},
			}},
		},
	}

	nmCfg := netmgr.Config{
		NodeIPs: map[netmgr.Node]string{
			netmgr.Node(*me):         *ipMe,
			netmgr.Node(*deviceNode): *ipDevice,
		},
		Channels: []netmgr.ChannelConfig{
			{NodeA: netmgr.Node(*me), NodeB: netmgr.Node(*deviceNode), Port: uint16(*port)},
		},
		Me:          netmgr.Node(*me),
		TxCountElem: elemTxCount,
		RxCountElem: elemRxCount,
	}

	entryCfg := node.ControlNodeEntryConfig{
		NM:             nmCfg,
		DV:             dvCfg,
		OutboundRegion: regionOutbound,
		InboundRegion:  regionInbound,
		DeviceNodes:    []netmgr.Node{netmgr.Node(*deviceNode)},
		SkipClockSync:  *skipClockSync,
		TickPeriod:     *tickPeriod,
		RecvTimeout:    *recvTimeout,
		ThreadName:     "controlnode-loop",
		Logger:         logger,
		InitControl:    buildValveControl,
	}

	if err := node.RunControlNode(entryCfg); err != nil {
		logger.Error("control node exited", "err", err.Error())
		log.Print(err.Error())
		os.Exit(1)
	}
}

// buildValveControl wires the ground command protocol to a two-state
// Safed/Armed state machine: a Launch command arms the valve, an Abort
// command safes it again. Entering either state immediately (re)asserts
// the valve command so a restart always converges to the state's valve
// position rather than trusting whatever was last on the wire.
func buildValveControl(dv *datavector.DataVector) (*cmdhandler.CommandHandler, *statemachine.StateMachine, *ferr.Error) {
	cmdH := cmdhandler.Create(dv, cmdhandler.Elements{
		CmdReq:         elemCmdReq,
		CmdWriteElem:   elemCmdWriteElem,
		CmdWriteVal:    elemCmdWriteVal,
		CmdReqNum:      elemCmdReqNum,
		LastCmdProcNum: elemLastCmdProcNum,
		Cmd:            elemCmdPulse,
	})

	safedActions, err := statemachine.CreateActions(dv, elemState, []statemachine.ActionConfig{
		{ElapsedNs: 0, Element: elemValveCmd, Value: datavector.Bool(false)},
	})
	if err != nil {
		return nil, nil, err
	}
	armedActions, err := statemachine.CreateActions(dv, elemState, []statemachine.ActionConfig{
		{ElapsedNs: 0, Element: elemValveCmd, Value: datavector.Bool(true)},
	})
	if err != nil {
		return nil, nil, err
	}

	safedTransitions, err := statemachine.CreateTransitions(dv, []statemachine.TransitionConfig{
		{Element: elemCmdPulse, Literal: datavector.U8(uint8(cmdhandler.CmdLaunch)), Comparison: statemachine.CompareEq, Target: stateArmed},
	})
	if err != nil {
		return nil, nil, err
	}
	armedTransitions, err := statemachine.CreateTransitions(dv, []statemachine.TransitionConfig{
		{Element: elemCmdPulse, Literal: datavector.U8(uint8(cmdhandler.CmdAbort)), Comparison: statemachine.CompareEq, Target: stateSafed},
	})
	if err != nil {
		return nil, nil, err
	}

	sm, err := statemachine.Create(dv, elemState, []statemachine.StateConfig{
		{ID: stateSafed, Name: "safed", Actions: safedActions, Transitions: safedTransitions},
		{ID: stateArmed, Name: "armed", Actions: armedActions, Transitions: armedTransitions},
	})
	if err != nil {
		return nil, nil, err
	}

	return cmdH, sm, nil
}
