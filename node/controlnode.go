package node

import (
	"time"

	"github.com/nsp-rocket/fsw/cmdhandler"
	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
	"github.com/nsp-rocket/fsw/fswtime"
	"github.com/nsp-rocket/fsw/netmgr"
	"github.com/nsp-rocket/fsw/statemachine"
)

// ControlNodeConfig is the full construction config for a Control Node's
// loop body.
type ControlNodeConfig struct {
	DV          *datavector.DataVector
	NM          *netmgr.NetworkManager
	DeviceNodes []netmgr.Node

	OutboundRegion datavector.RegionID
	InboundRegion  datavector.RegionID

	CmdHandler   *cmdhandler.CommandHandler
	StateMachine *statemachine.StateMachine

	// Clock times the State Machine's elapsed-time-in-state argument. Nil
	// is accepted for a Control Node with no StateMachine configured; it is
	// required otherwise.
	Clock *fswtime.Clock

	RecvTimeout time.Duration
	Metrics     *Metrics
}

// ControlNode runs the Control Node's tick sequence. Unlike the Device
// Node, the Control Node initiates the exchange: it is the only node with
// more than one peer, so it cannot sit in a single recv_block the way a
// Device Node waits on its one Control Node peer. It sends first to every
// Device Node, then collects replies from all of them within one
// recv_mult window: the mirror image of the Device Node's
// recv-then-send, not a copy of it.
//
// ControlNode also owns the State Machine's elapsed-time-in-state counter.
// StateMachine.Tick documents that a caller must reset that counter to
// zero the instant a transition fires; keeping the counter here, next to
// the only caller of Tick, means that reset can never be forgotten by an
// entry point built on top of this type.
type ControlNode struct {
	cfg            ControlNodeConfig
	recvBuf        [][]byte
	counts         []int
	stateEnteredNs uint64
}

// CreateControlNode sizes one receive buffer per configured Device Node
// from InboundRegion.
func CreateControlNode(cfg ControlNodeConfig) (*ControlNode, *ferr.Error) {
	const op = "ControlNode.Create"

	size, err := cfg.DV.RegionSizeBytes(cfg.InboundRegion)
	if err != nil {
		return nil, err
	}
	if cfg.StateMachine != nil && cfg.Clock == nil {
		return nil, ferr.New(op, ferr.KindEmptyConfig, "clock is required when a state machine is configured")
	}

	bufs := make([][]byte, len(cfg.DeviceNodes))
	for i := range bufs {
		bufs[i] = make([]byte, size)
	}

	n := &ControlNode{
		cfg:     cfg,
		recvBuf: bufs,
		counts:  make([]int, len(cfg.DeviceNodes)),
	}
	if cfg.Clock != nil {
		n.stateEnteredNs, _ = cfg.Clock.NowNs()
	}
	return n, nil
}

// Tick runs one full loop iteration: command handling, state machine
// advance, send the outbound region to every Device Node, collect replies
// within RecvTimeout, then decode the last reply from each Device Node
// into the inbound region.
func (n *ControlNode) Tick() *ferr.Error {
	if n.cfg.CmdHandler != nil {
		if err := n.cfg.CmdHandler.Tick(); err != nil {
			if n.cfg.Metrics != nil {
				n.cfg.Metrics.RecordStepError("cmdhandler")
			}
		}
	}

	if n.cfg.StateMachine != nil {
		nowNs, cerr := n.cfg.Clock.NowNs()
		if cerr != nil {
			if n.cfg.Metrics != nil {
				n.cfg.Metrics.RecordStepError("clock")
			}
			nowNs = n.stateEnteredNs
		}
		elapsedNsInState := nowNs - n.stateEnteredNs

		switched, err := n.cfg.StateMachine.Tick(elapsedNsInState)
		if err != nil {
			if n.cfg.Metrics != nil {
				n.cfg.Metrics.RecordStepError("statemachine")
			}
		}
		if switched {
			n.stateEnteredNs = nowNs
		}
	}

	sendBuf, err := n.cfg.DV.EncodeRegion(n.cfg.OutboundRegion)
	if err != nil {
		return err
	}

	for _, dn := range n.cfg.DeviceNodes {
		if err := n.cfg.NM.Send(dn, sendBuf); err != nil {
			if n.cfg.Metrics != nil {
				n.cfg.Metrics.RecordStepError("send")
			}
		}
	}

	if err := n.cfg.NM.RecvMult(n.cfg.RecvTimeout, n.cfg.DeviceNodes, n.recvBuf, n.counts); err != nil {
		return err
	}

	for i, count := range n.counts {
		if count == 0 {
			continue
		}
		if err := n.cfg.DV.DecodeRegion(n.cfg.InboundRegion, n.recvBuf[i]); err != nil {
			if n.cfg.Metrics != nil {
				n.cfg.Metrics.RecordStepError("decode")
			}
		}
	}

	return nil
}
