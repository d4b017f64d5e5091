package node

import (
	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
	"github.com/nsp-rocket/fsw/netmgr"
)

// Ticker is anything with a single per-tick body returning *ferr.Error.
// control.Controller and device.Device both satisfy this without any
// adapter, since both already expose a Tick method with this signature.
type Ticker interface {
	Tick() *ferr.Error
}

// DeviceNodeConfig is the full construction config for a Device Node's
// loop body.
type DeviceNodeConfig struct {
	DV          *datavector.DataVector
	NM          *netmgr.NetworkManager
	ControlNode netmgr.Node

	OutboundRegion datavector.RegionID
	InboundRegion  datavector.RegionID

	Sensors     []Ticker
	Controllers []Ticker
	Actuators   []Ticker

	Metrics *Metrics
}

// DeviceNode runs the fixed Device Node tick sequence: copy outbound
// region out, block for the Control Node's tick, reply immediately,
// drain the flush no-op, copy the reply in, then run sensors, controllers,
// and actuators in order.
type DeviceNode struct {
	cfg     DeviceNodeConfig
	recvBuf []byte
}

// CreateDeviceNode sizes the node's receive buffer from InboundRegion.
func CreateDeviceNode(cfg DeviceNodeConfig) (*DeviceNode, *ferr.Error) {
	size, err := cfg.DV.RegionSizeBytes(cfg.InboundRegion)
	if err != nil {
		return nil, err
	}
	return &DeviceNode{cfg: cfg, recvBuf: make([]byte, size)}, nil
}

// Tick runs one full loop iteration. Sensor/controller/actuator errors are
// counted rather than aborting the tick; a single misbehaving device must
// not take down the rest of the loop.
func (n *DeviceNode) Tick() *ferr.Error {
	sendBuf, err := n.cfg.DV.EncodeRegion(n.cfg.OutboundRegion)
	if err != nil {
		return err
	}

	if err := n.cfg.NM.RecvBlock(n.cfg.ControlNode, n.recvBuf); err != nil {
		return err
	}

	if err := n.cfg.NM.Send(n.cfg.ControlNode, sendBuf); err != nil {
		return err
	}

	flushBuf := make([]byte, len(n.recvBuf))
	if _, err := n.cfg.NM.RecvNonBlock(n.cfg.ControlNode, flushBuf); err != nil {
		return err
	}

	if err := n.cfg.DV.DecodeRegion(n.cfg.InboundRegion, n.recvBuf); err != nil {
		return err
	}

	n.runAll(n.cfg.Sensors, "sensor")
	n.runAll(n.cfg.Controllers, "controller")
	n.runAll(n.cfg.Actuators, "actuator")

	return nil
}

func (n *DeviceNode) runAll(tickers []Ticker, step string) {
	for _, t := range tickers {
		if err := t.Tick(); err != nil {
			if n.cfg.Metrics != nil {
				n.cfg.Metrics.RecordStepError(step)
			}
		}
	}
}
