// Command fsw-devicenode runs a single Device Node process: one valve
// digital-out actuator and one pressure sensor, ticked over a Data Vector
// exchanged with a Control Node over the flight UDP network.
//
// This is a reference wiring, not a product binary. The actual mission
// topology (which elements, how many devices, which FPGA session) is
// assembled the same way from a mission-specific main package. It exists so
// the node/datavector/netmgr/device stack can be exercised end to end
// against a real process boundary.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/device"
	"github.com/nsp-rocket/fsw/dvlog"
	"github.com/nsp-rocket/fsw/ferr"
	"github.com/nsp-rocket/fsw/fswtime"
	"github.com/nsp-rocket/fsw/internal/interfaces"
	"github.com/nsp-rocket/fsw/internal/logging"
	"github.com/nsp-rocket/fsw/netmgr"
	"github.com/nsp-rocket/fsw/node"
)

// Element and region layout. Region elements must stay in lockstep, in
// order and type, with the Control Node's complementary region. See
// cmd/fsw-controlnode/main.go.
const (
	regionInbound  datavector.RegionID = 1 // ValveCmd, from Control Node
	regionOutbound datavector.RegionID = 2 // ValveFeedback, PressureRaw, to Control Node
	regionDiag     datavector.RegionID = 3 // not sent over the wire

	elemValveCmd      datavector.ElementID = 1
	elemValveFeedback datavector.ElementID = 2
	elemPressureRaw   datavector.ElementID = 3
	elemTxCount       datavector.ElementID = 4
	elemRxCount       datavector.ElementID = 5
)

func main() {
	var (
		me            = flag.String("me", "device0", "this node's name")
		controlNode   = flag.String("control-node", "control", "the control node's name")
		ipMe          = flag.String("ip-me", "127.0.0.2", "this node's ip address")
		ipControl     = flag.String("ip-control", "127.0.0.1", "the control node's ip address")
		port          = flag.Uint("port", 2210, "udp port of the control<->device channel")
		pin           = flag.Uint("pin", 17, "dio pin the valve actuator is wired to")
		skipClockSync = flag.Bool("skip-clock-sync", false, "skip the startup clock sync handshake")
		tickPeriod    = flag.Duration("tick-period", 10*time.Millisecond, "loop tick period")
		logCSV        = flag.String("log-csv", "", "optional csv snapshot log path")
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
			{ID: regionInbound, Name: "inbound", Elements: []datavector.ElementConfig{
				{ID: elemValveCmd, Name: "valve_cmd", Type: datavector.TypeBool, InitialValue: datavector.Bool(false)},
			}},
			{ID: regionOutbound, Name: "outbound", Elements: []datavector.ElementConfig{
				{ID: elemValveFeedback, Name: "valve_feedback", Type: datavector.TypeBool, InitialValue: datavector.Bool(false)},
				{ID: elemPressureRaw, Name: "pressure_raw", Type: datavector.TypeU32, InitialValue: datavector.U32(0)},
			}},
			{ID: regionDiag, Name: "diag", Elements: []datavector.ElementConfig{
				{ID: elemTxCount, Name: "tx_count", Type: datavector.TypeU32, InitialValue: datavector.U32(0)},
				{ID: elemRxCount, Name: "rx_count", Type: datavector.TypeU32, InitialValue: datavector.U32(0)},
			}},
		},
	}

	nmCfg := netmgr.Config{
		NodeIPs: map[netmgr.Node]string{
			netmgr.Node(*me):          *ipMe,
			netmgr.Node(*controlNode): *ipControl,
		},
		Channels: []netmgr.ChannelConfig{
			{NodeA: netmgr.Node(*me), NodeB: netmgr.Node(*controlNode), Port: uint16(*port)},
		},
		Me:          netmgr.Node(*me),
		TxCountElem: elemTxCount,
		RxCountElem: elemRxCount,
	}

	session := newSimSession()
	defer session.Close()

	var csvLogger *dvlog.Logger
	entryCfg := node.DeviceNodeEntryConfig{
		NM:             nmCfg,
		DV:             dvCfg,
		OutboundRegion: regionOutbound,
		InboundRegion:  regionInbound,
		ControlNode:    netmgr.Node(*controlNode),
		SkipClockSync:  *skipClockSync,
		TickPeriod:     *tickPeriod,
		ThreadName:     "devicenode-loop",
		Logger:         logger,
		InitDevices: func(dv *datavector.DataVector) (sensors, controllers, actuators []node.Ticker, err *ferr.Error) {
			valve, verr := device.CreateDigitalOut(session, dv, device.DigitalOutConfig{
				Pin:             uint8(*pin),
				ControlElement:  elemValveCmd,
				FeedbackElement: elemValveFeedback,
			})
			if verr != nil {
				return nil, nil, nil, verr
			}

			sensors = []node.Ticker{device.Create(session, dv, pressureSensorRun(elemPressureRaw))}

			if *logCSV != "" {
				clock, cerr := fswtime.Init()
				if cerr != nil {
					return nil, nil, nil, cerr
				}
				csvLogger, err = dvlog.Create(dvlog.Config{
					DV:           dv,
					Clock:        clock,
					RegionsToLog: []datavector.RegionID{regionInbound, regionOutbound},
					ElementNames: map[datavector.ElementID]string{
						elemValveCmd:      "valve_cmd",
						elemValveFeedback: "valve_feedback",
						elemPressureRaw:   "pressure_raw",
					},
					Mode:        dvlog.ModeCSV,
					LogFilePath: *logCSV,
				})
				if err != nil {
					return nil, nil, nil, err
				}
				sensors = append(sensors, snapshotTicker{csvLogger})
			}

			return sensors, nil, []node.Ticker{valve}, nil
		},
	}

	if err := node.RunDeviceNode(entryCfg); err != nil {
		logger.Error("device node exited", "err", err.Error())
		if csvLogger != nil {
			csvLogger.Close()
		}
		log.Print(err.Error())
		os.Exit(1)
	}
	if csvLogger != nil {
		csvLogger.Close()
	}
}

// snapshotTicker adapts dvlog.Logger.Snapshot into a node.Ticker so it runs
// once per loop iteration alongside the real sensors.
type snapshotTicker struct{ l *dvlog.Logger }

func (s snapshotTicker) Tick() *ferr.Error { return s.l.Snapshot() }

// pressureSensorRun returns a Device Run that stands in for a real FPGA
// ADC read: it increments a raw counter, the way a real sensor's bytes
// would vary tick to tick. Production code replaces this with a session
// read from the actual ADC channel.
func pressureSensorRun(elem datavector.ElementID) device.Run {
	return func(session interfaces.Session, dv *datavector.DataVector) *ferr.Error {
		return dv.Increment(elem)
	}
}
