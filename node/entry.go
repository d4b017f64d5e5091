package node

import (
	"time"

	"github.com/nsp-rocket/fsw/cmdhandler"
	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
	"github.com/nsp-rocket/fsw/fswtime"
	"github.com/nsp-rocket/fsw/internal/constants"
	"github.com/nsp-rocket/fsw/internal/logging"
	"github.com/nsp-rocket/fsw/netmgr"
	"github.com/nsp-rocket/fsw/statemachine"
	"github.com/nsp-rocket/fsw/threadmgr"
)

// DeviceNodeEntryConfig is the full startup contract for a Device Node
// process: a NetworkManager config, a Data Vector config, a user-supplied
// device init callback, and a skip-clock-sync flag, exactly as laid out for
// node entry functions. Construction runs start to finish with no partial
// recovery; the first failure is returned without starting the loop
// thread.
type DeviceNodeEntryConfig struct {
	NM netmgr.Config
	DV datavector.Config

	OutboundRegion datavector.RegionID
	InboundRegion  datavector.RegionID

	// ControlNode is this node's one Control Node peer, as named in NM's
	// node topology.
	ControlNode netmgr.Node

	// InitDevices builds the sensor/controller/actuator tickers this node
	// runs every tick, given the constructed Data Vector. May be nil for a
	// node that only forwards regions.
	InitDevices func(dv *datavector.DataVector) (sensors, controllers, actuators []Ticker, err *ferr.Error)

	SkipClockSync bool
	TickPeriod    time.Duration // defaults to constants.NominalTickPeriod
	ThreadName    string        // defaults to "devicenode-loop"
	Logger        *logging.Logger
}

// RunDeviceNode performs the full Device Node startup sequence: Data
// Vector construction, Network Manager construction, optional clock sync,
// user device init, loop thread creation, then blocks until the loop
// thread exits. The returned error, if any, is the caller's signal to
// exit the process non-zero; RunDeviceNode itself never calls os.Exit, so
// it stays testable without a subprocess.
func RunDeviceNode(cfg DeviceNodeEntryConfig) *ferr.Error {
	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}

	dv, err := datavector.Create(cfg.DV)
	if err != nil {
		log.Error("device node: data vector construction failed", "err", err.Error())
		return err
	}

	nm, err := netmgr.Create(cfg.NM)
	if err != nil {
		log.Error("device node: network manager construction failed", "err", err.Error())
		return err
	}

	if !cfg.SkipClockSync {
		if err := nm.SendSyncReady(cfg.ControlNode); err != nil {
			log.Error("device node: clock sync failed", "err", err.Error())
			return err
		}
	}

	var sensors, controllers, actuators []Ticker
	if cfg.InitDevices != nil {
		sensors, controllers, actuators, err = cfg.InitDevices(dv)
		if err != nil {
			log.Error("device node: device init failed", "err", err.Error())
			return err
		}
	}

	metrics := NewMetrics()
	dn, err := CreateDeviceNode(DeviceNodeConfig{
		DV:             dv,
		NM:             nm,
		ControlNode:    cfg.ControlNode,
		OutboundRegion: cfg.OutboundRegion,
		InboundRegion:  cfg.InboundRegion,
		Sensors:        sensors,
		Controllers:    controllers,
		Actuators:      actuators,
		Metrics:        metrics,
	})
	if err != nil {
		log.Error("device node: loop construction failed", "err", err.Error())
		return err
	}

	return runLoopThread(loopThreadConfig{
		name:    firstNonEmpty(cfg.ThreadName, "devicenode-loop"),
		period:  firstNonZero(cfg.TickPeriod, constants.NominalTickPeriod),
		logger:  log,
		metrics: metrics,
		tick:    dn.Tick,
	})
}

// ControlNodeEntryConfig is the Control Node analogue of
// DeviceNodeEntryConfig. The Control Node additionally owns the Command
// Handler and State Machine, and tracks elapsed time in its current state
// to drive the State Machine's per-tick Actions/Transitions evaluation.
type ControlNodeEntryConfig struct {
	NM netmgr.Config
	DV datavector.Config

	OutboundRegion datavector.RegionID
	InboundRegion  datavector.RegionID
	DeviceNodes    []netmgr.Node

	// InitControl builds the Command Handler and State Machine this node
	// drives every tick, given the constructed Data Vector. Either may be
	// nil.
	InitControl func(dv *datavector.DataVector) (cmdHandler *cmdhandler.CommandHandler, sm *statemachine.StateMachine, err *ferr.Error)

	RecvTimeout   time.Duration // defaults to constants.NominalTickPeriod
	SkipClockSync bool
	TickPeriod    time.Duration
	ThreadName    string // defaults to "controlnode-loop"
	Logger        *logging.Logger
}

// RunControlNode performs the Control Node startup sequence, then blocks
// until the loop thread exits. Clock sync, when not skipped, is sent to
// every configured Device Node before the loop starts.
func RunControlNode(cfg ControlNodeEntryConfig) *ferr.Error {
	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}

	dv, err := datavector.Create(cfg.DV)
	if err != nil {
		log.Error("control node: data vector construction failed", "err", err.Error())
		return err
	}

	nm, err := netmgr.Create(cfg.NM)
	if err != nil {
		log.Error("control node: network manager construction failed", "err", err.Error())
		return err
	}

	if !cfg.SkipClockSync {
		for _, dn := range cfg.DeviceNodes {
			if err := nm.SendSyncReady(dn); err != nil {
				log.Error("control node: clock sync failed", "peer", string(dn), "err", err.Error())
				return err
			}
		}
	}

	var cmdH *cmdhandler.CommandHandler
	var sm *statemachine.StateMachine
	if cfg.InitControl != nil {
		cmdH, sm, err = cfg.InitControl(dv)
		if err != nil {
			log.Error("control node: control init failed", "err", err.Error())
			return err
		}
	}

	var clock *fswtime.Clock
	if sm != nil {
		clock, err = fswtime.Init()
		if err != nil {
			log.Error("control node: clock init failed", "err", err.Error())
			return err
		}
	}

	metrics := NewMetrics()
	cn, err := CreateControlNode(ControlNodeConfig{
		DV:             dv,
		NM:             nm,
		DeviceNodes:    cfg.DeviceNodes,
		OutboundRegion: cfg.OutboundRegion,
		InboundRegion:  cfg.InboundRegion,
		CmdHandler:     cmdH,
		StateMachine:   sm,
		Clock:          clock,
		RecvTimeout:    firstNonZero(cfg.RecvTimeout, constants.NominalTickPeriod),
		Metrics:        metrics,
	})
	if err != nil {
		log.Error("control node: loop construction failed", "err", err.Error())
		return err
	}

	return runLoopThread(loopThreadConfig{
		name:    firstNonEmpty(cfg.ThreadName, "controlnode-loop"),
		period:  firstNonZero(cfg.TickPeriod, constants.NominalTickPeriod),
		logger:  log,
		metrics: metrics,
		tick:    cn.Tick,
	})
}

func firstNonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func firstNonZero(d, fallback time.Duration) time.Duration {
	if d == 0 {
		return fallback
	}
	return d
}

// loopThreadConfig is the shared shape of both nodes' periodic loop: a
// period, a per-tick body, and a metrics sink for latency and
// deadline-miss tracking.
type loopThreadConfig struct {
	name    string
	period  time.Duration
	logger  *logging.Logger
	metrics *Metrics
	tick    func() *ferr.Error
}

func runLoopThread(cfg loopThreadConfig) *ferr.Error {
	tm := threadmgr.Create()

	handler := func(e *ferr.Error) {
		cfg.logger.Error("loop thread error", "thread", cfg.name, "err", e.Error())
		if e.Code == ferr.KindMissedSchedulerDeadline {
			cfg.metrics.RecordDeadlineMiss()
		}
	}

	body := func() error {
		start := time.Now()
		if err := cfg.tick(); err != nil {
			return err
		}
		cfg.metrics.RecordTick(uint64(time.Since(start).Nanoseconds()))
		return nil
	}

	if err := tm.CreatePeriodicThread(
		cfg.name, threadmgr.Priority(constants.MaxNewThreadPriority), threadmgr.AnyCore,
		uint64(cfg.period.Nanoseconds()), body, handler,
	); err != nil {
		return err
	}

	return tm.WaitForThread(cfg.name)
}
