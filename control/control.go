// Package control implements the Controller base contract: a mode-gated
// tick that dispatches to an enabled or safed body, reading every input at
// the start of the tick and writing every output before it returns.
package control

import (
	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
)

// Mode is the closed set of controller modes.
type Mode uint8

const (
	ModeSafed Mode = iota
	ModeEnabled
)

// Body is the subclass-supplied behavior for one mode. Implementations
// must read every input at entry and write every output before returning,
// keeping no state across ticks beyond what they choose to hold
// themselves; the base Controller holds none on their behalf.
type Body func(dv *datavector.DataVector) *ferr.Error

// Controller dispatches each tick to RunEnabled or RunSafed based on the
// Data Vector's current mode element.
type Controller struct {
	dv         *datavector.DataVector
	modeElem   datavector.ElementID
	RunEnabled Body
	RunSafed   Body
}

// Create returns a Controller reading mode from modeElem in dv. modeElem
// must be configured as a u8 element; Tick reads its bits via AsU8()
// without verifying the element's declared type, so an element configured
// at any other type is read as a Mode value anyway.
func Create(dv *datavector.DataVector, modeElem datavector.ElementID, runEnabled, runSafed Body) *Controller {
	return &Controller{dv: dv, modeElem: modeElem, RunEnabled: runEnabled, RunSafed: runSafed}
}

// Tick reads the mode element and dispatches. An unrecognized mode value
// fails with InvalidEnum rather than silently defaulting to either body.
func (c *Controller) Tick() *ferr.Error {
	const op = "Controller.Tick"

	modeV, err := c.dv.ReadTyped(c.modeElem)
	if err != nil {
		return err
	}

	switch Mode(modeV.AsU8()) {
	case ModeEnabled:
		if c.RunEnabled == nil {
			return nil
		}
		return c.RunEnabled(c.dv)
	case ModeSafed:
		if c.RunSafed == nil {
			return nil
		}
		return c.RunSafed(c.dv)
	default:
		return ferr.New(op, ferr.KindInvalidEnum, "mode element holds an undefined Mode value")
	}
}
