// Package device implements the Device base contract and the DigitalOut
// specimen device: a sensor/actuator backed by an FPGA session handle,
// ticked unconditionally (there is no mode gate on a Device the way there
// is on a Controller).
package device

import (
	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
	"github.com/nsp-rocket/fsw/internal/interfaces"
)

// minPin and maxPin bound the DIO lines wired to the FPGA backplane this
// process runs against.
const (
	minPin = 5
	maxPin = 27
)

// Run is the subclass-supplied per-tick body for a Device.
type Run func(session interfaces.Session, dv *datavector.DataVector) *ferr.Error

// Device holds one FPGA session and the shared Data Vector. Tick calls Run
// unconditionally every invocation.
type Device struct {
	session interfaces.Session
	dv      *datavector.DataVector
	Run     Run
}

// Create returns a Device over session and dv.
func Create(session interfaces.Session, dv *datavector.DataVector, run Run) *Device {
	return &Device{session: session, dv: dv, Run: run}
}

// Tick runs the device's body once.
func (d *Device) Tick() *ferr.Error {
	if d.Run == nil {
		return nil
	}
	return d.Run(d.session, d.dv)
}

// DigitalOutConfig configures one DigitalOut specimen device.
type DigitalOutConfig struct {
	Pin             uint8
	ControlElement  datavector.ElementID // bool: value to drive onto Pin
	FeedbackElement datavector.ElementID // bool: value read back from Pin
}

func validateDigitalOutConfig(dv *datavector.DataVector, cfg DigitalOutConfig) *ferr.Error {
	const op = "DigitalOut.Create"

	if cfg.Pin < minPin || cfg.Pin > maxPin {
		return ferr.New(op, ferr.KindOutOfBounds, "pin outside configured DIO range")
	}
	for _, id := range []datavector.ElementID{cfg.ControlElement, cfg.FeedbackElement} {
		typ, err := dv.TypeOf(id)
		if err != nil {
			return ferr.New(op, ferr.KindInvalidElem, "digital out element not configured in data vector")
		}
		if typ != datavector.TypeBool {
			return ferr.New(op, ferr.KindIncorrectType, "digital out element must be type bool")
		}
	}
	return nil
}

// CreateDigitalOut builds a Device whose Run reads cfg.ControlElement,
// drives it onto cfg.Pin, reads the pin's feedback, and writes that
// feedback back into cfg.FeedbackElement.
func CreateDigitalOut(session interfaces.Session, dv *datavector.DataVector, cfg DigitalOutConfig) (*Device, *ferr.Error) {
	if err := validateDigitalOutConfig(dv, cfg); err != nil {
		return nil, err
	}

	run := func(session interfaces.Session, dv *datavector.DataVector) *ferr.Error {
		const op = "DigitalOut.Tick"

		controlV, err := dv.ReadTyped(cfg.ControlElement)
		if err != nil {
			return err
		}

		if werr := session.WritePin(cfg.Pin, controlV.AsBool()); werr != nil {
			return ferr.Wrap(op, ferr.KindFpgaWrite, werr)
		}

		feedback, rerr := session.ReadPin(cfg.Pin)
		if rerr != nil {
			return ferr.Wrap(op, ferr.KindFpgaRead, rerr)
		}

		return dv.WriteTyped(cfg.FeedbackElement, datavector.Bool(feedback))
	}

	return Create(session, dv, run), nil
}
