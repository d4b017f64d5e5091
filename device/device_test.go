package device

import (
	"testing"

	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
	"github.com/stretchr/testify/require"
)

const (
	elemControl  datavector.ElementID = 1
	elemFeedback datavector.ElementID = 2
)

type fakeSession struct {
	pins map[uint8]bool
}

func (f *fakeSession) ReadPin(pin uint8) (bool, error)      { return f.pins[pin], nil }
func (f *fakeSession) WritePin(pin uint8, v bool) error     { f.pins[pin] = v; return nil }
func (f *fakeSession) Close() error                         { return nil }

func newTestVector(t *testing.T) *datavector.DataVector {
	dv, err := datavector.Create(datavector.Config{
		Regions: []datavector.RegionConfig{{
			ID: 1,
			Elements: []datavector.ElementConfig{
				{ID: elemControl, Type: datavector.TypeBool, InitialValue: datavector.Bool(false)},
				{ID: elemFeedback, Type: datavector.TypeBool, InitialValue: datavector.Bool(false)},
			},
		}},
	})
	require.Nil(t, err)
	return dv
}

func TestCreateDigitalOutRejectsPinOutOfRange(t *testing.T) {
	dv := newTestVector(t)
	_, err := CreateDigitalOut(&fakeSession{pins: map[uint8]bool{}}, dv, DigitalOutConfig{
		Pin: 3, ControlElement: elemControl, FeedbackElement: elemFeedback,
	})
	require.NotNil(t, err)
	require.Equal(t, ferr.KindOutOfBounds, err.Code)
}

func TestCreateDigitalOutRejectsNonBoolElement(t *testing.T) {
	dv, err := datavector.Create(datavector.Config{
		Regions: []datavector.RegionConfig{{
			ID: 1,
			Elements: []datavector.ElementConfig{
				{ID: elemControl, Type: datavector.TypeU8, InitialValue: datavector.U8(0)},
				{ID: elemFeedback, Type: datavector.TypeBool, InitialValue: datavector.Bool(false)},
			},
		}},
	})
	require.Nil(t, err)

	_, cerr := CreateDigitalOut(&fakeSession{pins: map[uint8]bool{}}, dv, DigitalOutConfig{
		Pin: 10, ControlElement: elemControl, FeedbackElement: elemFeedback,
	})
	require.NotNil(t, cerr)
	require.Equal(t, ferr.KindIncorrectType, cerr.Code)
}

func TestDigitalOutDrivesPinAndReportsFeedback(t *testing.T) {
	dv := newTestVector(t)
	session := &fakeSession{pins: map[uint8]bool{}}

	dev, err := CreateDigitalOut(session, dv, DigitalOutConfig{
		Pin: 10, ControlElement: elemControl, FeedbackElement: elemFeedback,
	})
	require.Nil(t, err)

	require.Nil(t, dv.WriteTyped(elemControl, datavector.Bool(true)))
	require.Nil(t, dev.Tick())

	require.True(t, session.pins[10])
	feedback, rerr := dv.ReadTyped(elemFeedback)
	require.Nil(t, rerr)
	require.True(t, feedback.AsBool())
}
