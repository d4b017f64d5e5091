package control

import (
	"testing"

	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
	"github.com/stretchr/testify/require"
)

const elemMode datavector.ElementID = 1

func newTestVector(t *testing.T, mode Mode) *datavector.DataVector {
	dv, err := datavector.Create(datavector.Config{
		Regions: []datavector.RegionConfig{{
			ID: 1,
			Elements: []datavector.ElementConfig{
				{ID: elemMode, Type: datavector.TypeU8, InitialValue: datavector.U8(uint8(mode))},
			},
		}},
	})
	require.Nil(t, err)
	return dv
}

func TestTickDispatchesToEnabled(t *testing.T) {
	dv := newTestVector(t, ModeEnabled)
	var ran string
	c := Create(dv, elemMode,
		func(*datavector.DataVector) *ferr.Error { ran = "enabled"; return nil },
		func(*datavector.DataVector) *ferr.Error { ran = "safed"; return nil },
	)
	require.Nil(t, c.Tick())
	require.Equal(t, "enabled", ran)
}

func TestTickDispatchesToSafed(t *testing.T) {
	dv := newTestVector(t, ModeSafed)
	var ran string
	c := Create(dv, elemMode,
		func(*datavector.DataVector) *ferr.Error { ran = "enabled"; return nil },
		func(*datavector.DataVector) *ferr.Error { ran = "safed"; return nil },
	)
	require.Nil(t, c.Tick())
	require.Equal(t, "safed", ran)
}

func TestTickRejectsUndefinedMode(t *testing.T) {
	dv := newTestVector(t, Mode(200))
	c := Create(dv, elemMode, nil, nil)
	err := c.Tick()
	require.NotNil(t, err)
	require.Equal(t, ferr.KindInvalidEnum, err.Code)
}
