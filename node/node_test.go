package node

import (
	"testing"
	"time"

	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
	"github.com/nsp-rocket/fsw/internal/fswtest"
	"github.com/nsp-rocket/fsw/netmgr"
	"github.com/stretchr/testify/require"
)

const (
	elemOutbound datavector.ElementID = 1
	elemInbound  datavector.ElementID = 2

	regionOutbound datavector.RegionID = 1
	regionInbound  datavector.RegionID = 2
)

func newVector(t *testing.T) *datavector.DataVector {
	dv, err := datavector.Create(datavector.Config{
		Regions: []datavector.RegionConfig{
			{ID: regionOutbound, Elements: []datavector.ElementConfig{
				{ID: elemOutbound, Type: datavector.TypeU32, InitialValue: datavector.U32(0)},
			}},
			{ID: regionInbound, Elements: []datavector.ElementConfig{
				{ID: elemInbound, Type: datavector.TypeU32, InitialValue: datavector.U32(0)},
			}},
		},
	})
	require.Nil(t, err)
	return dv
}

func TestDeviceNodeAndControlNodeTickExchangeRegions(t *testing.T) {
	const port = 2230

	cnDV := newVector(t)
	dnDV := newVector(t)

	controlCfg, deviceCfg := fswtest.LoopbackNetworkConfigs("control", "device0", port)

	cnNM, err := netmgr.Create(controlCfg)
	require.Nil(t, err)
	defer cnNM.Close()

	dnNM, err := netmgr.Create(deviceCfg)
	require.Nil(t, err)
	defer dnNM.Close()

	require.Nil(t, dnDV.WriteTyped(elemOutbound, datavector.U32(42)))

	dn, err := CreateDeviceNode(DeviceNodeConfig{
		DV:             dnDV,
		NM:             dnNM,
		ControlNode:    "control",
		OutboundRegion: regionOutbound,
		InboundRegion:  regionInbound,
		Metrics:        NewMetrics(),
	})
	require.Nil(t, err)

	cn, err := CreateControlNode(ControlNodeConfig{
		DV:             cnDV,
		NM:             cnNM,
		DeviceNodes:    []netmgr.Node{"device0"},
		OutboundRegion: regionOutbound,
		InboundRegion:  regionInbound,
		RecvTimeout:    500 * time.Millisecond,
		Metrics:        NewMetrics(),
	})
	require.Nil(t, err)

	require.Nil(t, cnDV.WriteTyped(elemOutbound, datavector.U32(7)))

	done := make(chan *ferr.Error, 1)
	go func() { done <- dn.Tick() }()

	require.Nil(t, cn.Tick())
	require.Nil(t, <-done)

	inboundAtCN, rerr := cnDV.ReadTyped(elemInbound)
	require.Nil(t, rerr)
	require.Equal(t, uint32(42), inboundAtCN.AsU32())

	inboundAtDN, rerr := dnDV.ReadTyped(elemInbound)
	require.Nil(t, rerr)
	require.Equal(t, uint32(7), inboundAtDN.AsU32())
}
