package dvlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/fswtime"
	"github.com/stretchr/testify/require"
)

const (
	elemTemp  datavector.ElementID = 1
	elemArmed datavector.ElementID = 2

	regionTelemetry datavector.RegionID = 1
)

func newTestVector(t *testing.T) *datavector.DataVector {
	dv, err := datavector.Create(datavector.Config{
		Regions: []datavector.RegionConfig{{
			ID: regionTelemetry,
			Elements: []datavector.ElementConfig{
				{ID: elemTemp, Type: datavector.TypeF32, InitialValue: datavector.F32(20.0)},
				{ID: elemArmed, Type: datavector.TypeBool, InitialValue: datavector.Bool(false)},
			},
		}},
	})
	require.Nil(t, err)
	return dv
}

func TestCSVModeWritesHeaderOnce(t *testing.T) {
	dv := newTestVector(t)
	clock, err := fswtime.Init()
	require.Nil(t, err)

	path := filepath.Join(t.TempDir(), "dv.csv")
	logger, lerr := Create(Config{
		DV:           dv,
		Clock:        clock,
		RegionsToLog: []datavector.RegionID{regionTelemetry},
		ElementNames: map[datavector.ElementID]string{elemTemp: "temp_c", elemArmed: "armed"},
		Mode:         ModeCSV,
		LogFilePath:  path,
	})
	require.Nil(t, lerr)
	defer logger.Close()

	require.Nil(t, logger.Snapshot())
	require.Nil(t, logger.Snapshot())

	contents, rerr := os.ReadFile(path)
	require.NoError(t, rerr)

	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	require.Len(t, lines, 3) // header + 2 rows
	require.Equal(t, "now_ns,temp_c,armed", lines[0])
}

func TestWatchModeKeepsBoundedRing(t *testing.T) {
	dv := newTestVector(t)
	clock, err := fswtime.Init()
	require.Nil(t, err)

	logger, lerr := Create(Config{
		DV:            dv,
		Clock:         clock,
		RegionsToLog:  []datavector.RegionID{regionTelemetry},
		Mode:          ModeWatch,
		WatchRingSize: 2,
	})
	require.Nil(t, lerr)

	require.Nil(t, dv.WriteTyped(elemTemp, datavector.F32(1)))
	require.Nil(t, logger.Snapshot())
	require.Nil(t, dv.WriteTyped(elemTemp, datavector.F32(2)))
	require.Nil(t, logger.Snapshot())
	require.Nil(t, dv.WriteTyped(elemTemp, datavector.F32(3)))
	require.Nil(t, logger.Snapshot())

	snapshots := logger.Watch()
	require.Len(t, snapshots, 2, "ring size is 2, oldest snapshot must be evicted")
	require.Equal(t, float32(2), snapshots[0][0].AsF32())
	require.Equal(t, float32(3), snapshots[1][0].AsF32())
}
