package datavector

import (
	"sync"
	"testing"

	"github.com/nsp-rocket/fsw/ferr"
	"github.com/stretchr/testify/require"
)

const (
	elemTickCount ElementID = 1
	elemTemp      ElementID = 2
	elemArmed     ElementID = 3
	elemMode      ElementID = 4

	regionTelemetry RegionID = 1
	regionCommand   RegionID = 2
)

func testConfig() Config {
	return Config{
		Regions: []RegionConfig{
			{
				ID:   regionTelemetry,
				Name: "telemetry",
				Elements: []ElementConfig{
					{ID: elemTickCount, Name: "tick_count", Type: TypeU32, InitialValue: U32(0)},
					{ID: elemTemp, Name: "temp_c", Type: TypeF32, InitialValue: F32(20.0)},
				},
			},
			{
				ID:   regionCommand,
				Name: "command",
				Elements: []ElementConfig{
					{ID: elemArmed, Name: "armed", Type: TypeBool, InitialValue: Bool(false)},
					{ID: elemMode, Name: "mode", Type: TypeU8, InitialValue: U8(0)},
				},
			},
		},
	}
}

func TestCreateRejectsEmptyConfig(t *testing.T) {
	_, err := Create(Config{})
	require.NotNil(t, err)
	require.Equal(t, ferr.KindEmptyConfig, err.Code)
}

func TestCreateRejectsDuplicateRegion(t *testing.T) {
	cfg := testConfig()
	cfg.Regions = append(cfg.Regions, cfg.Regions[0])
	_, err := Create(cfg)
	require.NotNil(t, err)
	require.Equal(t, ferr.KindDuplicateRegion, err.Code)
}

func TestCreateRejectsMismatchedInitialValueType(t *testing.T) {
	cfg := testConfig()
	cfg.Regions[0].Elements[0].InitialValue = Bool(true)
	_, err := Create(cfg)
	require.NotNil(t, err)
	require.Equal(t, ferr.KindInvalidType, err.Code)
}

func TestReadWriteRoundTrip(t *testing.T) {
	dv, err := Create(testConfig())
	require.Nil(t, err)

	require.Nil(t, dv.WriteTyped(elemTemp, F32(21.5)))
	v, err := dv.ReadTyped(elemTemp)
	require.Nil(t, err)
	require.Equal(t, float32(21.5), v.AsF32())
}

func TestWriteRejectsWrongType(t *testing.T) {
	dv, err := Create(testConfig())
	require.Nil(t, err)

	err = dv.WriteTyped(elemTemp, U32(5))
	require.NotNil(t, err)
	require.Equal(t, ferr.KindIncorrectType, err.Code)
}

func TestUnknownElementIsInvalidElem(t *testing.T) {
	dv, err := Create(testConfig())
	require.Nil(t, err)

	_, err = dv.ReadTyped(ElementID(999))
	require.NotNil(t, err)
	require.Equal(t, ferr.KindInvalidElem, err.Code)
}

func TestIncrementSaturatesAtMax(t *testing.T) {
	dv, err := Create(testConfig())
	require.Nil(t, err)
	require.Nil(t, dv.WriteTyped(elemMode, U8(^uint8(0))))

	err = dv.Increment(elemMode)
	require.NotNil(t, err)
	require.Equal(t, ferr.KindAlreadyMax, err.Code)
}

func TestIncrementRejectsNonIntegerElement(t *testing.T) {
	dv, err := Create(testConfig())
	require.Nil(t, err)

	err = dv.Increment(elemTemp)
	require.NotNil(t, err)
	require.Equal(t, ferr.KindInvalidType, err.Code)
}

func TestReadWriteRegionRoundTrip(t *testing.T) {
	dv, err := Create(testConfig())
	require.Nil(t, err)

	err = dv.WriteRegion(regionTelemetry, []TypedValue{U32(42), F32(99.0)})
	require.Nil(t, err)

	values, err := dv.ReadRegion(regionTelemetry)
	require.Nil(t, err)
	require.Equal(t, uint32(42), values[0].AsU32())
	require.Equal(t, float32(99.0), values[1].AsF32())
}

func TestWriteRegionRejectsSizeMismatch(t *testing.T) {
	dv, err := Create(testConfig())
	require.Nil(t, err)

	err = dv.WriteRegion(regionTelemetry, []TypedValue{U32(1)})
	require.NotNil(t, err)
	require.Equal(t, ferr.KindVectorsDiffSizes, err.Code)
}

func TestGenericReadWrite(t *testing.T) {
	dv, err := Create(testConfig())
	require.Nil(t, err)

	require.Nil(t, Write(dv, elemArmed, true))
	got, err := Read[bool](dv, elemArmed)
	require.Nil(t, err)
	require.True(t, got)
}

func TestGenericReadRejectsWrongGoType(t *testing.T) {
	dv, err := Create(testConfig())
	require.Nil(t, err)

	_, err = Read[uint32](dv, elemArmed)
	require.NotNil(t, err)
	require.Equal(t, ferr.KindIncorrectType, err.Code)
}

func TestAcquireLockDetectsSameGoroutineDoubleLock(t *testing.T) {
	dv, err := Create(testConfig())
	require.Nil(t, err)

	require.Nil(t, dv.AcquireLock())
	defer dv.ReleaseLock()

	err = dv.AcquireLock()
	require.NotNil(t, err)
	require.Equal(t, ferr.KindFailedToLock, err.Code)
}

func TestReleaseLockWithoutHoldingIsFailedToUnlock(t *testing.T) {
	dv, err := Create(testConfig())
	require.Nil(t, err)

	err = dv.ReleaseLock()
	require.NotNil(t, err)
	require.Equal(t, ferr.KindFailedToUnlock, err.Code)
}

func TestConcurrentIncrementIsSerialized(t *testing.T) {
	dv, err := Create(testConfig())
	require.Nil(t, err)

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_ = dv.Increment(elemTickCount)
		}()
	}
	wg.Wait()

	v, err := dv.ReadTyped(elemTickCount)
	require.Nil(t, err)
	require.Equal(t, uint32(writers), v.AsU32())
}
