package datavector

import (
	"testing"

	"github.com/nsp-rocket/fsw/ferr"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRegionRoundTrip(t *testing.T) {
	dv, err := Create(Config{
		Regions: []RegionConfig{{
			ID: 1,
			Elements: []ElementConfig{
				{ID: 1, Type: TypeU32, InitialValue: U32(0xdeadbeef)},
				{ID: 2, Type: TypeF32, InitialValue: F32(3.25)},
				{ID: 3, Type: TypeBool, InitialValue: Bool(true)},
				{ID: 4, Type: TypeI16, InitialValue: I16(-42)},
			},
		}},
	})
	require.Nil(t, err)

	buf, err := dv.EncodeRegion(1)
	require.Nil(t, err)
	require.Len(t, buf, 4+4+1+2)

	other, err := Create(Config{
		Regions: []RegionConfig{{
			ID: 1,
			Elements: []ElementConfig{
				{ID: 1, Type: TypeU32, InitialValue: U32(0)},
				{ID: 2, Type: TypeF32, InitialValue: F32(0)},
				{ID: 3, Type: TypeBool, InitialValue: Bool(false)},
				{ID: 4, Type: TypeI16, InitialValue: I16(0)},
			},
		}},
	})
	require.Nil(t, err)

	require.Nil(t, other.DecodeRegion(1, buf))

	v1, _ := other.ReadTyped(1)
	require.Equal(t, uint32(0xdeadbeef), v1.AsU32())
	v2, _ := other.ReadTyped(2)
	require.Equal(t, float32(3.25), v2.AsF32())
	v3, _ := other.ReadTyped(3)
	require.True(t, v3.AsBool())
	v4, _ := other.ReadTyped(4)
	require.Equal(t, int16(-42), v4.AsI16())
}

func TestDecodeRegionRejectsWrongSize(t *testing.T) {
	dv, err := Create(Config{
		Regions: []RegionConfig{{
			ID: 1,
			Elements: []ElementConfig{{ID: 1, Type: TypeU32, InitialValue: U32(0)}},
		}},
	})
	require.Nil(t, err)

	err2 := dv.DecodeRegion(1, []byte{1, 2, 3})
	require.NotNil(t, err2)
	require.Equal(t, ferr.KindIncorrectSize, err2.Code)
}
