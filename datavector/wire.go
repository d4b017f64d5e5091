package datavector

import (
	"encoding/binary"
	"math"

	"github.com/nsp-rocket/fsw/ferr"
)

func putElement(buf []byte, v TypedValue) int {
	switch v.Type {
	case TypeU8, TypeI8, TypeBool:
		buf[0] = byte(v.AsU64())
		return 1
	case TypeU16, TypeI16:
		binary.LittleEndian.PutUint16(buf, uint16(v.AsU64()))
		return 2
	case TypeU32, TypeI32, TypeF32:
		binary.LittleEndian.PutUint32(buf, uint32(v.AsU64()))
		return 4
	default: // TypeU64, TypeI64, TypeF64
		binary.LittleEndian.PutUint64(buf, v.AsU64())
		return 8
	}
}

func getElement(buf []byte, t ElementType) TypedValue {
	switch t {
	case TypeU8:
		return U8(buf[0])
	case TypeI8:
		return I8(int8(buf[0]))
	case TypeBool:
		return Bool(buf[0] != 0)
	case TypeU16:
		return U16(binary.LittleEndian.Uint16(buf))
	case TypeI16:
		return I16(int16(binary.LittleEndian.Uint16(buf)))
	case TypeU32:
		return U32(binary.LittleEndian.Uint32(buf))
	case TypeI32:
		return I32(int32(binary.LittleEndian.Uint32(buf)))
	case TypeF32:
		return F32(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
	case TypeU64:
		return U64(binary.LittleEndian.Uint64(buf))
	case TypeI64:
		return I64(int64(binary.LittleEndian.Uint64(buf)))
	default: // TypeF64
		return F64(math.Float64frombits(binary.LittleEndian.Uint64(buf)))
	}
}

// EncodeRegion packs region id's elements into their on-wire byte layout:
// natural little-endian width, declaration order, no headers or framing.
// This is the buffer shape Send/RecvBlock exchange over the network.
func (dv *DataVector) EncodeRegion(id RegionID) ([]byte, *ferr.Error) {
	values, err := dv.ReadRegion(id)
	if err != nil {
		return nil, err
	}

	size, err := dv.RegionSizeBytes(id)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	offset := 0
	for _, v := range values {
		offset += putElement(buf[offset:], v)
	}
	return buf, nil
}

// DecodeRegion unpacks buf (as produced by EncodeRegion, elsewhere) back
// into region id's elements. Fails with IncorrectSize if len(buf) does not
// exactly match the region's wire width.
func (dv *DataVector) DecodeRegion(id RegionID, buf []byte) *ferr.Error {
	const op = "DataVector.DecodeRegion"

	size, err := dv.RegionSizeBytes(id)
	if err != nil {
		return err
	}
	if len(buf) != size {
		return ferr.New(op, ferr.KindIncorrectSize, "buffer length does not match region wire size")
	}

	ids, err := dv.RegionElementIDs(id)
	if err != nil {
		return err
	}

	values := make([]TypedValue, len(ids))
	offset := 0
	for i, elemID := range ids {
		typ, terr := dv.TypeOf(elemID)
		if terr != nil {
			return terr
		}
		values[i] = getElement(buf[offset:], typ)
		offset += typ.byteWidth()
	}

	return dv.WriteRegion(id, values)
}
