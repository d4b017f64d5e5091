package datavector

import "github.com/nsp-rocket/fsw/ferr"

// Value is the closed set of Go types a Data Vector element can hold,
// mirroring ElementType one-for-one. It exists purely to give Read/Write a
// type-checked call site; the underlying engine is still the single
// TypedValue sum type, not a generated family of per-type functions.
type Value interface {
	uint8 | uint16 | uint32 | uint64 |
		int8 | int16 | int32 | int64 |
		float32 | float64 | bool
}

func toTypedValue[T Value](v T) TypedValue {
	switch x := any(v).(type) {
	case uint8:
		return U8(x)
	case uint16:
		return U16(x)
	case uint32:
		return U32(x)
	case uint64:
		return U64(x)
	case int8:
		return I8(x)
	case int16:
		return I16(x)
	case int32:
		return I32(x)
	case int64:
		return I64(x)
	case float32:
		return F32(x)
	case float64:
		return F64(x)
	case bool:
		return Bool(x)
	default:
		panic("datavector: unreachable Value type")
	}
}

func fromTypedValue[T Value](v TypedValue) T {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return any(v.AsU8()).(T)
	case uint16:
		return any(v.AsU16()).(T)
	case uint32:
		return any(v.AsU32()).(T)
	case uint64:
		return any(v.AsU64()).(T)
	case int8:
		return any(v.AsI8()).(T)
	case int16:
		return any(v.AsI16()).(T)
	case int32:
		return any(v.AsI32()).(T)
	case int64:
		return any(v.AsI64()).(T)
	case float32:
		return any(v.AsF32()).(T)
	case float64:
		return any(v.AsF64()).(T)
	case bool:
		return any(v.AsBool()).(T)
	default:
		panic("datavector: unreachable Value type")
	}
}

// Read returns id's current value as T, failing with IncorrectType if id's
// declared element type does not match T.
func Read[T Value](dv *DataVector, id ElementID) (T, *ferr.Error) {
	var zero T

	typ, err := dv.TypeOf(id)
	if err != nil {
		return zero, err
	}
	if want := toTypedValue(zero).Type; typ != want {
		return zero, ferr.New("datavector.Read", ferr.KindIncorrectType,
			"requested Go type does not match element's declared type")
	}

	tv, err := dv.ReadTyped(id)
	if err != nil {
		return zero, err
	}
	return fromTypedValue[T](tv), nil
}

// Write stores v into id, failing with IncorrectType if id's declared
// element type does not match T.
func Write[T Value](dv *DataVector, id ElementID, v T) *ferr.Error {
	return dv.WriteTyped(id, toTypedValue(v))
}
