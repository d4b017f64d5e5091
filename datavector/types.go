package datavector

import "math"

// ElementID identifies a scalar slot in the Data Vector. IDs are drawn from
// a single dense, process-wide namespace; callers define their own named
// constants (e.g. in package cmdhandler or statemachine) typed as
// ElementID.
type ElementID uint32

// RegionID identifies a contiguous, named group of elements forming one
// on-wire message payload.
type RegionID uint32

// ElementType is the closed set of scalar types an element may hold. This is
// the "type enum" side of the sum-type design described in the module's
// design notes: every read, write, and TypedValue carries one of these as
// its discriminant, and every dispatch on it is a single switch rather than
// ad-hoc polymorphism.
type ElementType uint8

const (
	TypeU8 ElementType = iota
	TypeU16
	TypeU32
	TypeU64
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeF32
	TypeF64
	TypeBool
)

// byteWidth returns the natural width of the type on a little-endian host,
// or 0 if t is not one of the eleven valid discriminants.
func (t ElementType) byteWidth() int {
	switch t {
	case TypeU8, TypeI8, TypeBool:
		return 1
	case TypeU16, TypeI16:
		return 2
	case TypeU32, TypeI32, TypeF32:
		return 4
	case TypeU64, TypeI64, TypeF64:
		return 8
	default:
		return 0
	}
}

func (t ElementType) valid() bool {
	return t.byteWidth() != 0
}

func (t ElementType) String() string {
	switch t {
	case TypeU8:
		return "u8"
	case TypeU16:
		return "u16"
	case TypeU32:
		return "u32"
	case TypeU64:
		return "u64"
	case TypeI8:
		return "i8"
	case TypeI16:
		return "i16"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	case TypeBool:
		return "bool"
	default:
		return "undefined"
	}
}

// TypedValue is the sum-type value carrier described in the design notes: a
// single runtime representation for all eleven element types, discriminated
// by Type. Actions and Transitions each carry one as their literal/target
// value and do all of their Data Vector work through WriteTyped/ReadTyped,
// so neither package needs a type parameter of its own.
//
// bits holds the value's natural-width bytes zero-extended (unsigned and
// bool) or sign-extended-then-masked (signed) into a uint64, and for floats
// holds the IEEE-754 bit pattern from math.Float32bits/Float64bits. The
// value always carries its own discriminant and is only ever produced by
// the typed constructors below, never by an unchecked reinterpret of a
// raw uint64.
type TypedValue struct {
	Type ElementType
	bits uint64
}

func U8(v uint8) TypedValue   { return TypedValue{Type: TypeU8, bits: uint64(v)} }
func U16(v uint16) TypedValue { return TypedValue{Type: TypeU16, bits: uint64(v)} }
func U32(v uint32) TypedValue { return TypedValue{Type: TypeU32, bits: uint64(v)} }
func U64(v uint64) TypedValue { return TypedValue{Type: TypeU64, bits: v} }
func I8(v int8) TypedValue    { return TypedValue{Type: TypeI8, bits: uint64(uint8(v))} }
func I16(v int16) TypedValue  { return TypedValue{Type: TypeI16, bits: uint64(uint16(v))} }
func I32(v int32) TypedValue  { return TypedValue{Type: TypeI32, bits: uint64(uint32(v))} }
func I64(v int64) TypedValue  { return TypedValue{Type: TypeI64, bits: uint64(v)} }
func F32(v float32) TypedValue {
	return TypedValue{Type: TypeF32, bits: uint64(math.Float32bits(v))}
}
func F64(v float64) TypedValue { return TypedValue{Type: TypeF64, bits: math.Float64bits(v)} }
func Bool(v bool) TypedValue {
	var b uint64
	if v {
		b = 1
	}
	return TypedValue{Type: TypeBool, bits: b}
}

func (v TypedValue) AsU8() uint8    { return uint8(v.bits) }
func (v TypedValue) AsU16() uint16  { return uint16(v.bits) }
func (v TypedValue) AsU32() uint32  { return uint32(v.bits) }
func (v TypedValue) AsU64() uint64  { return v.bits }
func (v TypedValue) AsI8() int8     { return int8(uint8(v.bits)) }
func (v TypedValue) AsI16() int16   { return int16(uint16(v.bits)) }
func (v TypedValue) AsI32() int32   { return int32(uint32(v.bits)) }
func (v TypedValue) AsI64() int64   { return int64(v.bits) }
func (v TypedValue) AsF32() float32 { return math.Float32frombits(uint32(v.bits)) }
func (v TypedValue) AsF64() float64 { return math.Float64frombits(v.bits) }
func (v TypedValue) AsBool() bool   { return v.bits != 0 }

// FromCommandWriteValue narrows a Command Handler write_value (u64) to the
// destination type: truncation for integers, bit-cast via the low bytes
// for floats, and value != 0 for bool.
func FromCommandWriteValue(t ElementType, raw uint64) TypedValue {
	switch t {
	case TypeU8:
		return U8(uint8(raw))
	case TypeU16:
		return U16(uint16(raw))
	case TypeU32:
		return U32(uint32(raw))
	case TypeU64:
		return U64(raw)
	case TypeI8:
		return I8(int8(uint8(raw)))
	case TypeI16:
		return I16(int16(uint16(raw)))
	case TypeI32:
		return I32(int32(uint32(raw)))
	case TypeI64:
		return I64(int64(raw))
	case TypeF32:
		return F32(math.Float32frombits(uint32(raw)))
	case TypeF64:
		return F64(math.Float64frombits(raw))
	case TypeBool:
		return Bool(raw != 0)
	default:
		return TypedValue{}
	}
}
