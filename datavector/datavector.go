// Package datavector implements the process's single typed shared-memory
// table: a fixed set of scalar elements, grouped into regions, that every
// other component reads and writes through. There is exactly one of these
// per process; it is not a singleton in the package sense (no package-level
// state) but is instead constructed once by the node assembly frame and
// handed to every consumer that needs it.
package datavector

import "github.com/nsp-rocket/fsw/ferr"

type element struct {
	typ   ElementType
	value TypedValue
}

type region struct {
	id   RegionID
	name string
	// order lists this region's element IDs in declaration order, so
	// ReadRegion/WriteRegion produce and consume bytes in the same order the
	// config declared them.
	order []ElementID
}

// DataVector is the typed table. All access goes through the single
// embedded lock; there is no per-element or per-region locking.
type DataVector struct {
	lock     errCheckMutex
	elements map[ElementID]*element
	regions  map[RegionID]*region
	regionOf map[ElementID]RegionID
}

// Create validates cfg and builds a DataVector with every element set to
// its configured initial value. No lock is required during construction:
// the vector is not reachable by any other goroutine until Create returns.
func Create(cfg Config) (*DataVector, *ferr.Error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	dv := &DataVector{
		elements: make(map[ElementID]*element),
		regions:  make(map[RegionID]*region),
		regionOf: make(map[ElementID]RegionID),
	}

	for _, rc := range cfg.Regions {
		r := &region{id: rc.ID, name: rc.Name}
		for _, ec := range rc.Elements {
			dv.elements[ec.ID] = &element{typ: ec.Type, value: ec.InitialValue}
			dv.regionOf[ec.ID] = rc.ID
			r.order = append(r.order, ec.ID)
		}
		dv.regions[rc.ID] = r
	}

	return dv, nil
}

// AcquireLock and ReleaseLock expose the vector's single mutex directly.
// Holding it excludes other goroutines from every locked operation, but
// the holder cannot read or write through the vector meanwhile: ReadTyped,
// WriteTyped, Increment, ReadRegion and WriteRegion all take the lock
// themselves and so fail with FailedToLock when called by the goroutine
// that already holds it.
func (dv *DataVector) AcquireLock() *ferr.Error {
	return dv.lock.lock("DataVector.AcquireLock")
}

func (dv *DataVector) ReleaseLock() *ferr.Error {
	return dv.lock.unlock("DataVector.ReleaseLock")
}

// ElementExists reports whether id names a configured element.
func (dv *DataVector) ElementExists(id ElementID) bool {
	_, ok := dv.elements[id]
	return ok
}

// TypeOf returns id's declared type, failing with InvalidElem if id is not
// configured.
func (dv *DataVector) TypeOf(id ElementID) (ElementType, *ferr.Error) {
	e, ok := dv.elements[id]
	if !ok {
		return 0, ferr.New("DataVector.TypeOf", ferr.KindInvalidElem, "element id not configured")
	}
	return e.typ, nil
}

// ReadTyped returns id's current value under the vector's lock.
func (dv *DataVector) ReadTyped(id ElementID) (TypedValue, *ferr.Error) {
	const op = "DataVector.ReadTyped"

	e, ok := dv.elements[id]
	if !ok {
		return TypedValue{}, ferr.New(op, ferr.KindInvalidElem, "element id not configured")
	}

	if err := dv.lock.lock(op); err != nil {
		return TypedValue{}, err
	}
	defer dv.lock.unlock(op)

	return e.value, nil
}

// WriteTyped stores v into id under the vector's lock. Fails with
// IncorrectType if v's discriminant does not match id's declared type.
// This module never silently reinterprets a write, the same as the
// construction-time initial-value check.
func (dv *DataVector) WriteTyped(id ElementID, v TypedValue) *ferr.Error {
	const op = "DataVector.WriteTyped"

	e, ok := dv.elements[id]
	if !ok {
		return ferr.New(op, ferr.KindInvalidElem, "element id not configured")
	}
	if v.Type != e.typ {
		return ferr.New(op, ferr.KindIncorrectType, "write value type does not match element type")
	}

	if err := dv.lock.lock(op); err != nil {
		return err
	}
	defer dv.lock.unlock(op)

	e.value = v
	return nil
}

// Increment adds 1 to an integer element in place, saturating at the
// type's maximum rather than wrapping. Fails with InvalidType if id is not
// an integer element, and with AlreadyMax if it already holds its type's
// maximum value. Used for per-node tick and rx/tx counters, which must
// never silently roll over.
func (dv *DataVector) Increment(id ElementID) *ferr.Error {
	const op = "DataVector.Increment"

	e, ok := dv.elements[id]
	if !ok {
		return ferr.New(op, ferr.KindInvalidElem, "element id not configured")
	}

	if err := dv.lock.lock(op); err != nil {
		return err
	}
	defer dv.lock.unlock(op)

	switch e.typ {
	case TypeU8:
		if e.value.AsU8() == ^uint8(0) {
			return ferr.New(op, ferr.KindAlreadyMax, "element already at type maximum")
		}
		e.value = U8(e.value.AsU8() + 1)
	case TypeU16:
		if e.value.AsU16() == ^uint16(0) {
			return ferr.New(op, ferr.KindAlreadyMax, "element already at type maximum")
		}
		e.value = U16(e.value.AsU16() + 1)
	case TypeU32:
		if e.value.AsU32() == ^uint32(0) {
			return ferr.New(op, ferr.KindAlreadyMax, "element already at type maximum")
		}
		e.value = U32(e.value.AsU32() + 1)
	case TypeU64:
		if e.value.AsU64() == ^uint64(0) {
			return ferr.New(op, ferr.KindAlreadyMax, "element already at type maximum")
		}
		e.value = U64(e.value.AsU64() + 1)
	case TypeI8:
		if e.value.AsI8() == 1<<7-1 {
			return ferr.New(op, ferr.KindAlreadyMax, "element already at type maximum")
		}
		e.value = I8(e.value.AsI8() + 1)
	case TypeI16:
		if e.value.AsI16() == 1<<15-1 {
			return ferr.New(op, ferr.KindAlreadyMax, "element already at type maximum")
		}
		e.value = I16(e.value.AsI16() + 1)
	case TypeI32:
		if e.value.AsI32() == 1<<31-1 {
			return ferr.New(op, ferr.KindAlreadyMax, "element already at type maximum")
		}
		e.value = I32(e.value.AsI32() + 1)
	case TypeI64:
		if e.value.AsI64() == 1<<63-1 {
			return ferr.New(op, ferr.KindAlreadyMax, "element already at type maximum")
		}
		e.value = I64(e.value.AsI64() + 1)
	default:
		return ferr.New(op, ferr.KindInvalidType, "element is not an integer type")
	}

	return nil
}

// ReadRegion returns every element of region id, in declaration order,
// under a single lock acquisition.
func (dv *DataVector) ReadRegion(id RegionID) ([]TypedValue, *ferr.Error) {
	const op = "DataVector.ReadRegion"

	r, ok := dv.regions[id]
	if !ok {
		return nil, ferr.New(op, ferr.KindInvalidRegion, "region id not configured")
	}

	if err := dv.lock.lock(op); err != nil {
		return nil, err
	}
	defer dv.lock.unlock(op)

	out := make([]TypedValue, len(r.order))
	for i, eid := range r.order {
		out[i] = dv.elements[eid].value
	}
	return out, nil
}

// WriteRegion stores values into region id's elements in declaration
// order. Fails with VectorsDiffSizes if len(values) does not match the
// region's element count, or IncorrectType if any value's discriminant
// does not match its element's declared type. In either failure case no
// element in the region is modified.
func (dv *DataVector) WriteRegion(id RegionID, values []TypedValue) *ferr.Error {
	const op = "DataVector.WriteRegion"

	r, ok := dv.regions[id]
	if !ok {
		return ferr.New(op, ferr.KindInvalidRegion, "region id not configured")
	}
	if len(values) != len(r.order) {
		return ferr.New(op, ferr.KindVectorsDiffSizes, "value count does not match region element count")
	}

	if err := dv.lock.lock(op); err != nil {
		return err
	}
	defer dv.lock.unlock(op)

	for i, eid := range r.order {
		if values[i].Type != dv.elements[eid].typ {
			return ferr.New(op, ferr.KindIncorrectType, "write value type does not match element type")
		}
	}
	for i, eid := range r.order {
		dv.elements[eid].value = values[i]
	}
	return nil
}

// RegionElementIDs returns region id's element ids in declaration order,
// the same order ReadRegion/WriteRegion use. Used by callers (such as the
// Data Vector Logger) that need to label values by element identity rather
// than just position.
func (dv *DataVector) RegionElementIDs(id RegionID) ([]ElementID, *ferr.Error) {
	r, ok := dv.regions[id]
	if !ok {
		return nil, ferr.New("DataVector.RegionElementIDs", ferr.KindInvalidRegion, "region id not configured")
	}
	out := make([]ElementID, len(r.order))
	copy(out, r.order)
	return out, nil
}

// RegionSizeBytes returns the on-wire byte width of region id.
func (dv *DataVector) RegionSizeBytes(id RegionID) (int, *ferr.Error) {
	r, ok := dv.regions[id]
	if !ok {
		return 0, ferr.New("DataVector.RegionSizeBytes", ferr.KindInvalidRegion, "region id not configured")
	}
	size := 0
	for _, eid := range r.order {
		size += dv.elements[eid].typ.byteWidth()
	}
	return size, nil
}

// SizeBytes returns the on-wire byte width of the whole vector.
func (dv *DataVector) SizeBytes() int {
	size := 0
	for _, e := range dv.elements {
		size += e.typ.byteWidth()
	}
	return size
}
