package datavector

import "github.com/nsp-rocket/fsw/ferr"

// ElementConfig describes one element's identity, declared type, and
// initial value. InitialValue is taken at the element's own type rather
// than a raw 64-bit carrier (see TypedValue doc comment): a config author
// can no longer hand the constructor a value of the wrong type and have
// it silently reinterpreted.
type ElementConfig struct {
	ID           ElementID
	Name         string // optional, used only by the logger and diagnostics
	Type         ElementType
	InitialValue TypedValue
}

// RegionConfig is an ordered, non-empty list of elements forming one
// contiguous on-wire payload.
type RegionConfig struct {
	ID       RegionID
	Name     string
	Elements []ElementConfig
}

// Config is the full, immutable construction config for a Data Vector.
// Regions are laid out in list order; within a region, elements are laid
// out in list order.
type Config struct {
	Regions []RegionConfig
}

func validateConfig(cfg Config) *ferr.Error {
	const op = "DataVector.Create"

	if len(cfg.Regions) == 0 {
		return ferr.New(op, ferr.KindEmptyConfig, "config has no regions")
	}

	seenRegions := make(map[RegionID]bool, len(cfg.Regions))
	seenElements := make(map[ElementID]bool)

	for _, region := range cfg.Regions {
		if seenRegions[region.ID] {
			return ferr.New(op, ferr.KindDuplicateRegion, "duplicate region id")
		}
		seenRegions[region.ID] = true

		if len(region.Elements) == 0 {
			return ferr.New(op, ferr.KindEmptyElems, "region has no elements")
		}

		regionSize := 0
		for _, elem := range region.Elements {
			if seenElements[elem.ID] {
				return ferr.New(op, ferr.KindDuplicateElem, "duplicate element id")
			}
			seenElements[elem.ID] = true

			if !elem.Type.valid() {
				return ferr.New(op, ferr.KindInvalidEnum, "element has invalid type")
			}
			if elem.InitialValue.Type != elem.Type {
				return ferr.New(op, ferr.KindInvalidType,
					"element initial value type does not match declared type")
			}

			regionSize += elem.Type.byteWidth()
		}

		if regionSize > maxRegionWireBytes {
			return ferr.New(op, ferr.KindRegionTooLarge, "region exceeds wire payload ceiling")
		}
	}

	return nil
}

// maxRegionWireBytes mirrors internal/constants.MaxRegionWireBytes. Kept as
// an unexported literal here (rather than importing internal/constants) to
// avoid a dependency edge from the package that every other package in this
// module imports.
const maxRegionWireBytes = 1024
