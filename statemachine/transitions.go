package statemachine

import (
	"math"

	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
)

// Comparison is the operator a Transition guard uses to compare an
// element's current value against its configured literal.
type Comparison uint8

const (
	CompareEq Comparison = iota
	CompareNe
	CompareLt
	CompareLe
	CompareGt
	CompareGe
)

// StateID identifies one state in a StateMachine.
type StateID uint32

// TransitionConfig is one ordered guard: if Element's current value,
// compared to Literal via Comparison, holds true, the machine moves to
// Target.
type TransitionConfig struct {
	Element    datavector.ElementID
	Literal    datavector.TypedValue
	Comparison Comparison
	Target     StateID
}

// Transitions is one state's ordered list of guards. Guards are evaluated
// in list order and the first that holds true wins (config authors choose
// priority purely by list position); if none hold, Check reports
// should=false.
type Transitions struct {
	dv      *datavector.DataVector
	guards  []TransitionConfig
}

// CreateTransitions validates and builds a guard list. Validation matches
// Actions' (non-nil dv, element exists, type matches) minus the
// state-element prohibition. A transition reading the state element is
// exactly how a machine would implement "stay until some other state sets
// me," which is legitimate.
func CreateTransitions(dv *datavector.DataVector, configs []TransitionConfig) (*Transitions, *ferr.Error) {
	const op = "Transitions.Create"

	if dv == nil {
		return nil, ferr.New(op, ferr.KindDataVectorNull, "data vector is nil")
	}
	for _, c := range configs {
		typ, err := dv.TypeOf(c.Element)
		if err != nil {
			return nil, ferr.New(op, ferr.KindInvalidElem, "transition element not configured in data vector")
		}
		if typ != c.Literal.Type {
			return nil, ferr.New(op, ferr.KindIncorrectType, "transition literal type does not match element type")
		}
	}

	return &Transitions{dv: dv, guards: append([]TransitionConfig(nil), configs...)}, nil
}

// Check evaluates each guard in order and returns the first whose
// comparison holds, along with its target state. should is false if none
// hold.
func (t *Transitions) Check() (should bool, target StateID, err *ferr.Error) {
	for _, g := range t.guards {
		current, rerr := t.dv.ReadTyped(g.Element)
		if rerr != nil {
			return false, 0, rerr
		}
		holds, cerr := compare(current, g.Literal, g.Comparison)
		if cerr != nil {
			return false, 0, cerr
		}
		if holds {
			return true, g.Target, nil
		}
	}
	return false, 0, nil
}

// compare applies op to (lhs op rhs). Floats use the platform's native
// comparisons, so any NaN operand makes every comparison false except Ne,
// which holds.
func compare(lhs, rhs datavector.TypedValue, op Comparison) (bool, *ferr.Error) {
	const errOp = "Transitions.compare"

	switch lhs.Type {
	case datavector.TypeF32:
		return compareFloat(float64(lhs.AsF32()), float64(rhs.AsF32()), op), nil
	case datavector.TypeF64:
		return compareFloat(lhs.AsF64(), rhs.AsF64(), op), nil
	case datavector.TypeBool:
		return compareBool(lhs.AsBool(), rhs.AsBool(), op)
	case datavector.TypeI8, datavector.TypeI16, datavector.TypeI32, datavector.TypeI64:
		return compareInt(signedOf(lhs), signedOf(rhs), op), nil
	case datavector.TypeU8, datavector.TypeU16, datavector.TypeU32, datavector.TypeU64:
		return compareUint(lhs.AsU64(), rhs.AsU64(), op), nil
	default:
		return false, ferr.New(errOp, ferr.KindInvalidType, "element has no defined ordering")
	}
}

func signedOf(v datavector.TypedValue) int64 {
	switch v.Type {
	case datavector.TypeI8:
		return int64(v.AsI8())
	case datavector.TypeI16:
		return int64(v.AsI16())
	case datavector.TypeI32:
		return int64(v.AsI32())
	default:
		return v.AsI64()
	}
}

func compareFloat(lhs, rhs float64, op Comparison) bool {
	if math.IsNaN(lhs) || math.IsNaN(rhs) {
		// every ordered comparison, including Eq, is false for NaN; Ne is
		// the sole exception since "not equal" holds vacuously.
		return op == CompareNe
	}
	switch op {
	case CompareEq:
		return lhs == rhs
	case CompareNe:
		return lhs != rhs
	case CompareLt:
		return lhs < rhs
	case CompareLe:
		return lhs <= rhs
	case CompareGt:
		return lhs > rhs
	case CompareGe:
		return lhs >= rhs
	default:
		return false
	}
}

func compareInt(lhs, rhs int64, op Comparison) bool {
	switch op {
	case CompareEq:
		return lhs == rhs
	case CompareNe:
		return lhs != rhs
	case CompareLt:
		return lhs < rhs
	case CompareLe:
		return lhs <= rhs
	case CompareGt:
		return lhs > rhs
	case CompareGe:
		return lhs >= rhs
	default:
		return false
	}
}

func compareUint(lhs, rhs uint64, op Comparison) bool {
	switch op {
	case CompareEq:
		return lhs == rhs
	case CompareNe:
		return lhs != rhs
	case CompareLt:
		return lhs < rhs
	case CompareLe:
		return lhs <= rhs
	case CompareGt:
		return lhs > rhs
	case CompareGe:
		return lhs >= rhs
	default:
		return false
	}
}

func compareBool(lhs, rhs bool, op Comparison) (bool, *ferr.Error) {
	switch op {
	case CompareEq:
		return lhs == rhs, nil
	case CompareNe:
		return lhs != rhs, nil
	default:
		return false, ferr.New("Transitions.compare", ferr.KindInvalidType,
			"bool elements only support eq/ne comparisons")
	}
}
