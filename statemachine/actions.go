// Package statemachine implements the time-indexed Action/ordered-Transition
// state machine every node's flight logic is built from: a set of named
// states, each carrying a schedule of Data Vector writes keyed by elapsed
// time in state, and an ordered list of guarded transitions out of it.
package statemachine

import (
	"sort"

	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
)

// Action is a single scheduled write: on firing, it writes Value into
// Element.
type Action struct {
	Element datavector.ElementID
	Value   datavector.TypedValue
}

func (a Action) execute(dv *datavector.DataVector) *ferr.Error {
	return dv.WriteTyped(a.Element, a.Value)
}

type actionBucket struct {
	elapsedNs uint64
	actions   []Action
}

// Actions holds one state's full write schedule: an ordered map from
// elapsed-ns-in-state to the actions due at that instant, plus a cursor
// that advances monotonically across calls to CheckActions within a single
// state sojourn. ResetIterator rewinds the cursor to the start and must be
// called on state entry.
type Actions struct {
	dv      *datavector.DataVector
	buckets []actionBucket
	cursor  int
}

// ActionConfig is one (elapsed_ns, element, value) schedule entry.
type ActionConfig struct {
	ElapsedNs uint64
	Element   datavector.ElementID
	Value     datavector.TypedValue
}

// CreateActions validates and builds an Actions schedule. dv must be
// non-nil; every referenced element must exist in dv and its declared type
// must match the action's value type; no action may target stateElement.
// State changes are reserved to the StateMachine's SwitchTo, and allowing
// an Action to also write the state element would let two different paths
// change state.
func CreateActions(dv *datavector.DataVector, stateElement datavector.ElementID, configs []ActionConfig) (*Actions, *ferr.Error) {
	const op = "Actions.Create"

	if dv == nil {
		return nil, ferr.New(op, ferr.KindDataVectorNull, "data vector is nil")
	}

	grouped := make(map[uint64][]Action)
	for _, c := range configs {
		if c.Element == stateElement {
			return nil, ferr.New(op, ferr.KindInvalidAction, "action may not target the state element")
		}
		typ, err := dv.TypeOf(c.Element)
		if err != nil {
			return nil, ferr.New(op, ferr.KindInvalidElem, "action element not configured in data vector")
		}
		if typ != c.Value.Type {
			return nil, ferr.New(op, ferr.KindIncorrectType, "action value type does not match element type")
		}
		grouped[c.ElapsedNs] = append(grouped[c.ElapsedNs], Action{Element: c.Element, Value: c.Value})
	}

	keys := make([]uint64, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	buckets := make([]actionBucket, len(keys))
	for i, k := range keys {
		buckets[i] = actionBucket{elapsedNs: k, actions: grouped[k]}
	}

	return &Actions{dv: dv, buckets: buckets}, nil
}

// ResetIterator rewinds the due-action cursor to the beginning of the
// schedule. Must be called whenever the owning state is (re-)entered.
func (a *Actions) ResetIterator() {
	a.cursor = 0
}

// CheckActions advances the cursor past every bucket whose elapsed-ns key
// is <= elapsedNs, executing each bucket's writes in schedule order, and
// returns the full list of actions that fired. Returns the first error
// encountered; buckets already executed before the failing one are not
// rolled back. Writes execute in place and the first failure is reported;
// there is no transactional write in this module.
func (a *Actions) CheckActions(elapsedNs uint64) ([]Action, *ferr.Error) {
	var due []Action
	for a.cursor < len(a.buckets) && a.buckets[a.cursor].elapsedNs <= elapsedNs {
		bucket := a.buckets[a.cursor]
		for _, act := range bucket.actions {
			if err := act.execute(a.dv); err != nil {
				return due, err
			}
			due = append(due, act)
		}
		a.cursor++
	}
	return due, nil
}
