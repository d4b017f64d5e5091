package statemachine

import (
	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
)

type state struct {
	id          StateID
	name        string
	actions     *Actions
	transitions *Transitions
}

// StateConfig is one state's full construction config.
type StateConfig struct {
	ID          StateID
	Name        string
	Actions     *Actions
	Transitions *Transitions
}

// StateMachine holds a set of states indexed by id and a current-state
// handle. The Data Vector's state element is written exclusively by
// SwitchTo; Actions' construction-time InvalidAction check is what makes
// that exclusivity structural rather than a convention.
type StateMachine struct {
	dv           *datavector.DataVector
	stateElement datavector.ElementID
	states       map[StateID]*state
	current      StateID
}

// Create consumes a list of state configs, rejecting duplicate IDs and an
// empty list. The first config in the list becomes the current state and
// its Actions iterator is reset immediately.
func Create(dv *datavector.DataVector, stateElement datavector.ElementID, configs []StateConfig) (*StateMachine, *ferr.Error) {
	const op = "StateMachine.Create"

	if dv == nil {
		return nil, ferr.New(op, ferr.KindDataVectorNull, "data vector is nil")
	}
	if len(configs) == 0 {
		return nil, ferr.New(op, ferr.KindNoStates, "state machine has no states")
	}

	states := make(map[StateID]*state, len(configs))
	for _, c := range configs {
		if _, dup := states[c.ID]; dup {
			return nil, ferr.New(op, ferr.KindDuplicateName, "duplicate state id")
		}
		states[c.ID] = &state{id: c.ID, name: c.Name, actions: c.Actions, transitions: c.Transitions}
	}

	sm := &StateMachine{
		dv:           dv,
		stateElement: stateElement,
		states:       states,
		current:      configs[0].ID,
	}
	if sm.states[sm.current].actions != nil {
		sm.states[sm.current].actions.ResetIterator()
	}

	return sm, nil
}

// Current returns the current state's id.
func (sm *StateMachine) Current() StateID {
	return sm.current
}

// Tick evaluates the current state's transitions, switching state if one
// fires, then evaluates (and executes) the current state's due actions at
// elapsedNsInState. switched reports whether a transition fired this tick;
// callers own their own elapsed-time-in-state counter and must reset it to
// zero when switched is true, since SwitchTo resets the new state's action
// schedule to start from its own zero.
func (sm *StateMachine) Tick(elapsedNsInState uint64) (switched bool, err *ferr.Error) {
	cur := sm.states[sm.current]

	if cur.transitions != nil {
		should, target, terr := cur.transitions.Check()
		if terr != nil {
			return false, terr
		}
		if should {
			if serr := sm.SwitchTo(target); serr != nil {
				return false, serr
			}
			switched = true
		}
	}

	cur = sm.states[sm.current]
	if cur.actions != nil {
		due := elapsedNsInState
		if switched {
			due = 0
		}
		if _, aerr := cur.actions.CheckActions(due); aerr != nil {
			return switched, aerr
		}
	}

	return switched, nil
}

// SwitchTo moves the machine to targetID: rejects a no-op switch to the
// current state (InvalidTransition) or an undefined target (NameNotFound),
// writes targetID into the Data Vector's state element, and resets the new
// state's action schedule.
func (sm *StateMachine) SwitchTo(targetID StateID) *ferr.Error {
	const op = "StateMachine.SwitchTo"

	if targetID == sm.current {
		return ferr.New(op, ferr.KindInvalidTransition, "switch target equals current state")
	}
	target, ok := sm.states[targetID]
	if !ok {
		return ferr.New(op, ferr.KindNameNotFound, "switch target state does not exist")
	}

	if err := sm.dv.WriteTyped(sm.stateElement, datavector.U32(uint32(targetID))); err != nil {
		return err
	}

	sm.current = targetID
	if target.actions != nil {
		target.actions.ResetIterator()
	}
	return nil
}
