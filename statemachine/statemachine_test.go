package statemachine

import (
	"testing"

	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
	"github.com/stretchr/testify/require"
)

const (
	elemState   datavector.ElementID = 1
	elemCounter datavector.ElementID = 2
	elemArmed   datavector.ElementID = 3

	stateIdle  StateID = 0
	stateArmed StateID = 1
)

func newTestVector(t *testing.T) *datavector.DataVector {
	dv, err := datavector.Create(datavector.Config{
		Regions: []datavector.RegionConfig{
			{
				ID: 1,
				Elements: []datavector.ElementConfig{
					{ID: elemState, Type: datavector.TypeU32, InitialValue: datavector.U32(uint32(stateIdle))},
					{ID: elemCounter, Type: datavector.TypeU32, InitialValue: datavector.U32(0)},
					{ID: elemArmed, Type: datavector.TypeBool, InitialValue: datavector.Bool(false)},
				},
			},
		},
	})
	require.Nil(t, err)
	return dv
}

func TestActionsRejectsWriteToStateElement(t *testing.T) {
	dv := newTestVector(t)
	_, err := CreateActions(dv, elemState, []ActionConfig{
		{ElapsedNs: 0, Element: elemState, Value: datavector.U32(1)},
	})
	require.NotNil(t, err)
	require.Equal(t, ferr.KindInvalidAction, err.Code)
}

func TestActionsRejectsTypeMismatch(t *testing.T) {
	dv := newTestVector(t)
	_, err := CreateActions(dv, elemState, []ActionConfig{
		{ElapsedNs: 0, Element: elemCounter, Value: datavector.Bool(true)},
	})
	require.NotNil(t, err)
	require.Equal(t, ferr.KindIncorrectType, err.Code)
}

func TestCheckActionsFiresInOrderAndAdvancesOnce(t *testing.T) {
	dv := newTestVector(t)
	actions, err := CreateActions(dv, elemState, []ActionConfig{
		{ElapsedNs: 100, Element: elemCounter, Value: datavector.U32(1)},
		{ElapsedNs: 200, Element: elemCounter, Value: datavector.U32(2)},
	})
	require.Nil(t, err)

	due, err := actions.CheckActions(150)
	require.Nil(t, err)
	require.Len(t, due, 1)

	v, _ := dv.ReadTyped(elemCounter)
	require.Equal(t, uint32(1), v.AsU32())

	due, err = actions.CheckActions(150)
	require.Nil(t, err)
	require.Len(t, due, 0, "same bucket must not fire twice")

	due, err = actions.CheckActions(250)
	require.Nil(t, err)
	require.Len(t, due, 1)
	v, _ = dv.ReadTyped(elemCounter)
	require.Equal(t, uint32(2), v.AsU32())
}

func TestTransitionsFirstMatchWins(t *testing.T) {
	dv := newTestVector(t)
	require.Nil(t, dv.WriteTyped(elemCounter, datavector.U32(10)))

	transitions, err := CreateTransitions(dv, []TransitionConfig{
		{Element: elemCounter, Literal: datavector.U32(5), Comparison: CompareGt, Target: stateArmed},
		{Element: elemCounter, Literal: datavector.U32(10), Comparison: CompareEq, Target: stateIdle},
	})
	require.Nil(t, err)

	should, target, terr := transitions.Check()
	require.Nil(t, terr)
	require.True(t, should)
	require.Equal(t, stateArmed, target, "first matching guard wins even though the second also matches")
}

func TestFloatComparisonWithNaNIsFalse(t *testing.T) {
	dv, err := datavector.Create(datavector.Config{
		Regions: []datavector.RegionConfig{{
			ID: 1,
			Elements: []datavector.ElementConfig{
				{ID: elemCounter, Type: datavector.TypeF64, InitialValue: datavector.F64(0)},
			},
		}},
	})
	require.Nil(t, err)
	require.Nil(t, dv.WriteTyped(elemCounter, datavector.F64(0.0/zero())))

	transitions, terr := CreateTransitions(dv, []TransitionConfig{
		{Element: elemCounter, Literal: datavector.F64(0), Comparison: CompareEq, Target: stateArmed},
	})
	require.Nil(t, terr)

	should, _, err := transitions.Check()
	require.Nil(t, err)
	require.False(t, should)
}

func zero() float64 { return 0 }

func TestStateMachineRejectsDuplicateStateID(t *testing.T) {
	dv := newTestVector(t)
	_, err := Create(dv, elemState, []StateConfig{
		{ID: stateIdle},
		{ID: stateIdle},
	})
	require.NotNil(t, err)
	require.Equal(t, ferr.KindDuplicateName, err.Code)
}

func TestStateMachineFirstStateBecomesCurrent(t *testing.T) {
	dv := newTestVector(t)
	sm, err := Create(dv, elemState, []StateConfig{{ID: stateArmed}, {ID: stateIdle}})
	require.Nil(t, err)
	require.Equal(t, stateArmed, sm.Current())
}

func TestSwitchToRejectsSelfTransition(t *testing.T) {
	dv := newTestVector(t)
	sm, err := Create(dv, elemState, []StateConfig{{ID: stateIdle}, {ID: stateArmed}})
	require.Nil(t, err)

	err = sm.SwitchTo(stateIdle)
	require.NotNil(t, err)
	require.Equal(t, ferr.KindInvalidTransition, err.Code)
}

func TestSwitchToRejectsUndefinedTarget(t *testing.T) {
	dv := newTestVector(t)
	sm, err := Create(dv, elemState, []StateConfig{{ID: stateIdle}})
	require.Nil(t, err)

	err = sm.SwitchTo(StateID(99))
	require.NotNil(t, err)
	require.Equal(t, ferr.KindNameNotFound, err.Code)
}

func TestSwitchToWritesStateElementAndResetsActions(t *testing.T) {
	dv := newTestVector(t)
	armedActions, err := CreateActions(dv, elemState, []ActionConfig{
		{ElapsedNs: 0, Element: elemArmed, Value: datavector.Bool(true)},
	})
	require.Nil(t, err)

	sm, err := Create(dv, elemState, []StateConfig{
		{ID: stateIdle},
		{ID: stateArmed, Actions: armedActions},
	})
	require.Nil(t, err)

	require.Nil(t, sm.SwitchTo(stateArmed))

	v, rerr := dv.ReadTyped(elemState)
	require.Nil(t, rerr)
	require.Equal(t, uint32(stateArmed), v.AsU32())

	_, tickErr := sm.Tick(0)
	require.Nil(t, tickErr)
	armed, _ := dv.ReadTyped(elemArmed)
	require.True(t, armed.AsBool(), "armed state's action must fire from a freshly reset iterator")
}

func TestTickSwitchesAndFiresNewStateActionsFromZero(t *testing.T) {
	dv := newTestVector(t)
	armedActions, err := CreateActions(dv, elemState, []ActionConfig{
		{ElapsedNs: 0, Element: elemArmed, Value: datavector.Bool(true)},
	})
	require.Nil(t, err)

	guard, err := CreateTransitions(dv, []TransitionConfig{
		{Element: elemCounter, Literal: datavector.U32(1), Comparison: CompareGe, Target: stateArmed},
	})
	require.Nil(t, err)

	sm, err := Create(dv, elemState, []StateConfig{
		{ID: stateIdle, Transitions: guard},
		{ID: stateArmed, Actions: armedActions},
	})
	require.Nil(t, err)

	require.Nil(t, dv.WriteTyped(elemCounter, datavector.U32(1)))

	switched, tickErr := sm.Tick(500)
	require.Nil(t, tickErr)
	require.True(t, switched)
	require.Equal(t, stateArmed, sm.Current())

	armed, _ := dv.ReadTyped(elemArmed)
	require.True(t, armed.AsBool())
}
