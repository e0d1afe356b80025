package vaccines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDuplicate(t *testing.T) {
	existing := []VaccineDefinition{
		{ID: "a", Name: "Hepatitis B"},
		{ID: "b", Name: "Influenza"},
	}

	assert.True(t, IsDuplicate("  hepatitis b ", existing, ""))
	assert.True(t, IsDuplicate("INFLUENZA", existing, "a"))
	assert.False(t, IsDuplicate("Hepatitis B", existing, "a"), "editing the same record is not a duplicate")
	assert.False(t, IsDuplicate("Hepatitis", existing, ""))
	assert.False(t, IsDuplicate("   ", existing, ""))
	assert.False(t, IsDuplicate("Rabies", nil, ""))
}

func TestCheckStructure_TypeChangeRequiresNewFields(t *testing.T) {
	routine := TypeRoutine
	primary := TypePrimary

	_, err := CheckStructure(Form{Name: "Flu", Type: "primary", DoseCount: intPtr(1)}, &routine)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("age_group_id"))

	_, err = CheckStructure(Form{Name: "Flu", Type: "conditional"}, &routine)
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("age_group_id"))

	// primary -> routine necesita la frecuencia explícita
	_, err = CheckStructure(Form{Name: "Flu", Type: "routine"}, &primary)
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("routine_frequency"))

	n, err := CheckStructure(Form{Name: "Flu", Type: "routine", RoutineFrequency: &Interval{Value: 1}}, &primary)
	require.NoError(t, err)
	assert.Equal(t, TypeRoutine, n.Type())
}

func TestCheckStructure_SameTypeUsesDefaults(t *testing.T) {
	routine := TypeRoutine
	n, err := CheckStructure(Form{Name: "Flu", Type: "routine"}, &routine)
	require.NoError(t, err)
	assert.Equal(t, 1, n.DoseCount())

	n, err = CheckStructure(Form{Name: "Flu", Type: "routine"}, nil)
	require.NoError(t, err)
	assert.Equal(t, TypeRoutine, n.Type())
}

func TestCheckStructure_UnknownType(t *testing.T) {
	_, err := CheckStructure(Form{Name: "Flu", Type: "seasonal"}, nil)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("type"))
}

func TestSubmission_Transitions(t *testing.T) {
	s := NewSubmission()
	require.NoError(t, s.advance(StateValidatingStructure))
	require.NoError(t, s.advance(StateValidatingDuplicate))

	// no se puede saltar la confirmación
	require.Error(t, s.advance(StatePersisting))
	assert.Equal(t, StateValidatingDuplicate, s.State())

	require.NoError(t, s.advance(StateConfirming))
	require.NoError(t, s.advance(StatePersisting))
	require.NoError(t, s.advance(StateFailedTransport))
	require.NoError(t, s.advance(StateEditing))

	assert.Equal(t, []State{
		StateEditing, StateValidatingStructure, StateValidatingDuplicate,
		StateConfirming, StatePersisting, StateFailedTransport, StateEditing,
	}, s.Trail())
}

func TestState_Terminal(t *testing.T) {
	assert.True(t, StateCommitted.Terminal())
	assert.True(t, StateCancelled.Terminal())
	assert.False(t, StateConfirming.Terminal())
	assert.False(t, CanTransition(StateCommitted, StateEditing))
}
