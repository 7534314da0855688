package learning

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "learnings.json"))
}

func TestAddCreatesEntry(t *testing.T) {
	s := tempStore(t)
	e := s.Add("rotate later in gusty wind", 70)

	assert.Equal(t, 1, e.ID)
	assert.Equal(t, 70, e.Confidence)
	assert.Equal(t, 1, e.Reinforcement)
	assert.False(t, e.Created.IsZero())
	assert.Equal(t, 1, s.Len())
}

func TestAddIdenticalTextReinforcesInsteadOfDuplicating(t *testing.T) {
	s := tempStore(t)
	first := s.Add("elevator ramp too aggressive", 60)
	second := s.Add("elevator ramp too aggressive", 60)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Reinforcement)
	assert.Equal(t, 1, s.Len())
	// Reinforcement bumps confidence.
	assert.Greater(t, second.Confidence, 60)
}

func TestAddNormalizedMatchReinforces(t *testing.T) {
	s := tempStore(t)
	s.Add("Elevator ramp too aggressive.", 50)
	e := s.Add("  elevator   ramp too aggressive", 80)

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, e.Reinforcement)
	// Higher submitted confidence wins over the bump.
	assert.Equal(t, 80, e.Confidence)
}

func TestAddClampsConfidence(t *testing.T) {
	s := tempStore(t)
	e := s.Add("overspeed margin too small", 150)
	assert.Equal(t, 100, e.Confidence)
}

func TestRemove(t *testing.T) {
	s := tempStore(t)
	e := s.Add("needs more right rudder on roll", 40)

	require.NoError(t, s.Remove(e.ID))
	assert.Equal(t, 0, s.Len())

	assert.ErrorIs(t, s.Remove(e.ID), ErrNotFound)
}

func TestIDsNotReusedAfterRemove(t *testing.T) {
	s := tempStore(t)
	first := s.Add("first", 10)
	require.NoError(t, s.Remove(first.ID))

	second := s.Add("second", 10)
	assert.Greater(t, second.ID, first.ID)
}

func TestEntriesSurviveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learnings.json")

	s := NewStore(path)
	s.Add("hold centerline with rudder not aileron", 85)
	s.Add("hold centerline with rudder not aileron", 85)

	reloaded := NewStore(path)
	require.Equal(t, 1, reloaded.Len())
	e := reloaded.Entries()[0]
	assert.Equal(t, 2, e.Reinforcement)

	// New entries continue the persisted ID sequence.
	next := reloaded.Add("different observation", 30)
	assert.Equal(t, e.ID+1, next.ID)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello world"},
		{"  spaced   out  ", "spaced out"},
		{"trailing period.", "trailing period"},
		{"exclaim!", "exclaim"},
		{"UPPER. ", "upper"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}
