package telemetry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := OpenHistory(filepath.Join(t.TempDir(), "attempts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func attemptAt(started time.Time, outcome Outcome) Record {
	r := NewRecorder(2 * time.Second)
	r.Start(started)
	return r.Finalize(outcome, started.Add(30*time.Second))
}

func TestHistoryEmpty(t *testing.T) {
	h := openTestHistory(t)

	recs, err := h.LastN(5)
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, ok, err := h.LastOutcome()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHistoryAppendAndLastN(t *testing.T) {
	h := openTestHistory(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	outcomes := []Outcome{OutcomeAborted, OutcomeCrashed, OutcomeSuccess}
	var ids []string
	for i, o := range outcomes {
		rec := attemptAt(base.Add(time.Duration(i)*time.Hour), o)
		require.NoError(t, h.Append(rec))
		ids = append(ids, rec.ID)
	}

	recs, err := h.LastN(2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	// Chronological order: oldest of the window first.
	assert.Equal(t, ids[1], recs[0].ID)
	assert.Equal(t, ids[2], recs[1].ID)
	assert.Equal(t, OutcomeCrashed, recs[0].Outcome)
	assert.Equal(t, OutcomeSuccess, recs[1].Outcome)
}

func TestHistoryLastNLargerThanStored(t *testing.T) {
	h := openTestHistory(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, h.Append(attemptAt(base, OutcomeAborted)))

	recs, err := h.LastN(10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestHistoryLastOutcome(t *testing.T) {
	h := openTestHistory(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, h.Append(attemptAt(base, OutcomeCrashed)))
	require.NoError(t, h.Append(attemptAt(base.Add(time.Hour), OutcomeSuccess)))

	outcome, ok, err := h.LastOutcome()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, OutcomeSuccess, outcome)
}

func TestHistoryRecordRoundTripsDetails(t *testing.T) {
	h := openTestHistory(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	rec := attemptAt(base, OutcomeSuccess)
	rotate := 56.0
	rec.RotateSpeedKt = &rotate
	rec.SubPhasesReached = []string{"BEFORE_ROLL", "ROLL", "ROTATE"}
	require.NoError(t, h.Append(rec))

	recs, err := h.LastN(1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	got := recs[0]
	require.NotNil(t, got.RotateSpeedKt)
	assert.Equal(t, 56.0, *got.RotateSpeedKt)
	assert.Equal(t, []string{"BEFORE_ROLL", "ROLL", "ROTATE"}, got.SubPhasesReached)
	assert.True(t, got.Started.Equal(base))
}
