package tuning

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "tuning.json"))
}

func TestGetReturnsDefaults(t *testing.T) {
	s := tempStore(t)
	assert.Equal(t, 55.0, s.Get("rotation_speed_kt"))
	assert.Equal(t, -8.0, s.Get("rotate_elevator_target"))
	assert.Equal(t, 25.0, s.Get("takeoff_ground_speed_kt"))
}

func TestGetUnknownNameReturnsZero(t *testing.T) {
	s := tempStore(t)
	assert.Equal(t, 0.0, s.Get("no_such_parameter"))
}

func TestBulkSetAppliesOverride(t *testing.T) {
	s := tempStore(t)
	applied := s.BulkSet(map[string]float64{"rotation_speed_kt": 60})
	assert.Equal(t, 1, applied)
	assert.Equal(t, 60.0, s.Get("rotation_speed_kt"))
}

func TestBulkSetSkipsUnknownKeysAppliesKnown(t *testing.T) {
	s := tempStore(t)
	applied := s.BulkSet(map[string]float64{
		"rotation_speed_kt": 58,
		"bogus_parameter":   123,
	})
	assert.Equal(t, 1, applied)
	assert.Equal(t, 58.0, s.Get("rotation_speed_kt"))
	assert.Equal(t, 0.0, s.Get("bogus_parameter"))
}

func TestBulkSetClampsToBounds(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value float64
		want  float64
	}{
		{"above max", "rotation_speed_kt", 500, 90},
		{"below min", "rotation_speed_kt", 1, 40},
		{"elevator target above max", "rotate_elevator_target", 10, 0},
		{"elevator target below min", "rotate_elevator_target", -90, -30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tempStore(t)
			s.BulkSet(map[string]float64{tt.key: tt.value})
			assert.Equal(t, tt.want, s.Get(tt.key))
		})
	}
}

func TestOverridesSurviveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")

	s := NewStore(path)
	s.BulkSet(map[string]float64{"handoff_agl_ft": 400})

	reloaded := NewStore(path)
	assert.Equal(t, 400.0, reloaded.Get("handoff_agl_ft"))
	// Untouched parameters still report defaults.
	assert.Equal(t, 55.0, reloaded.Get("rotation_speed_kt"))
}

func TestParamsReportsOverrides(t *testing.T) {
	s := tempStore(t)
	s.BulkSet(map[string]float64{"rotation_speed_kt": 62})

	views := s.Params()
	require.NotEmpty(t, views)

	byName := make(map[string]ParamView, len(views))
	for _, v := range views {
		byName[v.Name] = v
	}

	rot := byName["rotation_speed_kt"]
	assert.True(t, rot.Overridden)
	assert.Equal(t, 62.0, rot.Current)
	assert.Equal(t, 55.0, rot.Default)

	vr := byName["stall_speed_clean_kt"]
	assert.False(t, vr.Overridden)
	assert.Equal(t, vr.Default, vr.Current)
	assert.NotEmpty(t, vr.Description)
}
