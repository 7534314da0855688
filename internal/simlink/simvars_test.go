package simlink

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryContainsAllFrameVars(t *testing.T) {
	r := NewSimVarRegistry()

	for _, sv := range FrameSimVars {
		def, ok := r.Get(sv.Name)
		require.True(t, ok, "missing %s", sv.Name)
		assert.Equal(t, sv.Unit, def.Unit)
		assert.NoError(t, r.Validate(sv.Name))
	}
}

func TestValidateRejectsUnknownVar(t *testing.T) {
	r := NewSimVarRegistry()
	err := r.Validate("NO SUCH SIMVAR")
	assert.ErrorIs(t, err, ErrInvalidSimVar)
}

func TestParseSimVarValueFloat64(t *testing.T) {
	buf := binary.LittleEndian.AppendUint64(nil, math.Float64bits(55.5))

	v, err := ParseSimVarValue(buf, DataTypeFloat64)
	require.NoError(t, err)
	assert.Equal(t, 55.5, v)
}

func TestParseSimVarValueInt32(t *testing.T) {
	buf := binary.LittleEndian.AppendUint32(nil, 0xFFFFFFFF)

	v, err := ParseSimVarValue(buf, DataTypeInt32)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), v)
}

func TestParseSimVarValueShortBuffer(t *testing.T) {
	_, err := ParseSimVarValue(make([]byte, 4), DataTypeFloat64)
	assert.Error(t, err)

	_, err = ParseSimVarValue(make([]byte, 2), DataTypeInt32)
	assert.Error(t, err)
}

func TestFrameSimVarsAreAllFloat64(t *testing.T) {
	// The payload decode assumes 8 bytes per field in definition order.
	for _, sv := range FrameSimVars {
		assert.Equal(t, DataTypeFloat64, sv.DataType, sv.Name)
		assert.Equal(t, 8, sv.Size, sv.Name)
	}
}
