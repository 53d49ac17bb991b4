package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformNormalizesDirectionAndAppliesIntensity(t *testing.T) {
	l := NewLighting(
		WithDirection(0, -2, 0),
		WithColor(1, 0.5, 0.25),
		WithIntensity(2),
		WithAmbient(0.1, 0.2, 0.3),
	)
	u := l.Uniform()

	assert.Equal(t, [4]float32{0, -1, 0, 0}, u.Direction)
	assert.Equal(t, [4]float32{2, 1, 0.5, 1}, u.Color)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, u.Ambient)
}

func TestLightingMarshal(t *testing.T) {
	u := NewLighting(WithAmbient(0.5, 0.5, 0.5)).Uniform()
	buf := u.Marshal()
	require.Len(t, buf, 48)
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[32:])))
}
