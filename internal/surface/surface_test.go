package surface

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/starflux/internal/ylm"
)

func TestNew_Defaults(t *testing.T) {
	s := New(nil)
	assert.Equal(t, math.Pi/2, s.Inc)
	assert.Equal(t, 1.0, s.Amplitude)
	assert.True(t, s.Normalize)
	require.NoError(t, s.Validate())
}

func TestDeg_CombinesMapAndLimbDarkening(t *testing.T) {
	m, err := ylm.FromCoeffs(map[[2]int]float64{{2, 1}: 0.1})
	require.NoError(t, err)

	s := New(m)
	s.U = []float64{0.4, 0.26}
	assert.Equal(t, 2, s.YDeg())
	assert.Equal(t, 2, s.UDeg())
	assert.Equal(t, 4, s.Deg())
}

func TestYDense_UniformFallback(t *testing.T) {
	assert.Equal(t, []float64{1}, Uniform().YDense())
}

func TestRotationPhase(t *testing.T) {
	s := Uniform()
	assert.Zero(t, s.RotationPhase(3.5), "no period means no rotation")

	s.Period = 2
	assert.InDelta(t, math.Pi, s.RotationPhase(1), 1e-15)
	assert.InDelta(t, 2*math.Pi, s.RotationPhase(2), 1e-15)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	s := Uniform()
	s.U = []float64{math.NaN()}
	assert.Error(t, s.Validate())

	s = Uniform()
	s.Period = -1
	assert.Error(t, s.Validate())

	s = Uniform()
	s.Amplitude = math.Inf(1)
	assert.Error(t, s.Validate())
}
