package lightcurve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/sawpanic/starflux/internal/solution"
	"github.com/sawpanic/starflux/internal/surface"
	"github.com/sawpanic/starflux/internal/ylm"
)

func TestFlux_UniformPlainView(t *testing.T) {
	f, err := Flux(surface.Uniform(), nil, 0, solution.DefaultOrder)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f, 1e-12, "a uniform unocculted disk has unit flux")

	f, err = Flux(surface.Uniform(), nil, 2.3, solution.DefaultOrder)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f, 1e-12, "rotation should not change a uniform disk")
}

// lensArea is the overlap area of the unit disk and a disk of radius r at
// center distance b.
func lensArea(b, r float64) float64 {
	if b >= 1+r {
		return 0
	}
	if b <= r-1 {
		return math.Pi
	}
	if b <= 1-r {
		return math.Pi * r * r
	}
	k0 := math.Acos((b*b + r*r - 1) / (2 * b * r))
	k1 := math.Acos((b*b + 1 - r*r) / (2 * b))
	kite := 0.5 * math.Sqrt(math.Max(0, (1+b+r)*(b+r-1)*(1-b+r)*(1+b-r)))
	return k1 + r*r*k0 - kite
}

func TestFlux_UniformOccultationMatchesLensArea(t *testing.T) {
	s := surface.Uniform()
	e, err := NewEvaluator(s)
	require.NoError(t, err)

	for _, tc := range []struct{ b, r float64 }{
		{0.0, 0.1},
		{0.5, 0.1},
		{0.95, 0.1},
		{1.05, 0.1},
		{0.3, 0.5},
		{0.8, 1.3},
	} {
		occ := &Occultor{Radius: tc.r, X: tc.b, Z: 1}
		got := e.Flux(occ, 0, solution.DefaultOrder)
		want := 1 - lensArea(tc.b, tc.r)/math.Pi
		assert.InDelta(t, want, got, 1e-10, "b=%g r=%g", tc.b, tc.r)
	}
}

func TestFlux_OccultorBehindOrClearIsIgnored(t *testing.T) {
	s := surface.Uniform()
	e, err := NewEvaluator(s)
	require.NoError(t, err)

	assert.Equal(t, e.Flux(nil, 0.4, 20), e.Flux(&Occultor{Radius: 0.1, X: 0.2, Z: -1}, 0.4, 20),
		"an occultor behind the surface does not block light")
	assert.Equal(t, e.Flux(nil, 0.4, 20), e.Flux(&Occultor{Radius: 0.1, X: 5, Z: 1}, 0.4, 20),
		"an occultor clear of the limb does not block light")
}

func TestFlux_QuadraticLimbDarkening(t *testing.T) {
	s := surface.Uniform()
	s.U = []float64{0.4, 0.26}
	e, err := NewEvaluator(s)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, e.Flux(nil, 0, 20), 1e-12,
		"normalization should keep the unocculted flux at one")

	// references from closed-form and high-resolution numerical integration
	for _, tc := range []struct{ b, want, tol float64 }{
		{0.0, 0.9878664434953, 1e-9},
		{0.95, 0.9940333424545, 2e-5},
		{1.0, 0.9966399350888, 2e-5},
	} {
		got := e.Flux(&Occultor{Radius: 0.1, Y: tc.b, Z: 1}, 0, 20)
		assert.InDelta(t, tc.want, got, tc.tol, "b=%g", tc.b)
	}
}

func TestFlux_LimbDarkenedMapEquivalence(t *testing.T) {
	u := []float64{0.4, 0.26}

	sU := surface.Uniform()
	sU.U = u

	y, err := ylm.FromLimbDarkening(u)
	require.NoError(t, err)
	sY := surface.New(y)
	sY.Inc = 0 // symmetry axis along the line of sight

	eU, err := NewEvaluator(sU)
	require.NoError(t, err)
	eY, err := NewEvaluator(sY)
	require.NoError(t, err)

	occs := []*Occultor{
		nil,
		{Radius: 0.1, X: 0.3, Y: 0.2, Z: 1},
		{Radius: 0.1, Y: 0.95, Z: 1},
		{Radius: 0.3, X: -0.8, Z: 1},
	}
	for i, occ := range occs {
		fu := eU.Flux(occ, 0, 20)
		fy := eY.Flux(occ, 0, 20)
		assert.InDelta(t, fu, fy, 1e-10,
			"limb darkening law and its harmonic expansion should agree (case %d)", i)
	}
}

func TestFlux_SectorDipolePhaseCurve(t *testing.T) {
	m, err := ylm.FromCoeffs(map[[2]int]float64{{1, 1}: 0.1})
	require.NoError(t, err)
	s := surface.New(m)

	thetas := []float64{0, math.Pi / 2, math.Pi, -math.Pi / 2, 0.7}
	got, err := PhaseCurve(s, thetas)
	require.NoError(t, err)

	amp := 2 / math.Sqrt(3) * 0.1
	for i, th := range thetas {
		assert.InDelta(t, 1-amp*math.Sin(th), got[i], 1e-10,
			"edge-on sector dipole should modulate as a sine (theta=%g)", th)
	}
}

func TestFlux_AmplitudeScales(t *testing.T) {
	s := surface.Uniform()
	s.Amplitude = 0.25
	f, err := Flux(s, nil, 0, 20)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, f, 1e-12)
}

func TestDesignRow_MatchesFlux(t *testing.T) {
	m, err := ylm.FromCoeffs(map[[2]int]float64{
		{1, -1}: 0.2, {1, 1}: -0.1, {2, 0}: 0.15, {2, -2}: 0.05,
	})
	require.NoError(t, err)
	s := surface.New(m)
	s.U = []float64{0.3}
	s.Obl = 0.2

	e, err := NewEvaluator(s)
	require.NoError(t, err)
	yd := s.YDense()

	for _, occ := range []*Occultor{nil, {Radius: 0.2, X: 0.5, Y: -0.4, Z: 1}} {
		for _, th := range []float64{0, 1.1} {
			row := e.DesignRow(occ, th, 20)
			require.Len(t, row, len(yd))
			assert.InDelta(t, e.Flux(occ, th, 20), floats.Dot(row, yd), 1e-10,
				"design row should reproduce the flux")
		}
	}
}

func TestDesignMatrix_ShapeAndErrors(t *testing.T) {
	s := surface.Uniform()

	dm, err := DesignMatrix(s, nil, []float64{0, 1, 2}, 20)
	require.NoError(t, err)
	r, c := dm.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 1, c)
	assert.InDelta(t, 1.0, dm.At(0, 0), 1e-12, "uniform design entry is the full disk flux")

	_, err = DesignMatrix(s, []*Occultor{{Radius: 0.1}}, []float64{0, 1}, 20)
	assert.Error(t, err, "occultor count must match phase count")

	_, err = DesignMatrix(s, nil, nil, 20)
	assert.Error(t, err)
}

func TestNewEvaluator_RejectsInvalidSurface(t *testing.T) {
	s := surface.Uniform()
	s.U = []float64{math.Inf(1)}
	_, err := NewEvaluator(s)
	assert.Error(t, err)
}
