// Package lightcurve assembles disk-integrated fluxes of mapped surfaces
// under rotation and occultation.
package lightcurve

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sawpanic/starflux/internal/basis"
	"github.com/sawpanic/starflux/internal/rotation"
	"github.com/sawpanic/starflux/internal/solution"
	"github.com/sawpanic/starflux/internal/surface"
)

// Occultor is a disk crossing in front of the surface, positioned on the sky
// in units of the occulted radius. It only blocks light while Z is positive.
type Occultor struct {
	Radius  float64
	X, Y, Z float64
}

// impact returns the projected center separation.
func (o *Occultor) impact() float64 { return math.Hypot(o.X, o.Y) }

// blocks reports whether the occultor overlaps the visible disk.
func (o *Occultor) blocks() bool {
	return o != nil && o.Radius > 0 && o.Z > 0 && o.impact() < 1+o.Radius
}

// Evaluator caches the degree-dependent operators of one surface so many
// flux samples can share them.
type Evaluator struct {
	surf *surface.Surface
	deg  int
	proj *rotation.Projector
	pu   *basis.Pijk
	norm float64
	rt   []float64
	a1   *mat.Dense
	a2   *mat.Dense
}

// NewEvaluator precomputes the flux operators for the surface.
func NewEvaluator(s *surface.Surface) (*Evaluator, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	ydeg, udeg := s.YDeg(), s.UDeg()
	deg := ydeg + udeg

	uu := append([]float64{1}, s.U...)
	var pv mat.VecDense
	pv.MulVec(basis.U0(udeg), mat.NewVecDense(len(uu), uu))
	pu := make([]float64, basis.Size(udeg))
	for i := range pu {
		pu[i] = pv.AtVec(i)
	}

	norm := 1.0
	if s.Normalize {
		den := floats.Dot(pu, solution.RT(udeg))
		if den == 0 {
			return nil, errors.New("limb darkening law has zero net flux")
		}
		norm = math.Pi / den
	}

	a2, err := basis.A2(deg)
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		surf: s,
		deg:  deg,
		proj: rotation.NewProjector(ydeg, s.Inc, s.Obl),
		pu:   basis.PijkFromVector(pu),
		norm: norm,
		rt:   solution.RT(deg),
		a1:   basis.A1(ydeg),
		a2:   a2,
	}, nil
}

// Deg returns the combined polynomial degree of map and limb darkening.
func (e *Evaluator) Deg() int { return e.deg }

// Polynomial returns the dense surface polynomial at rotational phase theta,
// already rotated by thetaZ about the line of sight and scaled by the
// normalization and amplitude. Its dot product with an integral operator row
// is the flux.
func (e *Evaluator) Polynomial(theta, thetaZ float64) []float64 {
	y := e.proj.Left(theta, thetaZ, e.surf.YDense())
	var pv mat.VecDense
	pv.MulVec(e.a1, mat.NewVecDense(len(y), y))
	py := make([]float64, len(y))
	for i := range py {
		py[i] = pv.AtVec(i)
	}
	p := basis.MulPijk(basis.PijkFromVector(py), e.pu)
	out := p.Vector(e.deg)
	scale := e.norm * e.surf.Amplitude
	for i := range out {
		out[i] *= scale
	}
	return out
}

// operator returns the integral operator row for the geometry: the rotated
// phase integrals in plain view, the occultation integrals otherwise.
func (e *Evaluator) operator(occ *Occultor, order int) []float64 {
	if !occ.blocks() {
		return e.rt
	}
	s := solution.Vector(e.deg, occ.impact(), occ.Radius, order)
	var xv mat.VecDense
	xv.MulVec(e.a2.T(), mat.NewVecDense(len(s), s))
	x := make([]float64, len(s))
	for i := range x {
		x[i] = xv.AtVec(i)
	}
	return x
}

// Flux returns the disk-integrated flux at rotational phase theta. A nil
// occultor, an occultor behind the surface or one clear of the limb all
// reduce to the rotational phase curve.
func (e *Evaluator) Flux(occ *Occultor, theta float64, order int) float64 {
	thetaZ := 0.0
	if occ.blocks() {
		thetaZ = math.Atan2(occ.X, occ.Y)
	}
	p := e.Polynomial(theta, thetaZ)
	return floats.Dot(p, e.operator(occ, order))
}

// DesignRow returns the covector mapping dense harmonic coefficients to
// flux, so that dot(row, y) equals Flux for a map with those coefficients.
func (e *Evaluator) DesignRow(occ *Occultor, theta float64, order int) []float64 {
	thetaZ := 0.0
	if occ.blocks() {
		thetaZ = math.Atan2(occ.X, occ.Y)
	}
	x := e.operator(occ, order)

	ny := basis.Size(e.surf.YDeg())
	w := make([]float64, ny)
	col := make([]float64, ny)
	for n := 0; n < ny; n++ {
		for i := range col {
			col[i] = e.a1.At(i, n)
		}
		p := basis.MulPijk(basis.PijkFromVector(col), e.pu)
		w[n] = floats.Dot(p.Vector(e.deg), x)
	}
	row := e.proj.Right(theta, thetaZ, w)
	scale := e.norm * e.surf.Amplitude
	for i := range row {
		row[i] *= scale
	}
	return row
}

// Flux returns the disk-integrated flux of the surface at rotational phase
// theta, occulted by occ when it overlaps the disk.
func Flux(s *surface.Surface, occ *Occultor, theta float64, order int) (float64, error) {
	e, err := NewEvaluator(s)
	if err != nil {
		return 0, err
	}
	return e.Flux(occ, theta, order), nil
}

// PhaseCurve evaluates the rotational light curve at the given phases.
func PhaseCurve(s *surface.Surface, thetas []float64) ([]float64, error) {
	e, err := NewEvaluator(s)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(thetas))
	for i, th := range thetas {
		out[i] = e.Flux(nil, th, solution.DefaultOrder)
	}
	return out, nil
}

// DesignMatrix stacks one design row per phase for map inference.
func DesignMatrix(s *surface.Surface, occs []*Occultor, thetas []float64, order int) (*mat.Dense, error) {
	if len(thetas) == 0 {
		return nil, errors.New("no phases to evaluate")
	}
	if len(occs) != 0 && len(occs) != len(thetas) {
		return nil, fmt.Errorf("got %d occultors for %d phases", len(occs), len(thetas))
	}
	e, err := NewEvaluator(s)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(thetas), basis.Size(s.YDeg()), nil)
	for i, th := range thetas {
		var occ *Occultor
		if len(occs) != 0 {
			occ = occs[i]
		}
		out.SetRow(i, e.DesignRow(occ, th, order))
	}
	return out, nil
}
