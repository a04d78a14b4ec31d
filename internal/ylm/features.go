package ylm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sawpanic/starflux/internal/basis"
	"github.com/sawpanic/starflux/internal/rotation"
)

const (
	profilePoints = 1000
	profileRidge  = 1e-9
	edgeSteepness = 300.0
)

// profileDesign returns the smoothed ridge-regularized inverse design matrix
// taking a sampled colatitude profile to zonal harmonic coefficients, along
// with the colatitude sample points. A negative smoothing selects the
// degree-dependent default.
func profileDesign(ydeg int, smoothing float64) (*mat.Dense, []float64, error) {
	if ydeg < 0 {
		return nil, nil, fmt.Errorf("negative harmonic degree %d", ydeg)
	}
	if smoothing < 0 {
		if ydeg < 4 {
			smoothing = 0.5
		} else {
			smoothing = 2 / float64(ydeg)
		}
	}
	thetas := make([]float64, profilePoints)
	for i := range thetas {
		thetas[i] = math.Pi * float64(i) / float64(profilePoints-1)
	}
	design := mat.NewDense(profilePoints, ydeg+1, nil)
	for t, th := range thetas {
		c := math.Cos(th)
		for l := 0; l <= ydeg; l++ {
			design.Set(t, l, math.Sqrt(float64(2*l+1))*basis.LegendreP(l, c))
		}
	}
	var gram mat.Dense
	gram.Mul(design.T(), design)
	for l := 0; l <= ydeg; l++ {
		gram.Set(l, l, gram.At(l, l)+profileRidge)
	}
	var inv mat.Dense
	if err := inv.Solve(&gram, design.T()); err != nil {
		return nil, nil, fmt.Errorf("fitting colatitude profile basis: %w", err)
	}
	for l := 0; l <= ydeg; l++ {
		s := math.Exp(-0.5 * float64(l*(l+1)) * smoothing * smoothing)
		for t := 0; t < profilePoints; t++ {
			inv.Set(l, t, inv.At(l, t)*s)
		}
	}
	return &inv, thetas, nil
}

// zonalFit projects a colatitude profile onto zonal harmonics and returns the
// expansion as a dense map vector.
func zonalFit(ydeg int, profile func(theta float64) float64) ([]float64, error) {
	inv, thetas, err := profileDesign(ydeg, -1)
	if err != nil {
		return nil, err
	}
	y := make([]float64, basis.Size(ydeg))
	for l := 0; l <= ydeg; l++ {
		var acc float64
		for t, th := range thetas {
			acc += inv.At(l, t) * profile(th)
		}
		y[basis.Index(l, 0)] = acc
	}
	return y, nil
}

// Spot expands a circular spot of the given angular radius centered on the
// north pole. The result is the pure perturbation: add it to a base map.
// Positive contrast darkens the spot.
func Spot(ydeg int, contrast, radius float64) (*Map, error) {
	y, err := zonalFit(ydeg, func(theta float64) float64 {
		return contrast * (1/(1+math.Exp(-edgeSteepness*(theta-radius))) - 1)
	})
	if err != nil {
		return nil, err
	}
	return FromDense(y)
}

// SpotAt expands a circular spot centered at the given latitude and
// longitude in radians.
func SpotAt(ydeg int, contrast, radius, lat, lon float64) (*Map, error) {
	m, err := Spot(ydeg, contrast, radius)
	if err != nil {
		return nil, err
	}
	y := m.Dense(ydeg)
	y = rotation.Dot(ydeg, 0, 1, 0, math.Pi/2-lat, y)
	y = rotation.Dot(ydeg, 0, 0, 1, lon, y)
	return FromDense(y)
}

// Ring expands a band of the given angular half-width centered at colatitude
// colat. The result is the pure perturbation: add it to a base map. Positive
// contrast darkens the band.
func Ring(ydeg int, contrast, width, colat float64) (*Map, error) {
	y, err := zonalFit(ydeg, func(theta float64) float64 {
		inner := 1 / (1 + math.Exp(-edgeSteepness*(theta-(colat-width))))
		outer := 1 / (1 + math.Exp(-edgeSteepness*((colat+width)-theta)))
		return -contrast * inner * outer
	})
	if err != nil {
		return nil, err
	}
	return FromDense(y)
}
