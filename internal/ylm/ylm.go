// Package ylm represents stellar surface maps as real spherical harmonic
// expansions and builds maps from physical surface features.
package ylm

import (
	"fmt"
	"math"

	"github.com/sawpanic/starflux/internal/basis"
	"github.com/sawpanic/starflux/internal/rotation"
)

// Map is a surface brightness distribution expanded in real spherical
// harmonics, keyed by degree and order. The uniform coefficient defaults to
// one when not given explicitly.
type Map struct {
	Deg   int
	Coeff map[[2]int]float64
}

// New returns the uniform map.
func New() *Map {
	return &Map{Deg: 0, Coeff: map[[2]int]float64{{0, 0}: 1}}
}

// FromCoeffs builds a map from sparse (l, m) coefficients.
func FromCoeffs(coeff map[[2]int]float64) (*Map, error) {
	m := &Map{Coeff: map[[2]int]float64{{0, 0}: 1}}
	for k, v := range coeff {
		l, mm := k[0], k[1]
		if l < 0 || mm < -l || mm > l {
			return nil, fmt.Errorf("invalid harmonic index (l=%d, m=%d)", l, mm)
		}
		m.Coeff[k] = v
		if l > m.Deg {
			m.Deg = l
		}
	}
	return m, nil
}

// FromDense builds a map from a dense coefficient vector whose length must
// be a perfect square (deg+1)^2.
func FromDense(v []float64) (*Map, error) {
	n := int(math.Round(math.Sqrt(float64(len(v)))))
	if len(v) == 0 || n*n != len(v) {
		return nil, fmt.Errorf("dense coefficient length %d is not a perfect square", len(v))
	}
	m := &Map{Deg: n - 1, Coeff: map[[2]int]float64{}}
	for i, c := range v {
		l, mm := basis.LM(i)
		if c != 0 || (l == 0 && mm == 0) {
			m.Coeff[[2]int{l, mm}] = c
		}
	}
	return m, nil
}

// Dense lays the coefficients out as a vector padded to the given degree.
// Terms above the degree are dropped.
func (m *Map) Dense(deg int) []float64 {
	v := make([]float64, basis.Size(deg))
	for k, c := range m.Coeff {
		if k[0] <= deg {
			v[basis.Index(k[0], k[1])] = c
		}
	}
	return v
}

// At returns the coefficient of the (l, m) harmonic.
func (m *Map) At(l, mm int) float64 { return m.Coeff[[2]int{l, mm}] }

// Diagonal reports whether the map holds only zonal (m = 0) terms.
func (m *Map) Diagonal() bool {
	for k, c := range m.Coeff {
		if k[1] != 0 && c != 0 {
			return false
		}
	}
	return true
}

// Scale returns a copy of the map with every coefficient multiplied by f.
func (m *Map) Scale(f float64) *Map {
	out := &Map{Deg: m.Deg, Coeff: make(map[[2]int]float64, len(m.Coeff))}
	for k, c := range m.Coeff {
		out.Coeff[k] = c * f
	}
	return out
}

// Add returns the coefficient-wise sum of two maps.
func (m *Map) Add(o *Map) *Map {
	out := &Map{Deg: m.Deg, Coeff: make(map[[2]int]float64, len(m.Coeff)+len(o.Coeff))}
	if o.Deg > out.Deg {
		out.Deg = o.Deg
	}
	for k, c := range m.Coeff {
		out.Coeff[k] = c
	}
	for k, c := range o.Coeff {
		out.Coeff[k] += c
	}
	return out
}

// Rotated returns the map actively rotated by theta about the given axis.
func (m *Map) Rotated(ux, uy, uz, theta float64) *Map {
	y := rotation.Dot(m.Deg, ux, uy, uz, theta, m.Dense(m.Deg))
	out, _ := FromDense(y)
	return out
}
