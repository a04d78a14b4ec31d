// Package surface pairs a spherical harmonic map with its viewing geometry
// and photometric scale.
package surface

import (
	"fmt"
	"math"

	"github.com/sawpanic/starflux/internal/ylm"
)

// Surface is an emitting sphere as seen by the observer. A nil map means the
// surface is uniform. Limb darkening coefficients multiply the map, and the
// inclination and obliquity orient the rotation axis on the sky.
type Surface struct {
	Y         *ylm.Map
	U         []float64
	Inc       float64 // radians, pi/2 is edge-on
	Obl       float64 // radians
	Period    float64 // rotation period in days, <= 0 disables rotation
	Amplitude float64
	Normalize bool
}

// New returns an edge-on surface with the given map, unit amplitude and
// normalized limb darkening.
func New(y *ylm.Map) *Surface {
	return &Surface{Y: y, Inc: math.Pi / 2, Amplitude: 1, Normalize: true}
}

// Uniform returns a featureless surface.
func Uniform() *Surface { return New(nil) }

// YDeg returns the degree of the harmonic expansion.
func (s *Surface) YDeg() int {
	if s.Y == nil {
		return 0
	}
	return s.Y.Deg
}

// UDeg returns the order of the limb darkening law.
func (s *Surface) UDeg() int { return len(s.U) }

// Deg returns the total polynomial degree of the shaded surface.
func (s *Surface) Deg() int { return s.YDeg() + s.UDeg() }

// YDense returns the harmonic coefficients padded to the map degree.
func (s *Surface) YDense() []float64 {
	if s.Y == nil {
		return []float64{1}
	}
	return s.Y.Dense(s.Y.Deg)
}

// RotationPhase returns the rotational phase in radians at time t in days.
func (s *Surface) RotationPhase(t float64) float64 {
	if s.Period <= 0 {
		return 0
	}
	return 2 * math.Pi * t / s.Period
}

// Validate reports structural problems with the surface.
func (s *Surface) Validate() error {
	if s == nil {
		return fmt.Errorf("nil surface")
	}
	for i, u := range s.U {
		if math.IsNaN(u) || math.IsInf(u, 0) {
			return fmt.Errorf("limb darkening coefficient u%d is not finite", i+1)
		}
	}
	if math.IsNaN(s.Inc) || math.IsNaN(s.Obl) {
		return fmt.Errorf("surface orientation is not finite")
	}
	if math.IsNaN(s.Amplitude) || math.IsInf(s.Amplitude, 0) {
		return fmt.Errorf("surface amplitude is not finite")
	}
	if s.Period < 0 {
		return fmt.Errorf("rotation period %g is negative", s.Period)
	}
	return nil
}
