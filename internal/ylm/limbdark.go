package ylm

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sawpanic/starflux/internal/basis"
	"github.com/sawpanic/starflux/internal/solution"
)

// FromLimbDarkening converts a polynomial limb darkening law into the
// spherical harmonic map producing identical flux under every geometry. The
// result is normalized so the unocculted disk-integrated flux is one.
func FromLimbDarkening(u []float64) (*Map, error) {
	udeg := len(u)
	if udeg == 0 {
		return New(), nil
	}
	uu := append([]float64{1}, u...)
	var pv mat.VecDense
	pv.MulVec(basis.U0(udeg), mat.NewVecDense(len(uu), uu))
	pu := make([]float64, basis.Size(udeg))
	for i := range pu {
		pu[i] = pv.AtVec(i)
	}
	den := floats.Dot(pu, solution.RT(udeg))
	if den == 0 {
		return nil, errors.New("limb darkening law has zero net flux")
	}
	var yv mat.VecDense
	if err := yv.SolveVec(basis.A1(udeg), mat.NewVecDense(len(pu), pu)); err != nil {
		return nil, fmt.Errorf("converting limb darkening law: %w", err)
	}
	y := make([]float64, len(pu))
	for i := range y {
		y[i] = yv.AtVec(i) / den
	}
	return FromDense(y)
}
