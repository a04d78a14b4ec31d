package basis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Greens returns the monomials of the n-th Green's basis function. Each basis
// function is the surface divergence of a vector field whose line integral
// along the occultor limb yields the corresponding occultation integral.
func Greens(n int) []Monomial {
	l, m := LM(n)
	mu, nu := l-m, l+m
	switch {
	case nu%2 == 0:
		return []Monomial{{mu / 2, nu / 2, 0, float64(mu+2) / 2}}
	case l == 1 && m == 0:
		return []Monomial{{0, 0, 1, 1}}
	case mu == 1 && l%2 == 0:
		return []Monomial{{l - 2, 1, 1, 3}}
	case mu == 1:
		return []Monomial{
			{l - 3, 0, 1, -1},
			{l - 1, 0, 1, 1},
			{l - 3, 2, 1, 4},
		}
	default:
		out := make([]Monomial, 0, 3)
		if c := float64(mu-3) / 2; c != 0 {
			out = append(out,
				Monomial{(mu - 5) / 2, (nu - 1) / 2, 1, c},
				Monomial{(mu - 5) / 2, (nu + 3) / 2, 1, -c},
			)
		}
		out = append(out, Monomial{(mu - 1) / 2, (nu - 1) / 2, 1, -float64(mu+3) / 2})
		return out
	}
}

// A2Inv returns the matrix whose columns expand the Green's basis functions
// in the polynomial basis.
func A2Inv(deg int) *mat.Dense {
	cacheMu.RLock()
	if a, ok := a2InvCache[deg]; ok {
		cacheMu.RUnlock()
		return a
	}
	cacheMu.RUnlock()

	n := Size(deg)
	idx := polyIndex(deg)
	a := mat.NewDense(n, n, nil)
	for col := 0; col < n; col++ {
		for _, t := range Greens(col) {
			if row, ok := idx[[3]int{t.I, t.J, t.K}]; ok {
				a.Set(row, col, a.At(row, col)+t.C)
			}
		}
	}

	cacheMu.Lock()
	a2InvCache[deg] = a
	cacheMu.Unlock()
	return a
}

// A2 returns the change of basis matrix from polynomial coefficients to
// Green's coefficients.
func A2(deg int) (*mat.Dense, error) {
	cacheMu.RLock()
	if a, ok := a2Cache[deg]; ok {
		cacheMu.RUnlock()
		return a, nil
	}
	cacheMu.RUnlock()

	var inv mat.Dense
	if err := inv.Inverse(A2Inv(deg)); err != nil {
		return nil, fmt.Errorf("inverting Green's basis at degree %d: %w", deg, err)
	}

	cacheMu.Lock()
	a2Cache[deg] = &inv
	cacheMu.Unlock()
	return &inv, nil
}
