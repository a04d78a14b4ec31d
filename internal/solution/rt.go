package solution

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/sawpanic/starflux/internal/basis"
)

var (
	rtMu    sync.RWMutex
	rtCache = map[int][]float64{}
)

// RT returns the disk integrals of the polynomial basis in closed form. The
// dot product of a surface polynomial with this vector is its phase curve
// flux with no occultor.
func RT(deg int) []float64 {
	rtMu.RLock()
	if v, ok := rtCache[deg]; ok {
		rtMu.RUnlock()
		out := make([]float64, len(v))
		copy(out, v)
		return out
	}
	rtMu.RUnlock()

	rt := make([]float64, basis.Size(deg))

	amp0 := math.Pi
	lfac1, lfac2 := 1.0, 2.0/3.0
	for l := 0; l <= deg; l += 4 {
		amp := amp0
		for m := 0; m <= l; m += 4 {
			mu, nu := l-m, l+m
			rt[l*l+l+m] = amp * lfac1
			rt[l*l+l-m] = amp * lfac1
			if l < deg {
				rt[(l+1)*(l+1)+l+m+1] = amp * lfac2
				rt[(l+1)*(l+1)+l-m+1] = amp * lfac2
			}
			amp *= float64(nu+2) / float64(mu-2)
		}
		lfac1 /= (float64(l)/2 + 2) * (float64(l)/2 + 3)
		lfac2 /= (float64(l)/2 + 2.5) * (float64(l)/2 + 3.5)
		amp0 *= 0.0625 * float64((l+2)*(l+2)) * float64((l+4)*(l+4)-4)
	}

	amp0 = 0.5 * math.Pi
	lfac1, lfac2 = 0.5, 4.0/15.0
	for l := 2; l <= deg; l += 4 {
		amp := amp0
		for m := 2; m <= l; m += 4 {
			mu, nu := l-m, l+m
			rt[l*l+l+m] = amp * lfac1
			rt[l*l+l-m] = amp * lfac1
			if l < deg {
				rt[(l+1)*(l+1)+l+m+1] = amp * lfac2
				rt[(l+1)*(l+1)+l-m+1] = amp * lfac2
			}
			amp *= float64(nu+2) / float64(mu-2)
		}
		lfac1 /= (float64(l)/2 + 2) * (float64(l)/2 + 3)
		lfac2 /= (float64(l)/2 + 2.5) * (float64(l)/2 + 3.5)
		amp0 *= 0.0625 * float64(l*l) * float64((l+2)*(l+2)-4)
	}

	rtMu.Lock()
	rtCache[deg] = rt
	rtMu.Unlock()

	out := make([]float64, len(rt))
	copy(out, rt)
	return out
}

// RTA1 composes the phase curve operator with the harmonic change of basis,
// yielding a row vector over spherical harmonic coefficients.
func RTA1(deg int) []float64 {
	rt := RT(deg)
	var v mat.VecDense
	v.MulVec(basis.A1(deg).T(), mat.NewVecDense(len(rt), rt))
	out := make([]float64, len(rt))
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
