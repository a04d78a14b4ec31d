package ylm

import (
	"math"
	"math/cmplx"

	"github.com/sawpanic/starflux/internal/rotation"
)

// complexWeights returns the complex-basis decomposition of a real harmonic
// of order m: the real harmonic equals sum over sigma of w[sigma]*Y_{l,sigma}.
func complexWeights(m int) map[int]complex128 {
	if m == 0 {
		return map[int]complex128{0: 1}
	}
	am := m
	if am < 0 {
		am = -am
	}
	sign := 1.0
	if am%2 == 1 {
		sign = -1
	}
	isq := 1 / math.Sqrt2
	if m > 0 {
		return map[int]complex128{am: complex(sign*isq, 0), -am: complex(isq, 0)}
	}
	return map[int]complex128{am: complex(0, -sign*isq), -am: complex(0, isq)}
}

func realOrders(sigma int) []int {
	if sigma == 0 {
		return []int{0}
	}
	a := sigma
	if a < 0 {
		a = -a
	}
	return []int{a, -a}
}

// Mul returns the pointwise product of two maps. Each pair of harmonics is
// expanded onto the complex basis, contracted through Wigner 3-j symbols and
// projected back, so the result is exact up to degree Deg(a)+Deg(b).
func Mul(a, b *Map) *Map {
	out := &Map{Deg: a.Deg + b.Deg, Coeff: map[[2]int]float64{{0, 0}: 0}}
	for ka, ca := range a.Coeff {
		if ca == 0 {
			continue
		}
		l1, m1 := ka[0], ka[1]
		w1 := complexWeights(m1)
		for kb, cb := range b.Coeff {
			if cb == 0 {
				continue
			}
			l2, m2 := kb[0], kb[1]
			w2 := complexWeights(m2)
			lo := l1 - l2
			if lo < 0 {
				lo = -lo
			}
			for l3 := lo; l3 <= l1+l2; l3++ {
				w000 := rotation.ThreeJ(l1, l2, l3, 0, 0, 0)
				if w000 == 0 {
					continue
				}
				scale := math.Sqrt(float64((2*l1+1)*(2*l2+1)*(2*l3+1))/(4*math.Pi)) * w000 * ca * cb
				for s1, u1 := range w1 {
					for s2, u2 := range w2 {
						s3 := s1 + s2
						if s3 < -l3 || s3 > l3 {
							continue
						}
						wm := rotation.ThreeJ(l1, l2, l3, s1, s2, -s3)
						if wm == 0 {
							continue
						}
						phase := 1.0
						if s3%2 != 0 {
							phase = -1
						}
						cc := complex(phase*scale*wm, 0) * u1 * u2
						for _, m3 := range realOrders(s3) {
							w3 := complexWeights(m3)[s3]
							out.Coeff[[2]int{l3, m3}] += real(cc * cmplx.Conj(w3))
						}
					}
				}
			}
		}
	}
	for k, c := range out.Coeff {
		if c == 0 && k != [2]int{0, 0} {
			delete(out.Coeff, k)
		}
	}
	return out
}
