// Package basis builds the change of basis machinery between spherical
// harmonic, polynomial and Green's representations of a stellar surface map.
package basis

import (
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

var (
	cacheMu    sync.RWMutex
	a1Cache    = map[int]*mat.Dense{}
	a2Cache    = map[int]*mat.Dense{}
	a2InvCache = map[int]*mat.Dense{}
	u0Cache    = map[int]*mat.Dense{}
)

// Size returns the number of spherical harmonic coefficients up to degree deg.
func Size(deg int) int { return (deg + 1) * (deg + 1) }

// Index returns the flat coefficient index of the (l, m) harmonic.
func Index(l, m int) int { return l*(l+1) + m }

// LM recovers the degree and order encoded in a flat coefficient index.
func LM(n int) (l, m int) {
	l = int(math.Sqrt(float64(n)))
	for (l+1)*(l+1) <= n {
		l++
	}
	for l*l > n {
		l--
	}
	return l, n - l*(l+1)
}

// Monomial is a term c*x^I*y^J*z^K of a surface polynomial. K is at most one
// because even powers of z reduce through z^2 = 1 - x^2 - y^2 on the sphere.
type Monomial struct {
	I, J, K int
	C       float64
}

// PolyTerm returns the monomial exponents of the n-th polynomial basis slot.
func PolyTerm(n int) (i, j, k int) {
	l, m := LM(n)
	mu, nu := l-m, l+m
	if nu%2 == 0 {
		return mu / 2, nu / 2, 0
	}
	return (mu - 1) / 2, (nu - 1) / 2, 1
}

// polyIndex maps monomial exponents back to their basis slot for all terms up
// to the given degree.
func polyIndex(deg int) map[[3]int]int {
	idx := make(map[[3]int]int, Size(deg))
	for n := 0; n < Size(deg); n++ {
		i, j, k := PolyTerm(n)
		idx[[3]int{i, j, k}] = n
	}
	return idx
}

// legendreCoeffs returns the coefficients of P_0..P_lmax in ascending powers
// of z, built by the three-term recurrence.
func legendreCoeffs(lmax int) [][]float64 {
	p := make([][]float64, lmax+1)
	p[0] = []float64{1}
	if lmax == 0 {
		return p
	}
	p[1] = []float64{0, 1}
	for l := 1; l < lmax; l++ {
		next := make([]float64, l+2)
		for k, c := range p[l] {
			next[k+1] += float64(2*l+1) * c
		}
		for k, c := range p[l-1] {
			next[k] -= float64(l) * c
		}
		for k := range next {
			next[k] /= float64(l + 1)
		}
		p[l+1] = next
	}
	return p
}

// LegendreP evaluates the Legendre polynomial P_l at x by upward recurrence.
func LegendreP(l int, x float64) float64 {
	if l == 0 {
		return 1
	}
	pm, pc := 1.0, x
	for k := 1; k < l; k++ {
		pm, pc = pc, (float64(2*k+1)*x*pc-float64(k)*pm)/float64(k+1)
	}
	return pc
}

func derivePoly(c []float64, times int) []float64 {
	for t := 0; t < times; t++ {
		if len(c) <= 1 {
			return []float64{0}
		}
		d := make([]float64, len(c)-1)
		for k := 1; k < len(c); k++ {
			d[k-1] = float64(k) * c[k]
		}
		c = d
	}
	return c
}

func binom(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	b := 1.0
	for i := 0; i < k; i++ {
		b = b * float64(n-i) / float64(i+1)
	}
	return b
}

// reduceZPower expands z^k into monomials with z power at most one and
// invokes fn for every resulting term.
func reduceZPower(k int, fn func(i, j, kb int, c float64)) {
	kb, p := k%2, k/2
	for s := 0; s <= p; s++ {
		for t := 0; t <= p-s; t++ {
			c := binom(p, s) * binom(p-s, t)
			if (s+t)%2 == 1 {
				c = -c
			}
			fn(2*s, 2*t, kb, c)
		}
	}
}

// YPolynomial expands the real spherical harmonic Y_{l,m} into monomials of
// x, y and z on the unit sphere. The harmonics carry no Condon-Shortley phase
// and integrate to one against themselves over the sphere.
func YPolynomial(l, m int) []Monomial {
	am := m
	if am < 0 {
		am = -am
	}
	q := derivePoly(legendreCoeffs(l)[l], am)

	norm := float64(2*l+1) / (4 * math.Pi)
	for i := l - am + 1; i <= l+am; i++ {
		norm /= float64(i)
	}
	if m != 0 {
		norm *= 2
	}
	norm = math.Sqrt(norm)

	// Re[(x+iy)^am] for m >= 0, Im[(x+iy)^am] for m < 0.
	type xyTerm struct {
		a, b int
		c    float64
	}
	var trig []xyTerm
	start := 0
	if m < 0 {
		start = 1
	}
	for j := start; j <= am; j += 2 {
		c := binom(am, j)
		if (j/2)%2 == 1 {
			c = -c
		}
		trig = append(trig, xyTerm{am - j, j, c})
	}

	acc := map[[3]int]float64{}
	for k, qk := range q {
		if qk == 0 {
			continue
		}
		reduceZPower(k, func(di, dj, kb int, tri float64) {
			for _, xt := range trig {
				acc[[3]int{xt.a + di, xt.b + dj, kb}] += norm * qk * tri * xt.c
			}
		})
	}

	out := make([]Monomial, 0, len(acc))
	for e, c := range acc {
		if c != 0 {
			out = append(out, Monomial{e[0], e[1], e[2], c})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		da := out[a].I + out[a].J + out[a].K
		db := out[b].I + out[b].J + out[b].K
		if da != db {
			return da < db
		}
		if out[a].I != out[b].I {
			return out[a].I < out[b].I
		}
		if out[a].J != out[b].J {
			return out[a].J < out[b].J
		}
		return out[a].K < out[b].K
	})
	return out
}

// A1 returns the change of basis matrix from spherical harmonic coefficients
// to polynomial coefficients. The columns carry an extra factor 2/sqrt(pi) so
// that the uniform map integrates to exactly unit flux over the visible disk.
func A1(deg int) *mat.Dense {
	cacheMu.RLock()
	if a, ok := a1Cache[deg]; ok {
		cacheMu.RUnlock()
		return a
	}
	cacheMu.RUnlock()

	n := Size(deg)
	idx := polyIndex(deg)
	a := mat.NewDense(n, n, nil)
	scale := 2 / math.Sqrt(math.Pi)
	for col := 0; col < n; col++ {
		l, m := LM(col)
		for _, t := range YPolynomial(l, m) {
			if row, ok := idx[[3]int{t.I, t.J, t.K}]; ok {
				a.Set(row, col, a.At(row, col)+scale*t.C)
			}
		}
	}

	cacheMu.Lock()
	a1Cache[deg] = a
	cacheMu.Unlock()
	return a
}

// EvalVector evaluates a polynomial coefficient vector at a point on the unit
// sphere.
func EvalVector(p []float64, x, y, z float64) float64 {
	var sum float64
	for n, c := range p {
		if c == 0 {
			continue
		}
		i, j, k := PolyTerm(n)
		term := c * math.Pow(x, float64(i)) * math.Pow(y, float64(j))
		if k == 1 {
			term *= z
		}
		sum += term
	}
	return sum
}

// CacheSize reports how many change of basis matrices are currently cached.
func CacheSize() int {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	return len(a1Cache) + len(a2Cache) + len(a2InvCache) + len(u0Cache)
}
