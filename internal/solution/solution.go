// Package solution evaluates the occultation integrals of the Green's basis.
// Each basis function integrates over the visible part of the occulted disk
// through Green's theorem: a line integral along the occultor limb (the P
// integral) and one along the occulted limb (the Q integral).
package solution

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/sawpanic/starflux/internal/basis"
)

// DefaultOrder is the Gauss-Legendre order used for the P integral when the
// caller does not choose one.
const DefaultOrder = 20

// KiteArea returns four times the area of the triangle with side lengths a,
// b and c, using the numerically stable grouping of Heron's formula.
func KiteArea(a, b, c float64) float64 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	sq := (a + (b + c)) * (c - (a - b)) * (c + (a - b)) * (a + (b - c))
	if sq < 0 {
		sq = 0
	}
	return math.Sqrt(sq)
}

// Kappas returns the limb angles of the occultation geometry. kappa0 spans
// the occultor limb inside the occulted disk as seen from the occultor
// center, kappa1 the occulted limb as seen from the occulted center.
func Kappas(b, r float64) (kappa0, kappa1 float64) {
	area := KiteArea(r, b, 1)
	kappa0 = math.Atan2(area, b*b+r*r-1)
	kappa1 = math.Atan2(area, b*b-r*r+1)
	return kappa0, kappa1
}

// QIntegral integrates the Green's basis along the visible arc of the
// occulted limb, parameterized by lam = pi/2 - kappa1.
func QIntegral(deg int, lam float64) []float64 {
	c, s := math.Cos(lam), math.Sin(lam)
	memo := map[[2]int]float64{
		{0, 0}: 2*lam + math.Pi,
		{0, 1}: -2 * c,
	}
	var h func(u, v int) float64
	h = func(u, v int) float64 {
		if val, ok := memo[[2]int{u, v}]; ok {
			return val
		}
		var val float64
		if u >= 2 {
			val = 2*math.Pow(c, float64(u-1))*math.Pow(s, float64(v+1)) + float64(u-1)*h(u-2, v)
		} else {
			// Only reached with v >= 2.
			val = -2*math.Pow(c, float64(u+1))*math.Pow(s, float64(v-1)) + float64(v-1)*h(u, v-2)
		}
		val /= float64(u + v)
		memo[[2]int{u, v}] = val
		return val
	}

	q := make([]float64, basis.Size(deg))
	for n := range q {
		l, m := basis.LM(n)
		if l == 1 && m == 0 {
			q[n] = (math.Pi + 2*lam) / 3
			continue
		}
		mu, nu := l-m, l+m
		if mu%2 == 0 && (mu/2)%2 == 0 {
			q[n] = h(mu/2+2, nu/2)
		}
	}
	return q
}

// PIntegral integrates the Green's basis along the occultor limb arc inside
// the occulted disk by fixed-order Gauss-Legendre quadrature. The integrands
// are even in the limb angle, so odd-parity basis functions vanish exactly.
func PIntegral(deg int, b, r, kappa0 float64, order int) []float64 {
	if order <= 0 {
		order = DefaultOrder
	}
	nodes := make([]float64, order)
	weights := make([]float64, order)
	quad.Legendre{}.FixedLocations(nodes, weights, 0, kappa0)

	sin := make([]float64, order)
	cos := make([]float64, order)
	xs := make([]float64, order)
	ys := make([]float64, order)
	z1 := make([]float64, order)
	z3 := make([]float64, order)
	for i, psi := range nodes {
		sin[i], cos[i] = math.Sin(psi), math.Cos(psi)
		xs[i] = r * sin[i]
		ys[i] = b - r*cos[i]
		z2 := 1 - r*r - b*b + 2*b*r*cos[i]
		if z2 < 0 {
			z2 = 0
		}
		z1[i] = math.Sqrt(z2)
		z3[i] = z2 * z1[i]
	}

	pow := func(v float64, e int) float64 {
		out := 1.0
		for ; e > 0; e-- {
			out *= v
		}
		return out
	}

	p := make([]float64, basis.Size(deg))
	for n := range p {
		l, m := basis.LM(n)
		mu, nu := l-m, l+m

		var sum float64
		switch {
		case n == 2:
			// The z-like basis function, written without the removable
			// singularity at z = 1.
			for i := range nodes {
				z := z1[i]
				sum += weights[i] * (1 + z*(1+z)) / (3 * (1 + z)) * r * (r - b*cos[i])
			}
		case nu%2 == 0:
			if (mu/2)%2 != 0 {
				continue
			}
			for i := range nodes {
				sum += weights[i] * pow(xs[i], (mu+2)/2) * pow(ys[i], nu/2) * r * sin[i]
			}
		case mu == 1 && l%2 == 0:
			for i := range nodes {
				sum += weights[i] * pow(xs[i], l-2) * z3[i] * r * cos[i]
			}
		case mu == 1:
			for i := range nodes {
				sum += weights[i] * pow(xs[i], l-3) * ys[i] * z3[i] * r * cos[i]
			}
		default:
			if ((mu-1)/2)%2 != 0 {
				continue
			}
			for i := range nodes {
				sum += weights[i] * pow(xs[i], (mu-3)/2) * pow(ys[i], (nu-1)/2) * z3[i] * r * sin[i]
			}
		}
		p[n] = 2 * sum
	}
	return p
}

// Vector returns the occultation integrals of every Green's basis function
// up to deg for impact parameter b and occultor radius r. Complete coverage
// returns the zero vector; with no overlap the result integrates the full
// visible disk.
func Vector(deg int, b, r float64, order int) []float64 {
	b, r = math.Abs(b), math.Abs(r)
	if b <= r-1 {
		return make([]float64, basis.Size(deg))
	}
	kappa0, kappa1 := Kappas(b, r)
	q := QIntegral(deg, math.Pi/2-kappa1)
	p := PIntegral(deg, b, r, kappa0, order)
	s := make([]float64, len(q))
	for i := range s {
		s[i] = q[i] - p[i]
	}
	return s
}
