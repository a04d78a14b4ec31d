package basis

// Pijk is a surface polynomial held as a sparse map from monomial exponents
// (i, j, k) to coefficients, with the z power k at most one.
type Pijk struct {
	Deg   int
	Terms map[[3]int]float64
}

// PijkFromVector converts a dense polynomial coefficient vector to its sparse
// monomial form.
func PijkFromVector(v []float64) *Pijk {
	deg := 0
	for Size(deg) < len(v) {
		deg++
	}
	p := &Pijk{Deg: deg, Terms: map[[3]int]float64{}}
	for n, c := range v {
		if c == 0 {
			continue
		}
		i, j, k := PolyTerm(n)
		p.Terms[[3]int{i, j, k}] += c
	}
	return p
}

// Vector lays the polynomial out as a dense coefficient vector of the given
// degree. Terms above the degree are discarded.
func (p *Pijk) Vector(deg int) []float64 {
	idx := polyIndex(deg)
	v := make([]float64, Size(deg))
	for e, c := range p.Terms {
		if n, ok := idx[e]; ok {
			v[n] += c
		}
	}
	return v
}

// MulPijk multiplies two surface polynomials, reducing even powers of z
// through z^2 = 1 - x^2 - y^2.
func MulPijk(a, b *Pijk) *Pijk {
	out := &Pijk{Deg: a.Deg + b.Deg, Terms: map[[3]int]float64{}}
	for ea, ca := range a.Terms {
		for eb, cb := range b.Terms {
			i, j, k := ea[0]+eb[0], ea[1]+eb[1], ea[2]+eb[2]
			c := ca * cb
			if k < 2 {
				out.Terms[[3]int{i, j, k}] += c
			} else {
				out.Terms[[3]int{i, j, 0}] += c
				out.Terms[[3]int{i + 2, j, 0}] -= c
				out.Terms[[3]int{i, j + 2, 0}] -= c
			}
		}
	}
	return out
}
