package rotation

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Blocks holds the per-degree real rotation operators for a single rotation.
// Degrees do not mix, so the full operator is block diagonal.
type Blocks struct {
	Deg int
	B   []*mat.Dense
}

// AxisAngle builds the matrix of a right-handed rotation by theta about the
// given axis. A zero axis yields the identity.
func AxisAngle(ux, uy, uz, theta float64) [3][3]float64 {
	n := math.Sqrt(ux*ux + uy*uy + uz*uz)
	if n == 0 {
		return [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	ux, uy, uz = ux/n, uy/n, uz/n
	c, s := math.Cos(theta), math.Sin(theta)
	t := 1 - c
	return [3][3]float64{
		{c + t*ux*ux, t*ux*uy - s*uz, t*ux*uz + s*uy},
		{t*uy*ux + s*uz, c + t*uy*uy, t*uy*uz - s*ux},
		{t*uz*ux - s*uy, t*uz*uy + s*ux, c + t*uz*uz},
	}
}

func mul3(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return out
}

// eulerZYZ factors a rotation matrix into intrinsic z-y-z Euler angles with
// beta in [0, pi]. Near the gimbal poles gamma is pinned to zero.
func eulerZYZ(m [3][3]float64) (alpha, beta, gamma float64) {
	sb := math.Hypot(m[0][2], m[1][2])
	beta = math.Atan2(sb, m[2][2])
	if sb > 1e-14 {
		alpha = math.Atan2(m[1][2], m[0][2])
		gamma = math.Atan2(m[2][1], -m[2][0])
		return
	}
	if m[2][2] > 0 {
		alpha = math.Atan2(m[1][0], m[0][0])
	} else {
		alpha = math.Atan2(-m[1][0], -m[0][0])
	}
	return alpha, beta, 0
}

// uMatrix returns the unitary transform from real to complex spherical
// harmonic coefficients at degree l, with the Condon-Shortley phase on the
// complex side. Rows are complex orders, columns real orders, offset by l.
func uMatrix(l int) [][]complex128 {
	n := 2*l + 1
	u := make([][]complex128, n)
	for i := range u {
		u[i] = make([]complex128, n)
	}
	u[l][l] = 1
	isq := 1 / math.Sqrt2
	for m := 1; m <= l; m++ {
		sign := 1.0
		if m%2 == 1 {
			sign = -1
		}
		u[l+m][l+m] = complex(sign*isq, 0)
		u[l+m][l-m] = complex(0, -sign*isq)
		u[l-m][l+m] = complex(isq, 0)
		u[l-m][l-m] = complex(0, isq)
	}
	return u
}

// realBlock conjugates the complex Wigner matrix of degree l into the real
// coefficient basis. The result is exactly real up to rounding.
func realBlock(d [][]float64, l int, alpha, gamma float64) *mat.Dense {
	n := 2*l + 1
	u := uMatrix(l)

	dc := make([][]complex128, n)
	for im := 0; im < n; im++ {
		dc[im] = make([]complex128, n)
		for imp := 0; imp < n; imp++ {
			phase := -(float64(im-l)*alpha + float64(imp-l)*gamma)
			dc[im][imp] = cmplx.Rect(d[im][imp], phase)
		}
	}

	du := make([][]complex128, n)
	for a := 0; a < n; a++ {
		du[a] = make([]complex128, n)
		for c := 0; c < n; c++ {
			var s complex128
			for b := 0; b < n; b++ {
				s += dc[a][b] * u[b][c]
			}
			du[a][c] = s
		}
	}

	out := mat.NewDense(n, n, nil)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			var s complex128
			for a := 0; a < n; a++ {
				s += cmplx.Conj(u[a][r]) * du[a][c]
			}
			out.Set(r, c, real(s))
		}
	}
	return out
}

// NewBlocks computes the rotation operator for a rotation by theta about the
// given axis, for every degree up to deg.
func NewBlocks(deg int, ux, uy, uz, theta float64) *Blocks {
	return blocksFromMatrix(deg, AxisAngle(ux, uy, uz, theta))
}

func blocksFromMatrix(deg int, m [3][3]float64) *Blocks {
	alpha, beta, gamma := eulerZYZ(m)
	planes := dPlanes(deg, beta)
	bs := make([]*mat.Dense, deg+1)
	for l := 0; l <= deg; l++ {
		bs[l] = realBlock(planes[l], l, alpha, gamma)
	}
	return &Blocks{Deg: deg, B: bs}
}

// Apply rotates a coefficient vector. The vector must hold complete degree
// shells; shells beyond the precomputed degree are left untouched.
func (b *Blocks) Apply(y []float64) []float64 {
	out := make([]float64, len(y))
	copy(out, y)
	for l := 0; l <= b.Deg && (l+1)*(l+1) <= len(y); l++ {
		n := 2*l + 1
		base := l * l
		blk := b.B[l]
		for r := 0; r < n; r++ {
			var s float64
			for c := 0; c < n; c++ {
				s += blk.At(r, c) * y[base+c]
			}
			out[base+r] = s
		}
	}
	return out
}

// ApplyTranspose applies the transposed operator, rotating covectors such as
// design matrix rows.
func (b *Blocks) ApplyTranspose(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	for l := 0; l <= b.Deg && (l+1)*(l+1) <= len(v); l++ {
		n := 2*l + 1
		base := l * l
		blk := b.B[l]
		for r := 0; r < n; r++ {
			var s float64
			for c := 0; c < n; c++ {
				s += blk.At(c, r) * v[base+c]
			}
			out[base+r] = s
		}
	}
	return out
}

// Dot rotates a coefficient vector by theta about an arbitrary axis. For
// repeated rotations with the same axis and angle, build Blocks once instead.
func Dot(deg int, ux, uy, uz, theta float64, y []float64) []float64 {
	return NewBlocks(deg, ux, uy, uz, theta).Apply(y)
}

// RotateZ rotates a coefficient vector about the z axis by phi. Orders mix
// pairwise within each degree, so no dense blocks are needed.
func RotateZ(deg int, phi float64, y []float64) []float64 {
	out := make([]float64, len(y))
	copy(out, y)
	for l := 0; l <= deg && (l+1)*(l+1) <= len(y); l++ {
		base := l * (l + 1)
		for m := 1; m <= l; m++ {
			c, s := math.Cos(float64(m)*phi), math.Sin(float64(m)*phi)
			ym, yp := y[base-m], y[base+m]
			out[base-m] = c*ym + s*yp
			out[base+m] = -s*ym + c*yp
		}
	}
	return out
}
