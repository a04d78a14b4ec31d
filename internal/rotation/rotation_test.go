package rotation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreeJ_KnownValues(t *testing.T) {
	assert.InDelta(t, 1.0, ThreeJ(0, 0, 0, 0, 0, 0), 1e-12)
	assert.InDelta(t, -1/math.Sqrt(3), ThreeJ(1, 1, 0, 0, 0, 0), 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/15.0), ThreeJ(1, 1, 2, 0, 0, 0), 1e-12)
	assert.InDelta(t, 1/math.Sqrt(30), ThreeJ(1, 1, 2, 1, -1, 0), 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/35.0), ThreeJ(2, 2, 4, 0, 0, 0), 1e-12)
}

func TestThreeJ_SelectionRules(t *testing.T) {
	assert.Zero(t, ThreeJ(1, 1, 1, 0, 0, 0), "odd l1+l2+l3 with zero orders must vanish")
	assert.Zero(t, ThreeJ(1, 1, 2, 1, 1, 0), "nonzero order sum must vanish")
	assert.Zero(t, ThreeJ(1, 1, 3, 0, 0, 0), "triangle violation must vanish")
	assert.Zero(t, ThreeJ(1, 1, 2, 2, -2, 0), "orders above degree must vanish")
}

func TestDPlanes_ZeroAngle(t *testing.T) {
	planes := dPlanes(3, 0)
	for l, p := range planes {
		for r := 0; r < 2*l+1; r++ {
			for c := 0; c < 2*l+1; c++ {
				want := 0.0
				if r == c {
					want = 1
				}
				assert.InDelta(t, want, p[r][c], 1e-12, "degree %d entry (%d,%d)", l, r, c)
			}
		}
	}
}

func TestDPlanes_DegreeOne(t *testing.T) {
	beta := 0.7
	p := dPlanes(1, beta)[1]
	cb, sb := math.Cos(beta), math.Sin(beta)
	ch, sh := math.Cos(beta/2), math.Sin(beta/2)
	isq := 1 / math.Sqrt2

	require.Len(t, p, 3)
	assert.InDelta(t, ch*ch, p[0][0], 1e-14)
	assert.InDelta(t, sb*isq, p[0][1], 1e-14)
	assert.InDelta(t, sh*sh, p[0][2], 1e-14)
	assert.InDelta(t, -sb*isq, p[1][0], 1e-14)
	assert.InDelta(t, cb, p[1][1], 1e-14)
	assert.InDelta(t, sb*isq, p[1][2], 1e-14)
	assert.InDelta(t, sh*sh, p[2][0], 1e-14)
	assert.InDelta(t, -sb*isq, p[2][1], 1e-14)
	assert.InDelta(t, ch*ch, p[2][2], 1e-14)
}

func TestDPlanes_Orthogonal(t *testing.T) {
	planes := dPlanes(5, 1.1)
	for l, p := range planes {
		n := 2*l + 1
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				var dot float64
				for k := 0; k < n; k++ {
					dot += p[r][k] * p[c][k]
				}
				want := 0.0
				if r == c {
					want = 1
				}
				assert.InDelta(t, want, dot, 1e-10, "degree %d rows %d,%d", l, r, c)
			}
		}
	}
}

func TestRotateZ_DegreeOne(t *testing.T) {
	phi := 0.9
	c, s := math.Cos(phi), math.Sin(phi)
	y := []float64{0.5, 0.3, -0.2, 0.8}

	out := RotateZ(1, phi, y)
	assert.InDelta(t, 0.5, out[0], 1e-14, "degree zero must not rotate")
	assert.InDelta(t, c*0.3+s*0.8, out[1], 1e-14)
	assert.InDelta(t, -0.2, out[2], 1e-14, "the z dipole is invariant under z rotations")
	assert.InDelta(t, -s*0.3+c*0.8, out[3], 1e-14)
}

func TestRotateZ_QuarterTurnMovesXToY(t *testing.T) {
	// An x dipole rotated a quarter turn counterclockwise becomes a y dipole.
	y := []float64{0, 0, 0, 1}
	out := RotateZ(1, math.Pi/2, y)
	assert.InDelta(t, 1, out[1], 1e-14)
	assert.InDelta(t, 0, out[3], 1e-14)
}

func TestRotateZ_Inverse(t *testing.T) {
	y := []float64{1, 0.2, -0.4, 0.6, 0.1, -0.3, 0.7, 0.05, -0.9}
	back := RotateZ(2, -1.3, RotateZ(2, 1.3, y))
	for i := range y {
		assert.InDelta(t, y[i], back[i], 1e-13, "index %d", i)
	}
}

func TestNewBlocks_ZAxisMatchesRotateZ(t *testing.T) {
	y := []float64{1, 0.2, -0.4, 0.6, 0.1, -0.3, 0.7, 0.05, -0.9,
		0.11, -0.21, 0.31, -0.41, 0.51, -0.61, 0.71}
	phi := 0.8

	got := NewBlocks(3, 0, 0, 1, phi).Apply(y)
	want := RotateZ(3, phi, y)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-11, "index %d", i)
	}
}

func TestNewBlocks_XAxisDegreeOne(t *testing.T) {
	phi := 0.6
	c, s := math.Cos(phi), math.Sin(phi)
	blk := NewBlocks(1, 1, 0, 0, phi).B[1]

	// Coefficient order (-1, 0, 1) tracks the (y, z, x) dipoles.
	want := [3][3]float64{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			assert.InDelta(t, want[r][col], blk.At(r, col), 1e-12, "entry (%d,%d)", r, col)
		}
	}
}

func TestBlocks_Orthogonal(t *testing.T) {
	b := NewBlocks(3, 0.3, -0.5, 0.8, 1.2)
	for l := 0; l <= 3; l++ {
		n := 2*l + 1
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				var dot float64
				for k := 0; k < n; k++ {
					dot += b.B[l].At(k, r) * b.B[l].At(k, c)
				}
				want := 0.0
				if r == c {
					want = 1
				}
				assert.InDelta(t, want, dot, 1e-10, "degree %d entry (%d,%d)", l, r, c)
			}
		}
	}
}

func TestDot_Composition(t *testing.T) {
	y := []float64{1, 0.2, -0.4, 0.6, 0.1, -0.3, 0.7, 0.05, -0.9}
	step := Dot(2, 0.2, 0.9, -0.1, 0.5, Dot(2, 0.2, 0.9, -0.1, 0.7, y))
	direct := Dot(2, 0.2, 0.9, -0.1, 1.2, y)
	for i := range y {
		assert.InDelta(t, direct[i], step[i], 1e-11, "index %d", i)
	}
}

func TestProjector_EdgeOnPole(t *testing.T) {
	// Edge-on with zero obliquity carries the polar dipole to the +y dipole.
	p := NewProjector(1, math.Pi/2, 0)
	out := p.Left(0, 0, []float64{0, 0, 1, 0})
	assert.InDelta(t, 0, out[0], 1e-12)
	assert.InDelta(t, 1, out[1], 1e-12)
	assert.InDelta(t, 0, out[2], 1e-12)
	assert.InDelta(t, 0, out[3], 1e-12)
}

func TestProjector_Adjoint(t *testing.T) {
	p := NewProjector(2, 1.1, 0.4)
	y := []float64{1, 0.2, -0.4, 0.6, 0.1, -0.3, 0.7, 0.05, -0.9}
	v := []float64{0.3, -0.1, 0.5, 0.2, -0.7, 0.4, 0.08, -0.2, 0.6}

	var lhs, rhs float64
	left := p.Left(0.9, 0.3, y)
	right := p.Right(0.9, 0.3, v)
	for i := range y {
		lhs += v[i] * left[i]
		rhs += right[i] * y[i]
	}
	assert.InDelta(t, lhs, rhs, 1e-12, "Right must be the adjoint of Left")
}
