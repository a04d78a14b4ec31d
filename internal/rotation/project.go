package rotation

// Projector carries a surface map from its rest frame into the sky frame set
// by the axis inclination and obliquity. The frame blocks depend only on the
// orientation, so one Projector serves a whole light curve evaluation.
type Projector struct {
	Deg      int
	Inc, Obl float64

	frame *Blocks
}

// NewProjector precomputes the frame operator for a surface of degree deg.
// Inclination tilts the rotation axis toward the observer and obliquity rolls
// it in the sky plane.
func NewProjector(deg int, inc, obl float64) *Projector {
	m := mul3(AxisAngle(0, 0, 1, obl), AxisAngle(1, 0, 0, -inc))
	return &Projector{
		Deg:   deg,
		Inc:   inc,
		Obl:   obl,
		frame: blocksFromMatrix(deg, m),
	}
}

// Left rotates y from the rest frame to the sky frame at rotational phase
// theta, then aligns the direction thetaZ with the +y axis so an occultor
// there sits on the positive y axis.
func (p *Projector) Left(theta, thetaZ float64, y []float64) []float64 {
	out := RotateZ(p.Deg, theta, y)
	out = p.frame.Apply(out)
	if thetaZ != 0 {
		out = RotateZ(p.Deg, thetaZ, out)
	}
	return out
}

// Right applies the transposed projection to a covector. Together with Left
// it satisfies dot(Right(v), y) == dot(v, Left(y)).
func (p *Projector) Right(theta, thetaZ float64, v []float64) []float64 {
	out := v
	if thetaZ != 0 {
		out = RotateZ(p.Deg, -thetaZ, out)
	}
	out = p.frame.ApplyTranspose(out)
	return RotateZ(p.Deg, -theta, out)
}
