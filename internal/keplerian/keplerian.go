// Package keplerian solves two-body orbits in observer-oriented sky
// coordinates. Lengths are in solar radii, masses in solar masses and times
// in days; the plane of the sky is x-y with z growing toward the observer.
package keplerian

import (
	"fmt"
	"math"
)

// GravConstant is Newton's constant in solar radii cubed per solar mass per
// day squared.
const GravConstant = 2942.2062175

// Central is the body at the focus of the orbit.
type Central struct {
	Mass   float64
	Radius float64
}

// Body is an orbiting companion. Angles are in radians; an inclination of
// pi/2 puts the orbit edge-on. Either Period or SemiMajor must be set, the
// other is derived from Kepler's third law.
type Body struct {
	Radius       float64
	Mass         float64
	Period       float64
	SemiMajor    float64
	Eccentricity float64
	ArgPeri      float64
	AscNode      float64
	Inclination  float64
	TimeTransit  float64
}

// Orbit binds a body to its central mass with the derived orbital elements.
type Orbit struct {
	Central Central
	Body    Body

	semiMajor  float64
	period     float64
	meanMotion float64
	meanAnom0  float64 // mean anomaly at the reference transit time
}

// NewOrbit derives the missing elements and the transit reference phase.
func NewOrbit(c Central, b Body) (*Orbit, error) {
	if c.Mass <= 0 {
		return nil, fmt.Errorf("central mass %g must be positive", c.Mass)
	}
	if b.Eccentricity < 0 || b.Eccentricity >= 1 {
		return nil, fmt.Errorf("eccentricity %g outside [0, 1)", b.Eccentricity)
	}
	if b.Mass < 0 || b.Radius < 0 {
		return nil, fmt.Errorf("body mass and radius must not be negative")
	}

	o := &Orbit{Central: c, Body: b, semiMajor: b.SemiMajor, period: b.Period}
	mu := GravConstant * (c.Mass + b.Mass)
	switch {
	case o.period > 0 && o.semiMajor <= 0:
		o.semiMajor = math.Cbrt(mu * o.period * o.period / (4 * math.Pi * math.Pi))
	case o.semiMajor > 0 && o.period <= 0:
		o.period = 2 * math.Pi * math.Sqrt(o.semiMajor*o.semiMajor*o.semiMajor/mu)
	case o.period <= 0:
		return nil, fmt.Errorf("either period or semi-major axis must be positive")
	}
	o.meanMotion = 2 * math.Pi / o.period

	// mean anomaly at transit center, where the true anomaly is pi/2 - omega
	nu := math.Pi/2 - b.ArgPeri
	e := b.Eccentricity
	ecc := math.Sqrt(1 - e*e)
	eAnom := math.Atan2(ecc*math.Sin(nu), e+math.Cos(nu))
	o.meanAnom0 = eAnom - e*math.Sin(eAnom)
	return o, nil
}

// Period returns the orbital period in days.
func (o *Orbit) Period() float64 { return o.period }

// SemiMajor returns the semi-major axis in solar radii.
func (o *Orbit) SemiMajor() float64 { return o.semiMajor }

// solveKepler inverts Kepler's equation by Newton iteration with a bisection
// fallback for near-parabolic orbits.
func solveKepler(meanAnom, ecc float64) float64 {
	m := math.Mod(meanAnom+math.Pi, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}
	m -= math.Pi

	e := m + ecc*math.Sin(m)
	for i := 0; i < 20; i++ {
		f := e - ecc*math.Sin(e) - m
		d := f / (1 - ecc*math.Cos(e))
		e -= d
		if math.Abs(d) < 1e-14 {
			return e
		}
	}

	// The residual is monotonic in e and the root lies in [m-ecc, m+ecc].
	lo, hi := m-ecc, m+ecc
	for i := 0; i < 100; i++ {
		e = 0.5 * (lo + hi)
		if e-ecc*math.Sin(e)-m > 0 {
			hi = e
		} else {
			lo = e
		}
	}
	return 0.5 * (lo + hi)
}

// Position returns the body center relative to the central body at time t,
// in solar radii. Positive z is toward the observer.
func (o *Orbit) Position(t float64) (x, y, z float64) {
	b := o.Body
	meanAnom := o.meanMotion*(t-b.TimeTransit) + o.meanAnom0
	eAnom := solveKepler(meanAnom, b.Eccentricity)

	e := b.Eccentricity
	nu := 2 * math.Atan2(math.Sqrt(1+e)*math.Sin(eAnom/2), math.Sqrt(1-e)*math.Cos(eAnom/2))
	r := o.semiMajor * (1 - e*math.Cos(eAnom))

	wf := b.ArgPeri + nu
	cosO, sinO := math.Cos(b.AscNode), math.Sin(b.AscNode)
	cosWf, sinWf := math.Cos(wf), math.Sin(wf)
	cosI, sinI := math.Cos(b.Inclination), math.Sin(b.Inclination)

	x = r * (cosO*cosWf - sinO*sinWf*cosI)
	y = r * (sinO*cosWf + cosO*sinWf*cosI)
	z = r * sinWf * sinI
	return x, y, z
}

// Separation returns the center-to-center distance at time t.
func (o *Orbit) Separation(t float64) float64 {
	x, y, z := o.Position(t)
	return math.Sqrt(x*x + y*y + z*z)
}

// ImpactParameter returns the sky-projected separation at time t in units of
// the central radius.
func (o *Orbit) ImpactParameter(t float64) (float64, error) {
	if o.Central.Radius <= 0 {
		return 0, fmt.Errorf("central radius %g must be positive", o.Central.Radius)
	}
	x, y, _ := o.Position(t)
	return math.Hypot(x, y) / o.Central.Radius, nil
}
