// Package rotation rotates spherical harmonic coefficient vectors through
// Wigner matrices built by Risbo's recursion, and evaluates the Wigner 3-j
// symbols needed for harmonic products.
package rotation

import "math"

func lnFact(n int) float64 {
	v, _ := math.Lgamma(float64(n) + 1)
	return v
}

// ThreeJ evaluates the Wigner 3-j symbol (l1 l2 l3; m1 m2 m3) by the Racah
// sum with log-space factorials. Selection rule violations return zero.
func ThreeJ(l1, l2, l3, m1, m2, m3 int) float64 {
	if m1+m2+m3 != 0 {
		return 0
	}
	if l3 < abs(l1-l2) || l3 > l1+l2 {
		return 0
	}
	if abs(m1) > l1 || abs(m2) > l2 || abs(m3) > l3 {
		return 0
	}

	lnDelta := lnFact(l1+l2-l3) + lnFact(l1-l2+l3) + lnFact(-l1+l2+l3) - lnFact(l1+l2+l3+1)
	lnNum := lnFact(l1+m1) + lnFact(l1-m1) + lnFact(l2+m2) +
		lnFact(l2-m2) + lnFact(l3+m3) + lnFact(l3-m3)

	tMin := max(0, l2-l3-m1, l1-l3+m2)
	tMax := min(l1+l2-l3, l1-m1, l2+m2)
	var sum float64
	for t := tMin; t <= tMax; t++ {
		lnTerm := lnFact(t) + lnFact(l1+l2-l3-t) + lnFact(l1-m1-t) +
			lnFact(l2+m2-t) + lnFact(l3-l2+m1+t) + lnFact(l3-l1-m2+t)
		term := math.Exp(0.5*(lnDelta+lnNum) - lnTerm)
		if t%2 == 1 {
			term = -term
		}
		sum += term
	}
	if (l1-l2-m3)%2 != 0 {
		sum = -sum
	}
	return sum
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
