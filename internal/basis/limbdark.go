package basis

import "gonum.org/v1/gonum/mat"

// U0 returns the matrix mapping the padded limb darkening vector
// (1, u1, ..., uN) to the polynomial expansion of the intensity profile
// 1 - sum_i u_i (1 - z)^i, where z is the cosine of the viewing angle.
func U0(udeg int) *mat.Dense {
	cacheMu.RLock()
	if u, ok := u0Cache[udeg]; ok {
		cacheMu.RUnlock()
		return u
	}
	cacheMu.RUnlock()

	idx := polyIndex(udeg)
	u := mat.NewDense(Size(udeg), udeg+1, nil)
	u.Set(0, 0, 1)
	for i := 1; i <= udeg; i++ {
		for k := 0; k <= i; k++ {
			// Term of -(1-z)^i: minus sign folded into the expansion.
			c := -binom(i, k)
			if k%2 == 1 {
				c = -c
			}
			reduceZPower(k, func(di, dj, kb int, tri float64) {
				slot := idx[[3]int{di, dj, kb}]
				u.Set(slot, i, u.At(slot, i)+c*tri)
			})
		}
	}

	cacheMu.Lock()
	u0Cache[udeg] = u
	cacheMu.Unlock()
	return u
}
