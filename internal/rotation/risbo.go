package rotation

import "math"

// dPlanes computes the Wigner little-d matrices d^l_{m,m'}(beta) for every
// degree l up to deg by Risbo's recursion. Plane l is indexed [m+l][m'+l].
func dPlanes(deg int, beta float64) [][][]float64 {
	L := deg + 1
	size := 2*L - 1
	dl := make([][]float64, size)
	for i := range dl {
		dl[i] = make([]float64, size)
	}

	out := make([][][]float64, deg+1)
	for el := 0; el <= deg; el++ {
		risboStep(dl, beta, L, el)
		b := make([][]float64, 2*el+1)
		for i := range b {
			b[i] = make([]float64, 2*el+1)
			copy(b[i], dl[L-1-el+i][L-1-el:L+el])
		}
		out[el] = b
	}
	return out
}

// risboStep advances the working plane from degree el-1 to el. Only the
// central (2el+1)^2 block is meaningful afterwards.
func risboStep(dl [][]float64, beta float64, L, el int) {
	if el == 0 {
		dl[L-1][L-1] = 1
		return
	}
	if el == 1 {
		cb, sb := math.Cos(beta), math.Sin(beta)
		ch, sh := math.Cos(beta/2), math.Sin(beta/2)
		isq := 1 / math.Sqrt2
		dl[L-2][L-2] = ch * ch
		dl[L-2][L-1] = sb * isq
		dl[L-2][L] = sh * sh
		dl[L-1][L-2] = -sb * isq
		dl[L-1][L-1] = cb
		dl[L-1][L] = sb * isq
		dl[L][L-2] = sh * sh
		dl[L][L-1] = -sb * isq
		dl[L][L] = ch * ch
		return
	}

	coshb := -math.Cos(beta / 2)
	sinhb := math.Sin(beta / 2)

	j := 2*el - 1
	dd := make([][]float64, j+1)
	for i := range dd {
		dd[i] = make([]float64, j+1)
	}
	for k := 0; k < j; k++ {
		for i := 0; i < j; i++ {
			v := dl[k-el+L][i-el+L]
			if v == 0 {
				continue
			}
			sqI := math.Sqrt(float64(i + 1))
			sqK := math.Sqrt(float64(k + 1))
			sqJI := math.Sqrt(float64(j - i))
			sqJK := math.Sqrt(float64(j - k))
			dd[k][i] += sqJI * sqJK * v * coshb
			dd[k][i+1] -= sqI * sqJK * v * sinhb
			dd[k+1][i] += sqJI * sqK * v * sinhb
			dd[k+1][i+1] += sqI * sqK * v * coshb
		}
	}

	for r := L - 1 - el; r <= L-1+el; r++ {
		for c := L - 1 - el; c <= L-1+el; c++ {
			dl[r][c] = 0
		}
	}

	j = 2 * el
	norm := 1 / float64(j*(j-1))
	for k := 0; k < j; k++ {
		for i := 0; i < j; i++ {
			v := dd[k][i]
			if v == 0 {
				continue
			}
			sqI := math.Sqrt(float64(i + 1))
			sqK := math.Sqrt(float64(k + 1))
			sqJI := math.Sqrt(float64(j - i))
			sqJK := math.Sqrt(float64(j - k))
			dl[L-1-el+k][L-1-el+i] += sqJI * sqJK * v * coshb * norm
			dl[L-1-el+k][L-el+i] -= sqI * sqJK * v * sinhb * norm
			dl[L-el+k][L-1-el+i] += sqJI * sqK * v * sinhb * norm
			dl[L-el+k][L-el+i] += sqI * sqK * v * coshb * norm
		}
	}
}
