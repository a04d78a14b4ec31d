// Package render rasterizes surface maps as seen by the observer.
package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/sawpanic/starflux/internal/basis"
	"github.com/sawpanic/starflux/internal/lightcurve"
	"github.com/sawpanic/starflux/internal/surface"
)

// Image is a square raster of surface intensity on the plane of the sky.
// Pixels off the projected disk hold NaN.
type Image struct {
	Res  int
	Data []float64
}

// At returns the intensity of pixel (ix, iy), with iy counted from the top.
func (im *Image) At(ix, iy int) float64 { return im.Data[iy*im.Res+ix] }

// Render rasterizes the surface at rotational phase theta on a res by res
// grid spanning [-1, 1] in both sky directions.
func Render(s *surface.Surface, theta float64, res int) (*Image, error) {
	if res < 2 {
		return nil, fmt.Errorf("render resolution %d too small", res)
	}
	ev, err := lightcurve.NewEvaluator(s)
	if err != nil {
		return nil, err
	}
	p := ev.Polynomial(theta, 0)

	im := &Image{Res: res, Data: make([]float64, res*res)}
	for iy := 0; iy < res; iy++ {
		yy := 1 - 2*float64(iy)/float64(res-1)
		for ix := 0; ix < res; ix++ {
			xx := 2*float64(ix)/float64(res-1) - 1
			rho2 := xx*xx + yy*yy
			if rho2 > 1 {
				im.Data[iy*res+ix] = math.NaN()
				continue
			}
			im.Data[iy*res+ix] = basis.EvalVector(p, xx, yy, math.Sqrt(1-rho2))
		}
	}
	return im, nil
}

// MinMax returns the finite intensity range.
func (im *Image) MinMax() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range im.Data {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// WriteCSV writes the raster row by row. Off-disk pixels become empty cells.
func (im *Image) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	row := make([]string, im.Res)
	for iy := 0; iy < im.Res; iy++ {
		for ix := range row {
			v := im.At(ix, iy)
			if math.IsNaN(v) {
				row[ix] = ""
			} else {
				row[ix] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePGM writes an 8-bit ASCII grayscale image, scaling the finite range
// onto 0-255 with off-disk pixels black.
func (im *Image) WritePGM(w io.Writer) error {
	lo, hi := im.MinMax()
	span := hi - lo
	if _, err := fmt.Fprintf(w, "P2\n%d %d\n255\n", im.Res, im.Res); err != nil {
		return err
	}
	for iy := 0; iy < im.Res; iy++ {
		for ix := 0; ix < im.Res; ix++ {
			v := im.At(ix, iy)
			level := 0
			switch {
			case math.IsNaN(v):
			case span == 0:
				level = 255
			default:
				level = int(math.Round(255 * (v - lo) / span))
			}
			sep := " "
			if ix == im.Res-1 {
				sep = "\n"
			}
			if _, err := fmt.Fprintf(w, "%d%s", level, sep); err != nil {
				return err
			}
		}
	}
	return nil
}
