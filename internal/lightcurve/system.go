package lightcurve

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sawpanic/starflux/internal/keplerian"
	"github.com/sawpanic/starflux/internal/solution"
	"github.com/sawpanic/starflux/internal/surface"
)

// System couples a central star and its orbiting bodies with their surfaces
// for joint light curve evaluation. Bodies occult the central star and are
// eclipsed by it; mutual events between bodies are not modeled.
type System struct {
	Central        keplerian.Central
	CentralSurface *surface.Surface
	Bodies         []SystemBody
}

// SystemBody is an orbiting companion and its optional emission map.
type SystemBody struct {
	Body    keplerian.Body
	Surface *surface.Surface
}

// AddBody appends an orbiting companion. A nil surface marks a dark body
// that occults but does not emit.
func (sys *System) AddBody(b keplerian.Body, s *surface.Surface) *System {
	sys.Bodies = append(sys.Bodies, SystemBody{Body: b, Surface: s})
	return sys
}

// Options tunes light curve evaluation.
type Options struct {
	Order   int // quadrature order for the occultation integrals
	Workers int // concurrent time samples
}

func (o Options) withDefaults() Options {
	if o.Order <= 0 {
		o.Order = solution.DefaultOrder
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// systemState holds the per-run derived orbits and evaluators. Everything in
// it is read-only once built, so workers share it freely.
type systemState struct {
	orbits      []*keplerian.Orbit
	centralEval *Evaluator
	bodyEvals   []*Evaluator
}

func (sys *System) prepare() (*systemState, error) {
	if sys.Central.Radius <= 0 {
		return nil, fmt.Errorf("central radius %g must be positive", sys.Central.Radius)
	}
	st := &systemState{
		orbits:    make([]*keplerian.Orbit, len(sys.Bodies)),
		bodyEvals: make([]*Evaluator, len(sys.Bodies)),
	}
	for i, sb := range sys.Bodies {
		o, err := keplerian.NewOrbit(sys.Central, sb.Body)
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
		st.orbits[i] = o
		if sb.Surface == nil {
			continue
		}
		if sb.Body.Radius <= 0 {
			return nil, fmt.Errorf("body %d has a surface but no radius", i)
		}
		ev, err := NewEvaluator(sb.Surface)
		if err != nil {
			return nil, fmt.Errorf("body %d surface: %w", i, err)
		}
		st.bodyEvals[i] = ev
	}
	if sys.CentralSurface != nil {
		ev, err := NewEvaluator(sys.CentralSurface)
		if err != nil {
			return nil, fmt.Errorf("central surface: %w", err)
		}
		st.centralEval = ev
	}
	return st, nil
}

// sampleAt fills column values for one time sample.
func (sys *System) sampleAt(st *systemState, t float64, order int, out [][]float64, i int) {
	n := len(sys.Bodies)
	type xyz struct{ x, y, z float64 }
	pos := make([]xyz, n)
	for k, o := range st.orbits {
		x, y, z := o.Position(t)
		pos[k] = xyz{x, y, z}
	}

	if st.centralEval != nil {
		theta := sys.CentralSurface.RotationPhase(t)
		if n == 0 {
			out[0][i] = st.centralEval.Flux(nil, theta, order)
		} else {
			// sum the per-body occulted fluxes, then remove the phase
			// flux counted once per extra body
			rc := sys.Central.Radius
			total := 0.0
			for k := range st.orbits {
				occ := &Occultor{
					Radius: sys.Bodies[k].Body.Radius / rc,
					X:      pos[k].x / rc,
					Y:      pos[k].y / rc,
					Z:      pos[k].z / rc,
				}
				total += st.centralEval.Flux(occ, theta, order)
			}
			total -= float64(n-1) * st.centralEval.Flux(nil, theta, order)
			out[0][i] = total
		}
	}

	for k, ev := range st.bodyEvals {
		if ev == nil {
			continue
		}
		rb := sys.Bodies[k].Body.Radius
		theta := sys.Bodies[k].Surface.RotationPhase(t)
		occ := &Occultor{
			Radius: sys.Central.Radius / rb,
			X:      -pos[k].x / rb,
			Y:      -pos[k].y / rb,
			Z:      -pos[k].z / rb,
		}
		out[1+k][i] = ev.Flux(occ, theta, order)
	}
}

// LightCurve returns one flux column per component at the given times, the
// central star first and then each body in order. Components without a
// surface produce zero columns.
func (sys *System) LightCurve(ctx context.Context, times []float64, opts Options) ([][]float64, error) {
	opts = opts.withDefaults()
	st, err := sys.prepare()
	if err != nil {
		return nil, err
	}

	out := make([][]float64, 1+len(sys.Bodies))
	for i := range out {
		out[i] = make([]float64, len(times))
	}

	workers := opts.Workers
	if workers > len(times) && len(times) > 0 {
		workers = len(times)
	}
	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				sys.sampleAt(st, times[i], opts.Order, out, i)
			}
		}()
	}

feed:
	for i := range times {
		select {
		case <-ctx.Done():
			break feed
		case idx <- i:
		}
	}
	close(idx)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TotalLightCurve sums the component columns into a single series.
func (sys *System) TotalLightCurve(ctx context.Context, times []float64, opts Options) ([]float64, error) {
	cols, err := sys.LightCurve(ctx, times, opts)
	if err != nil {
		return nil, err
	}
	total := make([]float64, len(times))
	for _, col := range cols {
		for i, v := range col {
			total[i] += v
		}
	}
	return total, nil
}
