package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/starflux/internal/artifacts"
	"github.com/sawpanic/starflux/internal/basis"
	"github.com/sawpanic/starflux/internal/lightcurve"
	applog "github.com/sawpanic/starflux/internal/log"
	"github.com/sawpanic/starflux/internal/solution"
	"github.com/sawpanic/starflux/internal/surface"
	"github.com/sawpanic/starflux/internal/ylm"
)

// benchResult captures per-degree evaluation timings.
type benchResult struct {
	Lmax       int   `json:"lmax"`
	Coeffs     int   `json:"coefficients"`
	PhaseNsOp  int64 `json:"phase_ns_per_op"`
	OccultNsOp int64 `json:"occult_ns_per_op"`
}

type benchReport struct {
	Timestamp time.Time     `json:"timestamp"`
	Samples   int           `json:"samples_per_degree"`
	Order     int           `json:"quadrature_order"`
	Results   []benchResult `json:"results"`
}

// benchSurface builds an oblique map with power spread over every degree
// up to lmax, so no term short-circuits.
func benchSurface(lmax int) (*surface.Surface, error) {
	dense := make([]float64, basis.Size(lmax))
	dense[0] = 1
	for l := 1; l <= lmax; l++ {
		dense[basis.Index(l, 0)] = 0.1 / float64(l)
		dense[basis.Index(l, 1)] = 0.05 / float64(l)
	}
	y, err := ylm.FromDense(dense)
	if err != nil {
		return nil, err
	}
	s := surface.New(y)
	s.Obl = 0.2
	return s, nil
}

// runBench times phase and occultation flux evaluation across map
// degrees and writes a JSON artifact.
func runBench(cmd *cobra.Command, args []string) error {
	lmaxMax, _ := cmd.Flags().GetInt("lmax")
	samples, _ := cmd.Flags().GetInt("samples")
	outDir, _ := cmd.Flags().GetString("out")
	progressMode, _ := cmd.Flags().GetString("progress")

	if lmaxMax < 0 || lmaxMax > 20 {
		return fmt.Errorf("lmax %d outside [0, 20]", lmaxMax)
	}
	if samples < 1 {
		return fmt.Errorf("samples %d must be positive", samples)
	}

	log.Info().
		Int("lmax", lmaxMax).
		Int("samples", samples).
		Msg("Starting engine benchmark")

	pi := applog.NewProgressIndicator("bench", lmaxMax+1, progressConfig(progressMode))

	occ := &lightcurve.Occultor{Radius: 0.1, X: 0.3, Y: 0.2, Z: 1}
	report := benchReport{
		Timestamp: time.Now().UTC(),
		Samples:   samples,
		Order:     solution.DefaultOrder,
	}

	for lmax := 0; lmax <= lmaxMax; lmax++ {
		surf, err := benchSurface(lmax)
		if err != nil {
			pi.Fail(err.Error())
			return err
		}
		eval, err := lightcurve.NewEvaluator(surf)
		if err != nil {
			pi.Fail(err.Error())
			return err
		}

		start := time.Now()
		for i := 0; i < samples; i++ {
			eval.Flux(nil, float64(i)*0.01, solution.DefaultOrder)
		}
		phaseNs := time.Since(start).Nanoseconds() / int64(samples)

		start = time.Now()
		for i := 0; i < samples; i++ {
			eval.Flux(occ, float64(i)*0.01, solution.DefaultOrder)
		}
		occultNs := time.Since(start).Nanoseconds() / int64(samples)

		report.Results = append(report.Results, benchResult{
			Lmax:       lmax,
			Coeffs:     basis.Size(lmax),
			PhaseNsOp:  phaseNs,
			OccultNsOp: occultNs,
		})
		pi.Increment()
	}
	pi.Finish()

	run, err := artifacts.NewRun(outDir)
	if err != nil {
		return err
	}
	path, err := run.WriteJSON("bench.json", report)
	if err != nil {
		return err
	}

	fmt.Printf("%6s %8s %14s %14s\n", "lmax", "coeffs", "phase ns/op", "occult ns/op")
	for _, r := range report.Results {
		fmt.Printf("%6d %8d %14d %14d\n", r.Lmax, r.Coeffs, r.PhaseNsOp, r.OccultNsOp)
	}
	fmt.Printf("\n✅ Benchmark artifact: %s\n", path)

	return nil
}
