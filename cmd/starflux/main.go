package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "starflux"
	version = "v0.3.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Spherical harmonic light curves for stars and exoplanet systems",
		Version: version,
		Long: `starflux models stellar surfaces as real spherical harmonic expansions
and computes rotation phase curves and occultation light curves in closed
form, plus the Keplerian orbits that drive them.

Typical use:
   starflux flux --config config/system.yaml --out out
   starflux render --config config/system.yaml --res 400
   starflux solution --b 0.5 --r 0.1 --lmax 4
   starflux serve --port 8080`,
	}

	// Add flux command for system light-curve evaluation
	fluxCmd := &cobra.Command{
		Use:   "flux",
		Short: "Evaluate a system light curve from a YAML configuration",
		Long:  "Builds the configured system, evaluates every component flux over the time grid and writes CSV/JSON artifacts",
		RunE:  runFlux,
	}

	fluxCmd.Flags().String("config", "", "Path to the system YAML configuration (required)")
	fluxCmd.Flags().String("out", "out", "Artifact output directory")
	fluxCmd.Flags().Var(newChoiceValue("csv", "csv", "json"), "format", "Light curve output format (csv|json)")
	fluxCmd.Flags().Int("order", 0, "Quadrature order override (0 uses the configured value)")
	fluxCmd.Flags().Int("workers", 0, "Worker count override (0 uses the configured value)")
	fluxCmd.Flags().Float64("start", 0, "Time grid start override in days (with --num)")
	fluxCmd.Flags().Float64("stop", 0, "Time grid stop override in days (with --num)")
	fluxCmd.Flags().Int("num", 0, "Time grid sample count override")
	fluxCmd.Flags().Var(newChoiceValue("auto", "auto", "plain", "off"), "progress", "Progress output mode (auto|plain|off)")
	_ = fluxCmd.MarkFlagRequired("config")

	// Add render command for surface rasterization
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Rasterize the central surface in the plane of the sky",
		Long:  "Renders the configured central surface at a rotational phase and writes a PGM or CSV image artifact",
		RunE:  runRender,
	}

	renderCmd.Flags().String("config", "", "Path to the system YAML configuration (required)")
	renderCmd.Flags().String("out", "out", "Artifact output directory")
	renderCmd.Flags().Var(newChoiceValue("pgm", "pgm", "csv"), "format", "Image output format (pgm|csv)")
	renderCmd.Flags().Int("res", 300, "Image resolution in pixels per side")
	renderCmd.Flags().Float64("theta-deg", 0, "Rotational phase in degrees")
	_ = renderCmd.MarkFlagRequired("config")

	// Add solution command for solver diagnostics
	solutionCmd := &cobra.Command{
		Use:   "solution",
		Short: "Dump the occultation solution vector for one geometry",
		Long:  "Prints the Green's basis solution vector and the phase operator for an impact parameter and occultor radius",
		RunE:  runSolution,
	}

	solutionCmd.Flags().Float64("b", 0, "Impact parameter in stellar radii")
	solutionCmd.Flags().Float64("r", 0.1, "Occultor radius in stellar radii")
	solutionCmd.Flags().Int("lmax", 2, "Maximum spherical harmonic degree")
	solutionCmd.Flags().Int("order", 0, "Quadrature order (0 uses the default)")
	solutionCmd.Flags().Bool("json", false, "Emit JSON instead of a table")

	// Add bench command for engine throughput measurement
	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark flux evaluation across harmonic degrees",
		Long:  "Times phase and occultation flux evaluation for increasing map degrees and writes a JSON artifact",
		RunE:  runBench,
	}

	benchCmd.Flags().Int("lmax", 10, "Largest harmonic degree to benchmark")
	benchCmd.Flags().Int("samples", 500, "Flux evaluations per degree")
	benchCmd.Flags().String("out", "out", "Artifact output directory")
	benchCmd.Flags().Var(newChoiceValue("auto", "auto", "plain", "off"), "progress", "Progress output mode (auto|plain|off)")

	// Add serve command for the HTTP API
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the compute HTTP server",
		Long:  "Starts the local HTTP server with /health, /metrics, /lightcurve, /render and /solution endpoints",
		RunE:  runServe,
	}

	serveCmd.Flags().String("host", "", "Bind host (default 127.0.0.1)")
	serveCmd.Flags().Int("port", 0, "Bind port (default 8080 or STARFLUX_PORT)")
	serveCmd.Flags().Float64("rate", 10, "Request rate limit per second (0 disables)")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "Per-request timeout")

	// Add explicit version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s (%s)\n", appName, version, runtime.Version())
		},
	}

	rootCmd.AddCommand(fluxCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(solutionCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
