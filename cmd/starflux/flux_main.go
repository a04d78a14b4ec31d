package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sawpanic/starflux/internal/artifacts"
	"github.com/sawpanic/starflux/internal/config"
	applog "github.com/sawpanic/starflux/internal/log"
	"github.com/sawpanic/starflux/internal/solution"
)

// progressConfig maps the --progress flag onto indicator behavior.
func progressConfig(mode string) applog.ProgressConfig {
	switch mode {
	case "plain", "off":
		return applog.QuietProgressConfig()
	default:
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return applog.DefaultProgressConfig()
		}
		return applog.QuietProgressConfig()
	}
}

// fluxSummary is the run manifest written next to the light curve.
type fluxSummary struct {
	Name      string    `json:"name,omitempty"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Samples   int       `json:"samples"`
	Bodies    int       `json:"bodies"`
	Order     int       `json:"order"`
	Workers   int       `json:"workers"`
	MinFlux   float64   `json:"min_total_flux"`
	MaxFlux   float64   `json:"max_total_flux"`
	Duration  string    `json:"duration"`
	Output    string    `json:"output"`
}

// runFlux evaluates a configured system over its time grid and writes
// light curve artifacts.
func runFlux(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	outDir, _ := cmd.Flags().GetString("out")
	format, _ := cmd.Flags().GetString("format")
	order, _ := cmd.Flags().GetInt("order")
	workers, _ := cmd.Flags().GetInt("workers")
	start, _ := cmd.Flags().GetFloat64("start")
	stop, _ := cmd.Flags().GetFloat64("stop")
	num, _ := cmd.Flags().GetInt("num")
	progressMode, _ := cmd.Flags().GetString("progress")

	steps := []string{"load config", "build system", "evaluate light curve", "write artifacts"}
	pipeline := applog.NewStepLogger("flux", steps, progressConfig(progressMode))

	pipeline.StartStep("load config")
	cfg, err := config.LoadSystemConfig(configPath)
	if err != nil {
		pipeline.Fail(err.Error())
		return err
	}
	if !cmd.Flags().Changed("out") && cfg.Output.Dir != "" {
		outDir = cfg.Output.Dir
	}
	if !cmd.Flags().Changed("format") && cfg.Output.Format != "" {
		format = cfg.Output.Format
	}
	times := cfg.Times.Times()
	if num > 0 {
		times = config.GridConfig{Start: start, Stop: stop, Num: num}.Times()
	}
	if len(times) == 0 {
		err := fmt.Errorf("no time grid: set times in %s or pass --start/--stop/--num", configPath)
		pipeline.Fail(err.Error())
		return err
	}
	pipeline.CompleteStep()

	pipeline.StartStep("build system")
	sys, err := cfg.Build()
	if err != nil {
		pipeline.Fail(err.Error())
		return err
	}
	opts := cfg.EngineOptions()
	if order > 0 {
		opts.Order = order
	}
	if workers > 0 {
		opts.Workers = workers
	}
	effOrder := opts.Order
	if effOrder == 0 {
		effOrder = solution.DefaultOrder
	}
	effWorkers := opts.Workers
	if effWorkers == 0 {
		effWorkers = runtime.NumCPU()
	}
	pipeline.CompleteStep()

	pipeline.StartStep("evaluate light curve")
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	evalStart := time.Now()
	columns, err := sys.LightCurve(ctx, times, opts)
	if err != nil {
		pipeline.Fail(err.Error())
		return fmt.Errorf("light curve evaluation failed: %w", err)
	}
	evalDuration := time.Since(evalStart)
	pipeline.CompleteStep()

	total := make([]float64, len(times))
	for _, col := range columns {
		for i, v := range col {
			total[i] += v
		}
	}
	minFlux, maxFlux := total[0], total[0]
	for _, v := range total {
		if v < minFlux {
			minFlux = v
		}
		if v > maxFlux {
			maxFlux = v
		}
	}

	pipeline.StartStep("write artifacts")
	run, err := artifacts.NewRun(outDir)
	if err != nil {
		pipeline.Fail(err.Error())
		return err
	}

	labels := cfg.BodyLabels()
	var outPath string
	if format == "csv" {
		outPath, err = run.WriteLightCurveCSV("lightcurve.csv", times, columns, labels)
	} else {
		outPath, err = run.WriteJSON("lightcurve.json", map[string]any{
			"times":   times,
			"labels":  labels,
			"columns": columns,
			"total":   total,
		})
	}
	if err != nil {
		pipeline.Fail(err.Error())
		return err
	}

	summary := fluxSummary{
		Name:      cfg.Name,
		RunID:     run.ID,
		Timestamp: time.Now().UTC(),
		Samples:   len(times),
		Bodies:    len(cfg.Bodies),
		Order:     effOrder,
		Workers:   effWorkers,
		MinFlux:   minFlux,
		MaxFlux:   maxFlux,
		Duration:  evalDuration.String(),
		Output:    outPath,
	}
	if _, err := run.WriteJSON("summary.json", summary); err != nil {
		pipeline.Fail(err.Error())
		return err
	}
	pipeline.CompleteStep()
	pipeline.Finish()

	fmt.Printf("✅ Light curve written: %s\n", outPath)
	fmt.Printf("   %d samples, %d bodies, order %d, %s\n",
		len(times), len(cfg.Bodies), effOrder, evalDuration.Round(time.Millisecond))
	fmt.Printf("   total flux range [%.6f, %.6f]\n", minFlux, maxFlux)

	log.Info().
		Str("run_id", run.ID).
		Int("samples", len(times)).
		Int("bodies", len(cfg.Bodies)).
		Dur("duration", evalDuration).
		Msg("Flux run completed")

	return nil
}
