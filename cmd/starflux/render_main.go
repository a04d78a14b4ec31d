package main

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/starflux/internal/artifacts"
	"github.com/sawpanic/starflux/internal/config"
	"github.com/sawpanic/starflux/internal/render"
	"github.com/sawpanic/starflux/internal/surface"
)

// runRender rasterizes the configured central surface and writes an
// image artifact.
func runRender(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	outDir, _ := cmd.Flags().GetString("out")
	format, _ := cmd.Flags().GetString("format")
	res, _ := cmd.Flags().GetInt("res")
	thetaDeg, _ := cmd.Flags().GetFloat64("theta-deg")

	cfg, err := config.LoadSystemConfig(configPath)
	if err != nil {
		return err
	}

	surf := surface.Uniform()
	if cfg.Central.Surface != nil {
		surf, err = cfg.Central.Surface.BuildSurface()
		if err != nil {
			return fmt.Errorf("failed to build central surface: %w", err)
		}
	}

	img, err := render.Render(surf, thetaDeg*math.Pi/180, res)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	run, err := artifacts.NewRun(outDir)
	if err != nil {
		return err
	}

	f, err := run.CreateFile("surface." + format)
	if err != nil {
		return err
	}
	defer f.Close()

	if format == "pgm" {
		err = img.WritePGM(f)
	} else {
		err = img.WriteCSV(f)
	}
	if err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	lo, hi := img.MinMax()
	fmt.Printf("✅ Surface rendered: %s\n", f.Name())
	fmt.Printf("   %dx%d pixels at theta=%.1f deg, intensity range [%.6f, %.6f]\n",
		res, res, thetaDeg, lo, hi)

	log.Info().
		Str("run_id", run.ID).
		Int("res", res).
		Float64("theta_deg", thetaDeg).
		Msg("Render completed")

	return nil
}
