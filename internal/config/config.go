// Package config loads and validates the on-disk description of a stellar
// system and builds the runtime model from it.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/starflux/internal/keplerian"
	"github.com/sawpanic/starflux/internal/lightcurve"
	"github.com/sawpanic/starflux/internal/surface"
	"github.com/sawpanic/starflux/internal/ylm"
)

// maxDegree caps harmonic expansions so operator caches stay bounded.
const maxDegree = 30

// SystemConfig describes a central star, its companions and the evaluation
// settings. Masses are in solar masses, lengths in solar radii, times in
// days and angles in degrees.
type SystemConfig struct {
	Name    string        `yaml:"name"`
	Central CentralConfig `yaml:"central"`
	Bodies  []BodyConfig  `yaml:"bodies"`
	Engine  EngineConfig  `yaml:"engine"`
	Times   GridConfig    `yaml:"times"`
	Output  OutputConfig  `yaml:"output"`
}

// CentralConfig describes the star at the focus.
type CentralConfig struct {
	Mass    float64        `yaml:"mass"`
	Radius  float64        `yaml:"radius"`
	Surface *SurfaceConfig `yaml:"surface,omitempty"`
}

// BodyConfig describes one orbiting companion.
type BodyConfig struct {
	Name           string         `yaml:"name"`
	Radius         float64        `yaml:"radius"`
	Mass           float64        `yaml:"mass"`
	Period         float64        `yaml:"period"`
	SemiMajor      float64        `yaml:"semi_major"`
	Eccentricity   float64        `yaml:"eccentricity"`
	ArgPeriDeg     *float64       `yaml:"arg_peri_deg,omitempty"`
	AscNodeDeg     float64        `yaml:"asc_node_deg"`
	InclinationDeg *float64       `yaml:"inclination_deg,omitempty"`
	TimeTransit    float64        `yaml:"time_transit"`
	Surface        *SurfaceConfig `yaml:"surface,omitempty"`
}

// SurfaceConfig describes an emission map. Harmonic coefficients may be
// given sparsely or as a dense vector; spots and rings are expanded on top.
type SurfaceConfig struct {
	YDeg           int             `yaml:"ydeg"`
	Harmonics      []HarmonicCoeff `yaml:"harmonics,omitempty"`
	Coefficients   []float64       `yaml:"coefficients,omitempty"`
	LimbDarkening  []float64       `yaml:"limb_darkening,omitempty"`
	InclinationDeg *float64        `yaml:"inclination_deg,omitempty"`
	ObliquityDeg   float64         `yaml:"obliquity_deg"`
	RotationPeriod float64         `yaml:"rotation_period"`
	Amplitude      *float64        `yaml:"amplitude,omitempty"`
	Normalize      *bool           `yaml:"normalize,omitempty"`
	Spots          []SpotConfig    `yaml:"spots,omitempty"`
	Rings          []RingConfig    `yaml:"rings,omitempty"`
}

// HarmonicCoeff is one sparse map entry.
type HarmonicCoeff struct {
	L     int     `yaml:"l"`
	M     int     `yaml:"m"`
	Value float64 `yaml:"value"`
}

// SpotConfig places a circular spot on the map.
type SpotConfig struct {
	Contrast  float64 `yaml:"contrast"`
	RadiusDeg float64 `yaml:"radius_deg"`
	LatDeg    float64 `yaml:"lat_deg"`
	LonDeg    float64 `yaml:"lon_deg"`
}

// RingConfig places a banded feature on the map.
type RingConfig struct {
	Contrast      float64 `yaml:"contrast"`
	WidthDeg      float64 `yaml:"width_deg"`
	ColatitudeDeg float64 `yaml:"colatitude_deg"`
}

// EngineConfig tunes the evaluation. LMax caps the harmonic degree of every
// surface in the system; zero leaves only the global bound.
type EngineConfig struct {
	LMax    int `yaml:"lmax"`
	Order   int `yaml:"order"`
	Workers int `yaml:"workers"`
}

// GridConfig is a uniform observation time grid.
type GridConfig struct {
	Start float64 `yaml:"start"`
	Stop  float64 `yaml:"stop"`
	Num   int     `yaml:"num"`
}

// OutputConfig sets artifact defaults; command line flags override it.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// LoadSystemConfig reads, parses and validates a system description.
func LoadSystemConfig(path string) (*SystemConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read system config: %w", err)
	}
	return ParseSystemConfig(b)
}

// ParseSystemConfig parses and validates a system description from raw
// bytes. YAML and JSON bodies are both accepted.
func ParseSystemConfig(b []byte) (*SystemConfig, error) {
	var config SystemConfig
	if err := yaml.Unmarshal(b, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal system config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("system config validation failed: %w", err)
	}

	return &config, nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Validate checks physical and structural constraints before any model is
// built.
func (c *SystemConfig) Validate() error {
	if c.Central.Mass <= 0 {
		return fmt.Errorf("central mass %g must be positive", c.Central.Mass)
	}
	if c.Central.Radius <= 0 {
		return fmt.Errorf("central radius %g must be positive", c.Central.Radius)
	}
	degCap := maxDegree
	if c.Engine.LMax != 0 {
		if c.Engine.LMax < 0 || c.Engine.LMax > maxDegree {
			return fmt.Errorf("engine lmax %d outside [1, %d]", c.Engine.LMax, maxDegree)
		}
		degCap = c.Engine.LMax
	}
	if c.Central.Surface != nil {
		if err := c.Central.Surface.Validate(); err != nil {
			return fmt.Errorf("central surface: %w", err)
		}
		if c.Central.Surface.YDeg > degCap {
			return fmt.Errorf("central surface ydeg %d above engine lmax %d", c.Central.Surface.YDeg, degCap)
		}
	}
	for i, b := range c.Bodies {
		name := b.Name
		if name == "" {
			name = fmt.Sprintf("body %d", i)
		}
		if b.Period <= 0 && b.SemiMajor <= 0 {
			return fmt.Errorf("%s needs a period or a semi-major axis", name)
		}
		if b.Eccentricity < 0 || b.Eccentricity >= 1 {
			return fmt.Errorf("%s eccentricity %g outside [0, 1)", name, b.Eccentricity)
		}
		if b.Radius < 0 || b.Mass < 0 {
			return fmt.Errorf("%s radius and mass must not be negative", name)
		}
		if b.Surface != nil {
			if b.Radius == 0 {
				return fmt.Errorf("%s has a surface but no radius", name)
			}
			if err := b.Surface.Validate(); err != nil {
				return fmt.Errorf("%s surface: %w", name, err)
			}
			if b.Surface.YDeg > degCap {
				return fmt.Errorf("%s surface ydeg %d above engine lmax %d", name, b.Surface.YDeg, degCap)
			}
		}
	}
	if c.Engine.Order < 0 || c.Engine.Order > 200 {
		return fmt.Errorf("quadrature order %d outside [0, 200]", c.Engine.Order)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("worker count %d must not be negative", c.Engine.Workers)
	}
	if c.Times.Num != 0 {
		if c.Times.Num < 2 {
			return fmt.Errorf("time grid needs at least 2 samples, got %d", c.Times.Num)
		}
		if c.Times.Stop <= c.Times.Start {
			return fmt.Errorf("time grid stop %g must exceed start %g", c.Times.Stop, c.Times.Start)
		}
	}
	switch c.Output.Format {
	case "", "csv", "json":
	default:
		return fmt.Errorf("output format %q not supported (csv|json)", c.Output.Format)
	}
	return nil
}

func (sc *SurfaceConfig) Validate() error {
	if sc.YDeg < 0 || sc.YDeg > maxDegree {
		return fmt.Errorf("ydeg %d outside [0, %d]", sc.YDeg, maxDegree)
	}
	if len(sc.LimbDarkening) > maxDegree {
		return fmt.Errorf("limb darkening order %d above %d", len(sc.LimbDarkening), maxDegree)
	}
	if len(sc.Harmonics) > 0 && len(sc.Coefficients) > 0 {
		return fmt.Errorf("harmonics and coefficients are mutually exclusive")
	}
	for _, h := range sc.Harmonics {
		if h.L < 0 || h.L > maxDegree || h.M < -h.L || h.M > h.L {
			return fmt.Errorf("invalid harmonic index (l=%d, m=%d)", h.L, h.M)
		}
	}
	if (len(sc.Spots) > 0 || len(sc.Rings) > 0) && sc.YDeg < 1 {
		return fmt.Errorf("spots and rings need ydeg >= 1")
	}
	for _, s := range sc.Spots {
		if s.RadiusDeg <= 0 || s.RadiusDeg > 180 {
			return fmt.Errorf("spot radius %g deg outside (0, 180]", s.RadiusDeg)
		}
	}
	for _, r := range sc.Rings {
		if r.WidthDeg <= 0 || r.WidthDeg > 90 {
			return fmt.Errorf("ring width %g deg outside (0, 90]", r.WidthDeg)
		}
	}
	return nil
}

// BuildSurface assembles the runtime surface from its configuration.
func (sc *SurfaceConfig) BuildSurface() (*surface.Surface, error) {
	var m *ylm.Map
	switch {
	case len(sc.Coefficients) > 0:
		var err error
		if m, err = ylm.FromDense(sc.Coefficients); err != nil {
			return nil, err
		}
	case len(sc.Harmonics) > 0:
		coeffs := make(map[[2]int]float64, len(sc.Harmonics))
		for _, h := range sc.Harmonics {
			coeffs[[2]int{h.L, h.M}] = h.Value
		}
		var err error
		if m, err = ylm.FromCoeffs(coeffs); err != nil {
			return nil, err
		}
	}

	for _, sp := range sc.Spots {
		delta, err := ylm.SpotAt(sc.YDeg, sp.Contrast, radians(sp.RadiusDeg), radians(sp.LatDeg), radians(sp.LonDeg))
		if err != nil {
			return nil, fmt.Errorf("expanding spot: %w", err)
		}
		if m == nil {
			m = ylm.New()
		}
		m = m.Add(delta)
	}
	for _, rg := range sc.Rings {
		delta, err := ylm.Ring(sc.YDeg, rg.Contrast, radians(rg.WidthDeg), radians(rg.ColatitudeDeg))
		if err != nil {
			return nil, fmt.Errorf("expanding ring: %w", err)
		}
		if m == nil {
			m = ylm.New()
		}
		m = m.Add(delta)
	}

	s := surface.New(m)
	s.U = sc.LimbDarkening
	if sc.InclinationDeg != nil {
		s.Inc = radians(*sc.InclinationDeg)
	}
	s.Obl = radians(sc.ObliquityDeg)
	s.Period = sc.RotationPeriod
	if sc.Amplitude != nil {
		s.Amplitude = *sc.Amplitude
	}
	if sc.Normalize != nil {
		s.Normalize = *sc.Normalize
	}
	return s, s.Validate()
}

func (b *BodyConfig) buildBody() keplerian.Body {
	argPeri, inc := 90.0, 90.0
	if b.ArgPeriDeg != nil {
		argPeri = *b.ArgPeriDeg
	}
	if b.InclinationDeg != nil {
		inc = *b.InclinationDeg
	}
	return keplerian.Body{
		Radius:       b.Radius,
		Mass:         b.Mass,
		Period:       b.Period,
		SemiMajor:    b.SemiMajor,
		Eccentricity: b.Eccentricity,
		ArgPeri:      radians(argPeri),
		AscNode:      radians(b.AscNodeDeg),
		Inclination:  radians(inc),
		TimeTransit:  b.TimeTransit,
	}
}

// Build assembles the runtime system from the configuration.
func (c *SystemConfig) Build() (*lightcurve.System, error) {
	sys := &lightcurve.System{
		Central: keplerian.Central{Mass: c.Central.Mass, Radius: c.Central.Radius},
	}
	if c.Central.Surface != nil {
		s, err := c.Central.Surface.BuildSurface()
		if err != nil {
			return nil, fmt.Errorf("central surface: %w", err)
		}
		sys.CentralSurface = s
	}
	for i, bc := range c.Bodies {
		sb := lightcurve.SystemBody{Body: bc.buildBody()}
		if bc.Surface != nil {
			s, err := bc.Surface.BuildSurface()
			if err != nil {
				return nil, fmt.Errorf("body %d surface: %w", i, err)
			}
			sb.Surface = s
		}
		sys.Bodies = append(sys.Bodies, sb)
	}
	return sys, nil
}

// EngineOptions returns the evaluation options with defaults left to the
// engine.
func (c *SystemConfig) EngineOptions() lightcurve.Options {
	return lightcurve.Options{Order: c.Engine.Order, Workers: c.Engine.Workers}
}

// BodyLabels returns one column label per light curve component.
func (c *SystemConfig) BodyLabels() []string {
	labels := []string{"central"}
	for i, b := range c.Bodies {
		if b.Name != "" {
			labels = append(labels, b.Name)
			continue
		}
		labels = append(labels, fmt.Sprintf("body_%d", i+1))
	}
	return labels
}

// Times lays the observation grid out as a sample vector.
func (g GridConfig) Times() []float64 {
	if g.Num < 2 {
		return nil
	}
	out := make([]float64, g.Num)
	step := (g.Stop - g.Start) / float64(g.Num-1)
	for i := range out {
		out[i] = g.Start + float64(i)*step
	}
	return out
}
