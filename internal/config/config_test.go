package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "system.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validConfig = `
name: demo
central:
  mass: 1.0
  radius: 1.0
  surface:
    ydeg: 5
    limb_darkening: [0.4, 0.26]
    rotation_period: 25.0
    spots:
      - contrast: 0.2
        radius_deg: 15
        lat_deg: 10
        lon_deg: 20
bodies:
  - name: planet_b
    radius: 0.1
    period: 3.5
engine:
  lmax: 8
  order: 30
times:
  start: 0.0
  stop: 1.0
  num: 11
output:
  dir: artifacts
  format: json
`

func TestLoadSystemConfig_Valid(t *testing.T) {
	c, err := LoadSystemConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "demo", c.Name)
	assert.Equal(t, 1.0, c.Central.Mass)
	require.Len(t, c.Bodies, 1)
	assert.Equal(t, "planet_b", c.Bodies[0].Name)
	assert.Equal(t, 30, c.Engine.Order)
	assert.Equal(t, "artifacts", c.Output.Dir)
	assert.Equal(t, "json", c.Output.Format)
	assert.Equal(t, []string{"central", "planet_b"}, c.BodyLabels())
}

func TestLoadSystemConfig_MissingFile(t *testing.T) {
	_, err := LoadSystemConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadSystemConfig_RejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"zero central mass": `
central: {mass: 0, radius: 1}
`,
		"hyperbolic orbit": `
central: {mass: 1, radius: 1}
bodies:
  - {radius: 0.1, period: 3, eccentricity: 1.2}
`,
		"orbit without size": `
central: {mass: 1, radius: 1}
bodies:
  - {radius: 0.1}
`,
		"spot without ydeg": `
central:
  mass: 1
  radius: 1
  surface:
    spots:
      - {contrast: 0.1, radius_deg: 10}
`,
		"surface without body radius": `
central: {mass: 1, radius: 1}
bodies:
  - period: 3
    surface: {ydeg: 2}
`,
		"quadrature order too high": `
central: {mass: 1, radius: 1}
engine: {order: 500}
`,
		"surface degree above engine cap": `
central:
  mass: 1
  radius: 1
  surface: {ydeg: 6}
engine: {lmax: 4}
`,
		"unknown output format": `
central: {mass: 1, radius: 1}
output: {format: xml}
`,
		"degenerate time grid": `
central: {mass: 1, radius: 1}
times: {start: 1.0, stop: 0.5, num: 10}
`,
	}
	for name, body := range cases {
		_, err := LoadSystemConfig(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestBuild_AssemblesSystem(t *testing.T) {
	c, err := LoadSystemConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	sys, err := c.Build()
	require.NoError(t, err)

	require.NotNil(t, sys.CentralSurface)
	assert.Equal(t, []float64{0.4, 0.26}, sys.CentralSurface.U)
	assert.Equal(t, 25.0, sys.CentralSurface.Period)
	assert.NotNil(t, sys.CentralSurface.Y, "spots should expand into a map")
	assert.False(t, sys.CentralSurface.Y.Diagonal(), "an off-pole spot is not zonal")

	require.Len(t, sys.Bodies, 1)
	b := sys.Bodies[0].Body
	assert.Equal(t, 0.1, b.Radius)
	assert.InDelta(t, math.Pi/2, b.ArgPeri, 1e-15, "argument of periastron defaults to 90 degrees")
	assert.InDelta(t, math.Pi/2, b.Inclination, 1e-15, "inclination defaults to edge-on")
	assert.Nil(t, sys.Bodies[0].Surface)
}

func TestBuildSurface_HarmonicsAndOrientation(t *testing.T) {
	inc := 45.0
	amp := 0.7
	sc := &SurfaceConfig{
		YDeg:           2,
		Harmonics:      []HarmonicCoeff{{L: 2, M: -1, Value: 0.3}},
		InclinationDeg: &inc,
		ObliquityDeg:   30,
		Amplitude:      &amp,
	}
	require.NoError(t, sc.Validate())

	s, err := sc.BuildSurface()
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/4, s.Inc, 1e-15)
	assert.InDelta(t, math.Pi/6, s.Obl, 1e-15)
	assert.Equal(t, 0.7, s.Amplitude)
	assert.Equal(t, 0.3, s.Y.At(2, -1))
	assert.Equal(t, 1.0, s.Y.At(0, 0))
}

func TestBuildSurface_RejectsMixedCoefficients(t *testing.T) {
	sc := &SurfaceConfig{
		Harmonics:    []HarmonicCoeff{{L: 1, M: 0, Value: 0.1}},
		Coefficients: []float64{1, 0, 0.1, 0},
	}
	assert.Error(t, sc.Validate())
}

func TestGridConfig_Times(t *testing.T) {
	g := GridConfig{Start: 0, Stop: 1, Num: 5}
	times := g.Times()
	require.Len(t, times, 5)
	assert.Equal(t, 0.0, times[0])
	assert.Equal(t, 1.0, times[4])
	assert.InDelta(t, 0.25, times[1], 1e-15)

	assert.Nil(t, GridConfig{}.Times())
}

func TestShippedExampleConfig(t *testing.T) {
	c, err := LoadSystemConfig(filepath.Join("..", "..", "config", "system.yaml"))
	require.NoError(t, err, "the example config should stay valid")

	sys, err := c.Build()
	require.NoError(t, err)
	assert.NotNil(t, sys.CentralSurface)
	assert.Len(t, c.Times.Times(), 500)
}
