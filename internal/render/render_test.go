package render

import (
	"bytes"
	"encoding/csv"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/starflux/internal/surface"
	"github.com/sawpanic/starflux/internal/ylm"
)

func TestRender_UniformDisk(t *testing.T) {
	im, err := Render(surface.Uniform(), 0, 101)
	require.NoError(t, err)

	mid := 50
	assert.InDelta(t, 1/math.Pi, im.At(mid, mid), 1e-12, "disk center carries intensity 1/pi")
	assert.True(t, math.IsNaN(im.At(0, 0)), "corners are off the disk")
	assert.False(t, math.IsNaN(im.At(mid, 0)), "the top of the limb is on the disk")
}

func TestRender_FluxFromPixelSum(t *testing.T) {
	s := surface.Uniform()
	s.U = []float64{0.4, 0.26}

	const res = 201
	im, err := Render(s, 0, res)
	require.NoError(t, err)

	h := 2.0 / float64(res-1)
	sum := 0.0
	for _, v := range im.Data {
		if !math.IsNaN(v) {
			sum += v * h * h
		}
	}
	assert.InDelta(t, 1.0, sum, 0.03, "pixel sum should approximate the unit disk flux")
}

func TestRender_SpotDarkensPoleEdgeOn(t *testing.T) {
	delta, err := ylm.Spot(10, 0.3, 0.3)
	require.NoError(t, err)
	s := surface.New(ylm.New().Add(delta))

	im, err := Render(s, 0, 101)
	require.NoError(t, err)

	mid := 50
	assert.Less(t, im.At(mid, 0), im.At(mid, mid),
		"edge-on polar spot should darken the top limb")
}

func TestRender_RejectsTinyResolution(t *testing.T) {
	_, err := Render(surface.Uniform(), 0, 1)
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	im, err := Render(surface.Uniform(), 0, 11)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, im.WriteCSV(&buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 11)
	assert.Empty(t, rows[0][0], "off-disk pixel serializes as an empty cell")
	assert.Contains(t, rows[5][5], "0.318", "center pixel holds 1/pi")
}

func TestWritePGM(t *testing.T) {
	im, err := Render(surface.Uniform(), 0, 11)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, im.WritePGM(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "P2\n11 11\n255\n"))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3+11, "header plus one line per row")
	assert.Contains(t, lines[3+5], "255", "uniform disk renders at full brightness")
}
