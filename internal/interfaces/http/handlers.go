package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/sawpanic/starflux/internal/config"
	"github.com/sawpanic/starflux/internal/render"
	"github.com/sawpanic/starflux/internal/solution"
	"github.com/sawpanic/starflux/internal/surface"
)

const (
	maxBodyBytes      = 1 << 20
	maxGridSamples    = 100000
	maxResolution     = 512
	defaultResolution = 150
	maxSolutionDeg    = 20
	surfaceCacheCap   = 64
)

// Handlers bundles the compute endpoints. Surfaces built from identical
// configurations are cached, so a render animation pays the harmonic fit
// only once.
type Handlers struct {
	metrics *MetricsRegistry

	mu       sync.RWMutex
	surfaces map[string]*surface.Surface
}

// NewHandlers creates the endpoint handlers.
func NewHandlers(metrics *MetricsRegistry) *Handlers {
	return &Handlers{
		metrics:  metrics,
		surfaces: make(map[string]*surface.Surface),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return body, nil
}

type lightCurveResponse struct {
	Name    string      `json:"name,omitempty"`
	Times   []float64   `json:"times"`
	Labels  []string    `json:"labels"`
	Columns [][]float64 `json:"columns"`
	Total   []float64   `json:"total"`
}

// LightCurve evaluates a full system light curve from a posted system
// configuration (YAML or JSON).
func (h *Handlers) LightCurve(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	cfg, err := config.ParseSystemConfig(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	times := cfg.Times.Times()
	if len(times) == 0 {
		writeError(w, http.StatusBadRequest, "time grid required: set times.start, times.stop and times.num")
		return
	}
	if len(times) > maxGridSamples {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("time grid of %d samples above limit %d", len(times), maxGridSamples))
		return
	}

	sys, err := cfg.Build()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	timer := h.metrics.StartComputeTimer("lightcurve")
	columns, err := sys.LightCurve(r.Context(), times, cfg.EngineOptions())
	timer.Stop()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			writeError(w, http.StatusServiceUnavailable, "evaluation timed out")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	total := make([]float64, len(times))
	for _, col := range columns {
		for i, v := range col {
			total[i] += v
		}
	}

	writeJSON(w, http.StatusOK, lightCurveResponse{
		Name:    cfg.Name,
		Times:   times,
		Labels:  cfg.BodyLabels(),
		Columns: columns,
		Total:   total,
	})
}

type renderRequest struct {
	Surface    config.SurfaceConfig `yaml:"surface"`
	ThetaDeg   float64              `yaml:"theta_deg"`
	Resolution int                  `yaml:"resolution"`
}

type renderResponse struct {
	Resolution int          `json:"resolution"`
	ThetaDeg   float64      `json:"theta_deg"`
	Min        float64      `json:"min"`
	Max        float64      `json:"max"`
	Pixels     [][]*float64 `json:"pixels"`
}

// Render rasterizes a surface in the plane of the sky. Off-disc pixels
// are null in the response.
func (h *Handlers) Render(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	var req renderRequest
	if err := yaml.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to unmarshal render request: %v", err))
		return
	}
	if req.Resolution == 0 {
		req.Resolution = defaultResolution
	}
	if req.Resolution < 2 || req.Resolution > maxResolution {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("resolution %d outside [2, %d]", req.Resolution, maxResolution))
		return
	}
	if err := req.Surface.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	surf, err := h.surfaceFor(&req.Surface)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	timer := h.metrics.StartComputeTimer("render")
	img, err := render.Render(surf, req.ThetaDeg*math.Pi/180, req.Resolution)
	timer.Stop()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	lo, hi := img.MinMax()
	pixels := make([][]*float64, img.Res)
	for iy := 0; iy < img.Res; iy++ {
		row := make([]*float64, img.Res)
		for ix := 0; ix < img.Res; ix++ {
			if v := img.At(ix, iy); !math.IsNaN(v) {
				value := v
				row[ix] = &value
			}
		}
		pixels[iy] = row
	}

	writeJSON(w, http.StatusOK, renderResponse{
		Resolution: img.Res,
		ThetaDeg:   req.ThetaDeg,
		Min:        lo,
		Max:        hi,
		Pixels:     pixels,
	})
}

// surfaceFor returns a cached surface for the configuration, building and
// caching it on first sight.
func (h *Handlers) surfaceFor(sc *config.SurfaceConfig) (*surface.Surface, error) {
	key, err := yaml.Marshal(sc)
	if err != nil {
		return sc.BuildSurface()
	}

	h.mu.RLock()
	surf, ok := h.surfaces[string(key)]
	h.mu.RUnlock()
	if ok {
		h.metrics.RecordCacheHit("surface")
		return surf, nil
	}
	h.metrics.RecordCacheMiss("surface")

	surf, err = sc.BuildSurface()
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if len(h.surfaces) >= surfaceCacheCap {
		h.surfaces = make(map[string]*surface.Surface)
	}
	h.surfaces[string(key)] = surf
	h.mu.Unlock()

	return surf, nil
}

type solutionResponse struct {
	B     float64   `json:"b"`
	R     float64   `json:"r"`
	Lmax  int       `json:"lmax"`
	Order int       `json:"order"`
	S     []float64 `json:"s"`
	RT    []float64 `json:"rt"`
}

// Solution dumps the occultation solution vector and the rotation phase
// operator for one geometry, for solver diagnostics.
func (h *Handlers) Solution(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	b, err := strconv.ParseFloat(query.Get("b"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "query parameter b must be a number")
		return
	}
	radius, err := strconv.ParseFloat(query.Get("r"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "query parameter r must be a number")
		return
	}

	lmax := 2
	if raw := query.Get("lmax"); raw != "" {
		lmax, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "query parameter lmax must be an integer")
			return
		}
	}
	order := solution.DefaultOrder
	if raw := query.Get("order"); raw != "" {
		order, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "query parameter order must be an integer")
			return
		}
	}

	switch {
	case b < 0 || math.IsNaN(b) || math.IsInf(b, 0):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("impact parameter %g must be finite and non-negative", b))
		return
	case radius <= 0 || math.IsInf(radius, 0):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("occultor radius %g must be positive and finite", radius))
		return
	case lmax < 0 || lmax > maxSolutionDeg:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("lmax %d outside [0, %d]", lmax, maxSolutionDeg))
		return
	case order < 2 || order > 200:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("quadrature order %d outside [2, 200]", order))
		return
	}

	timer := h.metrics.StartComputeTimer("solution")
	s := solution.Vector(lmax, b, radius, order)
	rt := solution.RT(lmax)
	timer.Stop()

	writeJSON(w, http.StatusOK, solutionResponse{
		B:     b,
		R:     radius,
		Lmax:  lmax,
		Order: order,
		S:     s,
		RT:    rt,
	})
}

// NotFound responds to unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("no such endpoint: %s", r.URL.Path))
}
