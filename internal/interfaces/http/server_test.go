package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/starflux/internal/solution"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	config := DefaultServerConfig()
	config.Port = 0
	server, err := NewServer(config)
	require.NoError(t, err, "Server construction should succeed on an ephemeral port")
	return server
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint_ReportsHealthyEngine(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, "GET", "/health", "")

	require.Equal(t, http.StatusOK, rec.Code, "Health endpoint should return 200")
	assert.Len(t, rec.Header().Get("X-Request-ID"), 8, "Request ID header should be set")

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "healthy", resp.Status, "Fresh server should be healthy")
	assert.Equal(t, "pass", resp.Checks["phase_flux"].Status, "Uniform flux self-check should pass")
	assert.Equal(t, "pass", resp.Checks["occultation"].Status, "Occultation self-check should pass")
	assert.NotZero(t, resp.System.NumGoroutines, "Runtime stats should be populated")
}

func TestMetricsEndpoint_ExposesRegistry(t *testing.T) {
	s := newTestServer(t)
	doRequest(s, "GET", "/health", "")
	rec := doRequest(s, "GET", "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "starflux_http_requests_total", "Request counters should be exposed")
	assert.Contains(t, body, "starflux_basis_cache_entries", "Basis cache gauge should be exposed")
}

const transitRequest = `
name: test-transit
central:
  mass: 1.0
  radius: 1.0
  surface:
    limb_darkening: [0.4, 0.26]
bodies:
  - name: planet
    radius: 0.1
    period: 10.0
times:
  start: -0.001
  stop: 0.001
  num: 3
`

func TestLightCurveEndpoint_EvaluatesTransit(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, "POST", "/lightcurve", transitRequest)

	require.Equal(t, http.StatusOK, rec.Code, "valid system should evaluate: %s", rec.Body.String())

	var resp lightCurveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "test-transit", resp.Name)
	assert.Equal(t, []string{"central", "planet"}, resp.Labels)
	require.Len(t, resp.Times, 3)
	require.Len(t, resp.Columns, 2)
	require.Len(t, resp.Columns[0], 3)

	// Mid-transit sample sits at zero impact parameter.
	assert.InDelta(t, 0.9878664434953, resp.Columns[0][1], 1e-9,
		"Quadratic limb-darkened central transit depth")
	assert.Less(t, resp.Columns[0][0], 1.0, "Neighbouring samples are still in transit")

	// The surfaceless planet contributes nothing.
	for i, v := range resp.Columns[1] {
		assert.Zero(t, v, "Dark body flux at sample %d", i)
	}
	assert.InDelta(t, resp.Columns[0][1], resp.Total[1], 1e-12, "Total equals central column for a dark companion")
}

func TestLightCurveEndpoint_RejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, "POST", "/lightcurve", "::: not yaml :::")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "Unparseable body should 400")

	noTimes := strings.Replace(transitRequest, "num: 3", "num: 0", 1)
	rec = doRequest(s, "POST", "/lightcurve", noTimes)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "Missing time grid should 400")
	assert.Contains(t, rec.Body.String(), "time grid", "Error should name the missing section")

	badMass := strings.Replace(transitRequest, "mass: 1.0", "mass: -1.0", 1)
	rec = doRequest(s, "POST", "/lightcurve", badMass)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "Invalid physics should 400")
}

const renderRequestBody = `
surface:
  limb_darkening: [0.5]
resolution: 21
theta_deg: 0
`

func TestRenderEndpoint_RasterizesDisc(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, "POST", "/render", renderRequestBody)

	require.Equal(t, http.StatusOK, rec.Code, "valid surface should render: %s", rec.Body.String())

	var resp renderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Equal(t, 21, resp.Resolution)
	require.Len(t, resp.Pixels, 21)

	center := resp.Pixels[10][10]
	require.NotNil(t, center, "Disc center should be on the star")
	// Linear law u = 0.5 with unit total flux peaks at 1/(pi (1 - u/3)).
	assert.InDelta(t, 1/(math.Pi*(1-0.5/3.0)), *center, 1e-9, "Center intensity for linear limb darkening")

	assert.Nil(t, resp.Pixels[0][0], "Corner pixels lie off the disc")
	assert.Greater(t, resp.Max, resp.Min, "Limb darkened disc has intensity range")
}

func TestRenderEndpoint_CachesSurfaces(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, "POST", "/render", renderRequestBody)
	doRequest(s, "POST", "/render", renderRequestBody)

	var snapshot io_prometheus_client.Metric
	hits, err := s.metrics.CacheHits.GetMetricWithLabelValues("surface")
	require.NoError(t, err)
	require.NoError(t, hits.Write(&snapshot))
	assert.Equal(t, 1.0, snapshot.GetCounter().GetValue(), "Second identical render should hit the surface cache")

	misses, err := s.metrics.CacheMisses.GetMetricWithLabelValues("surface")
	require.NoError(t, err)
	require.NoError(t, misses.Write(&snapshot))
	assert.Equal(t, 1.0, snapshot.GetCounter().GetValue(), "First render should miss")
}

func TestRenderEndpoint_RejectsBadResolution(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, "POST", "/render", strings.Replace(renderRequestBody, "resolution: 21", "resolution: 4096", 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "resolution", "Error should name the offending field")
}

func TestSolutionEndpoint_ReturnsVectors(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, "GET", "/solution?b=0.5&r=0.1&lmax=2", "")

	require.Equal(t, http.StatusOK, rec.Code, "valid geometry should solve: %s", rec.Body.String())

	var resp solutionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Lmax)
	assert.Equal(t, solution.DefaultOrder, resp.Order)
	require.Len(t, resp.S, 9)
	require.Len(t, resp.RT, 9)

	want := solution.Vector(2, 0.5, 0.1, solution.DefaultOrder)
	for i := range want {
		assert.InDelta(t, want[i], resp.S[i], 1e-12, "Solution vector entry %d", i)
	}
}

func TestSolutionEndpoint_ValidatesQuery(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, doRequest(s, "GET", "/solution?r=0.1", "").Code, "Missing b")
	assert.Equal(t, http.StatusBadRequest, doRequest(s, "GET", "/solution?b=0.5", "").Code, "Missing r")
	assert.Equal(t, http.StatusBadRequest, doRequest(s, "GET", "/solution?b=0.5&r=-1", "").Code, "Negative radius")
	assert.Equal(t, http.StatusBadRequest, doRequest(s, "GET", "/solution?b=0.5&r=0.1&lmax=99", "").Code, "Degree above limit")
}

func TestNotFound_ReturnsJSONError(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, "GET", "/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no such endpoint", "404 body should be a JSON error")
}

func TestRateLimit_ShedsBurst(t *testing.T) {
	config := DefaultServerConfig()
	config.Port = 0
	config.RateLimit = 1
	config.RateBurst = 1
	s, err := NewServer(config)
	require.NoError(t, err)

	first := doRequest(s, "GET", "/health", "")
	second := doRequest(s, "GET", "/health", "")

	assert.Equal(t, http.StatusOK, first.Code, "First request fits in the burst")
	assert.Equal(t, http.StatusTooManyRequests, second.Code, "Second immediate request is shed")
}

func TestCORS_AllowsLocalOrigins(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), "Non-local origins are not allowed")
}
