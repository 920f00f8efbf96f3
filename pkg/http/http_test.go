package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probeRequest struct {
	Name  string    `json:"name" validate:"required"`
	Level int       `json:"level" default:"3" validate:"gte=1,lte=5"`
	Vals  []float64 `json:"vals" validate:"min=1,dive,gt=0"`
}

type probeHandler struct{}

func (probeHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/probe", func(c echo.Context) error {
		req := &probeRequest{}
		if verr := ReadAndValidateRequest(c, req); verr != nil {
			return BadRequestResponse(c, verr)
		}
		return SuccessResponse(c, req)
	})
	e.GET("/missing", func(c echo.Context) error {
		return AppErrorResponse(c, NotFoundErrorf("thing %s not found", "x"))
	})
	e.GET("/boom", func(c echo.Context) error {
		return AppErrorResponse(c, errors.New("raw"))
	})
	e.GET("/panic", func(c echo.Context) error {
		panic("kaboom")
	})
}

func newTestServer(opts ...ServerOption) (*Server, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	opts = append([]ServerOption{WithMetrics("/metrics", reg, reg)}, opts...)
	return NewServer(probeHandler{}, opts...), reg
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	var resp APIResponse
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestReadAndValidateRequest(t *testing.T) {
	s, _ := newTestServer()

	rec, resp := do(t, s, http.MethodPost, "/probe", `{"name":"a","vals":[1,2]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), resp.Data.(map[string]interface{})["level"])

	rec, resp = do(t, s, http.MethodPost, "/probe", `{"level":9,"vals":[1,-2]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	fields := map[string]string{}
	for _, e := range resp.Data.([]interface{}) {
		m := e.(map[string]interface{})
		fields[m["field"].(string)] = m["code"].(string)
	}
	assert.Equal(t, "ERR_REQUIRED", fields["name"])
	assert.Equal(t, "ERR_LTE", fields["level"])
	assert.Equal(t, "ERR_GT", fields["vals[1]"])

	rec, _ = do(t, s, http.MethodPost, "/probe", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppErrorResponse(t *testing.T) {
	s, _ := newTestServer()

	rec, resp := do(t, s, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_NOT_FOUND")
	assert.Contains(t, rec.Body.String(), "thing x not found")
	assert.Equal(t, "Not Found", resp.Message)

	rec, _ = do(t, s, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecoverFromPanic(t *testing.T) {
	s, _ := newTestServer()
	rec, resp := do(t, s, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(WithHealthCheck("db", func(context.Context) error { return nil }))
	rec, resp := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"db": "ok"}, resp.Data)

	s, _ = newTestServer(WithHealthCheck("db", func(context.Context) error { return errors.New("down") }))
	rec, resp = do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, map[string]interface{}{"db": "down"}, resp.Data)
}

func TestMetricsEndpoint(t *testing.T) {
	s, reg := newTestServer()
	do(t, s, http.MethodGet, "/missing", "")

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/missing",status="404"} 1`)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest(http.MethodOptions, "/probe", nil)
	req.Header.Set(echo.HeaderOrigin, "http://example.com")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
