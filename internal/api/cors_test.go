package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtga-analyzer/backend/internal/config"
)

const frontendOrigin = "http://localhost:5173"

func defaultPolicy() CORSPolicy {
	return PolicyFromConfig(config.CORSConfig{
		AllowOrigins:     []string{frontendOrigin},
		AllowCredentials: true,
		AllowMethods:     []string{"*"},
		AllowHeaders:     []string{"*"},
		MaxAge:           10 * time.Minute,
	})
}

func newCORSEngine(p CORSPolicy) *gin.Engine {
	engine := gin.New()
	engine.Use(CORS(p, noopLogger()))
	engine.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": Greeting}) })
	engine.POST("/echo", func(c *gin.Context) { c.String(http.StatusOK, "posted") })
	return engine
}

func TestPolicyFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		cfg         config.CORSConfig
		wantMethods bool
		wantHeaders bool
		methods     []string
		headers     []string
	}{
		{
			name:        "wildcards",
			cfg:         config.CORSConfig{AllowMethods: []string{"*"}, AllowHeaders: []string{"*"}},
			wantMethods: true,
			wantHeaders: true,
		},
		{
			name:    "explicit lists",
			cfg:     config.CORSConfig{AllowMethods: []string{"get", "post"}, AllowHeaders: []string{"X-Token"}},
			methods: []string{"GET", "POST"},
			headers: []string{"X-Token"},
		},
		{
			name:        "wildcard among explicit values",
			cfg:         config.CORSConfig{AllowMethods: []string{"GET", "*"}},
			wantMethods: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := PolicyFromConfig(tc.cfg)
			assert.Equal(t, tc.wantMethods, p.AllowAllMethods)
			assert.Equal(t, tc.wantHeaders, p.AllowAllHeaders)
			assert.Equal(t, tc.methods, p.AllowMethods)
			assert.Equal(t, tc.headers, p.AllowHeaders)
		})
	}
}

func TestCORS_AllowedOriginIsEchoed(t *testing.T) {
	t.Parallel()

	engine := newCORSEngine(defaultPolicy())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", frontendOrigin)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, frontendOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_ForeignOriginServedWithoutHeaders(t *testing.T) {
	t.Parallel()

	engine := newCORSEngine(defaultPolicy())

	for _, origin := range []string{"http://evil.example", "http://localhost:5174", "https://localhost:5173"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", origin)
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, origin)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), origin)
		assert.JSONEq(t, `{"message":"Hello from the MTGA Analyzer Backend!"}`, w.Body.String())
	}
}

func TestCORS_NoOriginHeader(t *testing.T) {
	t.Parallel()

	engine := newCORSEngine(defaultPolicy())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PreflightAnsweredByPolicy(t *testing.T) {
	t.Parallel()

	engine := newCORSEngine(defaultPolicy())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/echo", nil)
	req.Header.Set("Origin", frontendOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "X-Custom-Header")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, frontendOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPut, w.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Custom-Header")
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, w.Body.String())
}

func TestCORS_PreflightForeignOrigin(t *testing.T) {
	t.Parallel()

	engine := newCORSEngine(defaultPolicy())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	engine.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ExplicitMethodList(t *testing.T) {
	t.Parallel()

	p := PolicyFromConfig(config.CORSConfig{
		AllowOrigins: []string{frontendOrigin},
		AllowMethods: []string{"GET"},
	})
	engine := newCORSEngine(p)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/echo", nil)
	req.Header.Set("Origin", frontendOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	engine.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
}
