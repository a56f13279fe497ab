package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mtga-analyzer/backend/internal/catalog"
	"mtga-analyzer/backend/internal/health"
)

// Greeting is the fixed message served on GET /.
const Greeting = "Hello from the MTGA Analyzer Backend!"

// assetCacheControl is sent with relayed images and icons.
const assetCacheControl = "public, max-age=86400"

// catalogService is the subset of *catalog.Service used by the HTTP handlers.
type catalogService interface {
	Card(ctx context.Context, name, set string) ([]byte, error)
	CardImage(ctx context.Context, name, version string) (*catalog.Asset, error)
	Sets(ctx context.Context) ([]byte, error)
	SetIcon(ctx context.Context, code string) (*catalog.Asset, error)
}

// healthService is the subset of *health.Checker used by the HTTP handlers.
// Declaring it as an interface allows test doubles to be injected.
type healthService interface {
	RunDeepHealth(ctx context.Context) map[string]health.ProbeResult
	IsReady() bool
}

// Handler holds the dependencies shared across all HTTP handlers.
type Handler struct {
	catalog catalogService
	health  healthService
	logger  *slog.Logger
}

// errorText holds the client-facing messages of one route.
type errorText struct {
	missing  string // required parameter absent
	upstream string // upstream answered non-2xx; the status is appended
	failed   string // anything else
}

var (
	cardErrors  = errorText{"Missing cardName or set parameter", "Scryfall API error", "Failed to fetch card data"}
	imageErrors = errorText{"Missing cardName parameter", "Scryfall API error", "Failed to fetch card image"}
	setsErrors  = errorText{"", "Failed to fetch sets", "Failed to fetch sets"}
	iconErrors  = errorText{"Missing set code parameter", "Failed to fetch icon", "Failed to fetch set icon"}
)

// Root handles GET /.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": Greeting})
}

// Card handles GET /api/scryfall?cardName=&set=.
func (h *Handler) Card(c *gin.Context) {
	data, err := h.catalog.Card(c.Request.Context(), c.Query("cardName"), c.Query("set"))
	if err != nil {
		h.writeError(c, err, cardErrors)
		return
	}
	c.Data(http.StatusOK, gin.MIMEJSON+"; charset=utf-8", data)
}

// CardImage handles GET /api/card-image?cardName=&version=.
func (h *Handler) CardImage(c *gin.Context) {
	asset, err := h.catalog.CardImage(c.Request.Context(), c.Query("cardName"), c.Query("version"))
	if err != nil {
		h.writeError(c, err, imageErrors)
		return
	}
	writeAsset(c, asset)
}

// Sets handles GET /api/sets.
func (h *Handler) Sets(c *gin.Context) {
	data, err := h.catalog.Sets(c.Request.Context())
	if err != nil {
		h.writeError(c, err, setsErrors)
		return
	}
	c.Data(http.StatusOK, gin.MIMEJSON+"; charset=utf-8", data)
}

// SetIcon handles GET /api/sets/:code/icon.
func (h *Handler) SetIcon(c *gin.Context) {
	asset, err := h.catalog.SetIcon(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, err, iconErrors)
		return
	}
	writeAsset(c, asset)
}

// Health handles GET /health.
// It always returns 200; this is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"mode":   "shallow",
	})
}

// DeepHealth handles GET /health/deep.
// It probes the cache backend and upstream breakers and returns 200 only when
// every probe is OK.
func (h *Handler) DeepHealth(c *gin.Context) {
	probes := h.health.RunDeepHealth(c.Request.Context())

	allOK := true
	for _, p := range probes {
		if !p.OK {
			allOK = false
			break
		}
	}

	status := "healthy"
	code := http.StatusOK
	if !allOK {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":       status,
		"dependencies": probes,
	})
}

// Ready handles GET /ready.
// It returns 200 only after a successful preparation run; 503 otherwise.
func (h *Handler) Ready(c *gin.Context) {
	if h.health.IsReady() {
		c.JSON(http.StatusOK, gin.H{"ready": true})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
}

func writeAsset(c *gin.Context, asset *catalog.Asset) {
	c.Header("Cache-Control", assetCacheControl)
	c.Data(http.StatusOK, asset.ContentType, asset.Body)
}

// writeError maps a catalog error onto a status code and {"error": msg} body.
func (h *Handler) writeError(c *gin.Context, err error, text errorText) {
	ctx := c.Request.Context()
	logger := h.logger
	if logger == nil {
		logger = slog.Default()
	}

	if status, ok := catalog.StatusOf(err); ok {
		logger.WarnContext(ctx, "upstream returned error status", "path", c.FullPath(), "status", status)
		c.JSON(status, gin.H{"error": fmt.Sprintf("%s: %d", text.upstream, status)})
		return
	}

	switch {
	case errors.Is(err, catalog.ErrMissingParam):
		msg := text.missing
		if msg == "" {
			msg = err.Error()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
	case errors.Is(err, catalog.ErrInvalidParam):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrUpstreamUnavailable):
		logger.WarnContext(ctx, "upstream unavailable", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.ErrorContext(ctx, text.failed, "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": text.failed})
	}
}
