package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "mtga-analyzer/backend/docs" // register the Swagger description

	"mtga-analyzer/backend/internal/telemetry"
)

// Options configures a Router. Zero values are usable except CORS, whose
// empty allow-list admits no origin.
type Options struct {
	Title       string
	ServiceName string
	CORS        CORSPolicy
	// Metrics enables GET /metrics and per-route request metrics when set.
	Metrics *telemetry.Metrics
	Logger  *slog.Logger
}

// Router wraps a configured Gin engine and exposes it as an http.Handler.
type Router struct {
	engine *gin.Engine
	title  string
}

// NewRouter constructs a Router with the full middleware chain and all routes
// registered. Middleware order:
//  1. Recovery: panic to 500
//  2. CORS: origin policy, preflight answered here
//  3. Tracing: trace context per request
//  4. RequestLogger: structured request/response logging
//  5. Metrics: Prometheus request metrics, when enabled
func NewRouter(cat catalogService, checker healthService, opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "mtga-analyzer"
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(Recovery(logger))
	engine.Use(CORS(opts.CORS, logger))
	engine.Use(Tracing(serviceName))
	engine.Use(RequestLogger(logger))
	if opts.Metrics != nil {
		engine.Use(Metrics(opts.Metrics))
	}

	h := &Handler{catalog: cat, health: checker, logger: logger}

	engine.GET("/", h.Root)

	api := engine.Group("/api")
	api.GET("/scryfall", h.Card)
	api.GET("/card-image", h.CardImage)
	api.GET("/sets", h.Sets)
	api.GET("/sets/:code/icon", h.SetIcon)

	engine.GET("/health", h.Health)
	engine.GET("/health/deep", h.DeepHealth)
	engine.GET("/ready", h.Ready)

	engine.GET("/api-docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/api-docs/index.html")
	})
	engine.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if opts.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	return &Router{engine: engine, title: opts.Title}
}

// Title returns the application title the router was built with.
func (r *Router) Title() string {
	return r.title
}

// Handler returns the underlying http.Handler for use with net/http servers.
func (r *Router) Handler() http.Handler {
	return r.engine
}
