package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"mtga-analyzer/backend/internal/config"
)

// wildcard is the configuration value meaning "every method" or "every header".
const wildcard = "*"

// allMethods is what a method wildcard expands to.
var allMethods = []string{
	http.MethodDelete,
	http.MethodGet,
	http.MethodHead,
	http.MethodOptions,
	http.MethodPatch,
	http.MethodPost,
	http.MethodPut,
}

// CORSPolicy is the resolved cross-origin policy. Wildcards from the
// configuration are folded into the AllowAll flags.
type CORSPolicy struct {
	AllowOrigins     []string
	AllowCredentials bool
	AllowAllMethods  bool
	AllowMethods     []string
	AllowAllHeaders  bool
	AllowHeaders     []string
	MaxAge           time.Duration
	Debug            bool
}

// PolicyFromConfig resolves cfg into a CORSPolicy.
func PolicyFromConfig(cfg config.CORSConfig) CORSPolicy {
	p := CORSPolicy{
		AllowOrigins:     slices.Clone(cfg.AllowOrigins),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
		Debug:            cfg.Debug,
	}

	if slices.Contains(cfg.AllowMethods, wildcard) {
		p.AllowAllMethods = true
	} else {
		for _, m := range cfg.AllowMethods {
			p.AllowMethods = append(p.AllowMethods, strings.ToUpper(m))
		}
	}

	if slices.Contains(cfg.AllowHeaders, wildcard) {
		p.AllowAllHeaders = true
	} else {
		p.AllowHeaders = slices.Clone(cfg.AllowHeaders)
	}
	return p
}

func (p CORSPolicy) options(logger *slog.Logger) cors.Options {
	opts := cors.Options{
		AllowedOrigins:   p.AllowOrigins,
		AllowCredentials: p.AllowCredentials,
		AllowedMethods:   p.AllowMethods,
		AllowedHeaders:   p.AllowHeaders,
		MaxAge:           int(p.MaxAge / time.Second),
		Debug:            p.Debug,
	}
	if p.AllowAllMethods {
		opts.AllowedMethods = allMethods
	}
	if p.AllowAllHeaders {
		opts.AllowedHeaders = []string{wildcard}
	}
	if p.Debug && logger != nil {
		opts.Logger = corsLogger{logger: logger}
	}
	return opts
}

// CORS returns a middleware applying p to every request, including requests
// for unknown routes. Matching origins get Access-Control-Allow-Origin; other
// origins are served without CORS headers. Preflight requests are answered
// here and never reach a handler.
func CORS(p CORSPolicy, logger *slog.Logger) gin.HandlerFunc {
	c := cors.New(p.options(logger))
	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		if isPreflight(ctx.Request) {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}

// corsLogger adapts slog to the Printf logger rs/cors expects.
type corsLogger struct {
	logger *slog.Logger
}

func (l corsLogger) Printf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "cors")
}
