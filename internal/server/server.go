// =============================================================================
// Invoice QC - HTTP API
// =============================================================================
//
// This module exposes validation over HTTP.
//
// ROUTES:
//   GET  /                      - Service information and endpoint list
//   GET  /health                - Liveness probe
//   POST /validate-json         - Validate a JSON array of invoices
//   POST /extract-and-validate  - Upload PDFs (multipart "files"), extract
//                                 and validate them
//   GET  /api/info              - Capabilities and rule counts
//
// Unknown routes answer 404 with the list of available endpoints.
//
// =============================================================================

package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ginjaninja78/invoice-qc/internal/config"
	"github.com/ginjaninja78/invoice-qc/internal/pipeline"
	"github.com/google/uuid"
)

const (
	serviceName = "Invoice QC Service"

	// APIVersion is reported by the info endpoints.
	APIVersion = "1.0.0"
)

// availableEndpoints is listed by the 404 handler.
var availableEndpoints = []string{
	"/",
	"/health",
	"/validate-json",
	"/extract-and-validate",
	"/api/info",
}

// Server serves the HTTP API.
type Server struct {
	pipeline *pipeline.Pipeline
	cfg      config.ServerConfig
	logger   *slog.Logger
	engine   *gin.Engine
}

// New builds a Server and registers its routes.
func New(p *pipeline.Pipeline, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{pipeline: p, cfg: cfg, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	if cfg.MaxUploadMB > 0 {
		r.MaxMultipartMemory = cfg.MaxUploadMB << 20
	}

	s.registerRoutes(r)
	s.engine = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address until the listener fails.
func (s *Server) Run() error {
	s.logger.Info("http server listening", "addr", s.cfg.Addr)
	return s.engine.Run(s.cfg.Addr)
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/", s.root)
	r.GET("/health", s.health)
	r.POST("/validate-json", s.validateJSON)
	r.POST("/extract-and-validate", s.extractAndValidate)

	api := r.Group("/api")
	api.GET("/info", s.apiInfo)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":               "Not Found",
			"message":             "The requested endpoint does not exist",
			"available_endpoints": availableEndpoints,
		})
	})
}

// corsConfig allows every origin when the list contains "*".
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// requestLogger logs one line per request and tags the response with a
// request id.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-ID", reqID)

		c.Next()

		s.logger.Info("http request",
			slog.String("request_id", reqID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}
