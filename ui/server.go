package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"gopower/app"
	"gopower/internal/errors"
	"gopower/internal/metrics"
	"gopower/ui/middleware"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Options configures the web server
type Options struct {
	GinMode        string
	MetricsEnabled bool
	DefaultPower   float64 // used when a request omits power_level
}

// Server is the web server for stored calculations and their reports
type Server struct {
	router    *gin.Engine
	service   *app.PowerService
	templates *template.Template
	options   Options
}

// NewServer creates a web server instance
func NewServer(service *app.PowerService, options Options) (*Server, error) {
	if options.GinMode != "" {
		gin.SetMode(options.GinMode)
	}

	funcMap := template.FuncMap{
		"pct": func(p float64) string { return fmt.Sprintf("%.1f%%", p*100) },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}

	s := &Server{
		router:    gin.New(),
		service:   service,
		templates: templates,
		options:   options,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router for an http.Server
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger(), gin.Recovery())
	if s.options.MetricsEnabled {
		s.router.Use(middleware.RequestMetrics("ui"))
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)

	api := s.router.Group("/api")
	{
		api.POST("/calculations", s.handleCreateCalculation)
		api.GET("/calculations", s.handleListCalculations)
		api.GET("/calculations/:id", s.handleGetCalculation)
		api.GET("/calculations/:id/report", s.handleCalculationReport)
		api.GET("/curve.xlsx", s.handleCurveWorkbook)
	}

	if s.options.MetricsEnabled {
		s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
}

// respondError writes the JSON error shape shared with the API
func respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[Server] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  errors.GetCode(err),
		"field": errors.GetField(err),
	})
}
