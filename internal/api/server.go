// internal/api/server.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seguros-cotacoes/internal/common/logger"
)

// Server wires the gin engine, routes, and graceful shutdown.
type Server struct {
	engine   *gin.Engine
	server   *http.Server
	handlers *Handlers
	logger   logger.Logger
}

// Timeouts carries the server timeouts from configuration. Zero values leave
// the corresponding limit off.
type Timeouts struct {
	Read    time.Duration
	Write   time.Duration
	Request time.Duration
}

func NewServer(addr string, timeouts Timeouts, handlers *Handlers, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))
	if timeouts.Request > 0 {
		engine.Use(requestTimeout(timeouts.Request))
	}

	s := &Server{
		engine:   engine,
		handlers: handlers,
		logger:   log.WithFields(map[string]interface{}{"component": "api-server"}),
		server: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       timeouts.Read,
			WriteTimeout:      timeouts.Write,
		},
	}
	s.registerRoutes()
	return s
}

// requestTimeout bounds each handler's context so a stalled downstream
// (directory lookup, SES) cannot hold a request open indefinitely.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handlers.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	v1.GET("/products", s.handlers.ListProducts)
	v1.POST("/quotes/:product", s.handlers.SubmitQuote)
	v1.GET("/address/:cep", s.handlers.LookupAddress)
}

func (s *Server) Run() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"addr": s.server.Addr,
	})
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down", nil)
	return s.server.Shutdown(ctx)
}

// Engine exposes the router for handler tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request failed", fields)
			return
		}
		log.Info("request handled", fields)
	}
}
