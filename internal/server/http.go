package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/DiegoPatterson/CodeQuest/pkg/handler"
)

// HTTPServer manages the API server lifecycle.
type HTTPServer struct {
	server      *http.Server
	router      *gin.Engine
	port        int
	serviceName string
	environment string
	handlers    *handler.Handlers
}

// NewHTTPServer creates a new API server instance.
func NewHTTPServer(port int, serviceName, environment string, handlers *handler.Handlers) *HTTPServer {
	return &HTTPServer{
		port:        port,
		serviceName: serviceName,
		environment: environment,
		handlers:    handlers,
	}
}

// Setup configures the router, middleware and routes.
func (s *HTTPServer) Setup() error {
	if s.environment != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(otelgin.Middleware(s.serviceName))
	s.router.Use(requestLogger())

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.handlers.RegisterRoutes(s.router.Group("/v1"))

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}
	return nil
}

// Start begins listening and serving API requests.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("http server listening on port %d", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("http server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the API server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down http server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("http server stopped")
	return nil
}

// requestLogger logs each request at debug level with method, path and
// status.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logrus.Debugf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}
