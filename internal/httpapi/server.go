// Package httpapi exposes box extraction as an HTTP upload API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-boxes/internal/pdf"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second

	// multipartOverhead is the room left above the file size limit for form fields
	multipartOverhead = 1 << 20
)

// NewRouter builds the gin engine with the health check and the extraction routes
func NewRouter(service *pdf.Service, logger *logrus.Logger, serverName, version string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logger(logger))

	router.MaxMultipartMemory = 32 << 20

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serverName,
			"version": version,
		})
	})

	boxesHandler := NewBoxesHandler(service, logger)

	api := router.Group("/api/v1")
	{
		boxes := api.Group("/boxes")
		{
			boxes.POST("/extract", limitBody(service.GetMaxFileSize()), boxesHandler.Extract)
		}
	}

	return router
}

// limitBody caps the request body so oversized uploads fail while parsing
func limitBody(maxFileSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxFileSize > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFileSize+multipartOverhead)
		}
		c.Next()
	}
}

// Server runs the HTTP API until its context is cancelled
type Server struct {
	httpServer *http.Server
	logger     *logrus.Logger
}

// NewServer creates a server listening on addr
func NewServer(addr string, handler http.Handler, logger *logrus.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logger: logger,
	}
}

// Run serves requests and shuts down gracefully when ctx is done
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.httpServer.Addr).Info("starting HTTP server")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	return nil
}
