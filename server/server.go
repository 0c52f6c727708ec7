package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Pikkuherkko/HH-Lotto/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Server exposes the raffle and account operations over HTTP
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
}

// New creates a server with all routes registered
func New(addr string, raffleService service.RaffleService, accountService service.AccountService) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	h := &handlers{
		raffle:   raffleService,
		accounts: accountService,
	}
	h.register(router)

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Start begins serving requests. It blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router returns the underlying gin engine, used by tests
func (s *Server) Router() http.Handler {
	return s.router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("Request handled")
	}
}
