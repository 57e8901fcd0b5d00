// Package api exposes the analysis pipeline over HTTP and WebSocket for
// strategy and chart-overlay consumers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"smc-analyzer/internal/events"
	"smc-analyzer/internal/service"
)

// RateLimiter provides simple in-memory rate limiting per client
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int
	window   time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ProductionMode  bool
	ShutdownTimeout time.Duration
	RateLimit       int
	RateWindow      time.Duration
}

// Server is the HTTP API server
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	analyzer    *service.Analyzer
	hub         *WSHub
	rateLimiter *RateLimiter
	config      ServerConfig
	logger      zerolog.Logger
}

// NewServer creates the API server and wires routes, middleware and the
// WebSocket hub onto the event bus.
func NewServer(cfg ServerConfig, analyzer *service.Analyzer, bus *events.EventBus, logger zerolog.Logger) *Server {
	if cfg.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 60
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}

	s := &Server{
		router:      gin.New(),
		analyzer:    analyzer,
		hub:         NewWSHub(logger),
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
		config:      cfg,
		logger:      logger,
	}

	bus.Subscribe(events.EventSnapshotReady, func(ev events.Event) {
		s.hub.BroadcastEvent(ev)
	})

	s.router.Use(gin.Recovery())
	s.router.Use(s.requestID())
	s.router.Use(s.requestLogger())
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	v1 := s.router.Group("/api/v1")
	v1.GET("/health", s.handleHealth)
	v1.POST("/analyze", s.rateLimited(), s.handleAnalyze)
	v1.GET("/snapshots/:symbol/:timeframe", s.rateLimited(), s.handleLatestSnapshot)
	v1.GET("/ws", s.handleWebSocket)
}

// requestID tags every request with a UUID for log correlation.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		s.logger.Info().
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(started)).
			Msg("http request")
	}
}

func (s *Server) rateLimited() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.rateLimiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// Start runs the HTTP server and the WebSocket hub.
func (s *Server) Start() error {
	go s.hub.Run()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("api server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains the server within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}
