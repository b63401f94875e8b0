package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sumo-arena/internal/config"
	"sumo-arena/internal/game"
)

// statsPollInterval is how often registry gauges are refreshed.
var statsPollInterval = 5 * time.Second

// Server is the HTTP API server with the WebSocket game endpoint.
//
// The constructor opens no listeners and starts no workers other than
// the rate limiter's cleanup goroutine; the stats poller and the HTTP
// listener wait for Start, so tests can construct a Server and exercise
// Router() with httptest.
type Server struct {
	registry    *game.Registry
	router      *chi.Mux
	rateLimiter *IPRateLimiter
	connLimiter *ConnLimiter

	stopChan chan struct{}
}

// NewServer wires the router, rate limiter, and session limits around
// the registry.
func NewServer(registry *game.Registry, cfg config.AppConfig) *Server {
	s := &Server{
		registry:    registry,
		rateLimiter: NewIPRateLimiter(cfg.RateLimit),
		connLimiter: NewConnLimiter(cfg.Limits),
		stopChan:    make(chan struct{}),
	}

	s.router = NewRouter(RouterConfig{
		Lobby:       registry,
		RateLimiter: s.rateLimiter,
	})
	s.router.Get("/ws", s.handleWS)

	return s
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start launches background workers and serves HTTP until the listener
// fails. Call once.
func (s *Server) Start(addr string) error {
	go s.pollStats()

	log.Printf("🌐 API server starting on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

// Stop halts background workers. Open sessions die with the process.
func (s *Server) Stop() {
	close(s.stopChan)
	s.rateLimiter.Stop()
}

func (s *Server) pollStats() {
	ticker := time.NewTicker(statsPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			updateGameStats(s.registry.Stats())
		}
	}
}
