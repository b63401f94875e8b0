package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sumo-arena/internal/config"
	"sumo-arena/internal/game"
)

// LobbyProvider is the slice of the registry the HTTP handlers need.
// Kept minimal so tests can stub it without a full registry.
type LobbyProvider interface {
	PublicRooms() []game.LobbyPayload
}

// RouterConfig contains the dependencies for the HTTP router.
type RouterConfig struct {
	// Lobby serves GET /rooms (required).
	Lobby LobbyProvider

	// RateLimiter is an optional pre-configured limiter. If nil, one is
	// built from RateLimit.
	RateLimiter *IPRateLimiter

	// RateLimit configures a new limiter when RateLimiter is nil.
	// The zero value falls back to config.DefaultRateLimit.
	RateLimit config.RateLimitConfig

	// DisableLogging drops the request logger middleware (benchmarks,
	// quiet tests).
	DisableLogging bool
}

// NewRouter constructs the HTTP router with middleware and the plain
// HTTP routes. It opens no listeners and is safe for httptest; when
// cfg.RateLimiter is nil the limiter it builds starts its own cleanup
// goroutine. The /ws route is mounted by Server because it owns the
// session lifecycle.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rlCfg := cfg.RateLimit
		if rlCfg.RequestsPerSecond == 0 {
			rlCfg = config.DefaultRateLimit()
		}
		rateLimiter = NewIPRateLimiter(rlCfg)
	}
	r.Use(rateLimiter.Middleware)

	// The game is embedded in third-party webviews, so every origin is
	// allowed; there is nothing credentialed to protect.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Get("/rooms", func(w http.ResponseWriter, req *http.Request) {
		rooms := cfg.Lobby.PublicRooms()
		if rooms == nil {
			rooms = []game.LobbyPayload{}
		}
		writeJSON(w, map[string]any{"rooms": rooms})
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}
