package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sumo-arena/internal/game"
)

// Metrics with bounded cardinality: no per-room or per-player labels.
var (
	roomCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sumo_room_count",
		Help: "Current number of live rooms",
	})

	waitingBotRoomCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sumo_waiting_bot_room_count",
		Help: "Bot rooms idle in the waiting pool",
	})

	playerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sumo_player_count",
		Help: "Connected human players across all rooms",
	})

	botCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sumo_bot_count",
		Help: "Bot players across all rooms",
	})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket sessions",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiting or session caps",
	}, []string{"reason"}) // bounded: rate_limit, ws_total_limit, ws_ip_limit
)

func recordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

func updateWSConnections(n int) {
	wsConnectionsActive.Set(float64(n))
}

func updateGameStats(stats game.RegistryStats) {
	roomCount.Set(float64(stats.Rooms))
	waitingBotRoomCount.Set(float64(stats.WaitingBotRooms))
	playerCount.Set(float64(stats.Players))
	botCount.Set(float64(stats.Bots))
}

// ObservabilityConfig configures the internal debug server.
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string // localhost only unless explicitly overridden
}

// DefaultObservabilityConfig returns safe defaults.
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// StartDebugServer exposes /metrics and pprof on a localhost-only
// listener. Binding anywhere else requires ALLOW_DEBUG_EXTERNAL=true;
// pprof on a public interface is a denial-of-service surface.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("⚠️ Debug server forced to localhost")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️ Debug server exited: %v", err)
		}
	}()

	log.Printf("📊 Debug server on http://%s (metrics, pprof)", cfg.ListenAddr)
	return nil
}
