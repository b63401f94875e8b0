package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"sumo-arena/internal/config"
	"sumo-arena/internal/game"
)

type stubLobby struct {
	rooms []game.LobbyPayload
}

func (s stubLobby) PublicRooms() []game.LobbyPayload { return s.rooms }

func testRouterConfig(lobby LobbyProvider) RouterConfig {
	return RouterConfig{
		Lobby:          lobby,
		RateLimit:      config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		DisableLogging: true,
	}
}

// TestHealthEndpoint verifies GET /health.
func TestHealthEndpoint(t *testing.T) {
	ts := httptest.NewServer(NewRouter(testRouterConfig(stubLobby{})))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", body["status"])
	}
}

// TestRoomsEndpoint verifies GET /rooms returns the lobby list.
func TestRoomsEndpoint(t *testing.T) {
	owner := "Алиса"
	lobby := stubLobby{rooms: []game.LobbyPayload{{
		ID:          "ABCD",
		PlayerCount: 3,
		MaxPlayers:  game.MaxPlayers,
		OwnerName:   &owner,
		State:       game.StateWaiting,
		IsBotRoom:   true,
	}}}

	ts := httptest.NewServer(NewRouter(testRouterConfig(lobby)))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/rooms")
	if err != nil {
		t.Fatalf("GET /rooms failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Rooms []game.LobbyPayload `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if len(body.Rooms) != 1 {
		t.Fatalf("Expected 1 room, got %d", len(body.Rooms))
	}
	got := body.Rooms[0]
	if got.ID != "ABCD" || got.PlayerCount != 3 || !got.IsBotRoom {
		t.Errorf("Unexpected lobby entry: %+v", got)
	}
	if got.OwnerName == nil || *got.OwnerName != owner {
		t.Error("Owner name should survive the round trip")
	}
}

// TestRoomsEndpointEmpty verifies an empty lobby serializes as an
// array, not null.
func TestRoomsEndpointEmpty(t *testing.T) {
	ts := httptest.NewServer(NewRouter(testRouterConfig(stubLobby{})))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/rooms")
	if err != nil {
		t.Fatalf("GET /rooms failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	rooms, ok := body["rooms"].([]any)
	if !ok {
		t.Fatalf("rooms should be an array, got %T", body["rooms"])
	}
	if len(rooms) != 0 {
		t.Errorf("Expected empty array, got %v", rooms)
	}
}

// TestRateLimiting verifies over-budget requests get 429.
func TestRateLimiting(t *testing.T) {
	cfg := RouterConfig{
		Lobby:          stubLobby{},
		RateLimit:      config.RateLimitConfig{RequestsPerSecond: 1, Burst: 2},
		DisableLogging: true,
	}
	ts := httptest.NewServer(NewRouter(cfg))
	defer ts.Close()

	var last int
	for i := 0; i < 5; i++ {
		resp, err := http.Get(ts.URL + "/health")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after burst, got %d", last)
	}
}

// TestCORSAllowsAllOrigins verifies the permissive CORS policy.
func TestCORSAllowsAllOrigins(t *testing.T) {
	ts := httptest.NewServer(NewRouter(testRouterConfig(stubLobby{})))
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	req.Header.Set("Origin", "https://example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard CORS, got %q", got)
	}
}
