package game

import (
	"errors"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Join failures, mapped to wire error frames by the session layer.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room full")
	ErrGameStarted  = errors.New("game already started")
)

// Registry is the process-wide index of rooms and players. It owns ID
// allocation and the player -> room mapping; per-room state is guarded
// by each room's own mutex. Lock order is registry before room.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	playerRooms map[string]string // player ID -> room ID
	rng         *rand.Rand        // guarded by mu

	events *EventLog
}

// RegistryStats is a point-in-time census for monitoring.
type RegistryStats struct {
	Rooms           int
	WaitingBotRooms int
	Players         int
	Bots            int
}

// NewRegistry creates an empty registry. A nil event log disables
// auditing without sprinkling nil checks at call sites.
func NewRegistry(events *EventLog) *Registry {
	if events == nil {
		events = NewEventLog()
	}
	return &Registry{
		rooms:       make(map[string]*Room),
		playerRooms: make(map[string]string),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		events:      events,
	}
}

// newRoomID allocates an unused 4-letter code. The ID space is small
// (26^4), so uniqueness is enforced by resampling, never assumed.
// Caller holds the lock.
func (g *Registry) newRoomID() string {
	for {
		id := randomID(g.rng, roomIDAlphabet, roomIDLength)
		if _, taken := g.rooms[id]; !taken {
			return id
		}
	}
}

// newPlayerID allocates a process-wide unique player ID. Caller holds
// the lock.
func (g *Registry) newPlayerID(bot bool) string {
	for {
		id := randomID(g.rng, playerIDAlphabet, playerIDLength)
		if bot {
			id = botIDPrefix + id
		}
		if _, taken := g.playerRooms[id]; !taken {
			return id
		}
	}
}

// newPlayer constructs a player on the spawn circle of the room and
// registers it in the player index. Caller holds the registry and room
// locks.
func (g *Registry) newPlayer(room *Room, name string, bot bool, sink Sink) *Player {
	x, y := room.spawnPosition(g.rng)
	p := &Player{
		ID:    g.newPlayerID(bot),
		Name:  sanitizeName(name),
		X:     x,
		Y:     y,
		Color: playerColors[len(room.players)%len(playerColors)],
		Alive: true,
		IsBot: bot,
		sink:  sink,
	}
	room.addPlayer(p)
	g.playerRooms[p.ID] = room.ID
	return p
}

// CreateRoom opens a new room with the connecting client as its first
// player and owner, sends the welcome frame, and spawns the room loop.
func (g *Registry) CreateRoom(name string, isPublic bool, sink Sink) (*Room, *Player) {
	g.mu.Lock()
	room := newRoom(g.newRoomID(), isPublic, false)
	g.rooms[room.ID] = room

	room.mu.Lock()
	player := g.newPlayer(room, name, false, sink)
	g.sendWelcome(room, player)
	failed := room.announceJoin(player)
	room.mu.Unlock()
	g.mu.Unlock()

	for _, id := range failed {
		g.RemovePlayer(id)
	}

	ev := newEvent(EventRoomCreated, room.ID)
	g.events.Emit(ev)
	joined := newEvent(EventPlayerJoined, room.ID)
	joined.PlayerID = player.ID
	g.events.Emit(joined)

	log.Printf("🏟 Room %s created by %s", room.ID, player.Name)
	go g.RunRoom(room)
	return room, player
}

// Join adds a client to an existing waiting room by its code
// (case-insensitive). The welcome frame is enqueued before the room lock
// is released, so it is always the first frame the session observes.
func (g *Registry) Join(code, name string, sink Sink) (*Room, *Player, error) {
	g.mu.Lock()
	room, ok := g.rooms[strings.ToUpper(code)]
	if !ok {
		g.mu.Unlock()
		return nil, nil, ErrRoomNotFound
	}

	room.mu.Lock()
	if len(room.players) >= MaxPlayers {
		room.mu.Unlock()
		g.mu.Unlock()
		return nil, nil, ErrRoomFull
	}
	if room.State != StateWaiting {
		room.mu.Unlock()
		g.mu.Unlock()
		return nil, nil, ErrGameStarted
	}
	player := g.newPlayer(room, name, false, sink)
	g.sendWelcome(room, player)
	failed := room.announceJoin(player)
	room.mu.Unlock()
	g.mu.Unlock()

	for _, id := range failed {
		g.RemovePlayer(id)
	}

	ev := newEvent(EventPlayerJoined, room.ID)
	ev.PlayerID = player.ID
	g.events.Emit(ev)

	log.Printf("👤 %s joined room %s", player.Name, room.ID)
	return room, player, nil
}

// sendWelcome enqueues the welcome frame on the new player's sink.
// Caller holds the room lock, which orders it before any broadcast.
func (g *Registry) sendWelcome(room *Room, player *Player) {
	if player.sink == nil {
		return
	}
	frame := marshalFrame(map[string]any{
		"type":      "welcome",
		"player_id": player.ID,
		"room":      room.payload(),
	})
	if err := player.sink.Send(frame); err != nil {
		log.Printf("⚠️ Welcome send failed for %s: %v", player.ID, err)
	}
}

// CreateBotRoom opens a public room seeded with bots and spawns its loop.
func (g *Registry) CreateBotRoom() *Room {
	g.mu.Lock()
	room := newRoom(g.newRoomID(), true, true)
	g.rooms[room.ID] = room

	room.mu.Lock()
	numBots := BotRoomMinBots + g.rng.Intn(BotRoomMaxBots-BotRoomMinBots+1)
	for i := 0; i < numBots; i++ {
		name := botNames[g.rng.Intn(len(botNames))]
		g.newPlayer(room, name, true, nil)
	}
	room.mu.Unlock()
	g.mu.Unlock()

	ev := newEvent(EventRoomCreated, room.ID)
	ev.BotRoom = true
	g.events.Emit(ev)

	log.Printf("🤖 Bot room %s created with %d bots", room.ID, numBots)
	go g.RunRoom(room)
	return room
}

// RemovePlayer detaches a player from its room, reassigns ownership,
// and destroys the room when it empties. Returns the room and whether
// it is still live (for the player_left broadcast).
func (g *Registry) RemovePlayer(playerID string) (*Room, bool) {
	g.mu.Lock()
	roomID, ok := g.playerRooms[playerID]
	if !ok {
		g.mu.Unlock()
		return nil, false
	}
	delete(g.playerRooms, playerID)

	room := g.rooms[roomID]
	if room == nil {
		g.mu.Unlock()
		return nil, false
	}

	room.mu.Lock()
	room.removePlayer(playerID)
	empty := len(room.players) == 0
	room.mu.Unlock()

	if empty {
		delete(g.rooms, roomID)
	}
	g.mu.Unlock()

	ev := newEvent(EventPlayerLeft, roomID)
	ev.PlayerID = playerID
	g.events.Emit(ev)
	if empty {
		g.events.Emit(newEvent(EventRoomDestroyed, roomID))
		log.Printf("🏟 Room %s destroyed", roomID)
	}
	return room, !empty
}

// Room looks up a room by its code, case-insensitive.
func (g *Registry) Room(code string) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rooms[strings.ToUpper(code)]
}

// roomForPlayer resolves the room a player currently occupies.
func (g *Registry) roomForPlayer(playerID string) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	roomID, ok := g.playerRooms[playerID]
	if !ok {
		return nil
	}
	return g.rooms[roomID]
}

// StartGame moves the player's room from waiting to countdown if the
// player is the owner and enough players are present.
func (g *Registry) StartGame(playerID string) *Room {
	room := g.roomForPlayer(playerID)
	if room == nil || !room.Start(playerID) {
		return nil
	}
	ev := newEvent(EventMatchStarted, room.ID)
	ev.PlayerID = playerID
	g.events.Emit(ev)
	return room
}

// Rematch moves the player's room from finished back to countdown if
// the player is the owner and enough players remain.
func (g *Registry) Rematch(playerID string) *Room {
	room := g.roomForPlayer(playerID)
	if room == nil || !room.Rematch(playerID) {
		return nil
	}
	ev := newEvent(EventMatchStarted, room.ID)
	ev.PlayerID = playerID
	g.events.Emit(ev)
	return room
}

// ApplyInput forwards a movement impulse to the player's room.
func (g *Registry) ApplyInput(playerID string, dx, dy float64) {
	if room := g.roomForPlayer(playerID); room != nil {
		room.ApplyInput(playerID, dx, dy)
	}
}

// PublicRooms lists public, waiting, not-full rooms for the lobby.
func (g *Registry) PublicRooms() []LobbyPayload {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.RUnlock()

	entries := make([]LobbyPayload, 0, len(rooms))
	for _, room := range rooms {
		entry := room.LobbyEntry()
		if entry.State == StateWaiting && entry.PlayerCount < MaxPlayers {
			room.mu.Lock()
			public := room.IsPublic
			room.mu.Unlock()
			if public {
				entries = append(entries, entry)
			}
		}
	}
	return entries
}

// WaitingBotRoomCount counts bot rooms currently idle in the pool.
func (g *Registry) WaitingBotRoomCount() int {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.RUnlock()

	n := 0
	for _, room := range rooms {
		room.mu.Lock()
		if room.IsBotRoom && room.State == StateWaiting {
			n++
		}
		room.mu.Unlock()
	}
	return n
}

// Stats returns a census of rooms and players for monitoring.
func (g *Registry) Stats() RegistryStats {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.RUnlock()

	stats := RegistryStats{Rooms: len(rooms)}
	for _, room := range rooms {
		room.mu.Lock()
		if room.IsBotRoom && room.State == StateWaiting {
			stats.WaitingBotRooms++
		}
		for _, p := range room.players {
			if p.IsBot {
				stats.Bots++
			} else {
				stats.Players++
			}
		}
		room.mu.Unlock()
	}
	return stats
}

// roomLive reports whether the room still exists with players in it;
// the room loop exits when it turns false.
func (g *Registry) roomLive(room *Room) bool {
	g.mu.RLock()
	_, ok := g.rooms[room.ID]
	g.mu.RUnlock()
	if !ok {
		return false
	}
	return room.PlayerCount() > 0
}
