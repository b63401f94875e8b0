package game

import "time"

// EventType classifies audit log entries.
type EventType string

const (
	EventRoomCreated   EventType = "room_created"
	EventRoomDestroyed EventType = "room_destroyed"
	EventPlayerJoined  EventType = "player_joined"
	EventPlayerLeft    EventType = "player_left"
	EventMatchStarted  EventType = "match_started"
	EventMatchFinished EventType = "match_finished"
)

// Event is one audit log entry. Events record room lifecycle for
// operational debugging; they are not gameplay state and nothing is
// replayed from them.
type Event struct {
	Type     EventType `json:"type"`
	Time     time.Time `json:"time"`
	RoomID   string    `json:"room_id"`
	PlayerID string    `json:"player_id,omitempty"`
	Winner   string    `json:"winner,omitempty"`
	BotRoom  bool      `json:"bot_room,omitempty"`
}

func newEvent(t EventType, roomID string) Event {
	return Event{Type: t, Time: time.Now().UTC(), RoomID: roomID}
}
