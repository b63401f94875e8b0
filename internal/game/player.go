package game

import (
	"math/rand"
)

// MaxNameLength bounds display names in code points, not bytes.
const MaxNameLength = 15

// Sink is the outbound frame destination of one connected client.
// Bots carry a nil sink. Sends must never block the caller: an
// implementation that cannot accept a frame returns an error, which the
// broadcaster treats as a disconnect.
type Sink interface {
	Send(frame []byte) error
	Close()
}

// Player is one arena occupant, human or bot. All kinematic state is in
// arena-local coordinates with the origin at the arena center.
//
// Fields are guarded by the mutex of the Room the player belongs to.
type Player struct {
	ID     string
	Name   string
	X, Y   float64
	VX, VY float64
	Color  string
	Alive  bool
	Score  int
	IsBot  bool

	sink Sink
}

// PlayerPayload is the wire form of a player inside room snapshots.
type PlayerPayload struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	Color string  `json:"color"`
	Alive bool    `json:"alive"`
	Score int     `json:"score"`
	IsBot bool    `json:"is_bot"`
}

// Payload returns the wire form of the player. Caller holds the room lock.
func (p *Player) Payload() PlayerPayload {
	return PlayerPayload{
		ID:    p.ID,
		Name:  p.Name,
		X:     p.X,
		Y:     p.Y,
		VX:    p.VX,
		VY:    p.VY,
		Color: p.Color,
		Alive: p.Alive,
		Score: p.Score,
		IsBot: p.IsBot,
	}
}

const (
	playerIDLength   = 12
	playerIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	botIDPrefix      = "bot_"

	roomIDLength   = 4
	roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

func randomID(rng *rand.Rand, alphabet string, length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}

// sanitizeName enforces the name contract: non-empty, at most
// MaxNameLength code points.
func sanitizeName(name string) string {
	if name == "" {
		return "Player"
	}
	runes := []rune(name)
	if len(runes) > MaxNameLength {
		runes = runes[:MaxNameLength]
	}
	return string(runes)
}
