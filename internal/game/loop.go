package game

import (
	"encoding/json"
	"log"
	"math/rand"
	"time"
)

// Loop cadences. Package vars rather than constants so tests can
// compress time; production code never writes them.
var (
	WaitingPoll     = 100 * time.Millisecond
	CountdownStep   = time.Second
	TickInterval    = time.Second / TicksPerSecond
	FinishedPoll    = 100 * time.Millisecond
	BotRematchDelay = 3 * time.Second
)

func marshalFrame(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("⚠️ Frame marshal failed: %v", err)
		return nil
	}
	return b
}

// sinkTarget pairs a player ID with its outbound sink so broadcast
// failures can be traced back for removal.
type sinkTarget struct {
	playerID string
	sink     Sink
}

// sinkTargets snapshots the connected sinks. Caller holds the lock.
func (r *Room) sinkTargets() []sinkTarget {
	out := make([]sinkTarget, 0, len(r.order))
	for _, id := range r.order {
		if p := r.players[id]; p.sink != nil {
			out = append(out, sinkTarget{playerID: id, sink: p.sink})
		}
	}
	return out
}

// broadcast fans a frame out to every connected session in the room.
// Sends happen outside the room lock; a failed send marks that session
// disconnected and removes the player on the spot.
func (g *Registry) broadcast(room *Room, frame []byte) {
	if frame == nil {
		return
	}
	room.mu.Lock()
	targets := room.sinkTargets()
	room.mu.Unlock()

	var failed []string
	for _, t := range targets {
		if err := t.sink.Send(frame); err != nil {
			t.sink.Close()
			failed = append(failed, t.playerID)
		}
	}
	for _, id := range failed {
		log.Printf("📤 Dropping %s: send failed", id)
		g.RemovePlayer(id)
	}
}

// roomFrame builds a frame that carries the room snapshot plus extra
// top-level fields. Caller holds the room lock.
func (r *Room) roomFrame(frameType string, extra map[string]any) []byte {
	msg := map[string]any{
		"type": frameType,
		"room": r.payload(),
	}
	for k, v := range extra {
		msg[k] = v
	}
	return marshalFrame(msg)
}

// announceJoin enqueues player_joined to every sink, the joiner
// included. Enqueueing under the room lock orders the frame after the
// joiner's welcome and before the next tick broadcast. Caller holds the
// lock; returns the players whose sinks failed.
func (r *Room) announceJoin(player *Player) []string {
	frame := r.roomFrame("player_joined", map[string]any{"player": player.Payload()})
	var failed []string
	for _, t := range r.sinkTargets() {
		if err := t.sink.Send(frame); err != nil {
			t.sink.Close()
			failed = append(failed, t.playerID)
		}
	}
	return failed
}

// AnnounceLeave broadcasts player_left to the remaining players.
func (g *Registry) AnnounceLeave(room *Room, playerID string) {
	room.mu.Lock()
	frame := room.roomFrame("player_left", map[string]any{"player_id": playerID})
	room.mu.Unlock()
	g.broadcast(room, frame)
}

// AnnounceGameStarting broadcasts the waiting -> countdown transition.
func (g *Registry) AnnounceGameStarting(room *Room) {
	room.mu.Lock()
	frame := room.roomFrame("game_starting", nil)
	room.mu.Unlock()
	g.broadcast(room, frame)
}

// AnnounceRematchStarting broadcasts the finished -> countdown transition.
func (g *Registry) AnnounceRematchStarting(room *Room) {
	room.mu.Lock()
	frame := room.roomFrame("rematch_starting", nil)
	room.mu.Unlock()
	g.broadcast(room, frame)
}

// RunRoom drives one room's state machine until the room dies. Exactly
// one RunRoom goroutine exists per live room; it owns the broadcast
// cadence and is the only writer of the room's State outside the
// owner-driven transitions.
func (g *Registry) RunRoom(room *Room) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var rematchAt time.Time

	for g.roomLive(room) {
		room.mu.Lock()

		// An abandoned bot room returns to the waiting pool and idles.
		if room.IsBotRoom && !room.hasRealPlayers() {
			if room.State != StateWaiting {
				room.resetForBots()
			}
			room.mu.Unlock()
			rematchAt = time.Time{}
			time.Sleep(WaitingPoll)
			continue
		}

		switch room.State {
		case StateWaiting:
			// Bot rooms start on their own as soon as a real player
			// arrives; human rooms wait for the owner.
			var frame []byte
			if room.IsBotRoom && room.hasRealPlayers() {
				room.beginCountdown()
				frame = room.roomFrame("game_starting", nil)
			}
			room.mu.Unlock()
			if frame != nil {
				ev := newEvent(EventMatchStarted, room.ID)
				g.events.Emit(ev)
				g.broadcast(room, frame)
			}
			time.Sleep(WaitingPoll)

		case StateCountdown:
			// The current value is broadcast before each one-second
			// step and decremented after, so clients see 3, 2, 1, 0.
			frame := room.roomFrame("countdown", map[string]any{"countdown": room.Countdown})
			room.mu.Unlock()
			g.broadcast(room, frame)
			time.Sleep(CountdownStep)

			room.mu.Lock()
			if room.State == StateCountdown {
				if room.Countdown <= 0 {
					room.State = StatePlaying
					room.respawnAll()
				} else {
					room.Countdown--
				}
			}
			room.mu.Unlock()

		case StatePlaying:
			rematchAt = time.Time{}
			room.updateBots(rng)
			room.stepPhysics()
			frame := room.roomFrame("state", nil)
			finished := room.State == StateFinished
			winner := room.Winner
			room.mu.Unlock()

			g.broadcast(room, frame)
			if finished {
				ev := newEvent(EventMatchFinished, room.ID)
				ev.Winner = winner
				g.events.Emit(ev)
			}
			time.Sleep(TickInterval)

		case StateFinished:
			frame := room.roomFrame("finished", map[string]any{"winner": optional(room.Winner)})

			// Bot rooms rematch on their own 3 s after the finish, as
			// long as a real player is still around.
			var rematchFrame []byte
			if room.IsBotRoom && room.hasRealPlayers() {
				now := time.Now()
				if rematchAt.IsZero() {
					rematchAt = now.Add(BotRematchDelay)
				} else if !now.Before(rematchAt) {
					rematchAt = time.Time{}
					room.rematchReset()
					rematchFrame = room.roomFrame("rematch_starting", nil)
				}
			}
			room.mu.Unlock()

			g.broadcast(room, frame)
			if rematchFrame != nil {
				g.broadcast(room, rematchFrame)
			}
			time.Sleep(FinishedPoll)

		default:
			room.mu.Unlock()
			time.Sleep(WaitingPoll)
		}
	}
}
