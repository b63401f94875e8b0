package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"sumo-arena/internal/game"
)

// outboundQueueSize bounds the per-session send queue. A client that
// cannot drain 64 frames is ~1 s behind at the playing cadence and gets
// disconnected rather than stalling the room loop.
const outboundQueueSize = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Clients connect from arbitrary webview origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

var (
	errSinkClosed = errors.New("sink closed")
	errSlowClient = errors.New("outbound queue overflow")
)

// wsSink adapts a WebSocket connection to the game.Sink interface:
// a bounded queue drained by one writer goroutine, so broadcasting is a
// non-blocking enqueue and a slow client only hurts itself.
type wsSink struct {
	conn *websocket.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func newWSSink(conn *websocket.Conn) *wsSink {
	s := &wsSink{
		conn: conn,
		out:  make(chan []byte, outboundQueueSize),
		done: make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

func (s *wsSink) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case frame := <-s.out:
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.Close()
				return
			}
		}
	}
}

func (s *wsSink) Send(frame []byte) error {
	select {
	case <-s.done:
		return errSinkClosed
	default:
	}
	select {
	case s.out <- frame:
		return nil
	default:
		s.Close()
		return errSlowClient
	}
}

// stop halts the writer without closing the connection, so a caller can
// still write a final frame directly.
func (s *wsSink) stop() {
	s.once.Do(func() {
		close(s.done)
	})
}

func (s *wsSink) Close() {
	s.stop()
	s.conn.Close()
}

// sendError emits one error frame directly; used before a session is
// established, when no sink exists yet.
func sendError(conn *websocket.Conn, message string) {
	frame, err := json.Marshal(map[string]string{
		"type":    "error",
		"message": message,
	})
	if err != nil {
		return
	}
	conn.WriteMessage(websocket.TextMessage, frame)
}

// handleWS upgrades the connection and runs the session to completion.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if reason := s.connLimiter.Acquire(ip); reason != "" {
		log.Printf("⚠️ WebSocket rejected from %s: %s", ip, reason)
		recordConnectionRejected(reason)
		http.Error(w, "Too many connections", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.connLimiter.Release(ip)
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	updateWSConnections(s.connLimiter.Count())
	defer func() {
		s.connLimiter.Release(ip)
		updateWSConnections(s.connLimiter.Count())
	}()

	s.runSession(conn)
}

// runSession drives one client connection: handshake, read loop,
// disconnect cleanup. Any read error, protocol violation, or internal
// panic ends the session; cleanup runs unconditionally.
func (s *Server) runSession(conn *websocket.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("💥 Session panic: %v", r)
		}
	}()

	// Handshake: the first frame must open or join a room.
	var msg ClientMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return
	}

	var player *game.Player
	switch msg.Type {
	case MsgCreate:
		sink := newWSSink(conn)
		_, player = s.registry.CreateRoom(msg.Name, msg.IsPublic, sink)

	case MsgJoin:
		if msg.RoomID == "" {
			sendError(conn, errMsgMissingCode)
			return
		}
		sink := newWSSink(conn)
		var err error
		_, player, err = s.registry.Join(msg.RoomID, msg.Name, sink)
		if err != nil {
			sink.stop()
			switch {
			case errors.Is(err, game.ErrRoomNotFound):
				sendError(conn, errMsgRoomNotFound)
			case errors.Is(err, game.ErrRoomFull):
				sendError(conn, errMsgRoomFull)
			case errors.Is(err, game.ErrGameStarted):
				sendError(conn, errMsgGameStarted)
			}
			return
		}

	default:
		// Wrong opening frame: close without an error frame.
		return
	}

	defer func() {
		if left, live := s.registry.RemovePlayer(player.ID); live {
			s.registry.AnnounceLeave(left, player.ID)
		}
	}()

	// Steady state: dispatch inbound frames until the connection dies.
	for {
		var in ClientMessage
		if err := conn.ReadJSON(&in); err != nil {
			return
		}

		switch in.Type {
		case MsgInput:
			s.registry.ApplyInput(player.ID, in.DX, in.DY)
		case MsgStart:
			if started := s.registry.StartGame(player.ID); started != nil {
				s.registry.AnnounceGameStarting(started)
			}
		case MsgRematch:
			if restarted := s.registry.Rematch(player.ID); restarted != nil {
				s.registry.AnnounceRematchStarting(restarted)
			}
		default:
			// Unknown frame types are ignored.
		}
	}
}
