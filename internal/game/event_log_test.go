package game

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestEventLogWritesJSONL verifies events land in the file as one JSON
// object per line.
func TestEventLogWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ev := newEvent(EventRoomCreated, "ABCD")
	ev.BotRoom = true
	if !el.Emit(ev) {
		t.Fatal("Emit should succeed")
	}
	left := newEvent(EventPlayerLeft, "ABCD")
	left.PlayerID = "abc123def456"
	el.Emit(left)

	el.Stop()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("Bad JSONL line %q: %v", scanner.Text(), err)
		}
		events = append(events, e)
	}

	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventRoomCreated || events[0].RoomID != "ABCD" || !events[0].BotRoom {
		t.Errorf("Unexpected first event: %+v", events[0])
	}
	if events[1].Type != EventPlayerLeft || events[1].PlayerID != "abc123def456" {
		t.Errorf("Unexpected second event: %+v", events[1])
	}

	stats := el.Stats()
	if stats["total"] != 2 {
		t.Errorf("Expected 2 total, got %d", stats["total"])
	}
}

// TestEventLogDisabled verifies an unstarted log drops emissions
// without error.
func TestEventLogDisabled(t *testing.T) {
	el := NewEventLog()
	if el.Emit(newEvent(EventRoomCreated, "ABCD")) {
		t.Error("Emit on an idle log should report dropped")
	}
	el.Stop()
}

// TestEventLogBackpressure verifies that a burst beyond the rate limit
// drops and counts events rather than blocking.
func TestEventLogBackpressure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer el.Stop()

	dropped := false
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < eventBufferSize*4; i++ {
			if !el.Emit(newEvent(EventPlayerJoined, "ABCD")) {
				dropped = true
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Emit blocked under load")
	}

	if dropped && el.Stats()["dropped"] == 0 {
		t.Error("Dropped events should be counted")
	}
}
