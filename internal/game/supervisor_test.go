package game

import (
	"testing"
	"time"
)

// TestSupervisorFillsPool verifies the pool is topped up to the minimum.
func TestSupervisorFillsPool(t *testing.T) {
	fastLoop(t)
	g := NewRegistry(nil)
	s := NewSupervisor(g)

	s.reconcile()

	count := g.WaitingBotRoomCount()
	if count < BotRoomsMin {
		t.Errorf("Expected at least %d waiting bot rooms, got %d", BotRoomsMin, count)
	}
	if count > BotRoomsMax {
		t.Errorf("Pool overshot the maximum: %d", count)
	}
}

// TestSupervisorRespectsExistingPool verifies no extra rooms are forced
// when the minimum is already met.
func TestSupervisorRespectsExistingPool(t *testing.T) {
	fastLoop(t)
	g := NewRegistry(nil)
	for i := 0; i < BotRoomsMin; i++ {
		g.CreateBotRoom()
	}

	s := NewSupervisor(g)
	s.reconcile()

	count := g.WaitingBotRoomCount()
	// At most one probabilistic extra per cycle.
	if count < BotRoomsMin || count > BotRoomsMin+1 {
		t.Errorf("Expected %d or %d waiting bot rooms, got %d", BotRoomsMin, BotRoomsMin+1, count)
	}
}

// TestSupervisorStartStop verifies the loop fills the pool on start and
// stops cleanly.
func TestSupervisorStartStop(t *testing.T) {
	fastLoop(t)
	saved := SupervisorInterval
	SupervisorInterval = 10 * time.Millisecond
	t.Cleanup(func() { SupervisorInterval = saved })

	g := NewRegistry(nil)
	s := NewSupervisor(g)
	s.Start()
	defer s.Stop()

	ok := waitFor(t, 2*time.Second, func() bool {
		return g.WaitingBotRoomCount() >= BotRoomsMin
	})
	if !ok {
		t.Fatalf("Supervisor never filled the pool, have %d", g.WaitingBotRoomCount())
	}

	s.Stop()
	// Stop is idempotent.
	s.Stop()
}

// TestSupervisorRefillsAfterStart verifies a room leaving the waiting
// pool is replaced on the next cycle.
func TestSupervisorRefillsAfterStart(t *testing.T) {
	fastLoop(t)
	saved := SupervisorInterval
	SupervisorInterval = 10 * time.Millisecond
	t.Cleanup(func() { SupervisorInterval = saved })

	g := NewRegistry(nil)
	s := NewSupervisor(g)
	s.Start()
	defer s.Stop()

	if !waitFor(t, 2*time.Second, func() bool { return g.WaitingBotRoomCount() >= BotRoomsMin }) {
		t.Fatal("Pool never filled")
	}

	// A human joining flips one pool room to countdown.
	rooms := g.PublicRooms()
	if len(rooms) == 0 {
		t.Fatal("Expected a joinable pool room")
	}
	if _, _, err := g.Join(rooms[0].ID, "C", &captureSink{}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return g.WaitingBotRoomCount() >= BotRoomsMin }) {
		t.Fatalf("Pool never refilled, have %d", g.WaitingBotRoomCount())
	}
}
