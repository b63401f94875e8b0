package game

import (
	"log"
	"math/rand"
	"sync"
	"time"
)

// SupervisorInterval is how often the bot room pool is reconciled.
// Package var so tests can compress time.
var SupervisorInterval = 5 * time.Second

// Supervisor keeps a pool of waiting bot rooms available so new players
// always find something to join.
type Supervisor struct {
	registry *Registry
	rng      *rand.Rand

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSupervisor creates an idle supervisor; call Start to begin.
func NewSupervisor(registry *Registry) *Supervisor {
	return &Supervisor{
		registry: registry,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		stopChan: make(chan struct{}),
	}
}

// Start launches the reconcile loop.
func (s *Supervisor) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Fill the pool immediately instead of waiting a full interval.
		s.reconcile()

		ticker := time.NewTicker(SupervisorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.reconcile()
			}
		}
	}()
	log.Println("🤖 Bot room supervisor started")
}

// Stop halts the reconcile loop. Existing bot rooms keep running.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
}

// reconcile tops the waiting pool up to the minimum and occasionally
// grows it toward the maximum.
func (s *Supervisor) reconcile() {
	count := s.registry.WaitingBotRoomCount()
	for count < BotRoomsMin {
		s.registry.CreateBotRoom()
		count++
	}
	if count < BotRoomsMax && s.rng.Float64() < BotRoomExtraOdds {
		s.registry.CreateBotRoom()
	}
}
