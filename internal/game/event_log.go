package game

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	eventBufferSize    = 1024
	maxEventsPerSec    = 1000
	batchFlushInterval = 100 * time.Millisecond
)

// EventLog is a bounded, rate-limited JSONL audit log. Emission never
// blocks the game path: when the buffer is full or the rate limit trips,
// events are dropped and counted.
type EventLog struct {
	mu      sync.Mutex
	pending []Event
	file    *os.File

	limiter *rate.Limiter

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool

	totalCount   uint64 // atomic
	droppedCount uint64 // atomic
}

// NewEventLog creates an idle event log. Nothing is written until Start.
func NewEventLog() *EventLog {
	return &EventLog{
		pending:  make([]Event, 0, eventBufferSize),
		limiter:  rate.NewLimiter(maxEventsPerSec, maxEventsPerSec/10),
		stopChan: make(chan struct{}),
	}
}

// Start opens the output file and begins the async flush loop.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() || filePath == "" {
		return nil
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	el.file = file
	el.running.Store(true)

	el.wg.Add(1)
	go el.flushLoop()
	return nil
}

// Stop flushes remaining events and closes the file.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		if !el.running.Load() {
			return
		}
		el.running.Store(false)
		close(el.stopChan)
		el.wg.Wait()

		el.mu.Lock()
		el.flush()
		if el.file != nil {
			el.file.Close()
		}
		el.mu.Unlock()
	})
}

// Emit queues an event for the next flush. Returns false when the event
// was dropped.
func (el *EventLog) Emit(ev Event) bool {
	if !el.running.Load() {
		return false
	}
	if !el.limiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	if len(el.pending) >= eventBufferSize {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}
	el.pending = append(el.pending, ev)
	atomic.AddUint64(&el.totalCount, 1)
	return true
}

func (el *EventLog) flushLoop() {
	defer el.wg.Done()

	ticker := time.NewTicker(batchFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.mu.Lock()
			el.flush()
			el.mu.Unlock()
		}
	}
}

// flush writes pending events as JSON lines. Caller holds the lock.
func (el *EventLog) flush() {
	if el.file == nil || len(el.pending) == 0 {
		return
	}
	for _, ev := range el.pending {
		line, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if _, err := el.file.Write(append(line, '\n')); err != nil {
			log.Printf("⚠️ Event log write failed: %v", err)
			break
		}
	}
	el.pending = el.pending[:0]
}

// Stats reports counters for monitoring.
func (el *EventLog) Stats() map[string]uint64 {
	return map[string]uint64{
		"total":   atomic.LoadUint64(&el.totalCount),
		"dropped": atomic.LoadUint64(&el.droppedCount),
	}
}
