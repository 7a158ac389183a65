// ABOUTME: Background poll loop
// ABOUTME: Periodically advances every slot's decoder with per-slot fault isolation
package core

import (
	"log"
	"time"
)

// pollLoop is the engine's only background goroutine. Each iteration polls
// every slot under the engine lock, then waits until a control operation
// nudges it or the poll interval elapses.
func (e *Engine) pollLoop() {
	defer close(e.done)

	for {
		e.mu.Lock()
		if !e.running {
			e.mu.Unlock()
			return
		}
		e.pollSlots()
		e.mu.Unlock()

		select {
		case <-e.wake:
		case <-time.After(e.pollInterval):
		case <-e.quit:
			return
		}
	}
}

// pollSlots advances every decoder once. A failure in one slot is logged
// and skipped; it never aborts polling of the remaining slots. Callers
// hold e.mu.
func (e *Engine) pollSlots() {
	// Burn off any stale device error before this cycle.
	if err := e.device.Err(); err != nil {
		log.Printf("core: engine %s: device error: %v", e.id, err)
	}

	for h, s := range e.slots {
		if err := s.decoder.Poll(); err != nil {
			log.Printf("core: engine %s: slot %d poll: %v", e.id, h, err)
		}
	}
}
