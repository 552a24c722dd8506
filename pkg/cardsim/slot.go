package cardsim

import (
	"context"
	"sync"
	"time"
)

// Slot is a virtual reader slot. It reports presence changes the way a
// PC/SC reader does and can drive a transport.Watcher.
type Slot struct {
	mu      sync.Mutex
	present bool
	changed chan struct{}
}

// NewSlot returns an empty slot.
func NewSlot() *Slot {
	return &Slot{changed: make(chan struct{})}
}

// Insert puts a card on the reader.
func (s *Slot) Insert() { s.set(true) }

// Remove takes the card away.
func (s *Slot) Remove() { s.set(false) }

func (s *Slot) set(present bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.present == present {
		return
	}
	s.present = present
	close(s.changed)
	s.changed = make(chan struct{})
}

// Wait returns at the next change, after timeout, or when ctx ends.
func (s *Slot) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	s.mu.Lock()
	changed := s.changed
	s.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-changed:
	case <-timer.C:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.present, nil
}
