package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/ebfe/scard"
)

// Presence reports whether a card sits on a reader.
type Presence interface {
	// Wait blocks until the state may have changed, timeout elapses or ctx
	// ends, and returns the current presence.
	Wait(ctx context.Context, timeout time.Duration) (bool, error)
}

// CardHandler processes one inserted card. The watcher does not poll while
// it runs.
type CardHandler func(ctx context.Context) error

// DefaultDebounce is the minimum spacing between two handled insertions.
const DefaultDebounce = time.Second

const defaultPoll = 500 * time.Millisecond

// Watcher calls a CardHandler once per card insertion.
type Watcher struct {
	Presence Presence
	Debounce time.Duration
	Poll     time.Duration
	Logger   *log.Logger

	now func() time.Time
}

// Run blocks until ctx ends. Handler errors are logged, not returned.
func (w *Watcher) Run(ctx context.Context, handle CardHandler) error {
	logger := w.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	poll := w.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	now := w.now
	if now == nil {
		now = time.Now
	}
	gate := debouncer{window: w.Debounce}

	present := false
	for {
		if ctx.Err() != nil {
			return nil
		}

		isPresent, err := w.Presence.Wait(ctx, poll)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("watching reader: %w", err)
		}

		switch {
		case !isPresent:
			if present {
				logger.Printf("card removed")
			}
			present = false
			continue
		case present:
			continue
		}

		present = true
		if !gate.allow(now()) {
			logger.Printf("card detected within %s of the previous one, ignored", w.Debounce)
			continue
		}

		logger.Printf("card detected")
		if err := handle(ctx); err != nil {
			logger.Printf("card handler: %v", err)
		}
	}
}

// debouncer lets an event through when the previous accepted one is at
// least window old.
type debouncer struct {
	window time.Duration
	last   time.Time
}

func (d *debouncer) allow(t time.Time) bool {
	if !d.last.IsZero() && t.Sub(d.last) < d.window {
		return false
	}
	d.last = t
	return true
}

// PCSCPresence follows one reader through SCardGetStatusChange.
type PCSCPresence struct {
	Reader string

	ctx   *scard.Context
	state scard.StateFlag
}

// NewPCSCPresence opens a PC/SC context on the reader chosen like DialPCSC does.
func NewPCSCPresence(reader string) (*PCSCPresence, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establishing context: %w", err)
	}
	readers, err := ctx.ListReaders()
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("listing readers: %w", err)
	}
	name, err := pickReader(readers, reader)
	if err != nil {
		ctx.Release()
		return nil, err
	}
	return &PCSCPresence{Reader: name, ctx: ctx, state: scard.StateUnaware}, nil
}

// Wait implements Presence.
func (p *PCSCPresence) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	stop := context.AfterFunc(ctx, func() { _ = p.ctx.Cancel() })
	defer stop()

	rs := []scard.ReaderState{{Reader: p.Reader, CurrentState: p.state}}
	err := p.ctx.GetStatusChange(rs, timeout)
	switch {
	case err == nil:
		p.state = rs[0].EventState &^ scard.StateChanged
	case errors.Is(err, scard.ErrTimeout):
	default:
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, err
	}
	return p.state&scard.StatePresent != 0, nil
}

// Close releases the PC/SC context.
func (p *PCSCPresence) Close() error {
	return p.ctx.Release()
}
