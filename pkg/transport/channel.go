package transport

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/gregLibert/sam-reader/pkg/iso7816"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrChannelClosed is returned by Acquire once the channel is closed.
	ErrChannelClosed = errors.New("transport: channel closed")

	// ErrLeaseReleased is returned by Transmit on a lease that was given back.
	ErrLeaseReleased = errors.New("transport: lease released")
)

// Channel owns one physical transmitter. Exchanges go through a Lease, and at
// most one Lease is outstanding at any time. Waiting for a lease blocks only
// the calling goroutine and gives up when its context ends.
type Channel struct {
	tx     iso7816.Transmitter
	sem    *semaphore.Weighted
	closed atomic.Bool
}

// NewChannel wraps tx. tx must not be used directly afterwards.
func NewChannel(tx iso7816.Transmitter) *Channel {
	return &Channel{
		tx:  tx,
		sem: semaphore.NewWeighted(1),
	}
}

// Acquire waits for exclusive use of the channel.
func (c *Channel) Acquire(ctx context.Context) (*Lease, error) {
	if c.closed.Load() {
		return nil, ErrChannelClosed
	}
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if c.closed.Load() {
		c.sem.Release(1)
		return nil, ErrChannelClosed
	}
	return &Lease{ch: c}, nil
}

// TryAcquire takes the lease only if nobody holds it.
func (c *Channel) TryAcquire() (*Lease, bool) {
	if c.closed.Load() || !c.sem.TryAcquire(1) {
		return nil, false
	}
	return &Lease{ch: c}, true
}

// Close waits for the current holder, then closes the transmitter if it is
// an io.Closer. Later Acquire calls fail with ErrChannelClosed.
func (c *Channel) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if err := c.sem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	if closer, ok := c.tx.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Lease is the exclusive right to exchange APDUs on a Channel.
// It satisfies iso7816.Transmitter until Release is called.
type Lease struct {
	ch       *Channel
	once     sync.Once
	released atomic.Bool
}

// Transmit forwards cmd to the underlying transmitter.
func (l *Lease) Transmit(cmd []byte) ([]byte, error) {
	if l.released.Load() {
		return nil, ErrLeaseReleased
	}
	return l.ch.tx.Transmit(cmd)
}

// Release gives the channel back. Extra calls are no-ops.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.released.Store(true)
		l.ch.sem.Release(1)
	})
}
