package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type closingTx struct {
	TransmitterFunc
	closed bool
}

func (c *closingTx) Close() error {
	c.closed = true
	return nil
}

func echo(cmd []byte) ([]byte, error) {
	return append(append([]byte(nil), cmd...), 0x90, 0x00), nil
}

func TestChannel_LeaseTransmits(t *testing.T) {
	ch := NewChannel(TransmitterFunc(echo))

	lease, err := ch.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	resp, err := lease.Transmit([]byte{0x01})
	if err != nil || len(resp) != 3 {
		t.Fatalf("Transmit = %X, %v", resp, err)
	}

	lease.Release()
	lease.Release()

	if _, err := lease.Transmit([]byte{0x01}); !errors.Is(err, ErrLeaseReleased) {
		t.Errorf("Transmit after release: err = %v", err)
	}

	again, ok := ch.TryAcquire()
	if !ok {
		t.Fatal("channel should be free after a double release")
	}
	again.Release()
}

func TestChannel_SingleOwner(t *testing.T) {
	ch := NewChannel(TransmitterFunc(echo))

	first, err := ch.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, ok := ch.TryAcquire(); ok {
		t.Fatal("TryAcquire succeeded while the lease is held")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := ch.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Acquire while held: err = %v, want deadline exceeded", err)
	}

	acquired := make(chan struct{})
	go func() {
		l, err := ch.Acquire(context.Background())
		if err == nil {
			l.Release()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire returned before Release")
	case <-time.After(20 * time.Millisecond):
	}

	first.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Acquire did not return after Release")
	}
}

func TestChannel_ConcurrentLeasesNeverOverlap(t *testing.T) {
	var (
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	ch := NewChannel(TransmitterFunc(func(cmd []byte) ([]byte, error) {
		return []byte{0x90, 0x00}, nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := ch.Acquire(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			defer lease.Release()

			mu.Lock()
			holders++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen)
	}
}

func TestChannel_Close(t *testing.T) {
	tx := &closingTx{TransmitterFunc: echo}
	ch := NewChannel(tx)

	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !tx.closed {
		t.Error("underlying transmitter not closed")
	}
	if err := ch.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := ch.Acquire(context.Background()); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("Acquire after Close: err = %v", err)
	}
	if _, ok := ch.TryAcquire(); ok {
		t.Error("TryAcquire after Close succeeded")
	}
}
