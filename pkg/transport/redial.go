package transport

import (
	"fmt"
	"io"
	"sync"

	"github.com/gregLibert/sam-reader/pkg/iso7816"
)

// DialFunc opens a connection to the card currently on the reader.
type DialFunc func() (iso7816.Transmitter, error)

// Redialer connects on the first exchange and drops the connection after a
// transport error, so the next exchange reaches the next card. Put it under
// a Channel to share one reader between reads.
type Redialer struct {
	Dial DialFunc

	mu   sync.Mutex
	conn iso7816.Transmitter
}

// NewRedialer returns a Redialer that is not connected yet.
func NewRedialer(dial DialFunc) *Redialer {
	return &Redialer{Dial: dial}
}

// Transmit implements iso7816.Transmitter.
func (r *Redialer) Transmit(cmd []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		conn, err := r.Dial()
		if err != nil {
			return nil, fmt.Errorf("dialing card: %w", err)
		}
		r.conn = conn
	}

	resp, err := r.conn.Transmit(cmd)
	if err != nil {
		r.dropLocked()
	}
	return resp, err
}

// Connected reports whether a connection is open.
func (r *Redialer) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

// Reset closes the current connection, if any. Call it when a new card is
// inserted.
func (r *Redialer) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropLocked()
}

// Close is Reset.
func (r *Redialer) Close() error {
	return r.Reset()
}

func (r *Redialer) dropLocked() error {
	conn := r.conn
	r.conn = nil
	if closer, ok := conn.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
