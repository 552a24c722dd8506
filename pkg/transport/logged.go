package transport

import (
	"io"
	"log"
	"time"

	"github.com/gregLibert/sam-reader/pkg/iso7816"
)

// Logged prints every exchange of Next:
//
//	>> 00B2010C00
//	<< DF0103414243 9000 (1.2ms)
type Logged struct {
	Next   iso7816.Transmitter
	Logger *log.Logger
}

// NewLogged wraps next. A nil logger discards output.
func NewLogged(next iso7816.Transmitter, logger *log.Logger) *Logged {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Logged{Next: next, Logger: logger}
}

// Transmit logs the command, forwards it and logs the response or error.
func (l *Logged) Transmit(cmd []byte) ([]byte, error) {
	l.Logger.Printf(">> %X", cmd)
	start := time.Now()

	resp, err := l.Next.Transmit(cmd)
	elapsed := time.Since(start).Round(100 * time.Microsecond)
	if err != nil {
		l.Logger.Printf("<< error: %v (%s)", err, elapsed)
		return resp, err
	}

	if len(resp) <= 2 {
		l.Logger.Printf("<< %X (%s)", resp, elapsed)
		return resp, nil
	}
	n := len(resp) - 2
	l.Logger.Printf("<< %X %X (%s)", resp[:n], resp[n:], elapsed)
	return resp, nil
}

// Close closes Next when it is an io.Closer.
func (l *Logged) Close() error {
	if c, ok := l.Next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
