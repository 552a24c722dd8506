package samcard

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/gregLibert/sam-reader/pkg/transport"
)

// Reader reads SecureCardData from a card behind a transport.Channel.
type Reader struct {
	Channel *transport.Channel
	Manager *Manager
	Decoder Decoder
	Logger  *log.Logger
}

// NewReader wires a Manager and a Decoder sharing cfg.
func NewReader(ch *transport.Channel, cfg Config, logger *log.Logger) *Reader {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Reader{
		Channel: ch,
		Manager: NewManager(cfg, logger),
		Decoder: Decoder{Config: cfg},
		Logger:  logger,
	}
}

// ReadSecureCardData holds the channel for the whole read. Concurrent calls
// queue on the channel. It never returns nil and never panics: failures are
// reported through AdditionalFields["error"] with IsAuthenticated false.
func (r *Reader) ReadSecureCardData(ctx context.Context, creds Credentials) (data *SecureCardData) {
	if r == nil || r.Channel == nil {
		return Failed(ErrNoDevice)
	}

	lease, err := r.Channel.Acquire(ctx)
	if err != nil {
		return Failed(fmt.Errorf("acquiring card channel: %w", err))
	}
	defer lease.Release()

	defer func() {
		if p := recover(); p != nil {
			r.logger().Printf("card read panicked: %v", p)
			data = Failed(fmt.Errorf("unexpected error: %v", p))
		}
	}()

	session := r.Manager.Run(ctx, lease, creds)
	if session.Authenticated {
		r.logger().Printf("session %s: %d records", session.ID, len(session.Records))
	} else {
		r.logger().Printf("session %s: %s", session.ID, session.Errors["error"])
	}
	return r.Decoder.Decode(session)
}

// ReadSession is ReadSecureCardData without decoding, for raw dumps.
// A panic during the read is returned as an error.
func (r *Reader) ReadSession(ctx context.Context, creds Credentials) (session *CardSession, err error) {
	if r == nil || r.Channel == nil {
		return nil, ErrNoDevice
	}
	lease, err := r.Channel.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring card channel: %w", err)
	}
	defer lease.Release()

	defer func() {
		if p := recover(); p != nil {
			r.logger().Printf("card read panicked: %v", p)
			session, err = nil, fmt.Errorf("unexpected error: %v", p)
		}
	}()

	return r.Manager.Run(ctx, lease, creds), nil
}

func (r *Reader) logger() *log.Logger {
	if r.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return r.Logger
}
