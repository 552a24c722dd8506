package samcard

import (
	"context"
	"io"
	"log"
)

// Enumerator reads the configured record files into the current session and
// returns how many records it collected.
type Enumerator interface {
	Enumerate(ctx context.Context) (int, error)
}

// Authenticator decides whether a selected card may be read, and reads it.
// A strategy performing a real SAM challenge/response would run its
// exchanges first and call Enumerate on success.
type Authenticator interface {
	Name() string
	Authenticate(ctx context.Context, card Enumerator, creds Credentials) (bool, error)
}

// NoAuthEnumeration performs no cryptographic authentication. The card counts
// as authenticated when plain enumeration returns at least one record.
// Credentials are logged by key index only and otherwise unused.
type NoAuthEnumeration struct {
	Logger *log.Logger
}

// Name implements Authenticator.
func (NoAuthEnumeration) Name() string { return "NoAuthEnumeration" }

// Authenticate implements Authenticator.
func (a NoAuthEnumeration) Authenticate(ctx context.Context, card Enumerator, creds Credentials) (bool, error) {
	logger := a.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logger.Printf("no SAM challenge/response available, enumerating without authentication (key index %d)", creds.KeyIndex)

	n, err := card.Enumerate(ctx)
	return n > 0, err
}
