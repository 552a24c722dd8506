// Package transport binds physical card channels to iso7816.Transmitter and
// enforces single ownership of a channel.
//
// Every binding exposes one operation, Transmit(command) -> response, where
// the response always ends with SW1 SW2. Errors from the device are returned
// unchanged (wrapped) and never retried here.
package transport

import (
	"github.com/gregLibert/sam-reader/pkg/iso7816"
)

// TransmitterFunc adapts a plain function to iso7816.Transmitter.
type TransmitterFunc func(cmd []byte) ([]byte, error)

// Transmit calls f(cmd).
func (f TransmitterFunc) Transmit(cmd []byte) ([]byte, error) {
	return f(cmd)
}

var _ iso7816.Transmitter = TransmitterFunc(nil)
