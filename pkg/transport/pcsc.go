package transport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ebfe/scard"
)

// ErrNoReader is returned when PC/SC reports no reader, or none matches.
var ErrNoReader = errors.New("no smart card reader found")

// PCSC is a card connection through the platform PC/SC stack.
type PCSC struct {
	Reader string

	ctx  *scard.Context
	card *scard.Card
}

// ListReaders returns the names of the readers known to PC/SC.
func ListReaders() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establishing context: %w", err)
	}
	defer ctx.Release()

	readers, err := ctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("listing readers: %w", err)
	}
	return readers, nil
}

// pickReader returns the first reader whose name contains want,
// or the first reader at all when want is empty.
func pickReader(readers []string, want string) (string, error) {
	for _, r := range readers {
		if want == "" || strings.Contains(strings.ToLower(r), strings.ToLower(want)) {
			return r, nil
		}
	}
	if want == "" {
		return "", ErrNoReader
	}
	return "", fmt.Errorf("%w: no reader matches %q", ErrNoReader, want)
}

// DialPCSC connects to the card in the selected reader (see pickReader).
func DialPCSC(reader string) (*PCSC, error) {
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

	// T=0 or T=1 only, ProtocolAny trips some drivers ("Parameter Incorrect").
	card, err := ctx.Connect(name, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("connecting to %q: %w", name, err)
	}

	return &PCSC{Reader: name, ctx: ctx, card: card}, nil
}

// Transmit sends one raw APDU.
func (p *PCSC) Transmit(cmd []byte) ([]byte, error) {
	resp, err := p.card.Transmit(cmd)
	if err != nil {
		return nil, fmt.Errorf("pcsc transmit on %q: %w", p.Reader, err)
	}
	return resp, nil
}

// Close disconnects the card (leaving it powered) and releases the context.
func (p *PCSC) Close() error {
	var errs []error
	if p.card != nil {
		if err := p.card.Disconnect(scard.LeaveCard); err != nil {
			errs = append(errs, fmt.Errorf("disconnect: %w", err))
		}
	}
	if p.ctx != nil {
		if err := p.ctx.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release context: %w", err))
		}
	}
	return errors.Join(errs...)
}
