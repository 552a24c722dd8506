package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"slices"

	"github.com/gregLibert/sam-reader/pkg/cardsim"
	"github.com/gregLibert/sam-reader/pkg/iso7816"
	"github.com/gregLibert/sam-reader/pkg/samcard"
	"github.com/gregLibert/sam-reader/pkg/transport"
)

// deviceFlags are shared by every command that talks to a card.
type deviceFlags struct {
	reader   string
	config   string
	faceOnly bool
	simulate bool
	trace    bool
	verbose  bool
}

func (d *deviceFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&d.reader, "reader", "", "Reader name (substring match, default first reader)")
	fs.StringVar(&d.config, "config", "", "JSON configuration file")
	fs.BoolVar(&d.faceOnly, "face-only", false, "Skip fingerprint decoding")
	fs.BoolVar(&d.simulate, "simulate", false, "Use the built-in virtual card")
	fs.BoolVar(&d.trace, "trace", false, "Log APDU exchanges")
	fs.BoolVar(&d.verbose, "v", false, "Log session progress")
}

func (d *deviceFlags) loadConfig() (samcard.Config, error) {
	if d.config != "" {
		cfg, err := samcard.LoadConfig(d.config)
		if err != nil {
			return cfg, err
		}
		if d.faceOnly {
			cfg.Capabilities.Fingerprints = false
		}
		return cfg, nil
	}
	if d.faceOnly {
		return samcard.FaceOnlyConfig(), nil
	}
	return samcard.DefaultConfig(), nil
}

// device is an open reader: a Channel over a Redialer, so a new card is
// reached after Reset.
type device struct {
	channel  *transport.Channel
	redialer *transport.Redialer
	sim      *cardsim.Card
}

func (d *deviceFlags) open(errOut io.Writer) *device {
	dev := &device{}

	dial := func() (iso7816.Transmitter, error) {
		return transport.DialPCSC(d.reader)
	}
	if d.simulate {
		dev.sim = cardsim.Demo()
		dial = func() (iso7816.Transmitter, error) {
			return dev.sim, nil
		}
	}
	dev.redialer = transport.NewRedialer(dial)

	var tx iso7816.Transmitter = dev.redialer
	if d.trace {
		tx = transport.NewLogged(tx, log.New(errOut, "apdu ", log.Lmicroseconds))
	}
	dev.channel = transport.NewChannel(tx)
	return dev
}

func (d *deviceFlags) logger(errOut io.Writer) *log.Logger {
	if !d.verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(errOut, "", log.LstdFlags)
}

func (dev *device) Close() error {
	return dev.channel.Close()
}

// reset makes the next read dial the card again. It waits for the current
// read, if any, to finish.
func (dev *device) reset(ctx context.Context) error {
	lease, err := dev.channel.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()
	return dev.redialer.Reset()
}

// presence watches the configured reader. The virtual reader starts with a
// card inserted.
func (d *deviceFlags) presence() (transport.Presence, func(), error) {
	if d.simulate {
		slot := cardsim.NewSlot()
		slot.Insert()
		return slot, func() {}, nil
	}
	p, err := transport.NewPCSCPresence(d.reader)
	if err != nil {
		return nil, nil, err
	}
	return p, func() { p.Close() }, nil
}

func writeResult(w io.Writer, d *samcard.SecureCardData, format string) error {
	switch format {
	case "text":
		_, err := fmt.Fprintln(w, d.Describe())
		return err
	case "json":
		b, err := samcard.EncodeJSON(d)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	case "cbor":
		b, err := samcard.EncodeCBOR(d)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func validFormat(format string, allowed ...string) bool {
	return slices.Contains(allowed, format)
}
