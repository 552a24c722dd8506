package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/gregLibert/sam-reader/pkg/samcard"
	"github.com/gregLibert/sam-reader/pkg/transport"
)

func cmdWatch(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dev deviceFlags
	dev.register(fs)
	var creds samcard.Credentials
	fs.StringVar(&creds.Password, "password", "", "SAM password")
	fs.IntVar(&creds.KeyIndex, "key-index", 0, "SAM key index")
	format := fs.String("format", "text", "Output format: text or json")
	debounce := fs.Duration("debounce", transport.DefaultDebounce, "Ignore insertions closer than this")
	count := fs.Int("count", 0, "Stop after this many cards (0 = run until interrupted)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 || !validFormat(*format, "text", "json") || *count < 0 {
		fmt.Fprintln(errOut, "usage: sam-reader watch [-reader <name>] [-debounce <d>] [-format text|json] [-count <n>]")
		return 2
	}

	cfg, err := dev.loadConfig()
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return 1
	}
	presence, closePresence, err := dev.presence()
	if err != nil {
		fmt.Fprintf(errOut, "watch reader: %v\n", err)
		return 1
	}
	defer closePresence()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := dev.logger(errOut)
	d := dev.open(errOut)
	defer d.Close()
	reader := samcard.NewReader(d.channel, cfg, logger)

	handled := 0
	w := &transport.Watcher{Presence: presence, Debounce: *debounce, Logger: logger}
	err = w.Run(ctx, func(ctx context.Context) error {
		if err := d.reset(ctx); err != nil {
			return err
		}
		data := reader.ReadSecureCardData(ctx, creds)

		handled++
		if *count > 0 && handled >= *count {
			cancel()
		}
		if err := writeResult(out, data, *format); err != nil {
			return err
		}
		if !data.IsAuthenticated {
			return errors.New(data.Error())
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(errOut, "watch: %v\n", err)
		return 1
	}
	return 0
}
