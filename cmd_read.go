package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/gregLibert/sam-reader/pkg/samcard"
)

func cmdRead(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("read", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dev deviceFlags
	dev.register(fs)
	var creds samcard.Credentials
	fs.StringVar(&creds.Password, "password", "", "SAM password")
	fs.IntVar(&creds.KeyIndex, "key-index", 0, "SAM key index")
	format := fs.String("format", "text", "Output format: text, json or cbor")
	facePath := fs.String("face", "", "Write the face image to this file")
	dump := fs.Bool("dump", false, "Dump the raw card session to stderr")
	timeout := fs.Duration("timeout", 0, "Give up after this long (0 = no limit)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 || !validFormat(*format, "text", "json", "cbor") {
		fmt.Fprintln(errOut, "usage: sam-reader read [-reader <name>] [-format text|json|cbor] [-face <file>] [-dump]")
		return 2
	}

	cfg, err := dev.loadConfig()
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if *timeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, *timeout)
		defer stop()
	}

	d := dev.open(errOut)
	defer d.Close()
	reader := samcard.NewReader(d.channel, cfg, dev.logger(errOut))

	var data *samcard.SecureCardData
	if *dump {
		data = readAndDump(ctx, reader, creds, errOut)
	} else {
		data = reader.ReadSecureCardData(ctx, creds)
	}

	if *facePath != "" {
		if data.FaceImage == nil {
			fmt.Fprintln(errOut, "no face image on card, -face ignored")
		} else if err := os.WriteFile(*facePath, data.FaceImage, 0o600); err != nil {
			fmt.Fprintf(errOut, "write face: %v\n", err)
			return 1
		}
	}

	if err := writeResult(out, data, *format); err != nil {
		fmt.Fprintf(errOut, "write result: %v\n", err)
		return 1
	}
	if !data.IsAuthenticated {
		return 1
	}
	return 0
}

func readAndDump(ctx context.Context, reader *samcard.Reader, creds samcard.Credentials, errOut io.Writer) *samcard.SecureCardData {
	start := time.Now()
	session, err := reader.ReadSession(ctx, creds)
	if err != nil {
		return samcard.Failed(err)
	}
	fmt.Fprintf(errOut, "session read in %s:\n", time.Since(start).Round(time.Millisecond))
	spew.Fdump(errOut, session)
	return reader.Decoder.Decode(session)
}
