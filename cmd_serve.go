package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gregLibert/sam-reader/pkg/access"
	"github.com/gregLibert/sam-reader/pkg/agent"
	"github.com/gregLibert/sam-reader/pkg/samcard"
	"github.com/gregLibert/sam-reader/pkg/transport"
)

func cmdServe(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dev deviceFlags
	dev.register(fs)
	addr := fs.String("addr", ":8080", "Listen address")
	watch := fs.Bool("watch", false, "Also read every inserted card and keep it as the last result")
	debounce := fs.Duration("debounce", transport.DefaultDebounce, "Watch debounce")
	verify := fs.String("verify", "", "Verifier for /api/card/verify: exact (empty disables)")
	requireFace := fs.Bool("require-face", true, "Access policy requires a face match")
	requireFinger := fs.Bool("require-fingerprint", false, "Access policy requires a fingerprint match")
	threshold := fs.Int("threshold", access.DefaultThreshold, "Match threshold (0-100)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(errOut, "usage: sam-reader serve [-reader <name>] [-addr <host:port>] [-watch] [-verify exact]")
		return 2
	}

	var policy *access.Policy
	switch *verify {
	case "":
	case "exact":
		policy = &access.Policy{
			RequireFace:        *requireFace,
			RequireFingerprint: *requireFinger,
			Threshold:          *threshold,
			Face:               access.ExactMatch{},
			Fingerprint:        access.ExactMatch{},
		}
	default:
		fmt.Fprintf(errOut, "unknown verifier: %s\n", *verify)
		return 2
	}

	cfg, err := dev.loadConfig()
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := dev.logger(errOut)
	d := dev.open(errOut)
	defer d.Close()
	reader := samcard.NewReader(d.channel, cfg, logger)
	srv := agent.NewServer(reader, policy, logger)

	if *watch {
		presence, closePresence, err := dev.presence()
		if err != nil {
			fmt.Fprintf(errOut, "watch reader: %v\n", err)
			return 1
		}
		defer closePresence()

		w := &transport.Watcher{Presence: presence, Debounce: *debounce, Logger: logger}
		go func() {
			err := w.Run(ctx, func(ctx context.Context) error {
				if err := d.reset(ctx); err != nil {
					return err
				}
				srv.Store(reader.ReadSecureCardData(ctx, samcard.Credentials{}))
				return nil
			})
			if err != nil {
				fmt.Fprintf(errOut, "watch: %v\n", err)
				stop()
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(out, "listening on %s\n", *addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(errOut, "serve: %v\n", err)
		return 1
	}
	return 0
}
