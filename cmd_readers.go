package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/gregLibert/sam-reader/pkg/transport"
)

func cmdReaders(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("readers", flag.ContinueOnError)
	fs.SetOutput(errOut)
	simulate := fs.Bool("simulate", false, "List the virtual reader only")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *simulate {
		fmt.Fprintln(out, "Virtual SAM reader (simulated)")
		return 0
	}

	readers, err := transport.ListReaders()
	if err != nil {
		fmt.Fprintf(errOut, "list readers: %v\n", err)
		return 1
	}
	if len(readers) == 0 {
		fmt.Fprintln(errOut, transport.ErrNoReader)
		return 1
	}
	for _, r := range readers {
		fmt.Fprintln(out, r)
	}
	return 0
}
