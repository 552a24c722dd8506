// Command sam-reader reads SAM ID cards through PC/SC.
//
//	sam-reader readers
//	sam-reader read  [-reader name] [-format text|json|cbor] [-face out.jpg]
//	sam-reader watch [-reader name] [-debounce 1s]
//	sam-reader serve [-reader name] [-addr :8080] [-watch]
//
// Every command accepts -simulate to run against a built-in virtual card.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "readers":
		return cmdReaders(args[1:], out, errOut)
	case "read":
		return cmdRead(args[1:], out, errOut)
	case "watch":
		return cmdWatch(args[1:], out, errOut)
	case "serve":
		return cmdServe(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "sam-reader: SAM ID card reader")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  sam-reader readers [-simulate]")
	fmt.Fprintln(w, "  sam-reader read [-reader <name>] [-password <pw>] [-key-index <n>] [-format text|json|cbor] [-face <file>] [-dump]")
	fmt.Fprintln(w, "  sam-reader watch [-reader <name>] [-debounce <d>] [-format text|json] [-count <n>]")
	fmt.Fprintln(w, "  sam-reader serve [-reader <name>] [-addr <host:port>] [-watch] [-verify exact]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common flags:")
	fmt.Fprintln(w, "  -config <file>   JSON reader configuration (defaults: SFIs 1-6, 20 records, 3 failures)")
	fmt.Fprintln(w, "  -face-only       skip fingerprint decoding (SFIs 1-5)")
	fmt.Fprintln(w, "  -simulate        use the built-in virtual card instead of PC/SC")
	fmt.Fprintln(w, "  -trace           log every APDU exchange to stderr")
	fmt.Fprintln(w, "  -v               log session progress to stderr")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - read exits 1 when the card could not be read; the result is still printed")
	fmt.Fprintln(w, "  - -format cbor writes deterministic CBOR bytes to stdout")
}
