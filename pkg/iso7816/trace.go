package iso7816

import (
	"fmt"
	"strings"
)

// A Transaction is one C-APDU and the R-APDU it produced. A Trace is the
// ordered list of transactions needed to complete one logical command
// (the command itself plus any GET RESPONSE or Le correction).

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess checks if the transaction ended with a successful status.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace, or nil when empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess reports whether the final transaction succeeded.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Status returns the final status word, or 0 for an empty trace.
func (t Trace) Status() StatusWord {
	last := t.Last()
	if last == nil || last.Response == nil {
		return 0
	}
	return last.Response.Status
}

// Data returns the data field of the final response.
func (t Trace) Data() []byte {
	last := t.Last()
	if last == nil || last.Response == nil {
		return nil
	}
	return last.Response.Data
}

// Describe renders one line per exchange, e.g.
//
//	[1] INS_READ_RECORD P1=01 P2=0C -> [9000] SW_NO_ERROR (12 bytes)
func (t Trace) Describe() string {
	lines := make([]string, 0, len(t))
	for i, tx := range t {
		line := fmt.Sprintf("[%d] %s P1=%02X P2=%02X", i+1, tx.Command.Instruction.Raw, tx.Command.P1, tx.Command.P2)
		if tx.Response == nil {
			lines = append(lines, line+" -> no response")
			continue
		}
		line += " -> " + tx.Response.Status.Verbose()
		if n := len(tx.Response.Data); n > 0 {
			line += fmt.Sprintf(" (%d bytes)", n)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
