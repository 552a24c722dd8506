package iso7816

import (
	"context"
	"fmt"
)

// The Client drives one logical command over a Transmitter and absorbs the
// two ISO 7816-3 transport procedures that T=0 cards push up to the host:
//
//   - '61XX': XX bytes are waiting. A GET RESPONSE with Le=XX is issued on
//     the same logical channel.
//   - '6CXX': Le was wrong. The original command is re-issued with Le=XX.
//
// Every physical exchange is appended to the returned Trace, so the caller
// can judge the logical outcome from Trace.Last(). Exchange skips both
// procedures for commands that must never be sent twice.

// maxProcedureSteps bounds the GET RESPONSE / re-issue chain of a single command.
const maxProcedureSteps = 16

// Transmitter abstracts the physical card connection. The response always
// ends with SW1 SW2. *scard.Card satisfies it.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the high-level communication with the card.
type Client struct {
	Card Transmitter
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card}
}

// Send transmits cmd and follows 61XX / 6CXX procedures.
// The context is checked before every physical exchange.
func (c *Client) Send(ctx context.Context, cmd *CommandAPDU) (Trace, error) {
	var trace Trace
	wrongLengthRetried := false

	for step := 0; ; step++ {
		if step >= maxProcedureSteps {
			return trace, fmt.Errorf("procedure chain exceeded %d steps", maxProcedureSteps)
		}

		resp, err := c.transmit(ctx, cmd)
		if err != nil {
			return trace, err
		}
		trace = append(trace, Transaction{Command: cmd, Response: resp})

		sw1, sw2 := resp.Status.SW1(), resp.Status.SW2()
		switch {
		case sw1 == 0x61:
			respCls := cmd.Class
			respCls.IsChained = false
			ne := int(sw2)
			if ne == 0 {
				ne = MaxShortLe
			}
			cmd = NewCommandAPDU(respCls, mustInstruction(INS_GET_RESPONSE), 0x00, 0x00, nil, ne)

		case sw1 == 0x6C && !wrongLengthRetried:
			wrongLengthRetried = true
			reissued := *cmd
			reissued.Ne = int(sw2)
			if reissued.Ne == 0 {
				reissued.Ne = MaxShortLe
			}
			cmd = &reissued

		default:
			return trace, nil
		}
	}
}

// Exchange transmits cmd exactly once. A '61XX' or '6CXX' answer is returned
// as is, in a one-transaction Trace.
func (c *Client) Exchange(ctx context.Context, cmd *CommandAPDU) (Trace, error) {
	resp, err := c.transmit(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return Trace{{Command: cmd, Response: resp}}, nil
}

func (c *Client) transmit(ctx context.Context, cmd *CommandAPDU) (*ResponseAPDU, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	rawResp, err := c.Card.Transmit(raw)
	if err != nil {
		return nil, fmt.Errorf("transmission error: %w", err)
	}

	return ParseResponseAPDU(rawResp)
}
