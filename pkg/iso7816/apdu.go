package iso7816

import (
	"bytes"
	"fmt"
)

// APDU encodings according to ISO/IEC 7816-3 and 7816-4.
//
// A C-APDU is a 4 byte header (CLA INS P1 P2) optionally followed by
// Lc + data and/or Le. Lc and Le use the short form (1 byte) unless
// Nc > 255 or Ne > 256, in which case the extended form is used for both.
//
// An R-APDU is an optional data field followed by the 2 byte status word.
// Every response handled by this package ends with SW1 SW2, so the status
// word is always read from the last two bytes.

// APDU length limits.
const (
	// MaxShortLc is the largest Nc encodable on one byte.
	MaxShortLc = 255

	// MaxShortLe is the largest Ne encodable on one byte ('00' means 256).
	MaxShortLe = 256

	// MaxExtendedLc is the largest Nc encodable on two bytes.
	MaxExtendedLc = 65535

	// MaxExtendedLe is the largest Ne encodable on two bytes ('0000' means 65536).
	MaxExtendedLe = 65536
)

// CommandAPDU represents a command sent to the card.
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int // Expected response length (0 means none)
}

// NewCommandAPDU creates a basic command.
func NewCommandAPDU(cla Class, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// Bytes encodes the command, choosing short or extended length fields.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc := len(c.Data)
	if nc > MaxExtendedLc {
		return nil, fmt.Errorf("data field too long: %d bytes", nc)
	}
	if c.Ne < 0 || c.Ne > MaxExtendedLe {
		return nil, fmt.Errorf("invalid expected length: %d", c.Ne)
	}

	cla, err := c.Class.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode Class: %w", err)
	}

	buf := bytes.NewBuffer(make([]byte, 0, 4+3+nc+3))
	buf.Write([]byte{cla, byte(c.Instruction.Raw), c.P1, c.P2})

	extended := nc > MaxShortLc || c.Ne > MaxShortLe

	if nc > 0 {
		if extended {
			buf.Write([]byte{0x00, byte(nc >> 8), byte(nc)})
		} else {
			buf.WriteByte(byte(nc))
		}
		buf.Write(c.Data)
	}

	if c.Ne > 0 {
		switch {
		case !extended:
			// 256 wraps to '00'
			buf.WriteByte(byte(c.Ne))
		default:
			if nc == 0 {
				buf.WriteByte(0x00)
			}
			// 65536 wraps to '0000'
			buf.Write([]byte{byte(c.Ne >> 8), byte(c.Ne)})
		}
	}

	return buf.Bytes(), nil
}

// String returns a readable representation of the command meta-data.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Instruction.Verbose(), c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU splits a raw response into its data field and status word.
// The input must contain at least SW1 and SW2. The returned Data aliases raw.
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("response too short: length %d", len(raw))
	}

	n := len(raw) - 2
	return &ResponseAPDU{
		Data:   raw[:n],
		Status: NewStatusWord(raw[n], raw[n+1]),
	}, nil
}

// StatusWordOf reads the trailing status word of a raw response.
// Responses shorter than two bytes yield 0.
func StatusWordOf(raw []byte) StatusWord {
	if len(raw) < 2 {
		return 0
	}
	return NewStatusWord(raw[len(raw)-2], raw[len(raw)-1])
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
