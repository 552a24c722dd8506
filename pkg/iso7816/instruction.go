package iso7816

import (
	"fmt"
)

// Instruction byte (INS), ISO/IEC 7816-4.
//
// In the interindustry class, bit 1 of INS selects the BER-TLV variant of a
// command (e.g. READ RECORD 'B2' vs 'B3'). Values '6X' and '9X' are reserved
// for procedure bytes and status words and are never valid instructions.

// InsCode is a typed representation of the instruction byte.
type InsCode byte

// Instruction codes issued by this module.
const (
	INS_VERIFY                InsCode = 0x20
	INS_EXTERNAL_AUTHENTICATE InsCode = 0x82
	INS_GET_CHALLENGE         InsCode = 0x84
	INS_INTERNAL_AUTHENTICATE InsCode = 0x88
	INS_SELECT                InsCode = 0xA4
	INS_READ_BINARY           InsCode = 0xB0
	INS_READ_RECORD           InsCode = 0xB2
	INS_READ_RECORD_BER       InsCode = 0xB3
	INS_GET_RESPONSE          InsCode = 0xC0
	INS_GET_DATA              InsCode = 0xCA
)

var insNames = map[InsCode]string{
	INS_VERIFY:                "INS_VERIFY",
	INS_EXTERNAL_AUTHENTICATE: "INS_EXTERNAL_AUTHENTICATE",
	INS_GET_CHALLENGE:         "INS_GET_CHALLENGE",
	INS_INTERNAL_AUTHENTICATE: "INS_INTERNAL_AUTHENTICATE",
	INS_SELECT:                "INS_SELECT",
	INS_READ_BINARY:           "INS_READ_BINARY",
	INS_READ_RECORD:           "INS_READ_RECORD",
	INS_READ_RECORD_BER:       "INS_READ_RECORD_BER",
	INS_GET_RESPONSE:          "INS_GET_RESPONSE",
	INS_GET_DATA:              "INS_GET_DATA",
}

// String returns the constant name, or "InsCode(XX)" for other values.
func (i InsCode) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("InsCode(%02X)", byte(i))
}

// Instruction represents the parsed ISO 7816-4 Instruction byte (INS).
type Instruction struct {
	Raw      InsCode
	IsBERTLV bool
}

// NewInstruction creates an Instruction, rejecting the reserved '6X' and '9X' values.
func NewInstruction(ins InsCode) (Instruction, error) {
	switch byte(ins) & 0xF0 {
	case 0x60, 0x90:
		return Instruction{}, fmt.Errorf("invalid INS 0x%02X: 6X and 9X are reserved", byte(ins))
	}

	return Instruction{
		Raw:      ins,
		IsBERTLV: bitIsSet(byte(ins), 1),
	}, nil
}

// mustInstruction is for the package's own constants, which are all valid.
func mustInstruction(ins InsCode) Instruction {
	i, err := NewInstruction(ins)
	if err != nil {
		panic(err)
	}
	return i
}

// Verbose returns a human-readable description of the instruction.
func (i Instruction) Verbose() string {
	format := "Standard"
	if i.IsBERTLV {
		format = "BER-TLV"
	}
	return fmt.Sprintf("INS: 0x%02X | Command: %s | Format: %s", byte(i.Raw), i.Raw, format)
}
