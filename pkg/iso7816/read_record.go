package iso7816

import (
	"fmt"
)

// READ RECORD (INS 'B2'), ISO/IEC 7816-4 §11.3.3.
//
// P1 is a record number or identifier depending on P2.
// P2 b8-b4 is the short file identifier (0 = current EF) and b3-b1 the mode:
// with b3 = 1, P1 is a record number and '100' reads that single record.

// ReadRecordMode is P2 b3-b1.
type ReadRecordMode byte

const (
	RefByNum_ReadP1        ReadRecordMode = 0b100
	RefByNum_ReadAllFromP1 ReadRecordMode = 0b101
)

func (m ReadRecordMode) String() string {
	switch m {
	case RefByNum_ReadP1:
		return "Ref Num: Read Record P1"
	case RefByNum_ReadAllFromP1:
		return "Ref Num: Read All from P1"
	default:
		return fmt.Sprintf("Unknown Mode (0x%X)", byte(m))
	}
}

// MaxSFI is the largest short file identifier encodable in P2.
const MaxSFI = 30

// ReadRecordP2 packs an SFI and a mode into P2: (sfi << 3) | mode.
func ReadRecordP2(sfi byte, mode ReadRecordMode) byte {
	return withBitRange(withBitRange(0, 3, 1, byte(mode)), 8, 4, sfi)
}

// SFIFromP2 recovers the short file identifier from a READ RECORD P2.
func SFIFromP2(p2 byte) byte {
	return bitRange(p2, 8, 4)
}

// NewReadRecordCommand creates a READ RECORD command.
// It is a case 2 command, so Le is always present ('00' = up to 256 bytes).
func NewReadRecordCommand(cla Class, sfi byte, p1 byte, mode ReadRecordMode) *CommandAPDU {
	return NewCommandAPDU(cla, mustInstruction(INS_READ_RECORD), p1, ReadRecordP2(sfi, mode), nil, MaxShortLe)
}

// ReadRecord builds `00 B2 <record> <(sfi<<3)|04> 00`.
func ReadRecord(cla Class, sfi byte, recordNumber byte) *CommandAPDU {
	return NewReadRecordCommand(cla, sfi, recordNumber, RefByNum_ReadP1)
}
