package iso7816

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/gregLibert/sam-reader/pkg/tlv"
)

func TestNewReadRecordCommand(t *testing.T) {
	cls, _ := NewClass(0x00)

	tests := []struct {
		name     string
		cmd      *CommandAPDU
		expected []byte
	}{
		{
			name: "Record 1 of SFI 1",
			cmd:  ReadRecord(cls, 1, 1),
			expected: tlv.Hex(
				"00 B2 01 0C", // P2 = (1<<3)|4
				"00",          // Le=256
			),
		},
		{
			name:     "Record 20 of SFI 6",
			cmd:      ReadRecord(cls, 6, 20),
			expected: tlv.Hex("00 B2 14 34 00"),
		},
		{
			name:     "Record 5 of current EF",
			cmd:      ReadRecord(cls, 0, 5),
			expected: tlv.Hex("00 B2 05 04 00"),
		},
		{
			name:     "Read all from record 1 of SFI 2",
			cmd:      NewReadRecordCommand(cls, 2, 1, RefByNum_ReadAllFromP1),
			expected: tlv.Hex("00 B2 01 15 00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Bytes()
			if err != nil {
				t.Fatalf("Failed to encode bytes: %v", err)
			}

			if !bytes.Equal(got, tt.expected) {
				t.Errorf("Mismatch:\nExpected: %s\nGot:      %s",
					hex.EncodeToString(tt.expected),
					hex.EncodeToString(got))
			}
		})
	}
}

func TestReadRecordP2_RoundTrip(t *testing.T) {
	for sfi := byte(1); sfi <= MaxSFI; sfi++ {
		p2 := ReadRecordP2(sfi, RefByNum_ReadP1)
		if p2 != sfi<<3|0x04 {
			t.Errorf("ReadRecordP2(%d) = %02X, want %02X", sfi, p2, sfi<<3|0x04)
		}
		if got := SFIFromP2(p2); got != sfi {
			t.Errorf("SFIFromP2(%02X) = %d, want %d", p2, got, sfi)
		}
	}
}

func TestReadRecordMode_String(t *testing.T) {
	if got := RefByNum_ReadP1.String(); got != "Ref Num: Read Record P1" {
		t.Errorf("got %q", got)
	}
	if got := ReadRecordMode(0x07).String(); got != "Unknown Mode (0x7)" {
		t.Errorf("got %q", got)
	}
}
