package iso7816

import (
	"testing"
)

func TestNewClass(t *testing.T) {
	tests := []struct {
		name    string
		cla     byte
		wantErr bool
		check   func(Class) bool
	}{
		{
			name:    "Reserved FF",
			cla:     0xFF,
			wantErr: true,
		},
		{
			name: "First Interindustry - Ch 0, No SM",
			cla:  0b0_0_00_0_00,
			check: func(c Class) bool {
				return !c.IsProprietary && c.Channel == 0 && c.SecureMessaging == SMNone
			},
		},
		{
			name: "First Interindustry - Ch 3, Chaining, SM Auth",
			cla:  0b000_1_11_11,
			check: func(c Class) bool {
				return c.IsChained && c.Channel == 3 && c.SecureMessaging == SMHeaderAuth
			},
		},
		{
			name: "Further Interindustry - Ch 19, SM, Chaining",
			cla:  0b0_1_1_1_1111,
			check: func(c Class) bool {
				return c.IsChained && c.Channel == 19 && c.SecureMessaging == SMHeaderNoProc
			},
		},
		{
			name: "Proprietary Class",
			cla:  0x80,
			check: func(c Class) bool {
				return c.IsProprietary
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClass(tt.cla)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClass() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !tt.check(c) {
				t.Errorf("NewClass(%08b) failed validation: %+v", tt.cla, c)
			}
		})
	}
}

func TestClass_Encode_RoundTrip(t *testing.T) {
	for _, cla := range []byte{
		0b0_0_00_0_00,
		0b000_1_11_11,
		0b0_1_0_0_0000,
		0b0_1_1_1_1111,
		0x84,
	} {
		c, err := NewClass(cla)
		if err != nil {
			t.Fatalf("NewClass(%08b): %v", cla, err)
		}
		got, err := c.Encode()
		if err != nil {
			t.Fatalf("Encode(%+v): %v", c, err)
		}
		if got != cla {
			t.Errorf("Round-trip mismatch: got %08b, want %08b", got, cla)
		}
	}
}

func TestClass_EncodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		cls  Class
	}{
		{"Channel out of range", Class{Channel: 20}},
		{"SM Auth on further interindustry", Class{Channel: 5, SecureMessaging: SMHeaderAuth}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cls.Encode(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
