package iso7816

import (
	"strings"
	"testing"
)

func TestStatusWord_Classification(t *testing.T) {
	tests := []struct {
		sw         StatusWord
		isSuccess  bool
		isWarning  bool
		isError    bool
		isNotFound bool
	}{
		{SW_NO_ERROR, true, false, false, false},
		{NewStatusWord(0x61, 0x10), true, false, false, false},
		{SW_WARN_EOF_REACHED, false, true, false, false},
		{NewStatusWord(0x63, 0xC2), false, true, false, false},
		{SW_ERR_WRONG_LENGTH, false, false, true, false},
		{SW_ERR_FILE_NOT_FOUND, false, false, true, true},
		{SW_ERR_RECORD_NOT_FOUND, false, false, true, true},
	}

	for _, tt := range tests {
		if got := tt.sw.IsSuccess(); got != tt.isSuccess {
			t.Errorf("SW %04X IsSuccess = %v, want %v", uint16(tt.sw), got, tt.isSuccess)
		}
		if got := tt.sw.IsWarning(); got != tt.isWarning {
			t.Errorf("SW %04X IsWarning = %v, want %v", uint16(tt.sw), got, tt.isWarning)
		}
		if got := tt.sw.IsError(); got != tt.isError {
			t.Errorf("SW %04X IsError = %v, want %v", uint16(tt.sw), got, tt.isError)
		}
		if got := tt.sw.IsNotFound(); got != tt.isNotFound {
			t.Errorf("SW %04X IsNotFound = %v, want %v", uint16(tt.sw), got, tt.isNotFound)
		}
	}
}

func TestStatusWord_Triggering(t *testing.T) {
	tests := []struct {
		sw     StatusWord
		isTrig bool
	}{
		{NewStatusWord(0x62, 0x02), true},
		{NewStatusWord(0x62, 0x80), true},
		{NewStatusWord(0x64, 0x10), true},
		{NewStatusWord(0x62, 0x01), false},
		{NewStatusWord(0x62, 0x81), false},
	}

	for _, tt := range tests {
		if got := tt.sw.IsTriggeringByCard(); got != tt.isTrig {
			t.Errorf("SW %04X IsTriggeringByCard = %v, want %v", uint16(tt.sw), got, tt.isTrig)
		}
	}
}

func TestStatusWord_Verbose(t *testing.T) {
	tests := []struct {
		sw       StatusWord
		contains string
	}{
		{NewStatusWord(0x62, 0x10), "Card expects query of 16 bytes"},
		{NewStatusWord(0x63, 0xC3), "counter = 3"},
		{NewStatusWord(0x61, 0x20), "32 bytes available"},
		{NewStatusWord(0x6C, 0x05), "correct Le is 5"},
		{SW_ERR_RECORD_NOT_FOUND, "[6A83] SW_ERR_RECORD_NOT_FOUND"},
		{NewStatusWord(0x69, 0x99), "[6999] Checking Error: Command not allowed"},
	}

	for _, tt := range tests {
		if got := tt.sw.Verbose(); !strings.Contains(got, tt.contains) {
			t.Errorf("Verbose(%04X) = %q; want containing %q", uint16(tt.sw), got, tt.contains)
		}
	}
}

func TestStatusWord_String(t *testing.T) {
	if got := SW_ERR_FILE_NOT_FOUND.String(); got != "SW_ERR_FILE_NOT_FOUND" {
		t.Errorf("String() = %q", got)
	}
	if got := StatusWord(0x6A99).String(); got != "StatusWord(6A99)" {
		t.Errorf("String() = %q", got)
	}
}
