package samcard

import (
	"bytes"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// TemplateFormat names the encoding of a fingerprint template.
type TemplateFormat string

const (
	FormatISO19794_2 TemplateFormat = "ISO_19794_2"
	FormatANSI378    TemplateFormat = "ANSI_378"
	FormatWSQ        TemplateFormat = "WSQ"
	FormatRaw        TemplateFormat = "RAW"
	FormatUnknown    TemplateFormat = "UNKNOWN"
)

// Size limits of the template heuristics.
const (
	isoMaxTemplate  = 2000
	ansiMinHeader   = 26
	ansiMinTemplate = 100
	ansiMaxTemplate = 5000
	rawMinTemplate  = 100
	rawMaxTemplate  = 10000
)

// fingerIndexBase is subtracted from the SFI to number fingers from 1.
const fingerIndexBase = 3

var (
	isoMarker = []byte{'F', 'M', 'R', 0x00}
	isoPrefix = []byte{'F', 'M', 'R'}
	wsqSOI    = []byte{0xFF, 0xA0}
)

// FingerprintRecord is one template read from the card.
type FingerprintRecord struct {
	Template    []byte         `json:"template"`
	FingerIndex int            `json:"fingerIndex"`
	Format      TemplateFormat `json:"format"`
}

// Equal compares template bytes only.
func (f FingerprintRecord) Equal(o FingerprintRecord) bool {
	return bytes.Equal(f.Template, o.Template)
}

// Digest is the hex SHA3-256 of the template.
func (f FingerprintRecord) Digest() string {
	return digest(f.Template)
}

func digest(b []byte) string {
	sum := sha3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// FindISOTemplate looks for an ISO/IEC 19794-2 record: the "FMR\0" marker
// anywhere (at most 2000 bytes kept), or a buffer starting with "FMR".
func FindISOTemplate(buf []byte) (Span, bool) {
	if off := bytes.Index(buf, isoMarker); off >= 0 {
		return Span{Start: off, End: min(off+isoMaxTemplate, len(buf))}, true
	}
	if bytes.HasPrefix(buf, isoPrefix) {
		return Span{End: len(buf)}, true
	}
	return Span{}, false
}

// FindANSITemplate accepts a whole buffer of 100 to 5000 bytes whose first
// byte is 0x00 or 0x01.
func FindANSITemplate(buf []byte) (Span, bool) {
	if looksANSI(buf) {
		return Span{End: len(buf)}, true
	}
	return Span{}, false
}

func looksANSI(buf []byte) bool {
	n := len(buf)
	return n >= ansiMinHeader && n >= ansiMinTemplate && n <= ansiMaxTemplate &&
		(buf[0] == 0x00 || buf[0] == 0x01)
}

// FindWSQ accepts a whole buffer starting with the WSQ SOI marker FF A0.
func FindWSQ(buf []byte) (Span, bool) {
	if bytes.HasPrefix(buf, wsqSOI) {
		return Span{End: len(buf)}, true
	}
	return Span{}, false
}

// FindRawTemplate accepts any whole buffer of 100 to 10000 bytes.
func FindRawTemplate(buf []byte) (Span, bool) {
	if n := len(buf); n >= rawMinTemplate && n <= rawMaxTemplate {
		return Span{End: n}, true
	}
	return Span{}, false
}

// templateFinders is the extraction priority.
var templateFinders = []func([]byte) (Span, bool){
	FindISOTemplate,
	FindANSITemplate,
	FindWSQ,
	FindRawTemplate,
}

// ExtractTemplate returns a copy of the first template found, trying ISO,
// ANSI, WSQ then raw.
func ExtractTemplate(buf []byte) ([]byte, bool) {
	if len(buf) == 0 {
		return nil, false
	}
	for _, find := range templateFinders {
		if sp, ok := find(buf); ok {
			return bytes.Clone(buf[sp.Start:sp.End]), true
		}
	}
	return nil, false
}

// ClassifyTemplate names the format of an extracted template. Signatures
// are checked in the order ISO, WSQ, ANSI. Anything else is RAW.
func ClassifyTemplate(t []byte) TemplateFormat {
	switch {
	case len(t) == 0:
		return FormatUnknown
	case bytes.HasPrefix(t, isoPrefix):
		return FormatISO19794_2
	case bytes.HasPrefix(t, wsqSOI):
		return FormatWSQ
	case looksANSI(t):
		return FormatANSI378
	default:
		return FormatRaw
	}
}

// FingerIndex numbers fingers from the SFI they were read from (4 -> 1).
func FingerIndex(sfi int) int {
	return sfi - fingerIndexBase
}
