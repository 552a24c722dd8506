package samcard

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Describe renders the result as a report:
//
//	=== SAM CARD READ ===
//	[1] Session: 7c0e... (authenticated)
//	[2] Cardholder:
//	    - cardId: SAM-0042-7781
//	...
func (d *SecureCardData) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== SAM CARD READ ===\n")

	state := "authenticated"
	if !d.IsAuthenticated {
		state = "NOT authenticated"
	}
	fmt.Fprintf(&sb, "[1] Session: %s (%s)\n", orNone(d.SessionID), state)
	if !d.IsAuthenticated {
		fmt.Fprintf(&sb, "    + Error: %s\n", d.Error())
		return strings.TrimRight(sb.String(), "\n")
	}

	if d.Application != nil {
		fmt.Fprintf(&sb, "    + Application: %s %q\n", d.Application.AID, d.Application.Label)
	}

	sb.WriteString("[2] Cardholder:\n")
	fmt.Fprintf(&sb, "    + Card ID:    %s\n", orNone(d.CardID))
	fmt.Fprintf(&sb, "    + Surname:    %s\n", orNone(d.Surname))
	fmt.Fprintf(&sb, "    + First name: %s\n", orNone(d.FirstName))
	keys := slices.Sorted(maps.Keys(d.AdditionalFields))
	for _, k := range keys {
		fmt.Fprintf(&sb, "    - %s: %s\n", k, d.AdditionalFields[k])
	}

	sb.WriteString("[3] Face:\n")
	if d.FaceImage == nil {
		sb.WriteString("    - No face image found.\n")
	} else {
		fmt.Fprintf(&sb, "    + Format: %s\n", d.FaceFormat)
		fmt.Fprintf(&sb, "    + Length: %d bytes\n", len(d.FaceImage))
		fmt.Fprintf(&sb, "    + SHA3-256: %s\n", d.FaceDigest())
	}

	sb.WriteString("[4] Fingerprints:\n")
	if len(d.Fingerprints) == 0 {
		sb.WriteString("    - No fingerprint template found.\n")
	}
	for _, f := range d.Fingerprints {
		fmt.Fprintf(&sb, "    + Finger %d: %s, %d bytes, SHA3-256 %s\n", f.FingerIndex, f.Format, len(f.Template), f.Digest())
	}

	return strings.TrimRight(sb.String(), "\n")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
