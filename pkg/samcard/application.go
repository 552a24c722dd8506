package samcard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gregLibert/sam-reader/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// Application is the part of the SELECT response FCI worth keeping.
type Application struct {
	AID                string `json:"aid"`
	Label              string `json:"label,omitempty"`
	Priority           int    `json:"priority,omitempty"`
	LanguagePreference string `json:"languagePreference,omitempty"`
}

// fciTemplate is the FCI ('6F') layout of an application SELECT.
type fciTemplate struct {
	DFName      []byte         `tlv:"84"`
	Proprietary fciProprietary `tlv:"A5"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

type fciProprietary struct {
	Label              []byte `tlv:"50" fmt:"ascii"`
	PriorityIndicator  []byte `tlv:"87" fmt:"int"`
	LanguagePreference []byte `tlv:"5F2D" fmt:"ascii"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseApplication decodes an FCI, with or without its '6F' wrapper.
func ParseApplication(data []byte) (*Application, error) {
	if len(data) == 0 {
		return nil, errors.New("empty FCI")
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}
	if len(packets) > 0 && strings.EqualFold(packets[0].Tag, "6F") {
		packets = packets[0].TLVs
	}

	var fci fciTemplate
	if err := tlv.UnmarshalFromPackets(packets, &fci); err != nil {
		return nil, fmt.Errorf("failed to map FCI: %w", err)
	}
	if len(fci.DFName) == 0 {
		return nil, errors.New("FCI carries no DF name")
	}

	app := &Application{
		AID:                fmt.Sprintf("%X", fci.DFName),
		Label:              strings.TrimSpace(tlv.PrintableASCII(fci.Proprietary.Label)),
		LanguagePreference: tlv.PrintableASCII(fci.Proprietary.LanguagePreference),
	}
	// Priority indicator b4-b1 is the priority, 0 meaning none.
	if p := fci.Proprietary.PriorityIndicator; len(p) == 1 {
		app.Priority = int(p[0] & 0x0F)
	}
	return app, nil
}

// Describe lists the decoded FCI fields.
func (a *Application) Describe() string {
	if a == nil {
		return ""
	}
	lines := []string{"=== APPLICATION ==="}
	lines = append(lines, "    - AID: "+a.AID)
	if a.Label != "" {
		lines = append(lines, fmt.Sprintf("    - Label: %q", a.Label))
	}
	if a.Priority != 0 {
		lines = append(lines, fmt.Sprintf("    - Priority: %d", a.Priority))
	}
	if a.LanguagePreference != "" {
		lines = append(lines, "    - Languages: "+a.LanguagePreference)
	}
	return strings.Join(lines, "\n")
}

// describeFCI dumps every tag of a raw FCI, known or not, for trace output.
func describeFCI(data []byte) []string {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return []string{"    - undecodable FCI: " + err.Error()}
	}
	if len(packets) > 0 && strings.EqualFold(packets[0].Tag, "6F") {
		packets = packets[0].TLVs
	}
	var fci fciTemplate
	if err := tlv.UnmarshalFromPackets(packets, &fci); err != nil {
		return []string{"    - unmappable FCI: " + err.Error()}
	}
	lines := tlv.DescribeFields("FCI", &fci)
	return append(lines, tlv.DescribeFields("Proprietary", &fci.Proprietary)...)
}
