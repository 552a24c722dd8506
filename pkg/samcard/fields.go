package samcard

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gregLibert/sam-reader/pkg/tlv"
)

// Cardholder field names, keyed by the byte following 'DF'.
var fieldNames = map[byte]string{
	0x01: "firstName",
	0x02: "surname",
	0x03: "middleName",
	0x04: "nationality",
	0x05: "dob",
	0x06: "gender",
	0x07: "height",
	0x08: "address",
	0x09: "documentNumber",
	0x0A: "cardId",
	0x0B: "issueDate",
	0x0C: "expiryDate",
	0x0D: "documentType",
}

// FieldName maps a tag id to its field name, or "unknownTag_DFxx".
func FieldName(id byte) string {
	if name, ok := fieldNames[id]; ok {
		return name
	}
	return fmt.Sprintf("unknownTag_DF%02X", id)
}

// ParseCardholder decodes 'DF xx' fields into a name/value map.
// A later field overwrites an earlier one with the same name. A truncated
// field ends the scan and keeps what was read before it. When any of
// surname, firstName, middleName is non-empty, "name" holds them in that
// order, space separated.
func ParseCardholder(payload []byte) map[string]string {
	fields := make(map[string]string)
	tlv.EachPrivateField(payload, func(id byte, value []byte) {
		fields[FieldName(id)] = cleanValue(value)
	})

	var parts []string
	for _, key := range []string{"surname", "firstName", "middleName"} {
		if v := fields[key]; v != "" {
			parts = append(parts, v)
		}
	}
	if name := strings.TrimSpace(strings.Join(parts, " ")); name != "" {
		fields["name"] = name
	}
	return fields
}

// cleanValue decodes UTF-8, trims whitespace and drops NUL characters.
func cleanValue(v []byte) string {
	s := string(v)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), "\x00", "")
	return strings.TrimSpace(s)
}
