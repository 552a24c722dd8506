package tlv

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// DescribeFields renders the tagged fields of a struct, one "    - prefix.Field (tag): value"
// line each. Empty fields are skipped. A `fmt:"ascii"` or `fmt:"int"` tag
// adds a decoded rendering next to the hex dump.
func DescribeFields(prefix string, s any) []string {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	typ := val.Type()
	var lines []string

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := typ.Field(i)

		name := sf.Name
		if tag := sf.Tag.Get("tlv"); tag != "" && !strings.HasPrefix(tag, ",") {
			name = fmt.Sprintf("%s (%s)", name, strings.Split(tag, ",")[0])
		}

		switch {
		case isByteSlice(field):
			if field.Len() == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf("    - %s.%s: %s", prefix, name, formatBytes(field.Bytes(), sf.Tag.Get("fmt"))))

		case field.Kind() == reflect.String:
			if field.Len() == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf("    - %s.%s: %s", prefix, name, field.String()))

		case field.Type() == reflect.TypeOf([]bertlv.TLV{}):
			for _, t := range field.Interface().([]bertlv.TLV) {
				lines = append(lines, fmt.Sprintf("    - %s.Unknown Tag %s: %X", prefix, strings.ToUpper(t.Tag), t.Value))
			}
		}
	}
	return lines
}

func formatBytes(data []byte, format string) string {
	switch format {
	case "ascii":
		return fmt.Sprintf("%X (%q)", data, PrintableASCII(data))
	case "int":
		var n int
		for _, b := range data {
			n = n<<8 | int(b)
		}
		return fmt.Sprintf("%X (Dec: %d)", data, n)
	default:
		return strings.ToUpper(hex.EncodeToString(data))
	}
}

// PrintableASCII replaces every byte outside 0x20..0x7E with '.'.
func PrintableASCII(data []byte) string {
	out := make([]byte, len(data))
	for i, b := range data {
		if b < 0x20 || b > 0x7E {
			b = '.'
		}
		out[i] = b
	}
	return string(out)
}
