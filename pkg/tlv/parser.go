// Package tlv maps BER-TLV payloads onto Go structs and walks the flat
// private-class 'DF xx' fields used by SAM cardholder records.
package tlv

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Unmarshaler allows custom types to implement their own TLV parsing logic.
type Unmarshaler interface {
	UnmarshalTLV(data []byte) error
}

// fieldSpec is the parsed form of a `tlv:"<tag>[,ascii]"` struct tag.
// A field named Unknown, or tagged `tlv:",unknown"`, collects leftovers.
type fieldSpec struct {
	tag     string
	ascii   bool
	unknown bool
}

func specOf(sf reflect.StructField) (fieldSpec, bool) {
	raw, ok := sf.Tag.Lookup("tlv")
	if sf.Name == "Unknown" {
		return fieldSpec{unknown: true}, true
	}
	if !ok || raw == "" {
		return fieldSpec{}, false
	}

	parts := strings.Split(raw, ",")
	spec := fieldSpec{tag: strings.ToUpper(parts[0])}
	for _, opt := range parts[1:] {
		switch opt {
		case "ascii":
			spec.ascii = true
		case "unknown":
			spec.unknown = true
		}
	}
	return spec, true
}

// Unmarshal parses raw BER-TLV data and maps it into a target Go struct.
func Unmarshal(data []byte, target any) error {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return fmt.Errorf("bertlv decode failed: %w", err)
	}
	return UnmarshalFromPackets(packets, target)
}

// UnmarshalFromPackets maps pre-decoded packets onto target.
// Repeated tags append to slice fields. Unclaimed packets land in the
// Unknown field when the struct has one.
func UnmarshalFromPackets(packets []bertlv.TLV, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer, got %T", target)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("target must point to a struct, got %T", target)
	}
	t := v.Type()

	claimed := make([]bool, len(packets))
	unknownIdx := -1

	for i := 0; i < v.NumField(); i++ {
		spec, ok := specOf(t.Field(i))
		if !ok {
			continue
		}
		if spec.unknown {
			unknownIdx = i
			continue
		}

		for idx, packet := range packets {
			if !strings.EqualFold(packet.Tag, spec.tag) {
				continue
			}
			if err := assign(packet, v.Field(i), spec); err != nil {
				return fmt.Errorf("tag %s into %s: %w", spec.tag, t.Field(i).Name, err)
			}
			claimed[idx] = true
		}
	}

	if unknownIdx < 0 {
		return nil
	}
	var leftovers []bertlv.TLV
	for idx, packet := range packets {
		if !claimed[idx] {
			leftovers = append(leftovers, packet)
		}
	}
	if len(leftovers) > 0 {
		field := v.Field(unknownIdx)
		if field.CanSet() && field.Type() == reflect.TypeOf(leftovers) {
			field.Set(reflect.ValueOf(leftovers))
		}
	}
	return nil
}

// assign grows slice fields (other than []byte) and fills the new element.
func assign(packet bertlv.TLV, field reflect.Value, spec fieldSpec) error {
	if field.Kind() == reflect.Slice && !isByteSlice(field) {
		elem := reflect.New(field.Type().Elem()).Elem()
		if err := decodeInto(packet, elem, spec); err != nil {
			return err
		}
		field.Set(reflect.Append(field, elem))
		return nil
	}
	return decodeInto(packet, field, spec)
}

func decodeInto(packet bertlv.TLV, field reflect.Value, spec fieldSpec) error {
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(rawValue(packet))
		}
	}

	switch {
	case isByteSlice(field):
		field.SetBytes(rawValue(packet))
	case field.Kind() == reflect.String && spec.ascii:
		field.SetString(PrintableASCII(packet.Value))
	case field.Kind() == reflect.String:
		field.SetString(strings.ToUpper(hex.EncodeToString(packet.Value)))
	case field.Kind() == reflect.Struct:
		return nested(packet, field.Addr())
	case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return nested(packet, field)
	}
	return nil
}

func nested(packet bertlv.TLV, ptr reflect.Value) error {
	if len(packet.TLVs) > 0 {
		return UnmarshalFromPackets(packet.TLVs, ptr.Interface())
	}
	return Unmarshal(packet.Value, ptr.Interface())
}

// rawValue re-encodes constructed packets so callers always see the value bytes.
func rawValue(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}

// Find returns the value of the first top-level packet carrying tag (e.g. "6F").
func Find(data []byte, tag string) ([]byte, error) {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, err
	}
	for _, p := range packets {
		if strings.EqualFold(p.Tag, tag) {
			return rawValue(p), nil
		}
	}
	return nil, fmt.Errorf("tag %s not found", strings.ToUpper(tag))
}

func isByteSlice(v reflect.Value) bool {
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8
}
