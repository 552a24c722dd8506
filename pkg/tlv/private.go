package tlv

// PrivateTag is the first byte of every cardholder field: tag class
// "private", multi-byte tag number. The following byte is the field id.
const PrivateTag = 0xDF

// EachPrivateField walks 'DF <id> <len> <value>' fields with one-byte lengths.
//
// Bytes that do not start a field are skipped one at a time. The walk stops
// at the first field whose declared length runs past the end of data, and
// never looks at a header that starts in the last two bytes.
func EachPrivateField(data []byte, fn func(id byte, value []byte)) {
	i := 0
	for i < len(data)-2 {
		if data[i] != PrivateTag {
			i++
			continue
		}
		id := data[i+1]
		n := int(data[i+2])
		start := i + 3
		if start+n > len(data) {
			return
		}
		fn(id, data[start:start+n])
		i = start + n
	}
}
