package iso7816

// Bit numbering follows ISO/IEC 7816-4 tables: bit 1 is the least significant
// bit and bit 8 the most significant one.

func bitMask(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

func bitIsSet(b byte, n uint) bool {
	return b&bitMask(n) != 0
}

func setBit(b byte, n uint) byte {
	return b | bitMask(n)
}

// bitRange extracts bits high..low, e.g. bitRange(0b0000_1100, 4, 3) == 3.
func bitRange(b byte, high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}
	width := high - low + 1
	return (b >> (low - 1)) & byte((1<<width)-1)
}

// withBitRange stores v into bits high..low of b. Bits of v that do not fit are dropped.
func withBitRange(b byte, high, low uint, v byte) byte {
	if high < low || high > 8 || low < 1 {
		return b
	}
	width := high - low + 1
	mask := byte((1<<width)-1) << (low - 1)
	return (b &^ mask) | ((v << (low - 1)) & mask)
}
