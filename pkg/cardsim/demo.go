package cardsim

import (
	"github.com/gregLibert/sam-reader/pkg/iso7816"
)

// DemoAID is the application identifier answered by Demo cards.
var DemoAID = []byte{0xA0, 0x00, 0x00, 0x00, 0x77, 0xAB, 0x01}

// Demo returns a populated card: cardholder fields on SFI 1, a JPEG face
// split over two records of SFI 2, and ISO 19794-2 templates on SFIs 4 and 5.
func Demo() *Card {
	c := New(DemoAID)
	c.FCI = demoFCI()

	c.SetRecord(1, 1, Cardholder(map[byte]string{
		0x01: "AMINA",
		0x02: "OKAFOR",
		0x03: "N.",
		0x04: "NGA",
		0x05: "1990-04-12",
		0x06: "F",
		0x09: "A01234567",
		0x0A: "SAM-0042-7781",
		0x0B: "2022-01-10",
		0x0C: "2032-01-09",
		0x0D: "ID",
	}))

	c.SetFile(2, append([]byte{0x00, 0x00}, DemoJPEG()...), 64)
	c.SetFile(4, DemoTemplate(1), 200)
	c.SetFile(5, DemoTemplate(2), 200)
	return c
}

// Cardholder encodes fields as 'DF <id> <len> <value>' in ascending id order.
func Cardholder(fields map[byte]string) []byte {
	var out []byte
	for id := 0; id <= 0xFF; id++ {
		v, ok := fields[byte(id)]
		if !ok {
			continue
		}
		out = append(out, 0xDF, byte(id), byte(len(v)))
		out = append(out, v...)
	}
	return out
}

// DemoJPEG is a minimal JFIF stream (SOI ... EOI).
func DemoJPEG() []byte {
	img := []byte{
		0xFF, 0xD8, // SOI
		0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
	}
	for i := 0; i < 96; i++ {
		img = append(img, byte(i*7))
	}
	// 0xFF bytes in the scan data must be stuffed; drop any accidental markers.
	for i := 2; i < len(img); i++ {
		if img[i] == 0xFF && i+1 < len(img) && img[i+1] == 0xD9 {
			img[i+1] = 0x00
		}
	}
	return append(img, 0xFF, 0xD9) // EOI
}

// DemoTemplate is a small ISO/IEC 19794-2 record ("FMR\0", version " 20\0").
func DemoTemplate(seed byte) []byte {
	t := []byte{'F', 'M', 'R', 0x00, ' ', '2', '0', 0x00, 0x00, 0x00, 0x00, 0x90}
	for i := 0; i < 132; i++ {
		t = append(t, seed+byte(i))
	}
	return t
}

func demoFCI() []byte {
	label := []byte("SAM ID")
	lang := []byte("enfr")

	prop := []byte{0x50, byte(len(label))}
	prop = append(prop, label...)
	prop = append(prop, 0x87, 0x01, 0x01)
	prop = append(prop, 0x5F, 0x2D, byte(len(lang)))
	prop = append(prop, lang...)

	body := []byte{0x84, byte(len(DemoAID))}
	body = append(body, DemoAID...)
	body = append(body, 0xA5, byte(len(prop)))
	body = append(body, prop...)

	return append([]byte{0x6F, byte(len(body))}, body...)
}

// StatusOnly is a Reply carrying only a status word.
func StatusOnly(s iso7816.StatusWord) Reply {
	return Reply{Status: s}
}
