package samcard

import (
	"bytes"
)

// Span is a half-open byte range [Start, End) inside a buffer.
type Span struct {
	Start, End int
}

// Len returns End - Start.
func (s Span) Len() int { return s.End - s.Start }

// ImageFormat is the media type of an extracted face image.
type ImageFormat string

const (
	ImageJPEG ImageFormat = "image/jpeg"
	ImageGIF  ImageFormat = "image/gif"
)

var (
	jpegSOI    = []byte{0xFF, 0xD8}
	jpegEOI    = []byte{0xFF, 0xD9}
	gifHeader  = []byte("GIF89a")
	gifTrailer = []byte{0x00, 0x3B}
)

// FindJPEG locates the first SOI and the first EOI after it, EOI included.
func FindJPEG(buf []byte) (Span, bool) {
	return findDelimited(buf, jpegSOI, jpegEOI)
}

// FindGIF locates "GIF89a" and the first 00 3B after it, trailer included.
func FindGIF(buf []byte) (Span, bool) {
	return findDelimited(buf, gifHeader, gifTrailer)
}

func findDelimited(buf, start, end []byte) (Span, bool) {
	s := bytes.Index(buf, start)
	if s < 0 {
		return Span{}, false
	}
	from := s + len(start)
	e := bytes.Index(buf[from:], end)
	if e < 0 {
		return Span{}, false
	}
	return Span{Start: s, End: from + e + len(end)}, true
}

// ExtractJPEG returns a copy of the JPEG stream inside buf, or nil.
func ExtractJPEG(buf []byte) []byte {
	if sp, ok := FindJPEG(buf); ok {
		return bytes.Clone(buf[sp.Start:sp.End])
	}
	return nil
}

// ExtractGIF returns a copy of the GIF89a stream inside buf, or nil.
func ExtractGIF(buf []byte) []byte {
	if sp, ok := FindGIF(buf); ok {
		return bytes.Clone(buf[sp.Start:sp.End])
	}
	return nil
}

// DetectImageFormat reports the format of an extracted image from its magic bytes.
func DetectImageFormat(img []byte) (ImageFormat, bool) {
	switch {
	case bytes.HasPrefix(img, jpegSOI) && bytes.HasSuffix(img, jpegEOI) && len(img) >= 4:
		return ImageJPEG, true
	case bytes.HasPrefix(img, gifHeader) && bytes.HasSuffix(img, gifTrailer):
		return ImageGIF, true
	default:
		return "", false
	}
}
