package manipulator

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	markerTEM   = 0x01
	markerRST0  = 0xD0
	markerRST7  = 0xD7
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerAPP1  = 0xE1
	markerAPP15 = 0xEF
	markerCOM   = 0xFE
)

var exifHeader = []byte("Exif\x00\x00")

type jpegSegment struct {
	marker byte
	// start and end delimit the whole segment, marker included
	start, end int
	payload    []byte
}

// isMetadata is true for APP1..APP15 and comments. APP0 stays, it is the
// JFIF header decoders rely on.
func (s jpegSegment) isMetadata() bool {
	return (s.marker >= markerAPP1 && s.marker <= markerAPP15) || s.marker == markerCOM
}

// jpegSegments splits the header of a JPEG stream into segments. The
// returned offset is where the scan (SOS) or EOI marker begins; everything
// from there on is entropy coded data and is not inspected.
func jpegSegments(data []byte) ([]jpegSegment, int, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, 0, errors.Wrap(ErrMalformedPayload, "jpeg: missing SOI marker")
	}

	var segments []jpegSegment
	pos := 2
	for {
		if pos+2 > len(data) {
			return nil, 0, errors.Wrapf(ErrMalformedPayload, "jpeg: header ends at offset %d without a scan", pos)
		}

		if data[pos] != 0xFF {
			return nil, 0, errors.Wrapf(ErrMalformedPayload, "jpeg: expected marker at offset %d", pos)
		}

		start := pos
		for pos+1 < len(data) && data[pos+1] == 0xFF {
			pos++
		}

		if pos+1 >= len(data) {
			return nil, 0, errors.Wrap(ErrMalformedPayload, "jpeg: stream ends inside marker padding")
		}

		marker := data[pos+1]
		pos += 2

		switch {
		case marker == markerSOS || marker == markerEOI:
			return segments, start, nil
		case marker == markerTEM || (marker >= markerRST0 && marker <= markerRST7):
			segments = append(segments, jpegSegment{marker: marker, start: start, end: pos})
			continue
		case marker == 0x00 || marker == markerSOI:
			return nil, 0, errors.Wrapf(ErrMalformedPayload, "jpeg: unexpected marker 0x%02X at offset %d", marker, start)
		}

		if pos+2 > len(data) {
			return nil, 0, errors.Wrapf(ErrMalformedPayload, "jpeg: truncated length of marker 0x%02X", marker)
		}

		length := int(binary.BigEndian.Uint16(data[pos:]))
		if length < 2 || pos+length > len(data) {
			return nil, 0, errors.Wrapf(ErrMalformedPayload, "jpeg: marker 0x%02X declares invalid length %d", marker, length)
		}

		segments = append(segments, jpegSegment{
			marker:  marker,
			start:   start,
			end:     pos + length,
			payload: data[pos+2 : pos+length],
		})

		pos += length
	}
}

// exifPayload returns the TIFF body of the first EXIF APP1 segment, nil when there is none
func exifPayload(segments []jpegSegment) []byte {
	for _, s := range segments {
		if s.marker == markerAPP1 && bytes.HasPrefix(s.payload, exifHeader) {
			return s.payload[len(exifHeader):]
		}
	}

	return nil
}

func stripJPEG(data []byte) ([]byte, error) {
	segments, scan, err := jpegSegments(data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(data))
	out = append(out, data[:2]...)

	stripped := false
	for _, s := range segments {
		if s.isMetadata() {
			stripped = true
			continue
		}

		out = append(out, data[s.start:s.end]...)
	}

	if !stripped {
		return data, nil
	}

	return append(out, data[scan:]...), nil
}
