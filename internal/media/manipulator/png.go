package manipulator

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// ancillary chunks that only carry metadata
var pngMetadataChunks = map[string]bool{
	"tEXt": true,
	"zTXt": true,
	"iTXt": true,
	"eXIf": true,
	"tIME": true,
}

type pngChunk struct {
	typ        string
	start, end int
}

// pngChunks walks the chunk list up to and including IEND. The returned
// offset is the end of IEND; trailing bytes are kept untouched.
func pngChunks(data []byte) ([]pngChunk, int, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, 0, errors.Wrap(ErrMalformedPayload, "png: missing signature")
	}

	var chunks []pngChunk
	pos := len(pngSignature)
	for {
		if pos+8 > len(data) {
			return nil, 0, errors.Wrapf(ErrMalformedPayload, "png: truncated chunk header at offset %d", pos)
		}

		length := binary.BigEndian.Uint32(data[pos:])
		if length > 0x7FFFFFFF || uint64(pos)+12+uint64(length) > uint64(len(data)) {
			return nil, 0, errors.Wrapf(ErrMalformedPayload, "png: chunk at offset %d declares invalid length %d", pos, length)
		}

		c := pngChunk{typ: string(data[pos+4 : pos+8]), start: pos, end: pos + 12 + int(length)}
		chunks = append(chunks, c)
		pos = c.end

		if c.typ == "IEND" {
			return chunks, pos, nil
		}
	}
}

func stripPNG(data []byte) ([]byte, error) {
	chunks, end, err := pngChunks(data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(data))
	out = append(out, pngSignature...)

	stripped := false
	for _, c := range chunks {
		if pngMetadataChunks[c.typ] {
			stripped = true
			continue
		}

		out = append(out, data[c.start:c.end]...)
	}

	if !stripped {
		return data, nil
	}

	return append(out, data[end:]...), nil
}
