package media

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidExtension = errors.New("invalid extension")
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format is the declared container format of a payload. The names match
// the ones registered with the image package decoders.
type Format string

const (
	Unknown Format = ""
	JPEG    Format = "jpeg"
	PNG     Format = "png"
	GIF     Format = "gif"
	BMP     Format = "bmp"
	TIFF    Format = "tiff"
	WEBP    Format = "webp"
)

var extensions = map[string]Format{
	"jpg":  JPEG,
	"jpeg": JPEG,
	"png":  PNG,
	"gif":  GIF,
	"bmp":  BMP,
	"tif":  TIFF,
	"tiff": TIFF,
	"webp": WEBP,
}

var mimes = map[Format]string{
	JPEG: "image/jpeg",
	PNG:  "image/png",
	GIF:  "image/gif",
	BMP:  "image/bmp",
	TIFF: "image/tiff",
	WEBP: "image/webp",
}

func (f Format) String() string {
	return string(f)
}

// Mime of the format, empty for Unknown
func (f Format) Mime() string {
	return mimes[f]
}

func (f Format) Extension() string {
	switch f {
	case JPEG:
		return "jpg"
	case Unknown:
		return "bin"
	default:
		return string(f)
	}
}

func FormatFromExtension(ext string) (Format, error) {
	if f, ok := extensions[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return f, nil
	}

	return Unknown, errors.Wrapf(ErrInvalidExtension, "extension unsupported: %s", ext)
}

func FormatFromMime(mime string) (Format, error) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	for f, m := range mimes {
		if m == mime {
			return f, nil
		}
	}

	return Unknown, errors.Wrapf(ErrUnsupportedFormat, "mime type unsupported: %s", mime)
}

var signatures = []struct {
	prefix []byte
	format Format
}{
	{[]byte{0xFF, 0xD8, 0xFF}, JPEG},
	{[]byte("\x89PNG\r\n\x1a\n"), PNG},
	{[]byte("GIF87a"), GIF},
	{[]byte("GIF89a"), GIF},
	{[]byte("BM"), BMP},
	{[]byte("II*\x00"), TIFF},
	{[]byte("MM\x00*"), TIFF},
}

// Sniff detects the container format from the leading magic bytes.
func Sniff(data []byte) (Format, error) {
	for _, s := range signatures {
		if bytes.HasPrefix(data, s.prefix) {
			return s.format, nil
		}
	}

	if len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return WEBP, nil
	}

	return Unknown, ErrUnsupportedFormat
}
