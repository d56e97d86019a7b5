package manipulator

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/denismitr/imagebin/internal/media"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func newTestManipulator() (*Manipulator, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return New(Config{}, logger), hook
}

// splitImage is red on the left half and blue on the right half
func splitImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.SetNRGBA(x, y, red)
			} else {
				img.SetNRGBA(x, y, blue)
			}
		}
	}

	return img
}

func noisyImage(w, h int, seed int64) *image.NRGBA {
	rnd := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	rnd.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}

	return img
}

func encodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func encodeBMP(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, bmp.Encode(buf, img))
	return buf.Bytes()
}

// encodeGIF builds an animation of n frames of w x h, each a different shade
func encodeGIF(t *testing.T, w, h, n int) []byte {
	t.Helper()
	g := &gif.GIF{LoopCount: 0}
	for i := 0; i < n; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				frame.SetColorIndex(x, y, uint8((x+y+i*17)%256))
			}
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10*(i+1))
		g.Disposal = append(g.Disposal, gif.DisposalBackground)
	}

	buf := &bytes.Buffer{}
	require.NoError(t, gif.EncodeAll(buf, g))
	return buf.Bytes()
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value [4]byte
}

func shortValue(v uint16) [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b
}

func longValue(v uint32) [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b
}

func writeIFD(buf *bytes.Buffer, entries []ifdEntry) {
	_ = binary.Write(buf, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(buf, binary.LittleEndian, e.tag)
		_ = binary.Write(buf, binary.LittleEndian, e.typ)
		_ = binary.Write(buf, binary.LittleEndian, e.count)
		buf.Write(e.value[:])
	}
	_ = binary.Write(buf, binary.LittleEndian, uint32(0))
}

// exifTIFF builds a little endian TIFF body with an optional orientation
// tag and an optional GPS sub-IFD. orientation 0 omits the tag.
func exifTIFF(orientation uint16, withGPS bool) []byte {
	var ifd0 []ifdEntry
	if orientation != 0 {
		ifd0 = append(ifd0, ifdEntry{tag: 0x0112, typ: 3, count: 1, value: shortValue(orientation)})
	}

	gpsOffset := uint32(8 + 2 + 12*(len(ifd0)+1) + 4)
	if withGPS {
		ifd0 = append(ifd0, ifdEntry{tag: 0x8825, typ: 4, count: 1, value: longValue(gpsOffset)})
	}

	buf := &bytes.Buffer{}
	buf.WriteString("II")
	_ = binary.Write(buf, binary.LittleEndian, uint16(42))
	_ = binary.Write(buf, binary.LittleEndian, uint32(8))
	writeIFD(buf, ifd0)

	if withGPS {
		writeIFD(buf, []ifdEntry{
			{tag: 0x0000, typ: 1, count: 4, value: [4]byte{2, 2, 0, 0}},
			{tag: 0x0001, typ: 2, count: 2, value: [4]byte{'N', 0, 0, 0}},
		})
	}

	return buf.Bytes()
}

// withSegment inserts a marker segment right after SOI
func withSegment(data []byte, marker byte, payload []byte) []byte {
	out := make([]byte, 0, len(data)+len(payload)+4)
	out = append(out, data[:2]...)
	out = append(out, 0xFF, marker)
	out = append(out, byte((len(payload)+2)>>8), byte(len(payload)+2))
	out = append(out, payload...)
	return append(out, data[2:]...)
}

func withExif(data []byte, tiff []byte) []byte {
	return withSegment(data, markerAPP1, append(append([]byte{}, exifHeader...), tiff...))
}

// withPNGChunk inserts a chunk right after IHDR
func withPNGChunk(data []byte, typ string, payload []byte) []byte {
	ihdrEnd := len(pngSignature) + 8 + 13 + 4

	chunk := make([]byte, 8, 12+len(payload))
	binary.BigEndian.PutUint32(chunk, uint32(len(payload)))
	copy(chunk[4:], typ)
	chunk = append(chunk, payload...)
	crc := crc32.ChecksumIEEE(chunk[4:])
	chunk = append(chunk, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, data[ihdrEnd:]...)
}

func payload(data []byte, format media.Format) *media.Payload {
	return media.NewPayload(data, format)
}
