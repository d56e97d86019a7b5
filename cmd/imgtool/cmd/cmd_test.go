package cmd

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func jpegWithComment(t *testing.T) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.NRGBA{A: 255})

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	comment := []byte("camera serial 12345")
	segment := []byte{0xFF, 0xFE, 0x00, byte(len(comment) + 2)}
	segment = append(segment, comment...)

	data := buf.Bytes()
	out := append([]byte{}, data[:2]...)
	out = append(out, segment...)
	return append(out, data[2:]...)
}

func TestStripCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.jpg")
	out := filepath.Join(dir, "out.jpg")
	require.NoError(t, os.WriteFile(in, jpegWithComment(t), 0644))

	_, err := run(t, "strip", in, out)
	require.NoError(t, err)

	stripped, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(stripped), "camera serial")

	_, err = jpeg.Decode(bytes.NewReader(stripped))
	assert.NoError(t, err)
}

func TestOrientationCommand_NoExif(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.jpg")
	require.NoError(t, os.WriteFile(in, jpegWithComment(t), 0644))

	_, err := run(t, "orientation", in)
	require.Error(t, err)
}

func TestShortIDCommand(t *testing.T) {
	sum := sha1.Sum([]byte("6028336099d807ec425eeed2"))
	want := hex.EncodeToString(sum[:])

	out, err := run(t, "shortid", "6028336099d807ec425eeed2")
	require.NoError(t, err)
	assert.Equal(t, want[:6], strings.TrimSpace(out))

	out, err = run(t, "shortid", "--length", "9", "6028336099d807ec425eeed2")
	require.NoError(t, err)
	assert.Equal(t, want[:9], strings.TrimSpace(out))
}
