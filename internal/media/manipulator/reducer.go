package manipulator

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/denismitr/imagebin/internal/media"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
)

// Variant is a derived, never persisted, rendition of a stored payload
type Variant struct {
	Data   []byte
	Mime   string
	Format media.Format

	// Reduced is false when Data is the untouched original
	Reduced bool
}

// Reduce produces the low fidelity variant of a stored payload. It never
// fails: whenever a codec step cannot complete, or the result would not be
// smaller, the original bytes come back with Reduced set to false.
//
// BMP is the one format whose variant changes container, it is served as
// JPEG and the variant Mime says so.
func (m *Manipulator) Reduce(data []byte, format media.Format) (v *Variant) {
	original := &Variant{Data: data, Mime: format.Mime(), Format: format}
	lg := m.logger.WithFields(logrus.Fields{"format": format, "size": len(data)})

	defer func() {
		if r := recover(); r != nil {
			lg.Errorf("low fidelity reduction panicked, serving original: %v", r)
			v = original
		}
	}()

	var (
		out       []byte
		outFormat = format
		err       error
	)

	switch format {
	case media.JPEG:
		out, err = m.reduceJPEG(data)
	case media.PNG:
		out, err = m.reducePNG(data)
	case media.GIF:
		out, err = m.reduceGIF(data)
	case media.BMP:
		out, err = m.reduceBMP(data)
		outFormat = media.JPEG
	default:
		return original
	}

	if err != nil {
		lg.WithError(err).Warn("low fidelity reduction failed, serving original")
		return original
	}

	if len(out) > len(data) {
		lg.Debugf("low fidelity variant of %d bytes is larger than original, serving original", len(out))
		return original
	}

	return &Variant{Data: out, Mime: outFormat.Mime(), Format: outFormat, Reduced: true}
}

func (m *Manipulator) reduceJPEG(data []byte) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedPayload, "could not decode jpeg: %v", err)
	}

	return m.encodeJPEG(img)
}

func (m *Manipulator) reduceBMP(data []byte) ([]byte, error) {
	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedPayload, "could not decode bmp: %v", err)
	}

	return m.encodeJPEG(img)
}

func (m *Manipulator) encodeJPEG(img image.Image) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: m.cfg.LowFidelityQuality}); err != nil {
		return nil, errors.Wrapf(ErrTransformationFailed, "could not encode jpeg: %v", err)
	}

	return buf.Bytes(), nil
}

// reducePNG quantizes to the web safe palette with error diffusion
func (m *Manipulator) reducePNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedPayload, "could not decode png: %v", err)
	}

	p := make(color.Palette, 0, len(palette.WebSafe)+1)
	p = append(p, palette.WebSafe...)
	p = append(p, color.Transparent)

	bounds := img.Bounds()
	quantized := image.NewPaletted(bounds, p)
	xdraw.FloydSteinberg.Draw(quantized, bounds, img, bounds.Min)

	buf := &bytes.Buffer{}
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(buf, quantized); err != nil {
		return nil, errors.Wrapf(ErrTransformationFailed, "could not encode png: %v", err)
	}

	return buf.Bytes(), nil
}

// reduceGIF halves the width of every frame, keeping palettes, delays,
// disposal methods and the loop count.
func (m *Manipulator) reduceGIF(data []byte) ([]byte, error) {
	cfg, err := gif.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedPayload, "could not probe gif: %v", err)
	}

	if cfg.Width < 2 || cfg.Height < 1 {
		return nil, errors.Wrapf(ErrTransformationFailed, "gif of %dx%d is too small to reduce", cfg.Width, cfg.Height)
	}

	targetWidth := cfg.Width / 2
	targetHeight := cfg.Height * targetWidth / cfg.Width
	if targetHeight < 1 {
		targetHeight = 1
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedPayload, "could not decode gif: %v", err)
	}

	sx := float64(targetWidth) / float64(cfg.Width)
	sy := float64(targetHeight) / float64(cfg.Height)
	canvas := image.Rect(0, 0, targetWidth, targetHeight)

	for i, frame := range g.Image {
		src := frame.Bounds()
		dr := scaleRect(src, sx, sy).Intersect(canvas)
		if dr.Empty() {
			dr = image.Rect(0, 0, 1, 1)
		}

		dst := image.NewPaletted(dr, frame.Palette)
		xdraw.NearestNeighbor.Scale(dst, dr, frame, src, xdraw.Src, nil)
		g.Image[i] = dst
	}

	g.Config.Width = targetWidth
	g.Config.Height = targetHeight

	buf := &bytes.Buffer{}
	if err := gif.EncodeAll(buf, g); err != nil {
		return nil, errors.Wrapf(ErrTransformationFailed, "could not encode gif: %v", err)
	}

	return buf.Bytes(), nil
}

func scaleRect(r image.Rectangle, sx, sy float64) image.Rectangle {
	r = image.Rect(
		int(math.Floor(float64(r.Min.X)*sx)),
		int(math.Floor(float64(r.Min.Y)*sy)),
		int(math.Ceil(float64(r.Max.X)*sx)),
		int(math.Ceil(float64(r.Max.Y)*sy)),
	)

	if r.Dx() < 1 {
		r.Max.X = r.Min.X + 1
	}

	if r.Dy() < 1 {
		r.Max.Y = r.Min.Y + 1
	}

	return r
}
