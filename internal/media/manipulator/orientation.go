package manipulator

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/denismitr/imagebin/internal/media"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/rwcarlsen/goexif/exif"
)

// Exif Orientation Tag values
// http://sylvana.net/jpegcrop/exif_orientation.html
const (
	topLeftSide     = 1
	topRightSide    = 2
	bottomRightSide = 3
	bottomLeftSide  = 4
	leftSideTop     = 5
	rightSideTop    = 6
	rightSideBottom = 7
	leftSideBottom  = 8
)

// ReadOrientation returns the EXIF orientation code of a JPEG payload.
// A segment without the orientation tag reads as 1.
func (m *Manipulator) ReadOrientation(p *media.Payload) (int, error) {
	if p.Format != media.JPEG {
		return 0, errors.Wrapf(ErrNotApplicableFormat, "%q cannot carry exif orientation", p.Format)
	}

	return readOrientation(p.Data)
}

// NormalizeOrientation rotates and mirrors the pixels so that the image
// is upright without any orientation hint. The re-encoded JPEG carries no
// EXIF segment at all.
func (m *Manipulator) NormalizeOrientation(p *media.Payload) (*media.Payload, error) {
	code, err := m.ReadOrientation(p)
	if err != nil {
		return nil, err
	}

	if code == topLeftSide {
		return p, nil
	}

	img, err := jpeg.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedPayload, "could not decode jpeg: %v", err)
	}

	upright := applyOrientation(img, code)

	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, upright, &jpeg.Options{Quality: m.cfg.NormalizeQuality}); err != nil {
		return nil, errors.Wrapf(ErrTransformationFailed, "could not encode upright jpeg: %v", err)
	}

	m.logger.WithField("orientation", code).Debug("jpeg orientation normalized")

	return p.WithData(buf.Bytes()), nil
}

func readOrientation(data []byte) (int, error) {
	segments, _, err := jpegSegments(data)
	if err != nil {
		return 0, err
	}

	body := exifPayload(segments)
	if body == nil {
		return 0, ErrNoOrientationSegment
	}

	x, err := exif.Decode(bytes.NewReader(body))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return 0, errors.Wrapf(ErrMalformedPayload, "could not decode exif segment: %v", err)
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return topLeftSide, nil
	}

	code, err := tag.Int(0)
	if err != nil || code < topLeftSide || code > leftSideBottom {
		return topLeftSide, nil
	}

	return code, nil
}

// applyOrientation applies the inverse of the transform described by code
func applyOrientation(img image.Image, code int) image.Image {
	switch code {
	case topRightSide:
		return imaging.FlipH(img)
	case bottomRightSide:
		return imaging.Rotate180(img)
	case bottomLeftSide:
		return imaging.FlipV(img)
	case leftSideTop:
		return imaging.Transpose(img)
	case rightSideTop:
		return imaging.Rotate270(img)
	case rightSideBottom:
		return imaging.Transverse(img)
	case leftSideBottom:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
