package manipulator

import (
	"github.com/denismitr/imagebin/internal/media"
	"github.com/pkg/errors"
)

// StripMetadata removes every embedded metadata segment and keeps pixel
// data and decoder headers byte for byte. A payload without metadata is
// handed back unchanged, which makes the operation idempotent.
func (m *Manipulator) StripMetadata(p *media.Payload) (*media.Payload, error) {
	var (
		out []byte
		err error
	)

	switch p.Format {
	case media.JPEG:
		out, err = stripJPEG(p.Data)
	case media.PNG:
		out, err = stripPNG(p.Data)
	default:
		return nil, errors.Wrapf(ErrNotApplicableFormat, "metadata stripping is not supported for %q", p.Format)
	}

	if err != nil {
		return nil, err
	}

	if len(out) != len(p.Data) {
		m.logger.WithField("format", p.Format).Debugf("stripped %d bytes of metadata", len(p.Data)-len(out))
	}

	return p.WithData(out), nil
}
