package proxy

import (
	"bytes"
	"context"
	"io"

	"github.com/denismitr/imagebin/internal/media"
	"github.com/denismitr/imagebin/internal/media/manipulator"
	"github.com/denismitr/imagebin/internal/registry"
	"github.com/denismitr/imagebin/internal/storage"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrResourceNotFound = errors.New("requested resource not found")
var ErrInternalError = errors.New("imageProxy error")
var ErrBadInput = errors.New("bad user input")

type ImageProxy interface {
	// Prepare resolves the live image behind a short ID. A non empty
	// extension must match the stored format.
	Prepare(ctx context.Context, shortID, ext string) (*media.Image, error)

	// Original writes the stored bytes of the image to dst
	Original(ctx context.Context, dst io.Writer, img *media.Image) error

	// LowFidelity returns the reduced variant of the image, or its original
	// bytes when no reduction applies
	LowFidelity(ctx context.Context, img *media.Image) (*manipulator.Variant, error)
}

type StorageImageProxy struct {
	registry    registry.Registry
	storage     storage.Storage
	manipulator *manipulator.Manipulator
	logger      logrus.FieldLogger
}

var _ ImageProxy = (*StorageImageProxy)(nil)

func NewStorageImageProxy(
	l logrus.FieldLogger,
	r registry.Registry,
	s storage.Storage,
	m *manipulator.Manipulator,
) *StorageImageProxy {
	return &StorageImageProxy{
		registry:    r,
		storage:     s,
		manipulator: m,
		logger:      l,
	}
}

func (p *StorageImageProxy) Prepare(ctx context.Context, shortID, ext string) (*media.Image, error) {
	img, err := p.registry.GetImageByShortID(ctx, media.ShortID(shortID))
	if err != nil {
		if errors.Is(err, registry.ErrEntityNotFound) {
			return nil, errors.Wrapf(ErrResourceNotFound, "image %s not found: %v", shortID, err)
		}

		if errors.Is(err, registry.ErrInvalidID) {
			return nil, errors.Wrap(ErrBadInput, err.Error())
		}

		return nil, errors.Wrap(ErrInternalError, err.Error())
	}

	if ext != "" {
		format, err := media.FormatFromExtension(ext)
		if err != nil {
			return nil, errors.Wrap(ErrBadInput, err.Error())
		}

		if format != img.Format {
			return nil, errors.Wrapf(ErrResourceNotFound, "image %s is not available as %s", shortID, ext)
		}
	}

	return img, nil
}

func (p *StorageImageProxy) Original(ctx context.Context, dst io.Writer, img *media.Image) error {
	data, err := p.fetch(ctx, img)
	if err != nil {
		return err
	}

	if _, err := dst.Write(data); err != nil {
		return errors.Wrapf(ErrInternalError, "could not write image %s: %v", img.ShortID, err)
	}

	return nil
}

func (p *StorageImageProxy) LowFidelity(ctx context.Context, img *media.Image) (*manipulator.Variant, error) {
	data, err := p.fetch(ctx, img)
	if err != nil {
		return nil, err
	}

	v := p.manipulator.Reduce(data, img.Format)

	p.logger.WithFields(logrus.Fields{
		"shortId":  img.ShortID,
		"format":   img.Format,
		"original": len(data),
		"variant":  len(v.Data),
		"reduced":  v.Reduced,
	}).Debug("low fidelity variant served")

	return v, nil
}

// fetch downloads the whole payload, so a failed download can still be
// reported with a proper status code
func (p *StorageImageProxy) fetch(ctx context.Context, img *media.Image) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, img.Size))
	if err := p.storage.Download(ctx, buf, img.Namespace, img.Filename()); err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return nil, errors.Wrapf(ErrResourceNotFound, "payload of image %s is missing: %v", img.ShortID, err)
		}

		return nil, errors.Wrapf(ErrInternalError, "could not download image %s: %v", img.ShortID, err)
	}

	return buf.Bytes(), nil
}
