package backoffice

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/denismitr/imagebin/internal/ingest"
	"github.com/denismitr/imagebin/internal/media"
	"github.com/denismitr/imagebin/internal/media/manipulator"
	"github.com/denismitr/imagebin/internal/registry"
	"github.com/denismitr/imagebin/internal/shortid"
	"github.com/denismitr/imagebin/internal/storage"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrBackOfficeError = errors.New("back office error")
var ErrResourceNotFound = errors.New("resource not found")
var ErrBadInput = errors.New("bad input")

const (
	defaultMaxAllocationAttempts = 3
	maxNameLength                = 64
)

type Config struct {
	Namespace     string
	ShortIDLength int

	// MaxAllocationAttempts bounds how often a short ID is re-allocated
	// after losing a race for it against a concurrent upload
	MaxAllocationAttempts int
}

// ImageService is a collection of use cases specific to the back office
// handling business logic for processing images
type ImageService struct {
	cfg          Config
	registry     registry.Registry
	storage      storage.Storage
	allocator    *shortid.Allocator
	orchestrator *ingest.Orchestrator
	logger       logrus.FieldLogger
}

func NewImageService(
	cfg Config,
	r registry.Registry,
	s storage.Storage,
	a *shortid.Allocator,
	o *ingest.Orchestrator,
	logger logrus.FieldLogger,
) *ImageService {
	if cfg.MaxAllocationAttempts <= 0 {
		cfg.MaxAllocationAttempts = defaultMaxAllocationAttempts
	}

	return &ImageService{
		cfg:          cfg,
		registry:     r,
		storage:      s,
		allocator:    a,
		orchestrator: o,
		logger:       logger,
	}
}

func (is *ImageService) createNewImage(ctx context.Context, dto *createImageDTO) (*media.Image, error) {
	data, err := io.ReadAll(dto.source)
	if err != nil {
		return nil, errors.Wrapf(ErrBadInput, "could not read upload: %v", err)
	}

	format, err := media.Sniff(data)
	if err != nil {
		return nil, errors.Wrapf(err, "upload %s", dto.originalName)
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, errors.Wrapf(manipulator.ErrMalformedPayload, "upload %s is not a valid %s: %v", dto.originalName, format, err)
	}

	meta := ingest.Meta{
		Uploader:     dto.uploader,
		OriginalName: dto.originalName,
		Name:         dto.name,
	}

	return is.orchestrator.Ingest(ctx, media.NewPayload(data, format), meta, ingest.PersisterFunc(is.persist))
}

// persist stores the finalized payload and records it under a freshly
// allocated short ID
func (is *ImageService) persist(ctx context.Context, payload *media.Payload, meta ingest.Meta) (*media.Image, error) {
	img := is.makeNewImage(payload, meta, time.Now())

	if _, err := is.storage.Put(ctx, img.Namespace, img.Filename(), bytes.NewReader(payload.Data)); err != nil {
		return nil, errors.Wrapf(ErrBackOfficeError, "could not persist image: %v", err)
	}

	if err := is.register(ctx, img); err != nil {
		if rmErr := is.storage.Remove(ctx, img.Namespace, img.Filename()); rmErr != nil {
			is.logger.WithError(rmErr).WithField("path", img.Path).Error("could not clean up orphaned file")
		}

		return nil, err
	}

	return img, nil
}

// register allocates a short ID and records the image, allocating again
// when a concurrent upload claimed the same short ID first
func (is *ImageService) register(ctx context.Context, img *media.Image) error {
	var lastErr error
	for attempt := 0; attempt < is.cfg.MaxAllocationAttempts; attempt++ {
		sid, err := is.allocator.Allocate(ctx, img.ID.String(), is.cfg.ShortIDLength, is.registry.ShortIDExists)
		if err != nil {
			// keeps *shortid.OracleError reachable through errors.As
			return errors.Wrap(err, "could not allocate short id")
		}

		img.ShortID = sid

		err = is.registry.CreateImage(ctx, img)
		if err == nil {
			return nil
		}

		if !errors.Is(err, registry.ErrEntityAlreadyExists) {
			return errors.Wrapf(ErrBackOfficeError, "could not create image in registry: %v", err)
		}

		is.logger.WithField("shortId", sid).Debug("short id claimed concurrently, allocating again")
		lastErr = err
	}

	return errors.Wrapf(ErrBackOfficeError, "gave up allocating a short id after %d attempts: %v", is.cfg.MaxAllocationAttempts, lastErr)
}

func (is *ImageService) makeNewImage(payload *media.Payload, meta ingest.Meta, now time.Time) *media.Image {
	var img media.Image
	img.ID = is.registry.GenerateID()
	img.Name = makeName(meta.Name, meta.OriginalName)
	img.OriginalName = meta.OriginalName
	img.Format = payload.Format
	img.Mime = payload.Mime
	img.Size = payload.Size()
	img.Uploader = meta.Uploader
	img.Namespace = is.cfg.Namespace
	img.Path = media.ComputePath(img.Namespace, img.ID, img.Name, img.Format)
	img.CreatedAt = now

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(payload.Data)); err == nil {
		img.Width = cfg.Width
		img.Height = cfg.Height
	}

	return &img
}

func makeName(name, originalName string) string {
	if name == "" {
		name = strings.TrimSuffix(originalName, filepath.Ext(originalName))
	}

	s := slug.Make(name)
	if len(s) > maxNameLength {
		s = strings.Trim(s[:maxNameLength], "-_")
	}

	if s == "" {
		return "original"
	}

	return s
}

func (is *ImageService) getImage(ctx context.Context, sid string) (*media.Image, error) {
	img, err := is.registry.GetImageByShortID(ctx, media.ShortID(sid))
	if err != nil {
		if errors.Is(err, registry.ErrEntityNotFound) {
			return nil, errors.Wrapf(ErrResourceNotFound, "%s", err.Error())
		}

		if errors.Is(err, registry.ErrInvalidID) {
			return nil, errors.Wrapf(ErrBadInput, "%s", err.Error())
		}

		return nil, err
	}

	return img, nil
}

// removeImage soft deletes the record, which frees the short ID, then
// drops the payload from storage
func (is *ImageService) removeImage(ctx context.Context, sid string) error {
	img, err := is.getImage(ctx, sid)
	if err != nil {
		return err
	}

	if err := is.registry.RemoveImage(ctx, img.ID); err != nil {
		if errors.Is(err, registry.ErrEntityNotFound) {
			return ErrResourceNotFound
		}

		return err
	}

	if err := is.storage.Remove(ctx, img.Namespace, img.Filename()); err != nil {
		return errors.Wrapf(ErrBackOfficeError, "image %s removed from registry but not from storage: %v", sid, err)
	}

	return nil
}
