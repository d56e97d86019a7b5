package ingest

import (
	"context"
	"fmt"

	"github.com/denismitr/imagebin/internal/media"
	"github.com/denismitr/imagebin/internal/media/manipulator"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrIngestionFailed = errors.New("ingestion failed")

type Stage string

const (
	StageNormalize Stage = "normalize"
	StageStrip     Stage = "strip"
	StagePersist   Stage = "persist"
)

// Error reports the stage an ingestion failed at. It matches
// ErrIngestionFailed and unwraps to the cause.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v at %s stage: %v", ErrIngestionFailed, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrIngestionFailed
}

// Meta is what the uploader tells about the payload
type Meta struct {
	// Uploader is empty for anonymous uploads
	Uploader     string
	OriginalName string
	Name         string
}

// Persister stores a finalized payload, allocating its short ID on the way
type Persister interface {
	Persist(ctx context.Context, payload *media.Payload, meta Meta) (*media.Image, error)
}

type PersisterFunc func(ctx context.Context, payload *media.Payload, meta Meta) (*media.Image, error)

func (f PersisterFunc) Persist(ctx context.Context, payload *media.Payload, meta Meta) (*media.Image, error) {
	return f(ctx, payload, meta)
}

// Normalizer is the part of the manipulator ingestion depends on
type Normalizer interface {
	NormalizeOrientation(p *media.Payload) (*media.Payload, error)
	StripMetadata(p *media.Payload) (*media.Payload, error)
}

type Orchestrator struct {
	normalizer Normalizer
	logger     logrus.FieldLogger
}

func New(n Normalizer, logger logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{normalizer: n, logger: logger}
}

// Ingest takes a payload through Normalize, Strip and Persist.
//
// Payloads whose format cannot carry orientation metadata, or JPEGs that
// have none, skip straight to Persist unchanged. Failures are not retried
// here.
func (o *Orchestrator) Ingest(
	ctx context.Context,
	payload *media.Payload,
	meta Meta,
	persister Persister,
) (*media.Image, error) {
	lg := o.logger.WithFields(logrus.Fields{"format": payload.Format, "size": payload.Size()})

	finalized, err := o.normalize(payload)
	if err != nil {
		return nil, err
	}

	if finalized == payload {
		lg.Debug("orientation normalization skipped")
	}

	img, err := persister.Persist(ctx, finalized, meta)
	if err != nil {
		return nil, &Error{Stage: StagePersist, Err: err}
	}

	lg.WithField("shortId", img.ShortID).Info("image ingested")

	return img, nil
}

func (o *Orchestrator) normalize(payload *media.Payload) (*media.Payload, error) {
	upright, err := o.normalizer.NormalizeOrientation(payload)
	if err != nil {
		if manipulator.IsSkippable(err) {
			return payload, nil
		}

		return nil, &Error{Stage: StageNormalize, Err: err}
	}

	clean, err := o.normalizer.StripMetadata(upright)
	if err != nil {
		return nil, &Error{Stage: StageStrip, Err: err}
	}

	return clean, nil
}
