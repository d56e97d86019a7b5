package s3storage

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/denismitr/imagebin/internal/storage"
	"github.com/pkg/errors"
)

type Config struct {
	AccessKey        string
	AccessSecret     string
	AccessToken      string
	Region           string
	Endpoint         string
	S3ForcePathStyle bool
	EnableSSL        bool
}

type RemoteStorage struct {
	cfg      Config
	s3Config *aws.Config
}

var _ storage.Storage = (*RemoteStorage)(nil)

func New(cfg Config) *RemoteStorage {
	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.AccessSecret, cfg.AccessToken),
		Endpoint:         aws.String(cfg.Endpoint),
		Region:           aws.String(cfg.Region),
		DisableSSL:       aws.Bool(!cfg.EnableSSL),
		S3ForcePathStyle: aws.Bool(cfg.S3ForcePathStyle),
	}

	return &RemoteStorage{
		cfg:      cfg,
		s3Config: s3Config,
	}
}

// Put uploads the source under the key, creating the namespace bucket on first use
func (rs *RemoteStorage) Put(ctx context.Context, namespace, key string, source io.Reader) (*storage.Item, error) {
	if !storage.IsValidKey(key) {
		return nil, errors.Wrapf(storage.ErrInvalidKey, "key [%s]", key)
	}

	sess, err := rs.getSession()
	if err != nil {
		return nil, err
	}

	if err := rs.ensureBucket(ctx, s3.New(sess), namespace); err != nil {
		return nil, err
	}

	counter := &countingReader{r: source}

	uploader := s3manager.NewUploader(sess)
	uploader.Concurrency = 1

	_, err = uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Body:   counter,
		Bucket: aws.String(namespace),
		Key:    aws.String(key),
	})

	if err != nil {
		return nil, errors.Wrapf(
			storage.ErrStorageFailed,
			"could not upload file %s to namespace %s: %v",
			key, namespace, err,
		)
	}

	return &storage.Item{
		Namespace: namespace,
		Key:       key,
		Size:      counter.n,
	}, nil
}

func (rs *RemoteStorage) Download(ctx context.Context, dst io.Writer, namespace, key string) error {
	sess, err := rs.getSession()
	if err != nil {
		return err
	}

	downloader := s3manager.NewDownloader(sess)
	downloader.Concurrency = 1

	_, err = downloader.DownloadWithContext(ctx, sequentialWriterAt{w: dst},
		&s3.GetObjectInput{
			Bucket: aws.String(namespace),
			Key:    aws.String(key),
		})

	if err != nil {
		if isNotFound(err) {
			return errors.Wrapf(storage.ErrFileNotFound, "file %s in namespace %s", key, namespace)
		}

		return errors.Wrapf(
			storage.ErrStorageFailed,
			"could not download file %s from namespace %s: %v",
			key, namespace, err,
		)
	}

	return nil
}

// Remove file from bucket
func (rs *RemoteStorage) Remove(ctx context.Context, namespace, key string) error {
	sess, err := rs.getSession()
	if err != nil {
		return err
	}

	s3Client := s3.New(sess)
	_, err = s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(namespace),
		Key:    aws.String(key),
	})

	if err != nil {
		return errors.Wrapf(storage.ErrStorageFailed, "could not remove file %s from bucket %s: %v", key, namespace, err)
	}

	err = s3Client.WaitUntilObjectNotExistsWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(namespace),
		Key:    aws.String(key),
	})

	if err != nil {
		return errors.Wrapf(storage.ErrStorageFailed, "could not confirm removal of file %s from bucket %s: %v", key, namespace, err)
	}

	return nil
}

func (rs *RemoteStorage) ensureBucket(ctx context.Context, client *s3.S3, namespace string) error {
	_, err := client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{Bucket: aws.String(namespace)})
	if err == nil {
		return nil
	}

	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeBucketAlreadyExists, s3.ErrCodeBucketAlreadyOwnedByYou:
			return nil
		}
	}

	return errors.Wrapf(storage.ErrStorageFailed, "could not create namespace %s: %v", namespace, err)
}

func (rs *RemoteStorage) getSession() (*session.Session, error) {
	newSession, err := session.NewSession(rs.s3Config)
	if err != nil {
		return nil, errors.Wrapf(storage.ErrStorageFailed, "s3 session could not be created: %v", err)
	}

	return newSession, nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}

	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
		return true
	}

	return false
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
