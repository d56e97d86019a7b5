package storage

import (
	"context"
	"io"
	"regexp"

	"github.com/pkg/errors"
)

var ErrStorageFailed = errors.New("storage failed")
var ErrFileNotFound = errors.New("file not found")
var ErrInvalidKey = errors.New("invalid storage key")

// keys are <imageID>/<name>.<ext>
var keyRegexp = regexp.MustCompile(`^[0-9a-zA-Z-]+/[0-9a-z_-]+\.(jpg|png|gif|bmp|tiff|webp|bin)$`)

type Item struct {
	Namespace string
	Key       string
	Size      int64
}

func (i Item) Path() string {
	return i.Namespace + "/" + i.Key
}

type Storage interface {
	Put(ctx context.Context, namespace, key string, source io.Reader) (*Item, error)
	Download(ctx context.Context, dst io.Writer, namespace, key string) error
	Remove(ctx context.Context, namespace, key string) error
}

func IsValidKey(key string) bool {
	return keyRegexp.MatchString(key)
}
