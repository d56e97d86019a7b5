package fsstorage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/denismitr/imagebin/internal/storage"
	"github.com/pkg/errors"
)

// LocalStorage keeps files under root/<namespace>/<key>
type LocalStorage struct {
	root string
}

var _ storage.Storage = (*LocalStorage)(nil)

func New(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrapf(storage.ErrStorageFailed, "could not create storage directory %s: %v", root, err)
	}

	return &LocalStorage{root: root}, nil
}

func (ls *LocalStorage) Put(ctx context.Context, namespace, key string, source io.Reader) (*storage.Item, error) {
	path, err := ls.resolve(namespace, key)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(storage.ErrStorageFailed, "could not create directory %s: %v", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, errors.Wrapf(storage.ErrStorageFailed, "could not create file in %s: %v", dir, err)
	}

	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, source)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return nil, errors.Wrapf(storage.ErrStorageFailed, "could not write file %s to namespace %s: %v", key, namespace, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, errors.Wrapf(storage.ErrStorageFailed, "could not move file %s into place: %v", key, err)
	}

	return &storage.Item{
		Namespace: namespace,
		Key:       key,
		Size:      size,
	}, nil
}

func (ls *LocalStorage) Download(ctx context.Context, dst io.Writer, namespace, key string) error {
	path, err := ls.resolve(namespace, key)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(storage.ErrFileNotFound, "file %s in namespace %s", key, namespace)
		}

		return errors.Wrapf(storage.ErrStorageFailed, "could not open file %s: %v", key, err)
	}

	defer func() {
		_ = f.Close()
	}()

	if _, err := io.Copy(dst, f); err != nil {
		return errors.Wrapf(storage.ErrStorageFailed, "could not read file %s from namespace %s: %v", key, namespace, err)
	}

	return nil
}

// Remove deletes the file; a missing file counts as already removed
func (ls *LocalStorage) Remove(ctx context.Context, namespace, key string) error {
	path, err := ls.resolve(namespace, key)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(storage.ErrStorageFailed, "could not remove file %s from namespace %s: %v", key, namespace, err)
	}

	// the per image directory is left behind once empty
	_ = os.Remove(filepath.Dir(path))

	return nil
}

func (ls *LocalStorage) resolve(namespace, key string) (string, error) {
	if !storage.IsValidKey(key) {
		return "", errors.Wrapf(storage.ErrInvalidKey, "key [%s]", key)
	}

	if namespace == "" || namespace != filepath.Base(namespace) || namespace == ".." {
		return "", errors.Wrapf(storage.ErrInvalidKey, "namespace [%s]", namespace)
	}

	return filepath.Join(ls.root, namespace, filepath.FromSlash(key)), nil
}
