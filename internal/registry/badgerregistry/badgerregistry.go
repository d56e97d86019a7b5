package badgerregistry

import (
	"context"
	"time"

	"github.com/denismitr/imagebin/internal/media"
	"github.com/denismitr/imagebin/internal/registry"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// BadgerRegistry keeps image records in an embedded badger database.
// Records live under img/<id>; every live image also owns a sid/<shortId>
// key pointing back at its ID, which is what makes short IDs unique.
type BadgerRegistry struct {
	db *badger.DB
}

var _ registry.Registry = (*BadgerRegistry)(nil)

func Open(path string) (*BadgerRegistry, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open badger database at %s", path)
	}

	return New(db), nil
}

func New(db *badger.DB) *BadgerRegistry {
	return &BadgerRegistry{db: db}
}

func (r *BadgerRegistry) Close() error {
	return r.db.Close()
}

func (r *BadgerRegistry) GenerateID() media.ID {
	return media.ID(uuid.NewString())
}

func (r *BadgerRegistry) ShortIDExists(ctx context.Context, sid media.ShortID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var exists bool
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(shortIDKey(sid))
		if err == badger.ErrKeyNotFound {
			return nil
		}

		if err != nil {
			return err
		}

		exists = true
		return nil
	})

	if err != nil {
		return false, errors.Wrapf(registry.ErrRegistryReadFailed, "badger could not look up short id %s: %v", sid, err)
	}

	return exists, nil
}

func (r *BadgerRegistry) CreateImage(ctx context.Context, img *media.Image) error {
	if img.ID.None() || img.ShortID.None() {
		return registry.ErrInvalidID
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeImage(img)
	if err != nil {
		return errors.Wrapf(registry.ErrRegistryWriteFailed, "could not encode image %s: %v", img.ID, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(shortIDKey(img.ShortID)); err == nil {
			return errors.Wrapf(registry.ErrEntityAlreadyExists, "short id %s is held by another image", img.ShortID)
		} else if err != badger.ErrKeyNotFound {
			return errors.Wrapf(registry.ErrRegistryReadFailed, "badger could not look up short id %s: %v", img.ShortID, err)
		}

		if _, err := txn.Get(imageKey(img.ID)); err == nil {
			return errors.Wrapf(registry.ErrEntityAlreadyExists, "image %s already exists", img.ID)
		} else if err != badger.ErrKeyNotFound {
			return errors.Wrapf(registry.ErrRegistryReadFailed, "badger could not look up image %s: %v", img.ID, err)
		}

		if err := txn.Set(imageKey(img.ID), data); err != nil {
			return err
		}

		return txn.Set(shortIDKey(img.ShortID), []byte(img.ID.String()))
	})

	switch {
	case err == nil:
		return nil
	case err == badger.ErrConflict:
		// a concurrent transaction claimed the same short id first
		return errors.Wrapf(registry.ErrEntityAlreadyExists, "short id %s was claimed concurrently", img.ShortID)
	case errors.Is(err, registry.ErrEntityAlreadyExists), errors.Is(err, registry.ErrRegistryReadFailed):
		return err
	default:
		return errors.Wrapf(registry.ErrRegistryWriteFailed, "badger could not store image %s: %v", img.ID, err)
	}
}

func (r *BadgerRegistry) GetImageByID(ctx context.Context, id media.ID) (*media.Image, error) {
	if id.None() {
		return nil, registry.ErrInvalidID
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var img *media.Image
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		img, err = getImage(txn, id)
		return err
	})

	if err != nil {
		return nil, err
	}

	return img, nil
}

func (r *BadgerRegistry) GetImageByShortID(ctx context.Context, sid media.ShortID) (*media.Image, error) {
	if sid.None() {
		return nil, registry.ErrInvalidID
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var img *media.Image
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(shortIDKey(sid))
		if err == badger.ErrKeyNotFound {
			return errors.Wrapf(registry.ErrEntityNotFound, "image with short id %s not found", sid)
		}

		if err != nil {
			return errors.Wrapf(registry.ErrRegistryReadFailed, "badger could not look up short id %s: %v", sid, err)
		}

		id, err := item.ValueCopy(nil)
		if err != nil {
			return errors.Wrapf(registry.ErrRegistryReadFailed, "badger could not read short id %s: %v", sid, err)
		}

		img, err = getImage(txn, media.ID(id))
		return err
	})

	if err != nil {
		return nil, err
	}

	return img, nil
}

// RemoveImage marks the image deleted and drops its short ID key, so the
// short ID can be allocated again.
func (r *BadgerRegistry) RemoveImage(ctx context.Context, id media.ID) error {
	if id.None() {
		return registry.ErrInvalidID
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(txn *badger.Txn) error {
		img, err := getImage(txn, id)
		if err != nil {
			return err
		}

		if img.Deleted() {
			return errors.Wrapf(registry.ErrEntityNotFound, "image %s not found", id)
		}

		now := time.Now()
		img.DeletedAt = &now

		data, err := encodeImage(img)
		if err != nil {
			return errors.Wrapf(registry.ErrRegistryWriteFailed, "could not encode image %s: %v", id, err)
		}

		if err := txn.Set(imageKey(id), data); err != nil {
			return errors.Wrapf(registry.ErrRegistryWriteFailed, "could not mark image %s deleted: %v", id, err)
		}

		if err := txn.Delete(shortIDKey(img.ShortID)); err != nil {
			return errors.Wrapf(registry.ErrRegistryWriteFailed, "could not release short id %s: %v", img.ShortID, err)
		}

		return nil
	})
}

func getImage(txn *badger.Txn, id media.ID) (*media.Image, error) {
	item, err := txn.Get(imageKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, errors.Wrapf(registry.ErrEntityNotFound, "image %s not found", id)
	}

	if err != nil {
		return nil, errors.Wrapf(registry.ErrRegistryReadFailed, "badger could not get image %s: %v", id, err)
	}

	var img *media.Image
	err = item.Value(func(val []byte) error {
		var err error
		img, err = decodeImage(val)
		return err
	})

	if err != nil {
		return nil, errors.Wrapf(registry.ErrRegistryReadFailed, "could not decode image %s: %v", id, err)
	}

	return img, nil
}
