package badgerregistry

import (
	"context"
	"testing"
	"time"

	"github.com/denismitr/imagebin/internal/media"
	"github.com/denismitr/imagebin/internal/registry"
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *BadgerRegistry {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	require.NoError(t, err)

	r := New(db)
	t.Cleanup(func() {
		_ = r.Close()
	})

	return r
}

func newImage(r *BadgerRegistry, sid string) *media.Image {
	id := r.GenerateID()

	return &media.Image{
		ID:           id,
		ShortID:      media.ShortID(sid),
		Name:         "sunset",
		OriginalName: "Sunset.JPG",
		Format:       media.JPEG,
		Mime:         "image/jpeg",
		Size:         1024,
		Width:        640,
		Height:       480,
		Uploader:     "user-1",
		Namespace:    "images",
		Path:         media.ComputePath("images", id, "sunset", media.JPEG),
		CreatedAt:    time.Now().Round(time.Millisecond),
	}
}

func TestBadgerRegistry_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	img := newImage(r, "a1b2c3")
	require.NoError(t, r.CreateImage(ctx, img))

	t.Run("by id", func(t *testing.T) {
		found, err := r.GetImageByID(ctx, img.ID)
		require.NoError(t, err)
		assert.Equal(t, img.ShortID, found.ShortID)
		assert.Equal(t, img.Name, found.Name)
		assert.Equal(t, img.OriginalName, found.OriginalName)
		assert.Equal(t, img.Format, found.Format)
		assert.Equal(t, img.Mime, found.Mime)
		assert.Equal(t, img.Size, found.Size)
		assert.Equal(t, img.Width, found.Width)
		assert.Equal(t, img.Height, found.Height)
		assert.Equal(t, img.Uploader, found.Uploader)
		assert.Equal(t, img.Path, found.Path)
		assert.True(t, img.CreatedAt.Equal(found.CreatedAt))
		assert.False(t, found.Deleted())
	})

	t.Run("by short id", func(t *testing.T) {
		found, err := r.GetImageByShortID(ctx, "a1b2c3")
		require.NoError(t, err)
		assert.Equal(t, img.ID, found.ID)
	})

	t.Run("short id is taken", func(t *testing.T) {
		exists, err := r.ShortIDExists(ctx, "a1b2c3")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = r.ShortIDExists(ctx, "ffffff")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestBadgerRegistry_DuplicateShortID(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	require.NoError(t, r.CreateImage(ctx, newImage(r, "abcdef")))

	err := r.CreateImage(ctx, newImage(r, "abcdef"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrEntityAlreadyExists))
}

func TestBadgerRegistry_NotFound(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	tt := []struct {
		name string
		call func() error
		want error
	}{
		{
			name: "unknown id",
			call: func() error { _, err := r.GetImageByID(ctx, r.GenerateID()); return err },
			want: registry.ErrEntityNotFound,
		},
		{
			name: "unknown short id",
			call: func() error { _, err := r.GetImageByShortID(ctx, "000000"); return err },
			want: registry.ErrEntityNotFound,
		},
		{
			name: "remove unknown id",
			call: func() error { return r.RemoveImage(ctx, r.GenerateID()) },
			want: registry.ErrEntityNotFound,
		},
		{
			name: "empty short id",
			call: func() error { _, err := r.GetImageByShortID(ctx, ""); return err },
			want: registry.ErrInvalidID,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestBadgerRegistry_RemoveFreesShortID(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	img := newImage(r, "c0ffee")
	require.NoError(t, r.CreateImage(ctx, img))
	require.NoError(t, r.RemoveImage(ctx, img.ID))

	exists, err := r.ShortIDExists(ctx, "c0ffee")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = r.GetImageByShortID(ctx, "c0ffee")
	assert.True(t, errors.Is(err, registry.ErrEntityNotFound))

	removed, err := r.GetImageByID(ctx, img.ID)
	require.NoError(t, err)
	assert.True(t, removed.Deleted())

	err = r.RemoveImage(ctx, img.ID)
	assert.True(t, errors.Is(err, registry.ErrEntityNotFound))

	reused := newImage(r, "c0ffee")
	require.NoError(t, r.CreateImage(ctx, reused))

	found, err := r.GetImageByShortID(ctx, "c0ffee")
	require.NoError(t, err)
	assert.Equal(t, reused.ID, found.ID)
}
