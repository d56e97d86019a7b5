package registry

import (
	"context"

	"github.com/denismitr/imagebin/internal/media"
	"github.com/pkg/errors"
)

var ErrCouldNotOpenTx = errors.New("could not open tx")
var ErrRegistryReadFailed = errors.New("registry read error")
var ErrRegistryWriteFailed = errors.New("registry write error")
var ErrEntityNotFound = errors.New("entity not found")
var ErrEntityAlreadyExists = errors.New("entity already exists")
var ErrInvalidID = errors.New("invalid ID")

// Registry keeps image records. It is also the uniqueness oracle for
// short IDs: a short ID is taken while a non deleted image holds it, and
// CreateImage refuses a short ID another live image holds.
type Registry interface {
	GenerateID() media.ID
	ShortIDExists(ctx context.Context, sid media.ShortID) (bool, error)
	CreateImage(ctx context.Context, img *media.Image) error
	GetImageByID(ctx context.Context, id media.ID) (*media.Image, error)
	GetImageByShortID(ctx context.Context, sid media.ShortID) (*media.Image, error)
	RemoveImage(ctx context.Context, id media.ID) error
}
