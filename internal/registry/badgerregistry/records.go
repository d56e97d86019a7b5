package badgerregistry

import (
	"time"

	"github.com/denismitr/imagebin/internal/media"
	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("badgerregistry: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("badgerregistry: CBOR decoder initialization failed: " + err.Error())
	}
}

type imageRecord struct {
	ID           string     `cbor:"id"`
	ShortID      string     `cbor:"shortId"`
	Name         string     `cbor:"name"`
	OriginalName string     `cbor:"originalName"`
	Format       string     `cbor:"format"`
	Mime         string     `cbor:"mime"`
	Size         int        `cbor:"size"`
	Width        int        `cbor:"width"`
	Height       int        `cbor:"height"`
	Uploader     string     `cbor:"uploader,omitempty"`
	Namespace    string     `cbor:"namespace"`
	Path         string     `cbor:"path"`
	CreatedAt    time.Time  `cbor:"createdAt"`
	DeletedAt    *time.Time `cbor:"deletedAt,omitempty"`
}

func imageKey(id media.ID) []byte {
	return []byte("img/" + id.String())
}

func shortIDKey(sid media.ShortID) []byte {
	return []byte("sid/" + sid.String())
}

func encodeImage(img *media.Image) ([]byte, error) {
	return encMode.Marshal(imageRecord{
		ID:           img.ID.String(),
		ShortID:      img.ShortID.String(),
		Name:         img.Name,
		OriginalName: img.OriginalName,
		Format:       img.Format.String(),
		Mime:         img.Mime,
		Size:         img.Size,
		Width:        img.Width,
		Height:       img.Height,
		Uploader:     img.Uploader,
		Namespace:    img.Namespace,
		Path:         img.Path,
		CreatedAt:    img.CreatedAt,
		DeletedAt:    img.DeletedAt,
	})
}

func decodeImage(data []byte) (*media.Image, error) {
	var r imageRecord
	if err := decMode.Unmarshal(data, &r); err != nil {
		return nil, err
	}

	return &media.Image{
		ID:           media.ID(r.ID),
		ShortID:      media.ShortID(r.ShortID),
		Name:         r.Name,
		OriginalName: r.OriginalName,
		Format:       media.Format(r.Format),
		Mime:         r.Mime,
		Size:         r.Size,
		Width:        r.Width,
		Height:       r.Height,
		Uploader:     r.Uploader,
		Namespace:    r.Namespace,
		Path:         r.Path,
		CreatedAt:    r.CreatedAt,
		DeletedAt:    r.DeletedAt,
	}, nil
}
