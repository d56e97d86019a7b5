package media

import (
	"time"
)

// ID is the internal, registry issued key of an image. It doubles as the
// seed the short ID is derived from.
type ID string

func (id ID) String() string {
	return string(id)
}

func (id ID) None() bool {
	return id == ""
}

// ShortID is the public facing token of an image.
type ShortID string

const DefaultShortIDLength = 6

func (sid ShortID) String() string {
	return string(sid)
}

func (sid ShortID) None() bool {
	return sid == ""
}

type Image struct {
	ID           ID      `json:"-"`
	ShortID      ShortID `json:"id"`
	Name         string  `json:"name"`
	OriginalName string  `json:"originalName"`
	Format       Format  `json:"format"`
	Mime         string  `json:"mime"`
	Size         int     `json:"size"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Uploader     string  `json:"uploader,omitempty"`
	Namespace    string  `json:"-"`

	// Path in storage (namespace/imageID/filename)
	Path string `json:"-"`

	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"-"`
}

func (img *Image) Deleted() bool {
	return img.DeletedAt != nil
}

// Filename under which the payload is kept inside the image namespace
func (img *Image) Filename() string {
	return ComputeFilename(img.ID, img.Name, img.Format)
}

func ComputeFilename(imageID ID, name string, format Format) string {
	if name == "" {
		name = "original"
	}

	return imageID.String() + "/" + name + "." + format.Extension()
}

func ComputePath(namespace string, imageID ID, name string, format Format) string {
	return namespace + "/" + ComputeFilename(imageID, name, format)
}
