package mgoregistry

import (
	"fmt"
	"time"

	"github.com/denismitr/imagebin/internal/media"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type imageRecord struct {
	ID           primitive.ObjectID `bson:"_id"`
	ShortID      string             `bson:"shortId"`
	Name         string             `bson:"name"`
	OriginalName string             `bson:"originalName"`
	Format       string             `bson:"format"`
	Mime         string             `bson:"mime"`
	Size         int                `bson:"size"`
	Width        int                `bson:"width"`
	Height       int                `bson:"height"`
	Uploader     string             `bson:"uploader,omitempty"`
	Namespace    string             `bson:"namespace"`
	Path         string             `bson:"path"`
	CreatedAt    time.Time          `bson:"createdAt"`
	Deleted      bool               `bson:"deleted"`
	DeletedAt    *time.Time         `bson:"deletedAt"`
}

func mapImageToMongoRecord(img *media.Image) *imageRecord {
	if img.ID.None() {
		panic("how can image ID be empty")
	}

	imgID, err := primitive.ObjectIDFromHex(img.ID.String())
	if err != nil {
		panic(fmt.Sprintf("invalid image ID [%s]", img.ID.String()))
	}

	return &imageRecord{
		ID:           imgID,
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
		Deleted:      img.DeletedAt != nil,
		DeletedAt:    img.DeletedAt,
	}
}

func mapMongoRecordToImage(ir *imageRecord) *media.Image {
	return &media.Image{
		ID:           media.ID(ir.ID.Hex()),
		ShortID:      media.ShortID(ir.ShortID),
		Name:         ir.Name,
		OriginalName: ir.OriginalName,
		Format:       media.Format(ir.Format),
		Mime:         ir.Mime,
		Size:         ir.Size,
		Width:        ir.Width,
		Height:       ir.Height,
		Uploader:     ir.Uploader,
		Namespace:    ir.Namespace,
		Path:         ir.Path,
		CreatedAt:    ir.CreatedAt,
		DeletedAt:    ir.DeletedAt,
	}
}
