package mgoregistry

import (
	"context"
	"time"

	"github.com/denismitr/imagebin/internal/registry"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const duplicateKeyCode = 11000

func (r *MongoRegistry) findImage(ctx context.Context, filter bson.M) (*imageRecord, error) {
	var record imageRecord
	if err := r.images.FindOne(ctx, filter).Decode(&record); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.Wrapf(registry.ErrEntityNotFound, "image %v not found", filter)
		}

		return nil, errors.Wrapf(registry.ErrRegistryReadFailed, "mongodb could not get image %v: %v", filter, err)
	}

	return &record, nil
}

func (r *MongoRegistry) createImage(ctx mongo.SessionContext, ir *imageRecord) error {
	result, err := r.images.InsertOne(ctx, ir)
	if err != nil {
		if isDuplicateKey(err) {
			return errors.Wrapf(
				registry.ErrEntityAlreadyExists,
				"short id %s is held by another image",
				ir.ShortID)
		}

		return errors.Wrapf(registry.ErrRegistryWriteFailed, "could not insert image into MongoDB collection %v", err)
	}

	if result == nil {
		return errors.Wrap(registry.ErrRegistryWriteFailed, "mongodb returned no insert result")
	}

	return nil
}

func (r *MongoRegistry) markDeleted(ctx mongo.SessionContext, imageID primitive.ObjectID, at time.Time) error {
	result, err := r.images.UpdateOne(
		ctx,
		bson.M{"_id": imageID, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true, "deletedAt": at}},
	)

	if err != nil {
		return errors.Wrapf(registry.ErrRegistryWriteFailed, "could not mark image %s deleted: %v", imageID.Hex(), err)
	}

	if result.MatchedCount == 0 {
		return errors.Wrapf(registry.ErrEntityNotFound, "image %s not found", imageID.Hex())
	}

	return nil
}

func isDuplicateKey(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == duplicateKeyCode {
				return true
			}
		}
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == duplicateKeyCode
	}

	return false
}
