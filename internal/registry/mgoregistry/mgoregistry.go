package mgoregistry

import (
	"context"
	"time"

	"github.com/denismitr/imagebin/internal/media"
	"github.com/denismitr/imagebin/internal/registry"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type Config struct {
	DB               string
	ImagesCollection string
}

type MongoRegistry struct {
	client *mongo.Client
	db     *mongo.Database
	images *mongo.Collection
}

var _ registry.Registry = (*MongoRegistry)(nil)

func New(client *mongo.Client, cfg Config) *MongoRegistry {
	r := MongoRegistry{
		client: client,
		db:     client.Database(cfg.DB),
	}

	r.images = r.db.Collection(cfg.ImagesCollection)

	return &r
}

func (r *MongoRegistry) GenerateID() media.ID {
	return media.ID(primitive.NewObjectID().Hex())
}

// Migrate creates the unique index that keeps short IDs of live images
// unique. Deleted images drop out of the index, which frees their short IDs.
func (r *MongoRegistry) Migrate(ctx context.Context) error {
	_, err := r.images.Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys: bson.M{"shortId": 1},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"deleted": false}),
		},
	)

	if err != nil {
		return errors.Wrap(err, "could not create short id index on images collection")
	}

	return nil
}

func (r *MongoRegistry) ShortIDExists(ctx context.Context, sid media.ShortID) (bool, error) {
	n, err := r.images.CountDocuments(
		ctx,
		bson.M{"shortId": sid.String(), "deleted": false},
		options.Count().SetLimit(1),
	)

	if err != nil {
		return false, errors.Wrapf(registry.ErrRegistryReadFailed, "mongodb could not look up short id %s: %v", sid, err)
	}

	return n > 0, nil
}

func (r *MongoRegistry) CreateImage(ctx context.Context, img *media.Image) error {
	return r.transaction(ctx, 3*time.Second, func(sessCtx mongo.SessionContext) error {
		return r.createImage(sessCtx, mapImageToMongoRecord(img))
	})
}

func (r *MongoRegistry) GetImageByID(ctx context.Context, ID media.ID) (*media.Image, error) {
	imageID, err := primitive.ObjectIDFromHex(ID.String())
	if err != nil {
		return nil, registry.ErrInvalidID
	}

	ir, err := r.findImage(ctx, bson.M{"_id": imageID})
	if err != nil {
		return nil, err
	}

	return mapMongoRecordToImage(ir), nil
}

func (r *MongoRegistry) GetImageByShortID(ctx context.Context, sid media.ShortID) (*media.Image, error) {
	if sid.None() {
		return nil, registry.ErrInvalidID
	}

	ir, err := r.findImage(ctx, bson.M{"shortId": sid.String(), "deleted": false})
	if err != nil {
		return nil, err
	}

	return mapMongoRecordToImage(ir), nil
}

// RemoveImage marks the image deleted, releasing its short ID
func (r *MongoRegistry) RemoveImage(ctx context.Context, ID media.ID) error {
	imageID, err := primitive.ObjectIDFromHex(ID.String())
	if err != nil {
		return registry.ErrInvalidID
	}

	return r.transaction(ctx, 2*time.Second, func(sessCtx mongo.SessionContext) error {
		return r.markDeleted(sessCtx, imageID, time.Now())
	})
}

func (r *MongoRegistry) transaction(ctx context.Context, commitTime time.Duration, f func(sessCtx mongo.SessionContext) error) error {
	wc := writeconcern.New(writeconcern.WMajority())
	rc := readconcern.Snapshot()

	txnOpts := options.Transaction().
		SetWriteConcern(wc).
		SetReadConcern(rc).
		SetMaxCommitTime(&commitTime)

	sess, err := r.client.StartSession()
	if err != nil {
		return errors.Wrapf(registry.ErrCouldNotOpenTx, "mongo db session failed %v", err)
	}

	defer sess.EndSession(ctx)

	_, txErr := sess.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := f(sessCtx); err != nil {
			return nil, err
		}

		return nil, nil
	}, txnOpts)

	if txErr != nil {
		return txErr
	}

	return nil
}
