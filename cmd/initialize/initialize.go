package initialize

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/denismitr/goenv"
	"github.com/denismitr/imagebin/internal/registry"
	"github.com/denismitr/imagebin/internal/registry/badgerregistry"
	"github.com/denismitr/imagebin/internal/registry/mgoregistry"
	"github.com/denismitr/imagebin/internal/storage"
	"github.com/denismitr/imagebin/internal/storage/fsstorage"
	"github.com/denismitr/imagebin/internal/storage/s3storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DotEnv loads .env files when present; real environment variables win
func DotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		panic("Error loading .env file: " + err.Error())
	}
}

func Logger() *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stderr
	log.Formatter = &logrus.TextFormatter{
		TimestampFormat: time.StampMilli,
		FullTimestamp:   true,
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		level, err := logrus.ParseLevel(lvl)
		if err != nil {
			panic(err)
		}

		log.SetLevel(level)
	}

	return log
}

func Namespace() string {
	return stringOrDefault("IMAGES_NAMESPACE", "images")
}

// ShortIDLength is 0 when unset, which leaves the allocator default in place
func ShortIDLength() int {
	v := os.Getenv("SHORTID_LENGTH")
	if v == "" {
		return 0
	}

	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		panic("SHORTID_LENGTH must be a positive integer, got " + v)
	}

	return n
}

// Registry picks the registry driver from REGISTRY_DRIVER, mongo by default
func Registry(connectionTimeout time.Duration, migrate bool) (registry.Registry, func()) {
	switch driver := stringOrDefault("REGISTRY_DRIVER", "mongo"); driver {
	case "mongo":
		return MongoRegistry(connectionTimeout, migrate)
	case "badger":
		return BadgerRegistry()
	default:
		panic("unknown REGISTRY_DRIVER " + driver)
	}
}

func MongoRegistry(connectionTimeout time.Duration, migrate bool) (*mgoregistry.MongoRegistry, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(goenv.MustString("MONGODB_URL")))
	if err != nil {
		panic(err)
	}

	r := mgoregistry.New(client, mgoregistry.Config{
		DB:               goenv.MustString("MONGODB_DATABASE"),
		ImagesCollection: "images",
	})

	if migrate {
		if err := r.Migrate(ctx); err != nil {
			panic(err)
		}
	}

	return r, func() {
		if err := client.Disconnect(context.Background()); err != nil {
			panic(err)
		}
	}
}

func BadgerRegistry() (*badgerregistry.BadgerRegistry, func()) {
	r, err := badgerregistry.Open(goenv.MustString("BADGER_PATH"))
	if err != nil {
		panic(err)
	}

	return r, func() {
		if err := r.Close(); err != nil {
			panic(err)
		}
	}
}

// Storage picks the storage driver from STORAGE_DRIVER, s3 by default
func Storage() storage.Storage {
	switch driver := stringOrDefault("STORAGE_DRIVER", "s3"); driver {
	case "s3":
		return S3StorageFromEnv()
	case "fs":
		return FSStorageFromEnv()
	default:
		panic("unknown STORAGE_DRIVER " + driver)
	}
}

func S3StorageFromEnv() *s3storage.RemoteStorage {
	cfg := s3storage.Config{
		AccessKey:        goenv.MustString("S3_ACCESS_KEY_ID"),
		AccessSecret:     goenv.MustString("S3_SECRET_ACCESS_KEY"),
		AccessToken:      "",
		Region:           goenv.MustString("S3_REGION"),
		Endpoint:         goenv.MustString("S3_ENDPOINT"),
		S3ForcePathStyle: goenv.IsTruthy("S3_FORCE_PATH_STYLE"),
		EnableSSL:        goenv.IsTruthy("S3_SSL"),
	}

	return s3storage.New(cfg)
}

func FSStorageFromEnv() *fsstorage.LocalStorage {
	s, err := fsstorage.New(goenv.MustString("FS_STORAGE_ROOT"))
	if err != nil {
		panic(err)
	}

	return s
}

func stringOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
