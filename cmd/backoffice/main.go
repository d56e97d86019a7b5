package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/denismitr/goenv"
	"github.com/denismitr/imagebin/cmd/initialize"
	"github.com/denismitr/imagebin/internal/backoffice"
	"github.com/denismitr/imagebin/internal/ingest"
	"github.com/denismitr/imagebin/internal/media/manipulator"
	"github.com/denismitr/imagebin/internal/shortid"
	"github.com/labstack/echo/v4"
)

var (
	migrate = flag.Bool("migrate", false, "Run the migrations?")
)

func main() {
	flag.Parse()

	initialize.DotEnv()
	log := initialize.Logger()

	registry, closeRegistry := initialize.Registry(10*time.Second, *migrate)
	defer closeRegistry()

	storage := initialize.Storage()

	m := manipulator.New(manipulator.Config{}, log)
	images := backoffice.NewImageService(
		backoffice.Config{
			Namespace:     initialize.Namespace(),
			ShortIDLength: initialize.ShortIDLength(),
		},
		registry,
		storage,
		shortid.New(shortid.Config{Length: initialize.ShortIDLength()}),
		ingest.New(m, log),
		log,
	)

	server := backoffice.NewServer(
		echo.New(),
		backoffice.ServerConfig{Port: goenv.MustString("BACKOFFICE_PORT")},
		images,
		log,
	)

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGTERM, syscall.SIGINT)

	if err := server.Run(stopCh, 10*time.Second); err != nil {
		log.Fatal(err)
	}
}
