package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/denismitr/goenv"
	"github.com/denismitr/imagebin/cmd/initialize"
	"github.com/denismitr/imagebin/internal/media/manipulator"
	"github.com/denismitr/imagebin/internal/proxy"
)

func main() {
	initialize.DotEnv()
	log := initialize.Logger()

	registry, closeRegistry := initialize.Registry(30*time.Second, false)
	defer closeRegistry()

	storage := initialize.Storage()
	m := manipulator.New(manipulator.Config{}, log)

	imageProxy := proxy.NewStorageImageProxy(log, registry, storage, m)
	server := proxy.NewServer(proxy.Config{Port: goenv.MustString("PROXY_PORT")}, log, imageProxy)

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGTERM, syscall.SIGINT)

	if err := server.Run(stopCh, 10*time.Second); err != nil {
		log.Fatal(err)
	}
}
