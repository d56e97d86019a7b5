package backoffice

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/denismitr/imagebin/internal/media"
	"github.com/denismitr/imagebin/internal/media/manipulator"
	"github.com/denismitr/imagebin/internal/shortid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const uploaderHeader = "X-Uploader-ID"

type ServerConfig struct {
	Port string

	// BodyLimit in the echo notation, e.g. 10M
	BodyLimit string

	RequestTimeout time.Duration
}

type Server struct {
	cfg    ServerConfig
	e      *echo.Echo
	images *ImageService
	logger logrus.FieldLogger
}

func NewServer(e *echo.Echo, cfg ServerConfig, images *ImageService, logger logrus.FieldLogger) *Server {
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = "10M"
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 25 * time.Second
	}

	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	s := &Server{cfg: cfg, e: e, images: images, logger: logger}

	e.POST("/api/v1/images", s.createNewImage)
	e.GET("/api/v1/images/:shortId", s.getImage)
	e.DELETE("/api/v1/images/:shortId", s.removeImage)

	return s
}

// Run the server
func (s *Server) Run(stopCh <-chan os.Signal, shutDownTime time.Duration) error {
	s.logger.Println("Backoffice server : Starting")

	serverError := make(chan error, 1)
	go func() {
		if err := s.e.Start(s.cfg.Port); err != nil && err != http.ErrServerClosed {
			serverError <- errors.Wrap(err, "http server error")
		}
	}()

	select {
	case err := <-serverError:
		return err
	case <-stopCh:
		s.logger.Println("Backoffice server : Received stop signal")

		ctx, cancel := context.WithTimeout(context.Background(), shutDownTime)
		defer cancel()

		if stopErr := s.e.Shutdown(ctx); stopErr != nil {
			closeErr := s.e.Close()
			return errors.Wrap(closeErr, stopErr.Error())
		}

		return nil
	}
}

func (s *Server) createNewImage(rCtx echo.Context) error {
	file, err := rCtx.FormFile("file")
	if err != nil {
		return rCtx.JSON(badRequest(errors.Wrap(err, "multipart field file is required")))
	}

	source, err := file.Open()
	if err != nil {
		return rCtx.JSON(badRequest(err))
	}
	defer source.Close()

	dto := createImageDTO{
		name:         rCtx.FormValue("name"),
		originalName: file.Filename,
		uploader:     rCtx.Request().Header.Get(uploaderHeader),
		source:       source,
	}

	ctx, cancel := context.WithTimeout(rCtx.Request().Context(), s.cfg.RequestTimeout)
	defer cancel()

	img, err := s.images.createNewImage(ctx, &dto)
	if err != nil {
		return s.fail(rCtx, err)
	}

	return rCtx.JSON(http.StatusCreated, newImageResponse(img))
}

func (s *Server) getImage(rCtx echo.Context) error {
	ctx, cancel := context.WithTimeout(rCtx.Request().Context(), 2*time.Second)
	defer cancel()

	img, err := s.images.getImage(ctx, rCtx.Param("shortId"))
	if err != nil {
		return s.fail(rCtx, err)
	}

	return rCtx.JSON(http.StatusOK, newImageResponse(img))
}

func (s *Server) removeImage(rCtx echo.Context) error {
	ctx, cancel := context.WithTimeout(rCtx.Request().Context(), 5*time.Second)
	defer cancel()

	if err := s.images.removeImage(ctx, rCtx.Param("shortId")); err != nil {
		return s.fail(rCtx, err)
	}

	return rCtx.NoContent(http.StatusNoContent)
}

func (s *Server) fail(rCtx echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrResourceNotFound):
		return rCtx.JSON(notFound(err))
	case errors.Is(err, ErrBadInput):
		return rCtx.JSON(badRequest(err))
	case errors.Is(err, media.ErrUnsupportedFormat):
		return rCtx.JSON(unsupportedMediaType(err))
	case errors.Is(err, manipulator.ErrMalformedPayload):
		return rCtx.JSON(unprocessableEntity(err))
	case errors.Is(err, shortid.ErrOracleFailed):
		s.logger.WithError(err).Warn("short id oracle unavailable")
		return rCtx.JSON(serviceUnavailable(err))
	default:
		s.logger.WithError(err).Error("backoffice request failed")
		return rCtx.JSON(internalError(err))
	}
}
