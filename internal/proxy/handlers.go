package proxy

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type handler func(*requestContext) error
type errorHandler func(*requestContext)

func makeErrorHandler(err error, lg logrus.FieldLogger) errorHandler {
	return func(rCtx *requestContext) {
		var httpErr *httpError
		switch {
		case errors.As(err, &httpErr):
		case errors.Is(err, ErrResourceNotFound):
			httpErr = &httpError{statusCode: http.StatusNotFound, message: err.Error()}
		case errors.Is(err, ErrBadInput):
			httpErr = &httpError{statusCode: http.StatusBadRequest, message: err.Error()}
		default:
			httpErr = &httpError{statusCode: http.StatusInternalServerError, message: err.Error()}
		}

		if lg != nil && httpErr.statusCode >= http.StatusInternalServerError {
			lg.Errorln(httpErr.ErrorWithDetails())
		}

		rCtx.fail(httpErr)
	}
}

func makeOriginalHandler(imageProxy ImageProxy, cfg Config) handler {
	return func(rCtx *requestContext) error {
		shortID := rCtx.params[0]
		extension := rCtx.params[1]

		ctx, cancel := context.WithTimeout(rCtx.req.Context(), cfg.RequestTimeout)
		defer cancel()

		img, err := imageProxy.Prepare(ctx, shortID, extension)
		if err != nil {
			return err
		}

		rCtx.prepareDownloadHeaders(fmt.Sprintf("%s.%s", img.ShortID, extension), img.Mime, img.Size)

		if rCtx.req.Method == http.MethodHead {
			return nil
		}

		return imageProxy.Original(ctx, rCtx.resp, img)
	}
}

func makeLowFidelityHandler(imageProxy ImageProxy, cfg Config) handler {
	return func(rCtx *requestContext) error {
		shortID := rCtx.params[0]

		ctx, cancel := context.WithTimeout(rCtx.req.Context(), cfg.RequestTimeout)
		defer cancel()

		img, err := imageProxy.Prepare(ctx, shortID, "")
		if err != nil {
			return err
		}

		variant, err := imageProxy.LowFidelity(ctx, img)
		if err != nil {
			return err
		}

		filename := fmt.Sprintf("%s_lofi.%s", img.ShortID, variant.Format.Extension())
		rCtx.prepareDownloadHeaders(filename, variant.Mime, len(variant.Data))

		if rCtx.req.Method == http.MethodHead {
			return nil
		}

		if _, err := rCtx.resp.Write(variant.Data); err != nil {
			return errors.Wrapf(ErrInternalError, "could not write low fidelity variant of %s: %v", shortID, err)
		}

		return nil
	}
}

func (c *requestContext) prepareDownloadHeaders(filename, mime string, size int) {
	// Enable CORS for 3rd party applications
	c.resp.Header().Set("Access-Control-Allow-Origin", "*")

	// Served bytes are never meant to run scripts
	c.resp.Header().Set("Content-Security-Policy", "script-src 'none'")

	// Disable Content-Type sniffing
	c.resp.Header().Set("X-Content-Type-Options", "nosniff")

	c.resp.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s", filename))
	c.resp.Header().Set("Content-Type", mime)
	c.resp.Header().Set("Content-Length", strconv.Itoa(size))
}
