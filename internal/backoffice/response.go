package backoffice

import (
	"net/http"
	"time"

	"github.com/denismitr/imagebin/internal/media"
)

type errorResponse struct {
	Message string `json:"message"`
}

type imageResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OriginalName string    `json:"originalName"`
	Format       string    `json:"format"`
	Mime         string    `json:"mime"`
	Size         int       `json:"size"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Uploader     string    `json:"uploader,omitempty"`
	URL          string    `json:"url"`
	LofiURL      string    `json:"lofiUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}

func newImageResponse(img *media.Image) imageResponse {
	return imageResponse{
		ID:           img.ShortID.String(),
		Name:         img.Name,
		OriginalName: img.OriginalName,
		Format:       img.Format.String(),
		Mime:         img.Mime,
		Size:         img.Size,
		Width:        img.Width,
		Height:       img.Height,
		Uploader:     img.Uploader,
		URL:          "/i/" + img.ShortID.String() + "." + img.Format.Extension(),
		LofiURL:      "/i/" + img.ShortID.String() + "/lofi",
		CreatedAt:    img.CreatedAt,
	}
}

func internalError(err error) (int, errorResponse) {
	return http.StatusInternalServerError, errorResponse{Message: err.Error()}
}

func badRequest(err error) (int, errorResponse) {
	return http.StatusBadRequest, errorResponse{Message: err.Error()}
}

func notFound(err error) (int, errorResponse) {
	return http.StatusNotFound, errorResponse{Message: err.Error()}
}

func unsupportedMediaType(err error) (int, errorResponse) {
	return http.StatusUnsupportedMediaType, errorResponse{Message: err.Error()}
}

func unprocessableEntity(err error) (int, errorResponse) {
	return http.StatusUnprocessableEntity, errorResponse{Message: err.Error()}
}

func serviceUnavailable(err error) (int, errorResponse) {
	return http.StatusServiceUnavailable, errorResponse{Message: err.Error()}
}
