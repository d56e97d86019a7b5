package backoffice

import "io"

type createImageDTO struct {
	name         string
	originalName string
	uploader     string
	source       io.Reader
}
