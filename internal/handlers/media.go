package handlers

import (
	"context"
	"io"

	"videotube/internal/service/media"
)

// Uploaded files are buffered in memory up to this size
const maxUploadBytes = 32 << 20

type mediaStore interface {
	Upload(ctx context.Context, kind string, body io.Reader, contentType string) (media.Object, error)
	Delete(ctx context.Context, key string) error
}
