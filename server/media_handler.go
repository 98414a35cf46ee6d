package server

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tunecrate/config"
	"tunecrate/logger"
	"tunecrate/storage"

	"github.com/minio/minio-go/v7"
)

// MediaHandler serves mirrored objects straight from MinIO. Song thumbnails
// persist "/media/thumbs/<videoID>.jpg" paths, which resolve here.
type MediaHandler struct {
	cfg *config.Config
}

// NewMediaHandler creates a MediaHandler.
func NewMediaHandler(cfg *config.Config) *MediaHandler {
	return &MediaHandler{cfg: cfg}
}

// ServeHTTP implements http.Handler.
func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	objectPath := strings.TrimPrefix(r.URL.Path, "/media/")

	client := storage.GetMinioClient()
	if client == nil {
		// Mirroring disabled; nothing under /media/ can exist.
		respondError(w, http.StatusNotFound, "Media not found")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	object, err := client.GetObject(ctx, h.cfg.MinioBucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		respondError(w, http.StatusNotFound, "Media not found")
		return
	}
	defer object.Close()

	// GetObject is lazy; Stat surfaces missing objects before we commit to
	// a 200.
	stat, err := object.Stat()
	if err != nil {
		respondError(w, http.StatusNotFound, "Media not found")
		return
	}

	w.Header().Set("Content-Type", detectContentType(objectPath))
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.Header().Set("Content-Length", strconv.FormatInt(stat.Size, 10))

	if _, err := io.Copy(w, object); err != nil {
		logger.Error("[Media] failed to serve object",
			logger.String("object", objectPath),
			logger.ErrorField(err))
	}
}

// detectContentType maps an object path prefix to its content type.
func detectContentType(path string) string {
	switch {
	case strings.HasPrefix(path, "thumbs/"):
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
