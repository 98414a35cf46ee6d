package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaRouteRegistered(t *testing.T) {
	env := newTestEnv(t)

	// With mirroring disabled the handler answers itself with a JSON 404;
	// an unregistered path would fall through to the router's plain-text
	// not-found response.
	rec := env.request(t, http.MethodGet, "/media/thumbs/abc12345678.jpg", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Media not found")
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", detectContentType("thumbs/abc12345678.jpg"))
	assert.Equal(t, "application/octet-stream", detectContentType("other/file.bin"))
}
