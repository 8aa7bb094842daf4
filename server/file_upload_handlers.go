package server

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	apperrors "github.com/connectspace/connectspace-api/internal/errors"
	"github.com/rs/zerolog"
)

// ServeUploadHandler streams a stored upload back by its key
func (s *Server) ServeUploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("field") + "/" + r.PathValue("file")

		rc, err := s.store.Get(r.Context(), key)
		if err != nil {
			if !apperrors.Is(err, apperrors.ErrNotFound) {
				zerolog.Ctx(r.Context()).Err(err).Str("key", key).Msg("Failed to open upload")
			}
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", contentTypeFor(key))
		w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		if _, err := io.Copy(w, rc); err != nil {
			zerolog.Ctx(r.Context()).Err(err).Str("key", key).Msg("Failed to stream upload")
		}
	}
}

func contentTypeFor(name string) string {
	ctype := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if ctype == "" {
		// Fallback for unknown extensions
		return "application/octet-stream"
	}
	return ctype
}
