package server

import (
	"net/http"

	"github.com/connectspace/connectspace-api/storage"
	"github.com/connectspace/connectspace-api/upload"
	"github.com/rs/zerolog"
)

type uploadResponse struct {
	Message string              `json:"message"`
	Files   []storage.Reference `json:"files"`
}

// UploadHandler reads a multipart batch, validates it against gate and stores it.
// Any rejection rejects the whole batch before anything is stored.
func (s *Server) UploadHandler(gate *upload.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batch, err := upload.ReadRequest(r, gate.Limits())
		if err != nil {
			if _, handled := upload.HandleUploadError(err); handled {
				writeError(w, r, err)
				return
			}
			zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Unreadable multipart request")
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Request must be multipart/form-data"})
			return
		}

		if len(batch.Files) == 0 {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "No files uploaded"})
			return
		}

		if err := gate.Validate(batch.Files); err != nil {
			writeError(w, r, err)
			return
		}

		objects := make([]storage.Object, len(batch.Files))
		for i, f := range batch.Files {
			objects[i] = storage.Object{
				Field:       f.FieldName,
				Filename:    f.Filename,
				ContentType: upload.NormalizeMIME(f.MIMEType),
				Data:        f.Data,
			}
		}

		refs, err := storage.PutAll(r.Context(), s.store, objects)
		if err != nil {
			writeError(w, r, err)
			return
		}

		logger := zerolog.Ctx(r.Context())
		if payload, ok := PayloadFromContext(r.Context()); ok {
			logger.Info().Str("user_id", payload.UserID).Int("files", len(refs)).Msg("Files uploaded")
		}
		writeJSON(w, http.StatusOK, uploadResponse{Message: "Files uploaded successfully", Files: refs})
	}
}
