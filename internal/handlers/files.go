package handlers

import (
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// File streams an uploaded object owned by the caller.
func (h *LandHandler) File(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	key := chi.URLParam(r, "*")
	body, err := h.landService.OpenFile(r.Context(), id.SubjectID, key)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.log.Warn("stream file", zap.String("key", key), zap.Error(err))
	}
}
