package handlers

import (
	"net/http"

	"github.com/TWRT/taskboard/internal/storage"
)

type UploadHandler struct {
	files *storage.FileStore
}

func NewUploadHandler(files *storage.FileStore) *UploadHandler {
	return &UploadHandler{files: files}
}

// RequestUpload issues an upload handle: the client pushes bytes to the
// returned URL, then uses the handle id as an opaque file reference.
func (h *UploadHandler) RequestUpload(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusCreated, map[string]any{
		"upload": h.files.NewUpload(),
	})
}

func (h *UploadHandler) PushUpload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.files.Save(id, r.Body); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Error trying to store the upload: " + err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"ref": id,
	})
}

func (h *UploadHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	path, err := h.files.Path(r.PathValue("id"))
	if err != nil {
		respondJSON(w, http.StatusNotFound, map[string]string{
			"error": "File not found",
		})
		return
	}

	http.ServeFile(w, r, path)
}
