package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/blobstore"
)

// FileHandler manages photo and attachment uploads.
type FileHandler struct {
	store     *blobstore.Store
	maxUpload int64
}

// NewFileHandler builds a FileHandler.
func NewFileHandler(store *blobstore.Store, maxUpload int64) *FileHandler {
	return &FileHandler{store: store, maxUpload: maxUpload}
}

// Upload stores a multipart file and returns its descriptor.
func (h *FileHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "missing file")
		return
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		respondError(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	src, err := header.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not read upload")
		return
	}
	defer src.Close()

	contentType := header.Header.Get("Content-Type")
	meta, err := h.store.Upload(c.Request.Context(), currentUserID(c), header.Filename, contentType, src)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not store file")
		return
	}
	respondData(c, http.StatusCreated, meta)
}

// Download streams the file content.
func (h *FileHandler) Download(c *gin.Context) {
	meta, reader, err := h.store.Open(c.Request.Context(), c.Param("file_id"))
	if errors.Is(err, blobstore.ErrFileNotFound) {
		respondError(c, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not open file")
		return
	}
	defer reader.Close()

	contentType := meta.Type
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, meta.Size, contentType, reader, map[string]string{
		"Content-Disposition": `inline; filename="` + meta.Name + `"`,
	})
}

// Meta returns the file descriptor without the content.
func (h *FileHandler) Meta(c *gin.Context) {
	meta, err := h.store.Metadata(c.Request.Context(), c.Param("file_id"))
	if errors.Is(err, blobstore.ErrFileNotFound) {
		respondError(c, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not load file")
		return
	}
	respondData(c, http.StatusOK, meta)
}

// ListMine returns descriptors for the caller's uploads.
func (h *FileHandler) ListMine(c *gin.Context) {
	metas, err := h.store.ListByOwner(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not list files")
		return
	}
	respondData(c, http.StatusOK, metas)
}

// Delete removes one of the caller's uploads.
func (h *FileHandler) Delete(c *gin.Context) {
	err := h.store.Delete(c.Request.Context(), currentUserID(c), c.Param("file_id"))
	if errors.Is(err, blobstore.ErrFileNotFound) {
		respondError(c, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not delete file")
		return
	}
	c.Status(http.StatusNoContent)
}
