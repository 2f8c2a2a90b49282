package handler

import (
	"net/http"

	"cleantrack/backend/internal/api/middleware"
	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/media"

	"github.com/gin-gonic/gin"
)

// Upload stores one image from the "image" form field. The returned url is
// what a complaint draft references.
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Media.MaxBytes+1<<20)

	fh, err := c.FormFile("image")
	if err != nil {
		respondError(c, apperr.Validation("image", "file is required"))
		return
	}
	if fh.Size > h.Media.MaxBytes {
		respondError(c, apperr.Validation("image", "file is too large"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	name, err := h.Media.Save(c.Request.Context(), f, fh.Header.Get("Content-Type"), middleware.Identity(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": name, "url": media.URL(name)})
}

// ReleaseUpload deletes an upload of the caller that no complaint uses yet.
func (h *Handler) ReleaseUpload(c *gin.Context) {
	if err := h.Complaints.ReleaseUpload(c.Request.Context(), c.Param("name"), middleware.Identity(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
