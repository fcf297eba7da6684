package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexjoedt/imagestore"
)

func (s *Server) handleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"server_running": "We Ball"})
}

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes)

	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid upload: " + err.Error()})
		return
	}
	if req.ImageBytes == nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid upload: missing image_bytes"})
		return
	}
	if req.ImageType == nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid upload: missing image_type"})
		return
	}

	stored, err := s.store.Upload(c.Request.Context(), imagestore.UploadRequest{
		Payload:      req.ImageBytes,
		DeclaredType: *req.ImageType,
	})
	if err != nil {
		s.logger.Error("upload failed",
			requestIDKey, c.GetString(requestIDKey),
			"image_type", *req.ImageType,
			"error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to store image: " + err.Error()})
		return
	}

	s.logger.Debug("upload stored",
		requestIDKey, c.GetString(requestIDKey),
		"path", stored.RelativePath,
		"sha256", stored.Sha256)
	c.Status(http.StatusOK)
}

func (s *Server) handleCatalog(c *gin.Context) {
	entries, err := s.store.Catalog(c.Request.Context())
	if err != nil {
		s.logger.Error("catalog failed", requestIDKey, c.GetString(requestIDKey), "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list images: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, catalogResponse{Body: entries})
}
