package media

import (
	"bytes"
	"io"
	"net/http"

	"civicpulse_backend/platform/httpkit"
	"civicpulse_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Handler exposes the photo upload endpoint.
type Handler struct {
	storage *Storage
	log     *logger.Logger
}

func NewHandler(storage *Storage, log *logger.Logger) *Handler {
	return &Handler{storage: storage, log: log}
}

// HandleUpload processes POST /uploads (authenticated, multipart). The
// response carries the public photo URL and, when the photo has EXIF GPS
// metadata, a location hint the client can prefill.
func (h *Handler) HandleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "photo file is required", nil)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if err := h.storage.ValidateUpload(contentType, fileHeader.Size); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "failed to read upload", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, fileHeader.Size))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "failed to read upload", nil)
		return
	}

	photoURL, err := h.storage.UploadPhoto(c.Request.Context(), "web", fileHeader.Filename, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		h.log.Error("photo upload failed", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "failed to store photo", nil)
		return
	}

	response := gin.H{"photoUrl": photoURL}
	if coords := ExtractGPS(data); coords != nil {
		response["location"] = coords
	}

	httpkit.JSON(c, http.StatusCreated, response)
}
