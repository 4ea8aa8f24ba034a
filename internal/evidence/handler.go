package evidence

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Xombi17/blue-carbon-registry-mvp/internal/auth"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/apperr"
)

type Handler struct {
	service Service
	mw      *auth.Middleware
}

func NewHandler(service Service, mw *auth.Middleware) *Handler {
	return &Handler{service: service, mw: mw}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload/files", h.mw.RequireAuth(), h.Upload)
}

func fail(c *gin.Context, err error) {
	appErr := apperr.From(err)
	c.JSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

func (h *Handler) Upload(c *gin.Context) {
	principal, _ := auth.FromContext(c)

	form, err := c.MultipartForm()
	if err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Expected multipart form data"))
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		fail(c, apperr.Validation("VALIDATION_ERROR", "At least one file is required"))
		return
	}

	uploads := make([]Upload, 0, len(headers))
	closers := make([]func() error, 0, len(headers))
	defer func() {
		for _, closeFile := range closers {
			_ = closeFile()
		}
	}()
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			fail(c, apperr.Internal(err))
			return
		}
		closers = append(closers, file.Close)
		uploads = append(uploads, Upload{
			Filename: header.Filename,
			Mimetype: header.Header.Get("Content-Type"),
			Size:     header.Size,
			Body:     file,
		})
	}

	files, err := h.service.Upload(c.Request.Context(), principal, uploads)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Evidence uploaded successfully",
		"files":   files,
	})
}
