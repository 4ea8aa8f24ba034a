package verification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

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
	verification := rg.Group("/verification", h.mw.RequireAuth())
	{
		verification.GET("/pending", h.ListPending)
		verification.POST("/:id/verify", h.Verify)
		verification.POST("/:id/reject", h.Reject)
	}
}

func fail(c *gin.Context, err error) {
	appErr := apperr.From(err)
	c.JSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) ListPending(c *gin.Context) {
	principal, _ := auth.FromContext(c)

	pending, err := h.service.ListPending(c.Request.Context(), principal)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": pending})
}

func (h *Handler) Verify(c *gin.Context) {
	principal, _ := auth.FromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid project ID"))
		return
	}

	var req notesRequest
	_ = c.ShouldBindJSON(&req) // notes are optional

	project, svcErr := h.service.Verify(c.Request.Context(), principal, id, req.Notes)
	if svcErr != nil {
		fail(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project verified successfully",
		"project": project,
	})
}

func (h *Handler) Reject(c *gin.Context) {
	principal, _ := auth.FromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid project ID"))
		return
	}

	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Rejection notes are required"))
		return
	}

	project, svcErr := h.service.Reject(c.Request.Context(), principal, id, req.Notes)
	if svcErr != nil {
		fail(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project rejected",
		"project": project,
	})
}
