package projects

import (
	"net/http"
	"strconv"

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
	projects := rg.Group("/projects")
	{
		projects.GET("", h.mw.OptionalAuth(), h.List)
		projects.GET("/:id", h.mw.OptionalAuth(), h.Get)
		projects.POST("", h.mw.RequireAuth(), h.Submit)
		projects.PUT("/:id", h.mw.RequireAuth(), h.Update)
		projects.DELETE("/:id", h.mw.RequireAuth(), h.Delete)
		projects.GET("/:id/evidence", h.mw.OptionalAuth(), h.ListEvidence)
		projects.POST("/:id/evidence", h.mw.RequireAuth(), h.AddEvidence)
	}
}

func fail(c *gin.Context, err error) {
	appErr := apperr.From(err)
	c.JSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid project ID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) List(c *gin.Context) {
	filter := ProjectFilter{Search: c.Query("search")}

	if statusStr := c.Query("status"); statusStr != "" {
		status := Status(statusStr)
		filter.Status = &status
	}
	if ecoStr := c.Query("ecosystemType"); ecoStr != "" {
		eco := EcosystemType(ecoStr)
		filter.EcosystemType = &eco
	}
	if submitterStr := c.Query("submitterId"); submitterStr != "" {
		submitterID, err := uuid.Parse(submitterStr)
		if err != nil {
			fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid submitter ID"))
			return
		}
		filter.SubmitterID = &submitterID
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))

	projects, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects":   projects,
		"pagination": pagination(filter.Page, filter.Limit, total),
	})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	project, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

func (h *Handler) Submit(c *gin.Context) {
	principal, _ := auth.FromContext(c)

	var req SubmitProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid request body"))
		return
	}

	project, err := h.service.Submit(c.Request.Context(), principal, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Project submitted successfully",
		"project": project,
	})
}

func (h *Handler) Update(c *gin.Context) {
	principal, _ := auth.FromContext(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid request body"))
		return
	}

	project, err := h.service.Update(c.Request.Context(), principal, id, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project updated successfully",
		"project": project,
	})
}

func (h *Handler) Delete(c *gin.Context) {
	principal, _ := auth.FromContext(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), principal, id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func (h *Handler) ListEvidence(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	files, err := h.service.ListEvidence(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"evidenceFiles": files})
}

func (h *Handler) AddEvidence(c *gin.Context) {
	principal, _ := auth.FromContext(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		EvidenceHashes []string `json:"evidenceHashes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid request body"))
		return
	}

	files, err := h.service.AddEvidence(c.Request.Context(), principal, id, req.EvidenceHashes)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Evidence added successfully",
		"count":   len(files),
	})
}

func pagination(page, limit int, total int64) gin.H {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return gin.H{
		"page":  page,
		"limit": limit,
		"total": total,
		"pages": pages,
	}
}
