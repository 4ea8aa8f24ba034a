package registry

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Xombi17/blue-carbon-registry-mvp/internal/credits"
	"github.com/Xombi17/blue-carbon-registry-mvp/internal/projects"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/apperr"
)

// Handler serves the public, unauthenticated registry surface.
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	registry := rg.Group("/registry")
	{
		registry.GET("/projects", h.ListProjects)
		registry.GET("/credits", h.ListCredits)
		registry.GET("/stats", h.Stats)
		registry.GET("/ecosystem-stats/:type", h.EcosystemStats)
		registry.GET("/map-data", h.MapData)
	}
}

func fail(c *gin.Context, err error) {
	appErr := apperr.From(err)
	c.JSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

func (h *Handler) ListProjects(c *gin.Context) {
	filter := projects.ProjectFilter{Search: c.Query("search")}
	if ecoStr := c.Query("ecosystemType"); ecoStr != "" {
		eco := projects.EcosystemType(ecoStr)
		filter.EcosystemType = &eco
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))

	rows, total, err := h.service.ListProjects(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": rows,
		"pagination": gin.H{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
		},
	})
}

func (h *Handler) ListCredits(c *gin.Context) {
	filter := CreditFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		status := credits.Status(statusStr)
		filter.Status = &status
	}
	if ownerStr := c.Query("ownerId"); ownerStr != "" {
		ownerID, err := uuid.Parse(ownerStr)
		if err != nil {
			fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid owner ID"))
			return
		}
		filter.OwnerID = &ownerID
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))

	rows, total, err := h.service.ListCredits(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"credits": rows,
		"pagination": gin.H{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
		},
	})
}

func (h *Handler) MapData(c *gin.Context) {
	data, err := h.service.MapData(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) EcosystemStats(c *gin.Context) {
	ecosystem := projects.EcosystemType(c.Param("type"))

	stats, err := h.service.EcosystemStats(c.Request.Context(), ecosystem)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
