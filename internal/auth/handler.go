package auth

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/apperr"
)

type Handler struct {
	service Service
	mw      *Middleware
}

func NewHandler(service Service, mw *Middleware) *Handler {
	return &Handler{service: service, mw: mw}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/profile", h.mw.RequireAuth(), h.Profile)
		authGroup.PUT("/profile", h.mw.RequireAuth(), h.UpdateProfile)
		authGroup.POST("/change-password", h.mw.RequireAuth(), h.ChangePassword)
		authGroup.POST("/logout", h.mw.RequireAuth(), h.Logout)
		authGroup.GET("/users", h.mw.RequireAuth(), h.ListUsers)
	}
}

func fail(c *gin.Context, err error) {
	appErr := apperr.From(err)
	c.JSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid request body"))
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    result.User,
		"token":   result.Token,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid request body"))
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    result.User,
		"token":   result.Token,
	})
}

func (h *Handler) Profile(c *gin.Context) {
	principal, _ := FromContext(c)

	user, err := h.service.GetProfile(c.Request.Context(), principal.ID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	principal, _ := FromContext(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid request body"))
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), principal.ID, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	principal, _ := FromContext(c)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid request body"))
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), principal.ID, req); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// Logout is client-side with stateless JWTs; the endpoint exists so clients
// have a uniform call to make.
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func (h *Handler) ListUsers(c *gin.Context) {
	principal, _ := FromContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	users, total, err := h.service.ListUsers(c.Request.Context(), principal, c.Query("role"), page, limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}
