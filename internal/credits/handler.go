package credits

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

// RegisterRoutes keeps the credit lifecycle under /blockchain, the surface
// the mock chain adapter backs.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	blockchain := rg.Group("/blockchain")
	{
		blockchain.POST("/mint-credits", h.mw.RequireAuth(), h.Mint)
		blockchain.POST("/transfer-credit", h.mw.RequireAuth(), h.Transfer)
		blockchain.POST("/retire-credit", h.mw.RequireAuth(), h.Retire)
		blockchain.GET("/transactions", h.mw.RequireAuth(), h.ListTransactions)
		blockchain.GET("/network-status", h.NetworkStatus)
		blockchain.GET("/contracts", h.Contracts)
	}
}

func fail(c *gin.Context, err error) {
	appErr := apperr.From(err)
	c.JSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

type mintRequest struct {
	ProjectID             string `json:"projectId"`
	Amount                int    `json:"amount"`
	VintageYear           int    `json:"vintageYear"`
	CertificationStandard string `json:"certificationStandard"`
	RecipientAddress      string `json:"recipientAddress"`
}

func (h *Handler) Mint(c *gin.Context) {
	principal, _ := auth.FromContext(c)

	var req mintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid request body"))
		return
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid project ID"))
		return
	}

	result, err := h.service.Mint(c.Request.Context(), principal, MintInput{
		ProjectID:             projectID,
		Amount:                req.Amount,
		VintageYear:           req.VintageYear,
		CertificationStandard: req.CertificationStandard,
		RecipientAddress:      req.RecipientAddress,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":         "Credits minted successfully",
		"credit":          result.Credit,
		"transactionHash": result.TransactionHash,
	})
}

type transferRequest struct {
	CreditID  string `json:"creditId"`
	ToAddress string `json:"toAddress"`
}

func (h *Handler) Transfer(c *gin.Context) {
	principal, _ := auth.FromContext(c)

	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid request body"))
		return
	}
	creditID, err := uuid.Parse(req.CreditID)
	if err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid credit ID"))
		return
	}

	result, err := h.service.Transfer(c.Request.Context(), principal, TransferInput{
		CreditID:  creditID,
		ToAddress: req.ToAddress,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Credit transferred successfully",
		"credit":          result.Credit,
		"recipient":       gin.H{"id": result.Recipient.ID, "name": result.Recipient.Name},
		"transactionHash": result.TransactionHash,
	})
}

type retireRequest struct {
	CreditID string `json:"creditId"`
	Reason   string `json:"reason"`
}

func (h *Handler) Retire(c *gin.Context) {
	principal, _ := auth.FromContext(c)

	var req retireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid request body"))
		return
	}
	creditID, err := uuid.Parse(req.CreditID)
	if err != nil {
		fail(c, apperr.Validation("VALIDATION_ERROR", "Invalid credit ID"))
		return
	}

	result, err := h.service.Retire(c.Request.Context(), principal, RetireInput{
		CreditID: creditID,
		Reason:   req.Reason,
	})
	if err != nil {
		fail(c, err)
		return
	}

	resp := gin.H{
		"message":         "Credit retired successfully",
		"credit":          result.Credit,
		"transactionHash": result.TransactionHash,
	}
	if result.CertificateURL != "" {
		resp["certificateUrl"] = result.CertificateURL
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListTransactions(c *gin.Context) {
	principal, _ := auth.FromContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	txns, total, err := h.service.ListTransactions(c.Request.Context(), principal, c.Query("type"), page, limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": txns,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *Handler) NetworkStatus(c *gin.Context) {
	status, err := h.service.NetworkStatus(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Contracts exposes just the deployed contract addresses from the network
// status.
func (h *Handler) Contracts(c *gin.Context) {
	status, err := h.service.NetworkStatus(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"network":   status.Network,
		"chainId":   status.ChainID,
		"contracts": status.Contracts,
	})
}
