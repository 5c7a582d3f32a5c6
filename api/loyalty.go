package api

import (
	"net/http"

	"github.com/Domenick1991/gulfair/internal/service/loyalty"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type LoyaltyHandler struct {
	service loyalty.LoyaltyUseCase
	log     logrus.FieldLogger
}

type enrollRequest struct {
	AgreeToTerms   bool `json:"agree_to_terms"`
	MarketingOptIn bool `json:"marketing_communications"`
}

func NewLoyaltyHandler(service loyalty.LoyaltyUseCase, log logrus.FieldLogger) *LoyaltyHandler {
	return &LoyaltyHandler{service: service, log: log}
}

func (h *LoyaltyHandler) Register(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	router.GET("/tiers", h.tiers)

	protected := router.Group("", authMW)
	protected.GET("/status", h.status)
	protected.GET("/history", h.history)
	protected.POST("/enroll", h.enroll)
}

func (h *LoyaltyHandler) tiers(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Tiers())
}

func (h *LoyaltyHandler) status(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := h.service.Status(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *LoyaltyHandler) history(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	res, err := h.service.History(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *LoyaltyHandler) enroll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.service.Enroll(c.Request.Context(), userID, loyalty.EnrollInput{
		AgreeToTerms:   req.AgreeToTerms,
		MarketingOptIn: req.MarketingOptIn,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
