package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/mail"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/push"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *httpHandler) handleIssueVisitor(c *gin.Context) {
	token, err := h.visitors.IssueVisitorToken(c.Request.Context())
	if err != nil {
		h.respondError(c, "visitors.issue", err)
		return
	}
	c.JSON(http.StatusCreated, token)
}

func (h *httpHandler) handleExchangeRates(c *gin.Context) {
	rates, err := h.currency.GetExchangeRates(c.Request.Context())
	if err != nil {
		h.respondError(c, "currency.rates", err)
		return
	}
	c.JSON(http.StatusOK, rates)
}

func (h *httpHandler) handleConvert(c *gin.Context) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(c.Query("amount")), 64)
	if err != nil {
		h.invalidRequest(c)
		return
	}
	conversion, err := h.currency.Convert(c.Request.Context(), amount, c.Query("from"), c.Query("to"))
	if err != nil {
		h.respondError(c, "currency.convert", err)
		return
	}
	c.JSON(http.StatusOK, conversion)
}

func (h *httpHandler) handlePushRegister(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, push.MaxSubscriptionSize+1))
	if err != nil || len(body) > push.MaxSubscriptionSize {
		h.invalidRequest(c)
		return
	}
	userID := ""
	if member, ok := h.resolveMember(c); ok {
		userID = member.UserID
	}
	subscription, err := h.push.Register(c.Request.Context(), body, userID)
	if err != nil {
		h.respondError(c, "push.register", err)
		return
	}
	c.JSON(http.StatusCreated, subscription)
}

func (h *httpHandler) handleRecommendations(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.invalidRequest(c)
			return
		}
		limit = parsed
	}
	posts, err := h.content.Recommendations(c.Request.Context(), c.Query("postId"), c.Query("categoryId"), limit)
	if err != nil {
		h.respondError(c, "content.recommendations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *httpHandler) handleContact(c *gin.Context) {
	var request mail.ContactMessage
	if err := c.ShouldBindJSON(&request); err != nil {
		h.invalidRequest(c)
		return
	}
	if err := h.contact.SendContactMessage(c.Request.Context(), request); err != nil {
		h.respondError(c, "contact.send", err)
		return
	}
	h.logger.Info("contact message delivered")
	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}

func parseYear(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(strings.TrimSpace(c.Param("year")))
	if err != nil {
		return 0, false
	}
	return year, true
}

func (h *httpHandler) logDebug(message string, fields ...zap.Field) {
	h.logger.Debug(message, fields...)
}
