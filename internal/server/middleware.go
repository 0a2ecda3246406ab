package server

import (
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// resolveMember returns the member behind the request session. A request
// without a usable session yields ok=false.
func (h *httpHandler) resolveMember(c *gin.Context) (users.Member, bool) {
	claims, err := h.sessions.ValidateRequest(c.Request)
	if err != nil {
		if !errors.Is(err, auth.ErrMissingSessionToken) {
			h.logTokenFailure(err)
		}
		return users.Member{}, false
	}
	member, err := h.members.ResolveMember(c.Request.Context(), claims)
	if err != nil {
		h.logger.Warn("member resolution failed", zap.Error(err))
		return users.Member{}, false
	}
	return member, true
}

func (h *httpHandler) logTokenFailure(err error) {
	if errors.Is(err, auth.ErrExpiredSessionToken) {
		h.logger.Info("token validation failed", zap.Error(err))
		return
	}
	h.logger.Warn("token validation failed", zap.Error(err))
}

func (h *httpHandler) requireMember(c *gin.Context) {
	member, ok := h.resolveMember(c)
	if !ok {
		h.abortWithMessage(c, http.StatusUnauthorized, messageUnauthorized)
		return
	}
	c.Set(memberContextKey, member)
	c.Next()
}

func (h *httpHandler) requireAdmin(c *gin.Context) {
	member, ok := currentMember(c)
	if !ok {
		h.abortWithMessage(c, http.StatusUnauthorized, messageUnauthorized)
		return
	}
	if !member.Admin {
		h.logger.Info("admin route denied", zap.String("user_id", member.UserID), zap.String("path", c.FullPath()))
		h.abortWithMessage(c, http.StatusForbidden, messageForbidden)
		return
	}
	c.Next()
}

func currentMember(c *gin.Context) (users.Member, bool) {
	value, exists := c.Get(memberContextKey)
	if !exists {
		return users.Member{}, false
	}
	member, ok := value.(users.Member)
	return member, ok && member.UserID != ""
}

// submitterID identifies who is submitting: a signed-in member first, then
// an anonymous visitor token.
func (h *httpHandler) submitterID(c *gin.Context) (string, bool) {
	if member, ok := h.resolveMember(c); ok {
		return member.UserID, true
	}
	token := c.GetHeader(visitorHeaderName)
	if token == "" {
		return "", false
	}
	subject, err := h.visitors.ValidateToken(token)
	if err != nil {
		h.logger.Info("visitor token rejected", zap.Error(err))
		return "", false
	}
	return subject, true
}
