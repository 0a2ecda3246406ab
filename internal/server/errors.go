package server

import (
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/content"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/currency"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/mail"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/push"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ranking"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	messageInvalidInput        = "invalid_input"
	messageUnauthorized        = "unauthorized"
	messageForbidden           = "forbidden"
	messageNotFound            = "not_found"
	messageDuplicate           = "duplicate"
	messageSuggestionsClosed   = "suggestions_closed"
	messageVotingClosed        = "voting_closed"
	messageInvalidCandidate    = "invalid_candidate"
	messageUnknownCurrency     = "unknown_currency"
	messageExternalUnavailable = "external_unavailable"
	messageInternalError       = "internal_error"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{ranking.ErrValidation, http.StatusBadRequest, messageInvalidInput},
	{currency.ErrValidation, http.StatusBadRequest, messageInvalidInput},
	{push.ErrValidation, http.StatusBadRequest, messageInvalidInput},
	{content.ErrValidation, http.StatusBadRequest, messageInvalidInput},
	{mail.ErrValidation, http.StatusBadRequest, messageInvalidInput},
	{ranking.ErrNotFound, http.StatusNotFound, messageNotFound},
	{content.ErrNotFound, http.StatusNotFound, messageNotFound},
	{push.ErrNotFound, http.StatusNotFound, messageNotFound},
	{ranking.ErrDuplicate, http.StatusConflict, messageDuplicate},
	{content.ErrDuplicate, http.StatusConflict, messageDuplicate},
	{ranking.ErrSuggestionsClosed, http.StatusConflict, messageSuggestionsClosed},
	{ranking.ErrVotingClosed, http.StatusConflict, messageVotingClosed},
	{ranking.ErrInvalidCandidate, http.StatusUnprocessableEntity, messageInvalidCandidate},
	{currency.ErrUnknownCurrency, http.StatusUnprocessableEntity, messageUnknownCurrency},
	{currency.ErrExternalAPI, http.StatusInternalServerError, messageExternalUnavailable},
}

func classifyError(err error) (int, string) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.target) {
			return mapping.status, mapping.message
		}
	}
	return http.StatusInternalServerError, messageInternalError
}

// respondError maps a service failure to a status and a localized message.
// Server-side failures are logged and reported; their detail never reaches the client.
func (h *httpHandler) respondError(c *gin.Context, operation string, err error) {
	status, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("operation", operation), zap.String("path", c.FullPath()), zap.Error(err))
		h.reporter.CaptureError(c.Request.Context(), err, map[string]string{"operation": operation})
	}
	h.abortWithMessage(c, status, message)
}

func (h *httpHandler) abortWithMessage(c *gin.Context, status int, messageID string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":   messageID,
		"message": h.catalog.Message(c.GetHeader("Accept-Language"), messageID),
	})
}

func (h *httpHandler) invalidRequest(c *gin.Context) {
	h.abortWithMessage(c, http.StatusBadRequest, messageInvalidInput)
}
