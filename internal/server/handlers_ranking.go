package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ranking"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type suggestionRequest struct {
	Name      string `json:"name" binding:"required,max=190"`
	Instagram string `json:"instagram" binding:"max=190"`
	Country   string `json:"country" binding:"required,max=64"`
	Year      int    `json:"year" binding:"required"`
}

// suggestionResponse omits the submitter ids kept on the record.
type suggestionResponse struct {
	ID         string                   `json:"id"`
	Name       string                   `json:"name"`
	Instagram  string                   `json:"instagram"`
	Country    string                   `json:"country"`
	Popularity int64                    `json:"popularity"`
	Status     ranking.SuggestionStatus `json:"status"`
	CreatedAt  time.Time                `json:"createdAt"`
}

type ballotRequest struct {
	Votes []string `json:"votes" binding:"required"`
}

func (h *httpHandler) handleListPublicDJs(c *gin.Context) {
	djs, err := h.ranking.ListDJs(c.Request.Context(), ranking.DJFilter{
		Country:      c.Query("country"),
		ApprovedOnly: true,
	})
	if err != nil {
		h.respondError(c, "ranking.list_djs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"djs": djs})
}

func (h *httpHandler) handleSubmitSuggestion(c *gin.Context) {
	submitterID, ok := h.submitterID(c)
	if !ok {
		h.abortWithMessage(c, http.StatusUnauthorized, messageUnauthorized)
		return
	}
	var request suggestionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.invalidRequest(c)
		return
	}
	suggestion, err := h.ranking.SubmitSuggestion(c.Request.Context(), ranking.SuggestionInput{
		Name:        request.Name,
		Instagram:   request.Instagram,
		Country:     request.Country,
		Year:        request.Year,
		SubmitterID: submitterID,
	})
	if err != nil {
		h.respondError(c, "ranking.submit_suggestion", err)
		return
	}
	c.JSON(http.StatusCreated, suggestionResponse{
		ID:         suggestion.ID,
		Name:       suggestion.Name,
		Instagram:  suggestion.Instagram,
		Country:    suggestion.Country,
		Popularity: suggestion.Popularity,
		Status:     suggestion.Status,
		CreatedAt:  suggestion.CreatedAt,
	})
}

func (h *httpHandler) handleGetVotingPeriod(c *gin.Context) {
	year, ok := parseYear(c)
	if !ok {
		h.invalidRequest(c)
		return
	}
	period, err := h.ranking.GetVotingPeriod(c.Request.Context(), c.Param("country"), year)
	if err != nil {
		h.respondError(c, "ranking.get_voting_period", err)
		return
	}
	c.JSON(http.StatusOK, period)
}

func (h *httpHandler) handleGetRanking(c *gin.Context) {
	year, ok := parseYear(c)
	if !ok {
		h.invalidRequest(c)
		return
	}
	result, err := h.ranking.GetRanking(c.Request.Context(), c.Param("country"), year)
	if err != nil {
		h.respondError(c, "ranking.get_ranking", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) handleCastVote(c *gin.Context) {
	member, ok := currentMember(c)
	if !ok {
		h.abortWithMessage(c, http.StatusUnauthorized, messageUnauthorized)
		return
	}
	year, ok := parseYear(c)
	if !ok {
		h.invalidRequest(c)
		return
	}
	var request ballotRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.invalidRequest(c)
		return
	}
	vote, err := h.ranking.CastVote(c.Request.Context(), member.UserID, c.Param("country"), year, request.Votes)
	if err != nil {
		h.respondError(c, "ranking.cast_vote", err)
		return
	}
	h.logDebug("ballot stored", zap.String("user_id", member.UserID), zap.String("country", vote.Country), zap.Int("year", vote.Year))
	c.JSON(http.StatusOK, vote)
}

func (h *httpHandler) handleGetBallot(c *gin.Context) {
	member, ok := currentMember(c)
	if !ok {
		h.abortWithMessage(c, http.StatusUnauthorized, messageUnauthorized)
		return
	}
	year, ok := parseYear(c)
	if !ok {
		h.invalidRequest(c)
		return
	}
	vote, err := h.ranking.GetBallot(c.Request.Context(), member.UserID, c.Param("country"), year)
	if err != nil {
		h.respondError(c, "ranking.get_ballot", err)
		return
	}
	c.JSON(http.StatusOK, vote)
}

func (h *httpHandler) handleRankingEvents(c *gin.Context) {
	year, ok := parseYear(c)
	if !ok {
		h.invalidRequest(c)
		return
	}
	country, err := ranking.NormalizeCountry(c.Param("country"))
	if err != nil || ranking.ValidateYear(year) != nil {
		h.invalidRequest(c)
		return
	}

	ctx := c.Request.Context()
	stream, cleanup := h.realtime.Subscribe(ctx, country, year)
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case message, open := <-stream:
			if !open {
				return false
			}
			c.SSEvent(message.EventType, realtimePayload{
				Type:      message.EventType,
				Country:   message.Country,
				Year:      message.Year,
				Timestamp: message.Timestamp.UTC().Format(time.RFC3339),
				Source:    realtimeSourceBackend,
			})
			return true
		case tick := <-heartbeat.C:
			c.SSEvent(realtimeEventHeartbeat, gin.H{"timestamp": tick.UTC().Format(time.RFC3339)})
			return true
		}
	})
}

func normalizedParam(c *gin.Context, name string) string {
	return strings.TrimSpace(c.Param(name))
}
