package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/content"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ranking"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultMatchLimit = 5

type djRequest struct {
	Name        *string           `json:"name" binding:"omitempty,max=190"`
	Instagram   *string           `json:"instagram" binding:"omitempty,max=190"`
	Country     *string           `json:"country" binding:"omitempty,max=64"`
	Bio         *string           `json:"bio"`
	PhotoURL    *string           `json:"photoUrl" binding:"omitempty,max=512"`
	SocialLinks map[string]string `json:"socialLinks"`
	Approved    *bool             `json:"approved"`
}

func (r djRequest) input() ranking.DJInput {
	return ranking.DJInput{
		Name:        r.Name,
		Instagram:   r.Instagram,
		Country:     r.Country,
		Bio:         r.Bio,
		PhotoURL:    r.PhotoURL,
		SocialLinks: r.SocialLinks,
		Approved:    r.Approved,
	}
}

type approvalRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

type votingPeriodRequest struct {
	SuggestionsOpen *bool `json:"suggestionsOpen"`
	VotingOpen      *bool `json:"votingOpen"`
	TopCount        *int  `json:"topCount"`
}

func (h *httpHandler) handleAdminListDJs(c *gin.Context) {
	approvedOnly, _ := strconv.ParseBool(c.Query("approved"))
	djs, err := h.ranking.ListDJs(c.Request.Context(), ranking.DJFilter{
		Country:      c.Query("country"),
		ApprovedOnly: approvedOnly,
	})
	if err != nil {
		h.respondError(c, "admin.list_djs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"djs": djs})
}

func (h *httpHandler) handleCreateDJ(c *gin.Context) {
	member, _ := currentMember(c)
	var request djRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.invalidRequest(c)
		return
	}
	dj, err := h.ranking.CreateDJ(c.Request.Context(), request.input(), member.UserID)
	if err != nil {
		h.respondError(c, "admin.create_dj", err)
		return
	}
	c.JSON(http.StatusCreated, dj)
}

func (h *httpHandler) handleUpdateDJ(c *gin.Context) {
	member, _ := currentMember(c)
	var request djRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.invalidRequest(c)
		return
	}
	dj, err := h.ranking.UpdateDJ(c.Request.Context(), normalizedParam(c, "id"), request.input(), member.UserID)
	if err != nil {
		h.respondError(c, "admin.update_dj", err)
		return
	}
	c.JSON(http.StatusOK, dj)
}

func (h *httpHandler) handleSetDJApproval(c *gin.Context) {
	member, _ := currentMember(c)
	var request approvalRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.invalidRequest(c)
		return
	}
	dj, err := h.ranking.SetDJApproval(c.Request.Context(), normalizedParam(c, "id"), *request.Approved, member.UserID)
	if err != nil {
		h.respondError(c, "admin.set_dj_approval", err)
		return
	}
	c.JSON(http.StatusOK, dj)
}

func (h *httpHandler) handleListSuggestions(c *gin.Context) {
	suggestions, err := h.ranking.ListSuggestions(c.Request.Context(), ranking.SuggestionFilter{
		Country: c.Query("country"),
		Status:  ranking.SuggestionStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
	})
	if err != nil {
		h.respondError(c, "admin.list_suggestions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (h *httpHandler) handleApproveSuggestion(c *gin.Context) {
	member, _ := currentMember(c)
	suggestion, dj, err := h.ranking.ApproveSuggestion(c.Request.Context(), normalizedParam(c, "id"), member.UserID)
	if err != nil {
		h.respondError(c, "admin.approve_suggestion", err)
		return
	}
	h.logger.Info("suggestion approved",
		zap.String("suggestion_id", suggestion.ID),
		zap.String("dj_id", dj.ID),
		zap.String("admin_id", member.UserID),
	)
	c.JSON(http.StatusOK, gin.H{"suggestion": suggestion, "dj": dj})
}

func (h *httpHandler) handleRejectSuggestion(c *gin.Context) {
	member, _ := currentMember(c)
	suggestion, err := h.ranking.RejectSuggestion(c.Request.Context(), normalizedParam(c, "id"), member.UserID)
	if err != nil {
		h.respondError(c, "admin.reject_suggestion", err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

func (h *httpHandler) handleSuggestionMatches(c *gin.Context) {
	limit := defaultMatchLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.invalidRequest(c)
			return
		}
		limit = parsed
	}
	matches, err := h.ranking.SuggestionMatches(c.Request.Context(), normalizedParam(c, "id"), limit)
	if err != nil {
		h.respondError(c, "admin.suggestion_matches", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *httpHandler) handleSetVotingPeriod(c *gin.Context) {
	member, _ := currentMember(c)
	year, ok := parseYear(c)
	if !ok {
		h.invalidRequest(c)
		return
	}
	var request votingPeriodRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.invalidRequest(c)
		return
	}
	period, err := h.ranking.SetVotingPeriod(c.Request.Context(), c.Param("country"), year, ranking.VotingPeriodPatch{
		SuggestionsOpen: request.SuggestionsOpen,
		VotingOpen:      request.VotingOpen,
		TopCount:        request.TopCount,
	}, member.UserID)
	if err != nil {
		h.respondError(c, "admin.set_voting_period", err)
		return
	}
	c.JSON(http.StatusOK, period)
}

func (h *httpHandler) handlePublishRanking(c *gin.Context) {
	member, _ := currentMember(c)
	year, ok := parseYear(c)
	if !ok {
		h.invalidRequest(c)
		return
	}
	result, err := h.ranking.PublishRanking(c.Request.Context(), c.Param("country"), year, member.UserID)
	if err != nil {
		h.respondError(c, "admin.publish_ranking", err)
		return
	}
	h.logger.Info("ranking published",
		zap.String("country", result.Country),
		zap.Int("year", result.Year),
		zap.Int("entries", len(result.DJs)),
		zap.String("admin_id", member.UserID),
	)
	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) handleCreatePost(c *gin.Context) {
	var request content.PostInput
	if err := c.ShouldBindJSON(&request); err != nil {
		h.invalidRequest(c)
		return
	}
	post, err := h.content.CreatePost(c.Request.Context(), request)
	if err != nil {
		h.respondError(c, "admin.create_post", err)
		return
	}
	c.JSON(http.StatusCreated, post)
}
