package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/content"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/currency"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/mail"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/messages"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/monitoring"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/push"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ranking"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	memberContextKey  = "pulse_member"
	visitorHeaderName = "X-Visitor-Token"
	defaultHeartbeat  = 25 * time.Second
)

var (
	errMissingRankingService  = errors.New("ranking service dependency required")
	errMissingCurrencyService = errors.New("currency service dependency required")
	errMissingPushService     = errors.New("push service dependency required")
	errMissingContentService  = errors.New("content service dependency required")
	errMissingSessions        = errors.New("session validator dependency required")
	errMissingVisitors        = errors.New("visitor token dependency required")
	errMissingMembers         = errors.New("member resolver dependency required")
)

// SessionValidator validates TAuth sessions carried by a request.
type SessionValidator interface {
	ValidateRequest(r *http.Request) (auth.SessionClaims, error)
}

// VisitorTokens issues and validates anonymous visitor tokens.
type VisitorTokens interface {
	IssueVisitorToken(ctx context.Context) (auth.VisitorToken, error)
	ValidateToken(token string) (string, error)
}

// MemberResolver maps validated session claims to a member.
type MemberResolver interface {
	ResolveMember(ctx context.Context, claims auth.SessionClaims) (users.Member, error)
}

// ContactSender delivers contact form messages.
type ContactSender interface {
	SendContactMessage(ctx context.Context, msg mail.ContactMessage) error
}

// Dependencies lists the services behind the HTTP surface. Contact, Catalog,
// Reporter and Realtime are optional.
type Dependencies struct {
	Ranking        *ranking.Service
	Currency       *currency.Service
	Push           *push.Service
	Content        *content.Service
	Sessions       SessionValidator
	Visitors       VisitorTokens
	Members        MemberResolver
	Contact        ContactSender
	Catalog        *messages.Catalog
	Reporter       monitoring.Reporter
	Realtime       *RealtimeDispatcher
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewHTTPHandler wires the public, member and admin routes.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	switch {
	case deps.Ranking == nil:
		return nil, errMissingRankingService
	case deps.Currency == nil:
		return nil, errMissingCurrencyService
	case deps.Push == nil:
		return nil, errMissingPushService
	case deps.Content == nil:
		return nil, errMissingContentService
	case deps.Sessions == nil:
		return nil, errMissingSessions
	case deps.Visitors == nil:
		return nil, errMissingVisitors
	case deps.Members == nil:
		return nil, errMissingMembers
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reporter := deps.Reporter
	if reporter == nil {
		reporter = monitoring.NopReporter{}
	}
	realtime := deps.Realtime
	if realtime == nil {
		realtime = NewRealtimeDispatcher()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(deps.AllowedOrigins...))

	handler := &httpHandler{
		ranking:   deps.Ranking,
		currency:  deps.Currency,
		push:      deps.Push,
		content:   deps.Content,
		sessions:  deps.Sessions,
		visitors:  deps.Visitors,
		members:   deps.Members,
		contact:   deps.Contact,
		catalog:   deps.Catalog,
		reporter:  reporter,
		realtime:  realtime,
		heartbeat: defaultHeartbeat,
		logger:    logger,
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/visitors", handler.handleIssueVisitor)
	api.GET("/exchange-rates", handler.handleExchangeRates)
	api.GET("/exchange-rates/convert", handler.handleConvert)
	api.POST("/push/register", handler.handlePushRegister)
	api.GET("/recommendations", handler.handleRecommendations)
	if deps.Contact != nil {
		api.POST("/contact", handler.handleContact)
	}
	api.GET("/djs", handler.handleListPublicDJs)
	api.POST("/suggestions", handler.handleSubmitSuggestion)
	api.GET("/voting-periods/:country/:year", handler.handleGetVotingPeriod)
	api.GET("/rankings/:country/:year", handler.handleGetRanking)
	api.GET("/rankings/:country/:year/events", handler.handleRankingEvents)

	members := api.Group("/votes")
	members.Use(handler.requireMember)
	members.PUT("/:country/:year", handler.handleCastVote)
	members.GET("/:country/:year", handler.handleGetBallot)

	admin := router.Group("/admin")
	admin.Use(handler.requireMember, handler.requireAdmin)
	admin.GET("/djs", handler.handleAdminListDJs)
	admin.POST("/djs", handler.handleCreateDJ)
	admin.PUT("/djs/:id", handler.handleUpdateDJ)
	admin.POST("/djs/:id/approval", handler.handleSetDJApproval)
	admin.GET("/suggestions", handler.handleListSuggestions)
	admin.POST("/suggestions/:id/approve", handler.handleApproveSuggestion)
	admin.POST("/suggestions/:id/reject", handler.handleRejectSuggestion)
	admin.GET("/suggestions/:id/matches", handler.handleSuggestionMatches)
	admin.PUT("/voting-periods/:country/:year", handler.handleSetVotingPeriod)
	admin.POST("/rankings/:country/:year/publish", handler.handlePublishRanking)
	admin.POST("/posts", handler.handleCreatePost)

	return router, nil
}

type httpHandler struct {
	ranking   *ranking.Service
	currency  *currency.Service
	push      *push.Service
	content   *content.Service
	sessions  SessionValidator
	visitors  VisitorTokens
	members   MemberResolver
	contact   ContactSender
	catalog   *messages.Catalog
	reporter  monitoring.Reporter
	realtime  *RealtimeDispatcher
	heartbeat time.Duration
	logger    *zap.Logger
}

func corsMiddleware(allowedOrigins ...string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Accept-Language", visitorHeaderName},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		config.AllowOriginFunc = func(string) bool { return true }
	} else {
		config.AllowOrigins = allowedOrigins
	}
	return cors.New(config)
}
