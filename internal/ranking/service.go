package ranking

import (
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ids"
	"go.uber.org/zap"
)

const (
	opServiceNew         = "ranking.service.new"
	opSubmitSuggestion   = "ranking.submit_suggestion"
	opListSuggestions    = "ranking.list_suggestions"
	opApproveSuggestion  = "ranking.approve_suggestion"
	opRejectSuggestion   = "ranking.reject_suggestion"
	opSuggestionMatches  = "ranking.suggestion_matches"
	opCreateDJ           = "ranking.create_dj"
	opUpdateDJ           = "ranking.update_dj"
	opSetDJApproval      = "ranking.set_dj_approval"
	opListDJs            = "ranking.list_djs"
	opGetDJ              = "ranking.get_dj"
	opSetVotingPeriod    = "ranking.set_voting_period"
	opGetVotingPeriod    = "ranking.get_voting_period"
	opCastVote           = "ranking.cast_vote"
	opGetBallot          = "ranking.get_ballot"
	opPublishRanking     = "ranking.publish_ranking"
	opGetRanking         = "ranking.get_ranking"
	reasonInvalidInput   = "invalid_input"
	reasonNotFound       = "not_found"
	reasonIDFailed       = "id_generation_failed"
	reasonPeriodLookup   = "period_lookup_failed"
	reasonPeriodSave     = "period_save_failed"
	reasonDJLookup       = "dj_lookup_failed"
	reasonDJSave         = "dj_save_failed"
	reasonSuggestionRead = "suggestion_lookup_failed"
	reasonSuggestionSave = "suggestion_save_failed"
	reasonVoteLookup     = "vote_lookup_failed"
	reasonVoteSave       = "vote_save_failed"
	reasonRankingLookup  = "ranking_lookup_failed"
	reasonRankingSave    = "ranking_save_failed"
)

var noOpLogger = zap.NewNop()

// Event types emitted to the EventPublisher.
const (
	EventVotingPeriodChanged = "voting-period"
	EventRankingPublished    = "ranking-published"
)

// Event notifies listeners about a change to a country and year.
type Event struct {
	Type    string
	Country string
	Year    int
	At      time.Time
}

// EventPublisher receives ranking events. Publishing must not block.
type EventPublisher interface {
	PublishEvent(event Event)
}

// ServiceConfig describes the dependencies of the ranking service.
type ServiceConfig struct {
	Repository Repository
	Clock      func() time.Time
	IDProvider ids.Provider
	Logger     *zap.Logger
	Events     EventPublisher
}

// Service implements suggestion intake, voting period control, ballot
// collection and ranking publication on top of a Repository.
type Service struct {
	repository Repository
	clock      func() time.Time
	idProvider ids.Provider
	logger     *zap.Logger
	events     EventPublisher
}

// NewService validates the configuration and constructs the service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repository == nil {
		return nil, newServiceError(opServiceNew, "missing_repository", errMissingRepository)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		repository: cfg.Repository,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
		events:     cfg.Events,
	}, nil
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

func (s *Service) newID(operation string) (string, error) {
	id, err := s.idProvider.NewID()
	if err != nil {
		s.logError(operation, reasonIDFailed, err)
		return "", newServiceError(operation, reasonIDFailed, err)
	}
	return id, nil
}

func (s *Service) publish(eventType, country string, year int) {
	if s.events == nil {
		return
	}
	s.events.PublishEvent(Event{Type: eventType, Country: country, Year: year, At: s.now()})
}

// fail logs storage failures and wraps the cause so callers can match ErrStore.
func (s *Service) fail(operation, reason string, err error, fields ...zap.Field) error {
	s.logError(operation, reason, err, fields...)
	return newServiceError(operation, reason, storeFailure(err))
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("ranking service error", attrs...)
}

func periodFields(country string, year int) []zap.Field {
	return []zap.Field{zap.String("country", country), zap.Int("year", year)}
}

func (s *Service) ready(operation string) error {
	if s == nil || s.repository == nil {
		s.logError(operation, "missing_repository", errMissingRepository)
		return newServiceError(operation, "missing_repository", storeFailure(errMissingRepository))
	}
	if s.idProvider == nil {
		s.logError(operation, "missing_id_provider", errMissingIDProvider)
		return newServiceError(operation, "missing_id_provider", storeFailure(errMissingIDProvider))
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return nil
}
