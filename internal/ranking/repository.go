package ranking

import (
	"context"
	"time"
)

// Repository persists ranking records. Implementations return ErrNotFound for
// missing records, ErrDuplicate for unique key collisions and validate every
// record they read or write.
type Repository interface {
	CreateDJ(ctx context.Context, dj *DJ) error
	SaveDJ(ctx context.Context, dj *DJ) error
	GetDJ(ctx context.Context, id string) (DJ, error)
	FindDJByKey(ctx context.Context, nameKey, country string) (DJ, error)
	ListDJs(ctx context.Context, filter DJFilter) ([]DJ, error)
	GetDJsByIDs(ctx context.Context, ids []string) ([]DJ, error)

	CreateSuggestion(ctx context.Context, suggestion *Suggestion) error
	GetSuggestion(ctx context.Context, id string) (Suggestion, error)
	FindSuggestionByKey(ctx context.Context, nameKey, country string) (Suggestion, error)
	// AddSuggestionSubmitter adds submitterID to the suggestedBy set and bumps
	// popularity in one step. It reports false when the submitter was already present.
	AddSuggestionSubmitter(ctx context.Context, id, submitterID string, at time.Time) (bool, error)
	UpdateSuggestionReview(ctx context.Context, id string, review SuggestionReview) error
	ListSuggestions(ctx context.Context, filter SuggestionFilter) ([]Suggestion, error)

	GetVotingPeriod(ctx context.Context, country string, year int) (VotingPeriod, error)
	SaveVotingPeriod(ctx context.Context, period *VotingPeriod) error

	GetVote(ctx context.Context, userID, country string, year int) (Vote, error)
	UpsertVote(ctx context.Context, vote *Vote) error
	ListVotes(ctx context.Context, country string, year int) ([]Vote, error)

	GetRanking(ctx context.Context, country string, year int) (Ranking, error)
	ReplaceRanking(ctx context.Context, ranking *Ranking) error
}
