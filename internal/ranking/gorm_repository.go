package ranking

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	queryID               = "id = ?"
	queryIDIn             = "id IN ?"
	queryVoter            = "user_id = ? AND country = ? AND year = ?"
	queryNameKeyCountry   = "name_key = ? AND country = ?"
	queryCountryYear      = "country = ? AND year = ?"
	querySuggestionID     = "suggestion_id = ?"
	querySuggestionIDIn   = "suggestion_id IN ?"
	orderNameAsc          = "name_key ASC, id ASC"
	orderPopularityDesc   = "popularity DESC, created_at ASC, id ASC"
	orderSubmittedAsc     = "created_at ASC, submitter_id ASC"
	orderDJLookup         = "approved DESC, created_at ASC, id ASC"
	orderVotesByCreation  = "created_at ASC, id ASC"
	sqliteUniqueViolation = "UNIQUE constraint failed"
)

// GormRepository stores ranking records in a relational database through GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository wraps an open GORM handle.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if db == nil {
		return nil, errors.New("ranking: database handle is required")
	}
	return &GormRepository{db: db}, nil
}

// Models lists the schema the repository needs migrated.
func (r *GormRepository) Models() []any {
	return []any{&DJ{}, &Suggestion{}, &SuggestionSubmitter{}, &VotingPeriod{}, &Vote{}, &Ranking{}}
}

func (r *GormRepository) CreateDJ(ctx context.Context, dj *DJ) error {
	if err := validateRecord(dj); err != nil {
		return err
	}
	return translateGormError(r.db.WithContext(ctx).Create(dj).Error)
}

func (r *GormRepository) SaveDJ(ctx context.Context, dj *DJ) error {
	if err := validateRecord(dj); err != nil {
		return err
	}
	return translateGormError(r.db.WithContext(ctx).Save(dj).Error)
}

func (r *GormRepository) GetDJ(ctx context.Context, id string) (DJ, error) {
	var dj DJ
	if err := r.db.WithContext(ctx).Where(queryID, id).Take(&dj).Error; err != nil {
		return DJ{}, translateGormError(err)
	}
	return dj, validateRecord(&dj)
}

func (r *GormRepository) FindDJByKey(ctx context.Context, nameKey, country string) (DJ, error) {
	var djs []DJ
	err := r.db.WithContext(ctx).
		Where(queryNameKeyCountry, nameKey, country).
		Order(orderDJLookup).
		Limit(1).
		Find(&djs).Error
	if err != nil {
		return DJ{}, translateGormError(err)
	}
	if len(djs) == 0 {
		return DJ{}, ErrNotFound
	}
	return djs[0], validateRecord(&djs[0])
}

func (r *GormRepository) ListDJs(ctx context.Context, filter DJFilter) ([]DJ, error) {
	query := r.db.WithContext(ctx).Model(&DJ{})
	if filter.Country != "" {
		query = query.Where("country = ?", filter.Country)
	}
	if filter.ApprovedOnly {
		query = query.Where("approved = ?", true)
	}
	var djs []DJ
	if err := query.Order(orderNameAsc).Find(&djs).Error; err != nil {
		return nil, translateGormError(err)
	}
	return djs, validateRecords(djs)
}

func (r *GormRepository) GetDJsByIDs(ctx context.Context, ids []string) ([]DJ, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var djs []DJ
	if err := r.db.WithContext(ctx).Where(queryIDIn, ids).Order(orderNameAsc).Find(&djs).Error; err != nil {
		return nil, translateGormError(err)
	}
	return djs, validateRecords(djs)
}

func (r *GormRepository) CreateSuggestion(ctx context.Context, suggestion *Suggestion) error {
	if err := validateRecord(suggestion); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(suggestion).Error; err != nil {
			return err
		}
		for _, submitterID := range suggestion.SuggestedBy {
			submitter := SuggestionSubmitter{
				SuggestionID: suggestion.ID,
				SubmitterID:  submitterID,
				CreatedAt:    suggestion.CreatedAt,
			}
			if err := tx.Create(&submitter).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translateGormError(err)
}

func (r *GormRepository) GetSuggestion(ctx context.Context, id string) (Suggestion, error) {
	var suggestion Suggestion
	if err := r.db.WithContext(ctx).Where(queryID, id).Take(&suggestion).Error; err != nil {
		return Suggestion{}, translateGormError(err)
	}
	return r.withSubmitters(ctx, suggestion)
}

func (r *GormRepository) FindSuggestionByKey(ctx context.Context, nameKey, country string) (Suggestion, error) {
	var suggestion Suggestion
	if err := r.db.WithContext(ctx).Where(queryNameKeyCountry, nameKey, country).Take(&suggestion).Error; err != nil {
		return Suggestion{}, translateGormError(err)
	}
	return r.withSubmitters(ctx, suggestion)
}

func (r *GormRepository) AddSuggestionSubmitter(ctx context.Context, id, submitterID string, at time.Time) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		insert := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&SuggestionSubmitter{
			SuggestionID: id,
			SubmitterID:  submitterID,
			CreatedAt:    at,
		})
		if insert.Error != nil {
			return insert.Error
		}
		if insert.RowsAffected == 0 {
			return nil
		}
		update := tx.Model(&Suggestion{}).
			Where(queryID, id).
			Updates(map[string]any{
				"popularity": gorm.Expr("popularity + ?", 1),
				"updated_at": at,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return ErrNotFound
		}
		added = true
		return nil
	})
	if err != nil {
		return false, translateGormError(err)
	}
	return added, nil
}

func (r *GormRepository) UpdateSuggestionReview(ctx context.Context, id string, review SuggestionReview) error {
	result := r.db.WithContext(ctx).
		Model(&Suggestion{}).
		Where(queryID, id).
		Updates(map[string]any{
			"dj_id":       review.DJID,
			"approved":    review.Approved,
			"status":      string(review.Status),
			"reviewed_by": review.ReviewedBy,
			"updated_at":  review.UpdatedAt,
		})
	if result.Error != nil {
		return translateGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) ListSuggestions(ctx context.Context, filter SuggestionFilter) ([]Suggestion, error) {
	query := r.db.WithContext(ctx).Model(&Suggestion{})
	if filter.Country != "" {
		query = query.Where("country = ?", filter.Country)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	var suggestions []Suggestion
	if err := query.Order(orderPopularityDesc).Find(&suggestions).Error; err != nil {
		return nil, translateGormError(err)
	}
	if len(suggestions) == 0 {
		return suggestions, nil
	}

	identifiers := make([]string, 0, len(suggestions))
	for _, suggestion := range suggestions {
		identifiers = append(identifiers, suggestion.ID)
	}
	var submitters []SuggestionSubmitter
	if err := r.db.WithContext(ctx).
		Where(querySuggestionIDIn, identifiers).
		Order(orderSubmittedAsc).
		Find(&submitters).Error; err != nil {
		return nil, translateGormError(err)
	}
	bySuggestion := make(map[string][]string, len(suggestions))
	for _, submitter := range submitters {
		bySuggestion[submitter.SuggestionID] = append(bySuggestion[submitter.SuggestionID], submitter.SubmitterID)
	}
	for index := range suggestions {
		suggestions[index].SuggestedBy = bySuggestion[suggestions[index].ID]
		if suggestions[index].SuggestedBy == nil {
			suggestions[index].SuggestedBy = []string{}
		}
	}
	return suggestions, validateRecords(suggestions)
}

func (r *GormRepository) GetVotingPeriod(ctx context.Context, country string, year int) (VotingPeriod, error) {
	var period VotingPeriod
	if err := r.db.WithContext(ctx).Where(queryCountryYear, country, year).Take(&period).Error; err != nil {
		return VotingPeriod{}, translateGormError(err)
	}
	return period, validateRecord(&period)
}

func (r *GormRepository) SaveVotingPeriod(ctx context.Context, period *VotingPeriod) error {
	if err := validateRecord(period); err != nil {
		return err
	}
	return translateGormError(r.db.WithContext(ctx).Save(period).Error)
}

func (r *GormRepository) GetVote(ctx context.Context, userID, country string, year int) (Vote, error) {
	var vote Vote
	if err := r.db.WithContext(ctx).Where(queryVoter, userID, country, year).Take(&vote).Error; err != nil {
		return Vote{}, translateGormError(err)
	}
	return vote, validateRecord(&vote)
}

func (r *GormRepository) UpsertVote(ctx context.Context, vote *Vote) error {
	if err := validateRecord(vote); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "country"}, {Name: "year"}},
			DoUpdates: clause.AssignmentColumns([]string{"dj_ids", "updated_at"}),
		}).
		Create(vote).Error
	return translateGormError(err)
}

func (r *GormRepository) ListVotes(ctx context.Context, country string, year int) ([]Vote, error) {
	var votes []Vote
	if err := r.db.WithContext(ctx).
		Where(queryCountryYear, country, year).
		Order(orderVotesByCreation).
		Find(&votes).Error; err != nil {
		return nil, translateGormError(err)
	}
	return votes, validateRecords(votes)
}

func (r *GormRepository) GetRanking(ctx context.Context, country string, year int) (Ranking, error) {
	var ranking Ranking
	if err := r.db.WithContext(ctx).Where(queryID, periodID(country, year)).Take(&ranking).Error; err != nil {
		return Ranking{}, translateGormError(err)
	}
	return ranking, validateRecord(&ranking)
}

func (r *GormRepository) ReplaceRanking(ctx context.Context, ranking *Ranking) error {
	if err := validateRecord(ranking); err != nil {
		return err
	}
	return translateGormError(r.db.WithContext(ctx).Save(ranking).Error)
}

func (r *GormRepository) withSubmitters(ctx context.Context, suggestion Suggestion) (Suggestion, error) {
	submitters := []string{}
	if err := r.db.WithContext(ctx).
		Model(&SuggestionSubmitter{}).
		Where(querySuggestionID, suggestion.ID).
		Order(orderSubmittedAsc).
		Pluck("submitter_id", &submitters).Error; err != nil {
		return Suggestion{}, translateGormError(err)
	}
	suggestion.SuggestedBy = submitters
	return suggestion, validateRecord(&suggestion)
}

func translateGormError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidRecord):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), sqliteUniqueViolation):
		return errors.Join(ErrDuplicate, err)
	default:
		return err
	}
}
