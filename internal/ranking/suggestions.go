package ranking

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// SuggestionInput is a nomination as submitted by a visitor or member.
type SuggestionInput struct {
	Name        string
	Instagram   string
	Country     string
	Year        int
	SubmitterID string
}

// SubmitSuggestion records a nomination. Repeat submissions of the same
// (name, country) from a new submitter bump popularity once; repeats from a
// submitter already counted change nothing.
func (s *Service) SubmitSuggestion(ctx context.Context, input SuggestionInput) (Suggestion, error) {
	if err := s.ready(opSubmitSuggestion); err != nil {
		return Suggestion{}, err
	}
	name, err := normalizeRequiredName(input.Name)
	if err != nil {
		return Suggestion{}, newServiceError(opSubmitSuggestion, reasonInvalidInput, err)
	}
	country, err := normalizeCountryYear(input.Country, input.Year)
	if err != nil {
		return Suggestion{}, newServiceError(opSubmitSuggestion, reasonInvalidInput, err)
	}
	submitterID := strings.TrimSpace(input.SubmitterID)
	if submitterID == "" {
		return Suggestion{}, newServiceError(opSubmitSuggestion, reasonInvalidInput, invalidInput("submitter is required"))
	}
	instagram := NormalizeInstagram(input.Instagram)
	if len(instagram) > maxInstagramLength {
		return Suggestion{}, newServiceError(opSubmitSuggestion, reasonInvalidInput, invalidInput("instagram exceeds %d characters", maxInstagramLength))
	}

	period, err := s.repository.GetVotingPeriod(ctx, country, input.Year)
	switch {
	case errors.Is(err, ErrNotFound):
		return Suggestion{}, newServiceError(opSubmitSuggestion, "suggestions_closed", ErrSuggestionsClosed)
	case err != nil:
		return Suggestion{}, s.fail(opSubmitSuggestion, reasonPeriodLookup, err, periodFields(country, input.Year)...)
	case !period.SuggestionsOpen:
		return Suggestion{}, newServiceError(opSubmitSuggestion, "suggestions_closed", ErrSuggestionsClosed)
	}

	nameKey := NameKey(name)
	existing, err := s.repository.FindSuggestionByKey(ctx, nameKey, country)
	if err == nil {
		return s.addSubmitter(ctx, existing, submitterID)
	}
	if !errors.Is(err, ErrNotFound) {
		return Suggestion{}, s.fail(opSubmitSuggestion, reasonSuggestionRead, err, zap.String("name_key", nameKey))
	}

	id, err := s.newID(opSubmitSuggestion)
	if err != nil {
		return Suggestion{}, err
	}
	now := s.now()
	suggestion := Suggestion{
		ID:          id,
		Name:        name,
		NameKey:     nameKey,
		Instagram:   instagram,
		Country:     country,
		Popularity:  1,
		SuggestedBy: []string{submitterID},
		Approved:    false,
		Status:      SuggestionStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	dj, err := s.repository.FindDJByKey(ctx, nameKey, country)
	switch {
	case err == nil:
		suggestion.DJID = dj.ID
	case !errors.Is(err, ErrNotFound):
		return Suggestion{}, s.fail(opSubmitSuggestion, reasonDJLookup, err, zap.String("name_key", nameKey))
	}

	err = s.repository.CreateSuggestion(ctx, &suggestion)
	if errors.Is(err, ErrDuplicate) {
		// Another request created the same nomination first.
		existing, lookupErr := s.repository.FindSuggestionByKey(ctx, nameKey, country)
		if lookupErr != nil {
			return Suggestion{}, s.fail(opSubmitSuggestion, reasonSuggestionRead, lookupErr, zap.String("name_key", nameKey))
		}
		return s.addSubmitter(ctx, existing, submitterID)
	}
	if err != nil {
		return Suggestion{}, s.fail(opSubmitSuggestion, reasonSuggestionSave, err, zap.String("name_key", nameKey))
	}
	return suggestion, nil
}

func (s *Service) addSubmitter(ctx context.Context, suggestion Suggestion, submitterID string) (Suggestion, error) {
	if slices.Contains(suggestion.SuggestedBy, submitterID) {
		return suggestion, nil
	}
	added, err := s.repository.AddSuggestionSubmitter(ctx, suggestion.ID, submitterID, s.now())
	if err != nil {
		return Suggestion{}, s.fail(opSubmitSuggestion, reasonSuggestionSave, err, zap.String("suggestion_id", suggestion.ID))
	}
	if !added {
		s.loggerOrDefault().Debug("suggestion already counted submitter", zap.String("suggestion_id", suggestion.ID))
	}
	refreshed, err := s.repository.GetSuggestion(ctx, suggestion.ID)
	if err != nil {
		return Suggestion{}, s.fail(opSubmitSuggestion, reasonSuggestionRead, err, zap.String("suggestion_id", suggestion.ID))
	}
	return refreshed, nil
}

// ListSuggestions returns suggestions ordered by popularity.
func (s *Service) ListSuggestions(ctx context.Context, filter SuggestionFilter) ([]Suggestion, error) {
	if err := s.ready(opListSuggestions); err != nil {
		return nil, err
	}
	if filter.Country != "" {
		country, err := NormalizeCountry(filter.Country)
		if err != nil {
			return nil, newServiceError(opListSuggestions, reasonInvalidInput, err)
		}
		filter.Country = country
	}
	switch filter.Status {
	case "", SuggestionStatusPending, SuggestionStatusApproved, SuggestionStatusRejected:
	default:
		return nil, newServiceError(opListSuggestions, reasonInvalidInput, invalidInput("unknown status %q", filter.Status))
	}
	suggestions, err := s.repository.ListSuggestions(ctx, filter)
	if err != nil {
		return nil, s.fail(opListSuggestions, reasonSuggestionRead, err)
	}
	return suggestions, nil
}

// ApproveSuggestion promotes a suggestion to an approved DJ. A linked or
// same-named DJ is approved in place; otherwise a new DJ is created.
func (s *Service) ApproveSuggestion(ctx context.Context, id, adminID string) (Suggestion, DJ, error) {
	if err := s.ready(opApproveSuggestion); err != nil {
		return Suggestion{}, DJ{}, err
	}
	suggestion, err := s.loadSuggestion(ctx, opApproveSuggestion, id)
	if err != nil {
		return Suggestion{}, DJ{}, err
	}
	now := s.now()

	dj, err := s.resolveSuggestedDJ(ctx, suggestion)
	switch {
	case errors.Is(err, ErrNotFound):
		djID, idErr := s.newID(opApproveSuggestion)
		if idErr != nil {
			return Suggestion{}, DJ{}, idErr
		}
		dj = DJ{
			ID:        djID,
			Name:      suggestion.Name,
			NameKey:   suggestion.NameKey,
			Instagram: suggestion.Instagram,
			Country:   suggestion.Country,
			Approved:  true,
			CreatedBy: adminID,
			CreatedAt: now,
			UpdatedBy: adminID,
			UpdatedAt: now,
		}
		if err := s.repository.CreateDJ(ctx, &dj); err != nil {
			return Suggestion{}, DJ{}, s.fail(opApproveSuggestion, reasonDJSave, err, zap.String("suggestion_id", id))
		}
	case err != nil:
		return Suggestion{}, DJ{}, s.fail(opApproveSuggestion, reasonDJLookup, err, zap.String("suggestion_id", id))
	case !dj.Approved:
		dj.Approved = true
		dj.UpdatedBy = adminID
		dj.UpdatedAt = now
		if err := s.repository.SaveDJ(ctx, &dj); err != nil {
			return Suggestion{}, DJ{}, s.fail(opApproveSuggestion, reasonDJSave, err, zap.String("dj_id", dj.ID))
		}
	}

	review := SuggestionReview{
		DJID:       dj.ID,
		Approved:   true,
		Status:     SuggestionStatusApproved,
		ReviewedBy: adminID,
		UpdatedAt:  now,
	}
	if err := s.repository.UpdateSuggestionReview(ctx, id, review); err != nil {
		return Suggestion{}, DJ{}, s.fail(opApproveSuggestion, reasonSuggestionSave, err, zap.String("suggestion_id", id))
	}
	applyReview(&suggestion, review)
	return suggestion, dj, nil
}

// RejectSuggestion marks a suggestion rejected. The record is kept.
func (s *Service) RejectSuggestion(ctx context.Context, id, adminID string) (Suggestion, error) {
	if err := s.ready(opRejectSuggestion); err != nil {
		return Suggestion{}, err
	}
	suggestion, err := s.loadSuggestion(ctx, opRejectSuggestion, id)
	if err != nil {
		return Suggestion{}, err
	}
	review := SuggestionReview{
		DJID:       suggestion.DJID,
		Approved:   false,
		Status:     SuggestionStatusRejected,
		ReviewedBy: adminID,
		UpdatedAt:  s.now(),
	}
	if err := s.repository.UpdateSuggestionReview(ctx, id, review); err != nil {
		return Suggestion{}, s.fail(opRejectSuggestion, reasonSuggestionSave, err, zap.String("suggestion_id", id))
	}
	applyReview(&suggestion, review)
	return suggestion, nil
}

func (s *Service) loadSuggestion(ctx context.Context, operation, id string) (Suggestion, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Suggestion{}, newServiceError(operation, reasonInvalidInput, invalidInput("suggestion id is required"))
	}
	suggestion, err := s.repository.GetSuggestion(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Suggestion{}, newServiceError(operation, reasonNotFound, ErrNotFound)
	}
	if err != nil {
		return Suggestion{}, s.fail(operation, reasonSuggestionRead, err, zap.String("suggestion_id", id))
	}
	return suggestion, nil
}

func (s *Service) resolveSuggestedDJ(ctx context.Context, suggestion Suggestion) (DJ, error) {
	if suggestion.DJID != "" {
		dj, err := s.repository.GetDJ(ctx, suggestion.DJID)
		if !errors.Is(err, ErrNotFound) {
			return dj, err
		}
	}
	return s.repository.FindDJByKey(ctx, suggestion.NameKey, suggestion.Country)
}

func applyReview(suggestion *Suggestion, review SuggestionReview) {
	suggestion.DJID = review.DJID
	suggestion.Approved = review.Approved
	suggestion.Status = review.Status
	suggestion.ReviewedBy = review.ReviewedBy
	suggestion.UpdatedAt = review.UpdatedAt
}
