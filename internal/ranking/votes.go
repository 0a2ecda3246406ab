package ranking

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// CastVote stores the ballot of userID for a country and year. A new ballot
// replaces the previous one entirely.
func (s *Service) CastVote(ctx context.Context, userID, country string, year int, djIDs []string) (Vote, error) {
	if err := s.ready(opCastVote); err != nil {
		return Vote{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Vote{}, newServiceError(opCastVote, reasonInvalidInput, invalidInput("user is required"))
	}
	country, err := normalizeCountryYear(country, year)
	if err != nil {
		return Vote{}, newServiceError(opCastVote, reasonInvalidInput, err)
	}
	ballot, err := normalizeBallot(djIDs)
	if err != nil {
		return Vote{}, newServiceError(opCastVote, "invalid_ballot", err)
	}

	period, err := s.repository.GetVotingPeriod(ctx, country, year)
	switch {
	case errors.Is(err, ErrNotFound):
		return Vote{}, newServiceError(opCastVote, "voting_closed", ErrVotingClosed)
	case err != nil:
		return Vote{}, s.fail(opCastVote, reasonPeriodLookup, err, periodFields(country, year)...)
	case !period.VotingOpen:
		return Vote{}, newServiceError(opCastVote, "voting_closed", ErrVotingClosed)
	}

	djs, err := s.repository.GetDJsByIDs(ctx, ballot)
	if err != nil {
		return Vote{}, s.fail(opCastVote, reasonDJLookup, err, periodFields(country, year)...)
	}
	eligible := make(map[string]struct{}, len(djs))
	for _, dj := range djs {
		if dj.Approved && dj.Country == country {
			eligible[dj.ID] = struct{}{}
		}
	}
	for _, djID := range ballot {
		if _, ok := eligible[djID]; !ok {
			return Vote{}, newServiceError(opCastVote, "invalid_candidate", errors.Join(ErrInvalidCandidate, errors.New(djID)))
		}
	}

	now := s.now()
	vote := Vote{
		ID:        voteID(userID, country, year),
		UserID:    userID,
		Country:   country,
		Year:      year,
		DJIDs:     ballot,
		CreatedAt: now,
		UpdatedAt: now,
	}
	previous, err := s.repository.GetVote(ctx, userID, country, year)
	switch {
	case err == nil:
		vote.ID = previous.ID
		vote.CreatedAt = previous.CreatedAt
	case !errors.Is(err, ErrNotFound):
		return Vote{}, s.fail(opCastVote, reasonVoteLookup, err, periodFields(country, year)...)
	}

	if err := s.repository.UpsertVote(ctx, &vote); err != nil {
		return Vote{}, s.fail(opCastVote, reasonVoteSave, err, append(periodFields(country, year), zap.String("user_id", userID))...)
	}
	return vote, nil
}

// GetBallot returns the stored ballot of userID for a country and year.
func (s *Service) GetBallot(ctx context.Context, userID, country string, year int) (Vote, error) {
	if err := s.ready(opGetBallot); err != nil {
		return Vote{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Vote{}, newServiceError(opGetBallot, reasonInvalidInput, invalidInput("user is required"))
	}
	country, err := normalizeCountryYear(country, year)
	if err != nil {
		return Vote{}, newServiceError(opGetBallot, reasonInvalidInput, err)
	}
	vote, err := s.repository.GetVote(ctx, userID, country, year)
	if errors.Is(err, ErrNotFound) {
		return Vote{}, newServiceError(opGetBallot, reasonNotFound, ErrNotFound)
	}
	if err != nil {
		return Vote{}, s.fail(opGetBallot, reasonVoteLookup, err, periodFields(country, year)...)
	}
	return vote, nil
}

func normalizeBallot(djIDs []string) ([]string, error) {
	if len(djIDs) == 0 {
		return nil, invalidInput("ballot must name at least one dj")
	}
	if len(djIDs) > MaxBallotSize {
		return nil, invalidInput("ballot names %d djs, at most %d allowed", len(djIDs), MaxBallotSize)
	}
	ballot := make([]string, 0, len(djIDs))
	seen := make(map[string]struct{}, len(djIDs))
	for _, raw := range djIDs {
		djID := strings.TrimSpace(raw)
		if djID == "" {
			return nil, invalidInput("ballot contains an empty dj id")
		}
		if _, duplicate := seen[djID]; duplicate {
			return nil, invalidInput("ballot names dj %s twice", djID)
		}
		seen[djID] = struct{}{}
		ballot = append(ballot, djID)
	}
	return ballot, nil
}
