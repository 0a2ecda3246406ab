package ranking

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// PublishRanking closes voting, tallies every ballot for the country and year
// and replaces the published ranking. Running it again over the same ballots
// yields the same entries. Zero ballots publish an empty ranking.
func (s *Service) PublishRanking(ctx context.Context, country string, year int, adminID string) (Ranking, error) {
	if err := s.ready(opPublishRanking); err != nil {
		return Ranking{}, err
	}
	country, err := normalizeCountryYear(country, year)
	if err != nil {
		return Ranking{}, newServiceError(opPublishRanking, reasonInvalidInput, err)
	}

	period, err := s.repository.GetVotingPeriod(ctx, country, year)
	if errors.Is(err, ErrNotFound) {
		return Ranking{}, newServiceError(opPublishRanking, reasonNotFound, ErrNotFound)
	}
	if err != nil {
		return Ranking{}, s.fail(opPublishRanking, reasonPeriodLookup, err, periodFields(country, year)...)
	}

	if period.VotingOpen {
		period.VotingOpen = false
		period.UpdatedBy = adminID
		period.UpdatedAt = s.now()
		if err := s.repository.SaveVotingPeriod(ctx, &period); err != nil {
			return Ranking{}, s.fail(opPublishRanking, reasonPeriodSave, err, periodFields(country, year)...)
		}
	}

	votes, err := s.repository.ListVotes(ctx, country, year)
	if err != nil {
		return Ranking{}, s.fail(opPublishRanking, reasonVoteLookup, err, periodFields(country, year)...)
	}
	djs, err := s.repository.GetDJsByIDs(ctx, ballotCandidates(votes))
	if err != nil {
		return Ranking{}, s.fail(opPublishRanking, reasonDJLookup, err, periodFields(country, year)...)
	}
	byID := make(map[string]DJ, len(djs))
	for _, dj := range djs {
		byID[dj.ID] = dj
	}

	topCount := period.TopCount
	if !validTopCount(topCount) {
		topCount = TopCountTen
	}
	ranking := Ranking{
		ID:           periodID(country, year),
		Country:      country,
		Year:         year,
		TopCount:     topCount,
		TotalBallots: len(votes),
		DJs:          Tally(votes, byID, topCount),
		PublishedAt:  s.now(),
		PublishedBy:  adminID,
	}
	if err := s.repository.ReplaceRanking(ctx, &ranking); err != nil {
		return Ranking{}, s.fail(opPublishRanking, reasonRankingSave, err, periodFields(country, year)...)
	}

	period.ResultsPublished = true
	period.UpdatedBy = adminID
	period.UpdatedAt = s.now()
	if err := s.repository.SaveVotingPeriod(ctx, &period); err != nil {
		return Ranking{}, s.fail(opPublishRanking, reasonPeriodSave, err, periodFields(country, year)...)
	}

	s.loggerOrDefault().Info("ranking published",
		zap.String("country", country),
		zap.Int("year", year),
		zap.Int("ballots", ranking.TotalBallots),
		zap.Int("entries", len(ranking.DJs)))
	s.publish(EventRankingPublished, country, year)
	return ranking, nil
}

// GetRanking returns the published ranking. Rankings whose period has not
// published results are reported as not found.
func (s *Service) GetRanking(ctx context.Context, country string, year int) (Ranking, error) {
	if err := s.ready(opGetRanking); err != nil {
		return Ranking{}, err
	}
	country, err := normalizeCountryYear(country, year)
	if err != nil {
		return Ranking{}, newServiceError(opGetRanking, reasonInvalidInput, err)
	}
	period, err := s.repository.GetVotingPeriod(ctx, country, year)
	if errors.Is(err, ErrNotFound) {
		return Ranking{}, newServiceError(opGetRanking, reasonNotFound, ErrNotFound)
	}
	if err != nil {
		return Ranking{}, s.fail(opGetRanking, reasonPeriodLookup, err, periodFields(country, year)...)
	}
	if !period.ResultsPublished {
		return Ranking{}, newServiceError(opGetRanking, "not_published", ErrNotFound)
	}
	ranking, err := s.repository.GetRanking(ctx, country, year)
	if errors.Is(err, ErrNotFound) {
		return Ranking{}, newServiceError(opGetRanking, reasonNotFound, ErrNotFound)
	}
	if err != nil {
		return Ranking{}, s.fail(opGetRanking, reasonRankingLookup, err, periodFields(country, year)...)
	}
	return ranking, nil
}
