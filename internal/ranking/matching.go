package ranking

import (
	"context"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"
)

const (
	defaultMatchLimit = 5
	maxMatchLimit     = 25
)

// DJMatch is an existing DJ whose name resembles a suggestion.
type DJMatch struct {
	DJ       DJ  `json:"dj"`
	Distance int `json:"distance"`
}

// SuggestionMatches ranks the DJs of the suggestion's country by name
// similarity so an admin can link duplicates before approving.
func (s *Service) SuggestionMatches(ctx context.Context, id string, limit int) ([]DJMatch, error) {
	if err := s.ready(opSuggestionMatches); err != nil {
		return nil, err
	}
	suggestion, err := s.loadSuggestion(ctx, opSuggestionMatches, id)
	if err != nil {
		return nil, err
	}
	djs, err := s.repository.ListDJs(ctx, DJFilter{Country: suggestion.Country})
	if err != nil {
		return nil, s.fail(opSuggestionMatches, reasonDJLookup, err, zap.String("suggestion_id", id))
	}
	return rankMatches(suggestion.Name, djs, limit), nil
}

// rankMatches matches in both directions so "DJ Tiesto" finds "Tiësto" and
// "Solo" finds "Solomun". Lower distance means a closer match.
func rankMatches(name string, djs []DJ, limit int) []DJMatch {
	if limit <= 0 {
		limit = defaultMatchLimit
	}
	if limit > maxMatchLimit {
		limit = maxMatchLimit
	}
	query := NormalizeName(name)
	if query == "" {
		return []DJMatch{}
	}

	matches := make([]DJMatch, 0)
	for _, dj := range djs {
		distance := fuzzy.RankMatchNormalizedFold(query, dj.Name)
		if distance < 0 {
			distance = fuzzy.RankMatchNormalizedFold(dj.Name, query)
		}
		if distance < 0 {
			continue
		}
		matches = append(matches, DJMatch{DJ: dj, Distance: distance})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return strings.ToLower(matches[i].DJ.Name) < strings.ToLower(matches[j].DJ.Name)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
