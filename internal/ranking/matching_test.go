package ranking

import (
	"context"
	"testing"
)

func TestRankMatchesFindsSimilarNames(t *testing.T) {
	djs := []DJ{
		{ID: "1", Name: "Solomun"},
		{ID: "2", Name: "Tiësto"},
		{ID: "3", Name: "Nicole Moudaber"},
	}

	matches := rankMatches("solo", djs, 0)
	if len(matches) != 1 || matches[0].DJ.ID != "1" {
		t.Fatalf("expected Solomun, got %+v", matches)
	}

	matches = rankMatches("DJ Tiesto", djs, 0)
	if len(matches) != 1 || matches[0].DJ.ID != "2" {
		t.Fatalf("expected Tiësto through accent folding, got %+v", matches)
	}
}

func TestRankMatchesOrdersAndLimits(t *testing.T) {
	djs := []DJ{
		{ID: "1", Name: "Anna Tur"},
		{ID: "2", Name: "Ann"},
		{ID: "3", Name: "Anna"},
	}
	matches := rankMatches("Ann", djs, 2)
	if len(matches) != 2 {
		t.Fatalf("expected limit to apply, got %+v", matches)
	}
	if matches[0].DJ.ID != "2" || matches[0].Distance != 0 {
		t.Fatalf("expected exact match first, got %+v", matches[0])
	}
	if matches[1].DJ.ID != "3" {
		t.Fatalf("expected closer match second, got %+v", matches[1])
	}
	if empty := rankMatches("   ", djs, 5); len(empty) != 0 {
		t.Fatalf("expected no matches for blank query, got %+v", empty)
	}
}

func TestSuggestionMatchesScopesToCountry(t *testing.T) {
	f := newFixture(t)
	f.seedDJ(t, "dj-local", "Hernan Cattaneo", testCountry, true)
	f.seedDJ(t, "dj-abroad", "Hernan Cattaneo", "UY", true)
	f.openPeriod(t, VotingPeriodPatch{SuggestionsOpen: boolPointer(true)})

	suggestion, err := f.service.SubmitSuggestion(context.Background(), SuggestionInput{
		Name:        "Hernan Catt",
		Instagram:   "@hernancattaneo",
		Country:     testCountry,
		Year:        testYear,
		SubmitterID: "visitor:1",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	matches, err := f.service.SuggestionMatches(context.Background(), suggestion.ID, 10)
	if err != nil {
		t.Fatalf("matches failed: %v", err)
	}
	if len(matches) != 1 || matches[0].DJ.ID != "dj-local" {
		t.Fatalf("expected only the local dj, got %+v", matches)
	}
}
