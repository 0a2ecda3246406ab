package ranking

import (
	"context"
	"errors"
	"testing"
)

func TestSubmitSuggestionCreatesPendingSuggestion(t *testing.T) {
	f := newFixture(t)
	f.openPeriod(t, VotingPeriodPatch{SuggestionsOpen: boolPointer(true)})

	suggestion, err := f.service.SubmitSuggestion(context.Background(), SuggestionInput{
		Name:        "  Hernan   Cattaneo ",
		Instagram:   "https://www.instagram.com/HernanCattaneo/",
		Country:     "ar",
		Year:        testYear,
		SubmitterID: "visitor:1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if suggestion.Name != "Hernan Cattaneo" {
		t.Fatalf("expected normalized name, got %q", suggestion.Name)
	}
	if suggestion.Instagram != "hernancattaneo" {
		t.Fatalf("expected bare instagram handle, got %q", suggestion.Instagram)
	}
	if suggestion.Country != testCountry {
		t.Fatalf("expected upper-cased country, got %q", suggestion.Country)
	}
	if suggestion.Popularity != 1 || len(suggestion.SuggestedBy) != 1 {
		t.Fatalf("expected popularity 1 with one submitter, got %d / %v", suggestion.Popularity, suggestion.SuggestedBy)
	}
	if suggestion.Approved || suggestion.Status != SuggestionStatusPending {
		t.Fatalf("expected pending suggestion, got %+v", suggestion)
	}
}

func TestSubmitSuggestionIsIdempotentPerSubmitter(t *testing.T) {
	f := newFixture(t)
	f.openPeriod(t, VotingPeriodPatch{SuggestionsOpen: boolPointer(true)})
	input := SuggestionInput{Name: "Deep Mariano", Country: testCountry, Year: testYear, SubmitterID: "user-1"}

	for attempt := 0; attempt < 3; attempt++ {
		if _, err := f.service.SubmitSuggestion(context.Background(), input); err != nil {
			t.Fatalf("attempt %d failed: %v", attempt, err)
		}
	}

	input.Name = "deep mariano"
	input.SubmitterID = "user-2"
	suggestion, err := f.service.SubmitSuggestion(context.Background(), input)
	if err != nil {
		t.Fatalf("second submitter failed: %v", err)
	}
	if suggestion.Popularity != 2 {
		t.Fatalf("expected popularity 2, got %d", suggestion.Popularity)
	}
	if len(suggestion.SuggestedBy) != 2 || suggestion.SuggestedBy[0] != "user-1" || suggestion.SuggestedBy[1] != "user-2" {
		t.Fatalf("unexpected submitters: %v", suggestion.SuggestedBy)
	}

	suggestions, err := f.service.ListSuggestions(context.Background(), SuggestionFilter{Country: testCountry})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("expected a single suggestion record, got %d", len(suggestions))
	}
}

func TestSubmitSuggestionRejectsBlankFields(t *testing.T) {
	f := newFixture(t)
	f.openPeriod(t, VotingPeriodPatch{SuggestionsOpen: boolPointer(true)})

	tests := []struct {
		name  string
		input SuggestionInput
	}{
		{name: "blank name", input: SuggestionInput{Name: "  ", Country: testCountry, Year: testYear, SubmitterID: "u"}},
		{name: "blank country", input: SuggestionInput{Name: "Someone", Country: "", Year: testYear, SubmitterID: "u"}},
		{name: "blank submitter", input: SuggestionInput{Name: "Someone", Country: testCountry, Year: testYear}},
		{name: "year out of range", input: SuggestionInput{Name: "Someone", Country: testCountry, Year: 1999, SubmitterID: "u"}},
	}
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := f.service.SubmitSuggestion(context.Background(), testCase.input)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSubmitSuggestionRequiresOpenSuggestions(t *testing.T) {
	f := newFixture(t)
	input := SuggestionInput{Name: "Someone", Country: testCountry, Year: testYear, SubmitterID: "u"}

	if _, err := f.service.SubmitSuggestion(context.Background(), input); !errors.Is(err, ErrSuggestionsClosed) {
		t.Fatalf("expected suggestions closed without a period, got %v", err)
	}

	f.openPeriod(t, VotingPeriodPatch{VotingOpen: boolPointer(true)})
	if _, err := f.service.SubmitSuggestion(context.Background(), input); !errors.Is(err, ErrSuggestionsClosed) {
		t.Fatalf("expected suggestions closed while only voting is open, got %v", err)
	}
}

func TestSubmitSuggestionLinksExistingDJ(t *testing.T) {
	f := newFixture(t)
	f.openPeriod(t, VotingPeriodPatch{SuggestionsOpen: boolPointer(true)})
	f.seedDJ(t, "dj-1", "Guti", testCountry, false)

	suggestion, err := f.service.SubmitSuggestion(context.Background(), SuggestionInput{
		Name: "GUTI", Country: testCountry, Year: testYear, SubmitterID: "u",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if suggestion.DJID != "dj-1" {
		t.Fatalf("expected link to dj-1, got %q", suggestion.DJID)
	}
}

func TestApproveSuggestionCreatesApprovedDJ(t *testing.T) {
	f := newFixture(t)
	f.openPeriod(t, VotingPeriodPatch{SuggestionsOpen: boolPointer(true)})
	suggestion, err := f.service.SubmitSuggestion(context.Background(), SuggestionInput{
		Name: "Soul Clap", Instagram: "@soulclap", Country: testCountry, Year: testYear, SubmitterID: "u",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	approved, dj, err := f.service.ApproveSuggestion(context.Background(), suggestion.ID, testAdminID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if !dj.Approved || dj.Name != "Soul Clap" || dj.Instagram != "soulclap" || dj.CreatedBy != testAdminID {
		t.Fatalf("unexpected dj: %+v", dj)
	}
	if !approved.Approved || approved.Status != SuggestionStatusApproved || approved.DJID != dj.ID {
		t.Fatalf("unexpected suggestion after approval: %+v", approved)
	}

	// Approving again reuses the linked DJ.
	_, again, err := f.service.ApproveSuggestion(context.Background(), suggestion.ID, testAdminID)
	if err != nil {
		t.Fatalf("second approve failed: %v", err)
	}
	if again.ID != dj.ID {
		t.Fatalf("expected the same dj, got %s and %s", dj.ID, again.ID)
	}
	djs, err := f.service.ListDJs(context.Background(), DJFilter{Country: testCountry})
	if err != nil {
		t.Fatalf("list djs failed: %v", err)
	}
	if len(djs) != 1 {
		t.Fatalf("expected one dj, got %d", len(djs))
	}
}

func TestApproveSuggestionActivatesLinkedDJ(t *testing.T) {
	f := newFixture(t)
	f.openPeriod(t, VotingPeriodPatch{SuggestionsOpen: boolPointer(true)})
	f.seedDJ(t, "dj-7", "Guti", testCountry, false)
	suggestion, err := f.service.SubmitSuggestion(context.Background(), SuggestionInput{
		Name: "Guti", Country: testCountry, Year: testYear, SubmitterID: "u",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, dj, err := f.service.ApproveSuggestion(context.Background(), suggestion.ID, testAdminID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if dj.ID != "dj-7" || !dj.Approved {
		t.Fatalf("expected dj-7 to be approved, got %+v", dj)
	}
}

func TestRejectSuggestionKeepsRecord(t *testing.T) {
	f := newFixture(t)
	f.openPeriod(t, VotingPeriodPatch{SuggestionsOpen: boolPointer(true)})
	suggestion, err := f.service.SubmitSuggestion(context.Background(), SuggestionInput{
		Name: "Nobody", Country: testCountry, Year: testYear, SubmitterID: "u",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	rejected, err := f.service.RejectSuggestion(context.Background(), suggestion.ID, testAdminID)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Approved || rejected.Status != SuggestionStatusRejected {
		t.Fatalf("unexpected rejected suggestion: %+v", rejected)
	}

	stored, err := f.service.ListSuggestions(context.Background(), SuggestionFilter{Status: SuggestionStatusRejected})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(stored) != 1 || stored[0].ReviewedBy != testAdminID {
		t.Fatalf("expected rejected record to remain, got %+v", stored)
	}
}

func TestApproveSuggestionUnknownID(t *testing.T) {
	f := newFixture(t)
	if _, _, err := f.service.ApproveSuggestion(context.Background(), "missing", testAdminID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
