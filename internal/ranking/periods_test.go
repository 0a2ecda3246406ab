package ranking

import (
	"context"
	"errors"
	"testing"
)

func TestSetVotingPeriodDefaultsAndPartialUpdate(t *testing.T) {
	f := newFixture(t)

	period := f.openPeriod(t, VotingPeriodPatch{SuggestionsOpen: boolPointer(true)})
	if !period.SuggestionsOpen || period.VotingOpen || period.ResultsPublished || period.TopCount != TopCountTen {
		t.Fatalf("unexpected new period: %+v", period)
	}

	period = f.openPeriod(t, VotingPeriodPatch{TopCount: intPointer(TopCountFifty)})
	if !period.SuggestionsOpen {
		t.Fatalf("expected untouched gate to keep its value")
	}
	if period.TopCount != TopCountFifty {
		t.Fatalf("expected top count 50, got %d", period.TopCount)
	}
	if period.UpdatedBy != testAdminID {
		t.Fatalf("expected audit field, got %q", period.UpdatedBy)
	}
	if len(f.events.events) != 2 || f.events.events[0].Type != EventVotingPeriodChanged {
		t.Fatalf("expected voting period events, got %+v", f.events.events)
	}
}

func TestSetVotingPeriodReopeningVotingWithdrawsResults(t *testing.T) {
	f := newFixture(t)
	f.openPeriod(t, VotingPeriodPatch{VotingOpen: boolPointer(true)})
	if _, err := f.service.PublishRanking(context.Background(), testCountry, testYear, testAdminID); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	published, err := f.service.GetVotingPeriod(context.Background(), testCountry, testYear)
	if err != nil {
		t.Fatalf("get period failed: %v", err)
	}
	if !published.ResultsPublished {
		t.Fatalf("expected results to be published")
	}

	reopened := f.openPeriod(t, VotingPeriodPatch{VotingOpen: boolPointer(true)})
	if reopened.ResultsPublished {
		t.Fatalf("expected results to be withdrawn when voting reopens")
	}
	if _, err := f.service.GetRanking(context.Background(), testCountry, testYear); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ranking to be hidden, got %v", err)
	}
}

func TestSetVotingPeriodRejectsUnknownTopCount(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.SetVotingPeriod(context.Background(), testCountry, testYear, VotingPeriodPatch{TopCount: intPointer(20)}, testAdminID)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetVotingPeriodReportsClosedDefaults(t *testing.T) {
	f := newFixture(t)
	period, err := f.service.GetVotingPeriod(context.Background(), "uy", testYear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if period.Country != "UY" || period.SuggestionsOpen || period.VotingOpen || period.ResultsPublished {
		t.Fatalf("unexpected default period: %+v", period)
	}
}
