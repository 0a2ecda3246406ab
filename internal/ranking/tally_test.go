package ranking

import "testing"

func approvedDJs(names map[string]string) map[string]DJ {
	djs := make(map[string]DJ, len(names))
	for id, name := range names {
		djs[id] = DJ{ID: id, Name: name, Approved: true}
	}
	return djs
}

func TestTallyRanksByVoteCountAndTruncates(t *testing.T) {
	djs := approvedDJs(map[string]string{"a": "Alpha", "b": "Bravo", "c": "Charlie"})
	votes := []Vote{
		{DJIDs: []string{"a", "b", "c"}},
		{DJIDs: []string{"a", "b"}},
		{DJIDs: []string{"a"}},
	}

	entries := Tally(votes, djs, 2)

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	expected := []RankedDJ{
		{DJID: "a", Position: 1, VoteCount: 3, Name: "Alpha"},
		{DJID: "b", Position: 2, VoteCount: 2, Name: "Bravo"},
	}
	for index, want := range expected {
		got := entries[index]
		if got.DJID != want.DJID || got.Position != want.Position || got.VoteCount != want.VoteCount || got.Name != want.Name {
			t.Fatalf("entry %d: expected %+v, got %+v", index, want, got)
		}
	}
}

func TestTallyBreaksTiesByNameThenID(t *testing.T) {
	djs := map[string]DJ{
		"z": {ID: "z", Name: "anna", Approved: true},
		"y": {ID: "y", Name: "Anna", Approved: true},
		"x": {ID: "x", Name: "Bruno", Approved: true},
	}
	votes := []Vote{{DJIDs: []string{"x", "y", "z"}}}

	entries := Tally(votes, djs, 10)

	order := []string{entries[0].DJID, entries[1].DJID, entries[2].DJID}
	expected := []string{"y", "z", "x"}
	for index := range expected {
		if order[index] != expected[index] {
			t.Fatalf("expected order %v, got %v", expected, order)
		}
	}
}

func TestTallyCountsDuplicateIDsOncePerBallot(t *testing.T) {
	djs := approvedDJs(map[string]string{"a": "Alpha"})
	entries := Tally([]Vote{{DJIDs: []string{"a", "a"}}}, djs, 10)
	if len(entries) != 1 || entries[0].VoteCount != 1 {
		t.Fatalf("expected single vote, got %+v", entries)
	}
}

func TestTallySkipsUnknownAndDeactivatedDJs(t *testing.T) {
	djs := map[string]DJ{
		"a": {ID: "a", Name: "Alpha", Approved: true},
		"b": {ID: "b", Name: "Bravo", Approved: false},
	}
	entries := Tally([]Vote{{DJIDs: []string{"a", "b", "ghost"}}}, djs, 10)
	if len(entries) != 1 || entries[0].DJID != "a" {
		t.Fatalf("expected only approved dj, got %+v", entries)
	}
}

func TestTallyWithoutVotesIsEmpty(t *testing.T) {
	entries := Tally(nil, nil, 10)
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil entries, got %#v", entries)
	}
}
