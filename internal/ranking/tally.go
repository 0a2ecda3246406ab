package ranking

import (
	"sort"
	"strings"
)

// Tally counts ballots into ranked entries. Each DJ counts once per ballot
// regardless of position. DJs absent from djs or no longer approved are left
// out. Ties are broken by case folded name, then by id, so the same ballots
// always produce the same order. A positive topCount truncates the result.
func Tally(votes []Vote, djs map[string]DJ, topCount int) []RankedDJ {
	counts := make(map[string]int)
	for _, vote := range votes {
		seen := make(map[string]struct{}, len(vote.DJIDs))
		for _, djID := range vote.DJIDs {
			if _, duplicate := seen[djID]; duplicate {
				continue
			}
			seen[djID] = struct{}{}
			counts[djID]++
		}
	}

	entries := make([]RankedDJ, 0, len(counts))
	for djID, count := range counts {
		dj, ok := djs[djID]
		if !ok || !dj.Approved {
			continue
		}
		entries = append(entries, RankedDJ{
			DJID:      djID,
			VoteCount: count,
			Name:      dj.Name,
			Instagram: dj.Instagram,
			PhotoURL:  dj.PhotoURL,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		left, right := entries[i], entries[j]
		if left.VoteCount != right.VoteCount {
			return left.VoteCount > right.VoteCount
		}
		leftName, rightName := strings.ToLower(left.Name), strings.ToLower(right.Name)
		if leftName != rightName {
			return leftName < rightName
		}
		return left.DJID < right.DJID
	})

	if topCount > 0 && len(entries) > topCount {
		entries = entries[:topCount]
	}
	for index := range entries {
		entries[index].Position = index + 1
	}
	return entries
}

func ballotCandidates(votes []Vote) []string {
	seen := make(map[string]struct{})
	candidates := make([]string, 0)
	for _, vote := range votes {
		for _, djID := range vote.DJIDs {
			if _, ok := seen[djID]; ok {
				continue
			}
			seen[djID] = struct{}{}
			candidates = append(candidates, djID)
		}
	}
	sort.Strings(candidates)
	return candidates
}
