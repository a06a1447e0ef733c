package services

import "github.com/yigit/shelfclub/internal/app/models"

// TallyResult splits a cycle's suggestions into winners and losers
type TallyResult struct {
	Outcome  models.CycleOutcome
	MaxVotes int
	Winners  []models.SuggestionTally
	Losers   []models.SuggestionTally
}

// WinnerIDs returns the IDs of the winning suggestions
func (r TallyResult) WinnerIDs() []int64 {
	ids := make([]int64, 0, len(r.Winners))
	for _, w := range r.Winners {
		ids = append(ids, w.ID)
	}
	return ids
}

// Tally computes the close-out of a cycle. Every suggestion with the maximum
// vote count wins; ties are kept rather than broken. With no votes at all
// there are no winners and every suggestion is a loser.
func Tally(tallies []models.SuggestionTally) TallyResult {
	maxVotes := 0
	for _, t := range tallies {
		if t.VoteCount > maxVotes {
			maxVotes = t.VoteCount
		}
	}

	result := TallyResult{MaxVotes: maxVotes}
	for _, t := range tallies {
		if maxVotes > 0 && t.VoteCount == maxVotes {
			result.Winners = append(result.Winners, t)
		} else {
			result.Losers = append(result.Losers, t)
		}
	}

	switch {
	case maxVotes == 0:
		result.Outcome = models.OutcomeNoVotes
	case len(result.Winners) > 1:
		result.Outcome = models.OutcomeTie
	default:
		result.Outcome = models.OutcomeWinner
	}
	return result
}
