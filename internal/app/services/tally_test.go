package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yigit/shelfclub/internal/app/models"
)

func tally(id int64, votes int) models.SuggestionTally {
	return models.SuggestionTally{Suggestion: models.Suggestion{ID: id}, VoteCount: votes}
}

func TestTally(t *testing.T) {
	tests := []struct {
		name       string
		tallies    []models.SuggestionTally
		outcome    models.CycleOutcome
		maxVotes   int
		winnerIDs  []int64
		loserCount int
	}{
		{name: "no suggestions", outcome: models.OutcomeNoVotes, winnerIDs: []int64{}},
		{name: "no votes", tallies: []models.SuggestionTally{tally(1, 0), tally(2, 0)}, outcome: models.OutcomeNoVotes, winnerIDs: []int64{}, loserCount: 2},
		{name: "single winner", tallies: []models.SuggestionTally{tally(1, 2), tally(2, 5), tally(3, 0)}, outcome: models.OutcomeWinner, maxVotes: 5, winnerIDs: []int64{2}, loserCount: 2},
		{name: "two-way tie", tallies: []models.SuggestionTally{tally(1, 3), tally(2, 3), tally(3, 1)}, outcome: models.OutcomeTie, maxVotes: 3, winnerIDs: []int64{1, 2}, loserCount: 1},
		{name: "everyone ties", tallies: []models.SuggestionTally{tally(1, 1), tally(2, 1)}, outcome: models.OutcomeTie, maxVotes: 1, winnerIDs: []int64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Tally(tt.tallies)
			assert.Equal(t, tt.outcome, result.Outcome)
			assert.Equal(t, tt.maxVotes, result.MaxVotes)
			assert.Equal(t, tt.winnerIDs, result.WinnerIDs())
			assert.Len(t, result.Losers, tt.loserCount)
		})
	}
}
