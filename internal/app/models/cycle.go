package models

import "time"

// CycleOutcome classifies the tally of a closed voting cycle
type CycleOutcome string

const (
	// OutcomeNoVotes means nothing was voted on and every suggestion expired
	OutcomeNoVotes CycleOutcome = "NO_VOTES"
	OutcomeWinner  CycleOutcome = "WINNER"
	// OutcomeTie leaves several suggestions ACTIVE until a winner is selected
	OutcomeTie CycleOutcome = "TIE"
)

// CloseResult describes what a cycle close-out did
type CloseResult struct {
	ClubID        int64             `json:"clubId"`
	Outcome       CycleOutcome      `json:"outcome"`
	MaxVotes      int               `json:"maxVotes"`
	Winners       []SuggestionTally `json:"winners"`
	RejectedCount int               `json:"rejectedCount"`
	ExpiredCount  int               `json:"expiredCount"`
	ClosedAt      time.Time         `json:"closedAt"`
}

// CycleView is the member-visible state of a club's voting cycle
type CycleView struct {
	ClubID         int64             `json:"clubId"`
	State          CycleState        `json:"state"`
	StartsAt       *time.Time        `json:"startsAt,omitempty"`
	EndsAt         *time.Time        `json:"endsAt,omitempty"`
	StartedBy      *int64            `json:"startedBy,omitempty"`
	Expired        bool              `json:"expired"`
	CurrentBookID  *int64            `json:"currentBookId,omitempty"`
	Suggestions    []SuggestionTally `json:"suggestions"`
	PendingWinners bool              `json:"pendingWinners"`
}
