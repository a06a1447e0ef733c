package models

import "time"

// SuggestionStatus is the lifecycle status of a suggestion
type SuggestionStatus string

const (
	SuggestionActive   SuggestionStatus = "ACTIVE"
	SuggestionSelected SuggestionStatus = "SELECTED"
	SuggestionRejected SuggestionStatus = "REJECTED"
	SuggestionExpired  SuggestionStatus = "EXPIRED"
)

// IsValid reports whether s is a known status
func (s SuggestionStatus) IsValid() bool {
	switch s {
	case SuggestionActive, SuggestionSelected, SuggestionRejected, SuggestionExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed out of s
func (s SuggestionStatus) IsTerminal() bool {
	return s == SuggestionSelected || s == SuggestionRejected || s == SuggestionExpired
}

// Suggestion is a proposal to read a book within a club's voting cycle
type Suggestion struct {
	ID         int64            `json:"id" db:"id"`
	ClubID     int64            `json:"clubId" db:"club_id"`
	BookID     int64            `json:"bookId" db:"book_id"`
	ProposerID int64            `json:"proposerId" db:"proposer_id"`
	Status     SuggestionStatus `json:"status" db:"status"`
	VotingEnds *time.Time       `json:"votingEnds,omitempty" db:"voting_ends"`
	CreatedAt  time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time        `json:"updatedAt" db:"updated_at"`
}

// AcceptsVotes reports whether votes may be cast or retracted at now
func (s *Suggestion) AcceptsVotes(now time.Time) bool {
	if s.Status != SuggestionActive {
		return false
	}
	return s.VotingEnds == nil || now.Before(*s.VotingEnds)
}

// SuggestionTally is a suggestion together with its current vote count
type SuggestionTally struct {
	Suggestion
	VoteCount int `json:"voteCount" db:"vote_count"`
}

// SuggestionSummary is a tally as seen by one member
type SuggestionSummary struct {
	SuggestionTally
	HasVoted bool `json:"hasVoted"`
}
