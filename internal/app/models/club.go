package models

import "time"

// CycleState is the derived voting-cycle state of a club
type CycleState string

const (
	CycleIdle CycleState = "IDLE"
	CycleOpen CycleState = "OPEN"
)

// Club represents a book club and its voting-cycle state.
// The cycle fields are only written by the voting services.
type Club struct {
	ID                int64      `json:"id" db:"id"`
	Name              string     `json:"name" db:"name"`
	OwnerID           int64      `json:"ownerId" db:"owner_id"`
	CurrentBookID     *int64     `json:"currentBookId,omitempty" db:"current_book_id"`
	VotingCycleActive bool       `json:"votingCycleActive" db:"voting_cycle_active"`
	VotingStartsAt    *time.Time `json:"votingStartsAt,omitempty" db:"voting_starts_at"`
	VotingEndsAt      *time.Time `json:"votingEndsAt,omitempty" db:"voting_ends_at"`
	VotingStartedBy   *int64     `json:"votingStartedBy,omitempty" db:"voting_started_by"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`
}

// CycleState reports whether the club currently has an open voting cycle
func (c *Club) CycleState() CycleState {
	if c.VotingCycleActive {
		return CycleOpen
	}
	return CycleIdle
}

// WindowElapsed reports whether an open cycle's deadline has passed at now.
// A club without an open cycle never has an elapsed window.
func (c *Club) WindowElapsed(now time.Time) bool {
	if !c.VotingCycleActive || c.VotingEndsAt == nil {
		return false
	}
	return !now.Before(*c.VotingEndsAt)
}

// AcceptsSuggestions reports whether new suggestions may be created at now
func (c *Club) AcceptsSuggestions(now time.Time) bool {
	return c.VotingCycleActive && c.VotingEndsAt != nil && now.Before(*c.VotingEndsAt)
}

// IsReading reports whether the club has a current book
func (c *Club) IsReading() bool {
	return c.CurrentBookID != nil
}
