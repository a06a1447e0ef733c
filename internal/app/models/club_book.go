package models

import "time"

// ClubBookStatus is the reading status of a club-book history entry
type ClubBookStatus string

const (
	ClubBookInProgress ClubBookStatus = "IN_PROGRESS"
	ClubBookCompleted  ClubBookStatus = "COMPLETED"
	ClubBookAbandoned  ClubBookStatus = "ABANDONED"
)

// IsFinished reports whether s closes a reading period
func (s ClubBookStatus) IsFinished() bool {
	return s == ClubBookCompleted || s == ClubBookAbandoned
}

// ClubBook records that a club read or attempted a book during a time window
type ClubBook struct {
	ID         int64          `json:"id" db:"id"`
	ClubID     int64          `json:"clubId" db:"club_id"`
	BookID     int64          `json:"bookId" db:"book_id"`
	Status     ClubBookStatus `json:"status" db:"status"`
	StartedAt  time.Time      `json:"startedAt" db:"started_at"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty" db:"finished_at"`
	Rating     *int           `json:"rating,omitempty" db:"rating"`
	Notes      string         `json:"notes" db:"notes"`
	CreatedAt  time.Time      `json:"createdAt" db:"created_at"`
}

// WinnerSelection describes the outcome of choosing a club's next book
type WinnerSelection struct {
	ClubBook      *ClubBook `json:"clubBook"`
	SuggestionID  int64     `json:"suggestionId"`
	RejectedCount int       `json:"rejectedCount"`
}

// FinishBookInput carries the closing details of a reading period
type FinishBookInput struct {
	Status ClubBookStatus
	Rating *int
	Notes  string
}
