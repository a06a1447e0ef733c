package models

import "time"

// Vote is one member's endorsement of one suggestion
type Vote struct {
	ID           int64     `json:"id" db:"id"`
	SuggestionID int64     `json:"suggestionId" db:"suggestion_id"`
	UserID       int64     `json:"userId" db:"user_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
