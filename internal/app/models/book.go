package models

import "time"

// Book is a catalogue entry. Books are managed outside the voting subsystem.
type Book struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Author    string    `json:"author" db:"author"`
	ISBN      *string   `json:"isbn,omitempty" db:"isbn"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
