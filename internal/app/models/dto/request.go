package dto

// CreateSuggestionRequest proposes a book in the open voting cycle
type CreateSuggestionRequest struct {
	BookID int64 `json:"bookId" binding:"required,gt=0" example:"42"`
}

// OpenCycleRequest opens a voting cycle. Zero or missing duration uses the configured default.
// The cap of one year keeps the minute count clear of time.Duration overflow.
type OpenCycleRequest struct {
	DurationMinutes int `json:"durationMinutes" binding:"min=0,max=525600" example:"10080"`
}

// SelectWinnerRequest names the book chosen among the remaining winners
type SelectWinnerRequest struct {
	BookID int64 `json:"bookId" binding:"required,gt=0" example:"42"`
}

// CompleteBookRequest closes the reading period of the current book.
// Rating is required for COMPLETED; the service enforces it.
type CompleteBookRequest struct {
	Status string `json:"status" binding:"required,oneof=COMPLETED ABANDONED" example:"COMPLETED"`
	Rating *int   `json:"rating" binding:"omitempty,min=1,max=5" example:"4"`
	Notes  string `json:"notes" binding:"max=2000" example:"Great discussion about the ending"`
}

// SuggestionFilterRequest filters the suggestion list
type SuggestionFilterRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=ACTIVE SELECTED REJECTED EXPIRED"`
}
