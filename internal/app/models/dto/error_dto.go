package dto

import (
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

// Standard error codes for the application
const (
	// Authentication errors
	ErrorCodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"
	ErrorCodeInvalidToken     ErrorCode = "INVALID_TOKEN"
	ErrorCodeExpiredToken     ErrorCode = "EXPIRED_TOKEN"

	// Authorization errors
	ErrorCodeNotAuthorized ErrorCode = "NOT_AUTHORIZED"
	ErrorCodeNotAMember    ErrorCode = "NOT_A_MEMBER"

	// Resource errors
	ErrorCodeClubNotFound       ErrorCode = "CLUB_NOT_FOUND"
	ErrorCodeBookNotFound       ErrorCode = "BOOK_NOT_FOUND"
	ErrorCodeSuggestionNotFound ErrorCode = "SUGGESTION_NOT_FOUND"
	ErrorCodeVoteNotFound       ErrorCode = "VOTE_NOT_FOUND"
	ErrorCodeRouteNotFound      ErrorCode = "ROUTE_NOT_FOUND"

	// State conflicts
	ErrorCodeCycleNotOpen            ErrorCode = "CYCLE_NOT_OPEN"
	ErrorCodeCycleAlreadyOpen        ErrorCode = "CYCLE_ALREADY_OPEN"
	ErrorCodeCycleNotYetExpired      ErrorCode = "CYCLE_NOT_YET_EXPIRED"
	ErrorCodeVotingClosed            ErrorCode = "VOTING_CLOSED"
	ErrorCodeSuggestionNotEligible   ErrorCode = "SUGGESTION_NOT_ELIGIBLE"
	ErrorCodeSuggestionAlreadyExists ErrorCode = "SUGGESTION_ALREADY_EXISTS"
	ErrorCodeAlreadyVoted            ErrorCode = "ALREADY_VOTED"
	ErrorCodeClubAlreadyReading      ErrorCode = "CLUB_ALREADY_READING"
	ErrorCodeNoCurrentBook           ErrorCode = "NO_CURRENT_BOOK"

	// Validation errors
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_ERROR"

	// Server errors
	ErrorCodeStoreError     ErrorCode = "STORE_ERROR"
	ErrorCodeInternalServer ErrorCode = "INTERNAL_ERROR"
)

// FieldError describes one invalid request field
type FieldError struct {
	Field   string `json:"field" example:"rating"`
	Message string `json:"message" example:"rating must be at most 5"`
}

// ErrorResponse represents the standard error response structure.
// Error is always a plain message string.
type ErrorResponse struct {
	Success   bool         `json:"success" example:"false"`
	Error     string       `json:"error" example:"voting cycle is not open"`
	Code      ErrorCode    `json:"code" example:"CYCLE_NOT_OPEN"`
	Details   []FieldError `json:"details,omitempty"`
	Timestamp time.Time    `json:"timestamp" example:"2026-05-01T12:01:05.123Z"`
}

// NewErrorResponse creates a standard error response
func NewErrorResponse(code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// WithDetails attaches field-level validation failures
func (e *ErrorResponse) WithDetails(details []FieldError) *ErrorResponse {
	e.Details = details
	return e
}
