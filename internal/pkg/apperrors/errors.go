package apperrors

import "errors"

// Authentication and authorization errors
var (
	ErrNotAuthenticated = errors.New("authentication required")
	ErrNotAuthorized    = errors.New("permission denied")
	ErrNotAMember       = errors.New("not an active member of this club")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrInvalidFormat    = errors.New("invalid token format")
)

// Resource errors
var (
	ErrClubNotFound       = errors.New("club not found")
	ErrBookNotFound       = errors.New("book not found")
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrVoteNotFound       = errors.New("vote not found")
)

// Voting cycle errors
var (
	ErrCycleNotOpen       = errors.New("voting cycle is not open")
	ErrCycleAlreadyOpen   = errors.New("voting cycle is already open")
	ErrCycleNotYetExpired = errors.New("voting window has not ended yet")
	ErrVotingClosed       = errors.New("voting is closed for this suggestion")
)

// Suggestion and vote ledger errors
var (
	ErrSuggestionNotEligible   = errors.New("suggestion is not eligible")
	ErrSuggestionAlreadyExists = errors.New("book has already been suggested in this cycle")
	ErrAlreadyVoted            = errors.New("already voted for this suggestion")
)

// Reading errors
var (
	ErrClubAlreadyReading = errors.New("club is already reading a book")
	ErrNoCurrentBook      = errors.New("club has no current book")
)

// Validation and store errors
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrStore            = errors.New("store error")
)

// declared lists every kind a caller may receive as-is
var declared = []error{
	ErrNotAuthenticated, ErrNotAuthorized, ErrNotAMember, ErrTokenExpired, ErrTokenInvalid, ErrInvalidFormat,
	ErrClubNotFound, ErrBookNotFound, ErrSuggestionNotFound, ErrVoteNotFound,
	ErrCycleNotOpen, ErrCycleAlreadyOpen, ErrCycleNotYetExpired, ErrVotingClosed,
	ErrSuggestionNotEligible, ErrSuggestionAlreadyExists, ErrAlreadyVoted,
	ErrClubAlreadyReading, ErrNoCurrentBook,
	ErrValidationFailed, ErrStore,
}

// IsDeclared reports whether err carries one of the declared error kinds.
// Anything else is an unexpected failure that should become a store error.
func IsDeclared(err error) bool {
	for _, kind := range declared {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// NewValidationError creates a validation error with a caller-facing message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// NewStoreError wraps a persistence failure. The cause stays reachable through
// errors.Is/As but is never rendered by Error.
func NewStoreError(cause error) error {
	if cause == nil {
		return nil
	}
	var custom *CustomError
	if errors.As(cause, &custom) && errors.Is(custom.Err, ErrStore) {
		return cause
	}
	return &CustomError{
		Err:     ErrStore,
		Message: "storage operation failed",
		Cause:   cause,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Cause   error
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap exposes both the error kind and the underlying cause
func (e *CustomError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
