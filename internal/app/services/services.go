package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/shelfclub/internal/app/models"
	"github.com/yigit/shelfclub/internal/app/repositories"
	"github.com/yigit/shelfclub/internal/pkg/apperrors"
	"github.com/yigit/shelfclub/internal/pkg/dberrors"
)

// Services defined in this package:
// - SuggestionService: creates and lists book suggestions
// - VoteService: casts and retracts votes
// - VotingCycleService: opens, closes and sweeps voting cycles
// - WinnerSelectionService: picks the next book and finishes the current one

// Queries is the transactional data access used by the services
type Queries interface {
	GetClub(ctx context.Context, id int64) (*models.Club, error)
	LockClub(ctx context.Context, id int64, mode repositories.LockMode) (*models.Club, error)
	OpenVotingCycle(ctx context.Context, clubID, startedBy int64, startsAt, endsAt time.Time) (bool, error)
	ClearVotingCycle(ctx context.Context, clubID int64) (bool, error)
	SetCurrentBook(ctx context.Context, clubID, bookID int64) (bool, error)
	ClearCurrentBook(ctx context.Context, clubID, bookID int64) (bool, error)
	ListExpiredCycles(ctx context.Context, now time.Time) ([]int64, error)

	GetMembership(ctx context.Context, clubID, userID int64) (*models.ClubMember, error)

	CreateSuggestion(ctx context.Context, s *models.Suggestion) error
	GetSuggestion(ctx context.Context, id int64) (*models.Suggestion, error)
	LockSuggestion(ctx context.Context, id int64, mode repositories.LockMode) (*models.Suggestion, error)
	LockActiveSuggestions(ctx context.Context, clubID int64) ([]int64, error)
	ListSuggestionTallies(ctx context.Context, clubID int64, status *models.SuggestionStatus) ([]models.SuggestionTally, error)
	UpdateSuggestionStatus(ctx context.Context, ids []int64, from, to models.SuggestionStatus) (int64, error)
	ResolveActiveExcept(ctx context.Context, clubID int64, keepIDs []int64, to models.SuggestionStatus) (int64, error)
	FindActiveSuggestionForBook(ctx context.Context, clubID, bookID int64) (*models.Suggestion, error)

	InsertVote(ctx context.Context, suggestionID, userID int64) (bool, error)
	DeleteVote(ctx context.Context, suggestionID, userID int64) (bool, error)
	CountVotes(ctx context.Context, suggestionID int64) (int, error)
	VotedSuggestionIDs(ctx context.Context, clubID, userID int64) (map[int64]bool, error)

	CreateClubBook(ctx context.Context, cb *models.ClubBook) error
	LockOpenClubBook(ctx context.Context, clubID, bookID int64) (*models.ClubBook, error)
	FinishClubBook(ctx context.Context, id int64, status models.ClubBookStatus, finishedAt time.Time, rating *int, notes string) error
	ListClubBooks(ctx context.Context, clubID int64) ([]models.ClubBook, error)

	BookExists(ctx context.Context, id int64) (bool, error)
}

var _ Queries = (*repositories.Repositories)(nil)

// Store runs a unit of work in one transaction. fn's writes commit only when
// it returns nil.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error
}

type postgresStore struct {
	store *repositories.Store
}

// NewPostgresStore adapts the repository store to the services' Store
func NewPostgresStore(store *repositories.Store) Store {
	return &postgresStore{store: store}
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		return fn(ctx, repos)
	})
}

// EventPublisher receives committed club events. Publish must not block.
type EventPublisher interface {
	Publish(event models.ClubEvent)
}

// NoopPublisher discards events
type NoopPublisher struct{}

// Publish implements EventPublisher
func (NoopPublisher) Publish(models.ClubEvent) {}

// withConflictRetry runs fn and, if it failed on a serialization failure or
// deadlock, runs it exactly once more.
func withConflictRetry(logger zerolog.Logger, operation string, fn func() error) error {
	err := fn()
	if err == nil || !dberrors.IsTransactionConflict(err) {
		return err
	}
	logger.Warn().Err(err).Str("operation", operation).Msg("Transaction conflict, retrying once")
	return fn()
}

// toServiceError passes declared errors through and turns anything else into a
// store error, logging the cause.
func toServiceError(logger zerolog.Logger, operation string, err error) error {
	if err == nil || apperrors.IsDeclared(err) {
		return err
	}
	logger.Error().Err(err).Str("operation", operation).Msg("Store operation failed")
	return apperrors.NewStoreError(err)
}
