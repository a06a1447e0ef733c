package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/shelfclub/internal/app/auth"
	"github.com/yigit/shelfclub/internal/app/models"
	"github.com/yigit/shelfclub/internal/app/repositories"
	"github.com/yigit/shelfclub/internal/pkg/apperrors"
	"github.com/yigit/shelfclub/internal/pkg/helpers"
)

// WinnerSelectionService defines the interface for choosing and finishing a club's book
type WinnerSelectionService interface {
	SelectWinner(ctx context.Context, clubID, bookID, actorID int64) (*models.WinnerSelection, error)
	CompleteCurrentBook(ctx context.Context, clubID, actorID int64, input models.FinishBookInput) (*models.ClubBook, error)
	ListReadingHistory(ctx context.Context, clubID, viewerID int64) ([]models.ClubBook, error)
}

// winnerSelectionServiceImpl implements WinnerSelectionService
type winnerSelectionServiceImpl struct {
	store        Store
	authzService *auth.AuthorizationService
	publisher    EventPublisher
	clock        helpers.Clock
	logger       zerolog.Logger
}

// NewWinnerSelectionService creates a new WinnerSelectionService
func NewWinnerSelectionService(
	store Store,
	authzService *auth.AuthorizationService,
	publisher EventPublisher,
	clock helpers.Clock,
	logger zerolog.Logger,
) WinnerSelectionService {
	return &winnerSelectionServiceImpl{
		store:        store,
		authzService: authzService,
		publisher:    publisher,
		clock:        clock,
		logger:       logger,
	}
}

// SelectWinner makes the ACTIVE suggestion for bookID the club's current book
// and rejects every other remaining winner.
func (s *winnerSelectionServiceImpl) SelectWinner(ctx context.Context, clubID, bookID, actorID int64) (*models.WinnerSelection, error) {
	if bookID <= 0 {
		return nil, apperrors.NewValidationError("bookId must be a positive integer")
	}

	var selection *models.WinnerSelection
	err := withConflictRetry(s.logger, "selectWinner", func() error {
		return s.store.WithinTx(ctx, func(ctx context.Context, q Queries) error {
			var err error
			selection, err = s.selectWinnerTx(ctx, q, clubID, bookID, actorID)
			return err
		})
	})
	if err != nil {
		return nil, toServiceError(s.logger, "selectWinner", err)
	}

	s.logger.Info().
		Int64("clubID", clubID).
		Int64("bookID", bookID).
		Int64("suggestionID", selection.SuggestionID).
		Int64("actorID", actorID).
		Int("rejected", selection.RejectedCount).
		Msg("Winner selected")

	s.publisher.Publish(models.ClubEvent{
		Type:       models.EventWinnerSelected,
		ClubID:     clubID,
		ActorID:    actorID,
		OccurredAt: selection.ClubBook.StartedAt,
		Payload:    selection,
	})
	return selection, nil
}

func (s *winnerSelectionServiceImpl) selectWinnerTx(ctx context.Context, q Queries, clubID, bookID, actorID int64) (*models.WinnerSelection, error) {
	club, err := q.LockClub(ctx, clubID, repositories.LockUpdate)
	if err != nil {
		return nil, err
	}
	if _, err := s.authzService.RequireClubManager(ctx, q, clubID, actorID); err != nil {
		return nil, err
	}
	// Only suggestions that survived a close-out are eligible
	if club.VotingCycleActive {
		return nil, apperrors.ErrCycleAlreadyOpen
	}
	if club.IsReading() {
		return nil, apperrors.ErrClubAlreadyReading
	}

	chosen, err := q.FindActiveSuggestionForBook(ctx, clubID, bookID)
	if err != nil {
		return nil, err
	}
	if chosen == nil {
		return nil, apperrors.ErrSuggestionNotEligible
	}

	set, err := q.SetCurrentBook(ctx, clubID, bookID)
	if err != nil {
		return nil, err
	}
	if !set {
		return nil, apperrors.ErrClubAlreadyReading
	}

	moved, err := q.UpdateSuggestionStatus(ctx, []int64{chosen.ID}, models.SuggestionActive, models.SuggestionSelected)
	if err != nil {
		return nil, err
	}
	if moved != 1 {
		return nil, apperrors.ErrSuggestionNotEligible
	}

	rejected, err := q.ResolveActiveExcept(ctx, clubID, []int64{chosen.ID}, models.SuggestionRejected)
	if err != nil {
		return nil, err
	}

	clubBook := &models.ClubBook{
		ClubID:    clubID,
		BookID:    bookID,
		Status:    models.ClubBookInProgress,
		StartedAt: s.clock.Now(),
	}
	if err := q.CreateClubBook(ctx, clubBook); err != nil {
		return nil, err
	}

	return &models.WinnerSelection{
		ClubBook:      clubBook,
		SuggestionID:  chosen.ID,
		RejectedCount: int(rejected),
	}, nil
}

func validateFinishInput(input models.FinishBookInput) error {
	if !input.Status.IsFinished() {
		return apperrors.NewValidationError("status must be COMPLETED or ABANDONED")
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return apperrors.NewValidationError("rating must be between 1 and 5")
	}
	if input.Status == models.ClubBookCompleted && input.Rating == nil {
		return apperrors.NewValidationError("rating is required when status is COMPLETED")
	}
	return nil
}

// CompleteCurrentBook closes the reading period of the current book and frees
// the club for a new selection.
func (s *winnerSelectionServiceImpl) CompleteCurrentBook(ctx context.Context, clubID, actorID int64, input models.FinishBookInput) (*models.ClubBook, error) {
	if err := validateFinishInput(input); err != nil {
		return nil, err
	}

	var clubBook *models.ClubBook
	err := withConflictRetry(s.logger, "completeCurrentBook", func() error {
		return s.store.WithinTx(ctx, func(ctx context.Context, q Queries) error {
			var err error
			clubBook, err = s.completeCurrentBookTx(ctx, q, clubID, actorID, input)
			return err
		})
	})
	if err != nil {
		return nil, toServiceError(s.logger, "completeCurrentBook", err)
	}

	s.logger.Info().
		Int64("clubID", clubID).
		Int64("bookID", clubBook.BookID).
		Int64("actorID", actorID).
		Str("status", string(clubBook.Status)).
		Msg("Current book finished")

	s.publisher.Publish(models.ClubEvent{
		Type:       models.EventBookFinished,
		ClubID:     clubID,
		ActorID:    actorID,
		OccurredAt: *clubBook.FinishedAt,
		Payload:    clubBook,
	})
	return clubBook, nil
}

func (s *winnerSelectionServiceImpl) completeCurrentBookTx(ctx context.Context, q Queries, clubID, actorID int64, input models.FinishBookInput) (*models.ClubBook, error) {
	club, err := q.LockClub(ctx, clubID, repositories.LockUpdate)
	if err != nil {
		return nil, err
	}
	if _, err := s.authzService.RequireClubManager(ctx, q, clubID, actorID); err != nil {
		return nil, err
	}
	if !club.IsReading() {
		return nil, apperrors.ErrNoCurrentBook
	}
	bookID := *club.CurrentBookID
	now := s.clock.Now()

	clubBook, err := q.LockOpenClubBook(ctx, clubID, bookID)
	if err != nil {
		return nil, err
	}
	if clubBook == nil {
		// no open history row for this book; record the finished period directly
		clubBook = &models.ClubBook{
			ClubID:     clubID,
			BookID:     bookID,
			Status:     input.Status,
			StartedAt:  now,
			FinishedAt: &now,
			Rating:     input.Rating,
			Notes:      input.Notes,
		}
		if err := q.CreateClubBook(ctx, clubBook); err != nil {
			return nil, err
		}
	} else {
		if err := q.FinishClubBook(ctx, clubBook.ID, input.Status, now, input.Rating, input.Notes); err != nil {
			return nil, err
		}
		clubBook.Status = input.Status
		clubBook.FinishedAt = &now
		clubBook.Rating = input.Rating
		clubBook.Notes = input.Notes
	}

	cleared, err := q.ClearCurrentBook(ctx, clubID, bookID)
	if err != nil {
		return nil, err
	}
	if !cleared {
		return nil, apperrors.ErrNoCurrentBook
	}
	return clubBook, nil
}

// ListReadingHistory returns the club's reading history, newest first
func (s *winnerSelectionServiceImpl) ListReadingHistory(ctx context.Context, clubID, viewerID int64) ([]models.ClubBook, error) {
	var history []models.ClubBook
	err := s.store.WithinTx(ctx, func(ctx context.Context, q Queries) error {
		if _, err := q.GetClub(ctx, clubID); err != nil {
			return err
		}
		if _, err := s.authzService.RequireActiveMember(ctx, q, clubID, viewerID); err != nil {
			return err
		}
		var err error
		history, err = q.ListClubBooks(ctx, clubID)
		return err
	})
	if err != nil {
		return nil, toServiceError(s.logger, "listReadingHistory", err)
	}
	return history, nil
}
