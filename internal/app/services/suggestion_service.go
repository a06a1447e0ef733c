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

// SuggestionService defines the interface for suggestion operations
type SuggestionService interface {
	CreateSuggestion(ctx context.Context, clubID, bookID, proposerID int64) (*models.Suggestion, error)
	ListSuggestions(ctx context.Context, clubID, viewerID int64, status *models.SuggestionStatus) ([]models.SuggestionSummary, error)
}

// suggestionServiceImpl implements SuggestionService
type suggestionServiceImpl struct {
	store        Store
	authzService *auth.AuthorizationService
	publisher    EventPublisher
	clock        helpers.Clock
	logger       zerolog.Logger
}

// NewSuggestionService creates a new SuggestionService
func NewSuggestionService(
	store Store,
	authzService *auth.AuthorizationService,
	publisher EventPublisher,
	clock helpers.Clock,
	logger zerolog.Logger,
) SuggestionService {
	return &suggestionServiceImpl{
		store:        store,
		authzService: authzService,
		publisher:    publisher,
		clock:        clock,
		logger:       logger,
	}
}

// CreateSuggestion proposes a book in the club's open voting cycle
func (s *suggestionServiceImpl) CreateSuggestion(ctx context.Context, clubID, bookID, proposerID int64) (*models.Suggestion, error) {
	if bookID <= 0 {
		return nil, apperrors.NewValidationError("bookId must be a positive integer")
	}

	var suggestion *models.Suggestion
	err := s.store.WithinTx(ctx, func(ctx context.Context, q Queries) error {
		club, err := q.LockClub(ctx, clubID, repositories.LockShare)
		if err != nil {
			return err
		}
		if _, err := s.authzService.RequireActiveMember(ctx, q, clubID, proposerID); err != nil {
			return err
		}
		if !club.AcceptsSuggestions(s.clock.Now()) {
			return apperrors.ErrCycleNotOpen
		}

		exists, err := q.BookExists(ctx, bookID)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.ErrBookNotFound
		}

		suggestion = &models.Suggestion{
			ClubID:     clubID,
			BookID:     bookID,
			ProposerID: proposerID,
			Status:     models.SuggestionActive,
			VotingEnds: club.VotingEndsAt,
		}
		return q.CreateSuggestion(ctx, suggestion)
	})
	if err != nil {
		return nil, toServiceError(s.logger, "createSuggestion", err)
	}

	s.logger.Info().
		Int64("clubID", clubID).
		Int64("suggestionID", suggestion.ID).
		Int64("bookID", bookID).
		Int64("userID", proposerID).
		Msg("Suggestion created")

	s.publisher.Publish(models.ClubEvent{
		Type:       models.EventSuggestionCreated,
		ClubID:     clubID,
		ActorID:    proposerID,
		OccurredAt: s.clock.Now(),
		Payload:    suggestion,
	})
	return suggestion, nil
}

// ListSuggestions returns a club's suggestions with vote counts and the
// viewer's own votes. A nil status lists every status.
func (s *suggestionServiceImpl) ListSuggestions(ctx context.Context, clubID, viewerID int64, status *models.SuggestionStatus) ([]models.SuggestionSummary, error) {
	if status != nil && !status.IsValid() {
		return nil, apperrors.NewValidationError("unknown suggestion status")
	}

	var summaries []models.SuggestionSummary
	err := s.store.WithinTx(ctx, func(ctx context.Context, q Queries) error {
		if _, err := q.GetClub(ctx, clubID); err != nil {
			return err
		}
		if _, err := s.authzService.RequireActiveMember(ctx, q, clubID, viewerID); err != nil {
			return err
		}

		tallies, err := q.ListSuggestionTallies(ctx, clubID, status)
		if err != nil {
			return err
		}
		voted, err := q.VotedSuggestionIDs(ctx, clubID, viewerID)
		if err != nil {
			return err
		}

		summaries = make([]models.SuggestionSummary, 0, len(tallies))
		for _, t := range tallies {
			summaries = append(summaries, models.SuggestionSummary{SuggestionTally: t, HasVoted: voted[t.ID]})
		}
		return nil
	})
	if err != nil {
		return nil, toServiceError(s.logger, "listSuggestions", err)
	}
	return summaries, nil
}
