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

// VoteService defines the interface for the vote ledger
type VoteService interface {
	CastVote(ctx context.Context, clubID, suggestionID, voterID int64) (int, error)
	RetractVote(ctx context.Context, clubID, suggestionID, voterID int64) (int, error)
}

// voteServiceImpl implements VoteService
type voteServiceImpl struct {
	store        Store
	authzService *auth.AuthorizationService
	publisher    EventPublisher
	clock        helpers.Clock
	logger       zerolog.Logger
}

// NewVoteService creates a new VoteService
func NewVoteService(
	store Store,
	authzService *auth.AuthorizationService,
	publisher EventPublisher,
	clock helpers.Clock,
	logger zerolog.Logger,
) VoteService {
	return &voteServiceImpl{
		store:        store,
		authzService: authzService,
		publisher:    publisher,
		clock:        clock,
		logger:       logger,
	}
}

// VoteCount is the payload of vote events
type VoteCount struct {
	SuggestionID int64 `json:"suggestionId"`
	VoteCount    int   `json:"voteCount"`
}

// lockVotableSuggestion checks membership, then share-locks the suggestion so
// a concurrent cycle close waits for this vote, and checks it still takes votes.
func (s *voteServiceImpl) lockVotableSuggestion(ctx context.Context, q Queries, clubID, suggestionID, voterID int64) (*models.Suggestion, error) {
	if _, err := q.GetClub(ctx, clubID); err != nil {
		return nil, err
	}
	if _, err := s.authzService.RequireActiveMember(ctx, q, clubID, voterID); err != nil {
		return nil, err
	}

	suggestion, err := q.LockSuggestion(ctx, suggestionID, repositories.LockShare)
	if err != nil {
		return nil, err
	}
	if suggestion.ClubID != clubID {
		return nil, apperrors.ErrSuggestionNotFound
	}
	if !suggestion.AcceptsVotes(s.clock.Now()) {
		return nil, apperrors.ErrVotingClosed
	}
	return suggestion, nil
}

// CastVote records the voter's vote and returns the suggestion's new vote count.
// The (suggestion, voter) unique key decides concurrent duplicates.
func (s *voteServiceImpl) CastVote(ctx context.Context, clubID, suggestionID, voterID int64) (int, error) {
	var count int
	err := s.store.WithinTx(ctx, func(ctx context.Context, q Queries) error {
		if _, err := s.lockVotableSuggestion(ctx, q, clubID, suggestionID, voterID); err != nil {
			return err
		}

		inserted, err := q.InsertVote(ctx, suggestionID, voterID)
		if err != nil {
			return err
		}
		if !inserted {
			return apperrors.ErrAlreadyVoted
		}

		count, err = q.CountVotes(ctx, suggestionID)
		return err
	})
	if err != nil {
		return 0, toServiceError(s.logger, "castVote", err)
	}

	s.logger.Debug().
		Int64("clubID", clubID).
		Int64("suggestionID", suggestionID).
		Int64("userID", voterID).
		Int("voteCount", count).
		Msg("Vote cast")

	s.publisher.Publish(models.ClubEvent{
		Type:       models.EventVoteCast,
		ClubID:     clubID,
		ActorID:    voterID,
		OccurredAt: s.clock.Now(),
		Payload:    VoteCount{SuggestionID: suggestionID, VoteCount: count},
	})
	return count, nil
}

// RetractVote removes the voter's vote while the suggestion still takes votes
// and returns the updated count.
func (s *voteServiceImpl) RetractVote(ctx context.Context, clubID, suggestionID, voterID int64) (int, error) {
	var count int
	err := s.store.WithinTx(ctx, func(ctx context.Context, q Queries) error {
		if _, err := s.lockVotableSuggestion(ctx, q, clubID, suggestionID, voterID); err != nil {
			return err
		}

		deleted, err := q.DeleteVote(ctx, suggestionID, voterID)
		if err != nil {
			return err
		}
		if !deleted {
			return apperrors.ErrVoteNotFound
		}

		count, err = q.CountVotes(ctx, suggestionID)
		return err
	})
	if err != nil {
		return 0, toServiceError(s.logger, "retractVote", err)
	}

	s.logger.Debug().
		Int64("clubID", clubID).
		Int64("suggestionID", suggestionID).
		Int64("userID", voterID).
		Int("voteCount", count).
		Msg("Vote retracted")

	s.publisher.Publish(models.ClubEvent{
		Type:       models.EventVoteRetracted,
		ClubID:     clubID,
		ActorID:    voterID,
		OccurredAt: s.clock.Now(),
		Payload:    VoteCount{SuggestionID: suggestionID, VoteCount: count},
	})
	return count, nil
}
