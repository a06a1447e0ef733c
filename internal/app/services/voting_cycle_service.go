package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/shelfclub/internal/app/auth"
	"github.com/yigit/shelfclub/internal/app/models"
	"github.com/yigit/shelfclub/internal/app/repositories"
	"github.com/yigit/shelfclub/internal/pkg/apperrors"
	"github.com/yigit/shelfclub/internal/pkg/helpers"
)

// VotingConfig bounds the length of a voting cycle
type VotingConfig struct {
	DefaultDuration time.Duration
	MaxDuration     time.Duration
}

// VotingCycleService defines the interface for voting cycle operations
type VotingCycleService interface {
	OpenCycle(ctx context.Context, clubID, actorID int64, duration time.Duration) (*models.Club, error)
	CloseCycle(ctx context.Context, clubID, actorID int64) (*models.CloseResult, error)
	GetCycle(ctx context.Context, clubID, viewerID int64) (*models.CycleView, error)
	SweepExpiredCycles(ctx context.Context) (int, error)
}

// votingCycleServiceImpl implements VotingCycleService
type votingCycleServiceImpl struct {
	store        Store
	authzService *auth.AuthorizationService
	publisher    EventPublisher
	clock        helpers.Clock
	config       VotingConfig
	logger       zerolog.Logger
}

// NewVotingCycleService creates a new VotingCycleService
func NewVotingCycleService(
	store Store,
	authzService *auth.AuthorizationService,
	publisher EventPublisher,
	clock helpers.Clock,
	config VotingConfig,
	logger zerolog.Logger,
) VotingCycleService {
	return &votingCycleServiceImpl{
		store:        store,
		authzService: authzService,
		publisher:    publisher,
		clock:        clock,
		config:       config,
		logger:       logger,
	}
}

// OpenCycle starts a voting window of the given duration. A zero duration
// uses the configured default. Suggestions still ACTIVE from an earlier cycle
// are rejected in the same transaction.
func (s *votingCycleServiceImpl) OpenCycle(ctx context.Context, clubID, actorID int64, duration time.Duration) (*models.Club, error) {
	if duration == 0 {
		duration = s.config.DefaultDuration
	}
	if duration < 0 {
		return nil, apperrors.NewValidationError("voting duration must be positive")
	}
	if s.config.MaxDuration > 0 && duration > s.config.MaxDuration {
		return nil, apperrors.NewValidationError(fmt.Sprintf("voting duration must not exceed %s", s.config.MaxDuration))
	}

	var (
		club     *models.Club
		rejected int64
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, q Queries) error {
		var err error
		club, err = q.LockClub(ctx, clubID, repositories.LockUpdate)
		if err != nil {
			return err
		}
		if _, err := s.authzService.RequireClubManager(ctx, q, clubID, actorID); err != nil {
			return err
		}
		if club.VotingCycleActive {
			return apperrors.ErrCycleAlreadyOpen
		}

		// winners nobody selected from the last cycle drop out of the new one
		rejected, err = q.ResolveActiveExcept(ctx, clubID, nil, models.SuggestionRejected)
		if err != nil {
			return err
		}

		startsAt := s.clock.Now()
		endsAt := startsAt.Add(duration)
		opened, err := q.OpenVotingCycle(ctx, clubID, actorID, startsAt, endsAt)
		if err != nil {
			return err
		}
		if !opened {
			return apperrors.ErrCycleAlreadyOpen
		}

		club.VotingCycleActive = true
		club.VotingStartsAt = &startsAt
		club.VotingEndsAt = &endsAt
		club.VotingStartedBy = &actorID
		return nil
	})
	if err != nil {
		return nil, toServiceError(s.logger, "openCycle", err)
	}

	s.logger.Info().
		Int64("clubID", clubID).
		Int64("actorID", actorID).
		Time("endsAt", *club.VotingEndsAt).
		Int64("rejectedLeftovers", rejected).
		Msg("Voting cycle opened")

	s.publisher.Publish(models.ClubEvent{
		Type:       models.EventCycleOpened,
		ClubID:     clubID,
		ActorID:    actorID,
		OccurredAt: *club.VotingStartsAt,
		Payload:    club,
	})
	return club, nil
}

// CloseCycle tallies an elapsed voting window and resolves its suggestions
func (s *votingCycleServiceImpl) CloseCycle(ctx context.Context, clubID, actorID int64) (*models.CloseResult, error) {
	return s.closeCycle(ctx, clubID, actorID, true)
}

// closeCycle runs the close-out in one transaction, retried once on conflict.
// checkRole is false only for the scheduled sweep.
func (s *votingCycleServiceImpl) closeCycle(ctx context.Context, clubID, actorID int64, checkRole bool) (*models.CloseResult, error) {
	var result *models.CloseResult
	err := withConflictRetry(s.logger, "closeCycle", func() error {
		return s.store.WithinTx(ctx, func(ctx context.Context, q Queries) error {
			var err error
			result, err = s.closeCycleTx(ctx, q, clubID, actorID, checkRole)
			return err
		})
	})
	if err != nil {
		return nil, toServiceError(s.logger, "closeCycle", err)
	}

	s.logger.Info().
		Int64("clubID", clubID).
		Int64("actorID", actorID).
		Str("outcome", string(result.Outcome)).
		Int("maxVotes", result.MaxVotes).
		Int("winners", len(result.Winners)).
		Int("rejected", result.RejectedCount).
		Int("expired", result.ExpiredCount).
		Msg("Voting cycle closed")

	s.publisher.Publish(models.ClubEvent{
		Type:       models.EventCycleClosed,
		ClubID:     clubID,
		ActorID:    actorID,
		OccurredAt: result.ClosedAt,
		Payload:    result,
	})
	return result, nil
}

func (s *votingCycleServiceImpl) closeCycleTx(ctx context.Context, q Queries, clubID, actorID int64, checkRole bool) (*models.CloseResult, error) {
	club, err := q.LockClub(ctx, clubID, repositories.LockUpdate)
	if err != nil {
		return nil, err
	}
	if checkRole {
		if _, err := s.authzService.RequireClubManager(ctx, q, clubID, actorID); err != nil {
			return nil, err
		}
	}
	if !club.VotingCycleActive {
		return nil, apperrors.ErrCycleNotOpen
	}
	now := s.clock.Now()
	if !club.WindowElapsed(now) {
		return nil, apperrors.ErrCycleNotYetExpired
	}

	// Lock before counting so no vote lands between the tally and the status flip
	if _, err := q.LockActiveSuggestions(ctx, clubID); err != nil {
		return nil, err
	}
	active := models.SuggestionActive
	tallies, err := q.ListSuggestionTallies(ctx, clubID, &active)
	if err != nil {
		return nil, err
	}

	tally := Tally(tallies)
	result := &models.CloseResult{
		ClubID:   clubID,
		Outcome:  tally.Outcome,
		MaxVotes: tally.MaxVotes,
		Winners:  tally.Winners,
		ClosedAt: now,
	}
	if result.Winners == nil {
		result.Winners = []models.SuggestionTally{}
	}

	if tally.MaxVotes > 0 {
		rejected, err := q.ResolveActiveExcept(ctx, clubID, tally.WinnerIDs(), models.SuggestionRejected)
		if err != nil {
			return nil, err
		}
		result.RejectedCount = int(rejected)
	} else {
		expired, err := q.ResolveActiveExcept(ctx, clubID, nil, models.SuggestionExpired)
		if err != nil {
			return nil, err
		}
		result.ExpiredCount = int(expired)
	}

	cleared, err := q.ClearVotingCycle(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if !cleared {
		return nil, apperrors.ErrCycleNotOpen
	}
	return result, nil
}

// GetCycle returns the cycle state and current tallies of a club
func (s *votingCycleServiceImpl) GetCycle(ctx context.Context, clubID, viewerID int64) (*models.CycleView, error) {
	var view *models.CycleView
	err := s.store.WithinTx(ctx, func(ctx context.Context, q Queries) error {
		club, err := q.GetClub(ctx, clubID)
		if err != nil {
			return err
		}
		if _, err := s.authzService.RequireActiveMember(ctx, q, clubID, viewerID); err != nil {
			return err
		}

		active := models.SuggestionActive
		tallies, err := q.ListSuggestionTallies(ctx, clubID, &active)
		if err != nil {
			return err
		}

		view = &models.CycleView{
			ClubID:         clubID,
			State:          club.CycleState(),
			StartsAt:       club.VotingStartsAt,
			EndsAt:         club.VotingEndsAt,
			StartedBy:      club.VotingStartedBy,
			Expired:        club.WindowElapsed(s.clock.Now()),
			CurrentBookID:  club.CurrentBookID,
			Suggestions:    tallies,
			PendingWinners: !club.VotingCycleActive && len(tallies) > 0,
		}
		return nil
	})
	if err != nil {
		return nil, toServiceError(s.logger, "getCycle", err)
	}
	return view, nil
}

// SweepExpiredCycles closes every open cycle whose window has elapsed, using
// the same close-out as CloseCycle. Cycles closed concurrently by an admin are
// skipped, so running the sweep twice is harmless. It returns how many cycles
// this run closed.
func (s *votingCycleServiceImpl) SweepExpiredCycles(ctx context.Context) (int, error) {
	var clubIDs []int64
	err := s.store.WithinTx(ctx, func(ctx context.Context, q Queries) error {
		var err error
		clubIDs, err = q.ListExpiredCycles(ctx, s.clock.Now())
		return err
	})
	if err != nil {
		return 0, toServiceError(s.logger, "sweepExpiredCycles", err)
	}

	closed := 0
	var errs []error
	for _, clubID := range clubIDs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		_, err := s.closeCycle(ctx, clubID, 0, false)
		switch {
		case err == nil:
			closed++
		case errors.Is(err, apperrors.ErrCycleNotOpen), errors.Is(err, apperrors.ErrCycleNotYetExpired):
			s.logger.Debug().Int64("clubID", clubID).Err(err).Msg("Cycle already handled, skipping")
		default:
			s.logger.Error().Int64("clubID", clubID).Err(err).Msg("Failed to close expired cycle")
			errs = append(errs, fmt.Errorf("club %d: %w", clubID, err))
		}
	}

	return closed, errors.Join(errs...)
}
