package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/shelfclub/internal/app/models"
	"github.com/yigit/shelfclub/internal/pkg/apperrors"
)

func TestCastVoteReturnsCount(t *testing.T) {
	env := newTestEnv(t)
	env.openCycle(t)
	s1 := env.suggest(t, bookA)

	count, err := env.votes.CastVote(context.Background(), clubID, s1.ID, voterIDs[0])
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = env.votes.CastVote(context.Background(), clubID, s1.ID, voterIDs[1])
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// The same user voting twice concurrently leaves exactly one vote row
func TestCastVoteConcurrentDuplicates(t *testing.T) {
	env := newTestEnv(t)
	env.openCycle(t)
	s1 := env.suggest(t, bookA)

	const attempts = 20
	var succeeded, alreadyVoted, other int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.votes.CastVote(context.Background(), clubID, s1.ID, memberID)
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
			case errors.Is(err, apperrors.ErrAlreadyVoted):
				atomic.AddInt32(&alreadyVoted, 1)
			default:
				atomic.AddInt32(&other, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), succeeded)
	assert.Equal(t, int32(attempts-1), alreadyVoted)
	assert.Zero(t, other)
	assert.Equal(t, 1, env.voteRows(s1.ID))
}

func TestCastVoteConcurrentDistinctVoters(t *testing.T) {
	env := newTestEnv(t)
	env.openCycle(t)
	s1 := env.suggest(t, bookA)

	var wg sync.WaitGroup
	for _, uid := range voterIDs {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			_, err := env.votes.CastVote(context.Background(), clubID, s1.ID, uid)
			assert.NoError(t, err)
		}(uid)
	}
	wg.Wait()

	assert.Equal(t, len(voterIDs), env.voteRows(s1.ID))
}

func TestVotingForSeveralSuggestionsIsAllowed(t *testing.T) {
	env := newTestEnv(t)
	env.openCycle(t)
	s1 := env.suggest(t, bookA)
	s2 := env.suggest(t, bookB)

	_, err := env.votes.CastVote(context.Background(), clubID, s1.ID, memberID)
	require.NoError(t, err)
	_, err = env.votes.CastVote(context.Background(), clubID, s2.ID, memberID)
	require.NoError(t, err)
}

func TestCastVotePreconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.openCycle(t)
	s1 := env.suggest(t, bookA)

	_, err := env.votes.CastVote(ctx, clubID, s1.ID, outsiderID)
	assert.ErrorIs(t, err, apperrors.ErrNotAMember)

	_, err = env.votes.CastVote(ctx, clubID, 424242, memberID)
	assert.ErrorIs(t, err, apperrors.ErrSuggestionNotFound)

	// a suggestion addressed through the wrong club does not exist there
	_, err = env.votes.CastVote(ctx, otherClubID, s1.ID, ownerID)
	assert.ErrorIs(t, err, apperrors.ErrSuggestionNotFound)

	_, err = env.votes.CastVote(ctx, 404, s1.ID, memberID)
	assert.ErrorIs(t, err, apperrors.ErrClubNotFound)

	assert.Zero(t, env.voteRows(s1.ID))
}

func TestCastVoteAfterWindow(t *testing.T) {
	env := newTestEnv(t)
	env.openCycle(t)
	s1 := env.suggest(t, bookA)
	env.expireWindow()

	_, err := env.votes.CastVote(context.Background(), clubID, s1.ID, memberID)
	assert.ErrorIs(t, err, apperrors.ErrVotingClosed)
}

func TestCastVoteOnResolvedSuggestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.openCycle(t)
	s1 := env.suggest(t, bookA)
	s2 := env.suggest(t, bookB)
	env.castVotes(t, s1.ID, 1)
	env.expireWindow()
	_, err := env.cycles.CloseCycle(ctx, clubID, ownerID)
	require.NoError(t, err)
	require.Equal(t, models.SuggestionRejected, env.status(t, s2.ID))

	_, err = env.votes.CastVote(ctx, clubID, s2.ID, memberID)
	assert.ErrorIs(t, err, apperrors.ErrVotingClosed)
}

// Retracting then re-casting restores the count
func TestRetractAndRecastRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.openCycle(t)
	s1 := env.suggest(t, bookA)
	env.castVotes(t, s1.ID, 3)

	count, err := env.votes.RetractVote(ctx, clubID, s1.ID, voterIDs[0])
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = env.votes.CastVote(ctx, clubID, s1.ID, voterIDs[0])
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.Equal(t, []models.ClubEventType{
		models.EventCycleOpened,
		models.EventSuggestionCreated,
		models.EventVoteCast, models.EventVoteCast, models.EventVoteCast,
		models.EventVoteRetracted,
		models.EventVoteCast,
	}, env.events.types())
}

func TestRetractVotePreconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.openCycle(t)
	s1 := env.suggest(t, bookA)

	_, err := env.votes.RetractVote(ctx, clubID, s1.ID, memberID)
	assert.ErrorIs(t, err, apperrors.ErrVoteNotFound)

	_, err = env.votes.RetractVote(ctx, clubID, s1.ID, outsiderID)
	assert.ErrorIs(t, err, apperrors.ErrNotAMember)

	env.castVotes(t, s1.ID, 1)
	env.expireWindow()
	_, err = env.votes.RetractVote(ctx, clubID, s1.ID, voterIDs[0])
	assert.ErrorIs(t, err, apperrors.ErrVotingClosed)
	assert.Equal(t, 1, env.voteRows(s1.ID))
}

func TestCastVoteStoreFailureIsNotRetried(t *testing.T) {
	env := newTestEnv(t)
	env.openCycle(t)
	s1 := env.suggest(t, bookA)
	start := env.store.transactions()
	env.store.failNextTx(serializationFailure())

	_, err := env.votes.CastVote(context.Background(), clubID, s1.ID, memberID)
	assert.ErrorIs(t, err, apperrors.ErrStore)
	assert.Equal(t, 1, env.store.transactions()-start)
}
