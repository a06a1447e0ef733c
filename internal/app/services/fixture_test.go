package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yigit/shelfclub/internal/app/auth"
	"github.com/yigit/shelfclub/internal/app/models"
)

const (
	clubID      int64 = 1
	otherClubID int64 = 2

	ownerID    int64 = 1
	adminID    int64 = 2
	memberID   int64 = 3
	outsiderID int64 = 99

	bookA int64 = 10
	bookB int64 = 11
	bookC int64 = 12
	bookD int64 = 13
)

// voterIDs are active members used to cast votes
var voterIDs = []int64{3, 4, 5, 6, 7, 8}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ClubEvent
}

func (p *recordingPublisher) Publish(event models.ClubEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []models.ClubEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]models.ClubEventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type testEnv struct {
	store       *memStore
	clock       *fakeClock
	events      *recordingPublisher
	suggestions SuggestionService
	votes       VoteService
	cycles      VotingCycleService
	winners     WinnerSelectionService
}

const testCycleDuration = 24 * time.Hour

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	store.seed(func(d *memData) {
		for _, id := range []int64{clubID, otherClubID} {
			d.clubs[id] = models.Club{ID: id, Name: "club", OwnerID: ownerID}
		}
		for _, club := range []int64{clubID, otherClubID} {
			d.members[memberKey{club, ownerID}] = models.ClubMember{ClubID: club, UserID: ownerID, Role: models.ClubRoleOwner, Status: models.MembershipActive}
		}
		d.members[memberKey{clubID, adminID}] = models.ClubMember{ClubID: clubID, UserID: adminID, Role: models.ClubRoleAdmin, Status: models.MembershipActive}
		for _, uid := range voterIDs {
			d.members[memberKey{clubID, uid}] = models.ClubMember{ClubID: clubID, UserID: uid, Role: models.ClubRoleMember, Status: models.MembershipActive}
		}
		for _, b := range []int64{bookA, bookB, bookC, bookD} {
			d.books[b] = true
		}
	})

	clock := &fakeClock{now: time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)}
	events := &recordingPublisher{}
	authz := auth.NewAuthorizationService(zerolog.Nop())
	logger := zerolog.Nop()

	return &testEnv{
		store:       store,
		clock:       clock,
		events:      events,
		suggestions: NewSuggestionService(store, authz, events, clock, logger),
		votes:       NewVoteService(store, authz, events, clock, logger),
		cycles: NewVotingCycleService(store, authz, events, clock, VotingConfig{
			DefaultDuration: testCycleDuration,
			MaxDuration:     7 * testCycleDuration,
		}, logger),
		winners: NewWinnerSelectionService(store, authz, events, clock, logger),
	}
}

func (e *testEnv) openCycle(t *testing.T) {
	t.Helper()
	_, err := e.cycles.OpenCycle(context.Background(), clubID, ownerID, 0)
	require.NoError(t, err)
}

func (e *testEnv) suggest(t *testing.T, bookID int64) *models.Suggestion {
	t.Helper()
	s, err := e.suggestions.CreateSuggestion(context.Background(), clubID, bookID, memberID)
	require.NoError(t, err)
	return s
}

func (e *testEnv) castVotes(t *testing.T, suggestionID int64, n int) {
	t.Helper()
	require.LessOrEqual(t, n, len(voterIDs))
	for _, uid := range voterIDs[:n] {
		_, err := e.votes.CastVote(context.Background(), clubID, suggestionID, uid)
		require.NoError(t, err)
	}
}

func (e *testEnv) expireWindow() {
	e.clock.Advance(testCycleDuration)
}

func (e *testEnv) club(t *testing.T, id int64) models.Club {
	t.Helper()
	club, ok := e.store.snapshot().clubs[id]
	require.True(t, ok)
	return club
}

func (e *testEnv) status(t *testing.T, suggestionID int64) models.SuggestionStatus {
	t.Helper()
	s, ok := e.store.snapshot().suggestions[suggestionID]
	require.True(t, ok)
	return s.Status
}

func (e *testEnv) voteRows(suggestionID int64) int {
	count := 0
	for key := range e.store.snapshot().votes {
		if key.suggestionID == suggestionID {
			count++
		}
	}
	return count
}
