package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yigit/shelfclub/internal/app/models"
	"github.com/yigit/shelfclub/internal/app/repositories"
	"github.com/yigit/shelfclub/internal/pkg/apperrors"
)

type memberKey struct{ clubID, userID int64 }

type voteKey struct{ suggestionID, userID int64 }

// memData is one consistent snapshot of the in-memory database
type memData struct {
	clubs       map[int64]models.Club
	members     map[memberKey]models.ClubMember
	suggestions map[int64]models.Suggestion
	votes       map[voteKey]models.Vote
	clubBooks   map[int64]models.ClubBook
	books       map[int64]bool
	nextID      int64
}

func newMemData() *memData {
	return &memData{
		clubs:       map[int64]models.Club{},
		members:     map[memberKey]models.ClubMember{},
		suggestions: map[int64]models.Suggestion{},
		votes:       map[voteKey]models.Vote{},
		clubBooks:   map[int64]models.ClubBook{},
		books:       map[int64]bool{},
		nextID:      1000,
	}
}

func (d *memData) clone() *memData {
	c := &memData{
		clubs:       make(map[int64]models.Club, len(d.clubs)),
		members:     make(map[memberKey]models.ClubMember, len(d.members)),
		suggestions: make(map[int64]models.Suggestion, len(d.suggestions)),
		votes:       make(map[voteKey]models.Vote, len(d.votes)),
		clubBooks:   make(map[int64]models.ClubBook, len(d.clubBooks)),
		books:       make(map[int64]bool, len(d.books)),
		nextID:      d.nextID,
	}
	for k, v := range d.clubs {
		c.clubs[k] = v
	}
	for k, v := range d.members {
		c.members[k] = v
	}
	for k, v := range d.suggestions {
		c.suggestions[k] = v
	}
	for k, v := range d.votes {
		c.votes[k] = v
	}
	for k, v := range d.clubBooks {
		c.clubBooks[k] = v
	}
	for k, v := range d.books {
		c.books[k] = v
	}
	return c
}

// memStore serializes transactions and discards a transaction's writes when
// it fails, which is what the services rely on from PostgreSQL.
type memStore struct {
	mu      sync.Mutex
	data    *memData
	txCount int

	// injected errors returned by the next transactions, in order
	txErrors []error
	// failing query name -> error, checked inside transactions
	queryErrors map[string]error
}

func newMemStore() *memStore {
	return &memStore{data: newMemData(), queryErrors: map[string]error{}}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txCount++
	if len(m.txErrors) > 0 {
		err := m.txErrors[0]
		m.txErrors = m.txErrors[1:]
		return err
	}

	work := m.data.clone()
	if err := fn(ctx, &memQueries{d: work, failures: m.queryErrors}); err != nil {
		return err
	}
	m.data = work
	return nil
}

func (m *memStore) failNextTx(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txErrors = append(m.txErrors, errs...)
}

func (m *memStore) failQuery(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryErrors[name] = err
}

func (m *memStore) transactions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txCount
}

// snapshot returns a copy of the committed state
func (m *memStore) snapshot() *memData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.clone()
}

func (m *memStore) seed(fn func(d *memData)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.data)
}

// memQueries implements Queries against one transaction's working copy
type memQueries struct {
	d        *memData
	failures map[string]error
}

var _ Queries = (*memQueries)(nil)

func (q *memQueries) fail(name string) error {
	return q.failures[name]
}

func (q *memQueries) id() int64 {
	q.d.nextID++
	return q.d.nextID
}

func (q *memQueries) GetClub(_ context.Context, id int64) (*models.Club, error) {
	if err := q.fail("GetClub"); err != nil {
		return nil, err
	}
	club, ok := q.d.clubs[id]
	if !ok {
		return nil, apperrors.ErrClubNotFound
	}
	return &club, nil
}

func (q *memQueries) LockClub(ctx context.Context, id int64, _ repositories.LockMode) (*models.Club, error) {
	if err := q.fail("LockClub"); err != nil {
		return nil, err
	}
	return q.GetClub(ctx, id)
}

func (q *memQueries) OpenVotingCycle(_ context.Context, clubID, startedBy int64, startsAt, endsAt time.Time) (bool, error) {
	club, ok := q.d.clubs[clubID]
	if !ok || club.VotingCycleActive {
		return false, nil
	}
	club.VotingCycleActive = true
	club.VotingStartsAt = &startsAt
	club.VotingEndsAt = &endsAt
	club.VotingStartedBy = &startedBy
	q.d.clubs[clubID] = club
	return true, nil
}

func (q *memQueries) ClearVotingCycle(_ context.Context, clubID int64) (bool, error) {
	if err := q.fail("ClearVotingCycle"); err != nil {
		return false, err
	}
	club, ok := q.d.clubs[clubID]
	if !ok || !club.VotingCycleActive {
		return false, nil
	}
	club.VotingCycleActive = false
	club.VotingStartsAt = nil
	club.VotingEndsAt = nil
	club.VotingStartedBy = nil
	q.d.clubs[clubID] = club
	return true, nil
}

func (q *memQueries) SetCurrentBook(_ context.Context, clubID, bookID int64) (bool, error) {
	club, ok := q.d.clubs[clubID]
	if !ok || club.CurrentBookID != nil {
		return false, nil
	}
	club.CurrentBookID = &bookID
	q.d.clubs[clubID] = club
	return true, nil
}

func (q *memQueries) ClearCurrentBook(_ context.Context, clubID, bookID int64) (bool, error) {
	club, ok := q.d.clubs[clubID]
	if !ok || club.CurrentBookID == nil || *club.CurrentBookID != bookID {
		return false, nil
	}
	club.CurrentBookID = nil
	q.d.clubs[clubID] = club
	return true, nil
}

func (q *memQueries) ListExpiredCycles(_ context.Context, now time.Time) ([]int64, error) {
	var ids []int64
	for id, club := range q.d.clubs {
		if club.VotingCycleActive && club.VotingEndsAt != nil && !club.VotingEndsAt.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (q *memQueries) GetMembership(_ context.Context, clubID, userID int64) (*models.ClubMember, error) {
	member, ok := q.d.members[memberKey{clubID, userID}]
	if !ok {
		return nil, nil
	}
	return &member, nil
}

func (q *memQueries) CreateSuggestion(_ context.Context, s *models.Suggestion) error {
	for _, existing := range q.d.suggestions {
		if existing.ClubID == s.ClubID && existing.BookID == s.BookID && existing.Status == models.SuggestionActive {
			return apperrors.ErrSuggestionAlreadyExists
		}
	}
	s.ID = q.id()
	q.d.suggestions[s.ID] = *s
	return nil
}

func (q *memQueries) GetSuggestion(_ context.Context, id int64) (*models.Suggestion, error) {
	s, ok := q.d.suggestions[id]
	if !ok {
		return nil, apperrors.ErrSuggestionNotFound
	}
	return &s, nil
}

func (q *memQueries) LockSuggestion(ctx context.Context, id int64, _ repositories.LockMode) (*models.Suggestion, error) {
	return q.GetSuggestion(ctx, id)
}

func (q *memQueries) activeIDs(clubID int64) []int64 {
	var ids []int64
	for id, s := range q.d.suggestions {
		if s.ClubID == clubID && s.Status == models.SuggestionActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (q *memQueries) LockActiveSuggestions(_ context.Context, clubID int64) ([]int64, error) {
	return q.activeIDs(clubID), nil
}

func (q *memQueries) ListSuggestionTallies(_ context.Context, clubID int64, status *models.SuggestionStatus) ([]models.SuggestionTally, error) {
	tallies := []models.SuggestionTally{}
	for _, s := range q.d.suggestions {
		if s.ClubID != clubID || (status != nil && s.Status != *status) {
			continue
		}
		count, _ := q.CountVotes(context.Background(), s.ID)
		tallies = append(tallies, models.SuggestionTally{Suggestion: s, VoteCount: count})
	}
	sort.Slice(tallies, func(i, j int) bool { return tallies[i].ID < tallies[j].ID })
	return tallies, nil
}

func (q *memQueries) UpdateSuggestionStatus(_ context.Context, ids []int64, from, to models.SuggestionStatus) (int64, error) {
	var moved int64
	for _, id := range ids {
		s, ok := q.d.suggestions[id]
		if !ok || s.Status != from {
			continue
		}
		s.Status = to
		q.d.suggestions[id] = s
		moved++
	}
	return moved, nil
}

func (q *memQueries) ResolveActiveExcept(_ context.Context, clubID int64, keepIDs []int64, to models.SuggestionStatus) (int64, error) {
	if err := q.fail("ResolveActiveExcept"); err != nil {
		return 0, err
	}
	keep := map[int64]bool{}
	for _, id := range keepIDs {
		keep[id] = true
	}
	var moved int64
	for _, id := range q.activeIDs(clubID) {
		if keep[id] {
			continue
		}
		s := q.d.suggestions[id]
		s.Status = to
		q.d.suggestions[id] = s
		moved++
	}
	return moved, nil
}

func (q *memQueries) FindActiveSuggestionForBook(_ context.Context, clubID, bookID int64) (*models.Suggestion, error) {
	for _, id := range q.activeIDs(clubID) {
		s := q.d.suggestions[id]
		if s.BookID == bookID {
			return &s, nil
		}
	}
	return nil, nil
}

func (q *memQueries) InsertVote(_ context.Context, suggestionID, userID int64) (bool, error) {
	key := voteKey{suggestionID, userID}
	if _, exists := q.d.votes[key]; exists {
		return false, nil
	}
	q.d.votes[key] = models.Vote{ID: q.id(), SuggestionID: suggestionID, UserID: userID}
	return true, nil
}

func (q *memQueries) DeleteVote(_ context.Context, suggestionID, userID int64) (bool, error) {
	key := voteKey{suggestionID, userID}
	if _, exists := q.d.votes[key]; !exists {
		return false, nil
	}
	delete(q.d.votes, key)
	return true, nil
}

func (q *memQueries) CountVotes(_ context.Context, suggestionID int64) (int, error) {
	count := 0
	for key := range q.d.votes {
		if key.suggestionID == suggestionID {
			count++
		}
	}
	return count, nil
}

func (q *memQueries) VotedSuggestionIDs(_ context.Context, clubID, userID int64) (map[int64]bool, error) {
	voted := map[int64]bool{}
	for key := range q.d.votes {
		if key.userID == userID && q.d.suggestions[key.suggestionID].ClubID == clubID {
			voted[key.suggestionID] = true
		}
	}
	return voted, nil
}

func (q *memQueries) CreateClubBook(_ context.Context, cb *models.ClubBook) error {
	cb.ID = q.id()
	q.d.clubBooks[cb.ID] = *cb
	return nil
}

func (q *memQueries) LockOpenClubBook(_ context.Context, clubID, bookID int64) (*models.ClubBook, error) {
	for _, cb := range q.d.clubBooks {
		if cb.ClubID == clubID && cb.BookID == bookID && cb.Status == models.ClubBookInProgress {
			found := cb
			return &found, nil
		}
	}
	return nil, nil
}

func (q *memQueries) FinishClubBook(_ context.Context, id int64, status models.ClubBookStatus, finishedAt time.Time, rating *int, notes string) error {
	cb := q.d.clubBooks[id]
	cb.Status = status
	cb.FinishedAt = &finishedAt
	cb.Rating = rating
	cb.Notes = notes
	q.d.clubBooks[id] = cb
	return nil
}

func (q *memQueries) ListClubBooks(_ context.Context, clubID int64) ([]models.ClubBook, error) {
	books := []models.ClubBook{}
	for _, cb := range q.d.clubBooks {
		if cb.ClubID == clubID {
			books = append(books, cb)
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID > books[j].ID })
	return books, nil
}

func (q *memQueries) BookExists(_ context.Context, id int64) (bool, error) {
	return q.d.books[id], nil
}
