package repositories

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/shelfclub/internal/app/migrations"
	"github.com/yigit/shelfclub/internal/app/models"
	"github.com/yigit/shelfclub/internal/db"
	"github.com/yigit/shelfclub/internal/pkg/apperrors"
)

type fixture struct {
	db     *db.PostgresDB
	repos  *Repositories
	clubID int64
	users  []int64
	books  []int64
}

// setupDB connects to TEST_DATABASE_URL, applies migrations and seeds one club
// with three users and three books. Tests are skipped without a database.
func setupDB(t *testing.T) *fixture {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping repository integration tests")
	}

	ctx := context.Background()
	database, err := db.NewPostgresDBFromURL(ctx, url)
	require.NoError(t, err)
	t.Cleanup(database.Close)

	migrator := migrations.NewMigrator(database.Pool, zerolog.Nop())
	require.NoError(t, migrator.MigrateFromDirectory(ctx, filepath.Join("..", "..", "..", "migrations")))

	_, err = database.Pool.Exec(ctx, `TRUNCATE votes, suggestions, club_books, club_members, clubs, books, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	f := &fixture{db: database, repos: NewRepositories(database.Pool)}
	for _, email := range []string{"owner@example.com", "ana@example.com", "ben@example.com"} {
		var id int64
		require.NoError(t, database.Pool.QueryRow(ctx,
			`INSERT INTO users (email, display_name) VALUES ($1, $2) RETURNING id`, email, email[:3]).Scan(&id))
		f.users = append(f.users, id)
	}
	for _, title := range []string{"Dune", "Emma", "Ulysses"} {
		var id int64
		require.NoError(t, database.Pool.QueryRow(ctx,
			`INSERT INTO books (title, author) VALUES ($1, 'Someone') RETURNING id`, title).Scan(&id))
		f.books = append(f.books, id)
	}
	require.NoError(t, database.Pool.QueryRow(ctx,
		`INSERT INTO clubs (name, owner_id) VALUES ('Readers', $1) RETURNING id`, f.users[0]).Scan(&f.clubID))
	_, err = database.Pool.Exec(ctx,
		`INSERT INTO club_members (club_id, user_id, role) VALUES ($1, $2, 'OWNER'), ($1, $3, 'MEMBER')`,
		f.clubID, f.users[0], f.users[1])
	require.NoError(t, err)

	return f
}

func (f *fixture) suggest(t *testing.T, bookID int64, endsAt time.Time) *models.Suggestion {
	t.Helper()
	s := &models.Suggestion{
		ClubID:     f.clubID,
		BookID:     bookID,
		ProposerID: f.users[0],
		Status:     models.SuggestionActive,
		VotingEnds: &endsAt,
	}
	require.NoError(t, f.repos.CreateSuggestion(context.Background(), s))
	return s
}

func TestClubCycleConditionalUpdates(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	opened, err := f.repos.OpenVotingCycle(ctx, f.clubID, f.users[0], now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, opened)

	// second open loses the condition
	opened, err = f.repos.OpenVotingCycle(ctx, f.clubID, f.users[0], now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, opened)

	club, err := f.repos.GetClub(ctx, f.clubID)
	require.NoError(t, err)
	assert.True(t, club.VotingCycleActive)
	require.NotNil(t, club.VotingEndsAt)
	assert.True(t, club.VotingEndsAt.Equal(now.Add(time.Hour)))

	expired, err := f.repos.ListExpiredCycles(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []int64{f.clubID}, expired)

	cleared, err := f.repos.ClearVotingCycle(ctx, f.clubID)
	require.NoError(t, err)
	assert.True(t, cleared)

	cleared, err = f.repos.ClearVotingCycle(ctx, f.clubID)
	require.NoError(t, err)
	assert.False(t, cleared)

	club, err = f.repos.GetClub(ctx, f.clubID)
	require.NoError(t, err)
	assert.False(t, club.VotingCycleActive)
	assert.Nil(t, club.VotingEndsAt)
	assert.Nil(t, club.VotingStartedBy)

	_, err = f.repos.GetClub(ctx, f.clubID+1000)
	assert.ErrorIs(t, err, apperrors.ErrClubNotFound)
}

func TestCurrentBookConditionalUpdates(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()

	set, err := f.repos.SetCurrentBook(ctx, f.clubID, f.books[0])
	require.NoError(t, err)
	assert.True(t, set)

	set, err = f.repos.SetCurrentBook(ctx, f.clubID, f.books[1])
	require.NoError(t, err)
	assert.False(t, set)

	cleared, err := f.repos.ClearCurrentBook(ctx, f.clubID, f.books[1])
	require.NoError(t, err)
	assert.False(t, cleared)

	cleared, err = f.repos.ClearCurrentBook(ctx, f.clubID, f.books[0])
	require.NoError(t, err)
	assert.True(t, cleared)
}

func TestVoteUniqueness(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()
	s := f.suggest(t, f.books[0], time.Now().Add(time.Hour))

	inserted, err := f.repos.InsertVote(ctx, s.ID, f.users[1])
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = f.repos.InsertVote(ctx, s.ID, f.users[1])
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := f.repos.CountVotes(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	voted, err := f.repos.VotedSuggestionIDs(ctx, f.clubID, f.users[1])
	require.NoError(t, err)
	assert.True(t, voted[s.ID])

	deleted, err := f.repos.DeleteVote(ctx, s.ID, f.users[1])
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = f.repos.DeleteVote(ctx, s.ID, f.users[1])
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDuplicateActiveSuggestion(t *testing.T) {
	f := setupDB(t)
	f.suggest(t, f.books[0], time.Now().Add(time.Hour))

	dup := &models.Suggestion{ClubID: f.clubID, BookID: f.books[0], ProposerID: f.users[1], Status: models.SuggestionActive}
	err := f.repos.CreateSuggestion(context.Background(), dup)
	assert.ErrorIs(t, err, apperrors.ErrSuggestionAlreadyExists)
}

func TestTalliesAndBulkResolution(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()
	ends := time.Now().Add(time.Hour)
	s1 := f.suggest(t, f.books[0], ends)
	s2 := f.suggest(t, f.books[1], ends)
	s3 := f.suggest(t, f.books[2], ends)

	for _, uid := range f.users[:2] {
		_, err := f.repos.InsertVote(ctx, s1.ID, uid)
		require.NoError(t, err)
	}
	_, err := f.repos.InsertVote(ctx, s2.ID, f.users[2])
	require.NoError(t, err)

	err = f.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		repos := NewRepositories(tx)
		locked, err := repos.LockActiveSuggestions(ctx, f.clubID)
		require.NoError(t, err)
		assert.Equal(t, []int64{s1.ID, s2.ID, s3.ID}, locked)

		moved, err := repos.ResolveActiveExcept(ctx, f.clubID, []int64{s1.ID}, models.SuggestionRejected)
		require.NoError(t, err)
		assert.Equal(t, int64(2), moved)
		return nil
	})
	require.NoError(t, err)

	active := models.SuggestionActive
	tallies, err := f.repos.ListSuggestionTallies(ctx, f.clubID, &active)
	require.NoError(t, err)
	require.Len(t, tallies, 1)
	assert.Equal(t, s1.ID, tallies[0].ID)
	assert.Equal(t, 2, tallies[0].VoteCount)

	all, err := f.repos.ListSuggestionTallies(ctx, f.clubID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// terminal rows are not moved again
	moved, err := f.repos.UpdateSuggestionStatus(ctx, []int64{s2.ID}, models.SuggestionActive, models.SuggestionExpired)
	require.NoError(t, err)
	assert.Zero(t, moved)

	found, err := f.repos.FindActiveSuggestionForBook(ctx, f.clubID, f.books[1])
	require.NoError(t, err)
	assert.Nil(t, found)

	// an empty keep list clears every ACTIVE row
	moved, err = f.repos.ResolveActiveExcept(ctx, f.clubID, nil, models.SuggestionRejected)
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved)
	rejected, err := f.repos.GetSuggestion(ctx, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionRejected, rejected.Status)
}

func TestClubBookHistory(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()
	started := time.Now().UTC().Add(-24 * time.Hour)

	cb := &models.ClubBook{ClubID: f.clubID, BookID: f.books[0], Status: models.ClubBookInProgress, StartedAt: started}
	require.NoError(t, f.repos.CreateClubBook(ctx, cb))
	assert.NotZero(t, cb.ID)

	open, err := f.repos.LockOpenClubBook(ctx, f.clubID, f.books[0])
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, cb.ID, open.ID)

	rating := 4
	require.NoError(t, f.repos.FinishClubBook(ctx, cb.ID, models.ClubBookCompleted, time.Now(), &rating, "great"))

	open, err = f.repos.LockOpenClubBook(ctx, f.clubID, f.books[0])
	require.NoError(t, err)
	assert.Nil(t, open)

	history, err := f.repos.ListClubBooks(ctx, f.clubID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.ClubBookCompleted, history[0].Status)
	require.NotNil(t, history[0].Rating)
	assert.Equal(t, 4, *history[0].Rating)
	assert.Equal(t, "great", history[0].Notes)
}

func TestMembershipAndBooks(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()

	member, err := f.repos.GetMembership(ctx, f.clubID, f.users[0])
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.Equal(t, models.ClubRoleOwner, member.Role)
	assert.True(t, member.CanManage())

	member, err = f.repos.GetMembership(ctx, f.clubID, f.users[2])
	require.NoError(t, err)
	assert.Nil(t, member)

	exists, err := f.repos.BookExists(ctx, f.books[0])
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = f.repos.BookExists(ctx, f.books[2]+100)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreWithinTxRollsBack(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()
	store := NewStore(f.db)

	err := store.WithinTx(ctx, func(ctx context.Context, repos *Repositories) error {
		_, err := repos.SetCurrentBook(ctx, f.clubID, f.books[0])
		require.NoError(t, err)
		return apperrors.ErrNoCurrentBook
	})
	assert.ErrorIs(t, err, apperrors.ErrNoCurrentBook)

	club, err := f.repos.GetClub(ctx, f.clubID)
	require.NoError(t, err)
	assert.Nil(t, club.CurrentBookID)
}

// Two transactions closing the same cycle serialize on the club row lock;
// the second sees the cleared flag and backs off.
func TestConcurrentCycleCloseSerializesOnClubLock(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()
	store := NewStore(f.db)
	now := time.Now().UTC()

	opened, err := f.repos.OpenVotingCycle(ctx, f.clubID, f.users[0], now.Add(-time.Hour), now.Add(-time.Minute))
	require.NoError(t, err)
	require.True(t, opened)

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = store.WithinTx(ctx, func(ctx context.Context, repos *Repositories) error {
				club, err := repos.LockClub(ctx, f.clubID, LockUpdate)
				if err != nil {
					return err
				}
				if !club.VotingCycleActive {
					return apperrors.ErrCycleNotOpen
				}
				// hold the lock so the others queue behind it
				time.Sleep(50 * time.Millisecond)
				cleared, err := repos.ClearVotingCycle(ctx, f.clubID)
				if err != nil {
					return err
				}
				if !cleared {
					return errors.New("cycle cleared twice")
				}
				return nil
			})
		}(i)
	}
	close(start)
	wg.Wait()

	closed := 0
	for _, err := range errs {
		if err == nil {
			closed++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrCycleNotOpen)
	}
	assert.Equal(t, 1, closed)
}

// A vote holding FOR SHARE on its suggestion delays the close-out's FOR UPDATE
// lock, so the tally taken afterwards includes that vote.
func TestCloseWaitsForInFlightVote(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()
	store := NewStore(f.db)
	s1 := f.suggest(t, f.books[0], time.Now().UTC().Add(time.Hour))

	voteLocked := make(chan struct{})
	voteDone := make(chan error, 1)
	go func() {
		voteDone <- store.WithinTx(ctx, func(ctx context.Context, repos *Repositories) error {
			if _, err := repos.LockSuggestion(ctx, s1.ID, LockShare); err != nil {
				return err
			}
			if _, err := repos.InsertVote(ctx, s1.ID, f.users[1]); err != nil {
				return err
			}
			close(voteLocked)
			time.Sleep(100 * time.Millisecond)
			return nil
		})
	}()

	<-voteLocked
	var tallied int
	err := store.WithinTx(ctx, func(ctx context.Context, repos *Repositories) error {
		locked, err := repos.LockActiveSuggestions(ctx, f.clubID)
		if err != nil {
			return err
		}
		require.Equal(t, []int64{s1.ID}, locked)
		tallied, err = repos.CountVotes(ctx, s1.ID)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, <-voteDone)
	assert.Equal(t, 1, tallied)
}
