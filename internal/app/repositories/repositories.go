package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/shelfclub/internal/db"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// rowScanner is implemented by pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// LockMode is a row-level lock clause appended to a SELECT
type LockMode string

const (
	LockShare  LockMode = "FOR SHARE"
	LockUpdate LockMode = "FOR UPDATE"
)

// Repositories holds all the repository instances bound to one Querier
type Repositories struct {
	*ClubRepository
	*ClubMemberRepository
	*SuggestionRepository
	*VoteRepository
	*ClubBookRepository
	*BookRepository
}

// NewRepositories initializes all repositories on top of q
func NewRepositories(q Querier) *Repositories {
	return &Repositories{
		ClubRepository:       NewClubRepository(q),
		ClubMemberRepository: NewClubMemberRepository(q),
		SuggestionRepository: NewSuggestionRepository(q),
		VoteRepository:       NewVoteRepository(q),
		ClubBookRepository:   NewClubBookRepository(q),
		BookRepository:       NewBookRepository(q),
	}
}

// Store runs repository work inside database transactions
type Store struct {
	db *db.PostgresDB
}

// NewStore creates a Store backed by the given database
func NewStore(database *db.PostgresDB) *Store {
	return &Store{db: database}
}

// WithinTx runs fn with repositories bound to a single transaction. The
// transaction commits only if fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, NewRepositories(tx))
	})
}
