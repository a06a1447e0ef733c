package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/shelfclub/internal/app/models"
	"github.com/yigit/shelfclub/internal/pkg/apperrors"
	"github.com/yigit/shelfclub/internal/pkg/dberrors"
)

// activeSuggestionIndex is the partial unique index on (club_id, book_id) for ACTIVE rows
const activeSuggestionIndex = "uq_suggestions_active_book"

var suggestionColumns = []string{
	"s.id", "s.club_id", "s.book_id", "s.proposer_id", "s.status", "s.voting_ends", "s.created_at", "s.updated_at",
}

// SuggestionRepository handles database operations for book suggestions
type SuggestionRepository struct {
	db Querier
}

// NewSuggestionRepository creates a new SuggestionRepository
func NewSuggestionRepository(db Querier) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

func suggestionDest(s *models.Suggestion) []any {
	return []any{
		&s.ID,
		&s.ClubID,
		&s.BookID,
		&s.ProposerID,
		&s.Status,
		&s.VotingEnds,
		&s.CreatedAt,
		&s.UpdatedAt,
	}
}

// CreateSuggestion inserts a suggestion and fills its generated fields
func (r *SuggestionRepository) CreateSuggestion(ctx context.Context, s *models.Suggestion) error {
	query := squirrel.Insert("suggestions").
		Columns("club_id", "book_id", "proposer_id", "status", "voting_ends").
		Values(s.ClubID, s.BookID, s.ProposerID, s.Status, s.VotingEnds).
		Suffix("RETURNING id, created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, activeSuggestionIndex) {
			return apperrors.ErrSuggestionAlreadyExists
		}
		return fmt.Errorf("error creating suggestion: %w", err)
	}
	return nil
}

func (r *SuggestionRepository) getSuggestion(ctx context.Context, id int64, lock LockMode) (*models.Suggestion, error) {
	query := squirrel.Select(suggestionColumns...).
		From("suggestions s").
		Where(squirrel.Eq{"s.id": id}).
		PlaceholderFormat(squirrel.Dollar)
	if lock != "" {
		query = query.Suffix(string(lock))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var s models.Suggestion
	if err := r.db.QueryRow(ctx, sql, args...).Scan(suggestionDest(&s)...); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrSuggestionNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return &s, nil
}

// GetSuggestion retrieves a suggestion by ID
func (r *SuggestionRepository) GetSuggestion(ctx context.Context, id int64) (*models.Suggestion, error) {
	return r.getSuggestion(ctx, id, "")
}

// LockSuggestion retrieves a suggestion by ID and locks its row
func (r *SuggestionRepository) LockSuggestion(ctx context.Context, id int64, mode LockMode) (*models.Suggestion, error) {
	return r.getSuggestion(ctx, id, mode)
}

// LockActiveSuggestions locks every ACTIVE suggestion of a club and returns their IDs.
// Votes against these rows block until the transaction ends.
func (r *SuggestionRepository) LockActiveSuggestions(ctx context.Context, clubID int64) ([]int64, error) {
	query := squirrel.Select("id").
		From("suggestions").
		Where(squirrel.Eq{"club_id": clubID, "status": models.SuggestionActive}).
		OrderBy("id").
		Suffix(string(LockUpdate)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListSuggestionTallies returns the suggestions of a club with their vote
// counts, oldest first. A nil status lists every status.
func (r *SuggestionRepository) ListSuggestionTallies(ctx context.Context, clubID int64, status *models.SuggestionStatus) ([]models.SuggestionTally, error) {
	query := squirrel.Select(append(suggestionColumns, "COUNT(v.id)")...).
		From("suggestions s").
		LeftJoin("votes v ON v.suggestion_id = s.id").
		Where(squirrel.Eq{"s.club_id": clubID}).
		GroupBy("s.id").
		OrderBy("s.created_at ASC", "s.id ASC").
		PlaceholderFormat(squirrel.Dollar)
	if status != nil {
		query = query.Where(squirrel.Eq{"s.status": *status})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	tallies := []models.SuggestionTally{}
	for rows.Next() {
		var t models.SuggestionTally
		dest := append(suggestionDest(&t.Suggestion), &t.VoteCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}

// UpdateSuggestionStatus moves the given suggestions from one status to another.
// Rows not currently in from are left untouched; the number of moved rows is returned.
func (r *SuggestionRepository) UpdateSuggestionStatus(ctx context.Context, ids []int64, from, to models.SuggestionStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := squirrel.Update("suggestions").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": ids, "status": from}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error updating suggestion status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ResolveActiveExcept moves every ACTIVE suggestion of a club except keepIDs
// to status to in one statement and returns the number of moved rows.
func (r *SuggestionRepository) ResolveActiveExcept(ctx context.Context, clubID int64, keepIDs []int64, to models.SuggestionStatus) (int64, error) {
	query := squirrel.Update("suggestions").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"club_id": clubID, "status": models.SuggestionActive}).
		PlaceholderFormat(squirrel.Dollar)
	if len(keepIDs) > 0 {
		query = query.Where(squirrel.NotEq{"id": keepIDs})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error updating suggestion status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// FindActiveSuggestionForBook locks and returns the ACTIVE suggestion of bookID
// in a club, or nil if there is none.
func (r *SuggestionRepository) FindActiveSuggestionForBook(ctx context.Context, clubID, bookID int64) (*models.Suggestion, error) {
	query := squirrel.Select(suggestionColumns...).
		From("suggestions s").
		Where(squirrel.Eq{"s.club_id": clubID, "s.book_id": bookID, "s.status": models.SuggestionActive}).
		Suffix(string(LockUpdate)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var s models.Suggestion
	if err := r.db.QueryRow(ctx, sql, args...).Scan(suggestionDest(&s)...); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return &s, nil
}
