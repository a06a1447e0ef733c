package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/shelfclub/internal/app/models"
	"github.com/yigit/shelfclub/internal/pkg/dberrors"
)

var clubBookColumns = []string{
	"id", "club_id", "book_id", "status", "started_at", "finished_at", "rating", "notes", "created_at",
}

// ClubBookRepository handles the club reading history
type ClubBookRepository struct {
	db Querier
}

// NewClubBookRepository creates a new ClubBookRepository
func NewClubBookRepository(db Querier) *ClubBookRepository {
	return &ClubBookRepository{db: db}
}

func scanClubBook(row rowScanner) (*models.ClubBook, error) {
	var cb models.ClubBook
	err := row.Scan(
		&cb.ID,
		&cb.ClubID,
		&cb.BookID,
		&cb.Status,
		&cb.StartedAt,
		&cb.FinishedAt,
		&cb.Rating,
		&cb.Notes,
		&cb.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cb, nil
}

// CreateClubBook appends a history row and fills its generated fields
func (r *ClubBookRepository) CreateClubBook(ctx context.Context, cb *models.ClubBook) error {
	query := squirrel.Insert("club_books").
		Columns("club_id", "book_id", "status", "started_at", "finished_at", "rating", "notes").
		Values(cb.ClubID, cb.BookID, cb.Status, cb.StartedAt, cb.FinishedAt, cb.Rating, cb.Notes).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&cb.ID, &cb.CreatedAt); err != nil {
		return fmt.Errorf("error creating club book: %w", err)
	}
	return nil
}

// LockOpenClubBook locks and returns the IN_PROGRESS history row of bookID in
// a club, or nil if there is none.
func (r *ClubBookRepository) LockOpenClubBook(ctx context.Context, clubID, bookID int64) (*models.ClubBook, error) {
	query := squirrel.Select(clubBookColumns...).
		From("club_books").
		Where(squirrel.Eq{"club_id": clubID, "book_id": bookID, "status": models.ClubBookInProgress}).
		OrderBy("started_at DESC").
		Limit(1).
		Suffix(string(LockUpdate)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	cb, err := scanClubBook(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return cb, nil
}

// FinishClubBook closes a reading period
func (r *ClubBookRepository) FinishClubBook(ctx context.Context, id int64, status models.ClubBookStatus, finishedAt time.Time, rating *int, notes string) error {
	query := squirrel.Update("club_books").
		Set("status", status).
		Set("finished_at", finishedAt).
		Set("rating", rating).
		Set("notes", notes).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error finishing club book: %w", err)
	}
	return nil
}

// ListClubBooks returns the reading history of a club, newest first
func (r *ClubBookRepository) ListClubBooks(ctx context.Context, clubID int64) ([]models.ClubBook, error) {
	query := squirrel.Select(clubBookColumns...).
		From("club_books").
		Where(squirrel.Eq{"club_id": clubID}).
		OrderBy("started_at DESC", "id DESC").
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

	books := []models.ClubBook{}
	for rows.Next() {
		cb, err := scanClubBook(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		books = append(books, *cb)
	}
	return books, rows.Err()
}
