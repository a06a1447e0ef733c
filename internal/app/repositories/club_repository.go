package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/shelfclub/internal/app/models"
	"github.com/yigit/shelfclub/internal/pkg/apperrors"
	"github.com/yigit/shelfclub/internal/pkg/dberrors"
)

var clubColumns = []string{
	"id", "name", "owner_id", "current_book_id",
	"voting_cycle_active", "voting_starts_at", "voting_ends_at", "voting_started_by",
	"created_at", "updated_at",
}

// ClubRepository handles database operations for clubs and their voting-cycle state
type ClubRepository struct {
	db Querier
}

// NewClubRepository creates a new ClubRepository
func NewClubRepository(db Querier) *ClubRepository {
	return &ClubRepository{db: db}
}

func scanClub(row rowScanner) (*models.Club, error) {
	var club models.Club
	err := row.Scan(
		&club.ID,
		&club.Name,
		&club.OwnerID,
		&club.CurrentBookID,
		&club.VotingCycleActive,
		&club.VotingStartsAt,
		&club.VotingEndsAt,
		&club.VotingStartedBy,
		&club.CreatedAt,
		&club.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *ClubRepository) getClub(ctx context.Context, id int64, lock LockMode) (*models.Club, error) {
	query := squirrel.Select(clubColumns...).
		From("clubs").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)
	if lock != "" {
		query = query.Suffix(string(lock))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	club, err := scanClub(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrClubNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return club, nil
}

// GetClub retrieves a club by ID
func (r *ClubRepository) GetClub(ctx context.Context, id int64) (*models.Club, error) {
	return r.getClub(ctx, id, "")
}

// LockClub retrieves a club by ID and locks its row for the rest of the transaction
func (r *ClubRepository) LockClub(ctx context.Context, id int64, mode LockMode) (*models.Club, error) {
	return r.getClub(ctx, id, mode)
}

func (r *ClubRepository) execConditional(ctx context.Context, query squirrel.UpdateBuilder) (bool, error) {
	sql, args, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error executing update: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// OpenVotingCycle opens a cycle on a club that has none. It reports false when
// the club already had an open cycle.
func (r *ClubRepository) OpenVotingCycle(ctx context.Context, clubID, startedBy int64, startsAt, endsAt time.Time) (bool, error) {
	return r.execConditional(ctx, squirrel.Update("clubs").
		Set("voting_cycle_active", true).
		Set("voting_starts_at", startsAt).
		Set("voting_ends_at", endsAt).
		Set("voting_started_by", startedBy).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": clubID, "voting_cycle_active": false}))
}

// ClearVotingCycle clears the cycle fields of a club with an open cycle. It
// reports false when no open cycle was found.
func (r *ClubRepository) ClearVotingCycle(ctx context.Context, clubID int64) (bool, error) {
	return r.execConditional(ctx, squirrel.Update("clubs").
		Set("voting_cycle_active", false).
		Set("voting_starts_at", nil).
		Set("voting_ends_at", nil).
		Set("voting_started_by", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": clubID, "voting_cycle_active": true}))
}

// SetCurrentBook assigns the current book of a club that is not reading one
func (r *ClubRepository) SetCurrentBook(ctx context.Context, clubID, bookID int64) (bool, error) {
	return r.execConditional(ctx, squirrel.Update("clubs").
		Set("current_book_id", bookID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": clubID, "current_book_id": nil}))
}

// ClearCurrentBook clears the current book if it is still bookID
func (r *ClubRepository) ClearCurrentBook(ctx context.Context, clubID, bookID int64) (bool, error) {
	return r.execConditional(ctx, squirrel.Update("clubs").
		Set("current_book_id", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": clubID, "current_book_id": bookID}))
}

// ListExpiredCycles returns the IDs of clubs whose open voting window ended at or before now
func (r *ClubRepository) ListExpiredCycles(ctx context.Context, now time.Time) ([]int64, error) {
	query := squirrel.Select("id").
		From("clubs").
		Where(squirrel.Eq{"voting_cycle_active": true}).
		Where(squirrel.LtOrEq{"voting_ends_at": now}).
		OrderBy("voting_ends_at ASC").
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
