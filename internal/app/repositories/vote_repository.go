package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/shelfclub/internal/pkg/dberrors"
)

// VoteRepository handles database operations for votes
type VoteRepository struct {
	db Querier
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(db Querier) *VoteRepository {
	return &VoteRepository{db: db}
}

// InsertVote records a vote. It relies on the (suggestion_id, user_id) unique
// constraint and reports false when the vote already existed.
func (r *VoteRepository) InsertVote(ctx context.Context, suggestionID, userID int64) (bool, error) {
	query := squirrel.Insert("votes").
		Columns("suggestion_id", "user_id").
		Values(suggestionID, userID).
		Suffix("ON CONFLICT ON CONSTRAINT uq_votes_suggestion_user DO NOTHING RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if dberrors.IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("error inserting vote: %w", err)
	}
	return true, nil
}

// DeleteVote removes a vote and reports whether one existed
func (r *VoteRepository) DeleteVote(ctx context.Context, suggestionID, userID int64) (bool, error) {
	query := squirrel.Delete("votes").
		Where(squirrel.Eq{"suggestion_id": suggestionID, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error deleting vote: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountVotes returns the number of votes on a suggestion
func (r *VoteRepository) CountVotes(ctx context.Context, suggestionID int64) (int, error) {
	query := squirrel.Select("COUNT(*)").
		From("votes").
		Where(squirrel.Eq{"suggestion_id": suggestionID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}
	return count, nil
}

// VotedSuggestionIDs returns the suggestions of a club that userID voted for
func (r *VoteRepository) VotedSuggestionIDs(ctx context.Context, clubID, userID int64) (map[int64]bool, error) {
	query := squirrel.Select("v.suggestion_id").
		From("votes v").
		Join("suggestions s ON s.id = v.suggestion_id").
		Where(squirrel.Eq{"s.club_id": clubID, "v.user_id": userID}).
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

	voted := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		voted[id] = true
	}
	return voted, rows.Err()
}
