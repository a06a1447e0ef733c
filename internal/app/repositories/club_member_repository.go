package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/shelfclub/internal/app/models"
	"github.com/yigit/shelfclub/internal/pkg/dberrors"
)

// ClubMemberRepository reads club memberships. Memberships are managed
// elsewhere; the voting subsystem only consumes them.
type ClubMemberRepository struct {
	db Querier
}

// NewClubMemberRepository creates a new ClubMemberRepository
func NewClubMemberRepository(db Querier) *ClubMemberRepository {
	return &ClubMemberRepository{db: db}
}

// GetMembership returns the membership of userID in clubID, or nil if there is none
func (r *ClubMemberRepository) GetMembership(ctx context.Context, clubID, userID int64) (*models.ClubMember, error) {
	query := squirrel.Select("club_id", "user_id", "role", "status", "joined_at").
		From("club_members").
		Where(squirrel.Eq{"club_id": clubID, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var member models.ClubMember
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&member.ClubID,
		&member.UserID,
		&member.Role,
		&member.Status,
		&member.JoinedAt,
	)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return &member, nil
}
