package auth

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/shelfclub/internal/app/models"
	"github.com/yigit/shelfclub/internal/pkg/apperrors"
)

// MembershipReader looks up a user's membership in a club. It returns nil
// without error when the user has no membership.
type MembershipReader interface {
	GetMembership(ctx context.Context, clubID, userID int64) (*models.ClubMember, error)
}

// AuthorizationService resolves club-level permissions. The reader is passed
// per call so checks run inside the caller's transaction.
type AuthorizationService struct {
	logger zerolog.Logger
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(logger zerolog.Logger) *AuthorizationService {
	return &AuthorizationService{logger: logger}
}

// RequireActiveMember returns the membership of userID or ErrNotAMember
func (s *AuthorizationService) RequireActiveMember(ctx context.Context, r MembershipReader, clubID, userID int64) (*models.ClubMember, error) {
	member, err := r.GetMembership(ctx, clubID, userID)
	if err != nil {
		return nil, err
	}
	if !member.IsActive() {
		s.logger.Debug().Int64("clubID", clubID).Int64("userID", userID).Msg("Rejected non-member")
		return nil, apperrors.ErrNotAMember
	}
	return member, nil
}

// RequireClubManager checks that userID is an active OWNER or ADMIN of the club.
// Users without an active membership get ErrNotAMember, members without a
// managing role get ErrNotAuthorized.
func (s *AuthorizationService) RequireClubManager(ctx context.Context, r MembershipReader, clubID, userID int64) (*models.ClubMember, error) {
	member, err := s.RequireActiveMember(ctx, r, clubID, userID)
	if err != nil {
		return nil, err
	}
	if !member.CanManage() {
		s.logger.Debug().Int64("clubID", clubID).Int64("userID", userID).Str("role", string(member.Role)).Msg("Rejected non-manager")
		return nil, apperrors.ErrNotAuthorized
	}
	return member, nil
}
