package models

import "time"

// ClubRole is a member's role inside a club
type ClubRole string

const (
	ClubRoleOwner  ClubRole = "OWNER"
	ClubRoleAdmin  ClubRole = "ADMIN"
	ClubRoleMember ClubRole = "MEMBER"
)

// MembershipStatus is the state of a club membership
type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "ACTIVE"
	MembershipPending  MembershipStatus = "PENDING"
	MembershipInactive MembershipStatus = "INACTIVE"
)

// ClubMember represents a user's membership in a club
type ClubMember struct {
	ClubID   int64            `json:"clubId" db:"club_id"`
	UserID   int64            `json:"userId" db:"user_id"`
	Role     ClubRole         `json:"role" db:"role"`
	Status   MembershipStatus `json:"status" db:"status"`
	JoinedAt time.Time        `json:"joinedAt" db:"joined_at"`
}

// IsActive reports whether the membership is active
func (m *ClubMember) IsActive() bool {
	return m != nil && m.Status == MembershipActive
}

// CanManage reports whether the member may run voting cycles and pick books
func (m *ClubMember) CanManage() bool {
	return m.IsActive() && (m.Role == ClubRoleOwner || m.Role == ClubRoleAdmin)
}
