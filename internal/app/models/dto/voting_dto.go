package dto

import (
	"time"

	"github.com/yigit/shelfclub/internal/app/models"
)

// SuggestionResponse represents a suggestion with its tally as seen by the caller
type SuggestionResponse struct {
	ID         int64      `json:"id" example:"7"`
	ClubID     int64      `json:"clubId" example:"1"`
	BookID     int64      `json:"bookId" example:"42"`
	ProposerID int64      `json:"proposerId" example:"3"`
	Status     string     `json:"status" example:"ACTIVE" enums:"ACTIVE,SELECTED,REJECTED,EXPIRED"`
	VotingEnds *time.Time `json:"votingEnds,omitempty"`
	VoteCount  int        `json:"voteCount" example:"4"`
	HasVoted   bool       `json:"hasVoted" example:"true"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// SuggestionListResponse wraps a club's suggestions
type SuggestionListResponse struct {
	Suggestions []SuggestionResponse `json:"suggestions"`
}

// VoteCountResponse is returned by vote and retract
type VoteCountResponse struct {
	SuggestionID int64 `json:"suggestionId" example:"7"`
	VoteCount    int   `json:"voteCount" example:"5"`
}

// CycleResponse is the member-visible state of a voting cycle
type CycleResponse struct {
	ClubID         int64                `json:"clubId" example:"1"`
	State          string               `json:"state" example:"OPEN" enums:"IDLE,OPEN"`
	StartsAt       *time.Time           `json:"startsAt,omitempty"`
	EndsAt         *time.Time           `json:"endsAt,omitempty"`
	StartedBy      *int64               `json:"startedBy,omitempty"`
	Expired        bool                 `json:"expired" example:"false"`
	CurrentBookID  *int64               `json:"currentBookId,omitempty"`
	PendingWinners bool                 `json:"pendingWinners" example:"false"`
	Suggestions    []SuggestionResponse `json:"suggestions"`
}

// CloseCycleResponse reports the tally of a closed cycle
type CloseCycleResponse struct {
	ClubID        int64                `json:"clubId" example:"1"`
	Outcome       string               `json:"outcome" example:"TIE" enums:"NO_VOTES,WINNER,TIE"`
	MaxVotes      int                  `json:"maxVotes" example:"3"`
	Winners       []SuggestionResponse `json:"winners"`
	RejectedCount int                  `json:"rejectedCount" example:"2"`
	ExpiredCount  int                  `json:"expiredCount" example:"0"`
	ClosedAt      time.Time            `json:"closedAt"`
}

// ClubBookResponse is one entry of a club's reading history
type ClubBookResponse struct {
	ID         int64      `json:"id" example:"12"`
	ClubID     int64      `json:"clubId" example:"1"`
	BookID     int64      `json:"bookId" example:"42"`
	Status     string     `json:"status" example:"IN_PROGRESS" enums:"IN_PROGRESS,COMPLETED,ABANDONED"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Rating     *int       `json:"rating,omitempty" example:"4"`
	Notes      string     `json:"notes"`
}

// WinnerSelectionResponse reports the chosen book
type WinnerSelectionResponse struct {
	SuggestionID  int64            `json:"suggestionId" example:"7"`
	RejectedCount int              `json:"rejectedCount" example:"1"`
	ClubBook      ClubBookResponse `json:"clubBook"`
}

// ClubBookListResponse is one page of reading history
type ClubBookListResponse struct {
	Books          []ClubBookResponse `json:"books"`
	PaginationInfo PaginationInfo     `json:"paginationInfo"`
}

// FromSuggestion converts a freshly created suggestion
func FromSuggestion(s *models.Suggestion) SuggestionResponse {
	if s == nil {
		return SuggestionResponse{}
	}
	return SuggestionResponse{
		ID:         s.ID,
		ClubID:     s.ClubID,
		BookID:     s.BookID,
		ProposerID: s.ProposerID,
		Status:     string(s.Status),
		VotingEnds: s.VotingEnds,
		CreatedAt:  s.CreatedAt,
	}
}

// FromSuggestionTally converts a suggestion with its vote count
func FromSuggestionTally(t models.SuggestionTally) SuggestionResponse {
	resp := FromSuggestion(&t.Suggestion)
	resp.VoteCount = t.VoteCount
	return resp
}

// FromSuggestionSummaries converts a member's view of the suggestion list
func FromSuggestionSummaries(summaries []models.SuggestionSummary) SuggestionListResponse {
	list := SuggestionListResponse{Suggestions: make([]SuggestionResponse, 0, len(summaries))}
	for _, s := range summaries {
		resp := FromSuggestionTally(s.SuggestionTally)
		resp.HasVoted = s.HasVoted
		list.Suggestions = append(list.Suggestions, resp)
	}
	return list
}

func fromTallies(tallies []models.SuggestionTally) []SuggestionResponse {
	out := make([]SuggestionResponse, 0, len(tallies))
	for _, t := range tallies {
		out = append(out, FromSuggestionTally(t))
	}
	return out
}

// FromCycleView converts the cycle view
func FromCycleView(v *models.CycleView) CycleResponse {
	return CycleResponse{
		ClubID:         v.ClubID,
		State:          string(v.State),
		StartsAt:       v.StartsAt,
		EndsAt:         v.EndsAt,
		StartedBy:      v.StartedBy,
		Expired:        v.Expired,
		CurrentBookID:  v.CurrentBookID,
		PendingWinners: v.PendingWinners,
		Suggestions:    fromTallies(v.Suggestions),
	}
}

// FromClub converts a club right after a cycle was opened
func FromClub(c *models.Club) CycleResponse {
	return CycleResponse{
		ClubID:        c.ID,
		State:         string(c.CycleState()),
		StartsAt:      c.VotingStartsAt,
		EndsAt:        c.VotingEndsAt,
		StartedBy:     c.VotingStartedBy,
		CurrentBookID: c.CurrentBookID,
		Suggestions:   []SuggestionResponse{},
	}
}

// FromCloseResult converts a cycle close-out
func FromCloseResult(r *models.CloseResult) CloseCycleResponse {
	return CloseCycleResponse{
		ClubID:        r.ClubID,
		Outcome:       string(r.Outcome),
		MaxVotes:      r.MaxVotes,
		Winners:       fromTallies(r.Winners),
		RejectedCount: r.RejectedCount,
		ExpiredCount:  r.ExpiredCount,
		ClosedAt:      r.ClosedAt,
	}
}

// FromClubBook converts a reading history entry
func FromClubBook(cb *models.ClubBook) ClubBookResponse {
	if cb == nil {
		return ClubBookResponse{}
	}
	return ClubBookResponse{
		ID:         cb.ID,
		ClubID:     cb.ClubID,
		BookID:     cb.BookID,
		Status:     string(cb.Status),
		StartedAt:  cb.StartedAt,
		FinishedAt: cb.FinishedAt,
		Rating:     cb.Rating,
		Notes:      cb.Notes,
	}
}

// FromWinnerSelection converts the outcome of selecting a winner
func FromWinnerSelection(s *models.WinnerSelection) WinnerSelectionResponse {
	return WinnerSelectionResponse{
		SuggestionID:  s.SuggestionID,
		RejectedCount: s.RejectedCount,
		ClubBook:      FromClubBook(s.ClubBook),
	}
}
