package models

import "time"

// ClubEventType names a voting event published to a club's feed
type ClubEventType string

const (
	EventCycleOpened       ClubEventType = "CYCLE_OPENED"
	EventSuggestionCreated ClubEventType = "SUGGESTION_CREATED"
	EventVoteCast          ClubEventType = "VOTE_CAST"
	EventVoteRetracted     ClubEventType = "VOTE_RETRACTED"
	EventCycleClosed       ClubEventType = "CYCLE_CLOSED"
	EventWinnerSelected    ClubEventType = "WINNER_SELECTED"
	EventBookFinished      ClubEventType = "BOOK_FINISHED"
	// EventCycleSnapshot is sent once to a feed subscriber on connect
	EventCycleSnapshot ClubEventType = "CYCLE_SNAPSHOT"
)

// ClubEvent is a committed state change in a club's voting subsystem
type ClubEvent struct {
	Type       ClubEventType `json:"type"`
	ClubID     int64         `json:"clubId"`
	ActorID    int64         `json:"actorId,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
	Payload    interface{}   `json:"payload,omitempty"`
}
