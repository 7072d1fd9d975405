package store

import (
	"context"
	"time"
)

// Writes are upserts keyed by each entity's primary identity: inserting an
// existing key updates the mutable fields and refreshes updated_at instead of
// failing. Lookups return (nil, nil) when the key is absent.

type UpsertSessionInput struct {
	ID          string
	DisplayName string
	Description string
	Category    string
	Metadata    map[string]any
}

type UpsertMeetingInput struct {
	ID          string
	SessionID   string
	BotID       string
	MeetingURL  string
	Status      MeetingStatus
	RequestedBy string
	Transcript  []byte
	StartedAt   time.Time
	EndedAt     *time.Time
}

type EnsureAttendeeInput struct {
	ID        string
	SessionID string
	Name      string
	Narrative string
}

type InsertTurnInput struct {
	ID         string
	AttendeeID string
	Content    string
	SourceType string
	Metadata   map[string]any
}

type SessionStore interface {
	UpsertSession(ctx context.Context, input UpsertSessionInput) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	// DeleteSession is the compensation hook for failed session creation;
	// placements and the meeting row cascade with it.
	DeleteSession(ctx context.Context, id string) error
}

type MeetingStore interface {
	UpsertMeeting(ctx context.Context, input UpsertMeetingInput) (*Meeting, error)
	GetMeetingByBotID(ctx context.Context, botID string) (*Meeting, error)
	GetMeetingBySessionID(ctx context.Context, sessionID string) (*Meeting, error)
}

type AttendeeStore interface {
	// EnsureAttendee inserts the attendee or, when (session, name) already
	// exists, returns the existing row. Concurrent callers for the same pair
	// must converge on a single attendee; the conflict is resolved by the
	// store's uniqueness constraint, not by locking in the caller.
	EnsureAttendee(ctx context.Context, input EnsureAttendeeInput) (*Attendee, error)
	GetAttendee(ctx context.Context, sessionID, name string) (*Attendee, error)
}

type TranscriptStore interface {
	InsertTurn(ctx context.Context, input InsertTurnInput) (*Turn, error)
	// PlaceTurn assigns the next free position for the session (starting at 1)
	// and inserts the placement in a single statement. Re-placing an already
	// placed (session, turn) pair returns the existing placement unchanged.
	PlaceTurn(ctx context.Context, sessionID, turnID string) (*Placement, error)
	ListSessionTurns(ctx context.Context, sessionID string) ([]PlacedTurn, error)
}

type Store interface {
	SessionStore
	MeetingStore
	AttendeeStore
	TranscriptStore

	Ping(ctx context.Context) error
}
