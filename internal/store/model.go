package store

import "time"

type MeetingStatus string

const (
	MeetingStatusJoining    MeetingStatus = "joining"
	MeetingStatusInProgress MeetingStatus = "in_progress"
	MeetingStatusCompleted  MeetingStatus = "completed"
	MeetingStatusFailed     MeetingStatus = "failed"
)

// Terminal reports whether no further status transition is allowed.
func (s MeetingStatus) Terminal() bool {
	return s == MeetingStatusCompleted || s == MeetingStatusFailed
}

// ParseMeetingStatus maps a wire status string onto the known enum.
func ParseMeetingStatus(raw string) (MeetingStatus, bool) {
	switch MeetingStatus(raw) {
	case MeetingStatusJoining, MeetingStatusInProgress, MeetingStatusCompleted, MeetingStatusFailed:
		return MeetingStatus(raw), true
	}
	return "", false
}

// Session is one conversational container. A session holding a bot-attended
// call additionally carries a Meeting row.
type Session struct {
	ID          string
	DisplayName string
	Description string
	Category    string
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Meeting links a session to an external bot-driven call. BotID is assigned
// once by the provisioner and is the lookup key for all lifecycle traffic.
type Meeting struct {
	ID          string
	SessionID   string
	BotID       string
	MeetingURL  string
	Status      MeetingStatus
	RequestedBy string
	Transcript  []byte
	StartedAt   time.Time
	EndedAt     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Attendee is a speaker identity scoped to one session. (SessionID, Name) is
// unique; the same reported name always resolves to the same attendee.
type Attendee struct {
	ID              string
	SessionID       string
	Name            string
	UserID          string
	Narrative       string
	SpeakingSeconds int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Turn is one utterance. Ownership of a turn by a session goes through its
// Placement, which carries the ordering position.
type Turn struct {
	ID         string
	AttendeeID string
	Content    string
	SourceType string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// Placement orders a turn within a session's transcript. Positions are unique
// per session and increase in insertion order.
type Placement struct {
	SessionID string
	TurnID    string
	Position  int
	CreatedAt time.Time
}

// PlacedTurn is a transcript read-model row: a turn joined with its placement
// and the attendee it is attributed to.
type PlacedTurn struct {
	Position     int
	Turn         Turn
	AttendeeName string
}
