// Package storetest provides an in-memory store.Store used by component
// tests. It mirrors the Postgres implementation's contract: upsert writes,
// (nil, nil) lookups on absent keys, conflict-tolerant attendee inserts, and
// single-operation placement position assignment.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/halcyonlabs/meetscribe/internal/store"
)

type MemoryStore struct {
	mu         sync.Mutex
	sessions   map[string]*store.Session
	meetings   map[string]*store.Meeting // keyed by meeting id
	attendees  map[string]*store.Attendee
	turns      map[string]*store.Turn
	placements map[string][]*store.Placement // keyed by session id, insertion order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[string]*store.Session),
		meetings:   make(map[string]*store.Meeting),
		attendees:  make(map[string]*store.Attendee),
		turns:      make(map[string]*store.Turn),
		placements: make(map[string][]*store.Placement),
	}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) UpsertSession(_ context.Context, input store.UpsertSessionInput) (*store.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := m.sessions[input.ID]; ok {
		existing.DisplayName = input.DisplayName
		existing.Description = input.Description
		existing.Category = input.Category
		existing.Metadata = input.Metadata
		existing.UpdatedAt = now
		return copySession(existing), nil
	}
	s := &store.Session{
		ID:          input.ID,
		DisplayName: input.DisplayName,
		Description: input.Description,
		Category:    input.Category,
		Metadata:    input.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.sessions[input.ID] = s
	return copySession(s), nil
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (*store.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return copySession(s), nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	for mid, meeting := range m.meetings {
		if meeting.SessionID == id {
			delete(m.meetings, mid)
		}
	}
	for aid, a := range m.attendees {
		if a.SessionID == id {
			delete(m.attendees, aid)
			for tid, t := range m.turns {
				if t.AttendeeID == aid {
					delete(m.turns, tid)
				}
			}
		}
	}
	delete(m.placements, id)
	return nil
}

func (m *MemoryStore) UpsertMeeting(_ context.Context, input store.UpsertMeetingInput) (*store.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := m.meetings[input.ID]; ok {
		existing.MeetingURL = input.MeetingURL
		existing.Status = input.Status
		existing.RequestedBy = input.RequestedBy
		existing.Transcript = input.Transcript
		existing.EndedAt = input.EndedAt
		existing.UpdatedAt = now
		return copyMeeting(existing), nil
	}
	for _, existing := range m.meetings {
		if existing.BotID == input.BotID {
			return nil, fmt.Errorf("duplicate key value violates unique constraint on bot_id %q", input.BotID)
		}
	}
	startedAt := input.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}
	meeting := &store.Meeting{
		ID:          input.ID,
		SessionID:   input.SessionID,
		BotID:       input.BotID,
		MeetingURL:  input.MeetingURL,
		Status:      input.Status,
		RequestedBy: input.RequestedBy,
		Transcript:  input.Transcript,
		StartedAt:   startedAt,
		EndedAt:     input.EndedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.meetings[input.ID] = meeting
	return copyMeeting(meeting), nil
}

func (m *MemoryStore) GetMeetingByBotID(_ context.Context, botID string) (*store.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, meeting := range m.meetings {
		if meeting.BotID == botID {
			return copyMeeting(meeting), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) GetMeetingBySessionID(_ context.Context, sessionID string) (*store.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, meeting := range m.meetings {
		if meeting.SessionID == sessionID {
			return copyMeeting(meeting), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) EnsureAttendee(_ context.Context, input store.EnsureAttendeeInput) (*store.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attendees {
		if a.SessionID == input.SessionID && a.Name == input.Name {
			return copyAttendee(a), nil
		}
	}
	now := time.Now().UTC()
	a := &store.Attendee{
		ID:        input.ID,
		SessionID: input.SessionID,
		Name:      input.Name,
		Narrative: input.Narrative,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.attendees[input.ID] = a
	return copyAttendee(a), nil
}

func (m *MemoryStore) GetAttendee(_ context.Context, sessionID, name string) (*store.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attendees {
		if a.SessionID == sessionID && a.Name == name {
			return copyAttendee(a), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) InsertTurn(_ context.Context, input store.InsertTurnInput) (*store.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &store.Turn{
		ID:         input.ID,
		AttendeeID: input.AttendeeID,
		Content:    input.Content,
		SourceType: input.SourceType,
		Metadata:   input.Metadata,
		CreatedAt:  time.Now().UTC(),
	}
	m.turns[input.ID] = t
	return copyTurn(t), nil
}

func (m *MemoryStore) PlaceTurn(_ context.Context, sessionID, turnID string) (*store.Placement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.placements[sessionID] {
		if p.TurnID == turnID {
			cp := *p
			return &cp, nil
		}
	}
	max := 0
	for _, p := range m.placements[sessionID] {
		if p.Position > max {
			max = p.Position
		}
	}
	p := &store.Placement{
		SessionID: sessionID,
		TurnID:    turnID,
		Position:  max + 1,
		CreatedAt: time.Now().UTC(),
	}
	m.placements[sessionID] = append(m.placements[sessionID], p)
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) ListSessionTurns(_ context.Context, sessionID string) ([]store.PlacedTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	placements := append([]*store.Placement(nil), m.placements[sessionID]...)
	sort.Slice(placements, func(i, j int) bool { return placements[i].Position < placements[j].Position })
	var list []store.PlacedTurn
	for _, p := range placements {
		t, ok := m.turns[p.TurnID]
		if !ok {
			continue
		}
		name := ""
		if a, ok := m.attendees[t.AttendeeID]; ok {
			name = a.Name
		}
		list = append(list, store.PlacedTurn{Position: p.Position, Turn: *copyTurn(t), AttendeeName: name})
	}
	return list, nil
}

// Row-count helpers for asserting that failed operations wrote nothing.

func (m *MemoryStore) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) AttendeeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attendees)
}

func (m *MemoryStore) TurnCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

func (m *MemoryStore) PlacementCount(sessionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.placements[sessionID])
}

func copySession(s *store.Session) *store.Session    { cp := *s; return &cp }
func copyMeeting(mt *store.Meeting) *store.Meeting   { cp := *mt; return &cp }
func copyAttendee(a *store.Attendee) *store.Attendee { cp := *a; return &cp }
func copyTurn(t *store.Turn) *store.Turn             { cp := *t; return &cp }
