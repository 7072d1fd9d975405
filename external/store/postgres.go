package store

import (
	"context"
	"time"

	"github.com/halcyonlabs/meetscribe/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) store.Store {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) UpsertSession(ctx context.Context, input store.UpsertSessionInput) (*store.Session, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (id, display_name, description, category, metadata)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   display_name = EXCLUDED.display_name,
		   description = EXCLUDED.description,
		   category = EXCLUDED.category,
		   metadata = EXCLUDED.metadata,
		   updated_at = NOW()
		 RETURNING id, display_name, description, category, metadata, created_at, updated_at`,
		input.ID, input.DisplayName, input.Description, input.Category, input.Metadata)
	return scanSession(row)
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*store.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, display_name, description, category, metadata, created_at, updated_at
		 FROM sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return sess, err
}

func (s *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) UpsertMeeting(ctx context.Context, input store.UpsertMeetingInput) (*store.Meeting, error) {
	startedAt := input.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO meetings (id, session_id, bot_id, meeting_url, status, requested_by, transcript, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   meeting_url = EXCLUDED.meeting_url,
		   status = EXCLUDED.status,
		   requested_by = EXCLUDED.requested_by,
		   transcript = EXCLUDED.transcript,
		   ended_at = EXCLUDED.ended_at,
		   updated_at = NOW()
		 RETURNING id, session_id, bot_id, meeting_url, status, requested_by, transcript, started_at, ended_at, created_at, updated_at`,
		input.ID, input.SessionID, input.BotID, input.MeetingURL, input.Status,
		input.RequestedBy, input.Transcript, startedAt, input.EndedAt)
	return scanMeeting(row)
}

func (s *PostgresStore) GetMeetingByBotID(ctx context.Context, botID string) (*store.Meeting, error) {
	row := s.pool.QueryRow(ctx, selectMeeting+` WHERE bot_id = $1`, botID)
	m, err := scanMeeting(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (s *PostgresStore) GetMeetingBySessionID(ctx context.Context, sessionID string) (*store.Meeting, error) {
	row := s.pool.QueryRow(ctx, selectMeeting+` WHERE session_id = $1`, sessionID)
	m, err := scanMeeting(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (s *PostgresStore) EnsureAttendee(ctx context.Context, input store.EnsureAttendeeInput) (*store.Attendee, error) {
	// The no-op DO UPDATE makes RETURNING yield the existing row on conflict,
	// so a racing duplicate insert resolves to the already-created attendee.
	row := s.pool.QueryRow(ctx,
		`INSERT INTO attendees (id, session_id, name, narrative)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (session_id, name) DO UPDATE SET name = attendees.name
		 RETURNING id, session_id, name, user_id, narrative, speaking_seconds, created_at, updated_at`,
		input.ID, input.SessionID, input.Name, input.Narrative)
	return scanAttendee(row)
}

func (s *PostgresStore) GetAttendee(ctx context.Context, sessionID, name string) (*store.Attendee, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, session_id, name, user_id, narrative, speaking_seconds, created_at, updated_at
		 FROM attendees WHERE session_id = $1 AND name = $2`, sessionID, name)
	a, err := scanAttendee(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (s *PostgresStore) InsertTurn(ctx context.Context, input store.InsertTurnInput) (*store.Turn, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO turns (id, attendee_id, content, source_type, metadata)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, attendee_id, content, source_type, metadata, created_at`,
		input.ID, input.AttendeeID, input.Content, input.SourceType, input.Metadata)
	var t store.Turn
	if err := row.Scan(&t.ID, &t.AttendeeID, &t.Content, &t.SourceType, &t.Metadata, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) PlaceTurn(ctx context.Context, sessionID, turnID string) (*store.Placement, error) {
	// Position is computed and inserted in one statement so the max-read and
	// the write cannot be split by a concurrent placement for the same session.
	row := s.pool.QueryRow(ctx,
		`INSERT INTO placements (session_id, turn_id, position)
		 SELECT $1::uuid, $2::uuid, COALESCE(MAX(position), 0) + 1 FROM placements WHERE session_id = $1::uuid
		 ON CONFLICT (session_id, turn_id) DO UPDATE SET position = placements.position
		 RETURNING session_id, turn_id, position, created_at`,
		sessionID, turnID)
	var p store.Placement
	if err := row.Scan(&p.SessionID, &p.TurnID, &p.Position, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) ListSessionTurns(ctx context.Context, sessionID string) ([]store.PlacedTurn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.position, t.id, t.attendee_id, t.content, t.source_type, t.metadata, t.created_at, a.name
		 FROM placements p
		 JOIN turns t ON t.id = p.turn_id
		 JOIN attendees a ON a.id = t.attendee_id
		 WHERE p.session_id = $1
		 ORDER BY p.position ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []store.PlacedTurn
	for rows.Next() {
		var pt store.PlacedTurn
		if err := rows.Scan(&pt.Position, &pt.Turn.ID, &pt.Turn.AttendeeID, &pt.Turn.Content,
			&pt.Turn.SourceType, &pt.Turn.Metadata, &pt.Turn.CreatedAt, &pt.AttendeeName); err != nil {
			return nil, err
		}
		list = append(list, pt)
	}
	return list, rows.Err()
}

const selectMeeting = `SELECT id, session_id, bot_id, meeting_url, status, requested_by, transcript, started_at, ended_at, created_at, updated_at FROM meetings`

func scanSession(row pgx.Row) (*store.Session, error) {
	var s store.Session
	if err := row.Scan(&s.ID, &s.DisplayName, &s.Description, &s.Category, &s.Metadata, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanMeeting(row pgx.Row) (*store.Meeting, error) {
	var m store.Meeting
	var endedAt *time.Time
	if err := row.Scan(&m.ID, &m.SessionID, &m.BotID, &m.MeetingURL, &m.Status, &m.RequestedBy,
		&m.Transcript, &m.StartedAt, &endedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.EndedAt = endedAt
	return &m, nil
}

func scanAttendee(row pgx.Row) (*store.Attendee, error) {
	var a store.Attendee
	var userID *string
	if err := row.Scan(&a.ID, &a.SessionID, &a.Name, &userID, &a.Narrative, &a.SpeakingSeconds, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if userID != nil {
		a.UserID = *userID
	}
	return &a, nil
}
