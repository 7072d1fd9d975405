// Package lifecycle reconciles external bot lifecycle events with stored
// meeting state and owns bot-backed session creation.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/halcyonlabs/meetscribe/internal/config"
	"github.com/halcyonlabs/meetscribe/internal/provisioner"
	"github.com/halcyonlabs/meetscribe/internal/store"
	"github.com/halcyonlabs/meetscribe/internal/telemetry"
)

var (
	ErrMeetingNotFound   = errors.New("meeting not found")
	ErrMissingMeetingURL = errors.New("meeting url is required")
)

const (
	StageProvisioning = "provisioning"
	StagePersistence  = "persistence"
)

// StageError reports which stage of session creation failed, so callers can
// tell a vendor outage from a persistence problem.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("session creation failed at %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type Reconciler struct {
	cfg   *config.Config
	store store.Store
	bots  provisioner.Client
}

func NewReconciler(cfg *config.Config, s store.Store, bots provisioner.Client) *Reconciler {
	return &Reconciler{cfg: cfg, store: s, bots: bots}
}

type CreateSessionInput struct {
	MeetingURL  string
	RequestedBy string
	DisplayName string
}

// CreateSession provisions a bot for the meeting, then persists the session
// and its meeting record. The session is created before the meeting record;
// if the meeting record write fails the session is deleted again so no
// orphan session survives a partial creation.
func (r *Reconciler) CreateSession(ctx context.Context, input CreateSessionInput) (*store.Session, *store.Meeting, error) {
	meetingURL := strings.TrimSpace(input.MeetingURL)
	if meetingURL == "" {
		return nil, nil, ErrMissingMeetingURL
	}

	provisionCtx, cancel := context.WithTimeout(ctx, r.cfg.ProvisionTimeout())
	defer cancel()
	botID, err := r.bots.CreateBot(provisionCtx, meetingURL, r.cfg.TurnStreamURL(), r.cfg.LifecycleNotifyURL())
	if err != nil {
		return nil, nil, &StageError{Stage: StageProvisioning, Err: err}
	}
	slog.Info("bot provisioned", "bot_id", botID, "meeting_url", meetingURL)

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = meetingURL
	}
	session, err := r.store.UpsertSession(ctx, store.UpsertSessionInput{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		Category:    "meeting",
	})
	if err != nil {
		return nil, nil, &StageError{Stage: StagePersistence, Err: err}
	}

	meeting, err := r.store.UpsertMeeting(ctx, store.UpsertMeetingInput{
		ID:          uuid.NewString(),
		SessionID:   session.ID,
		BotID:       botID,
		MeetingURL:  meetingURL,
		Status:      store.MeetingStatusJoining,
		RequestedBy: input.RequestedBy,
		StartedAt:   time.Now().UTC(),
	})
	if err != nil {
		if delErr := r.store.DeleteSession(ctx, session.ID); delErr != nil {
			slog.Error("failed to compensate orphan session", "error", delErr, "session_id", session.ID)
		}
		return nil, nil, &StageError{Stage: StagePersistence, Err: err}
	}

	telemetry.IncSessionsCreated()
	slog.Info("session created", "session_id", session.ID, "meeting_id", meeting.ID, "bot_id", botID)
	return session, meeting, nil
}

// ApplyLifecycleEvent moves the meeting identified by botID to newStatus.
// Delivery is at-least-once and possibly out of order: a repeated status is a
// no-op, and a terminal meeting never regresses. On completion the vendor's
// final transcript is fetched best-effort; a fetch failure is logged and
// never fails the status update.
func (r *Reconciler) ApplyLifecycleEvent(ctx context.Context, botID string, newStatus store.MeetingStatus, eventTime time.Time) error {
	meeting, err := r.store.GetMeetingByBotID(ctx, botID)
	if err != nil {
		return fmt.Errorf("failed to look up meeting: %w", err)
	}
	if meeting == nil {
		return ErrMeetingNotFound
	}
	if meeting.Status == newStatus {
		slog.Debug("lifecycle event already applied", "bot_id", botID, "status", newStatus)
		return nil
	}
	if meeting.Status.Terminal() {
		slog.Warn("ignoring lifecycle event for terminal meeting", "bot_id", botID, "stored_status", meeting.Status, "event_status", newStatus)
		return nil
	}

	meeting.Status = newStatus
	if newStatus.Terminal() {
		endedAt := eventTime
		if endedAt.IsZero() {
			endedAt = time.Now().UTC()
		}
		meeting.EndedAt = &endedAt
	}
	updated, err := r.upsert(ctx, meeting)
	if err != nil {
		return fmt.Errorf("failed to update meeting status: %w", err)
	}
	telemetry.IncLifecycleEventsApplied()
	slog.Info("meeting status updated", "bot_id", botID, "status", newStatus, "meeting_id", meeting.ID)

	if newStatus == store.MeetingStatusCompleted {
		r.fetchFinalTranscript(ctx, updated)
	}
	return nil
}

// fetchFinalTranscript stores the vendor transcript on the meeting. All
// failures are swallowed: the completed status is already durable and a
// missing transcript field is the documented degraded outcome.
func (r *Reconciler) fetchFinalTranscript(ctx context.Context, meeting *store.Meeting) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.TranscriptFetchTimeout())
	defer cancel()
	payload, err := r.bots.FetchTranscript(fetchCtx, meeting.BotID)
	if err != nil {
		telemetry.IncTranscriptFetchFailures()
		slog.Warn("failed to fetch final transcript", "error", err, "bot_id", meeting.BotID, "meeting_id", meeting.ID)
		return
	}
	meeting.Transcript = payload
	if _, err := r.upsert(ctx, meeting); err != nil {
		telemetry.IncTranscriptFetchFailures()
		slog.Warn("failed to store final transcript", "error", err, "bot_id", meeting.BotID, "meeting_id", meeting.ID)
		return
	}
	slog.Info("final transcript stored", "bot_id", meeting.BotID, "meeting_id", meeting.ID, "transcript_bytes", len(payload))
}

func (r *Reconciler) upsert(ctx context.Context, m *store.Meeting) (*store.Meeting, error) {
	return r.store.UpsertMeeting(ctx, store.UpsertMeetingInput{
		ID:          m.ID,
		SessionID:   m.SessionID,
		BotID:       m.BotID,
		MeetingURL:  m.MeetingURL,
		Status:      m.Status,
		RequestedBy: m.RequestedBy,
		Transcript:  m.Transcript,
		StartedAt:   m.StartedAt,
		EndedAt:     m.EndedAt,
	})
}
