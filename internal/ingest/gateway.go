// Package ingest is the boundary dispatcher: it accepts turn events from the
// live stream, lifecycle notifications from the vendor webhook, and session
// creation requests, and routes them to the owning components.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/halcyonlabs/meetscribe/internal/lifecycle"
	"github.com/halcyonlabs/meetscribe/internal/speaker"
	"github.com/halcyonlabs/meetscribe/internal/store"
	"github.com/halcyonlabs/meetscribe/internal/telemetry"
	"github.com/halcyonlabs/meetscribe/internal/transcript"
)

// unknownSpeakerLabel attributes turns whose event carried no speaker label.
// Losing the content would be worse than losing the attribution.
const unknownSpeakerLabel = "Unknown speaker"

type TurnEvent struct {
	BotID        string    `json:"bot_id"`
	SpeakerLabel string    `json:"speaker"`
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
	SequenceHint int       `json:"seq,omitempty"`
}

type LifecycleEvent struct {
	BotID     string    `json:"bot_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type Gateway struct {
	store      store.Store
	speakers   *speaker.Registry
	sequencer  *transcript.Sequencer
	reconciler *lifecycle.Reconciler
}

func NewGateway(s store.Store, speakers *speaker.Registry, seq *transcript.Sequencer, rec *lifecycle.Reconciler) *Gateway {
	return &Gateway{store: s, speakers: speakers, sequencer: seq, reconciler: rec}
}

// HandleTurn appends one live turn to its session's transcript. A turn for an
// unknown bot id is dropped with a warning: live delivery is lossy by
// contract and a notification may outrun session creation. Errors are
// returned for observability but each turn stands alone; the caller keeps
// consuming the stream regardless.
func (g *Gateway) HandleTurn(ctx context.Context, event TurnEvent) error {
	meeting, err := g.store.GetMeetingByBotID(ctx, event.BotID)
	if err != nil {
		return fmt.Errorf("failed to resolve meeting for turn: %w", err)
	}
	if meeting == nil {
		telemetry.IncTurnsDropped()
		slog.Warn("dropping turn for unknown bot", "bot_id", event.BotID, "speaker", event.SpeakerLabel)
		return nil
	}

	label := strings.TrimSpace(event.SpeakerLabel)
	if label == "" {
		label = unknownSpeakerLabel
	}
	attendee, err := g.speakers.Resolve(ctx, meeting.SessionID, label)
	if err != nil {
		telemetry.IncTurnsDropped()
		return fmt.Errorf("failed to resolve speaker for turn: %w", err)
	}

	metadata := map[string]any{
		"bot_id": event.BotID,
	}
	if !event.Timestamp.IsZero() {
		metadata["spoken_at"] = event.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	if event.SequenceHint != 0 {
		// Recorded for diagnostics only; arrival order is authoritative.
		metadata["sequence_hint"] = event.SequenceHint
	}
	if _, _, err := g.sequencer.AppendTurn(ctx, meeting.SessionID, attendee.ID, event.Text, transcript.SourceTypeLiveCapture, metadata); err != nil {
		telemetry.IncTurnsDropped()
		return fmt.Errorf("failed to append turn: %w", err)
	}
	telemetry.IncTurnsIngested()
	return nil
}

// HandleLifecycle forwards a status notification to the reconciler. An
// unknown bot id is swallowed: notifications are delivered at least once and
// may race ahead of creation.
func (g *Gateway) HandleLifecycle(ctx context.Context, event LifecycleEvent) error {
	status, ok := store.ParseMeetingStatus(event.Status)
	if !ok {
		return fmt.Errorf("unknown lifecycle status %q for bot %s", event.Status, event.BotID)
	}
	err := g.reconciler.ApplyLifecycleEvent(ctx, event.BotID, status, event.Timestamp)
	if errors.Is(err, lifecycle.ErrMeetingNotFound) {
		slog.Warn("lifecycle event for unknown meeting", "bot_id", event.BotID, "status", event.Status)
		return nil
	}
	return err
}

// CreateSession forwards a creation request to the reconciler.
func (g *Gateway) CreateSession(ctx context.Context, input lifecycle.CreateSessionInput) (*store.Session, *store.Meeting, error) {
	return g.reconciler.CreateSession(ctx, input)
}
