// Package transcript serializes speech turns into a durable, strictly
// ordered per-session transcript.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/halcyonlabs/meetscribe/internal/store"
)

var (
	ErrEmptyContent    = errors.New("turn content is empty")
	ErrSessionNotFound = errors.New("session not found")
)

// SourceTypeLiveCapture tags turns that arrived over the live turn stream.
const SourceTypeLiveCapture = "live_capture"

// Sequencer appends turns and assigns placement positions. Appends for the
// same session are serialized by a per-session mutex so two concurrent turns
// can never observe the same max position; appends for different sessions do
// not contend.
type Sequencer struct {
	store store.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSequencer(s store.Store) *Sequencer {
	return &Sequencer{store: s, locks: make(map[string]*sync.Mutex)}
}

// AppendTurn durably records one turn at the next position of the session's
// transcript. An empty sourceType defaults to SourceTypeLiveCapture. Nothing
// is written when content is empty or the session does not exist.
func (s *Sequencer) AppendTurn(ctx context.Context, sessionID, attendeeID, content, sourceType string, metadata map[string]any) (*store.Turn, *store.Placement, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil, ErrEmptyContent
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if sess == nil {
		return nil, nil, ErrSessionNotFound
	}
	if sourceType == "" {
		sourceType = SourceTypeLiveCapture
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	turn, err := s.store.InsertTurn(ctx, store.InsertTurnInput{
		ID:         uuid.NewString(),
		AttendeeID: attendeeID,
		Content:    content,
		SourceType: sourceType,
		Metadata:   metadata,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert turn: %w", err)
	}
	placement, err := s.store.PlaceTurn(ctx, sessionID, turn.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to place turn: %w", err)
	}
	return turn, placement, nil
}

func (s *Sequencer) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}
