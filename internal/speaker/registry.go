// Package speaker resolves reported speaker labels to stable per-session
// attendee identities.
package speaker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/halcyonlabs/meetscribe/internal/store"
)

var ErrEmptyLabel = errors.New("speaker label is empty")

type Registry struct {
	store store.AttendeeStore
}

func NewRegistry(s store.AttendeeStore) *Registry {
	return &Registry{store: s}
}

// Resolve returns the attendee for (session, label), creating one on first
// sight. Concurrent resolution of the same pair converges on a single
// attendee through the store's (session_id, name) uniqueness constraint.
func (r *Registry) Resolve(ctx context.Context, sessionID, label string) (*store.Attendee, error) {
	name := strings.TrimSpace(label)
	if name == "" {
		return nil, ErrEmptyLabel
	}
	attendee, err := r.store.EnsureAttendee(ctx, store.EnsureAttendeeInput{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Name:      name,
		Narrative: fmt.Sprintf("%s joined the session", name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve attendee %q: %w", name, err)
	}
	return attendee, nil
}
