package speaker

import (
	"context"
	"sync"
	"testing"

	"github.com/halcyonlabs/meetscribe/internal/store/storetest"
)

func TestResolve_CreatesOnFirstSight(t *testing.T) {
	st := storetest.NewMemoryStore()
	r := NewRegistry(st)

	a, err := r.Resolve(context.Background(), "session-1", "Dana")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a.Name != "Dana" {
		t.Fatalf("unexpected name: %s", a.Name)
	}
	if a.Narrative != "Dana joined the session" {
		t.Fatalf("unexpected narrative: %s", a.Narrative)
	}
	if a.SpeakingSeconds != 0 {
		t.Fatalf("expected zero speaking time, got %d", a.SpeakingSeconds)
	}
	if a.UserID != "" {
		t.Fatalf("expected no linked user, got %s", a.UserID)
	}
}

func TestResolve_SameLabelSameAttendee(t *testing.T) {
	st := storetest.NewMemoryStore()
	r := NewRegistry(st)

	first, err := r.Resolve(context.Background(), "session-1", "Dana")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := r.Resolve(context.Background(), "session-1", "Dana")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same attendee, got %s and %s", first.ID, second.ID)
	}
	if st.AttendeeCount() != 1 {
		t.Fatalf("expected exactly one attendee, got %d", st.AttendeeCount())
	}
}

func TestResolve_ScopedBySession(t *testing.T) {
	st := storetest.NewMemoryStore()
	r := NewRegistry(st)

	a1, err := r.Resolve(context.Background(), "session-1", "Dana")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	a2, err := r.Resolve(context.Background(), "session-2", "Dana")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a1.ID == a2.ID {
		t.Fatal("expected distinct attendees across sessions")
	}
}

func TestResolve_ConcurrentSameLabel(t *testing.T) {
	st := storetest.NewMemoryStore()
	r := NewRegistry(st)

	const callers = 16
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := r.Resolve(context.Background(), "session-1", "Dana")
			if err != nil {
				t.Errorf("resolve failed: %v", err)
				return
			}
			ids[i] = a.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("expected one attendee identity, got %s and %s", ids[0], id)
		}
	}
	if st.AttendeeCount() != 1 {
		t.Fatalf("expected exactly one attendee, got %d", st.AttendeeCount())
	}
}

func TestResolve_EmptyLabel(t *testing.T) {
	r := NewRegistry(storetest.NewMemoryStore())
	if _, err := r.Resolve(context.Background(), "session-1", "   "); err != ErrEmptyLabel {
		t.Fatalf("expected ErrEmptyLabel, got %v", err)
	}
}
