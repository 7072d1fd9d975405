package transcript

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/halcyonlabs/meetscribe/internal/store"
	"github.com/halcyonlabs/meetscribe/internal/store/storetest"
)

func newSequencerWithSession(t *testing.T, sessionID string) (*Sequencer, *storetest.MemoryStore) {
	t.Helper()
	st := storetest.NewMemoryStore()
	if _, err := st.UpsertSession(context.Background(), store.UpsertSessionInput{ID: sessionID, DisplayName: "Standup"}); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return NewSequencer(st), st
}

func TestAppendTurn_SequentialPositions(t *testing.T) {
	seq, _ := newSequencerWithSession(t, "session-1")

	contents := []string{"Let's start", "Agenda first", "Any blockers?"}
	for i, content := range contents {
		turn, placement, err := seq.AppendTurn(context.Background(), "session-1", "attendee-1", content, "", nil)
		if err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
		if placement.Position != i+1 {
			t.Fatalf("expected position %d, got %d", i+1, placement.Position)
		}
		if turn.SourceType != SourceTypeLiveCapture {
			t.Fatalf("expected default source type, got %s", turn.SourceType)
		}
	}
}

func TestAppendTurn_EmptyContent(t *testing.T) {
	seq, st := newSequencerWithSession(t, "session-1")

	if _, _, err := seq.AppendTurn(context.Background(), "session-1", "attendee-1", "   ", "", nil); err != ErrEmptyContent {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if st.TurnCount() != 0 {
		t.Fatalf("expected no turn rows, got %d", st.TurnCount())
	}
	if st.PlacementCount("session-1") != 0 {
		t.Fatalf("expected no placement rows, got %d", st.PlacementCount("session-1"))
	}
}

func TestAppendTurn_SessionNotFound(t *testing.T) {
	seq := NewSequencer(storetest.NewMemoryStore())
	if _, _, err := seq.AppendTurn(context.Background(), "missing", "attendee-1", "hello", "", nil); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAppendTurn_InterleavedSessions(t *testing.T) {
	st := storetest.NewMemoryStore()
	for _, id := range []string{"session-a", "session-b"} {
		if _, err := st.UpsertSession(context.Background(), store.UpsertSessionInput{ID: id, DisplayName: id}); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}
	}
	seq := NewSequencer(st)

	// Alternate appends between two sessions; each session's positions must
	// be unaffected by the other's traffic.
	for i := 1; i <= 3; i++ {
		for _, id := range []string{"session-a", "session-b"} {
			_, placement, err := seq.AppendTurn(context.Background(), id, "attendee-1", "turn", "", nil)
			if err != nil {
				t.Fatalf("append failed: %v", err)
			}
			if placement.Position != i {
				t.Fatalf("session %s: expected position %d, got %d", id, i, placement.Position)
			}
		}
	}
}

func TestAppendTurn_ConcurrentSameSession(t *testing.T) {
	seq, st := newSequencerWithSession(t, "session-1")

	const turns = 32
	positions := make([]int, turns)
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, placement, err := seq.AppendTurn(context.Background(), "session-1", "attendee-1", "concurrent turn", "", nil)
			if err != nil {
				t.Errorf("append failed: %v", err)
				return
			}
			positions[i] = placement.Position
		}(i)
	}
	wg.Wait()

	sort.Ints(positions)
	for i, p := range positions {
		if p != i+1 {
			t.Fatalf("positions are not the contiguous range 1..%d: %v", turns, positions)
		}
	}
	if st.PlacementCount("session-1") != turns {
		t.Fatalf("expected %d placements, got %d", turns, st.PlacementCount("session-1"))
	}
}

func TestAppendTurn_ListedInOrder(t *testing.T) {
	seq, st := newSequencerWithSession(t, "session-1")

	want := []string{"first", "second", "third"}
	for _, content := range want {
		if _, _, err := seq.AppendTurn(context.Background(), "session-1", "attendee-1", content, "", nil); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	listed, err := st.ListSessionTurns(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != len(want) {
		t.Fatalf("expected %d turns, got %d", len(want), len(listed))
	}
	for i, pt := range listed {
		if pt.Turn.Content != want[i] {
			t.Fatalf("turn %d: expected %q, got %q", i, want[i], pt.Turn.Content)
		}
	}
}
