package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/halcyonlabs/meetscribe/internal/config"
	"github.com/halcyonlabs/meetscribe/internal/store"
	"github.com/halcyonlabs/meetscribe/internal/store/storetest"
)

type mockProvisioner struct {
	botID      string
	createErr  error
	transcript []byte
	fetchErr   error

	createCalls   int
	fetchCalls    int
	gotMeetingURL string
	gotStreamURL  string
	gotNotifyURL  string
}

func (m *mockProvisioner) CreateBot(_ context.Context, meetingURL, turnStreamURL, notifyURL string) (string, error) {
	m.createCalls++
	m.gotMeetingURL = meetingURL
	m.gotStreamURL = turnStreamURL
	m.gotNotifyURL = notifyURL
	if m.createErr != nil {
		return "", m.createErr
	}
	return m.botID, nil
}

func (m *mockProvisioner) FetchTranscript(_ context.Context, _ string) ([]byte, error) {
	m.fetchCalls++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.transcript, nil
}

// failingMeetingStore makes every meeting upsert fail, to exercise the
// compensation path of session creation.
type failingMeetingStore struct {
	*storetest.MemoryStore
}

func (f *failingMeetingStore) UpsertMeeting(context.Context, store.UpsertMeetingInput) (*store.Meeting, error) {
	return nil, errors.New("meeting write rejected")
}

func testConfig() *config.Config {
	return &config.Config{
		PublicBaseURL:             "https://meetscribe.example.com",
		ProvisionTimeoutSec:       5,
		TranscriptFetchTimeoutSec: 5,
	}
}

func TestCreateSession_Success(t *testing.T) {
	st := storetest.NewMemoryStore()
	bots := &mockProvisioner{botID: "bot-1"}
	r := NewReconciler(testConfig(), st, bots)

	session, meeting, err := r.CreateSession(context.Background(), CreateSessionInput{
		MeetingURL:  "https://call/abc",
		RequestedBy: "7",
		DisplayName: "Standup",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.DisplayName != "Standup" {
		t.Fatalf("unexpected display name: %s", session.DisplayName)
	}
	if meeting.SessionID != session.ID {
		t.Fatalf("meeting not linked to session: %s vs %s", meeting.SessionID, session.ID)
	}
	if meeting.BotID != "bot-1" {
		t.Fatalf("unexpected bot id: %s", meeting.BotID)
	}
	if meeting.Status != store.MeetingStatusJoining {
		t.Fatalf("expected joining status, got %s", meeting.Status)
	}
	if bots.gotStreamURL != "https://meetscribe.example.com/v1/stream" {
		t.Fatalf("unexpected turn stream url: %s", bots.gotStreamURL)
	}
	if bots.gotNotifyURL != "https://meetscribe.example.com/v1/meetings/notify" {
		t.Fatalf("unexpected notify url: %s", bots.gotNotifyURL)
	}
}

func TestCreateSession_DefaultsDisplayName(t *testing.T) {
	r := NewReconciler(testConfig(), storetest.NewMemoryStore(), &mockProvisioner{botID: "bot-1"})
	session, _, err := r.CreateSession(context.Background(), CreateSessionInput{MeetingURL: "https://call/abc"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.DisplayName != "https://call/abc" {
		t.Fatalf("unexpected default display name: %s", session.DisplayName)
	}
}

func TestCreateSession_MissingMeetingURL(t *testing.T) {
	bots := &mockProvisioner{botID: "bot-1"}
	r := NewReconciler(testConfig(), storetest.NewMemoryStore(), bots)

	if _, _, err := r.CreateSession(context.Background(), CreateSessionInput{MeetingURL: "  "}); err != ErrMissingMeetingURL {
		t.Fatalf("expected ErrMissingMeetingURL, got %v", err)
	}
	if bots.createCalls != 0 {
		t.Fatal("expected no provisioning call for invalid input")
	}
}

func TestCreateSession_ProvisioningFailure(t *testing.T) {
	st := storetest.NewMemoryStore()
	r := NewReconciler(testConfig(), st, &mockProvisioner{createErr: errors.New("vendor down")})

	_, _, err := r.CreateSession(context.Background(), CreateSessionInput{MeetingURL: "https://call/abc"})
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageProvisioning {
		t.Fatalf("expected provisioning StageError, got %v", err)
	}
	if st.SessionCount() != 0 {
		t.Fatalf("expected no session rows, got %d", st.SessionCount())
	}
}

func TestCreateSession_CompensatesOrphanSession(t *testing.T) {
	mem := storetest.NewMemoryStore()
	r := NewReconciler(testConfig(), &failingMeetingStore{mem}, &mockProvisioner{botID: "bot-1"})

	_, _, err := r.CreateSession(context.Background(), CreateSessionInput{MeetingURL: "https://call/abc"})
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StagePersistence {
		t.Fatalf("expected persistence StageError, got %v", err)
	}
	if mem.SessionCount() != 0 {
		t.Fatalf("expected compensating delete to remove the session, got %d rows", mem.SessionCount())
	}
}

func seedMeeting(t *testing.T, st *storetest.MemoryStore, botID string, status store.MeetingStatus) *store.Meeting {
	t.Helper()
	ctx := context.Background()
	session, err := st.UpsertSession(ctx, store.UpsertSessionInput{ID: "session-1", DisplayName: "Standup"})
	if err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	meeting, err := st.UpsertMeeting(ctx, store.UpsertMeetingInput{
		ID:         "meeting-1",
		SessionID:  session.ID,
		BotID:      botID,
		MeetingURL: "https://call/abc",
		Status:     status,
	})
	if err != nil {
		t.Fatalf("failed to seed meeting: %v", err)
	}
	return meeting
}

func TestApplyLifecycleEvent_StatusTransition(t *testing.T) {
	st := storetest.NewMemoryStore()
	seedMeeting(t, st, "bot-1", store.MeetingStatusJoining)
	r := NewReconciler(testConfig(), st, &mockProvisioner{})

	if err := r.ApplyLifecycleEvent(context.Background(), "bot-1", store.MeetingStatusInProgress, time.Now()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	m, err := st.GetMeetingByBotID(context.Background(), "bot-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if m.Status != store.MeetingStatusInProgress {
		t.Fatalf("expected in_progress, got %s", m.Status)
	}
	if m.EndedAt != nil {
		t.Fatal("expected no end timestamp for non-terminal status")
	}
}

func TestApplyLifecycleEvent_MeetingNotFound(t *testing.T) {
	r := NewReconciler(testConfig(), storetest.NewMemoryStore(), &mockProvisioner{})
	if err := r.ApplyLifecycleEvent(context.Background(), "ghost", store.MeetingStatusInProgress, time.Now()); err != ErrMeetingNotFound {
		t.Fatalf("expected ErrMeetingNotFound, got %v", err)
	}
}

func TestApplyLifecycleEvent_CompletedFetchesTranscript(t *testing.T) {
	st := storetest.NewMemoryStore()
	seedMeeting(t, st, "bot-1", store.MeetingStatusInProgress)
	bots := &mockProvisioner{transcript: []byte(`{"turns":[{"speaker":"Dana","text":"Let's start"}]}`)}
	r := NewReconciler(testConfig(), st, bots)

	eventTime := time.Date(2026, 8, 25, 11, 0, 0, 0, time.UTC)
	if err := r.ApplyLifecycleEvent(context.Background(), "bot-1", store.MeetingStatusCompleted, eventTime); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	m, err := st.GetMeetingByBotID(context.Background(), "bot-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if m.Status != store.MeetingStatusCompleted {
		t.Fatalf("expected completed, got %s", m.Status)
	}
	if m.EndedAt == nil || !m.EndedAt.Equal(eventTime) {
		t.Fatalf("expected end timestamp %v, got %v", eventTime, m.EndedAt)
	}
	if string(m.Transcript) != string(bots.transcript) {
		t.Fatalf("unexpected transcript payload: %s", m.Transcript)
	}
	if bots.fetchCalls != 1 {
		t.Fatalf("expected one transcript fetch, got %d", bots.fetchCalls)
	}
}

func TestApplyLifecycleEvent_FetchFailureDoesNotFailUpdate(t *testing.T) {
	st := storetest.NewMemoryStore()
	seedMeeting(t, st, "bot-1", store.MeetingStatusInProgress)
	r := NewReconciler(testConfig(), st, &mockProvisioner{fetchErr: errors.New("vendor timeout")})

	if err := r.ApplyLifecycleEvent(context.Background(), "bot-1", store.MeetingStatusCompleted, time.Now()); err != nil {
		t.Fatalf("expected fetch failure to be swallowed, got %v", err)
	}
	m, err := st.GetMeetingByBotID(context.Background(), "bot-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if m.Status != store.MeetingStatusCompleted {
		t.Fatalf("expected completed, got %s", m.Status)
	}
	if m.Transcript != nil {
		t.Fatalf("expected absent transcript, got %s", m.Transcript)
	}
}

func TestApplyLifecycleEvent_Idempotent(t *testing.T) {
	st := storetest.NewMemoryStore()
	seedMeeting(t, st, "bot-1", store.MeetingStatusInProgress)
	bots := &mockProvisioner{transcript: []byte(`{"turns":[]}`)}
	r := NewReconciler(testConfig(), st, bots)

	eventTime := time.Date(2026, 8, 25, 11, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if err := r.ApplyLifecycleEvent(context.Background(), "bot-1", store.MeetingStatusCompleted, eventTime); err != nil {
			t.Fatalf("apply %d failed: %v", i, err)
		}
	}
	if bots.fetchCalls != 1 {
		t.Fatalf("expected a single transcript fetch, got %d", bots.fetchCalls)
	}
	m, err := st.GetMeetingByBotID(context.Background(), "bot-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !m.EndedAt.Equal(eventTime) {
		t.Fatalf("end timestamp changed on replay: %v", m.EndedAt)
	}
}

func TestApplyLifecycleEvent_TerminalNeverRegresses(t *testing.T) {
	st := storetest.NewMemoryStore()
	seedMeeting(t, st, "bot-1", store.MeetingStatusCompleted)
	r := NewReconciler(testConfig(), st, &mockProvisioner{})

	if err := r.ApplyLifecycleEvent(context.Background(), "bot-1", store.MeetingStatusInProgress, time.Now()); err != nil {
		t.Fatalf("expected late event to be swallowed, got %v", err)
	}
	m, err := st.GetMeetingByBotID(context.Background(), "bot-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if m.Status != store.MeetingStatusCompleted {
		t.Fatalf("terminal status regressed to %s", m.Status)
	}
}
