package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/halcyonlabs/meetscribe/internal/ingest"
	"github.com/halcyonlabs/meetscribe/internal/lifecycle"
	"github.com/halcyonlabs/meetscribe/internal/store"
	"github.com/halcyonlabs/meetscribe/internal/transcript"
)

type createSessionRequest struct {
	MeetingURL  string `json:"meeting_url"`
	RequestedBy string `json:"requested_by"`
	DisplayName string `json:"display_name"`
}

type sessionView struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type meetingView struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	BotID       string          `json:"bot_id"`
	MeetingURL  string          `json:"meeting_url"`
	Status      string          `json:"status"`
	RequestedBy string          `json:"requested_by,omitempty"`
	Transcript  json.RawMessage `json:"transcript,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
}

type sessionResponse struct {
	Session sessionView  `json:"session"`
	Meeting *meetingView `json:"meeting,omitempty"`
}

type turnView struct {
	Position  int       `json:"position"`
	Speaker   string    `json:"speaker"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	session, meeting, err := s.gateway.CreateSession(r.Context(), lifecycle.CreateSessionInput{
		MeetingURL:  req.MeetingURL,
		RequestedBy: req.RequestedBy,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeCreateSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		Session: toSessionView(session),
		Meeting: toMeetingView(meeting),
	})
}

func writeCreateSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, lifecycle.ErrMissingMeetingURL) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var stageErr *lifecycle.StageError
	if errors.As(err, &stageErr) {
		status := http.StatusInternalServerError
		if stageErr.Stage == lifecycle.StageProvisioning {
			status = http.StatusBadGateway
		}
		slog.Error("session creation failed", "error", err, "stage", stageErr.Stage)
		writeJSON(w, status, errorResponse{Error: stageErr.Error(), Stage: stageErr.Stage})
		return
	}
	slog.Error("session creation failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	session, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		slog.Error("failed to load session", "error", err, "session_id", id)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load session"})
		return
	}
	if session == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
		return
	}
	meeting, err := s.store.GetMeetingBySessionID(r.Context(), id)
	if err != nil {
		slog.Error("failed to load meeting", "error", err, "session_id", id)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load meeting"})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Session: toSessionView(session),
		Meeting: toMeetingView(meeting),
	})
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	session, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		slog.Error("failed to load session", "error", err, "session_id", id)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load session"})
		return
	}
	if session == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
		return
	}
	turns, err := s.store.ListSessionTurns(r.Context(), id)
	if err != nil {
		slog.Error("failed to list session turns", "error", err, "session_id", id)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list turns"})
		return
	}

	if r.URL.Query().Get("format") == "text" {
		meeting, err := s.store.GetMeetingBySessionID(r.Context(), id)
		if err != nil {
			slog.Error("failed to load meeting", "error", err, "session_id", id)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load meeting"})
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(transcript.RenderText(session, meeting, turns))
		return
	}

	views := make([]turnView, 0, len(turns))
	for _, pt := range turns {
		views = append(views, turnView{
			Position:  pt.Position,
			Speaker:   pt.AttendeeName,
			Content:   pt.Turn.Content,
			Source:    pt.Turn.SourceType,
			CreatedAt: pt.Turn.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "turns": views})
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	var event ingest.LifecycleEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if event.BotID == "" || event.Status == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bot_id and status are required"})
		return
	}
	if err := s.gateway.HandleLifecycle(r.Context(), event); err != nil {
		// Unknown statuses are a contract violation on the sender's side; a
		// store failure is ours. Both are reported, neither is retried here.
		slog.Error("failed to apply lifecycle event", "error", err, "bot_id", event.BotID, "status", event.Status)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toSessionView(s *store.Session) sessionView {
	return sessionView{
		ID:          s.ID,
		DisplayName: s.DisplayName,
		Description: s.Description,
		Category:    s.Category,
		Metadata:    s.Metadata,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toMeetingView(m *store.Meeting) *meetingView {
	if m == nil {
		return nil
	}
	return &meetingView{
		ID:          m.ID,
		SessionID:   m.SessionID,
		BotID:       m.BotID,
		MeetingURL:  m.MeetingURL,
		Status:      string(m.Status),
		RequestedBy: m.RequestedBy,
		Transcript:  json.RawMessage(m.Transcript),
		StartedAt:   m.StartedAt,
		EndedAt:     m.EndedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
