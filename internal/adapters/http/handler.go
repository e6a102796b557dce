package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PabloGalante/trina/internal/app/activity"
	"github.com/PabloGalante/trina/internal/app/conversation"
	"github.com/PabloGalante/trina/internal/domain"
	"github.com/PabloGalante/trina/internal/observability"
)

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type createConversationRequest struct {
	IsAnonymous *bool `json:"is_anonymous,omitempty"`
}

type createConversationResponse struct {
	ConversationID string `json:"conversation_id"`
}

type conversationResponse struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id,omitempty"`
	IsAnonymous    bool      `json:"is_anonymous"`
	TurnCount      int64     `json:"turn_count"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

type messageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Seq            int64     `json:"seq"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type getConversationResponse struct {
	Conversation conversationResponse `json:"conversation"`
	Messages     []messageResponse    `json:"messages"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type sendMessageResponse struct {
	Response string `json:"response"`
}

type logActivityRequest struct {
	ActivityType string `json:"activity_type"`
	Duration     *int   `json:"duration,omitempty"` // seconds
	Completed    bool   `json:"completed"`
	Notes        string `json:"notes,omitempty"`
}

type activityResponse struct {
	ID           string    `json:"id"`
	ActivityType string    `json:"activity_type"`
	Duration     *int      `json:"duration,omitempty"`
	Completed    bool      `json:"completed"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ─────────────────────────────────────────────
// Conversation handlers
// ─────────────────────────────────────────────

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	conv, err := s.conversations.CreateConversation(r.Context(), conversation.CreateInput{Anonymous: req.IsAnonymous})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createConversationResponse{ConversationID: string(conv.ID)})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.conversations.ListConversations(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]conversationResponse, 0, len(convs))
	for _, c := range convs {
		out = append(out, toConversationResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := domain.ConversationID(chi.URLParam(r, "id"))

	conv, turns, err := s.conversations.GetConversation(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	msgs := make([]messageResponse, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, toMessageResponse(t))
	}

	writeJSON(w, http.StatusOK, getConversationResponse{
		Conversation: toConversationResponse(conv),
		Messages:     msgs,
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := s.conversations.SendMessage(r.Context(), conversation.SendMessageInput{
		ConversationID: domain.ConversationID(chi.URLParam(r, "id")),
		Text:           req.Message,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{Response: out.Reply})
}

// ─────────────────────────────────────────────
// Activity handlers
// ─────────────────────────────────────────────

func (s *Server) handleLogActivity(w http.ResponseWriter, r *http.Request) {
	var req logActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	_, err := s.activities.Log(r.Context(), activity.LogInput{
		ActivityType:    req.ActivityType,
		DurationSeconds: req.Duration,
		Completed:       req.Completed,
		Notes:           req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	list, err := s.activities.List(r.Context(), 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]activityResponse, 0, len(list))
	for _, a := range list {
		out = append(out, activityResponse{
			ID:           string(a.ID),
			ActivityType: a.ActivityType,
			Duration:     a.DurationSeconds,
			Completed:    a.Completed,
			Notes:        a.Notes,
			CreatedAt:    a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	for _, p := range s.health {
		if err := p.Ping(ctx); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// Conversion helpers
// ─────────────────────────────────────────────

func toConversationResponse(c *domain.Conversation) conversationResponse {
	return conversationResponse{
		ID:             string(c.ID),
		OwnerID:        string(c.OwnerID),
		IsAnonymous:    c.Anonymous,
		TurnCount:      c.TurnCount,
		CreatedAt:      c.CreatedAt,
		LastActivityAt: c.LastActivityAt,
	}
}

func toMessageResponse(t *domain.Turn) messageResponse {
	return messageResponse{
		ID:             string(t.ID),
		ConversationID: string(t.ConversationID),
		Seq:            t.Seq,
		Role:           string(t.Role),
		Content:        t.Content,
		CreatedAt:      t.CreatedAt,
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDecodeError(w, err)
		return false
	}
	return true
}

// decodeOptionalJSON accepts an empty body, including an empty chunked one.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return true
	}
	if err != nil {
		writeDecodeError(w, err)
		return false
	}
	return true
}

// writeDecodeError reports bodies cut off by maxBodySize as 413.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid JSON body")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}

// writeServiceError maps domain errors to status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, domain.ErrGenerationUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":     "the assistant is unavailable right now, please try again",
			"retryable": true,
		})
	case errors.Is(err, domain.ErrStorageUnavailable):
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("storage unavailable")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":     "storage unavailable",
			"retryable": true,
		})
	default:
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
