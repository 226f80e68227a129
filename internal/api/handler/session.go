package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Rrens/recruit-advisor/internal/api/response"
	"github.com/Rrens/recruit-advisor/internal/service"
)

type SessionHandler struct {
	chatService *service.ChatService
}

func NewSessionHandler(chatService *service.ChatService) *SessionHandler {
	return &SessionHandler{chatService: chatService}
}

// List returns the user's sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	filter := listFilter(r)
	sessions, err := h.chatService.ListSessions(r.Context(), user.ID, filter.Limit, filter.Offset)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, sessions)
}

// Create creates a new session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	// body is optional
	_ = json.NewDecoder(r.Body).Decode(&req)

	session, err := h.chatService.CreateSession(r.Context(), user.ID, req.Title)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Created(w, session)
}

// GetHistory returns history for a specific session
func (h *SessionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	history, err := h.chatService.SessionHistory(r.Context(), user.ID, sessionID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, history)
}

// Delete deletes a session
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	if err := h.chatService.DeleteSession(r.Context(), user.ID, sessionID); err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, map[string]string{"message": "Session deleted"})
}

// TriggerSummary queues title/summary generation for a session
func (h *SessionHandler) TriggerSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	taskID, queued, err := h.chatService.TriggerOwnedTitleSummary(r.Context(), user.ID, sessionID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if !queued {
		response.OK(w, map[string]any{"queued": false})
		return
	}

	response.Accepted(w, map[string]any{"queued": true, "task_id": taskID})
}
