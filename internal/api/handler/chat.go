package handler

import (
	"net/http"

	"github.com/Rrens/recruit-advisor/internal/api/response"
	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/service"
	"github.com/go-chi/chi/v5"
)

// ChatHandler handles turn submission and task polling
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SubmitTurn queues a chat turn and returns its task handle
func (h *ChatHandler) SubmitTurn(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req domain.TurnRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	submission, err := h.chatService.SubmitTurn(r.Context(), user, req)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Accepted(w, submission)
}

// PollTask reports the status of a submitted task
func (h *ChatHandler) PollTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	view, err := h.chatService.Poll(r.Context(), user.ID, chi.URLParam(r, "taskID"))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, view)
}

// Welcome creates the first-visit welcome session when due
func (h *ChatHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	session, err := h.chatService.StartWelcome(r.Context(), user)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if session == nil {
		response.OK(w, map[string]any{"created": false})
		return
	}

	response.Created(w, map[string]any{"created": true, "session": session})
}
