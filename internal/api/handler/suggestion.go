package handler

import (
	"net/http"

	"github.com/Rrens/recruit-advisor/internal/api/response"
	"github.com/Rrens/recruit-advisor/internal/service"
)

type SuggestionHandler struct {
	chatService *service.ChatService
}

func NewSuggestionHandler(chatService *service.ChatService) *SuggestionHandler {
	return &SuggestionHandler{chatService: chatService}
}

// GetSuggestions returns the user's most frequent prompts
func (h *SuggestionHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	suggestions, err := h.chatService.Suggestions(r.Context(), user.ID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, suggestions)
}
