package handler

import (
	"net/http"

	"github.com/Rrens/recruit-advisor/internal/api/response"
	"github.com/Rrens/recruit-advisor/internal/service"
)

type AnalyticsHandler struct {
	chatService *service.ChatService
}

func NewAnalyticsHandler(chatService *service.ChatService) *AnalyticsHandler {
	return &AnalyticsHandler{chatService: chatService}
}

// Get returns the caller's engagement counters
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.chatService.Analytics(r.Context(), user.ID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, stats)
}
