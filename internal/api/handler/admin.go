package handler

import (
	"net/http"

	"github.com/Rrens/recruit-advisor/internal/api/response"
	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/service"
	"github.com/go-chi/chi/v5"
)

// AdminHandler handles prompt fragment and override administration
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	fragments, err := h.adminService.ListPrompts(r.Context())
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.OK(w, fragments)
}

func (h *AdminHandler) UpsertPrompt(w http.ResponseWriter, r *http.Request) {
	var input domain.PromptFragmentUpsert
	if !decodeJSON(w, r, &input) {
		return
	}

	fragment, err := h.adminService.UpsertPrompt(r.Context(), input)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.OK(w, fragment)
}

func (h *AdminHandler) SetPromptActive(w http.ResponseWriter, r *http.Request) {
	var input struct {
		IsActive *bool `json:"is_active" validate:"required"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.adminService.SetPromptActive(r.Context(), name, *input.IsActive); err != nil {
		response.DomainError(w, err)
		return
	}
	response.OK(w, map[string]any{"name": name, "is_active": *input.IsActive})
}

func (h *AdminHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	setting, err := h.adminService.GetSetting(r.Context(), userID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.OK(w, setting)
}

func (h *AdminHandler) PutSetting(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	var input struct {
		UntetheredMode *bool `json:"untethered_mode" validate:"required"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	setting, err := h.adminService.SetUntethered(r.Context(), userID, *input.UntetheredMode)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.OK(w, setting)
}
