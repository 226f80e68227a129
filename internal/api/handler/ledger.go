package handler

import (
	"errors"
	"net/http"

	"github.com/Rrens/recruit-advisor/internal/api/response"
	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/service"
)

// LedgerHandler handles ledger endpoints
type LedgerHandler struct {
	ledgerService *service.LedgerService
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// Create saves a ledger entry
func (h *LedgerHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input domain.LedgerEntryCreate
	if !decodeJSON(w, r, &input) {
		return
	}

	entry, err := h.ledgerService.Create(r.Context(), user.ID, input)
	if errors.Is(err, service.ErrEmptyLedgerEntry) {
		response.BadRequest(w, err.Error())
		return
	}
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Created(w, entry)
}

// List returns the user's ledger entries
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	entries, err := h.ledgerService.List(r.Context(), user.ID, listFilter(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, entries)
}

// Get returns one entry
func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	entryID, ok := uuidParam(w, r, "entryID")
	if !ok {
		return
	}

	entry, err := h.ledgerService.Get(r.Context(), user.ID, entryID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, entry)
}

// Archive soft-deletes an entry
func (h *LedgerHandler) Archive(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	entryID, ok := uuidParam(w, r, "entryID")
	if !ok {
		return
	}

	if err := h.ledgerService.Archive(r.Context(), user.ID, entryID); err != nil {
		response.DomainError(w, err)
		return
	}

	response.NoContent(w)
}

// GenerateActionItems queues action item extraction for an entry
func (h *LedgerHandler) GenerateActionItems(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	entryID, ok := uuidParam(w, r, "entryID")
	if !ok {
		return
	}

	taskID, err := h.ledgerService.TriggerActionItems(r.Context(), user.ID, entryID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Accepted(w, map[string]string{"task_id": taskID})
}

// ActionItemHandler handles action item endpoints
type ActionItemHandler struct {
	itemService *service.ActionItemService
}

// NewActionItemHandler creates a new action item handler
func NewActionItemHandler(itemService *service.ActionItemService) *ActionItemHandler {
	return &ActionItemHandler{itemService: itemService}
}

// List returns the user's action items
func (h *ActionItemHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	items, err := h.itemService.List(r.Context(), user.ID, listFilter(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, items)
}

// Update changes completion, priority or due date
func (h *ActionItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}

	var input domain.ActionItemUpdate
	if !decodeJSON(w, r, &input) {
		return
	}

	item, err := h.itemService.Update(r.Context(), user.ID, itemID, input)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, item)
}

// Archive soft-deletes an item
func (h *ActionItemHandler) Archive(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}

	if err := h.itemService.Archive(r.Context(), user.ID, itemID); err != nil {
		response.DomainError(w, err)
		return
	}

	response.NoContent(w)
}
