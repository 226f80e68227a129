// Package jobs holds the background task handlers run by the queue workers.
package jobs

import (
	"errors"
	"fmt"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/queue"
	"github.com/google/uuid"
)

// Task names
const (
	TaskTurn        = "chat.turn"
	TaskSummary     = "chat.title_summary"
	TaskActionItems = "ledger.action_items"
)

// TurnPayload is the argument of a turn task
type TurnPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	Prompt    string    `json:"prompt"`
}

// SummaryPayload is the argument of a title/summary task
type SummaryPayload struct {
	SessionID uuid.UUID `json:"session_id"`
}

// SummaryKey deduplicates title/summary tasks per session
func SummaryKey(sessionID uuid.UUID) string {
	return "summary:" + sessionID.String()
}

// ActionItemsPayload is the argument of an action item extraction task
type ActionItemsPayload struct {
	UserID        uuid.UUID `json:"user_id"`
	LedgerEntryID uuid.UUID `json:"ledger_entry_id"`
}

// Result messages
const (
	MsgSessionNotFound   = "Chat session not found."
	MsgLedgerNotFound    = "Ledger entry not found."
	MsgNotEnoughContext  = "Not enough context for summary."
	MsgSummaryAlreadySet = "Summary already set."

	msgUpdatedSession     = "Updated session %s."
	msgActionItemsCreated = "Successfully created %d Action Items from Ledger Entry %s."

	taskExtractSummary      = "extract title/summary for session %s"
	taskGenerateActionItems = "generate Action Items"
)

// terminalError carries the user-facing message of a failure while still
// matching the underlying sentinel
type terminalError struct {
	msg string
	err error
}

func (e *terminalError) Error() string { return e.msg }
func (e *terminalError) Unwrap() error { return e.err }

func notFound(msg string) error {
	return &terminalError{msg: msg, err: domain.ErrNotFound}
}

// PayloadError means a task carried arguments its handler cannot decode
type PayloadError struct {
	Task string
	Err  error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("invalid %s payload: %v", e.Task, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

func decode(task *queue.Task, v any) error {
	if err := task.Decode(v); err != nil {
		return &PayloadError{Task: task.Name, Err: err}
	}
	return nil
}

// Classify is the single retry-or-fail decision for every task error.
// Missing records and malformed model output are terminal; everything else
// is retried with the queue's fixed backoff.
func Classify(err error) queue.Disposition {
	var (
		cfgErr     *domain.ConfigurationError
		payloadErr *PayloadError
		transient  *domain.TransientError
	)
	switch {
	case domain.IsNotFound(err):
		return queue.Disposition{Kind: "not_found"}
	case domain.IsMalformedOutput(err):
		return queue.Disposition{Kind: "malformed_output"}
	case errors.Is(err, domain.ErrQuotaExceeded):
		return queue.Disposition{Kind: "quota_exceeded"}
	case errors.As(err, &payloadErr):
		return queue.Disposition{Kind: "invalid_payload"}
	case errors.As(err, &cfgErr):
		return queue.Disposition{Kind: "configuration"}
	case queue.IsUnknownTask(err):
		return queue.Disposition{Kind: "unknown_task"}
	case errors.Is(err, domain.ErrSessionBusy):
		return queue.Disposition{Retry: true, Kind: "session_busy"}
	case errors.As(err, &transient):
		return queue.Disposition{Retry: true, Kind: "transient"}
	default:
		return queue.Disposition{Retry: true, Kind: "error"}
	}
}

// Register binds the handlers to their task names
func Register(w *queue.Worker, turn *TurnHandler, summary *SummaryHandler, items *ActionItemHandler) {
	w.Handle(TaskTurn, turn.Handle)
	w.Handle(TaskSummary, summary.Handle)
	w.Handle(TaskActionItems, items.Handle)
}
