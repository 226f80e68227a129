package domain

import "github.com/google/uuid"

// TurnRequest represents a user turn submitted to the advisor
type TurnRequest struct {
	SessionID *uuid.UUID `json:"session_id,omitempty"`
	Prompt    string     `json:"prompt" validate:"required,max=8000"`
}

// TurnSubmission is returned once a turn has been queued
type TurnSubmission struct {
	TaskID    string    `json:"task_id"`
	SessionID uuid.UUID `json:"session_id"`
}

// TaskView is the polling view of a queued job
type TaskView struct {
	TaskID string  `json:"task_id"`
	Status string  `json:"status"`
	Result *string `json:"result"`
	Error  string  `json:"error,omitempty"`
}

// SessionListItem is the sidebar view of a session
type SessionListItem struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Summary string    `json:"summary"`
}
