package domain

import "time"

// Archivable is the soft-delete capability shared by ledger entries and action items.
// Archived rows stay queryable but are excluded from active views.
type Archivable struct {
	IsArchived bool       `json:"is_archived"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// Archive marks the record archived at the given time
func (a *Archivable) Archive(at time.Time) {
	a.IsArchived = true
	a.ArchivedAt = &at
}

// Active reports whether the record belongs in active views
func (a Archivable) Active() bool {
	return !a.IsArchived
}

// ListFilter narrows list queries over archivable records.
// The zero value selects active records only.
type ListFilter struct {
	IncludeArchived bool
	Limit           int
	Offset          int
}
