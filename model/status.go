package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// StatusLabel is one of the six release workflow states.
type StatusLabel string

const (
	StatusDraft     StatusLabel = "draft"
	StatusPending   StatusLabel = "pending"
	StatusApproved  StatusLabel = "approved"
	StatusRejected  StatusLabel = "rejected"
	StatusDelivered StatusLabel = "delivered"
	StatusFinalized StatusLabel = "finalized"
)

// StatusLabels lists every known workflow state.
var StatusLabels = []StatusLabel{
	StatusDraft,
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusDelivered,
	StatusFinalized,
}

// KnownLabel reports whether label is one of the six workflow states.
func KnownLabel(label StatusLabel) bool {
	for _, l := range StatusLabels {
		if l == label {
			return true
		}
	}
	return false
}

// StatusEntry is a single audit record of a workflow transition.
type StatusEntry struct {
	Editor    string      `json:"editor"`
	Label     StatusLabel `json:"label"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// Status holds the current workflow state of a release together with its
// append-only transition history. Stored as a JSON column.
type Status struct {
	Label   StatusLabel   `json:"label"`
	Message string        `json:"message"`
	History []StatusEntry `json:"history"`
}

func (s Status) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *Status) Scan(value interface{}) error {
	return scanJSON(value, s)
}

// NewDraftStatus returns the initial status for a freshly created release.
func NewDraftStatus() Status {
	return Status{Label: StatusDraft, Message: "", History: []StatusEntry{}}
}
