// Package workflow owns the release status state machine: the six workflow
// labels, the append-only transition history, and the gate that decides
// whether a draft is complete enough to submit for review.
package workflow

import (
	"time"

	"labelops/apperr"
	"labelops/model"
)

// minTracksByType is the minimum catalog size per release type required
// before submission.
var minTracksByType = map[model.ReleaseType]int{
	model.TypeSingle: 1,
	model.TypeEP:     3,
	model.TypeAlbum:  7,
}

// Machine applies workflow transitions to a release. It guarantees a
// monotonic, fully audited history: every transition appends exactly one
// entry and never touches prior ones. Edge legality is decided by the
// injected Rules table.
type Machine struct {
	rules Rules
	now   func() time.Time
}

// NewMachine creates a state machine with the given edge-validity table.
func NewMachine(rules Rules) *Machine {
	return &Machine{rules: rules, now: time.Now}
}

// Transition moves release to the given label, recording editor and message
// in the audit history. It fails with a BadRequest error when the label is
// unknown or the edge is not permitted by the rules.
func (m *Machine) Transition(release *model.Release, to model.StatusLabel, editorID, message string) error {
	if !model.KnownLabel(to) {
		return apperr.BadRequest("unknown release status %q", to)
	}
	if !m.rules.Allows(release.Status.Label, to) {
		return apperr.BadRequest("transition from %q to %q is not permitted", release.Status.Label, to)
	}

	m.apply(release, to, editorID, message)
	return nil
}

// ReopenToDraft records an implicit resubmission: any edit of release fields
// goes back through here first, so every such edit is visible in the audit
// trail. Edits always reopen, regardless of the rules table, which is why
// this does not go through Transition.
func (m *Machine) ReopenToDraft(release *model.Release, editorID string) {
	m.apply(release, model.StatusDraft, editorID, "")
}

func (m *Machine) apply(release *model.Release, to model.StatusLabel, editorID, message string) {
	release.Status.History = append(release.Status.History, model.StatusEntry{
		Editor:    editorID,
		Label:     to,
		Message:   message,
		Timestamp: m.now(),
	})
	release.Status.Label = to
	release.Status.Message = message
}

// ValidateReadyToSubmit is the gate for the draft -> pending transition.
// It checks the required descriptive fields and the per-type track minimum,
// naming the first missing requirement.
func (m *Machine) ValidateReadyToSubmit(release *model.Release, trackCount int) error {
	switch {
	case release.Name == "":
		return apperr.BadRequest("missing required field: name")
	case release.Type == "":
		return apperr.BadRequest("missing required field: type")
	case release.Date == nil:
		return apperr.BadRequest("missing required field: date")
	case release.CoverKey == "":
		return apperr.BadRequest("missing required field: cover")
	case release.Authors.Empty():
		return apperr.BadRequest("missing required field: authors")
	}

	min, ok := minTracksByType[release.Type]
	if !ok {
		return apperr.BadRequest("unknown release type %q", release.Type)
	}
	if trackCount < min {
		return apperr.BadRequest("release type %q requires at least %d tracks, got %d", release.Type, min, trackCount)
	}
	return nil
}
