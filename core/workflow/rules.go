package workflow

import "labelops/model"

// Rules is the edge-validity table for workflow transitions. A nil value in
// the table (or a nil Rules) permits every transition between known labels,
// which matches the historical behavior where edge legality was left to
// caller-side authorization.
type Rules map[model.StatusLabel][]model.StatusLabel

// Allows reports whether the from -> to edge is legal under this table.
// Labels themselves must already be known; Allows does not re-check that.
func (r Rules) Allows(from, to model.StatusLabel) bool {
	if r == nil {
		return true
	}
	targets, ok := r[from]
	if !ok {
		return false
	}
	for _, t := range targets {
		if t == to {
			return true
		}
	}
	return false
}

// PermissiveRules allows any transition between the six known labels.
func PermissiveRules() Rules {
	return nil
}

// StrictRules encodes the intended production pipeline: a draft is submitted
// for review, a reviewer approves or rejects, an approved release is
// delivered and then finalized, and any non-finalized release can be
// reopened to draft by an edit. Finalized is terminal here.
func StrictRules() Rules {
	return Rules{
		model.StatusDraft:     {model.StatusPending},
		model.StatusPending:   {model.StatusApproved, model.StatusRejected, model.StatusDraft},
		model.StatusApproved:  {model.StatusDelivered, model.StatusDraft},
		model.StatusRejected:  {model.StatusDraft},
		model.StatusDelivered: {model.StatusFinalized, model.StatusDraft},
		model.StatusFinalized: {},
	}
}
