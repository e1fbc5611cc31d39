package workflow

import (
	"testing"
	"time"

	"labelops/apperr"
	"labelops/model"
)

func draftRelease() *model.Release {
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &model.Release{
		ID:        "rel-1",
		ArtistID:  "artist-1",
		StageName: "MC Test",
		Name:      "First Light",
		Type:      model.TypeSingle,
		Date:      &date,
		CoverKey:  "cover.jpg",
		Authors:   model.Authors{Lyricists: []string{"A"}, Producers: []string{"B"}},
		Status:    model.NewDraftStatus(),
	}
}

func TestTransition(t *testing.T) {
	t.Run("appends exactly one history entry", func(t *testing.T) {
		m := NewMachine(PermissiveRules())
		rel := draftRelease()

		if err := m.Transition(rel, model.StatusPending, "editor-1", "ready"); err != nil {
			t.Fatalf("transition failed: %v", err)
		}

		if rel.Status.Label != model.StatusPending {
			t.Errorf("expected label pending, got %s", rel.Status.Label)
		}
		if rel.Status.Message != "ready" {
			t.Errorf("expected message %q, got %q", "ready", rel.Status.Message)
		}
		if len(rel.Status.History) != 1 {
			t.Fatalf("expected 1 history entry, got %d", len(rel.Status.History))
		}
		entry := rel.Status.History[0]
		if entry.Editor != "editor-1" || entry.Label != model.StatusPending || entry.Message != "ready" {
			t.Errorf("unexpected history entry: %+v", entry)
		}
		if entry.Timestamp.IsZero() {
			t.Error("history entry should carry a timestamp")
		}
	})

	t.Run("history is append-only across K transitions", func(t *testing.T) {
		m := NewMachine(PermissiveRules())
		rel := draftRelease()

		labels := []model.StatusLabel{
			model.StatusPending,
			model.StatusRejected,
			model.StatusDraft,
			model.StatusPending,
			model.StatusApproved,
		}
		for i, label := range labels {
			if err := m.Transition(rel, label, "editor-1", ""); err != nil {
				t.Fatalf("transition %d failed: %v", i, err)
			}
			if len(rel.Status.History) != i+1 {
				t.Fatalf("after %d transitions expected %d history entries, got %d", i+1, i+1, len(rel.Status.History))
			}
		}

		first := rel.Status.History[0]
		if first.Label != model.StatusPending || first.Editor != "editor-1" {
			t.Errorf("earliest history entry changed: %+v", first)
		}
	})

	t.Run("rejects unknown label", func(t *testing.T) {
		m := NewMachine(PermissiveRules())
		rel := draftRelease()

		err := m.Transition(rel, "archived", "editor-1", "")
		if !apperr.IsBadRequest(err) {
			t.Fatalf("expected bad request, got %v", err)
		}
		if len(rel.Status.History) != 0 {
			t.Error("failed transition must not touch history")
		}
		if rel.Status.Label != model.StatusDraft {
			t.Errorf("failed transition must not change label, got %s", rel.Status.Label)
		}
	})

	t.Run("strict rules block illegal edges", func(t *testing.T) {
		m := NewMachine(StrictRules())
		rel := draftRelease()

		if err := m.Transition(rel, model.StatusApproved, "editor-1", ""); !apperr.IsBadRequest(err) {
			t.Fatalf("draft->approved should be rejected, got %v", err)
		}
		if err := m.Transition(rel, model.StatusPending, "editor-1", ""); err != nil {
			t.Fatalf("draft->pending should be allowed: %v", err)
		}
	})

	t.Run("strict rules make finalized terminal", func(t *testing.T) {
		m := NewMachine(StrictRules())
		rel := draftRelease()
		rel.Status.Label = model.StatusFinalized

		for _, to := range model.StatusLabels {
			if err := m.Transition(rel, to, "editor-1", ""); !apperr.IsBadRequest(err) {
				t.Errorf("finalized->%s should be rejected, got %v", to, err)
			}
		}
	})
}

func TestReopenToDraft(t *testing.T) {
	t.Run("reopens regardless of rules", func(t *testing.T) {
		m := NewMachine(StrictRules())
		rel := draftRelease()
		rel.Status.Label = model.StatusApproved
		rel.Status.Message = "looks good"

		m.ReopenToDraft(rel, "artist-1")

		if rel.Status.Label != model.StatusDraft {
			t.Errorf("expected draft, got %s", rel.Status.Label)
		}
		if rel.Status.Message != "" {
			t.Errorf("reopen should clear the message, got %q", rel.Status.Message)
		}
		if len(rel.Status.History) != 1 {
			t.Fatalf("expected 1 history entry, got %d", len(rel.Status.History))
		}
		if rel.Status.History[0].Editor != "artist-1" {
			t.Errorf("unexpected editor %q", rel.Status.History[0].Editor)
		}
	})
}

func TestValidateReadyToSubmit(t *testing.T) {
	m := NewMachine(PermissiveRules())

	t.Run("complete single with one track passes", func(t *testing.T) {
		if err := m.ValidateReadyToSubmit(draftRelease(), 1); err != nil {
			t.Fatalf("expected valid, got %v", err)
		}
	})

	t.Run("missing fields are named in order", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*model.Release)
			want   string
		}{
			{"name", func(r *model.Release) { r.Name = "" }, "missing required field: name"},
			{"type", func(r *model.Release) { r.Type = "" }, "missing required field: type"},
			{"date", func(r *model.Release) { r.Date = nil }, "missing required field: date"},
			{"cover", func(r *model.Release) { r.CoverKey = "" }, "missing required field: cover"},
			{"authors", func(r *model.Release) { r.Authors = model.Authors{} }, "missing required field: authors"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				rel := draftRelease()
				tc.mutate(rel)
				err := m.ValidateReadyToSubmit(rel, 1)
				if !apperr.IsBadRequest(err) {
					t.Fatalf("expected bad request, got %v", err)
				}
				if err.Error() != tc.want {
					t.Errorf("expected %q, got %q", tc.want, err.Error())
				}
			})
		}
	})

	t.Run("per-type track minimums", func(t *testing.T) {
		cases := []struct {
			releaseType model.ReleaseType
			tracks      int
			wantErr     bool
		}{
			{model.TypeSingle, 0, true},
			{model.TypeSingle, 1, false},
			{model.TypeEP, 2, true},
			{model.TypeEP, 3, false},
			{model.TypeAlbum, 6, true},
			{model.TypeAlbum, 7, false},
		}
		for _, tc := range cases {
			rel := draftRelease()
			rel.Type = tc.releaseType
			err := m.ValidateReadyToSubmit(rel, tc.tracks)
			if tc.wantErr && !apperr.IsBadRequest(err) {
				t.Errorf("%s with %d tracks: expected bad request, got %v", tc.releaseType, tc.tracks, err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("%s with %d tracks: expected valid, got %v", tc.releaseType, tc.tracks, err)
			}
		}
	})
}

func TestRules(t *testing.T) {
	t.Run("nil rules allow everything", func(t *testing.T) {
		var r Rules
		if !r.Allows(model.StatusFinalized, model.StatusDraft) {
			t.Error("nil rules should allow any edge")
		}
	})

	t.Run("strict table edges", func(t *testing.T) {
		r := StrictRules()
		allowed := [][2]model.StatusLabel{
			{model.StatusDraft, model.StatusPending},
			{model.StatusPending, model.StatusApproved},
			{model.StatusPending, model.StatusRejected},
			{model.StatusApproved, model.StatusDelivered},
			{model.StatusDelivered, model.StatusFinalized},
			{model.StatusRejected, model.StatusDraft},
		}
		for _, edge := range allowed {
			if !r.Allows(edge[0], edge[1]) {
				t.Errorf("expected %s->%s to be allowed", edge[0], edge[1])
			}
		}
		blocked := [][2]model.StatusLabel{
			{model.StatusDraft, model.StatusApproved},
			{model.StatusFinalized, model.StatusDraft},
			{model.StatusDraft, model.StatusFinalized},
		}
		for _, edge := range blocked {
			if r.Allows(edge[0], edge[1]) {
				t.Errorf("expected %s->%s to be blocked", edge[0], edge[1])
			}
		}
	})
}
