// Package catalog maintains the ordered track set of a release. Its one
// invariant: for a release with N tracks, the track indices are exactly
// the dense sequence 1..N after every mutation.
package catalog

import (
	"context"

	"labelops/apperr"
	"labelops/model"
	"labelops/repository"

	"github.com/google/uuid"
)

// TrackPatch carries the whitelisted updatable track fields. Nil fields are
// left untouched; anything outside this set is ignored by design.
type TrackPatch struct {
	Name     *string
	Feat     *model.StringList
	Authors  *model.Authors
	Lyrics   *model.Lyrics
	Explicit *bool
	ISRC     *string
}

// Engine performs catalog mutations through a track repository. It is
// constructed against a transaction-scoped repository so a compound
// operation (delete + reindex) lands atomically; status gating is the
// orchestrator's job and has happened before any Engine call.
type Engine struct {
	tracks repository.TrackRepository
}

// New creates a catalog engine over the given track repository.
func New(tracks repository.TrackRepository) *Engine {
	return &Engine{tracks: tracks}
}

// AddTrack appends a new track at position max(index)+1.
func (e *Engine) AddTrack(ctx context.Context, releaseID, fileKey string, duration float64) (*model.Track, error) {
	existing, err := e.tracks.ListByRelease(ctx, releaseID)
	if err != nil {
		return nil, apperr.Internal("failed to load release tracks", err)
	}

	maxIndex := 0
	for _, t := range existing {
		if t.Index > maxIndex {
			maxIndex = t.Index
		}
	}

	track := &model.Track{
		ID:        uuid.NewString(),
		ReleaseID: releaseID,
		Index:     maxIndex + 1,
		File:      model.TrackFile{Key: fileKey, Duration: duration},
		Feat:      model.StringList{},
	}
	if err := e.tracks.Create(ctx, track); err != nil {
		return nil, apperr.Internal("failed to create track", err)
	}
	return track, nil
}

// UpdateTrack applies the whitelisted fields of patch to an already loaded
// track. An ISRC that another track carries is rejected with a conflict.
func (e *Engine) UpdateTrack(ctx context.Context, track *model.Track, patch TrackPatch) (*model.Track, error) {
	if patch.ISRC != nil && *patch.ISRC != "" && *patch.ISRC != track.ISRC {
		taken, err := e.tracks.ISRCTaken(ctx, *patch.ISRC, track.ID)
		if err != nil {
			return nil, apperr.Internal("failed to check ISRC uniqueness", err)
		}
		if taken {
			return nil, apperr.Conflict("ISRC %q is already assigned to another track", *patch.ISRC)
		}
	}

	if patch.Name != nil {
		track.Name = *patch.Name
	}
	if patch.Feat != nil {
		track.Feat = *patch.Feat
	}
	if patch.Authors != nil {
		track.Authors = *patch.Authors
	}
	if patch.Lyrics != nil {
		track.Lyrics = *patch.Lyrics
	}
	if patch.Explicit != nil {
		track.Explicit = *patch.Explicit
	}
	if patch.ISRC != nil {
		track.ISRC = *patch.ISRC
	}

	if err := e.tracks.Update(ctx, track); err != nil {
		return nil, apperr.Internal("failed to update track", err)
	}
	return track, nil
}

// Reorder replaces the release's running order with the caller-supplied
// permutation of its track ids. The new order must reference every current
// track exactly once; otherwise nothing is written.
func (e *Engine) Reorder(ctx context.Context, releaseID string, newOrder []string) error {
	if len(newOrder) == 0 {
		return apperr.BadRequest("new track order must not be empty")
	}

	current, err := e.tracks.ListByRelease(ctx, releaseID)
	if err != nil {
		return apperr.Internal("failed to load release tracks", err)
	}

	if len(newOrder) != len(current) {
		return apperr.BadRequest("new order has %d tracks, release has %d", len(newOrder), len(current))
	}

	existing := make(map[string]bool, len(current))
	for _, t := range current {
		existing[t.ID] = true
	}

	seen := make(map[string]bool, len(newOrder))
	updates := make([]repository.IndexUpdate, 0, len(newOrder))
	for pos, id := range newOrder {
		if seen[id] {
			return apperr.BadRequest("new order contains track %s more than once", id)
		}
		seen[id] = true
		if !existing[id] {
			return apperr.BadRequest("track %s does not belong to this release", id)
		}
		updates = append(updates, repository.IndexUpdate{TrackID: id, Index: pos + 1})
	}

	if err := e.tracks.SetIndexes(ctx, updates); err != nil {
		return apperr.Internal("failed to apply new track order", err)
	}
	return nil
}

// DeleteTrack removes an already loaded track and renumbers the remaining
// siblings into a dense 1..N-1 sequence preserving their relative order.
// It returns the storage key of the removed audio file so the caller can
// schedule cleanup after commit.
func (e *Engine) DeleteTrack(ctx context.Context, track *model.Track) (string, error) {
	if err := e.tracks.Delete(ctx, track.ID); err != nil {
		return "", apperr.Internal("failed to delete track", err)
	}

	remaining, err := e.tracks.ListByRelease(ctx, track.ReleaseID)
	if err != nil {
		return "", apperr.Internal("failed to load remaining tracks", err)
	}

	updates := make([]repository.IndexUpdate, 0, len(remaining))
	for pos, t := range remaining {
		if t.Index != pos+1 {
			updates = append(updates, repository.IndexUpdate{TrackID: t.ID, Index: pos + 1})
		}
	}
	if len(updates) > 0 {
		if err := e.tracks.SetIndexes(ctx, updates); err != nil {
			return "", apperr.Internal("failed to reindex remaining tracks", err)
		}
	}

	return track.File.Key, nil
}
