// Package release composes the track catalog and the workflow state machine
// into the atomic operations exposed to callers: release creation, field
// edits, submission, review transitions and catalog mutations, plus the
// best-effort object storage cleanup that follows a committed track delete.
package release

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"labelops/apperr"
	"labelops/core/catalog"
	"labelops/core/workflow"
	"labelops/logger"
	"labelops/model"
	"labelops/repository"
	"labelops/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxListLimit caps the page size of release listings.
const maxListLimit = 50

// Cache is the optional read-side cache for populated releases.
type Cache interface {
	GetFullRelease(ctx context.Context, id string) (*model.FullRelease, bool)
	SetFullRelease(ctx context.Context, full *model.FullRelease)
	Invalidate(ctx context.Context, id string)
}

// ReleasePatch carries the whitelisted updatable release fields. Nil fields
// are left untouched.
type ReleasePatch struct {
	Name        *string
	Type        *model.ReleaseType
	Date        *time.Time
	CoverKey    *string
	Feat        *model.StringList
	Authors     *model.Authors
	CatalogCode *string
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
}

// ListResult is one page of releases.
type ListResult struct {
	Data       []*model.Release `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

// Orchestrator is the façade over the workflow state machine and the track
// catalog. All mutations of one release run inside a single transaction
// holding a lock on the release row, so concurrent writers serialize and no
// reindex is ever computed from a stale read.
type Orchestrator struct {
	store   repository.Store
	machine *workflow.Machine
	objects storage.ObjectStorage
	cache   Cache
}

// NewOrchestrator wires the orchestrator. cache may be nil.
func NewOrchestrator(store repository.Store, machine *workflow.Machine, objects storage.ObjectStorage, cache Cache) *Orchestrator {
	return &Orchestrator{store: store, machine: machine, objects: objects, cache: cache}
}

// CreateRelease opens a new draft for the artist. An artist can have at most
// one open draft at a time.
func (o *Orchestrator) CreateRelease(ctx context.Context, artistID, stageName string) (*model.Release, error) {
	if artistID == "" {
		return nil, apperr.BadRequest("artist id is required")
	}

	var created *model.Release
	err := o.store.InTransaction(ctx, func(s repository.Store) error {
		existing, err := s.Releases().FindDraftByArtist(ctx, artistID)
		if err != nil {
			return apperr.Internal("failed to look up existing draft", err)
		}
		if existing != nil {
			return apperr.BadRequest("a draft release already exists; delete it or continue editing it")
		}

		created = &model.Release{
			ID:        uuid.NewString(),
			ArtistID:  artistID,
			StageName: stageName,
			Feat:      model.StringList{},
			Status:    model.NewDraftStatus(),
		}
		if err := s.Releases().Create(ctx, created); err != nil {
			return apperr.Internal("failed to create release", err)
		}
		return nil
	})
	if err != nil {
		return nil, wrapInternal(err, "create release failed")
	}

	logger.Info("release created",
		zap.String("releaseId", created.ID),
		zap.String("artistId", artistID))
	return created, nil
}

// GetRelease returns a release populated with its ordered track set.
func (o *Orchestrator) GetRelease(ctx context.Context, releaseID string) (*model.FullRelease, error) {
	if o.cache != nil {
		if full, ok := o.cache.GetFullRelease(ctx, releaseID); ok {
			return full, nil
		}
	}

	rel, err := o.store.Releases().GetByID(ctx, releaseID)
	if err != nil {
		return nil, apperr.Internal("failed to load release", err)
	}
	if rel == nil {
		return nil, apperr.NotFound("release not found")
	}

	tracks, err := o.store.Tracks().ListByRelease(ctx, releaseID)
	if err != nil {
		return nil, apperr.Internal("failed to load release tracks", err)
	}

	full := &model.FullRelease{Release: *rel, Tracks: tracks}
	if o.cache != nil {
		o.cache.SetFullRelease(ctx, full)
	}
	return full, nil
}

// ListReleases returns one page of releases matching the query. Page sizes
// are clamped to maxListLimit; an empty page is reported as not found.
func (o *Orchestrator) ListReleases(ctx context.Context, q repository.ReleaseListQuery) (*ListResult, error) {
	if q.Page < 1 || q.Limit < 1 {
		return nil, apperr.BadRequest("invalid pagination parameters")
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}
	if q.Status != "" && !model.KnownLabel(q.Status) {
		return nil, apperr.BadRequest("unknown release status %q", q.Status)
	}

	releases, total, err := o.store.Releases().List(ctx, q)
	if err != nil {
		return nil, apperr.Internal("failed to list releases", err)
	}
	if len(releases) == 0 {
		return nil, apperr.NotFound("no releases found")
	}

	return &ListResult{
		Data: releases,
		Pagination: Pagination{
			Total:       total,
			TotalPages:  int(math.Ceil(float64(total) / float64(q.Limit))),
			CurrentPage: q.Page,
			Limit:       q.Limit,
		},
	}, nil
}

// UpdateReleaseFields applies the whitelisted fields of patch and reopens
// the release to draft regardless of its prior status: editing metadata is
// never silently merged into an already reviewed release.
func (o *Orchestrator) UpdateReleaseFields(ctx context.Context, releaseID string, patch ReleasePatch, editorID string) (*model.Release, error) {
	if patch.Type != nil && !model.KnownReleaseType(*patch.Type) {
		return nil, apperr.BadRequest("unknown release type %q", *patch.Type)
	}

	var updated *model.Release
	err := o.store.InTransaction(ctx, func(s repository.Store) error {
		rel, err := s.Releases().GetByIDForUpdate(ctx, releaseID)
		if err != nil {
			return apperr.Internal("failed to load release", err)
		}
		if rel == nil {
			return apperr.NotFound("release not found")
		}

		if patch.CatalogCode != nil && *patch.CatalogCode != "" && *patch.CatalogCode != rel.CatalogCode {
			taken, err := s.Releases().CatalogCodeTaken(ctx, *patch.CatalogCode, rel.ID)
			if err != nil {
				return apperr.Internal("failed to check catalog code uniqueness", err)
			}
			if taken {
				return apperr.Conflict("catalog code %q is already assigned to another release", *patch.CatalogCode)
			}
		}

		applyReleasePatch(rel, patch)
		o.machine.ReopenToDraft(rel, editorID)

		if err := s.Releases().Update(ctx, rel); err != nil {
			return apperr.Internal("failed to update release", err)
		}
		updated = rel
		return nil
	})
	if err != nil {
		return nil, wrapInternal(err, "update release failed")
	}

	o.invalidate(ctx, releaseID)
	return updated, nil
}

// SubmitRelease validates the draft against the submission gate and moves
// it to pending review.
func (o *Orchestrator) SubmitRelease(ctx context.Context, releaseID, editorID string) (*model.FullRelease, error) {
	var full *model.FullRelease
	err := o.store.InTransaction(ctx, func(s repository.Store) error {
		rel, err := s.Releases().GetByIDForUpdate(ctx, releaseID)
		if err != nil {
			return apperr.Internal("failed to load release", err)
		}
		if rel == nil {
			return apperr.NotFound("release not found")
		}

		tracks, err := s.Tracks().ListByRelease(ctx, releaseID)
		if err != nil {
			return apperr.Internal("failed to load release tracks", err)
		}

		if err := o.machine.ValidateReadyToSubmit(rel, len(tracks)); err != nil {
			return err
		}
		if err := o.machine.Transition(rel, model.StatusPending, editorID, ""); err != nil {
			return err
		}
		if err := s.Releases().Update(ctx, rel); err != nil {
			return apperr.Internal("failed to update release", err)
		}
		full = &model.FullRelease{Release: *rel, Tracks: tracks}
		return nil
	})
	if err != nil {
		return nil, wrapInternal(err, "submit release failed")
	}

	o.invalidate(ctx, releaseID)
	logger.Info("release submitted for review", zap.String("releaseId", releaseID))
	return full, nil
}

// SetStatus records a reviewer-facing workflow transition
// (approve/reject/deliver/finalize). Finalizing additionally requires a
// catalog code unique across all releases.
func (o *Orchestrator) SetStatus(ctx context.Context, releaseID string, label model.StatusLabel, editorID, message string) (*model.Release, error) {
	var updated *model.Release
	err := o.store.InTransaction(ctx, func(s repository.Store) error {
		rel, err := s.Releases().GetByIDForUpdate(ctx, releaseID)
		if err != nil {
			return apperr.Internal("failed to load release", err)
		}
		if rel == nil {
			return apperr.NotFound("release not found")
		}

		if label == model.StatusFinalized {
			if rel.CatalogCode == "" {
				return apperr.BadRequest("a catalog code must be assigned before a release can be finalized")
			}
			taken, err := s.Releases().CatalogCodeTaken(ctx, rel.CatalogCode, rel.ID)
			if err != nil {
				return apperr.Internal("failed to check catalog code uniqueness", err)
			}
			if taken {
				return apperr.Conflict("catalog code %q is already assigned to another release", rel.CatalogCode)
			}
		}

		if err := o.machine.Transition(rel, label, editorID, message); err != nil {
			return err
		}
		if err := s.Releases().Update(ctx, rel); err != nil {
			return apperr.Internal("failed to update release", err)
		}
		updated = rel
		return nil
	})
	if err != nil {
		return nil, wrapInternal(err, "status update failed")
	}

	o.invalidate(ctx, releaseID)
	logger.Info("release status updated",
		zap.String("releaseId", releaseID),
		zap.String("status", string(label)),
		zap.String("editor", editorID))
	return updated, nil
}

// AddTrack appends a track to a draft release.
func (o *Orchestrator) AddTrack(ctx context.Context, releaseID, fileKey string, duration float64) (*model.Track, error) {
	if fileKey == "" {
		return nil, apperr.BadRequest("file key is required")
	}
	if duration <= 0 {
		return nil, apperr.BadRequest("duration must be positive")
	}

	var track *model.Track
	err := o.store.InTransaction(ctx, func(s repository.Store) error {
		rel, err := o.lockDraft(ctx, s, releaseID, "tracks can only be added to draft releases")
		if err != nil {
			return err
		}
		track, err = catalog.New(s.Tracks()).AddTrack(ctx, rel.ID, fileKey, duration)
		return err
	})
	if err != nil {
		return nil, wrapInternal(err, "add track failed")
	}

	o.invalidate(ctx, releaseID)
	return track, nil
}

// UpdateTrack applies a whitelisted patch to a track of a draft release.
func (o *Orchestrator) UpdateTrack(ctx context.Context, trackID string, patch catalog.TrackPatch) (*model.Track, error) {
	releaseID, err := o.resolveTrackRelease(ctx, trackID)
	if err != nil {
		return nil, err
	}

	var track *model.Track
	err = o.store.InTransaction(ctx, func(s repository.Store) error {
		if _, err := o.lockDraft(ctx, s, releaseID, "tracks can only be updated in draft releases"); err != nil {
			return err
		}
		existing, err := s.Tracks().GetByID(ctx, trackID)
		if err != nil {
			return apperr.Internal("failed to load track", err)
		}
		if existing == nil {
			return apperr.NotFound("track not found")
		}
		track, err = catalog.New(s.Tracks()).UpdateTrack(ctx, existing, patch)
		return err
	})
	if err != nil {
		return nil, wrapInternal(err, "update track failed")
	}

	o.invalidate(ctx, releaseID)
	return track, nil
}

// ReorderTracks replaces the running order of a draft release with the
// caller-supplied permutation of track ids.
func (o *Orchestrator) ReorderTracks(ctx context.Context, releaseID string, newOrder []string) error {
	err := o.store.InTransaction(ctx, func(s repository.Store) error {
		rel, err := o.lockDraft(ctx, s, releaseID, "tracks can only be reordered in draft releases")
		if err != nil {
			return err
		}
		return catalog.New(s.Tracks()).Reorder(ctx, rel.ID, newOrder)
	})
	if err != nil {
		return wrapInternal(err, "reorder tracks failed")
	}

	o.invalidate(ctx, releaseID)
	return nil
}

// DeleteTrack removes a track from a draft release and reindexes its
// siblings, then fires a single best-effort deletion of the audio object
// after the transaction has committed. An object that is already gone is
// skipped; a storage failure is logged and swallowed: the catalog invariant
// is already satisfied, and orphaned objects are cheaper than a hole in the
// running order.
func (o *Orchestrator) DeleteTrack(ctx context.Context, trackID string) error {
	releaseID, err := o.resolveTrackRelease(ctx, trackID)
	if err != nil {
		return err
	}

	var removedKey string
	var rel *model.Release
	err = o.store.InTransaction(ctx, func(s repository.Store) error {
		locked, err := o.lockDraft(ctx, s, releaseID, "tracks can only be deleted from draft releases")
		if err != nil {
			return err
		}
		rel = locked

		track, err := s.Tracks().GetByID(ctx, trackID)
		if err != nil {
			return apperr.Internal("failed to load track", err)
		}
		if track == nil {
			return apperr.NotFound("track not found")
		}

		removedKey, err = catalog.New(s.Tracks()).DeleteTrack(ctx, track)
		return err
	})
	if err != nil {
		return wrapInternal(err, "delete track failed")
	}

	o.invalidate(ctx, rel.ID)

	key := trackObjectKey(rel.ArtistID, rel.ID, removedKey)
	exists, err := o.objects.Exists(ctx, key)
	if err != nil {
		logger.Warn("failed to check track file in object storage",
			zap.String("key", key),
			zap.Error(err))
	} else if !exists {
		logger.Info("track file already absent from object storage",
			zap.String("key", key),
			zap.String("trackId", trackID))
		return nil
	}
	if err := o.objects.Delete(ctx, key); err != nil {
		logger.Warn("failed to delete track file from object storage",
			zap.String("key", key),
			zap.String("trackId", trackID),
			zap.Error(err))
	}
	return nil
}

// resolveTrackRelease looks up the owning release of a track outside any
// transaction. Track mutations must take the release row lock as the
// transaction's first read: a plain read issued earlier would pin the
// transaction's snapshot before the lock is granted, and the reindex would
// then run on rows a concurrent writer has already replaced.
func (o *Orchestrator) resolveTrackRelease(ctx context.Context, trackID string) (string, error) {
	track, err := o.store.Tracks().GetByID(ctx, trackID)
	if err != nil {
		return "", apperr.Internal("failed to load track", err)
	}
	if track == nil {
		return "", apperr.NotFound("track not found")
	}
	return track.ReleaseID, nil
}

// lockDraft loads the release under a row lock and enforces the draft gate.
func (o *Orchestrator) lockDraft(ctx context.Context, s repository.Store, releaseID, gateMessage string) (*model.Release, error) {
	rel, err := s.Releases().GetByIDForUpdate(ctx, releaseID)
	if err != nil {
		return nil, apperr.Internal("failed to load release", err)
	}
	if rel == nil {
		return nil, apperr.NotFound("release not found")
	}
	if rel.Status.Label != model.StatusDraft {
		return nil, apperr.BadRequest("%s (current status: %s)", gateMessage, rel.Status.Label)
	}
	return rel, nil
}

func (o *Orchestrator) invalidate(ctx context.Context, releaseID string) {
	if o.cache != nil && releaseID != "" {
		o.cache.Invalidate(ctx, releaseID)
	}
}

func applyReleasePatch(rel *model.Release, patch ReleasePatch) {
	if patch.Name != nil {
		rel.Name = *patch.Name
	}
	if patch.Type != nil {
		rel.Type = *patch.Type
	}
	if patch.Date != nil {
		rel.Date = patch.Date
	}
	if patch.CoverKey != nil {
		rel.CoverKey = *patch.CoverKey
	}
	if patch.Feat != nil {
		rel.Feat = *patch.Feat
	}
	if patch.Authors != nil {
		rel.Authors = *patch.Authors
	}
	if patch.CatalogCode != nil {
		rel.CatalogCode = *patch.CatalogCode
	}
}

// trackObjectKey builds the storage key of a track's audio object.
func trackObjectKey(artistID, releaseID, fileKey string) string {
	return fmt.Sprintf("artists/%s/releases/%s/tracks/%s", artistID, releaseID, fileKey)
}

// wrapInternal passes typed application errors through and wraps anything
// else (transaction machinery failures) as internal.
func wrapInternal(err error, msg string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(msg, err)
}
