package repository

import (
	"context"
	"errors"

	"labelops/model"

	"gorm.io/gorm"
)

// IndexUpdate assigns a new running-order position to one track.
type IndexUpdate struct {
	TrackID string
	Index   int
}

// TrackRepository defines track persistence operations. Index-changing
// writes go through SetIndexes so a reindex lands as one batch and no
// intermediate state with duplicate or missing indices becomes durable.
type TrackRepository interface {
	Create(ctx context.Context, track *model.Track) error

	// GetByID returns (nil, nil) when the track does not exist.
	GetByID(ctx context.Context, id string) (*model.Track, error)

	Update(ctx context.Context, track *model.Track) error
	Delete(ctx context.Context, id string) error

	// ListByRelease returns the release's tracks in ascending index order.
	ListByRelease(ctx context.Context, releaseID string) ([]*model.Track, error)

	// SetIndexes applies a batch of index assignments.
	SetIndexes(ctx context.Context, updates []IndexUpdate) error

	// ISRCTaken reports whether another track already carries isrc.
	ISRCTaken(ctx context.Context, isrc, excludeID string) (bool, error)
}

type gormTrackRepository struct {
	db *gorm.DB
}

func (r *gormTrackRepository) Create(ctx context.Context, track *model.Track) error {
	return r.db.WithContext(ctx).Create(track).Error
}

func (r *gormTrackRepository) GetByID(ctx context.Context, id string) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&track).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

func (r *gormTrackRepository) Update(ctx context.Context, track *model.Track) error {
	return r.db.WithContext(ctx).Save(track).Error
}

func (r *gormTrackRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Track{}, "id = ?", id).Error
}

func (r *gormTrackRepository) ListByRelease(ctx context.Context, releaseID string) ([]*model.Track, error) {
	var tracks []*model.Track
	err := r.db.WithContext(ctx).
		Where("release_id = ?", releaseID).
		Order("track_index ASC").
		Find(&tracks).Error
	return tracks, err
}

func (r *gormTrackRepository) SetIndexes(ctx context.Context, updates []IndexUpdate) error {
	for _, u := range updates {
		err := r.db.WithContext(ctx).Model(&model.Track{}).
			Where("id = ?", u.TrackID).
			Update("track_index", u.Index).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *gormTrackRepository) ISRCTaken(ctx context.Context, isrc, excludeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Track{}).
		Where("isrc = ? AND id <> ?", isrc, excludeID).
		Count(&count).Error
	return count > 0, err
}
