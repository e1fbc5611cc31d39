package repository

import (
	"context"
	"errors"

	"labelops/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// statusLabelExpr extracts the current workflow label from the status JSON
// column. Filtering and ordering go through this expression so the label is
// never denormalized into a second column that could drift.
const statusLabelExpr = "JSON_UNQUOTE(JSON_EXTRACT(status, '$.label'))"

// ReleaseListQuery carries the filter, sort and pagination options for
// release listings.
type ReleaseListQuery struct {
	ArtistIDs     []string
	Status        model.StatusLabel
	Search        string
	SortName      string // "asc" or "desc", empty to skip
	SortStageName string
	Page          int
	Limit         int
}

// ReleaseRepository defines release persistence operations.
type ReleaseRepository interface {
	Create(ctx context.Context, release *model.Release) error

	// GetByID returns (nil, nil) when the release does not exist.
	GetByID(ctx context.Context, id string) (*model.Release, error)

	// GetByIDForUpdate locks the release row for the rest of the enclosing
	// transaction, serializing concurrent catalog and workflow mutations
	// on the same release.
	GetByIDForUpdate(ctx context.Context, id string) (*model.Release, error)

	Update(ctx context.Context, release *model.Release) error

	// FindDraftByArtist returns the artist's open draft, or (nil, nil).
	FindDraftByArtist(ctx context.Context, artistID string) (*model.Release, error)

	// CatalogCodeTaken reports whether another release already carries code.
	CatalogCodeTaken(ctx context.Context, code, excludeID string) (bool, error)

	// List returns one page of releases plus the total match count.
	List(ctx context.Context, q ReleaseListQuery) ([]*model.Release, int64, error)
}

type gormReleaseRepository struct {
	db *gorm.DB
}

func (r *gormReleaseRepository) Create(ctx context.Context, release *model.Release) error {
	return r.db.WithContext(ctx).Create(release).Error
}

func (r *gormReleaseRepository) GetByID(ctx context.Context, id string) (*model.Release, error) {
	var release model.Release
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&release).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &release, nil
}

func (r *gormReleaseRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.Release, error) {
	var release model.Release
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&release).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &release, nil
}

func (r *gormReleaseRepository) Update(ctx context.Context, release *model.Release) error {
	return r.db.WithContext(ctx).Save(release).Error
}

func (r *gormReleaseRepository) FindDraftByArtist(ctx context.Context, artistID string) (*model.Release, error) {
	var release model.Release
	err := r.db.WithContext(ctx).
		Where("artist_id = ? AND "+statusLabelExpr+" = ?", artistID, model.StatusDraft).
		First(&release).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &release, nil
}

func (r *gormReleaseRepository) CatalogCodeTaken(ctx context.Context, code, excludeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Release{}).
		Where("catalog_code = ? AND id <> ?", code, excludeID).
		Count(&count).Error
	return count > 0, err
}

// statusPriority orders listings so releases needing review surface first.
const statusPriority = "CASE " + statusLabelExpr +
	" WHEN 'pending' THEN 1" +
	" WHEN 'approved' THEN 2" +
	" WHEN 'delivered' THEN 3" +
	" WHEN 'rejected' THEN 4" +
	" WHEN 'finalized' THEN 5" +
	" WHEN 'draft' THEN 6" +
	" ELSE 7 END"

func (r *gormReleaseRepository) List(ctx context.Context, q ReleaseListQuery) ([]*model.Release, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Release{})

	if len(q.ArtistIDs) > 0 {
		query = query.Where("artist_id IN ?", q.ArtistIDs)
	}
	if q.Status != "" {
		query = query.Where(statusLabelExpr+" = ?", q.Status)
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		query = query.Where("name LIKE ? OR stage_name LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(statusPriority).Order("created_at DESC")
	if q.SortName == "asc" || q.SortName == "desc" {
		query = query.Order("name " + q.SortName)
	}
	if q.SortStageName == "asc" || q.SortStageName == "desc" {
		query = query.Order("stage_name " + q.SortStageName)
	}

	var releases []*model.Release
	err := query.
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&releases).Error
	if err != nil {
		return nil, 0, err
	}
	return releases, total, nil
}
