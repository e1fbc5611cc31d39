package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories behind a single transactional boundary.
// All mutations touching one release (status transitions, catalog edits,
// reindexing) must run inside InTransaction so concurrent writers on the
// same release serialize on the locked release row.
type Store interface {
	Releases() ReleaseRepository
	Tracks() TrackRepository

	// InTransaction runs fn against a Store bound to one database
	// transaction. fn's writes commit if and only if it returns nil.
	InTransaction(ctx context.Context, fn func(Store) error) error
}

// GormStore is the MySQL/GORM implementation of Store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on top of an open GORM connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Releases() ReleaseRepository {
	return &gormReleaseRepository{db: s.db}
}

func (s *GormStore) Tracks() TrackRepository {
	return &gormTrackRepository{db: s.db}
}

func (s *GormStore) InTransaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
