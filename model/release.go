package model

import "time"

// ReleaseType determines the minimum track count a release must carry
// before it can be submitted for review.
type ReleaseType string

const (
	TypeSingle ReleaseType = "single"
	TypeEP     ReleaseType = "ep"
	TypeAlbum  ReleaseType = "album"
)

// KnownReleaseType reports whether t is a valid release type.
func KnownReleaseType(t ReleaseType) bool {
	return t == TypeSingle || t == TypeEP || t == TypeAlbum
}

// Release is one unit of musical work moving through the approval pipeline.
// Tracks are never embedded; they are loaded by release id on demand.
type Release struct {
	ID          string      `json:"id" gorm:"primaryKey;size:36"`
	ArtistID    string      `json:"artistId" gorm:"size:36;index"`
	StageName   string      `json:"stageName" gorm:"size:255"`
	Name        string      `json:"name" gorm:"size:255"`
	Type        ReleaseType `json:"type" gorm:"size:16"`
	Date        *time.Time  `json:"date"`
	CoverKey    string      `json:"coverKey" gorm:"size:512"`
	Feat        StringList  `json:"feat" gorm:"type:json"`
	Authors     Authors     `json:"authors" gorm:"type:json"`
	Status      Status      `json:"status" gorm:"type:json"`
	CatalogCode string      `json:"catalogCode" gorm:"size:64"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (Release) TableName() string { return "releases" }

// FullRelease is a release together with its ordered track set, as returned
// by read operations that populate the catalog.
type FullRelease struct {
	Release Release  `json:"release"`
	Tracks  []*Track `json:"tracks"`
}
