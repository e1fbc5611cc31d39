package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// TrackFile references the uploaded audio object for a track.
// Stored as a JSON column; the key is resolved against object storage
// under the owning artist/release prefix.
type TrackFile struct {
	Key      string  `json:"key"`
	Duration float64 `json:"duration"`
}

func (f TrackFile) Value() (driver.Value, error) {
	return json.Marshal(f)
}

func (f *TrackFile) Scan(value interface{}) error {
	return scanJSON(value, f)
}

// Lyrics holds the plain text and the key of the synced (TTML) variant.
type Lyrics struct {
	Text    string `json:"text"`
	TTMLKey string `json:"ttmlKey"`
}

func (l Lyrics) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *Lyrics) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// Track is one audio item belonging to exactly one release. Index is its
// 1-based position in the release running order; for a release with N tracks
// the indices always form the dense sequence 1..N.
type Track struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	ReleaseID string     `json:"releaseId" gorm:"size:36;index"`
	Index     int        `json:"index" gorm:"column:track_index"`
	Name      string     `json:"name" gorm:"size:255"`
	File      TrackFile  `json:"file" gorm:"type:json"`
	Feat      StringList `json:"feat" gorm:"type:json"`
	Authors   Authors    `json:"authors" gorm:"type:json"`
	Lyrics    Lyrics     `json:"lyrics" gorm:"type:json"`
	Explicit  bool       `json:"explicit"`
	ISRC      string     `json:"isrc" gorm:"size:32"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (Track) TableName() string { return "tracks" }
