package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// scanJSON decodes a JSON database value into dest. MySQL returns JSON
// columns as []byte; an SQL NULL leaves dest at its zero value.
func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
}

// StringList is a JSON-encoded list of names (featured artists, credits).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// Authors carries the writing credits for a release or track.
// Stored as a JSON column.
type Authors struct {
	Lyricists []string `json:"lyricists"`
	Producers []string `json:"producers"`
}

func (a Authors) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Authors) Scan(value interface{}) error {
	return scanJSON(value, a)
}

// Empty reports whether no credit of either kind is present.
func (a Authors) Empty() bool {
	return len(a.Lyricists) == 0 && len(a.Producers) == 0
}
