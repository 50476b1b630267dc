package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FileMeta describes one uploaded object attached to a session. The URL points
// at the object store and stays valid independently of the session's lifetime.
type FileMeta struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// FileList is stored as a JSONB array on the sessions table. Entries are
// append-only for the life of a session.
type FileList []FileMeta

func (l FileList) Value() (driver.Value, error) {
	if l == nil {
		l = FileList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *FileList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = FileList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into FileList", src)
	}
}

type Session struct {
	ID        string    `db:"id" json:"id"`
	Files     FileList  `db:"files" json:"files"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Expired reports whether the session is past its TTL at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
