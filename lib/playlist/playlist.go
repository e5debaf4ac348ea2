package playlist

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const prefix = "PL"

var ErrNotFound = errors.New("playlist not found")

// Playlist is a named, ordered list of track names, optionally tied to the
// soiree it was generated for.
type Playlist struct {
	ID          string     `json:"id" gorm:"primary_key"`
	Name        string     `json:"name"`
	Styles      StringList `json:"styles"`
	Description string     `json:"description"`
	Tracks      StringList `json:"tracks"`
	EventID     string     `json:"eventId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Patch holds the fields of an update; nil fields are left unchanged.
type Patch struct {
	Name        *string   `json:"name"`
	Styles      *[]string `json:"styles"`
	Description *string   `json:"description"`
}

func NewID() string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String())
}

// prepare assigns an id and timestamps to a playlist about to be created.
func (p *Playlist) prepare(now time.Time) {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Styles == nil {
		p.Styles = StringList{}
	}
	if p.Tracks == nil {
		p.Tracks = StringList{}
	}
	p.CreatedAt = now
	p.UpdatedAt = now
}

// Apply merges patch into p. Empty names and style lists are ignored.
func (p *Playlist) Apply(patch Patch, now time.Time) {
	if patch.Name != nil && *patch.Name != "" {
		p.Name = *patch.Name
	}
	if patch.Styles != nil && len(*patch.Styles) > 0 {
		p.Styles = StringList(*patch.Styles)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	p.UpdatedAt = now
}

// StringList is stored as a JSON array in a single text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	return string(b), err
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]string)(l))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(l))
	default:
		return errors.Errorf("cannot scan %T into StringList", src)
	}
}
