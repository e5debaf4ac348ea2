package soiree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	prefix = "SO"

	StatusConfirmed = "confirmed"
)

var ErrNotFound = errors.New("soiree not found")

// Soiree is a booked event. PlaylistID stays nil until a playlist has been
// generated and linked.
type Soiree struct {
	ID         string    `json:"id" gorm:"primary_key"`
	ClientID   string    `json:"clientId"`
	Date       string    `json:"date"`
	Venue      string    `json:"venue"`
	GuestCount int       `json:"guestCount"`
	PlaylistID *string   `json:"playlistId"`
	Budget     float64   `json:"budget"`
	Status     string    `json:"status"`
	Style      string    `json:"style"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Patch carries the fields present in an update request body.
type Patch struct {
	ClientID   *string        `json:"clientId,omitempty"`
	Date       *string        `json:"date,omitempty"`
	Venue      *string        `json:"venue,omitempty"`
	GuestCount *int           `json:"guestCount,omitempty"`
	PlaylistID NullableString `json:"playlistId"`
	Budget     *float64       `json:"budget,omitempty"`
	Status     *string        `json:"status,omitempty"`
	Style      *string        `json:"style,omitempty"`
}

// NullableString tells an absent field apart from an explicit null.
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(b, []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// LinkPatch sets only the playlist of a soiree.
func LinkPatch(playlistID string) Patch {
	return Patch{PlaylistID: NullableString{Set: true, Value: &playlistID}}
}

func NewID() string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String())
}

func (s *Soiree) prepare(now time.Time, defaultStyle string) {
	if s.ID == "" {
		s.ID = NewID()
	}
	if s.Status == "" {
		s.Status = StatusConfirmed
	}
	if s.Style == "" {
		s.Style = defaultStyle
	}
	s.CreatedAt = now
	s.UpdatedAt = now
}

// Apply merges the present fields of patch into s.
func (s *Soiree) Apply(patch Patch, now time.Time) {
	if patch.ClientID != nil {
		s.ClientID = *patch.ClientID
	}
	if patch.Date != nil {
		s.Date = *patch.Date
	}
	if patch.Venue != nil {
		s.Venue = *patch.Venue
	}
	if patch.GuestCount != nil {
		s.GuestCount = *patch.GuestCount
	}
	if patch.PlaylistID.Set {
		s.PlaylistID = patch.PlaylistID.Value
	}
	if patch.Budget != nil {
		s.Budget = *patch.Budget
	}
	if patch.Status != nil {
		s.Status = *patch.Status
	}
	if patch.Style != nil {
		s.Style = *patch.Style
	}
	s.UpdatedAt = now
}
