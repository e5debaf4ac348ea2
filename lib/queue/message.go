// Package queue carries generation requests over the message broker.
package queue

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

const DefaultQueue = "playlist_generation_queue"

var ErrInvalidMessage = errors.New("invalid generation request")

// GenerationRequest asks the worker to build a playlist for a soiree.
type GenerationRequest struct {
	SoireeID  string    `json:"soireeId"`
	ClientID  string    `json:"clientId"`
	Style     string    `json:"style"`
	Timestamp time.Time `json:"timestamp"`
}

type wireRequest struct {
	SoireeID  string          `json:"soireeId"`
	ClientID  string          `json:"clientId"`
	Style     string          `json:"style"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// Decode parses a message body. Unknown fields are ignored and an unreadable
// timestamp is left zero; only a missing soireeId makes the message unusable.
func Decode(body []byte) (GenerationRequest, error) {
	var w wireRequest
	if err := json.Unmarshal(body, &w); err != nil {
		return GenerationRequest{}, errors.Wrap(ErrInvalidMessage, err.Error())
	}
	if w.SoireeID == "" {
		return GenerationRequest{}, errors.Wrap(ErrInvalidMessage, "missing soireeId")
	}
	return GenerationRequest{
		SoireeID:  w.SoireeID,
		ClientID:  w.ClientID,
		Style:     w.Style,
		Timestamp: parseTimestamp(w.Timestamp),
	}, nil
}

// parseTimestamp accepts an RFC 3339 string or epoch milliseconds.
func parseTimestamp(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return time.Time{}
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}
		}
		return t
	}

	var ms json.Number
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}
	}
	if n, err := ms.Int64(); err == nil {
		return time.UnixMilli(n).UTC()
	}
	if f, err := ms.Float64(); err == nil {
		return time.UnixMilli(int64(f)).UTC()
	}
	return time.Time{}
}
