package playlist

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mitchfriedman/soirees/lib/remote"
)

// Client talks to the playlists service over HTTP.
type Client struct {
	r *remote.Client
}

func NewClient(service string, resolver remote.Resolver, httpClient *http.Client) *Client {
	return &Client{r: remote.New(service, resolver, httpClient)}
}

// Create stores p through the service and returns the stored playlist,
// including the identifier the service assigned.
func (c *Client) Create(ctx context.Context, p *Playlist) (*Playlist, error) {
	var created Playlist
	if err := c.r.Do(ctx, http.MethodPost, "/api/playlists", p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ListByEvent(ctx context.Context, eventID string) ([]*Playlist, error) {
	var found []*Playlist
	path := "/api/playlists?eventId=" + url.QueryEscape(eventID)
	if err := c.r.Do(ctx, http.MethodGet, path, nil, &found); err != nil {
		return nil, err
	}
	return found, nil
}
