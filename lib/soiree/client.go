package soiree

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mitchfriedman/soirees/lib/remote"
)

// Client talks to the soirees service over HTTP.
type Client struct {
	r *remote.Client
}

func NewClient(service string, resolver remote.Resolver, httpClient *http.Client) *Client {
	return &Client{r: remote.New(service, resolver, httpClient)}
}

// LinkPlaylist records playlistID on the soiree. Any non-2xx answer is
// returned as a *remote.StatusError.
func (c *Client) LinkPlaylist(ctx context.Context, soireeID, playlistID string) (*Soiree, error) {
	var updated Soiree
	path := "/api/soirees/" + url.PathEscape(soireeID)
	if err := c.r.Do(ctx, http.MethodPut, path, LinkPatch(playlistID), &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
