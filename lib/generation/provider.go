// Package generation obtains playlists from the external provider.
package generation

import (
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/pkg/errors"
)

var ErrProvider = errors.New("provider failure")

// Result is a generated playlist before it is stored.
type Result struct {
	Title  string   `json:"title"`
	Style  string   `json:"style"`
	Tracks []string `json:"tracks"`
}

// Provider fetches one playlist for style.
type Provider interface {
	Fetch(ctx context.Context, style string) (Result, error)
}

// HTTPProvider calls a fixed endpoint with a GET and no parameters. The
// provider picks the content; the requested style labels the result only
// when the provider does not name one.
type HTTPProvider struct {
	url    string
	client *http.Client
}

func NewHTTPProvider(url string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{url: url, client: client}
}

type providerResponse struct {
	Title  string   `json:"title"`
	Style  string   `json:"style"`
	Tracks []string `json:"tracks"`
}

func (p *HTTPProvider) Fetch(ctx context.Context, style string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Result{}, errors.Wrap(err, "failed to build provider request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{}, errors.Wrap(ErrProvider, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(ioutil.Discard, resp.Body)
		return Result{}, errors.Wrapf(ErrProvider, "status %d", resp.StatusCode)
	}

	var body providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, errors.Wrapf(ErrProvider, "malformed response: %v", err)
	}
	if body.Title == "" || len(body.Tracks) == 0 {
		return Result{}, errors.Wrap(ErrProvider, "response without title or tracks")
	}

	if body.Style != "" {
		style = body.Style
	}
	return Result{Title: body.Title, Style: style, Tracks: body.Tracks}, nil
}
