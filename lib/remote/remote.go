// Package remote calls sibling record services whose address is found
// through service discovery.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Resolver turns a logical service name into a base URL.
type Resolver interface {
	Resolve(ctx context.Context, service string) (string, error)
}

// Forgetter is implemented by resolvers that cache addresses. The client
// calls Forget when a request to the resolved address cannot be sent.
type Forgetter interface {
	Forget(service string)
}

// StatusError is returned when the remote service answers with a non-2xx status.
type StatusError struct {
	Method string
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Status)
}

// IsStatus reports whether err is a StatusError with the given status.
func IsStatus(err error, status int) bool {
	se, ok := errors.Cause(err).(*StatusError)
	return ok && se.Status == status
}

type Client struct {
	service  string
	resolver Resolver
	http     *http.Client
}

func New(service string, resolver Resolver, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{service: service, resolver: resolver, http: httpClient}
}

// Do sends in as a JSON body (when non-nil) to path on the resolved service
// and decodes a JSON response into out (when non-nil).
func (c *Client) Do(ctx context.Context, method, path string, in, out interface{}) error {
	base, err := c.resolver.Resolve(ctx, c.service)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve %s", c.service)
	}
	url := strings.TrimRight(base, "/") + path

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return errors.Wrapf(err, "failed to build request %s %s", method, url)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if f, ok := c.resolver.(Forgetter); ok && ctx.Err() == nil {
			f.Forget(c.service)
		}
		return errors.Wrapf(err, "%s %s", method, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(ioutil.Discard, resp.Body)
		return &StatusError{Method: method, URL: url, Status: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	return errors.Wrapf(json.NewDecoder(resp.Body).Decode(out), "failed to decode response of %s %s", method, url)
}
