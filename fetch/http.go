package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
)

// HTTP serves blobs from a base URL; a blob name is resolved relative to
// the base path.
type HTTP struct {
	base   *url.URL
	client *http.Client
}

// NewHTTP creates an HTTP store. client may be nil for
// http.DefaultClient.
func NewHTTP(base string, client *http.Client) (*HTTP, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{base: u, client: client}, nil
}

// Open issues a GET for the named blob.
func (h *HTTP) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	u := *h.base
	u.Path = path.Join(u.Path, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", name, resp.Status)
	}
	return resp.Body, nil
}
