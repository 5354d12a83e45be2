// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// MaxPayloadSize bounds how much of a payload response is read.
const MaxPayloadSize = 8 << 20

// Fetcher retrieves the source of a script.
type Fetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// =============================================================================
// HTTP
// =============================================================================

// HTTPFetcher fetches scripts over HTTP(S). Relative sources resolve
// against BaseURL.
type HTTPFetcher struct {
	Client  *http.Client
	BaseURL *url.URL
}

// NewHTTPFetcher creates a fetcher rooted at baseURL (may be empty when
// every source is absolute).
func NewHTTPFetcher(baseURL string, timeout time.Duration) (*HTTPFetcher, error) {
	f := &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("base URL %q must be http or https", baseURL)
		}
		f.BaseURL = u
	}
	return f, nil
}

// Fetch GETs src and returns the body. Non-2xx responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	ref, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid script source %q: %w", src, err)
	}
	if !ref.IsAbs() {
		if f.BaseURL == nil {
			return nil, fmt.Errorf("relative script source %q needs a base URL", src)
		}
		ref = f.BaseURL.ResolveReference(ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.String(), nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: %s", ref.Redacted(), resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, MaxPayloadSize))
}

// =============================================================================
// SITE DIRECTORY
// =============================================================================

// DirFetcher reads scripts from a static site directory.
type DirFetcher struct {
	fsys fs.FS
}

// NewDirFetcher serves scripts from root.
func NewDirFetcher(root string) *DirFetcher {
	return &DirFetcher{fsys: os.DirFS(root)}
}

// NewFSFetcher serves scripts from an arbitrary fs.FS.
func NewFSFetcher(fsys fs.FS) *DirFetcher {
	return &DirFetcher{fsys: fsys}
}

// Fetch reads src relative to the site root. Paths escaping the root are
// rejected.
func (d *DirFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(src, "file://")), "/")
	if !fs.ValidPath(name) || name == "." {
		return nil, fmt.Errorf("invalid script path %q", src)
	}
	return fs.ReadFile(d.fsys, name)
}

// =============================================================================
// DISPATCH
// =============================================================================

// SourceFetcher sends absolute http(s) sources, and relative sources when a
// base URL is configured, to HTTP; everything else is read from the site
// directory.
type SourceFetcher struct {
	HTTP *HTTPFetcher
	Dir  *DirFetcher
}

// Fetch dispatches src to the matching fetcher.
func (s *SourceFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	lower := strings.ToLower(src)
	isHTTP := strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")

	switch {
	case isHTTP && s.HTTP != nil:
		return s.HTTP.Fetch(ctx, src)
	case !isHTTP && s.HTTP != nil && s.HTTP.BaseURL != nil:
		return s.HTTP.Fetch(ctx, src)
	case !isHTTP && s.Dir != nil:
		return s.Dir.Fetch(ctx, src)
	default:
		return nil, errors.New("no fetcher configured for " + src)
	}
}
