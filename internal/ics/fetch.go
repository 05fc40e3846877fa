// Package ics merges external calendar subscriptions into the today and
// calendar views, the self-hosted counterpart of reading the device
// calendar. Feeds are fetched with conditional requests and expanded into
// occurrences inside a display window.
package ics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	appLog "fitcal/internal/log"
)

// Source is one subscribed ICS feed.
type Source struct {
	ID  string
	URL string
}

// feedCache keeps the validators and last body of one URL so unchanged
// feeds cost a 304 and network failures can fall back to the last body.
type feedCache struct {
	etag         string
	lastModified string
	body         []byte
	fetchedAt    time.Time
}

// Fetcher downloads ICS feeds with ETag/Last-Modified revalidation and an
// in-memory body cache.
type Fetcher struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]*feedCache
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		cache:  map[string]*feedCache{},
	}
}

// FetchAll fetches every source; failures are logged per source and the
// remaining feeds still load.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) map[string][]byte {
	bodies := make(map[string][]byte, len(sources))
	for _, src := range sources {
		body, err := f.fetchOne(ctx, src)
		if err != nil {
			appLog.Error("ics fetch failed", err, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		bodies[src.ID] = body
	}
	return bodies
}

func (f *Fetcher) fetchOne(ctx context.Context, src Source) ([]byte, error) {
	if src.URL == "" {
		return nil, errors.New("source URL is empty")
	}

	f.mu.Lock()
	cached := f.cache[src.URL]
	f.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if cached != nil && len(cached.body) > 0 {
			appLog.Warn("ics fetch network error, using cached body", "id", src.ID)
			return cached.body, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.cache[src.URL] = &feedCache{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
			fetchedAt:    time.Now(),
		}
		f.mu.Unlock()
		return body, nil

	case http.StatusNotModified:
		if cached == nil || len(cached.body) == 0 {
			return nil, errors.New("304 Not Modified with no cached body")
		}
		return cached.body, nil

	default:
		if cached != nil && len(cached.body) > 0 {
			appLog.Warn("ics fetch non-OK, using cached body", "id", src.ID, "status", resp.StatusCode)
			return cached.body, nil
		}
		return nil, errors.New(resp.Status)
	}
}

// redactURL trims an ICS URL to its host for logging; feed URLs often embed
// private tokens.
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i < 0 {
		return "ics://...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	if j := strings.LastIndexByte(rest, '@'); j >= 0 {
		rest = rest[j+1:]
	}
	return u[:i+3] + rest + "/...(redacted)"
}
