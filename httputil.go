package carteira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

// memCache is a RoundTripper that caches successful GET bodies in memory for
// a short TTL, so a burst of lookups within one report render hits the
// network once per URL. Entries expire; there is no eviction beyond that,
// the process serves interactive reports and the key space is small.
type memCache struct {
	base http.RoundTripper
	ttl  time.Duration

	mu      sync.Mutex
	entries map[string]memCacheEntry
}

type memCacheEntry struct {
	at     time.Time
	status int
	body   []byte
}

func (c *memCache) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.Method + " " + req.URL.String()

	c.mu.Lock()
	entry, hit := c.entries[key]
	c.mu.Unlock()
	if hit && time.Since(entry.at) < c.ttl {
		return &http.Response{
			StatusCode: entry.status,
			Status:     http.StatusText(entry.status),
			Body:       io.NopCloser(bytes.NewReader(entry.body)),
			Request:    req,
		}, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%s %s%s %s", req.Method, req.URL.Host, req.URL.Path, resp.Status)
	if resp.StatusCode >= 300 {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[key] = memCacheEntry{at: time.Now(), status: resp.StatusCode, body: body}
	c.mu.Unlock()

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// cachedClient returns an http.Client whose GET responses live for ttl.
func cachedClient(ttl time.Duration) *http.Client {
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: &memCache{base: http.DefaultTransport, ttl: ttl, entries: make(map[string]memCacheEntry)},
	}
}

// jwget performs an HTTP GET and unmarshals the JSON response into data.
func jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %s%s: %s", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, data)
}
