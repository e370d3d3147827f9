// Package client is the Go SDK for the emulator service. It mirrors the
// HTTP API one method per route: upload datasets, train emulators, poll
// training, request predictions, and clean up.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *lru.Cache[string, []byte]

	Datasets  *DatasetsAPI
	Emulators *EmulatorsAPI
}

type Option func(*Client)

// WithAPIKey sends the key as X-API-Key on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithTimeout bounds each HTTP call. Ignored after WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient swaps the underlying client, for custom transports.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache adds an LRU read cache over summary and view responses. Entries
// are dropped when this client mutates the resource; other writers are not
// observed, so keep it to read-mostly workloads.
func WithCache(size int) Option {
	return func(c *Client) {
		if size < 1 {
			size = 128
		}
		cache, _ := lru.New[string, []byte](size)
		c.cache = cache
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Datasets = &DatasetsAPI{client: c}
	c.Emulators = &EmulatorsAPI{client: c}
	return c
}

// do runs one request. out may be nil (response discarded), *[]byte (raw
// body) or a JSON target. Non-2xx responses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader, out interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	switch target := out.(type) {
	case nil:
		_, _ = io.Copy(io.Discard, resp.Body)
	case *[]byte:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		*target = data
	default:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// cachedGet serves raw bytes from the cache when enabled, fetching and
// filling on a miss.
func (c *Client) cachedGet(ctx context.Context, key, path string) ([]byte, error) {
	if c.cache != nil {
		if data, ok := c.cache.Get(key); ok {
			return data, nil
		}
	}

	var data []byte
	if err := c.do(ctx, http.MethodGet, path, nil, "", nil, &data); err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Add(key, data)
	}
	return data, nil
}

func (c *Client) invalidate(keys ...string) {
	if c.cache == nil {
		return
	}
	for _, key := range keys {
		c.cache.Remove(key)
	}
}
