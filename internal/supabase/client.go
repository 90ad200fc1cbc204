package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	authPath = "/auth/v1"
	restPath = "/rest/v1"

	defaultHTTPTimeout = 30 * time.Second
	maxResponseBytes   = 16 << 20
)

// Config configures a Client.
type Config struct {
	URL     string
	AnonKey string
	// SessionStore persists the session; nil keeps it in process memory only.
	SessionStore SessionStore
	HTTPTimeout  time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to one Supabase project on behalf of one signed-in user.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	store   SessionStore
	log     *zap.Logger
	now     func() time.Time

	// restoreMu guards the one-time load from the session store.
	restoreMu sync.Mutex
	mu        sync.Mutex
	session   *Session
	restored  bool

	// refreshMu serializes token refreshes so concurrent callers share one.
	refreshMu sync.Mutex

	listeners listenerSet
}

// New builds a client. It returns ErrNotConfigured when either the URL or
// the anon key is empty; callers treat that as "backend disabled".
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	anonKey := strings.TrimSpace(cfg.AnonKey)
	if baseURL == "" || anonKey == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid supabase URL %q: %w", baseURL, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		http:    httpClient,
		store:   cfg.SessionStore,
		log:     logger.Named("supabase"),
		now:     time.Now,
	}, nil
}

// URL returns the project URL the client was built with.
func (c *Client) URL() string { return c.baseURL }

// newRequest builds a request against the project. bearer is the token for
// the Authorization header; the anon key is used when it is empty.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body interface{}, bearer string) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = &buf
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends req and decodes a 2xx JSON body into out (when out is non-nil).
func (c *Client) do(req *http.Request, out interface{}) error {
	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", req.URL.Path, err)
	}

	c.log.Debug("supabase request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", c.now().Sub(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
