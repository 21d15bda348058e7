package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"seedkeeper/internal/config"
	"seedkeeper/internal/logging"
	"seedkeeper/internal/services"
)

// HTTPDoer describes the HTTP client used by the tracker client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Torrent is the fixed-shape view of one /torrents/info record.
type Torrent struct {
	Hash         string `json:"hash"`
	Name         string `json:"name"`
	ContentPath  string `json:"content_path"`
	CompletionOn int64  `json:"completion_on"`
	Uploaded     int64  `json:"uploaded"`
	Size         int64  `json:"size"`
}

// Completed reports whether the tracker has recorded a completion time.
func (t Torrent) Completed() bool { return t.CompletionOn > 0 }

// CompletedAt returns the completion time.
func (t Torrent) CompletedAt() time.Time { return time.Unix(t.CompletionOn, 0) }

// Client is a qBittorrent WebUI API client.
type Client struct {
	baseURL      string
	client       HTTPDoer
	timeout      time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (tests inject httptest clients).
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// WithTimeout bounds every individual request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithPollInterval sets how often WaitReady probes the API.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New constructs a client for the API rooted at baseURL (".../api/v2").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:       http.DefaultClient,
		timeout:      10 * time.Second,
		pollInterval: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "tracker")
	return c
}

// NewFromConfig builds a client from the tracker section of cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	base := []Option{WithLogger(logger)}
	if cfg != nil {
		base = append(base, WithTimeout(cfg.TrackerTimeout()))
		return New(cfg.Tracker.URL, append(base, opts...)...)
	}
	return New("", append(base, opts...)...)
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// rawTorrent mirrors Torrent with pointers so missing fields can be detected.
type rawTorrent struct {
	Hash         *string `json:"hash"`
	Name         string  `json:"name"`
	ContentPath  *string `json:"content_path"`
	CompletionOn *int64  `json:"completion_on"`
	Uploaded     *int64  `json:"uploaded"`
	Size         *int64  `json:"size"`
}

// List fetches every torrent the tracker knows about. A response that cannot
// be decoded, or any record missing a required field, fails the whole fetch so
// callers never act on a partial snapshot.
func (c *Client) List(ctx context.Context) ([]Torrent, error) {
	resp, err := c.do(ctx, http.MethodGet, "/torrents/info", nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "tracker", "list torrents", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrTransient, "tracker", "list torrents", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var raw []rawTorrent
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&raw); err != nil {
		return nil, services.Wrap(services.ErrMalformed, "tracker", "list torrents", "decode response", err)
	}
	// A JSON null decodes into a nil slice; only [] is an empty listing.
	if raw == nil {
		return nil, services.Wrap(services.ErrMalformed, "tracker", "list torrents", "response is not an array", nil)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, services.Wrap(services.ErrMalformed, "tracker", "list torrents", "trailing data after array", err)
	}
	torrents := make([]Torrent, 0, len(raw))
	for i, r := range raw {
		if r.Hash == nil || r.ContentPath == nil || r.CompletionOn == nil || r.Uploaded == nil || r.Size == nil {
			return nil, services.Wrap(services.ErrMalformed, "tracker", "list torrents", fmt.Sprintf("record %d missing required field", i), nil)
		}
		torrents = append(torrents, Torrent{
			Hash:         *r.Hash,
			Name:         r.Name,
			ContentPath:  *r.ContentPath,
			CompletionOn: *r.CompletionOn,
			Uploaded:     *r.Uploaded,
			Size:         *r.Size,
		})
	}
	return torrents, nil
}

// Remove unregisters a torrent while leaving its files on disk.
func (c *Client) Remove(ctx context.Context, hash string) error {
	form := url.Values{}
	form.Set("hashes", hash)
	form.Set("deleteFiles", "false")
	resp, err := c.do(ctx, http.MethodPost, "/torrents/delete", form)
	if err != nil {
		return services.Wrap(services.ErrTransient, "tracker", "remove torrent", hash, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrTransient, "tracker", "remove torrent", fmt.Sprintf("%s: status %d", hash, resp.StatusCode), nil)
	}
	return nil
}

// Version returns the qBittorrent application version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/app/version", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("app version returned %d", resp.StatusCode)
	}
	return strings.TrimSpace(string(body)), nil
}

// WaitReady polls /app/version until it answers or timeout elapses.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		if version, err := c.Version(ctx); err == nil {
			c.logger.Debug("tracker ready", logging.String("version", version))
			return nil
		}
		select {
		case <-ctx.Done():
			return services.Wrap(services.ErrTransient, "tracker", "wait ready",
				fmt.Sprintf("API not ready after %s", timeout), ctx.Err())
		case <-ticker.C:
		}
	}
}

// EnsureCategory creates category name with savePath, or updates it when it
// already exists. A 409 from both endpoints means the category is already
// configured as requested.
func (c *Client) EnsureCategory(ctx context.Context, name, savePath string) error {
	form := url.Values{}
	form.Set("category", name)
	form.Set("savePath", savePath)

	seenConflict := false
	var lastErr error
	for _, endpoint := range []string{"/torrents/createCategory", "/torrents/editCategory"} {
		resp, err := c.do(ctx, http.MethodPost, endpoint, form)
		if err != nil {
			lastErr = err
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusConflict:
			seenConflict = true
		case resp.StatusCode >= http.StatusMultipleChoices:
			return services.Wrap(services.ErrExternalTool, "tracker", "ensure category",
				fmt.Sprintf("%s: %s returned %d", name, endpoint, resp.StatusCode), nil)
		default:
			return nil
		}
	}
	if seenConflict {
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("no endpoint accepted the request")
	}
	return services.Wrap(services.ErrTransient, "tracker", "ensure category", name, lastErr)
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tracker", "request", "tracker.url is not set", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// FindByContentPath returns the torrent whose content path equals path.
func FindByContentPath(torrents []Torrent, path string) (Torrent, bool) {
	for _, t := range torrents {
		if t.ContentPath == path {
			return t, true
		}
	}
	return Torrent{}, false
}
