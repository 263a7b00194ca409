package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/netviz/netviz/pkg/types"
	"github.com/netviz/netviz/server/internal/config"
)

// Result summarizes one Fetch call.
type Result struct {
	// Written lists endpoints whose file was replaced, in fetch order.
	Written []string
	// Failed maps endpoint name to the reason it was skipped.
	Failed map[string]error
}

// Client downloads PeeringDB data. It builds the HTTP client once and reuses
// it across Fetch calls.
type Client struct {
	cfg    config.FetchConfig
	client *http.Client
}

// New returns a Client for cfg. The API key, when configured, is sent with
// every request as "Authorization: Api-Key <key>".
func New(cfg config.FetchConfig) *Client {
	key := cfg.APIKey()
	if key != "" {
		slog.Info("fetch: PeeringDB API key found, using it", "key_env", cfg.KeyEnv)
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Transport: &headerRoundTripper{
				base:      http.DefaultTransport,
				userAgent: cfg.UserAgent,
				apiKey:    key,
			},
			Timeout: cfg.Timeout,
		},
	}
}

// headerRoundTripper injects the user agent and credential into every request.
type headerRoundTripper struct {
	base      http.RoundTripper
	userAgent string
	apiKey    string
}

func (t *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Api-Key "+t.apiKey)
	}
	return t.base.RoundTrip(req)
}

// Fetch downloads the index and its endpoints into the data directory.
// The returned error wraps types.ErrIO when the directory cannot be created
// and types.ErrUpstream when the index or the dataset endpoint fails.
func (c *Client) Fetch(ctx context.Context) (*Result, error) {
	res := &Result{Failed: make(map[string]error)}

	if err := os.MkdirAll(c.cfg.DataDir, 0o755); err != nil {
		return res, fmt.Errorf("fetch: create %q: %w: %w", c.cfg.DataDir, types.ErrIO, err)
	}

	slog.Info("fetch: fetching API index", "url", c.cfg.BaseURL)
	endpoints, err := c.index(ctx)
	if err != nil {
		return res, fmt.Errorf("fetch: index: %w: %w", types.ErrUpstream, err)
	}

	names := c.selected(endpoints)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("fetch: %w: %w", types.ErrUpstream, err)
		}
		url := endpoints[name]
		slog.Info("fetch: fetching endpoint", "endpoint", name, "url", url)
		path := filepath.Join(c.cfg.DataDir, name+".json")
		if err := c.download(ctx, url, path); err != nil {
			slog.Error("fetch: endpoint failed", "endpoint", name, "url", url, "err", err)
			res.Failed[name] = err
			continue
		}
		slog.Info("fetch: saved endpoint", "endpoint", name, "path", path)
		res.Written = append(res.Written, name)
	}

	if _, ok := endpoints[c.cfg.Dataset]; !ok {
		return res, fmt.Errorf("fetch: %w: dataset %q not listed in API index", types.ErrUpstream, c.cfg.Dataset)
	}
	if err, ok := res.Failed[c.cfg.Dataset]; ok {
		return res, fmt.Errorf("fetch: dataset %q: %w: %w", c.cfg.Dataset, types.ErrUpstream, err)
	}
	return res, nil
}

// index returns endpoint name → URL from the API index document, shaped
// {"data": [{"net": "https://...", "ix": "https://...", ...}]}.
func (c *Client) index(ctx context.Context) (map[string]string, error) {
	body, err := c.get(ctx, c.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Data []map[string]any `json:"data"`
	}
	if err := jsoniter.ConfigFastest.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if len(doc.Data) == 0 {
		return nil, fmt.Errorf("invalid API index format: empty data")
	}
	out := make(map[string]string, len(doc.Data[0]))
	for name, v := range doc.Data[0] {
		if !validName(name) {
			slog.Warn("fetch: invalid endpoint name, skipping", "endpoint", name)
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			slog.Warn("fetch: invalid endpoint URL, skipping", "endpoint", name)
			continue
		}
		out[name] = s
	}
	return out, nil
}

// validName reports whether name can be used as a file name inside the data
// directory.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "..") {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}

// selected returns the endpoint names to download, sorted, honouring the
// configured subset.
func (c *Client) selected(endpoints map[string]string) []string {
	names := make([]string, 0, len(endpoints))
	if len(c.cfg.Endpoints) == 0 {
		for name := range endpoints {
			names = append(names, name)
		}
	} else {
		for _, name := range c.cfg.Endpoints {
			if _, ok := endpoints[name]; ok {
				names = append(names, name)
			} else {
				slog.Warn("fetch: configured endpoint not in API index", "endpoint", name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func (c *Client) download(ctx context.Context, url, path string) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if !jsoniter.ConfigFastest.Valid(body) {
		return fmt.Errorf("%w: response is not valid JSON", types.ErrParse)
	}
	if err := writeAtomic(path, body); err != nil {
		return fmt.Errorf("%w: %w", types.ErrIO, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// writeAtomic replaces path with data via a temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
