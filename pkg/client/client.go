package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/matzehuels/kgview/pkg/cache"
	"github.com/matzehuels/kgview/pkg/errors"
	"github.com/matzehuels/kgview/pkg/graph"
	"github.com/matzehuels/kgview/pkg/observability"
	"github.com/matzehuels/kgview/pkg/pipeline"
	"github.com/matzehuels/kgview/pkg/view"
)

// ViewPath is the preparation endpoint, relative to the base URL.
const ViewPath = "/api/graph/view"

const httpTimeout = 10 * time.Second

// Client talks to a kgview API and builds locally when it cannot.
type Client struct {
	// BaseURL of the API. Empty means always build locally.
	BaseURL string

	// Backoff controls retries of network errors and 5xx responses.
	Backoff cache.Backoff

	http   *http.Client
	runner *pipeline.Runner
}

// Prepared is a view model ready for display, plus the sanitized payload
// it was derived from.
type Prepared struct {
	View  *view.Result
	Graph any

	// Remote reports whether the view came from the API.
	Remote bool

	// RemoteErr is the reason the API was not used, if it was tried.
	RemoteErr error
}

// NewHTTPClient creates an HTTP client with the standard request timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// New creates a Client for baseURL. Local builds go through runner, which
// may be nil for an uncached runner.
func New(baseURL string, runner *pipeline.Runner) *Client {
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, nil)
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Backoff: cache.DefaultBackoff,
		http:    NewHTTPClient(),
		runner:  runner,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// Prepare turns raw into a view model. See the package documentation for
// the order in which sources are tried.
func (c *Client) Prepare(ctx context.Context, raw any, opts pipeline.Options) (*Prepared, error) {
	if graph.IsViewModel(raw) {
		return &Prepared{View: &view.Result{Prebuilt: raw}, Graph: raw}, nil
	}

	sanitized := graph.SanitizeForBackend(raw)

	var remoteErr error
	if c.BaseURL != "" {
		p, err := c.fetchView(ctx, sanitized, opts.Locale)
		if err == nil {
			return p, nil
		}
		remoteErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	built, err := c.runner.Build(ctx, raw, opts)
	if err != nil {
		return nil, err
	}
	return &Prepared{View: built.View, Graph: sanitized, RemoteErr: remoteErr}, nil
}

type viewResponse struct {
	View  json.RawMessage `json:"view"`
	Graph json.RawMessage `json:"graph"`
}

type errorBody struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// fetchView asks the API for a view. A non-empty locale is forwarded so the
// server orders labels the same way a local build would.
func (c *Client) fetchView(ctx context.Context, sanitized any, locale string) (*Prepared, error) {
	body, err := graph.MarshalCompact(sanitized)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "encode payload")
	}

	endpoint := c.BaseURL + ViewPath
	if locale != "" {
		endpoint += "?" + url.Values{"locale": {locale}}.Encode()
	}

	var data []byte
	err = cache.RetryWithBackoffN(ctx, c.Backoff, func() error {
		var err error
		data, err = c.post(ctx, endpoint, body)
		return err
	})
	if err != nil {
		return nil, err
	}

	var resp viewResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "decode response")
	}
	if len(resp.View) == 0 || string(resp.View) == "null" {
		return nil, errors.New(errors.ErrCodeNetwork, "response has no view")
	}

	var vm view.ViewModel
	if err := json.Unmarshal(resp.View, &vm); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "decode view")
	}

	p := &Prepared{View: &view.Result{View: &vm}, Graph: sanitized, Remote: true}
	if len(resp.Graph) > 0 && string(resp.Graph) != "null" {
		if g, err := graph.Unmarshal(resp.Graph); err == nil {
			p.Graph = g
		}
	}
	return p, nil
}

func (c *Client) post(ctx context.Context, rawURL string, body []byte) ([]byte, error) {
	host, path := splitURL(rawURL)
	hooks := observability.HTTP()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	hooks.OnRequest(ctx, http.MethodPost, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodPost, host, path, err)
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "%s", cache.ErrNetwork))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodPost, host, path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read response"))
	}
	if err := checkStatus(resp.StatusCode, data); err != nil {
		return nil, err
	}
	return data, nil
}

func checkStatus(code int, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 500:
		return cache.Retryable(errors.New(errors.ErrCodeNetwork, "%s: status %d", cache.ErrNetwork, code))
	}

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Detail != "" {
		return errors.New(errors.Code(orDefault(eb.Code, string(errors.ErrCodeNetwork))), "%s", eb.Detail)
	}
	return errors.New(errors.ErrCodeNetwork, "%s: status %d", cache.ErrNetwork, code)
}

func splitURL(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.Path
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// String describes the source of a prepared view.
func (p *Prepared) String() string {
	switch {
	case p.View.IsPrebuilt():
		return "pre-built"
	case p.Remote:
		return "remote"
	case p.RemoteErr != nil:
		return fmt.Sprintf("local (remote failed: %v)", p.RemoteErr)
	default:
		return "local"
	}
}
