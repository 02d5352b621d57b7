package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/kgview/pkg/cache"
	"github.com/matzehuels/kgview/pkg/errors"
	"github.com/matzehuels/kgview/pkg/graph"
	"github.com/matzehuels/kgview/pkg/pipeline"
)

const payload = `{
  "entities": ["A", "B"],
  "relations": [["A", "knows", "B"]],
  "entityClusters": [{"id": "A", "members": ["B"]}]
}`

const remoteView = `{
  "view": {"nodes": [{"id": "remote", "label": "remote"}], "edges": [], "stats": {"entityCount": 1}},
  "graph": {"entities": ["remote"]}
}`

var fastBackoff = cache.Backoff{Attempts: 3, Delay: time.Millisecond}

func decode(t *testing.T, s string) any {
	t.Helper()
	v, err := graph.Unmarshal([]byte(s))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return v
}

func newClient(url string) *Client {
	c := New(url, nil)
	c.Backoff = fastBackoff
	return c
}

func TestPrepareRemote(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != ViewPath {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, remoteView)
	}))
	defer srv.Close()

	p, err := newClient(srv.URL+"/").Prepare(context.Background(), decode(t, payload), pipeline.Options{})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !p.Remote || p.RemoteErr != nil {
		t.Errorf("Remote = %v, RemoteErr = %v", p.Remote, p.RemoteErr)
	}
	if got := p.View.View.Nodes[0].ID; got != "remote" {
		t.Errorf("node = %s, want remote", got)
	}
	if !strings.Contains(body, `"entity_clusters":{"A":["B"]}`) {
		t.Errorf("request body not sanitized: %s", body)
	}
	if !strings.Contains(body, `"entityClusters":{"A":["B"]}`) {
		t.Errorf("alternate spelling not rewritten: %s", body)
	}
	if p.String() != "remote" {
		t.Errorf("String() = %q", p.String())
	}
}

func TestPrepareForwardsLocale(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"", ""},
		{"tr-TR", "locale=tr-TR"},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			var query, body string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				query = r.URL.RawQuery
				data, _ := io.ReadAll(r.Body)
				body = string(data)
				io.WriteString(w, remoteView)
			}))
			defer srv.Close()

			c := newClient(srv.URL).WithHTTPClient(srv.Client())
			raw := decode(t, `{"entities": ["a<b & c"], "relations": []}`)
			if _, err := c.Prepare(context.Background(), raw, pipeline.Options{Locale: tt.locale}); err != nil {
				t.Fatalf("Prepare: %v", err)
			}
			if query != tt.want {
				t.Errorf("query = %q, want %q", query, tt.want)
			}
			if !strings.Contains(body, `"a<b & c"`) {
				t.Errorf("request body escaped: %s", body)
			}
		})
	}
}

func TestPrepareRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		io.WriteString(w, remoteView)
	}))
	defer srv.Close()

	p, err := newClient(srv.URL).Prepare(context.Background(), decode(t, payload), pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !p.Remote {
		t.Errorf("expected remote view after retries, got %v", p.RemoteErr)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestPrepareFallsBackOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail": "bad graph", "code": "INVALID_PAYLOAD"}`)
	}))
	defer srv.Close()

	p, err := newClient(srv.URL).Prepare(context.Background(), decode(t, payload), pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if p.Remote {
		t.Error("expected local fallback")
	}
	if !errors.Is(p.RemoteErr, errors.ErrCodeInvalidPayload) {
		t.Errorf("RemoteErr = %v", p.RemoteErr)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("4xx should not be retried, calls = %d", n)
	}
	if len(p.View.View.Nodes) != 2 {
		t.Errorf("local build nodes = %d, want 2", len(p.View.View.Nodes))
	}
}

func TestPrepareFallsBackWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p, err := newClient(url).Prepare(context.Background(), decode(t, payload), pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if p.Remote || !errors.Is(p.RemoteErr, errors.ErrCodeNetwork) {
		t.Errorf("Remote = %v, RemoteErr = %v", p.Remote, p.RemoteErr)
	}
	if !cache.IsRetryable(p.RemoteErr) {
		t.Error("connection errors should be retryable")
	}
}

func TestPrepareLocalOnly(t *testing.T) {
	p, err := New("", nil).Prepare(context.Background(), decode(t, payload), pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if p.Remote || p.RemoteErr != nil {
		t.Errorf("Remote = %v, RemoteErr = %v", p.Remote, p.RemoteErr)
	}
	if p.String() != "local" {
		t.Errorf("String() = %q", p.String())
	}
	g, ok := p.Graph.(*graph.Object)
	if !ok || !g.Has("entity_clusters") {
		t.Errorf("Graph = %#v, want sanitized object", p.Graph)
	}
}

func TestPreparePrebuiltSkipsServer(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	raw := decode(t, `{"nodes": [], "edges": [], "stats": {"entityCount": 0}}`)
	p, err := newClient(srv.URL).Prepare(context.Background(), raw, pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !p.View.IsPrebuilt() || p.View.Prebuilt != raw {
		t.Error("expected the payload to pass through unchanged")
	}
	if calls.Load() != 0 {
		t.Error("server should not be called for a pre-built payload")
	}
}

func TestPrepareInvalidPayload(t *testing.T) {
	_, err := New("", nil).Prepare(context.Background(), decode(t, `"text"`), pipeline.Options{})
	if !errors.Is(err, errors.ErrCodeInvalidPayload) {
		t.Errorf("err = %v, want INVALID_PAYLOAD", err)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		code      int
		body      string
		wantErr   bool
		retryable bool
		wantCode  errors.Code
	}{
		{200, "", false, false, ""},
		{204, "", false, false, ""},
		{500, "", true, true, errors.ErrCodeNetwork},
		{503, "", true, true, errors.ErrCodeNetwork},
		{404, "", true, false, errors.ErrCodeNetwork},
		{404, `{"detail": "missing", "code": "NOT_FOUND"}`, true, false, errors.ErrCodeNotFound},
		{400, `{"detail": "bad"}`, true, false, errors.ErrCodeNetwork},
	}

	for _, tt := range tests {
		err := checkStatus(tt.code, []byte(tt.body))
		if (err != nil) != tt.wantErr {
			t.Errorf("checkStatus(%d) = %v", tt.code, err)
			continue
		}
		if err == nil {
			continue
		}
		if cache.IsRetryable(err) != tt.retryable {
			t.Errorf("checkStatus(%d) retryable = %v", tt.code, !tt.retryable)
		}
		if got := errors.GetCode(err); got != tt.wantCode {
			t.Errorf("checkStatus(%d) code = %s, want %s", tt.code, got, tt.wantCode)
		}
	}
}
