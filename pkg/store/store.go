// Package store persists graph snapshots: the original payload as uploaded,
// its view model and summary statistics.
//
// Implementations:
//   - memory: in-process storage for development and tests
//   - file: one JSON document per snapshot, for the CLI and single-node servers
//   - mongo: MongoDB-backed storage for multi-instance deployments
//
// Payloads are stored as JSON text so the key order of the upload survives
// a round trip through every backend.
//
// # Usage
//
//	snap, err := store.NewSnapshot("Marie Curie", raw, built.View)
//	if err != nil {
//	    return err
//	}
//	if err := s.Save(ctx, snap); err != nil {
//	    return err
//	}
//	snap, err = s.Get(ctx, snap.ID)
package store

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/matzehuels/kgview/pkg/errors"
	"github.com/matzehuels/kgview/pkg/graph"
	"github.com/matzehuels/kgview/pkg/view"
)

// DefaultListLimit caps [Store.List] when no limit is given.
const DefaultListLimit = 100

// Snapshot is a stored graph.
type Snapshot struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	CreatedAt time.Time       `json:"created_at"`
	Graph     json.RawMessage `json:"graph"`
	View      json.RawMessage `json:"view"`
	Stats     view.Stats      `json:"stats"`
}

// Summary is the listing form of a snapshot, without payloads.
type Summary struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	Stats     view.Stats `json:"stats"`
}

// Summary returns the listing form of s.
func (s *Snapshot) Summary() Summary {
	return Summary{ID: s.ID, Title: s.Title, CreatedAt: s.CreatedAt, Stats: s.Stats}
}

// Store is the interface for snapshot storage backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a snapshot. A snapshot with an existing ID is replaced.
	Save(ctx context.Context, snap *Snapshot) error

	// Get retrieves a snapshot by ID. Unknown IDs fail with NOT_FOUND.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// List returns up to limit summaries, newest first.
	// A limit of zero or less means DefaultListLimit.
	List(ctx context.Context, limit int) ([]Summary, error)

	Close() error
}

// NewSnapshot creates a snapshot of raw and its view with a fresh ID.
// An empty title defaults to "Untitled graph".
func NewSnapshot(title string, raw any, res *view.Result) (*Snapshot, error) {
	payload, err := graph.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "encode graph")
	}
	vm, err := graph.MarshalCompact(res)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode view")
	}

	snap := &Snapshot{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		Graph:     payload,
		View:      vm,
	}
	if snap.Title == "" {
		snap.Title = "Untitled graph"
	}
	if typed, err := res.ViewModel(); err == nil {
		snap.Stats = typed.Stats
	}
	return snap, nil
}

// ValidateID rejects IDs that are not UUIDs.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New(errors.ErrCodeNotFound, "graph '%s' not found", id)
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "graph '%s' not found", id)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// newestFirst orders summaries by creation time, then ID.
func newestFirst(a, b Summary) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func sortAndLimit(out []Summary, limit int) []Summary {
	slices.SortFunc(out, newestFirst)
	if n := listLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out
}

// Payload decodes the stored payload, preserving key order.
func (s *Snapshot) Payload() (any, error) {
	return graph.Unmarshal(s.Graph)
}
