package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/kgview/pkg/errors"
	"github.com/matzehuels/kgview/pkg/graph"
	"github.com/matzehuels/kgview/pkg/view"
)

func snapshot(t *testing.T, title, payload string) *Snapshot {
	t.Helper()
	raw, err := graph.Unmarshal([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	res, err := view.Build(raw)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := NewSnapshot(title, raw, res)
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestNewSnapshot(t *testing.T) {
	snap := snapshot(t, "  ", `{"relations": [["b", "r", "a"]], "entities": ["c"]}`)

	if _, err := uuid.Parse(snap.ID); err != nil {
		t.Errorf("ID %q is not a uuid", snap.ID)
	}
	if snap.Title != "Untitled graph" {
		t.Errorf("Title = %q", snap.Title)
	}
	if snap.Stats.Entities != 3 || snap.Stats.Relations != 1 {
		t.Errorf("Stats = %+v", snap.Stats)
	}
	if !strings.HasPrefix(string(snap.Graph), "{\n  \"relations\"") {
		t.Errorf("payload key order lost: %s", snap.Graph)
	}

	raw, err := snap.Payload()
	if err != nil {
		t.Fatal(err)
	}
	if keys := raw.(*graph.Object).Keys(); keys[0] != "relations" || keys[1] != "entities" {
		t.Errorf("Payload keys = %v", keys)
	}
}

func TestNewSnapshotPrebuilt(t *testing.T) {
	raw, _ := graph.Unmarshal([]byte(`{"nodes": [], "edges": [], "stats": {"entities": 4, "density": 0.5}}`))
	snap, err := NewSnapshot("pre", raw, &view.Result{Prebuilt: raw})
	if err != nil {
		t.Fatal(err)
	}
	if snap.Stats.Entities != 4 || snap.Stats.Density != 0.5 {
		t.Errorf("Stats = %+v", snap.Stats)
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID(uuid.NewString()); err != nil {
		t.Errorf("ValidateID(uuid) = %v", err)
	}
	for _, id := range []string{"", "abc", "../x"} {
		if err := ValidateID(id); !errors.Is(err, errors.ErrCodeNotFound) {
			t.Errorf("ValidateID(%q) = %v, want NOT_FOUND", id, err)
		}
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	older := snapshot(t, "first", `{"entities": ["a"]}`)
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	newer := snapshot(t, "second", `{"entities": ["a", "b"]}`)

	for _, snap := range []*Snapshot{older, newer} {
		if err := s.Save(ctx, snap); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := s.Get(ctx, older.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "first" || string(got.View) == "" {
		t.Errorf("Get = %+v", got)
	}
	if !got.CreatedAt.Equal(older.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, older.CreatedAt)
	}
	if _, err := got.Payload(); err != nil {
		t.Errorf("Payload: %v", err)
	}

	if _, err := s.Get(ctx, uuid.NewString()); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Get(unknown) = %v, want NOT_FOUND", err)
	}

	list, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Errorf("List = %+v, want newest first", list)
	}
	if list[0].Stats.Entities != 2 {
		t.Errorf("summary stats = %+v", list[0].Stats)
	}

	limited, _ := s.List(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("List(1) returned %d", len(limited))
	}

	older.Title = "renamed"
	if err := s.Save(ctx, older); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get(ctx, older.ID); got.Title != "renamed" {
		t.Errorf("Save did not replace: %q", got.Title)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)

	if err := s.Save(context.Background(), &Snapshot{ID: "../escape"}); err == nil {
		t.Error("Save accepted a non-uuid id")
	}
}

func TestMongoDocConversion(t *testing.T) {
	snap := snapshot(t, "m", `{"relations": [["a", "r", "b"]]}`)
	back := fromDoc(toDoc(snap))
	if back.Stats != snap.Stats || string(back.Graph) != string(snap.Graph) || back.Title != snap.Title {
		t.Errorf("round trip = %+v, want %+v", back, snap)
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("KGVIEW_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("KGVIEW_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, uri, "kgview_test", "graphs_"+strings.ReplaceAll(uuid.NewString(), "-", ""))
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		s.coll.Drop(ctx)
		s.Close()
	}()
	testStore(t, s)
}
