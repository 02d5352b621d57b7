package graph

import (
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/kgview/pkg/errors"
)

func mustNormalize(t *testing.T, s string) *Graph {
	t.Helper()
	p, err := Normalize(mustDecode(t, s))
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if p.IsPrebuilt() {
		t.Fatal("Normalize returned a prebuilt payload")
	}
	return p.Graph
}

func triples(g *Graph) [][]string {
	out := make([][]string, len(g.Relations))
	for i, r := range g.Relations {
		out[i] = []string{r.Subject, r.Predicate, r.Object}
	}
	return out
}

func TestNormalizeInvalidPayload(t *testing.T) {
	inputs := []any{nil, "graph", 42.0, true, []any{"A"}}

	for _, in := range inputs {
		_, err := Normalize(in)
		if !errors.Is(err, errors.ErrCodeInvalidPayload) {
			t.Errorf("Normalize(%#v) error = %v, want %s", in, err, errors.ErrCodeInvalidPayload)
		}
	}
}

func TestNormalizeEntities(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"entities key", `{"entities": ["A", "B"]}`, []string{"A", "B"}},
		{"Nodes key", `{"Nodes": ["A"]}`, []string{"A"}},
		{"nodes key", `{"nodes": ["A"]}`, []string{"A"}},
		{"priority", `{"nodes": ["N"], "Nodes": ["M"], "entities": ["E"]}`, []string{"E"}},
		{"null falls through", `{"entities": null, "Nodes": ["M"]}`, []string{"M"}},
		{"coerced and filtered", `{"entities": ["A", "", null, 7, false, {"x": 1}, ["a", "b"], "A"]}`, []string{"A", "7", "false"}},
		{"object values", `{"entities": {"first": "X", "second": "Y"}}`, []string{"X", "Y"}},
		{"scalar", `{"entities": "Solo"}`, []string{"Solo"}},
		{"missing", `{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustNormalize(t, tt.input)
			if !slices.Equal(g.Entities, tt.want) {
				t.Errorf("Entities = %q, want %q", g.Entities, tt.want)
			}
		})
	}
}

func TestNormalizeRelations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{
			name:  "array entries",
			input: `{"relations": [["A", "knows", "B"], ["B", "likes", "C", "extra"]]}`,
			want:  [][]string{{"A", "knows", "B"}, {"B", "likes", "C"}},
		},
		{
			name:  "object entries",
			input: `{"relations": [{"subject": "A", "predicate": "p", "object": "B"}, {"source": "C", "label": "q", "target": "D"}, {"source": "E", "relation": "r", "target": "F"}]}`,
			want:  [][]string{{"A", "p", "B"}, {"C", "q", "D"}, {"E", "r", "F"}},
		},
		{
			name:  "missing object dropped",
			input: `{"relations": [{"subject": "A", "predicate": "p"}, ["A", "p"], ["A", "knows", "B"]]}`,
			want:  [][]string{{"A", "knows", "B"}},
		},
		{
			name:  "null component dropped",
			input: `{"relations": [["A", null, "B"], {"subject": null, "source": null, "predicate": "p", "object": "B"}]}`,
			want:  nil,
		},
		{
			name:  "null subject falls back to source",
			input: `{"relations": [{"subject": null, "source": "S", "predicate": "p", "object": "O"}]}`,
			want:  [][]string{{"S", "p", "O"}},
		},
		{
			// An edge needs both endpoints among the entities, so "" never qualifies.
			name:  "empty endpoints dropped, empty predicate kept",
			input: `{"relations": [["", "p", "B"], ["A", "p", ""], ["A", "", "B"]]}`,
			want:  [][]string{{"A", "", "B"}},
		},
		{
			name:  "scalars coerced",
			input: `{"relations": [[1, true, 2.5]]}`,
			want:  [][]string{{"1", "true", "2.5"}},
		},
		{
			name:  "junk entries skipped",
			input: `{"relations": [null, 0, "text", [["A"], "p", "B"], ["A", "p", "B"]]}`,
			want:  [][]string{{"A", "p", "B"}},
		},
		{
			name:  "Triples key",
			input: `{"Triples": [["A", "p", "B"]]}`,
			want:  [][]string{{"A", "p", "B"}},
		},
		{
			name:  "edges key",
			input: `{"edges": [{"source": "A", "target": "B", "label": "p"}]}`,
			want:  [][]string{{"A", "p", "B"}},
		},
		{
			name:  "priority",
			input: `{"edges": [["X", "x", "Y"]], "relations": [["A", "p", "B"]]}`,
			want:  [][]string{{"A", "p", "B"}},
		},
		{
			name:  "wrapped data",
			input: `{"relations": {"data": [["A", "p", "B"]]}}`,
			want:  [][]string{{"A", "p", "B"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustNormalize(t, tt.input)
			got := triples(g)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Relations = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeKeepsRawValues(t *testing.T) {
	g := mustNormalize(t, `{"relations": [[1, "p", true]]}`)
	if len(g.Relations) != 1 {
		t.Fatalf("got %d relations, want 1", len(g.Relations))
	}
	raw := g.Relations[0].Raw
	if raw[0] != float64(1) || raw[1] != "p" || raw[2] != true {
		t.Errorf("Raw = %#v", raw)
	}
}

func clusterPairs(c *Clusters) [][2]any {
	var out [][2]any
	for _, rep := range c.Representatives() {
		out = append(out, [2]any{rep, c.Members(rep)})
	}
	return out
}

func TestNormalizeClusters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][2]any
	}{
		{
			name:  "plain object",
			input: `{"entity_clusters": {"B": ["B2"], "A": ["A", "A2"]}}`,
			want:  [][2]any{{"B", []string{"B2"}}, {"A", []string{"A", "A2"}}},
		},
		{
			name:  "pairs",
			input: `{"entityClusters": [["A", ["A2"]], ["B", "B2"]]}`,
			want:  [][2]any{{"A", []string{"A2"}}, {"B", []string{"B2"}}},
		},
		{
			name:  "id objects",
			input: `{"entityclusters": [{"id": "A", "members": ["A2", 3]}, {"id": 5, "members": null}]}`,
			want:  [][2]any{{"A", []string{"A2", "3"}}, {"5", []string{}}},
		},
		{
			name:  "objects without id skipped",
			input: `{"entity_clusters": [{"A": ["A2"]}, null, ["", ["x"]], [null, ["y"]]]}`,
			want:  nil,
		},
		{
			name:  "duplicate key replaced in place",
			input: `{"entity_clusters": [["A", ["1"]], ["B", ["2"]], ["A", ["3"]]]}`,
			want:  [][2]any{{"A", []string{"3"}}, {"B", []string{"2"}}},
		},
		{
			name:  "members object values",
			input: `{"entity_clusters": {"A": {"x": "A1", "y": "A2"}}}`,
			want:  [][2]any{{"A", []string{"A1", "A2"}}},
		},
		{
			name:  "spelling priority",
			input: `{"entityClusters": {"X": []}, "entity_clusters": {"A": []}}`,
			want:  [][2]any{{"A", []string{}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustNormalize(t, tt.input)
			got := clusterPairs(g.EntityClusters)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EntityClusters = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeEdgeClusters(t *testing.T) {
	g := mustNormalize(t, `{"edge_clusters": {"knows": ["is acquainted with"]}}`)
	if g.EdgeClusters.Len() != 1 {
		t.Fatalf("EdgeClusters.Len() = %d, want 1", g.EdgeClusters.Len())
	}
	if got := g.EdgeClusters.Members("knows"); !slices.Equal(got, []string{"is acquainted with"}) {
		t.Errorf("Members(knows) = %v", got)
	}
	if g.EntityClusters.Len() != 0 {
		t.Errorf("EntityClusters.Len() = %d, want 0", g.EntityClusters.Len())
	}
}

func TestNormalizeAlternateSpellings(t *testing.T) {
	canonical := mustNormalize(t, `{"entities": ["A", "B"], "relations": [["A", "knows", "B"]]}`)
	alternate := mustNormalize(t, `{"Nodes": ["A", "B"], "Triples": [["A", "knows", "B"]]}`)

	if !reflect.DeepEqual(canonical, alternate) {
		t.Errorf("alternate spelling normalized differently:\n%+v\n%+v", canonical, alternate)
	}
}

func TestNormalizeGraphWrapper(t *testing.T) {
	g := mustNormalize(t, `{"meta": "x", "graph": {"graph": {"entities": ["Deep"]}}}`)
	if !slices.Equal(g.Entities, []string{"Deep"}) {
		t.Errorf("Entities = %v, want [Deep]", g.Entities)
	}

	// A non-object graph field is ignored.
	g = mustNormalize(t, `{"graph": "not an object", "entities": ["Top"]}`)
	if !slices.Equal(g.Entities, []string{"Top"}) {
		t.Errorf("Entities = %v, want [Top]", g.Entities)
	}
}

func TestNormalizePrebuilt(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		prebuilt bool
	}{
		{"top level", `{"nodes": [], "edges": [], "stats": {}}`, true},
		{"inside wrapper", `{"graph": {"nodes": [], "edges": [], "stats": {"entities": 0}}}`, true},
		{"top level wins over wrapper", `{"nodes": [], "edges": [], "stats": {}, "graph": {"entities": ["A"]}}`, true},
		{"missing stats", `{"nodes": ["A"], "edges": []}`, false},
		{"falsy stats", `{"nodes": [], "edges": [], "stats": 0}`, false},
		{"edges not array", `{"nodes": [], "edges": {}, "stats": {}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := mustDecode(t, tt.input)
			p, err := Normalize(raw)
			if err != nil {
				t.Fatalf("Normalize error: %v", err)
			}
			if p.IsPrebuilt() != tt.prebuilt {
				t.Fatalf("IsPrebuilt() = %v, want %v", p.IsPrebuilt(), tt.prebuilt)
			}
			if tt.prebuilt && !IsViewModel(p.Prebuilt) {
				t.Error("Prebuilt should be the view-model object")
			}
		})
	}
}

func TestNormalizePrebuiltUnchanged(t *testing.T) {
	raw := mustDecode(t, `{"nodes": [], "edges": [], "stats": {}, "extra": 1}`)
	p, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if p.Prebuilt != raw {
		t.Error("prebuilt payload should be returned as the same value")
	}
}

func TestNormalizeGoMap(t *testing.T) {
	raw := map[string]any{
		"entities": []string{"A"},
		"relations": [][]string{
			{"A", "p", "B"},
		},
		"entity_clusters": map[string][]string{
			"Z": {"z"},
			"A": {"a"},
		},
	}

	p, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	g := p.Graph
	if !reflect.DeepEqual(triples(g), [][]string{{"A", "p", "B"}}) {
		t.Errorf("Relations = %v", triples(g))
	}
	if got := g.EntityClusters.Representatives(); !slices.Equal(got, []string{"A", "Z"}) {
		t.Errorf("Representatives() = %v, want sorted [A Z]", got)
	}
}
