package view

import (
	"slices"
	"testing"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"pgregory.net/rapid"

	"github.com/matzehuels/kgview/pkg/collate"
)

var (
	labelPool     = []string{"A", "a", "B", "b", "Émile", "émile", "Zoë", "1", "x y", "😀"}
	predicatePool = []string{"knows", "Knows", "likes", "part of", ""}
)

// payloadGen draws a raw payload with a few entities, relations and
// clusters.
func payloadGen() *rapid.Generator[map[string]any] {
	return rapid.Custom(func(t *rapid.T) map[string]any {
		label := rapid.SampledFrom(labelPool)
		pred := rapid.SampledFrom(predicatePool)

		entities := rapid.SliceOfN(label, 0, 6).Draw(t, "entities")
		ents := make([]any, len(entities))
		for i, e := range entities {
			ents[i] = e
		}

		n := rapid.IntRange(0, 15).Draw(t, "relations")
		rels := make([]any, n)
		for i := range rels {
			rels[i] = []any{label.Draw(t, "s"), pred.Draw(t, "p"), label.Draw(t, "o")}
		}

		clusters := map[string]any{}
		for range rapid.IntRange(0, 3).Draw(t, "clusters") {
			members := rapid.SliceOfN(label, 0, 3).Draw(t, "members")
			ms := make([]any, len(members))
			for i, m := range members {
				ms[i] = m
			}
			clusters[label.Draw(t, "rep")] = ms
		}

		return map[string]any{
			"entities":        ents,
			"relations":       rels,
			"entity_clusters": clusters,
		}
	})
}

func TestPropertyBuild(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := payloadGen().Draw(t, "payload")
		res, err := Build(raw)
		if err != nil {
			t.Fatalf("Build() error: %v", err)
		}
		vm := res.View

		nodes := make(map[string]*Node, len(vm.Nodes))
		for i := range vm.Nodes {
			nodes[vm.Nodes[i].ID] = &vm.Nodes[i]
		}

		// Completeness.
		for _, r := range raw["relations"].([]any) {
			triple := r.([]any)
			for _, end := range []any{triple[0], triple[2]} {
				if nodes[end.(string)] == nil {
					t.Fatalf("relation endpoint %q missing from nodes", end)
				}
			}
		}

		// Degree conservation.
		var in, out int
		for _, n := range vm.Nodes {
			if n.Degree != n.Indegree+n.Outdegree {
				t.Fatalf("node %q degree %d != %d + %d", n.ID, n.Degree, n.Indegree, n.Outdegree)
			}
			if len(n.EdgeIDs.Incoming) != n.Indegree || len(n.EdgeIDs.Outgoing) != n.Outdegree {
				t.Fatalf("node %q edge ids disagree with degrees", n.ID)
			}
			in += n.Indegree
			out += n.Outdegree
		}
		if in != len(vm.Edges) || out != len(vm.Edges) {
			t.Fatalf("sum in=%d out=%d, want %d", in, out, len(vm.Edges))
		}

		// Component partition.
		seen := map[string]int{}
		for _, c := range vm.Components {
			if c.Size != len(c.Members) {
				t.Fatalf("component size %d != %d members", c.Size, len(c.Members))
			}
			for _, m := range c.Members {
				seen[m]++
			}
		}
		if len(seen) != len(vm.Nodes) {
			t.Fatalf("components cover %d entities, want %d", len(seen), len(vm.Nodes))
		}
		for id, count := range seen {
			if count != 1 || nodes[id] == nil {
				t.Fatalf("entity %q appears in %d components", id, count)
			}
		}
		var singletons []string
		for _, c := range vm.Components {
			if c.Size == 1 && nodes[c.Members[0]].Degree == 0 {
				singletons = append(singletons, c.Members[0])
			}
		}
		collate.New(collate.DefaultLocale).Sort(singletons)
		if !slices.Equal(singletons, vm.IsolatedEntities) {
			t.Fatalf("isolated %q, singleton components %q", vm.IsolatedEntities, singletons)
		}

		// Density bounds.
		if vm.Stats.Entities <= 1 && vm.Stats.Density != 0 {
			t.Fatalf("density %v for %d entities", vm.Stats.Density, vm.Stats.Entities)
		}
		if vm.Stats.Density < 0 {
			t.Fatalf("negative density %v", vm.Stats.Density)
		}

		// Rankings.
		if len(vm.TopEntities) > TopN || len(vm.TopRelations) > TopN {
			t.Fatalf("rankings exceed %d", TopN)
		}
		for i := 1; i < len(vm.TopEntities); i++ {
			if vm.TopEntities[i].Degree > vm.TopEntities[i-1].Degree {
				t.Fatalf("TopEntities not sorted by degree")
			}
		}

		// Idempotence.
		again, err := Build(res)
		if err != nil || again != res {
			t.Fatalf("Build(result) did not pass through")
		}
	})
}

func TestPropertyDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := payloadGen().Draw(t, "payload")
		a, err := Build(raw)
		if err != nil {
			t.Fatal(err)
		}
		b, err := Build(raw)
		if err != nil {
			t.Fatal(err)
		}
		ja, _ := a.MarshalJSON()
		jb, _ := b.MarshalJSON()
		if string(ja) != string(jb) {
			t.Fatalf("builds differ:\n%s\n%s", ja, jb)
		}
	})
}

// TestComponentsMatchGonum cross-checks the BFS partition against gonum's
// connected components.
func TestComponentsMatchGonum(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		res, err := Build(payloadGen().Draw(t, "payload"))
		if err != nil {
			t.Fatal(err)
		}
		vm := res.View

		ids := make(map[string]int64, len(vm.Nodes))
		g := simple.NewUndirectedGraph()
		for i, n := range vm.Nodes {
			ids[n.ID] = int64(i)
			g.AddNode(simple.Node(i))
		}
		for _, e := range vm.Edges {
			u, v := ids[e.Source], ids[e.Target]
			if u == v || g.HasEdgeBetween(u, v) {
				continue
			}
			g.SetEdge(g.NewEdge(g.Node(u), g.Node(v)))
		}

		want := map[string]int{}
		for _, cc := range topo.ConnectedComponents(g) {
			want[key(vm, cc)] = len(cc)
		}
		if len(want) != len(vm.Components) {
			t.Fatalf("gonum found %d components, got %d", len(want), len(vm.Components))
		}
		for _, c := range vm.Components {
			if want[keyMembers(c.Members)] != c.Size {
				t.Fatalf("component %q not found by gonum", c.Members)
			}
		}
	})
}

func key(vm *ViewModel, nodes []gonum.Node) string {
	members := make([]string, len(nodes))
	for i, n := range nodes {
		members[i] = vm.Nodes[n.ID()].ID
	}
	return keyMembers(members)
}

func keyMembers(members []string) string {
	sorted := slices.Clone(members)
	slices.Sort(sorted)
	out := ""
	for _, m := range sorted {
		out += m + "\x00"
	}
	return out
}
