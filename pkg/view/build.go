package view

import (
	"fmt"
	"slices"
	"strconv"

	"golang.org/x/text/language"

	"github.com/matzehuels/kgview/pkg/collate"
	"github.com/matzehuels/kgview/pkg/color"
	"github.com/matzehuels/kgview/pkg/graph"
)

const (
	// TopN bounds TopEntities and TopRelations.
	TopN = 10

	baseRadius   = 18
	radiusStep   = 2
	radiusDegree = 8
)

// Options configures a build.
type Options struct {
	// Locale drives case-insensitive ordering. The zero value means
	// [collate.DefaultLocale].
	Locale language.Tag
}

func (o Options) locale() language.Tag {
	if o.Locale == language.Und {
		return collate.DefaultLocale
	}
	return o.Locale
}

// Build derives a view model from a raw payload using default options.
func Build(raw any) (*Result, error) {
	return BuildWithOptions(raw, Options{})
}

// BuildWithOptions derives a view model from a raw payload.
//
// A payload that is not a JSON object fails with an INVALID_PAYLOAD error
// from [graph.Normalize]. A payload that is already a view model is returned
// in Result.Prebuilt without recomputation.
func BuildWithOptions(raw any, opts Options) (*Result, error) {
	switch v := raw.(type) {
	case *Result:
		if v != nil {
			return v, nil
		}
	case *ViewModel:
		if v != nil {
			return &Result{View: v}, nil
		}
	}
	p, err := graph.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if p.IsPrebuilt() {
		return &Result{Prebuilt: p.Prebuilt}, nil
	}
	return &Result{View: FromGraph(p.Graph, opts)}, nil
}

// nodeState accumulates per-entity metrics during the relation walk.
type nodeState struct {
	degree, indegree, outdegree int
	neighbors                   map[string]struct{}
	incoming, outgoing          []string
}

// builder holds the working state of one build.
type builder struct {
	coll *collate.Collator
	g    *graph.Graph

	entities []string
	states   map[string]*nodeState

	clusters, edgeClusters []Cluster
	memberCluster          map[string]string
	nodeColor              map[string]string
	predicateCluster       map[string]string
	predicateColor         map[string]string

	predicates      []string
	predicateCounts map[string]int
	edges           []Edge
}

// FromGraph derives a view model from a canonical graph.
func FromGraph(g *graph.Graph, opts Options) *ViewModel {
	if g == nil {
		g = &graph.Graph{}
	}
	b := &builder{
		coll:             collate.New(opts.locale()),
		g:                g,
		states:           make(map[string]*nodeState),
		memberCluster:    make(map[string]string),
		nodeColor:        make(map[string]string),
		predicateCluster: make(map[string]string),
		predicateColor:   make(map[string]string),
		predicateCounts:  make(map[string]int),
	}

	b.collectEntities()
	b.clusters = b.clusterViews(g.EntityClusters, color.Entity, b.memberCluster, b.nodeColor)
	for _, e := range b.entities {
		if _, ok := b.nodeColor[e]; !ok {
			b.nodeColor[e] = color.Namespaced(color.Entity, e)
		}
	}
	b.edgeClusters = b.clusterViews(g.EdgeClusters, color.Edge, b.predicateCluster, b.predicateColor)

	for _, e := range b.entities {
		b.state(e)
	}
	b.walkRelations()

	nodes := b.nodes()
	isolated := b.isolated()
	components := b.components()

	return &ViewModel{
		Nodes:            nodes,
		Edges:            b.edges,
		Clusters:         b.clusters,
		EdgeClusters:     b.edgeClusters,
		TopEntities:      b.topEntities(nodes),
		TopRelations:     b.topRelations(),
		Stats:            b.stats(len(isolated), len(components)),
		IsolatedEntities: isolated,
		Components:       components,
		Relations:        b.relationRecords(),
	}
}

// collectEntities builds the sorted entity universe: declared entities plus
// every non-empty relation endpoint.
func (b *builder) collectEntities() {
	seen := make(map[string]struct{})
	add := func(e string) {
		if _, ok := seen[e]; ok {
			return
		}
		seen[e] = struct{}{}
		b.entities = append(b.entities, e)
	}
	for _, e := range b.g.Entities {
		add(e)
	}
	for _, r := range b.g.Relations {
		if r.Subject != "" {
			add(r.Subject)
		}
		if r.Object != "" {
			add(r.Object)
		}
	}
	if b.entities == nil {
		b.entities = []string{}
	}
	b.coll.Sort(b.entities)
}

// clusterViews emits one view per cluster and records each member's cluster
// and colour. A member listed by several clusters takes the later one.
func (b *builder) clusterViews(cs *graph.Clusters, ns string, memberCluster, colors map[string]string) []Cluster {
	views := make([]Cluster, 0, cs.Len())
	for _, rep := range cs.Representatives() {
		members := b.sortedSet(append(slices.Clone(cs.Members(rep)), rep))
		c := color.Namespaced(ns, rep)
		views = append(views, Cluster{
			ID:      rep,
			Label:   rep,
			Members: members,
			Size:    len(members),
			Color:   c,
		})
		for _, m := range members {
			memberCluster[m] = rep
			colors[m] = c
		}
	}
	return views
}

func (b *builder) state(e string) *nodeState {
	s, ok := b.states[e]
	if !ok {
		s = &nodeState{
			neighbors: make(map[string]struct{}),
			incoming:  []string{},
			outgoing:  []string{},
		}
		b.states[e] = s
	}
	return s
}

func (b *builder) walkRelations() {
	b.edges = make([]Edge, 0, len(b.g.Relations))
	for i, r := range b.g.Relations {
		src, dst := b.state(r.Subject), b.state(r.Object)
		id := "e" + strconv.Itoa(i)

		if _, ok := b.predicateCounts[r.Predicate]; !ok {
			b.predicates = append(b.predicates, r.Predicate)
		}
		b.predicateCounts[r.Predicate]++

		src.degree++
		dst.degree++
		src.outdegree++
		dst.indegree++
		src.neighbors[r.Object] = struct{}{}
		dst.neighbors[r.Subject] = struct{}{}
		src.outgoing = append(src.outgoing, id)
		dst.incoming = append(dst.incoming, id)

		b.edges = append(b.edges, Edge{
			ID:        id,
			Source:    r.Subject,
			Target:    r.Object,
			Predicate: r.Predicate,
			Cluster:   b.predicateClusterOf(r.Predicate),
			Color:     b.colorOfPredicate(r.Predicate),
			Tooltip:   fmt.Sprintf("%s —%s→ %s", r.Subject, r.Predicate, r.Object),
		})
	}
}

// colorOfPredicate returns the edge-cluster colour covering p, or a
// predicate-namespaced hash cached for the rest of the build.
func (b *builder) colorOfPredicate(p string) string {
	if c, ok := b.predicateColor[p]; ok {
		return c
	}
	c := color.Namespaced(color.Predicate, p)
	b.predicateColor[p] = c
	return c
}

func (b *builder) predicateClusterOf(p string) *string {
	return optional(b.predicateCluster[p])
}

func (b *builder) nodes() []Node {
	nodes := make([]Node, len(b.entities))
	for i, e := range b.entities {
		s := b.states[e]
		cluster := optional(b.memberCluster[e])
		col, ok := b.nodeColor[e]
		if !ok {
			col = color.Fallback
		}
		nodes[i] = Node{
			ID:               e,
			Label:            e,
			Cluster:          cluster,
			Color:            col,
			Degree:           s.degree,
			Indegree:         s.indegree,
			Outdegree:        s.outdegree,
			IsRepresentative: cluster != nil && *cluster == e,
			Radius:           baseRadius + min(s.degree, radiusDegree)*radiusStep,
			Neighbors:        b.sortedKeys(s.neighbors),
			EdgeIDs:          EdgeIDs{Incoming: s.incoming, Outgoing: s.outgoing},
		}
	}
	return nodes
}

func (b *builder) isolated() []string {
	out := []string{}
	for _, e := range b.entities {
		if b.states[e].degree == 0 {
			out = append(out, e)
		}
	}
	return out
}

// components finds connected components of the undirected graph by BFS,
// starting from entities in sorted order.
func (b *builder) components() []Component {
	visited := make(map[string]bool, len(b.entities))
	out := []Component{}
	for _, start := range b.entities {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue := []string{start}
		for head := 0; head < len(queue); head++ {
			for n := range b.states[queue[head]].neighbors {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		b.coll.Sort(queue)
		out = append(out, Component{Size: len(queue), Members: queue})
	}
	slices.SortStableFunc(out, func(x, y Component) int {
		if x.Size != y.Size {
			return y.Size - x.Size
		}
		return b.coll.Compare(x.Members[0], y.Members[0])
	})
	return out
}

func (b *builder) topEntities(nodes []Node) []TopEntity {
	top := make([]TopEntity, len(nodes))
	for i, n := range nodes {
		top[i] = TopEntity{
			Label:     n.Label,
			Degree:    n.Degree,
			Indegree:  n.Indegree,
			Outdegree: n.Outdegree,
			Cluster:   n.Cluster,
		}
	}
	slices.SortStableFunc(top, func(x, y TopEntity) int {
		if x.Degree != y.Degree {
			return y.Degree - x.Degree
		}
		return b.coll.Compare(x.Label, y.Label)
	})
	return top[:min(len(top), TopN)]
}

func (b *builder) topRelations() []TopRelation {
	top := make([]TopRelation, len(b.predicates))
	for i, p := range b.predicates {
		top[i] = TopRelation{
			Predicate: p,
			Count:     b.predicateCounts[p],
			Cluster:   b.predicateClusterOf(p),
			Color:     b.colorOfPredicate(p),
		}
	}
	slices.SortStableFunc(top, func(x, y TopRelation) int {
		if x.Count != y.Count {
			return y.Count - x.Count
		}
		return b.coll.Compare(x.Predicate, y.Predicate)
	})
	return top[:min(len(top), TopN)]
}

func (b *builder) stats(isolated, components int) Stats {
	total := 0
	for _, e := range b.entities {
		total += b.states[e].degree
	}
	return Stats{
		Entities:         len(b.entities),
		Relations:        len(b.edges),
		RelationTypes:    len(b.predicates),
		EntityClusters:   len(b.clusters),
		EdgeClusters:     len(b.edgeClusters),
		IsolatedEntities: isolated,
		Components:       components,
		AverageDegree:    averageDegree(total, len(b.entities)),
		Density:          density(len(b.edges), len(b.entities)),
	}
}

// relationRecords pairs each edge with the relation's payload values,
// falling back to the edge's strings where a value is absent.
func (b *builder) relationRecords() []RelationRecord {
	out := make([]RelationRecord, len(b.edges))
	for i, e := range b.edges {
		raw := b.g.Relations[i].Raw
		out[i] = RelationRecord{
			Source:    orString(raw[0], e.Source),
			Predicate: orString(raw[1], e.Predicate),
			Target:    orString(raw[2], e.Target),
			EdgeID:    e.ID,
			Color:     e.Color,
		}
	}
	return out
}

func (b *builder) sortedSet(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	b.coll.Sort(out)
	return out
}

func (b *builder) sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	b.coll.Sort(out)
	return out
}

// optional maps "" to nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orString(v any, s string) any {
	if v == nil {
		return s
	}
	return v
}
