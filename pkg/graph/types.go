package graph

import (
	"slices"
)

// =============================================================================
// Key Spellings - Single Source of Truth
// =============================================================================

// Accepted spellings, in priority order.
var (
	EntityKeys        = []string{"entities", "Nodes", "nodes"}
	RelationKeys      = []string{"relations", "Relations", "relationships", "triples", "Triples", "edges"}
	EntityClusterKeys = []string{"entity_clusters", "entityClusters", "entityclusters"}
	EdgeClusterKeys   = []string{"edge_clusters", "edgeClusters", "edgeclusters"}
)

// =============================================================================
// Graph - Canonical Knowledge Graph
// =============================================================================

// Graph is the canonical form every accepted payload shape normalizes to.
//
// It marshals to the wire shape accepted by the preparation endpoint:
//
//	{
//	  "entities": ["Paris", "France"],
//	  "relations": [["Paris", "capital of", "France"]],
//	  "entity_clusters": {},
//	  "edge_clusters": {}
//	}
type Graph struct {
	// Entities holds unique labels in first-seen order.
	Entities []string
	// Relations holds triples in input order.
	Relations []Relation
	// EntityClusters maps representative entity to members.
	EntityClusters *Clusters
	// EdgeClusters maps representative predicate to members.
	EdgeClusters *Clusters
}

// Relation is a directed, labeled edge.
type Relation struct {
	Subject   string
	Predicate string
	Object    string

	// Raw holds the field values as they appeared in the payload, before
	// string coercion. Numbers and booleans are kept as such.
	Raw [3]any
}

type wireGraph struct {
	Entities       []string    `json:"entities"`
	Relations      [][3]string `json:"relations"`
	EntityClusters *Clusters   `json:"entity_clusters"`
	EdgeClusters   *Clusters   `json:"edge_clusters"`
}

// MarshalJSON encodes the graph in its canonical wire shape.
func (g *Graph) MarshalJSON() ([]byte, error) {
	w := wireGraph{
		Entities:       g.Entities,
		Relations:      make([][3]string, len(g.Relations)),
		EntityClusters: g.EntityClusters,
		EdgeClusters:   g.EdgeClusters,
	}
	if w.Entities == nil {
		w.Entities = []string{}
	}
	for i, r := range g.Relations {
		w.Relations[i] = [3]string{r.Subject, r.Predicate, r.Object}
	}
	if w.EntityClusters == nil {
		w.EntityClusters = NewClusters()
	}
	if w.EdgeClusters == nil {
		w.EdgeClusters = NewClusters()
	}
	return MarshalCompact(w)
}

// =============================================================================
// Clusters - Ordered Representative → Members Mapping
// =============================================================================

// Clusters is an ordered mapping from representative label to member labels.
// Setting an existing representative replaces its members in place.
type Clusters struct {
	reps    []string
	members map[string][]string
}

// NewClusters returns an empty mapping.
func NewClusters() *Clusters {
	return &Clusters{members: make(map[string][]string)}
}

// Len returns the number of clusters.
func (c *Clusters) Len() int {
	if c == nil {
		return 0
	}
	return len(c.reps)
}

// Representatives returns cluster keys in order.
func (c *Clusters) Representatives() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.reps)
}

// Members returns the declared members of rep.
func (c *Clusters) Members(rep string) []string {
	if c == nil {
		return nil
	}
	return c.members[rep]
}

// Set assigns members to rep.
func (c *Clusters) Set(rep string, members []string) {
	if c.members == nil {
		c.members = make(map[string][]string)
	}
	if _, ok := c.members[rep]; !ok {
		c.reps = append(c.reps, rep)
	}
	if members == nil {
		members = []string{}
	}
	c.members[rep] = members
}

// Object converts the mapping to a plain JSON object of string arrays.
func (c *Clusters) Object() *Object {
	out := NewObject()
	if c == nil {
		return out
	}
	for _, rep := range c.reps {
		ms := c.members[rep]
		vals := make([]any, len(ms))
		for i, m := range ms {
			vals[i] = m
		}
		out.Set(rep, vals)
	}
	return out
}

// MarshalJSON encodes the mapping as an ordered JSON object.
func (c *Clusters) MarshalJSON() ([]byte, error) {
	return c.Object().MarshalJSON()
}
