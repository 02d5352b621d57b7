package graph

import (
	"github.com/matzehuels/kgview/pkg/errors"
)

// Payload is the outcome of [Normalize]: either a canonical graph, or a
// payload that is already a view model and must be used unchanged.
type Payload struct {
	Graph    *Graph
	Prebuilt any
}

// IsPrebuilt reports whether the payload was already a view model.
func (p *Payload) IsPrebuilt() bool {
	return p.Prebuilt != nil
}

// Normalize coerces an arbitrary decoded JSON payload into a canonical graph.
//
// The payload must be a JSON object; anything else fails with
// [errors.ErrCodeInvalidPayload]. A payload that already looks like a view
// model (array "nodes", array "edges", truthy "stats") is returned untouched
// in Payload.Prebuilt. A nested "graph" object is unwrapped recursively.
//
// Malformed parts never fail: relations with a missing component, clusters
// with unusable keys, and members without a text form are dropped.
func Normalize(raw any) (*Payload, error) {
	f, ok := asFields(raw)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "graph payload must be a JSON object, got %s", describe(raw))
	}
	if IsViewModel(raw) {
		return &Payload{Prebuilt: raw}, nil
	}
	if inner, ok := f.lookup("graph"); ok {
		if _, isObj := asFields(inner); isObj {
			return Normalize(inner)
		}
	}
	return &Payload{Graph: extract(f)}, nil
}

// IsViewModel reports whether raw already has the shape of a built view
// model: array-typed "nodes" and "edges" plus a truthy "stats".
func IsViewModel(raw any) bool {
	f, ok := asFields(raw)
	if !ok {
		return false
	}
	nodes, _ := f.lookup("nodes")
	edges, _ := f.lookup("edges")
	stats, _ := f.lookup("stats")
	_, nodesOK := asArray(nodes)
	_, edgesOK := asArray(edges)
	return nodesOK && edgesOK && truthy(stats)
}

func extract(f fields) *Graph {
	g := &Graph{}

	entities, _ := firstPresent(f, EntityKeys...)
	seen := make(map[string]bool)
	for _, item := range ensureArray(entities) {
		s, ok := toText(item)
		if !ok || s == "" || seen[s] {
			continue
		}
		seen[s] = true
		g.Entities = append(g.Entities, s)
	}

	relations, _ := firstPresent(f, RelationKeys...)
	g.Relations = parseRelations(relations)
	if len(g.Relations) == 0 {
		if wrapped, ok := f.lookup("relations"); ok {
			if wf, ok := asFields(wrapped); ok {
				if data, ok := wf.lookup("data"); ok {
					g.Relations = parseRelations(data)
				}
			}
		}
	}

	entityClusters, _ := firstPresent(f, EntityClusterKeys...)
	g.EntityClusters = parseClusters(entityClusters, false)
	edgeClusters, _ := firstPresent(f, EdgeClusterKeys...)
	g.EdgeClusters = parseClusters(edgeClusters, false)

	return g
}

func parseRelations(raw any) []Relation {
	var out []Relation
	for _, item := range ensureArray(raw) {
		if r, ok := parseRelation(item); ok {
			out = append(out, r)
		}
	}
	return out
}

// parseRelation accepts [subject, predicate, object] arrays and objects
// using subject/source, predicate/relation/label and object/target.
// Subject and object must be non-empty.
func parseRelation(item any) (Relation, bool) {
	if !truthy(item) {
		return Relation{}, false
	}
	var vals [3]any
	var present [3]bool
	if arr, ok := asArray(item); ok {
		for i := range min(len(arr), 3) {
			vals[i], present[i] = arr[i], arr[i] != nil
		}
	} else if f, ok := asFields(item); ok {
		vals[0], present[0] = firstPresent(f, "subject", "source")
		vals[1], present[1] = firstPresent(f, "predicate", "relation", "label")
		vals[2], present[2] = firstPresent(f, "object", "target")
	} else {
		return Relation{}, false
	}

	var text [3]string
	for i := range vals {
		if !present[i] {
			return Relation{}, false
		}
		s, ok := toText(vals[i])
		if !ok {
			return Relation{}, false
		}
		text[i] = s
	}
	if text[0] == "" || text[2] == "" {
		return Relation{}, false
	}
	return Relation{Subject: text[0], Predicate: text[1], Object: text[2], Raw: vals}, true
}

// parseClusters reads any accepted cluster shape into an ordered mapping.
// With flatten set, array entries that are objects without an "id" are
// treated as key→members objects themselves.
func parseClusters(raw any, flatten bool) *Clusters {
	out := NewClusters()
	if !truthy(raw) {
		return out
	}

	add := func(key, members any) {
		k, ok := toText(key)
		if !ok || k == "" {
			return
		}
		out.Set(k, parseMembers(members))
	}

	if arr, ok := asArray(raw); ok {
		for _, item := range arr {
			if !truthy(item) {
				continue
			}
			if pair, ok := asArray(item); ok {
				var key, members any
				if len(pair) > 0 {
					key = pair[0]
				}
				if len(pair) > 1 {
					members = pair[1]
				}
				add(key, members)
				continue
			}
			f, ok := asFields(item)
			if !ok {
				continue
			}
			if id, ok := f.lookup("id"); ok && id != nil {
				members, _ := f.lookup("members")
				add(id, members)
			} else if flatten {
				for _, e := range f.entries() {
					add(e.key, e.val)
				}
			}
		}
		return out
	}

	if f, ok := asFields(raw); ok {
		for _, e := range f.entries() {
			add(e.key, e.val)
		}
	}
	return out
}

func parseMembers(raw any) []string {
	items := ensureArray(raw)
	out := make([]string, 0, len(items))
	for _, m := range items {
		if s, ok := toText(m); ok {
			out = append(out, s)
		}
	}
	return out
}
