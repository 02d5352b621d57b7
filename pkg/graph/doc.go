// Package graph normalizes knowledge-graph payloads into a canonical form.
//
// This package sits at the input boundary of kgview. Payloads arrive in many
// shapes (files written by different extraction tools, API responses, hand
// edited JSON) and this package is the single place that knows about them.
//
// # Accepted Shapes
//
// A payload is a JSON object. Entities are read from the first present of
// "entities", "Nodes" or "nodes". Relations are read from the first present of
// "relations", "Relations", "relationships", "triples", "Triples" or "edges".
// Each relation is either an array or an object:
//
//	["Paris", "capital of", "France"]
//	{"source": "Paris", "label": "capital of", "target": "France"}
//
// A "relations" object of the form {"data": [...]} is unwrapped when nothing
// else yields relations. Clusters use snake_case, camelCase or all-lowercase
// keys ("entity_clusters", "entityClusters", "entityclusters") and accept:
//
//	{"Paris": ["Paris", "City of Light"]}
//	[["Paris", ["City of Light"]]]
//	[{"id": "Paris", "members": ["City of Light"]}]
//
// A payload wrapping its data in a nested "graph" object is unwrapped, and a
// payload that is already a view model is passed through untouched.
//
// # Core Operations
//
//	raw, _ := graph.ReadFile("graph.json")     // order-preserving decode
//	p, err := graph.Normalize(raw)             // → canonical *Graph
//	wire := graph.SanitizeForBackend(raw)      // → plain-object clusters
//
// # Ordering
//
// [Decode] returns JSON objects as *[Object] so key order is preserved.
// Plain Go maps are also accepted and are iterated in sorted key order.
//
// # Concurrency
//
// All functions are safe for concurrent use. An [Object] must not be mutated
// while another goroutine reads it.
package graph
