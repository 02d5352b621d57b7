package graph

// SanitizeForBackend reshapes a payload for the preparation endpoint.
//
// Cluster fields are rewritten as plain JSON objects of representative to
// member list. "entity_clusters" and "edge_clusters" are always set; every
// alternate spelling already present on the input is set to the same value.
// When the payload wraps a nested "graph" object, only that inner object is
// sanitized. Other fields are copied unchanged and the input is not modified.
//
// Non-object input is returned as is.
func SanitizeForBackend(raw any) any {
	f, ok := asFields(raw)
	if !ok {
		return raw
	}

	out := NewObject()
	for _, e := range f.entries() {
		out.Set(e.key, e.val)
	}

	if inner, ok := f.lookup("graph"); ok {
		if _, isObj := asFields(inner); isObj {
			out.Set("graph", SanitizeForBackend(inner))
			return out
		}
	}

	entitySrc, _ := firstPresent(f, EntityClusterKeys...)
	edgeSrc, _ := firstPresent(f, EdgeClusterKeys...)
	entity := parseClusters(entitySrc, true).Object()
	edge := parseClusters(edgeSrc, true).Object()

	out.Set(EntityClusterKeys[0], entity)
	out.Set(EdgeClusterKeys[0], edge)
	for _, k := range EntityClusterKeys[1:] {
		if out.Has(k) {
			out.Set(k, entity)
		}
	}
	for _, k := range EdgeClusterKeys[1:] {
		if out.Has(k) {
			out.Set(k, edge)
		}
	}
	return out
}
