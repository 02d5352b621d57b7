package view

import (
	"github.com/goccy/go-json"

	"github.com/matzehuels/kgview/pkg/graph"
)

// ViewModel is the fully derived, render-ready graph.
type ViewModel struct {
	Nodes            []Node           `json:"nodes"`
	Edges            []Edge           `json:"edges"`
	Clusters         []Cluster        `json:"clusters"`
	EdgeClusters     []Cluster        `json:"edgeClusters"`
	TopEntities      []TopEntity      `json:"topEntities"`
	TopRelations     []TopRelation    `json:"topRelations"`
	Stats            Stats            `json:"stats"`
	IsolatedEntities []string         `json:"isolatedEntities"`
	Components       []Component      `json:"components"`
	Relations        []RelationRecord `json:"relations"`
}

// Node is one entity.
type Node struct {
	ID               string   `json:"id"`
	Label            string   `json:"label"`
	Cluster          *string  `json:"cluster"`
	Color            string   `json:"color"`
	Degree           int      `json:"degree"`
	Indegree         int      `json:"indegree"`
	Outdegree        int      `json:"outdegree"`
	IsRepresentative bool     `json:"isRepresentative"`
	Radius           int      `json:"radius"`
	Neighbors        []string `json:"neighbors"`
	EdgeIDs          EdgeIDs  `json:"edgeIds"`
}

// EdgeIDs lists the edges touching a node, in relation order.
type EdgeIDs struct {
	Incoming []string `json:"incoming"`
	Outgoing []string `json:"outgoing"`
}

// Edge is one relation. Cluster is the edge cluster covering the predicate.
type Edge struct {
	ID        string  `json:"id"`
	Source    string  `json:"source"`
	Target    string  `json:"target"`
	Predicate string  `json:"predicate"`
	Cluster   *string `json:"cluster"`
	Color     string  `json:"color"`
	Tooltip   string  `json:"tooltip"`
}

// Cluster is an entity or edge cluster. Members include the representative.
type Cluster struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Members []string `json:"members"`
	Size    int      `json:"size"`
	Color   string   `json:"color"`
}

type TopEntity struct {
	Label     string  `json:"label"`
	Degree    int     `json:"degree"`
	Indegree  int     `json:"indegree"`
	Outdegree int     `json:"outdegree"`
	Cluster   *string `json:"cluster"`
}

type TopRelation struct {
	Predicate string  `json:"predicate"`
	Count     int     `json:"count"`
	Cluster   *string `json:"cluster"`
	Color     string  `json:"color"`
}

// Stats summarizes the graph. AverageDegree is rounded to two decimals and
// Density to three.
type Stats struct {
	Entities         int     `json:"entities"`
	Relations        int     `json:"relations"`
	RelationTypes    int     `json:"relationTypes"`
	EntityClusters   int     `json:"entityClusters"`
	EdgeClusters     int     `json:"edgeClusters"`
	IsolatedEntities int     `json:"isolatedEntities"`
	Components       int     `json:"components"`
	AverageDegree    float64 `json:"averageDegree"`
	Density          float64 `json:"density"`
}

type Component struct {
	Size    int      `json:"size"`
	Members []string `json:"members"`
}

// RelationRecord pairs a relation's payload values with its edge. Source,
// Predicate and Target keep their original JSON types.
type RelationRecord struct {
	Source    any    `json:"source"`
	Predicate any    `json:"predicate"`
	Target    any    `json:"target"`
	EdgeID    string `json:"edgeId"`
	Color     string `json:"color"`
}

// Result is the outcome of [Build]. Exactly one of View and Prebuilt is set:
// View holds a freshly derived view model, Prebuilt an input payload that was
// already a view model.
type Result struct {
	View     *ViewModel
	Prebuilt any
}

// IsPrebuilt reports whether the input was passed through unchanged.
func (r *Result) IsPrebuilt() bool {
	return r.View == nil
}

// ViewModel returns the typed view model, decoding a pre-built payload if
// necessary.
func (r *Result) ViewModel() (*ViewModel, error) {
	if r.View != nil {
		return r.View, nil
	}
	data, err := graph.MarshalCompact(r.Prebuilt)
	if err != nil {
		return nil, err
	}
	var vm ViewModel
	if err := json.Unmarshal(data, &vm); err != nil {
		return nil, err
	}
	return &vm, nil
}

// MarshalJSON encodes whichever of View and Prebuilt is set.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.View != nil {
		return graph.MarshalCompact(r.View)
	}
	return graph.MarshalCompact(r.Prebuilt)
}
