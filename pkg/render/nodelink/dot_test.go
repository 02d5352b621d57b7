package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/kgview/pkg/graph"
	"github.com/matzehuels/kgview/pkg/view"
)

func buildVM(t *testing.T, s string) *view.ViewModel {
	t.Helper()
	raw, err := graph.Unmarshal([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	res, err := view.Build(raw)
	if err != nil {
		t.Fatal(err)
	}
	return res.View
}

const sample = `{
	"entities": ["A", "A2", "B"],
	"relations": [["A", "knows", "B"], ["A2", "says \"hi\"", "B"]],
	"entity_clusters": {"A": ["A2"]}
}`

func TestToDOT(t *testing.T) {
	vm := buildVM(t, sample)
	dot := ToDOT(vm, Options{})

	for _, want := range []string{
		"digraph G {",
		`"A" [label="A", fillcolor="` + vm.Nodes[0].Color + `"`,
		`"B" [label="B"`,
		`"A" -> "B" [id="e0", label="knows", color="` + vm.Edges[0].Color + `"`,
		`label="says \"hi\""`,
		`tooltip="A —knows→ B"`,
		"penwidth=3",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "subgraph") {
		t.Error("subgraph emitted without ClusterSubgraphs")
	}
}

func TestToDOTClusterSubgraphs(t *testing.T) {
	vm := buildVM(t, sample)
	dot := ToDOT(vm, Options{ClusterSubgraphs: true})

	if !strings.Contains(dot, "subgraph cluster_0 {") {
		t.Fatalf("missing cluster subgraph:\n%s", dot)
	}
	if strings.Count(dot, `"A" [`) != 1 {
		t.Errorf("node A declared more than once:\n%s", dot)
	}
	sub := dot[strings.Index(dot, "subgraph"):strings.Index(dot, "  }\n")]
	if !strings.Contains(sub, `"A2" [`) || strings.Contains(sub, `"B" [`) {
		t.Errorf("wrong cluster members:\n%s", sub)
	}
}

func TestToDOTDetailed(t *testing.T) {
	vm := buildVM(t, sample)
	dot := ToDOT(vm, Options{Detailed: true})

	if !strings.Contains(dot, `label="A\ndegree: 1 (in 0, out 1)\ncluster: A"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
}

func TestQuote(t *testing.T) {
	tests := map[string]string{
		"plain":     `"plain"`,
		`a"b`:       `"a\"b"`,
		`back\nope`: `"back\\nope"`,
		"two\nline": `"two\nline"`,
		"Zürich":    `"Zürich"`,
	}
	for in, want := range tests {
		if got := quote(in); got != want {
			t.Errorf("quote(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	vm := buildVM(t, sample)
	svg, err := RenderSVG(context.Background(), ToDOT(vm, Options{ClusterSubgraphs: true}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("output is not SVG: %.80s", svg)
	}
	if !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Error("viewBox not normalized")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s", got)
	}

	noBox := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(noBox)) != string(noBox) {
		t.Error("svg without viewBox changed")
	}
}
