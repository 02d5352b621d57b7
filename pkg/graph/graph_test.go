package graph

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func mustDecode(t *testing.T, s string) any {
	t.Helper()
	v, err := Unmarshal([]byte(s))
	if err != nil {
		t.Fatalf("Unmarshal(%s) error: %v", s, err)
	}
	return v
}

func TestDecodePreservesOrder(t *testing.T) {
	v := mustDecode(t, `{"b": 1, "a": {"z": true, "y": null}, "c": [1, "x"]}`)

	obj, ok := v.(*Object)
	if !ok {
		t.Fatalf("Decode() = %T, want *Object", v)
	}
	if got, want := obj.Keys(), []string{"b", "a", "c"}; !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	b, _ := obj.Get("b")
	if b != float64(1) {
		t.Errorf("b = %#v, want float64(1)", b)
	}

	a, _ := obj.Get("a")
	inner, ok := a.(*Object)
	if !ok {
		t.Fatalf("a = %T, want *Object", a)
	}
	if got, want := inner.Keys(), []string{"z", "y"}; !slices.Equal(got, want) {
		t.Errorf("inner Keys() = %v, want %v", got, want)
	}
	if !inner.Has("y") {
		t.Error("null-valued key should be present")
	}

	c, _ := obj.Get("c")
	if arr, ok := c.([]any); !ok || len(arr) != 2 || arr[1] != "x" {
		t.Errorf("c = %#v, want [1 x]", c)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ``},
		{"trailing data", `{} {}`},
		{"unterminated", `{"a": [1, 2`},
		{"bad literal", `{"a": nope}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tt.input)); err == nil {
				t.Errorf("Unmarshal(%q) should fail", tt.input)
			}
		})
	}
}

func TestObjectSetKeepsPosition(t *testing.T) {
	o := NewObject()
	o.Set("a", 1)
	o.Set("b", 2)
	o.Set("a", 3)

	if got, want := o.Keys(), []string{"a", "b"}; !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if v, _ := o.Get("a"); v != 3 {
		t.Errorf("a = %v, want 3", v)
	}

	o.Delete("a")
	if o.Has("a") || o.Len() != 1 {
		t.Errorf("Delete left keys %v", o.Keys())
	}
}

func TestMarshal(t *testing.T) {
	v := mustDecode(t, `{"z": "</script>", "a": [1, 2.5, {"k": null}]}`)

	data, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	want := `{
  "z": "</script>",
  "a": [
    1,
    2.5,
    {
      "k": null
    }
  ]
}`
	if string(data) != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", data, want)
	}
}

func TestMarshalCompactKeepsHTMLCharacters(t *testing.T) {
	clusters := NewClusters()
	clusters.Set("<b>", []string{"x & y"})

	tests := []struct {
		name string
		v    any
		want string
	}{
		{"string", "a<b>&c", `"a<b>&c"`},
		{"nested object", mustDecode(t, `{"o": {"k": "</script>"}, "l": ["<", ">"]}`), `{"o":{"k":"</script>"},"l":["<",">"]}`},
		{"go map", map[string]any{"k": "&"}, `{"k":"&"}`},
		{"clusters", clusters, `{"<b>":["x & y"]}`},
		{
			"graph",
			&Graph{Entities: []string{"a<b"}, Relations: []Relation{{Subject: "a<b", Predicate: "&", Object: "a<b"}}},
			`{"entities":["a<b"],"relations":[["a<b","&","a<b"]],"entity_clusters":{},"edge_clusters":{}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalCompact(tt.v)
			if err != nil {
				t.Fatalf("MarshalCompact error: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("MarshalCompact() = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "graph.json")
	v := mustDecode(t, `{"entities": ["B", "A"], "relations": [["A", "r", "B"]]}`)

	if err := WriteFile(path, v); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	back, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	first, _ := Marshal(v)
	second, _ := Marshal(back)
	if string(first) != string(second) {
		t.Errorf("round trip mismatch:\n%s\n%s", first, second)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadFile should fail for missing file")
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{-3, "-3"},
		{1.5, "1.5"},
		{0.1, "0.1"},
		{123456789012, "123456789012"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{0.000001, "0.000001"},
	}

	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{"", false},
		{"x", true},
		{float64(0), false},
		{float64(2), true},
		{[]any{}, true},
		{NewObject(), true},
		{(*Object)(nil), false},
		{map[string]any{}, true},
	}

	for _, tt := range tests {
		if got := truthy(tt.in); got != tt.want {
			t.Errorf("truthy(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEnsureArray(t *testing.T) {
	obj := NewObject()
	obj.Set("k2", "b")
	obj.Set("k1", "a")

	tests := []struct {
		name string
		in   any
		want []any
	}{
		{"nil", nil, nil},
		{"empty string", "", nil},
		{"array", []any{"x", "y"}, []any{"x", "y"}},
		{"string slice", []string{"x"}, []any{"x"}},
		{"object values in order", obj, []any{"b", "a"}},
		{"map values by key", map[string]any{"b": 2.0, "a": 1.0}, []any{1.0, 2.0}},
		{"scalar", "solo", []any{"solo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ensureArray(tt.in); !slices.Equal(got, tt.want) {
				t.Errorf("ensureArray() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
