package render

import (
	"bytes"
	_ "embed"
	"regexp"

	"github.com/matzehuels/kgview/pkg/errors"
	"github.com/matzehuels/kgview/pkg/graph"
)

// DataMarker is replaced by the view model JSON.
const DataMarker = "<!--DATA-->"

//go:embed template.html
var defaultTemplate []byte

var scriptCloseRe = regexp.MustCompile(`(?i)</script>`)

// DefaultTemplate returns a copy of the built-in visualization template.
func DefaultTemplate() []byte {
	return bytes.Clone(defaultTemplate)
}

// EmbedJSON encodes v as indented JSON with every </script> (in any letter
// case) rewritten to <\/script>.
func EmbedJSON(v any) ([]byte, error) {
	data, err := graph.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode view model")
	}
	return scriptCloseRe.ReplaceAll(data, []byte(`<\/script>`)), nil
}

// HTML inserts the JSON encoding of v, framed by newlines, at the first
// [DataMarker] in tmpl. A template without the marker fails with
// INVALID_TEMPLATE.
func HTML(tmpl []byte, v any) ([]byte, error) {
	i := bytes.Index(tmpl, []byte(DataMarker))
	if i < 0 {
		return nil, errors.New(errors.ErrCodeInvalidTemplate, "template has no %s marker", DataMarker)
	}
	data, err := EmbedJSON(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(tmpl) + len(data) + 2)
	buf.Write(tmpl[:i])
	buf.WriteByte('\n')
	buf.Write(data)
	buf.WriteByte('\n')
	buf.Write(tmpl[i+len(DataMarker):])
	return buf.Bytes(), nil
}
