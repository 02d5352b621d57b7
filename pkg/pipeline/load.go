package pipeline

import (
	"io"
	"os"

	"github.com/matzehuels/kgview/pkg/errors"
	"github.com/matzehuels/kgview/pkg/graph"
)

// Load decodes a payload from path, or from stdin when path is "-".
// Malformed JSON fails with INVALID_INPUT.
func Load(path string) (any, error) {
	if path == "-" || path == "" {
		return LoadReader(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "graph file %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()
	return LoadReader(f)
}

// LoadReader decodes a payload from r.
func LoadReader(r io.Reader) (any, error) {
	v, err := graph.Decode(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON")
	}
	return v, nil
}

// LoadBytes decodes a payload from data.
func LoadBytes(data []byte) (any, error) {
	v, err := graph.Unmarshal(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON")
	}
	return v, nil
}
