package graph

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// =============================================================================
// Payload Serialization API
// =============================================================================

// Decode reads a single JSON value from r.
//
// Objects decode to *Object (key order preserved), arrays to []any, numbers
// to float64, and the remaining literals to string, bool or nil. Trailing
// data after the first value is an error.
func Decode(r io.Reader) (any, error) {
	dec := stdjson.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: unexpected data after top-level value")
	}
	return v, nil
}

// Unmarshal decodes JSON bytes with the same rules as [Decode].
func Unmarshal(data []byte) (any, error) {
	return Decode(bytes.NewReader(data))
}

// ReadFile reads and decodes a JSON payload file.
func ReadFile(path string) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	v, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// MarshalCompact encodes v as compact JSON. Unlike [json.Marshal], the
// characters <, > and & are written as is.
func MarshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Marshal encodes v as indented JSON without HTML escaping.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(v, &buf); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Write encodes v as indented JSON to w, followed by a newline.
func Write(v any, w io.Writer) error {
	data, err := MarshalCompact(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	var buf bytes.Buffer
	if err := stdjson.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

// WriteFile writes v as indented JSON to path, creating parent directories.
// The file is created with 0644 permissions.
func WriteFile(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(v, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// =============================================================================
// Internal Implementation
// =============================================================================

func decodeValue(dec *stdjson.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case stdjson.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T", kt)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case stdjson.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", t, err)
		}
		return f, nil
	default:
		return t, nil
	}
}
