package examples

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/kgview/pkg/errors"
	"github.com/matzehuels/kgview/pkg/graph"
)

// ManifestName is the optional catalog manifest inside a catalog directory.
const ManifestName = "examples.toml"

// WikiBase prefixes the default Wikipedia link of an example.
const WikiBase = "https://en.wikipedia.org/wiki/"

//go:embed data
var builtin embed.FS

// Example describes one catalog entry.
type Example struct {
	Slug    string `json:"slug" toml:"slug"`
	Title   string `json:"title" toml:"title"`
	WikiURL string `json:"wiki_url" toml:"wiki_url"`
	File    string `json:"-" toml:"file"`
}

type manifest struct {
	Examples []Example `toml:"example"`
}

// Catalog indexes the examples of one directory.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	fsys    fs.FS
	index   map[string]Example
	missing []string
}

// Builtin returns the catalog compiled into the binary.
func Builtin() *Catalog {
	sub, err := fs.Sub(builtin, "data")
	if err != nil {
		panic(err)
	}
	c, err := Open(sub)
	if err != nil {
		panic(err)
	}
	return c
}

// OpenDir opens the catalog stored in dir.
func OpenDir(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "examples directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "examples path %s is not a directory", dir)
	}
	return Open(os.DirFS(dir))
}

// Open indexes the catalog stored at the root of fsys.
func Open(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{fsys: fsys, index: make(map[string]Example)}

	var m manifest
	data, err := fs.ReadFile(fsys, ManifestName)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", ManifestName)
		}
	case !os.IsNotExist(err):
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", ManifestName)
	}

	for _, ex := range m.Examples {
		if errors.ValidateSlug(ex.Slug) != nil {
			continue
		}
		ex = withDefaults(ex)
		if _, err := fs.Stat(fsys, ex.File); err != nil {
			c.missing = append(c.missing, ex.Slug)
			continue
		}
		c.index[ex.Slug] = ex
	}

	files, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list examples")
	}
	listed := make(map[string]bool, len(c.index))
	for _, ex := range c.index {
		listed[ex.File] = true
	}
	for _, f := range files {
		slug := strings.TrimSuffix(f, path.Ext(f))
		if listed[f] || errors.ValidateSlug(slug) != nil {
			continue
		}
		if _, ok := c.index[slug]; ok {
			continue
		}
		c.index[slug] = withDefaults(Example{Slug: slug})
	}
	return c, nil
}

func withDefaults(ex Example) Example {
	if ex.Title == "" {
		ex.Title = ex.Slug
	}
	if ex.WikiURL == "" {
		ex.WikiURL = WikiBase + ex.Slug
	}
	if ex.File == "" {
		ex.File = ex.Slug + ".json"
	}
	return ex
}

// List returns every available example ordered by case-insensitive title,
// then slug.
func (c *Catalog) List() []Example {
	out := make([]Example, 0, len(c.index))
	for _, ex := range c.index {
		out = append(out, ex)
	}
	slices.SortFunc(out, func(a, b Example) int {
		if n := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); n != 0 {
			return n
		}
		return strings.Compare(a.Slug, b.Slug)
	})
	return out
}

// Get returns the catalog entry for slug.
func (c *Catalog) Get(slug string) (Example, bool) {
	ex, ok := c.index[slug]
	return ex, ok
}

// Missing lists manifest slugs whose file could not be found.
func (c *Catalog) Missing() []string {
	return slices.Clone(c.missing)
}

// Load reads and decodes the payload of slug, preserving key order.
//
// Unknown slugs fail with NOT_FOUND, malformed slugs with INVALID_SLUG and
// files that are not valid JSON with INVALID_PAYLOAD.
func (c *Catalog) Load(slug string) (any, error) {
	if err := errors.ValidateSlug(slug); err != nil {
		return nil, err
	}
	ex, ok := c.index[slug]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "example '%s' not found", slug)
	}
	f, err := c.fsys.Open(ex.File)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "example '%s' is unavailable", slug)
	}
	defer f.Close()

	v, err := graph.Decode(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "example '%s' is invalid", slug)
	}
	return v, nil
}
