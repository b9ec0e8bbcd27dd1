package taxonomy

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// yamlEntry is a module entry as written in the catalog file.
type yamlEntry struct {
	Key      string   `yaml:"key"`
	Name     string   `yaml:"name"`
	DocTypes []string `yaml:"docTypes"`
	Order    *int     `yaml:"order,omitempty"`
	Kind     string   `yaml:"kind"`
	Hidden   bool     `yaml:"hidden,omitempty"`
}

// yamlCatalog is the structure of the catalog file.
type yamlCatalog struct {
	Version string            `yaml:"version"`
	Modules []yamlEntry       `yaml:"modules"`
	Aliases map[string]string `yaml:"aliases"`
}

// Catalog is an immutable, versioned module registry. Build it once at
// startup and share the pointer; no method mutates it.
type Catalog struct {
	version string
	entries map[string]Entry
	keys    []string
	aliases map[string]string
}

// DefaultCatalog returns the catalog bundled with the binary.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalogYAML))
}

// LoadCatalogFile reads and validates a catalog from a YAML file.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog parses and validates a catalog. Validation is strict: a
// missing kind, duplicate key or dangling alias is returned as an error
// rather than defaulted.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var raw yamlCatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		version: raw.Version,
		entries: make(map[string]Entry, len(raw.Modules)),
		keys:    make([]string, 0, len(raw.Modules)),
		aliases: make(map[string]string, len(raw.Aliases)),
	}

	for i, m := range raw.Modules {
		if m.Key == "" {
			return nil, fmt.Errorf("module #%d: %w", i, ErrEmptyKey)
		}
		if _, dup := c.entries[m.Key]; dup {
			return nil, fmt.Errorf("module %q: %w", m.Key, ErrDuplicateKey)
		}
		if m.Kind == "" {
			return nil, fmt.Errorf("module %q: %w", m.Key, ErrMissingKind)
		}
		kind := Kind(m.Kind)
		if !kind.Valid() {
			return nil, fmt.Errorf("module %q kind %q: %w", m.Key, m.Kind, ErrUnknownKind)
		}
		name := m.Name
		if name == "" {
			name = m.Key
		}
		c.entries[m.Key] = Entry{
			Key:         m.Key,
			DisplayName: name,
			DocTypes:    append([]string(nil), m.DocTypes...),
			Order:       m.Order,
			Kind:        kind,
			Hidden:      m.Hidden,
		}
		c.keys = append(c.keys, m.Key)
	}

	for legacy, canonical := range raw.Aliases {
		if _, ok := c.entries[legacy]; ok {
			return nil, fmt.Errorf("alias %q: %w", legacy, ErrAliasShadowing)
		}
		if _, ok := c.entries[canonical]; !ok {
			return nil, fmt.Errorf("alias %q -> %q: %w", legacy, canonical, ErrUnknownAlias)
		}
		c.aliases[legacy] = canonical
	}

	return c, nil
}

// Version returns the catalog revision string.
func (c *Catalog) Version() string { return c.version }

// ResolveCanonicalKey maps a legacy key to its canonical key. Keys without an
// alias, canonical or not, are returned unchanged, so the function is a fixed
// point on its own output.
func (c *Catalog) ResolveCanonicalKey(key string) string {
	if canonical, ok := c.aliases[key]; ok {
		return canonical
	}
	return key
}

// Lookup returns the catalog entry for key, resolving aliases first.
func (c *Catalog) Lookup(key string) (Entry, bool) {
	e, ok := c.entries[c.ResolveCanonicalKey(key)]
	return e, ok
}

// Has reports whether key resolves to a registered module.
func (c *Catalog) Has(key string) bool {
	_, ok := c.Lookup(key)
	return ok
}

// Entries returns every entry in declaration order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.entries[k])
	}
	return out
}

// DocTypes returns the sorted set of document types named by any entry.
func (c *Catalog) DocTypes() []string {
	seen := make(map[string]struct{})
	for _, e := range c.entries {
		for _, t := range e.DocTypes {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
