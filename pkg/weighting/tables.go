package weighting

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/yaml.v3"
)

// DefaultWeight is returned for any industry/factor pair the tables do not
// cover.
const DefaultWeight = 1.0

// ErrInvalidTable is wrapped by every validation failure in LoadTables.
var ErrInvalidTable = errors.New("invalid weighting table")

//go:embed tables.yaml
var defaultTablesYAML []byte

type yamlTables struct {
	Version        string                        `yaml:"version"`
	Industries     map[string]map[string]float64 `yaml:"industries"`
	Occupancies    map[string][]string           `yaml:"occupancies"`
	DefaultEnabled []string                      `yaml:"defaultEnabled"`
}

// Tables is the immutable weighting and relevance configuration.
type Tables struct {
	version        string
	industries     map[string]map[Factor]float64
	occupancies    map[string]mapset.Set[Factor]
	defaultEnabled mapset.Set[Factor]
}

// DefaultTables returns the tables bundled with the binary.
func DefaultTables() (*Tables, error) {
	return LoadTables(bytes.NewReader(defaultTablesYAML))
}

// LoadTablesFile reads and validates tables from a YAML file.
func LoadTablesFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weighting tables %s: %w", path, err)
	}
	defer f.Close()
	return LoadTables(f)
}

// LoadTables parses and validates weighting tables. Unknown factor keys and
// non-positive or non-finite weights are configuration errors.
func LoadTables(r io.Reader) (*Tables, error) {
	var raw yamlTables
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse weighting tables: %w", err)
	}

	t := &Tables{
		version:     raw.Version,
		industries:  make(map[string]map[Factor]float64, len(raw.Industries)),
		occupancies: make(map[string]mapset.Set[Factor], len(raw.Occupancies)),
	}

	for industry, weights := range raw.Industries {
		if industry == "" {
			return nil, fmt.Errorf("%w: empty industry key", ErrInvalidTable)
		}
		m := make(map[Factor]float64, len(weights))
		for key, w := range weights {
			f := Factor(key)
			if !f.Known() {
				return nil, fmt.Errorf("%w: industry %q: unknown factor %q", ErrInvalidTable, industry, key)
			}
			if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
				return nil, fmt.Errorf("%w: industry %q factor %q: weight %v must be positive", ErrInvalidTable, industry, key, w)
			}
			m[f] = w
		}
		t.industries[industry] = m
	}

	for occupancy, keys := range raw.Occupancies {
		if occupancy == "" {
			return nil, fmt.Errorf("%w: empty occupancy key", ErrInvalidTable)
		}
		set, err := factorSet(keys)
		if err != nil {
			return nil, fmt.Errorf("%w: occupancy %q: %v", ErrInvalidTable, occupancy, err)
		}
		t.occupancies[occupancy] = set
	}

	def, err := factorSet(raw.DefaultEnabled)
	if err != nil {
		return nil, fmt.Errorf("%w: defaultEnabled: %v", ErrInvalidTable, err)
	}
	if def.Cardinality() == 0 {
		return nil, fmt.Errorf("%w: defaultEnabled must not be empty", ErrInvalidTable)
	}
	t.defaultEnabled = def

	return t, nil
}

func factorSet(keys []string) (mapset.Set[Factor], error) {
	set := mapset.NewThreadUnsafeSet[Factor]()
	for _, k := range keys {
		f := Factor(k)
		if !f.Known() {
			return nil, fmt.Errorf("unknown factor %q", k)
		}
		if f.IsGlobal() {
			return nil, fmt.Errorf("global factor %q cannot be listed", k)
		}
		set.Add(f)
	}
	return set, nil
}

// Version returns the table revision string.
func (t *Tables) Version() string { return t.version }

// FactorWeight returns the industry-specific weight for factor, or
// DefaultWeight when either key is not recognized.
func (t *Tables) FactorWeight(industry string, factor Factor) float64 {
	if weights, ok := t.industries[industry]; ok {
		if w, ok := weights[factor]; ok {
			return w
		}
	}
	return DefaultWeight
}

// EnabledFactors returns the occupancy-specific factor set, or the
// conservative default set for unrecognized occupancies. Global factors are
// not included. The returned set is a copy.
func (t *Tables) EnabledFactors(occupancy string) mapset.Set[Factor] {
	if set, ok := t.occupancies[occupancy]; ok {
		return set.Clone()
	}
	return t.defaultEnabled.Clone()
}

// IsFactorEnabled reports whether factor is assessable for occupancy,
// counting the global factors.
func (t *Tables) IsFactorEnabled(occupancy string, factor Factor) bool {
	if factor.IsGlobal() {
		return true
	}
	if set, ok := t.occupancies[occupancy]; ok {
		return set.Contains(factor)
	}
	return t.defaultEnabled.Contains(factor)
}
