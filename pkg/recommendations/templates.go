package recommendations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/firesurvey/risk-engine/pkg/cache"
	"github.com/firesurvey/risk-engine/pkg/scoring"
	"github.com/firesurvey/risk-engine/pkg/taxonomy"
)

const activeTemplatesKey = "active"

// ErrInvalidTemplate is returned when a seeded template is malformed.
var ErrInvalidTemplate = errors.New("invalid template")

// MatchCriteria is what a template is matched against.
type MatchCriteria struct {
	ModuleKey string
	FactorKey string
	Rating    scoring.Rating
	Industry  string
}

// Library serves active recommendation templates from the database through
// a TTL cache.
type Library struct {
	db      *gorm.DB
	catalog *taxonomy.Catalog
	cache   *cache.LRUCache[[]Template]
}

// NewLibrary creates a template library. A nil or disabled cache config
// reads the database on every lookup. catalog may be nil, in which case
// module keys are compared verbatim.
func NewLibrary(db *gorm.DB, catalog *taxonomy.Catalog, cfg *cache.CacheConfig) *Library {
	l := &Library{db: db, catalog: catalog}
	if cfg != nil && cfg.Enabled {
		l.cache = cache.NewLRUCache[[]Template](cfg.MaxSize, cfg.TTL)
	}
	return l
}

// Active returns all active templates, highest priority first. Ties keep
// creation order.
func (l *Library) Active(ctx context.Context) ([]Template, error) {
	load := func() ([]Template, error) {
		var tpls []Template
		err := l.db.WithContext(ctx).
			Where("active = ?", true).
			Order("priority DESC").Order("created_at ASC").Order("id ASC").
			Find(&tpls).Error
		if err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
		return tpls, nil
	}
	if l.cache == nil {
		return load()
	}
	return l.cache.GetOrLoad(activeTemplatesKey, load)
}

// Match returns the first active template relevant to c, or nil.
func (l *Library) Match(ctx context.Context, c MatchCriteria) (*Template, error) {
	tpls, err := l.Active(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tpls {
		if l.matches(&tpls[i], c) {
			t := tpls[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (l *Library) matches(t *Template, c MatchCriteria) bool {
	if len(t.ModuleKeys) > 0 {
		want := l.canonical(c.ModuleKey)
		if !slices.ContainsFunc(t.ModuleKeys, func(k string) bool { return l.canonical(k) == want }) {
			return false
		}
	}
	if len(t.FactorKeys) > 0 && !slices.Contains(t.FactorKeys, c.FactorKey) {
		return false
	}
	// A caller without an industry only matches industry-agnostic templates.
	if len(t.IndustryKeys) > 0 && (c.Industry == "" || !slices.Contains(t.IndustryKeys, c.Industry)) {
		return false
	}
	if t.RatingMin != nil || t.RatingMax != nil {
		if !c.Rating.Known() {
			return false
		}
		r := int(c.Rating)
		if t.RatingMin != nil && r < *t.RatingMin {
			return false
		}
		if t.RatingMax != nil && r > *t.RatingMax {
			return false
		}
	}
	return true
}

func (l *Library) canonical(key string) string {
	if l.catalog == nil {
		return key
	}
	return l.catalog.ResolveCanonicalKey(key)
}

// Invalidate drops cached templates so the next lookup reads the database.
func (l *Library) Invalidate() {
	if l.cache != nil {
		l.cache.InvalidateAll()
	}
}

// templateFile is the on-disk seed format.
type templateFile struct {
	Templates []templateSpec `yaml:"templates"`
}

type templateSpec struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Active         *bool    `yaml:"active"`
	Priority       int      `yaml:"priority"`
	Modules        []string `yaml:"modules"`
	Factors        []string `yaml:"factors"`
	Industries     []string `yaml:"industries"`
	RatingMin      *int     `yaml:"ratingMin"`
	RatingMax      *int     `yaml:"ratingMax"`
	Title          string   `yaml:"title"`
	Observation    string   `yaml:"observation"`
	ActionRequired string   `yaml:"actionRequired"`
	Hazard         string   `yaml:"hazard"`
}

// ParseTemplates decodes a YAML template seed file.
func ParseTemplates(r io.Reader) ([]Template, error) {
	var f templateFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode templates: %w", err)
	}

	out := make([]Template, 0, len(f.Templates))
	seen := make(map[string]bool, len(f.Templates))
	for i, s := range f.Templates {
		if s.Name == "" || s.Title == "" {
			return nil, fmt.Errorf("%w: entry %d needs name and title", ErrInvalidTemplate, i)
		}
		if s.RatingMin != nil && s.RatingMax != nil && *s.RatingMin > *s.RatingMax {
			return nil, fmt.Errorf("%w: %s has ratingMin above ratingMax", ErrInvalidTemplate, s.Name)
		}
		id := s.ID
		if id == "" {
			id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(s.Name)).String()
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidTemplate, id)
		}
		seen[id] = true

		active := true
		if s.Active != nil {
			active = *s.Active
		}
		out = append(out, Template{
			ID:             id,
			Name:           s.Name,
			Active:         active,
			Priority:       s.Priority,
			ModuleKeys:     s.Modules,
			FactorKeys:     s.Factors,
			IndustryKeys:   s.Industries,
			RatingMin:      s.RatingMin,
			RatingMax:      s.RatingMax,
			Title:          s.Title,
			Observation:    s.Observation,
			ActionRequired: s.ActionRequired,
			Hazard:         s.Hazard,
		})
	}
	return out, nil
}

// Seed upserts templates by ID and invalidates the cache. It returns the
// number of templates written.
func (l *Library) Seed(ctx context.Context, tpls []Template) (int, error) {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range tpls {
			if err := tx.Save(&tpls[i]).Error; err != nil {
				return fmt.Errorf("save template %s: %w", tpls[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	l.Invalidate()
	return len(tpls), nil
}

// SeedFile reads a YAML template file and seeds its contents. Templates
// previously seeded from the same path that the file no longer lists are
// deactivated.
func (l *Library) SeedFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open templates: %w", err)
	}
	defer f.Close()

	tpls, err := ParseTemplates(f)
	if err != nil {
		return 0, err
	}
	ids := make([]string, len(tpls))
	for i := range tpls {
		tpls[i].Source = path
		ids[i] = tpls[i].ID
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range tpls {
			if err := tx.Save(&tpls[i]).Error; err != nil {
				return fmt.Errorf("save template %s: %w", tpls[i].ID, err)
			}
		}
		stale := tx.Model(&Template{}).Where("source = ? AND active = ?", path, true)
		if len(ids) > 0 {
			stale = stale.Where("id NOT IN ?", ids)
		}
		if err := stale.Update("active", false).Error; err != nil {
			return fmt.Errorf("deactivate removed templates: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	l.Invalidate()
	return len(tpls), nil
}
