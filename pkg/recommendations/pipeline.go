package recommendations

import (
	"context"
	"log/slog"

	"github.com/firesurvey/risk-engine/pkg/executive"
	"github.com/firesurvey/risk-engine/pkg/scoring"
	"github.com/firesurvey/risk-engine/pkg/taxonomy"
	"github.com/firesurvey/risk-engine/pkg/triggers"
	"github.com/firesurvey/risk-engine/pkg/weighting"
)

// Pipeline turns trigger events into durable, deduplicated recommendations.
// Its entry points never return errors: failures are logged and reported as
// "no recommendation".
type Pipeline struct {
	store   *Store
	library *Library
	catalog *taxonomy.Catalog
	cfg     *PipelineConfig
	logger  *slog.Logger
}

// NewPipeline creates a Pipeline. catalog may be nil; a nil cfg uses
// DefaultPipelineConfig and a nil logger uses slog.Default.
func NewPipeline(store *Store, library *Library, catalog *taxonomy.Catalog, cfg *PipelineConfig, logger *slog.Logger) *Pipeline {
	if cfg == nil {
		cfg = DefaultPipelineConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:   store,
		library: library,
		catalog: catalog,
		cfg:     cfg,
		logger:  logger,
	}
}

// Library returns the template library the pipeline matches against.
func (p *Pipeline) Library() *Library { return p.library }

type ensureRequest struct {
	identity Identity
	rating   scoring.Rating
	industry string
	priority Priority
	category executive.Category
	fallback Text
}

// EnsureRecommendationFromRating makes sure an auto recommendation exists for
// an inadequate factor rating and returns its id. It returns "" when the
// rating does not warrant one or the store could not be reached. An existing
// active recommendation is returned unchanged; ratings above the threshold
// leave existing recommendations alone.
func (p *Pipeline) EnsureRecommendationFromRating(ctx context.Context, documentID, moduleKey, factorKey string, rating scoring.Rating, industry string) string {
	prio, ok := triggers.InadequateRating(rating)
	if !ok || !p.cfg.Enabled {
		return ""
	}

	moduleKey = p.canonical(moduleKey)
	factor := weighting.Factor(factorKey)
	return p.ensure(ctx, ensureRequest{
		identity: Identity{DocumentID: documentID, ModuleKey: moduleKey, FactorKey: factorKey},
		rating:   rating,
		industry: industry,
		priority: PriorityFromTrigger(prio),
		category: CategoryFor(factor),
		fallback: GenericText(p.moduleName(moduleKey), factor.Label(), rating),
	})
}

// EnsureFromTrigger persists a trigger descriptor raised by the fire
// protection rules. The descriptor ID is the identity variant, so each
// building and sub-system keeps its own recommendation.
func (p *Pipeline) EnsureFromTrigger(ctx context.Context, documentID, moduleKey, industry string, d triggers.Descriptor) string {
	if !p.cfg.Enabled || d.ID == "" {
		return ""
	}

	moduleKey = p.canonical(moduleKey)
	fallback := Text{
		Title:       d.Title,
		Observation: d.Detail,
	}
	fallback = fallback.fill(GenericText(p.moduleName(moduleKey), d.Subsystem.Label(), d.Rating))

	return p.ensure(ctx, ensureRequest{
		identity: Identity{
			DocumentID: documentID,
			ModuleKey:  moduleKey,
			FactorKey:  string(d.Category),
			Variant:    d.ID,
		},
		rating:   d.Rating,
		industry: industry,
		priority: PriorityFromTrigger(d.Priority),
		category: CategoryFor(d.Category),
		fallback: fallback,
	})
}

func (p *Pipeline) ensure(ctx context.Context, req ensureRequest) string {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.StoreTimeout)
	defer cancel()

	log := p.logger.With(
		"documentId", req.identity.DocumentID,
		"moduleKey", req.identity.ModuleKey,
		"factorKey", req.identity.FactorKey,
	)
	if req.identity.Variant != "" {
		log = log.With("variant", req.identity.Variant)
	}

	existing, err := p.store.FindActive(ctx, req.identity)
	if err != nil {
		log.Error("recommendation lookup failed", "error", err)
		return ""
	}
	if existing != nil {
		log.Debug("recommendation already exists", "id", existing.ID)
		return existing.ID
	}

	text := req.fallback
	var templateID *string
	if p.library != nil {
		tpl, err := p.library.Match(ctx, MatchCriteria{
			ModuleKey: req.identity.ModuleKey,
			FactorKey: req.identity.FactorKey,
			Rating:    req.rating,
			Industry:  req.industry,
		})
		if err != nil {
			log.Error("template lookup failed", "error", err)
			return ""
		}
		if tpl != nil {
			text = templateText(tpl).fill(req.fallback)
			id := tpl.ID
			templateID = &id
		}
	}

	rec := &Recommendation{
		DocumentID:      req.identity.DocumentID,
		SourceModuleKey: req.identity.ModuleKey,
		SourceFactorKey: req.identity.FactorKey,
		Variant:         req.identity.Variant,
		TemplateID:      templateID,
		Category:        string(req.category),
		Priority:        req.priority,
		Status:          StatusOpen,
		Title:           text.Title,
		Observation:     text.Observation,
		ActionRequired:  text.ActionRequired,
		Hazard:          text.Hazard,
		TriggerRating:   int(req.rating),
	}
	saved, created, err := p.store.CreateAuto(ctx, rec)
	if err != nil {
		log.Error("recommendation create failed", "error", err)
		return ""
	}
	if created {
		log.Info("recommendation created", "id", saved.ID, "priority", saved.Priority)
	} else {
		log.Debug("recommendation created concurrently", "id", saved.ID)
	}
	return saved.ID
}

func (p *Pipeline) canonical(key string) string {
	if p.catalog == nil {
		return key
	}
	return p.catalog.ResolveCanonicalKey(key)
}

func (p *Pipeline) moduleName(key string) string {
	if p.catalog != nil {
		if e, ok := p.catalog.Lookup(key); ok && e.DisplayName != "" {
			return e.DisplayName
		}
	}
	return key
}

// PriorityFromTrigger maps a trigger priority onto the stored band.
func PriorityFromTrigger(p triggers.Priority) Priority {
	if p == triggers.PriorityHigh {
		return PriorityHigh
	}
	return PriorityMedium
}

// CategoryFor returns the executive category a factor's issues are filed
// under.
func CategoryFor(f weighting.Factor) executive.Category {
	if info, ok := weighting.LookupFactor(string(f)); ok && info.Category != "" {
		return executive.Category(info.Category)
	}
	return executive.CategoryOther
}
