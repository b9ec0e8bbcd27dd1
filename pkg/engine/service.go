// Package engine runs the scoring flow for a survey document: reconcile its
// modules against the catalog, decode payloads, score, evaluate triggers,
// persist recommendations and aggregate the executive summary.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/firesurvey/risk-engine/pkg/classifier"
	"github.com/firesurvey/risk-engine/pkg/executive"
	"github.com/firesurvey/risk-engine/pkg/metrics"
	"github.com/firesurvey/risk-engine/pkg/recommendations"
	"github.com/firesurvey/risk-engine/pkg/scoring"
	"github.com/firesurvey/risk-engine/pkg/survey"
	"github.com/firesurvey/risk-engine/pkg/taxonomy"
	"github.com/firesurvey/risk-engine/pkg/triggers"
	"github.com/firesurvey/risk-engine/pkg/weighting"
)

const (
	fireProtectionModule = "fire_protection"
	waterSupplyModule    = "water_supply"
)

// DefaultConcurrency bounds EvaluateSurvey when no limit is configured.
const DefaultConcurrency = 4

// Service evaluates survey documents. It is safe for concurrent use.
type Service struct {
	catalog     *taxonomy.Catalog
	tables      *weighting.Tables
	classifier  executive.SeverityClassifier
	pipeline    *recommendations.Pipeline
	store       *recommendations.Store
	metrics     *metrics.Metrics
	logger      *slog.Logger
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithPersistence makes the service ensure recommendations through pipeline
// and build summaries from the open actions held in store.
func WithPersistence(pipeline *recommendations.Pipeline, store *recommendations.Store) Option {
	return func(s *Service) {
		s.pipeline = pipeline
		s.store = store
	}
}

// WithClassifier replaces the severity classifier.
func WithClassifier(c executive.SeverityClassifier) Option {
	return func(s *Service) { s.classifier = c }
}

// WithMetrics records every evaluation in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithConcurrency bounds how many documents EvaluateSurvey processes at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a Service over the given catalog and weighting tables.
func NewService(catalog *taxonomy.Catalog, tables *weighting.Tables, opts ...Option) *Service {
	s := &Service{
		catalog:     catalog,
		tables:      tables,
		classifier:  classifier.Basic{},
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Catalog returns the module catalog in use.
func (s *Service) Catalog() *taxonomy.Catalog { return s.catalog }

// Tables returns the weighting tables in use.
func (s *Service) Tables() *weighting.Tables { return s.tables }

// EvaluateSurvey evaluates documents concurrently. Results keep input order.
// The first failing document cancels the rest.
func (s *Service) EvaluateSurvey(ctx context.Context, docs []survey.Document) ([]*Evaluation, error) {
	out := make([]*Evaluation, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range docs {
		g.Go(func() error {
			ev, err := s.Evaluate(ctx, docs[i])
			if err != nil {
				return fmt.Errorf("document %s: %w", docs[i].ID, err)
			}
			out[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Evaluate runs the full flow for one document. Bad module payloads become
// warnings; only an invalid document or a cancelled context is an error.
func (s *Service) Evaluate(ctx context.Context, doc survey.Document) (*Evaluation, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	log := s.logger.With("documentId", doc.ID, "documentType", doc.Type)
	ev := &Evaluation{
		DocumentID:     doc.ID,
		DocumentType:   doc.Type,
		Factors:        make(map[weighting.Factor]scoring.Rating),
		EnabledFactors: s.enabledFactors(doc.OccupancyKey),
	}

	modules := s.reconcile(doc, log)
	for _, m := range modules {
		s.evaluateModule(ev, doc, m, log)
	}
	s.fillDerivedFactors(ev, doc.OccupancyKey)
	ev.Overall, ev.OverallScored = scoring.WeightedOverall(ev.Factors, doc.IndustryKey, s.tables)

	if s.pipeline != nil {
		ev.RecommendationIDs = s.persist(ctx, doc, ev)
	}

	ev.ComplexityBand = classifier.DeriveComplexityBand(doc.SiteMetrics)
	ev.OccupancyRiskClass = classifier.DeriveOccupancyRiskClass(doc.OccupancyKey)
	ev.Summary = s.summarize(ctx, doc.ID, ev, log)
	s.observe(ev, time.Since(start))

	log.Debug("document evaluated",
		"modules", len(ev.Modules),
		"ratingTriggers", len(ev.RatingTriggers),
		"triggers", len(ev.Triggers),
		"outcome", ev.Summary.ComputedOutcome)
	return ev, nil
}

func (s *Service) observe(ev *Evaluation, d time.Duration) {
	obs := metrics.Evaluation{
		Outcome:         string(ev.Summary.ComputedOutcome),
		RatingTriggers:  len(ev.RatingTriggers),
		Recommendations: len(ev.RecommendationIDs),
		Duration:        d,
	}
	for _, t := range ev.Triggers {
		if t.Scope == triggers.ScopeSite {
			obs.SiteTriggers++
		} else {
			obs.BuildingTriggers++
		}
	}
	s.metrics.ObserveEvaluation(obs)
}

// reconcile collapses legacy rows and orders modules by the catalog.
func (s *Service) reconcile(doc survey.Document, log *slog.Logger) []survey.ModuleInstance {
	keys := s.catalog.ModuleKeysForDocType(doc.Type)
	if len(keys) > 0 {
		return taxonomy.ReconcileInstances(s.catalog, doc.Modules, keys, log)
	}
	log.Warn("document type not in catalog, accepting every visible module")
	for _, e := range s.catalog.Entries() {
		if !e.Hidden {
			keys = append(keys, e.Key)
		}
	}
	// Entries come in declaration order, which need not be display order.
	return taxonomy.SortByOrder(s.catalog, taxonomy.ReconcileInstances(s.catalog, doc.Modules, keys, log))
}

func (s *Service) evaluateModule(ev *Evaluation, doc survey.Document, m survey.ModuleInstance, log *slog.Logger) {
	key := s.catalog.ResolveCanonicalKey(m.ModuleKey)
	res := ModuleResult{
		ID:          m.ID,
		ModuleKey:   key,
		DisplayName: key,
		Outcome:     m.Outcome,
		PayloadKind: survey.KindFor(key),
	}
	if key != m.ModuleKey {
		res.StoredKey = m.ModuleKey
	}
	if e, ok := s.catalog.Lookup(key); ok {
		res.DisplayName = e.DisplayName
	}
	if !m.Outcome.Valid() {
		ev.warn("module %s has unknown outcome %q", key, m.Outcome)
		res.Outcome = ""
	}

	payload, err := survey.DecodePayload(key, m.Payload)
	if err != nil {
		log.Warn("skipping malformed module payload", "moduleKey", key, "error", err)
		ev.warn("module %s: %v", key, err)
		ev.Modules = append(ev.Modules, res)
		return
	}

	switch p := payload.(type) {
	case survey.FireProtectionPayload:
		site := scoring.ScoreSite(p.Buildings, p.Site, p.BuildingMeta)
		ev.Site = &site
		ev.siteWater = p.Site.WaterSupplyRating
		for _, d := range triggers.Evaluate(p.Buildings, p.Site) {
			if s.relevant(doc.OccupancyKey, d.Category) {
				ev.Triggers = append(ev.Triggers, d)
			}
		}

	case survey.FactorRatingsPayload:
		for _, k := range p.Dropped {
			ev.warn("module %s: unknown factor %q ignored", key, k)
		}
		res.Ratings = p.Ratings
		for _, info := range weighting.Factors() {
			r, ok := p.Ratings[info.Key]
			if !ok || !r.Known() || !s.relevant(doc.OccupancyKey, info.Key) {
				continue
			}
			if prev, seen := ev.Factors[info.Key]; !seen || r < prev {
				ev.Factors[info.Key] = r
			}
			if prio, fires := triggers.InadequateRating(r); fires {
				ev.RatingTriggers = append(ev.RatingTriggers, RatingTrigger{
					ModuleKey: key,
					Factor:    info.Key,
					Rating:    r,
					Priority:  prio,
					Category:  recommendations.CategoryFor(info.Key),
				})
			}
		}
	}
	ev.Modules = append(ev.Modules, res)
}

// fillDerivedFactors supplies fire protection and water supply ratings from
// the site assessment when no module rated them directly.
func (s *Service) fillDerivedFactors(ev *Evaluation, occupancy string) {
	if ev.Site == nil {
		return
	}
	if _, ok := ev.Factors[weighting.FireProtection]; !ok && ev.Site.Scored {
		ev.Factors[weighting.FireProtection] = ev.Site.Score
	}
	if _, ok := ev.Factors[weighting.WaterSupply]; !ok && ev.siteWater.Known() && s.relevant(occupancy, weighting.WaterSupply) {
		ev.Factors[weighting.WaterSupply] = ev.siteWater
	}
}

func (s *Service) relevant(occupancy string, f weighting.Factor) bool {
	if s.tables == nil {
		return true
	}
	return s.tables.IsFactorEnabled(occupancy, f)
}

func (s *Service) enabledFactors(occupancy string) []weighting.Factor {
	out := make([]weighting.Factor, 0, len(weighting.Factors()))
	for _, info := range weighting.Factors() {
		if s.relevant(occupancy, info.Key) {
			out = append(out, info.Key)
		}
	}
	return out
}

// persist ensures a recommendation for every trigger. Failures are already
// logged by the pipeline and leave the ID out.
func (s *Service) persist(ctx context.Context, doc survey.Document, ev *Evaluation) []string {
	var ids []string
	add := func(id string) {
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	for _, t := range ev.RatingTriggers {
		add(s.pipeline.EnsureRecommendationFromRating(ctx, doc.ID, t.ModuleKey, string(t.Factor), t.Rating, doc.IndustryKey))
	}
	for _, d := range ev.Triggers {
		add(s.pipeline.EnsureFromTrigger(ctx, doc.ID, triggerModule(d), doc.IndustryKey, d))
	}
	return ids
}

// triggerModule is the module a descriptor is recorded against: site rules
// belong to the water supply module, building rules to fire protection.
func triggerModule(d triggers.Descriptor) string {
	if d.Scope == triggers.ScopeSite {
		return waterSupplyModule
	}
	return fireProtectionModule
}

func (ev *Evaluation) warn(format string, args ...any) {
	ev.Warnings = append(ev.Warnings, fmt.Sprintf(format, args...))
}
