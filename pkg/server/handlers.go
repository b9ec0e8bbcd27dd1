package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/firesurvey/risk-engine/pkg/classifier"
	"github.com/firesurvey/risk-engine/pkg/scoring"
	"github.com/firesurvey/risk-engine/pkg/survey"
	"github.com/firesurvey/risk-engine/pkg/triggers"
	"github.com/firesurvey/risk-engine/pkg/weighting"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

type catalogEntryResponse struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"displayName"`
	DocTypes    []string `json:"docTypes"`
	Order       *int     `json:"order,omitempty"`
	Kind        string   `json:"kind"`
	Hidden      bool     `json:"hidden,omitempty"`
}

// catalogHandler handles GET /api/v1/catalog
func (s *Server) catalogHandler(w http.ResponseWriter, _ *http.Request) {
	c := s.engine.Catalog()
	entries := c.Entries()
	items := make([]catalogEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = catalogEntryResponse{
			Key:         e.Key,
			DisplayName: e.DisplayName,
			DocTypes:    e.DocTypes,
			Order:       e.Order,
			Kind:        string(e.Kind),
			Hidden:      e.Hidden,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":  c.Version(),
		"docTypes": c.DocTypes(),
		"entries":  items,
	})
}

// docTypeModulesHandler handles GET /api/v1/catalog/doc-types/{docType}/modules
func (s *Server) docTypeModulesHandler(w http.ResponseWriter, r *http.Request) {
	docType := chi.URLParam(r, "docType")
	keys := s.engine.Catalog().ModuleKeysForDocType(docType)
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"docType": docType,
		"modules": keys,
	})
}

// resolveKeyHandler handles GET /api/v1/catalog/resolve/{key}
func (s *Server) resolveKeyHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	c := s.engine.Catalog()
	canonical := c.ResolveCanonicalKey(key)
	writeJSON(w, http.StatusOK, map[string]any{
		"key":          key,
		"canonicalKey": canonical,
		"known":        c.Has(canonical),
	})
}

type factorResponse struct {
	Key      weighting.Factor `json:"key"`
	Label    string           `json:"label"`
	Category string           `json:"category"`
	Global   bool             `json:"global"`
	Weight   float64          `json:"weight"`
	Enabled  bool             `json:"enabled"`
}

// factorsHandler handles GET /api/v1/factors?industry=&occupancy=
func (s *Server) factorsHandler(w http.ResponseWriter, r *http.Request) {
	industry := r.URL.Query().Get("industry")
	occupancy := r.URL.Query().Get("occupancy")
	t := s.engine.Tables()

	infos := weighting.Factors()
	items := make([]factorResponse, len(infos))
	for i, f := range infos {
		items[i] = factorResponse{
			Key:      f.Key,
			Label:    f.Label,
			Category: f.Category,
			Global:   f.Key.IsGlobal(),
			Weight:   t.FactorWeight(industry, f.Key),
			Enabled:  t.IsFactorEnabled(occupancy, f.Key),
		}
	}
	// Occupancy-specific set only; global factors are reported per item.
	occupancyFactors := t.EnabledFactors(occupancy).ToSlice()
	slices.Sort(occupancyFactors)
	writeJSON(w, http.StatusOK, map[string]any{
		"version":          t.Version(),
		"industry":         industry,
		"occupancy":        occupancy,
		"factors":          items,
		"occupancyFactors": occupancyFactors,
	})
}

// buildingScoreHandler handles POST /api/v1/scores/building
func (s *Server) buildingScoreHandler(w http.ResponseWriter, r *http.Request) {
	var f scoring.BuildingFactors
	if !decodeBody(w, r, &f) {
		return
	}
	score, ok := scoring.ComputeBuildingScore(f)
	writeJSON(w, http.StatusOK, map[string]any{
		"score":  score,
		"scored": ok,
	})
}

type siteRequest struct {
	Buildings    []scoring.Building              `json:"buildings"`
	Site         scoring.SiteFactors             `json:"site"`
	BuildingMeta map[string]scoring.BuildingMeta `json:"buildingMeta,omitempty"`
}

// siteScoreHandler handles POST /api/v1/scores/site
func (s *Server) siteScoreHandler(w http.ResponseWriter, r *http.Request) {
	var req siteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, scoring.ScoreSite(req.Buildings, req.Site, req.BuildingMeta))
}

// triggersHandler handles POST /api/v1/triggers
func (s *Server) triggersHandler(w http.ResponseWriter, r *http.Request) {
	var req siteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ds := triggers.Evaluate(req.Buildings, req.Site)
	if ds == nil {
		ds = []triggers.Descriptor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"triggers": ds})
}

// evaluationHandler handles POST /api/v1/evaluations
func (s *Server) evaluationHandler(w http.ResponseWriter, r *http.Request) {
	var doc survey.Document
	if !decodeBody(w, r, &doc) {
		return
	}
	ev, err := s.engine.Evaluate(r.Context(), doc)
	if err != nil {
		if errors.Is(err, survey.ErrInvalidDocument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("evaluation failed", "documentId", doc.ID, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("evaluation failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// summaryHandler handles GET /api/v1/documents/{documentId}/summary
// Query params: buildings, maxStoreys, totalArea, engineeredFireStrategy, occupancy
func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var metrics classifier.SiteMetrics
	var err error
	if v := q.Get("buildings"); v != "" {
		if metrics.Buildings, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid buildings")
			return
		}
	}
	if v := q.Get("maxStoreys"); v != "" {
		if metrics.MaxStoreys, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid maxStoreys")
			return
		}
	}
	if v := q.Get("totalArea"); v != "" {
		if metrics.TotalArea, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid totalArea")
			return
		}
	}
	if v := q.Get("engineeredFireStrategy"); v != "" {
		if metrics.EngineeredFSD, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid engineeredFireStrategy")
			return
		}
	}

	summary, err := s.engine.DocumentSummary(r.Context(), chi.URLParam(r, "documentId"), metrics, q.Get("occupancy"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build summary: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
