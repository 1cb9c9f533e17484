package ui

import (
	"net/http"
	"strconv"
	"time"

	"catalogops/app"
	"catalogops/domain/catalog"
	"catalogops/domain/completeness"
	"catalogops/internal/filter"
)

func (a *App) renderGrid(w http.ResponseWriter, collection catalog.Collection, crit filter.Criteria) {
	entries, err := a.service.Filter(collection, crit)
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderTemplate(w, "grid.html", map[string]interface{}{
		"Collection": collection,
		"Entries":    entries,
	})
}

// handleFragmentGrid re-renders the product grid for the current filter
// controls.
func (a *App) handleFragmentGrid(w http.ResponseWriter, r *http.Request) {
	a.renderGrid(w, collectionParam(r), parseCriteria(r))
}

// handleFragmentSearch debounces free-text search: the filter runs only after
// the quiet period, and a request superseded by fresher keystrokes answers 204
// so the client keeps the newer grid.
func (a *App) handleFragmentSearch(w http.ResponseWriter, r *http.Request) {
	collection := collectionParam(r)
	crit := parseCriteria(r)

	type outcome struct {
		entries []filter.Entry
		err     error
	}
	done := make(chan outcome, 1)
	a.debouncer.Submit(crit.Search, func(term string, gen uint64) {
		entries, err := a.service.Filter(collection, crit)
		if a.debouncer.Stale(gen) {
			return
		}
		done <- outcome{entries: entries, err: err}
	})

	select {
	case result := <-done:
		if result.err != nil {
			a.renderError(w, result.err)
			return
		}
		a.renderTemplate(w, "grid.html", map[string]interface{}{
			"Collection": collection,
			"Entries":    result.entries,
		})
	case <-time.After(2 * searchQuietPeriod):
		w.WriteHeader(http.StatusNoContent)
	case <-r.Context().Done():
	}
}

// handleFragmentSummary renders the completeness distribution strip.
func (a *App) handleFragmentSummary(w http.ResponseWriter, r *http.Request) {
	collection := collectionParam(r)
	summary, err := a.service.Summary(collection)
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderTemplate(w, "summary.html", map[string]interface{}{
		"Collection": collection,
		"Summary":    summary,
	})
}

// handleFragmentAudit renders the newest edit-trail entries.
func (a *App) handleFragmentAudit(w http.ResponseWriter, r *http.Request) {
	collection := collectionParam(r)
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	entries, err := a.service.RecentAudit(r.Context(), collection, limit)
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderTemplate(w, "audit.html", map[string]interface{}{
		"Collection": collection,
		"Entries":    entries,
	})
}

// editField is one input row of the edit modal.
type editField struct {
	Key      string
	Display  string
	Value    string
	Missing  bool
	Critical bool
	LongForm bool
}

// handleFragmentEdit hydrates the product and renders the edit modal.
func (a *App) handleFragmentEdit(w http.ResponseWriter, r *http.Request) {
	collection := collectionParam(r)
	row, err := rowParam(r)
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderEditModal(w, r, collection, row, nil)
}

func (a *App) renderEditModal(w http.ResponseWriter, r *http.Request, collection catalog.Collection, row int, saveResult *app.SaveResult) {
	cache, err := a.service.Cache(collection)
	if err != nil {
		a.renderError(w, err)
		return
	}
	cfg, err := a.service.Config(collection)
	if err != nil {
		a.renderError(w, err)
		return
	}
	product, err := cache.Hydrate(r.Context(), row)
	if err != nil {
		a.renderError(w, err)
		return
	}

	classification := completeness.Classify(product, cfg)
	missingCritical := make(map[string]bool, len(classification.MissingCritical))
	for _, key := range classification.MissingCritical {
		missingCritical[key] = true
	}
	missingRecommended := make(map[string]bool, len(classification.MissingRecommended))
	for _, key := range classification.MissingRecommended {
		missingRecommended[key] = true
	}

	keys := append(append([]string{}, cfg.CriticalFields...), cfg.RecommendedFields...)
	fields := make([]editField, len(keys))
	for i, key := range keys {
		fields[i] = editField{
			Key:      key,
			Display:  catalog.HumanizeKey(key),
			Value:    product.Str(key),
			Missing:  missingCritical[key] || missingRecommended[key],
			Critical: missingCritical[key],
			LongForm: isLongForm(key),
		}
	}

	a.renderTemplate(w, "edit_modal.html", map[string]interface{}{
		"Collection": collection,
		"Product":    product,
		"Score":      completeness.Score(product, cfg),
		"Fields":     fields,
		"Previews":   longFormPreviews(product),
		"SaveResult": saveResult,
	})
}
