package ui

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"catalogops/app"
	"catalogops/domain/catalog"
	"catalogops/internal/errors"
	"catalogops/internal/filter"
)

// renderTemplate executes a template into a buffer first so a rendering error
// never leaves a half-written response.
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		log.Printf("[UI] template error for %s: %v", templateName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (a *App) renderError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeValidationError, errors.CodeInvalidInput:
		status = http.StatusBadRequest
	case errors.CodeWizardInactive:
		status = http.StatusConflict
	case errors.CodeStillRunning:
		// Long bulk work continuing in the background is a status, not a failure.
		w.WriteHeader(http.StatusAccepted)
		a.renderTemplate(w, "status.html", map[string]interface{}{
			"Kind":    "pending",
			"Message": "Still processing in the background. Refresh the analysis in a minute.",
		})
		return
	}
	w.WriteHeader(status)
	a.renderTemplate(w, "status.html", map[string]interface{}{
		"Kind":    "error",
		"Message": err.Error(),
	})
}

func collectionParam(r *http.Request) catalog.Collection {
	return catalog.Collection(chi.URLParam(r, "collection"))
}

func rowParam(r *http.Request) (int, error) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil || row <= 0 {
		return 0, errors.ValidationError("row must be a positive integer")
	}
	return row, nil
}

// parseCriteria reads the grid filter controls from query parameters.
func parseCriteria(r *http.Request) filter.Criteria {
	q := r.URL.Query()
	crit := filter.Criteria{
		Quick:  filter.Quick(q.Get("quick")),
		Search: q.Get("search"),
		Brand:  q.Get("brand"),
	}
	if fields := q["missing_field"]; len(fields) > 0 {
		crit.Quick = filter.QuickMissingCustom
		crit.CustomFields = fields
	}
	if rows := q["selected"]; len(rows) > 0 {
		crit.Quick = filter.QuickSelected
		crit.Selected = make(map[int]bool, len(rows))
		for _, raw := range rows {
			if row, err := strconv.Atoi(raw); err == nil {
				crit.Selected[row] = true
			}
		}
	}
	return crit
}

// handleIndex renders the collection picker.
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	type collectionCard struct {
		Collection catalog.Collection
		Count      int
	}
	cards := make([]collectionCard, 0, len(catalog.Collections()))
	for _, coll := range catalog.Collections() {
		count := 0
		if c, err := a.service.Cache(coll); err == nil {
			count = c.Len()
		}
		cards = append(cards, collectionCard{Collection: coll, Count: count})
	}
	a.renderTemplate(w, "index.html", map[string]interface{}{
		"Collections": cards,
	})
}

// handleDashboard renders the main curation view for one collection.
func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	collection := collectionParam(r)
	cfg, err := a.service.Config(collection)
	if err != nil {
		a.renderError(w, err)
		return
	}

	entries, err := a.service.Filter(collection, parseCriteria(r))
	if err != nil {
		a.renderError(w, err)
		return
	}
	summary, err := a.service.Summary(collection)
	if err != nil {
		a.renderError(w, err)
		return
	}

	a.renderTemplate(w, "dashboard.html", map[string]interface{}{
		"Collection":    collection,
		"Config":        cfg,
		"Entries":       entries,
		"Summary":       summary,
		"AnalysisCount": len(a.service.Analysis(collection)),
		"FieldOptions":  fieldOptions(cfg),
	})
}

type fieldOption struct {
	Key     string
	Display string
}

func fieldOptions(cfg *catalog.CategoryConfig) []fieldOption {
	keys := append(append([]string{}, cfg.CriticalFields...), cfg.RecommendedFields...)
	opts := make([]fieldOption, len(keys))
	for i, key := range keys {
		opts[i] = fieldOption{Key: key, Display: catalog.HumanizeKey(key)}
	}
	return opts
}

// handleLoad walks the backend pages into the cache and re-renders the grid.
func (a *App) handleLoad(w http.ResponseWriter, r *http.Request) {
	collection := collectionParam(r)
	if _, err := a.service.LoadCollection(r.Context(), collection); err != nil {
		a.renderError(w, err)
		return
	}
	a.renderGrid(w, collection, filter.Criteria{})
}

// handleAnalysisRefresh re-pulls the missing-info payload and re-renders the grid.
func (a *App) handleAnalysisRefresh(w http.ResponseWriter, r *http.Request) {
	collection := collectionParam(r)
	if _, err := a.service.RefreshAnalysis(r.Context(), collection); err != nil {
		a.renderError(w, err)
		return
	}
	a.renderGrid(w, collection, parseCriteria(r))
}

// handleSync pushes the sheet to the e-commerce platform.
func (a *App) handleSync(w http.ResponseWriter, r *http.Request) {
	collection := collectionParam(r)
	if err := a.service.SyncCollection(r.Context(), collection); err != nil {
		a.renderError(w, err)
		return
	}
	a.renderTemplate(w, "status.html", map[string]interface{}{
		"Kind":    "success",
		"Message": fmt.Sprintf("Synced %s to the store.", collection),
	})
}

// handleBulk triggers one backend process operation for the checked rows.
func (a *App) handleBulk(w http.ResponseWriter, r *http.Request) {
	collection := collectionParam(r)
	if err := r.ParseForm(); err != nil {
		a.renderError(w, errors.ValidationError("invalid form payload"))
		return
	}
	var rows []int
	for _, raw := range r.Form["selected"] {
		if row, err := strconv.Atoi(raw); err == nil {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		a.renderError(w, errors.ValidationError("select at least one product"))
		return
	}

	op := app.BulkOperation(chi.URLParam(r, "operation"))
	outcome, err := a.service.RunBulk(r.Context(), collection, op, rows)
	if err != nil {
		a.renderError(w, err)
		return
	}

	message := fmt.Sprintf("%s finished: %d succeeded", op, outcome.Succeeded)
	if outcome.Failed > 0 {
		message += fmt.Sprintf(", %d failed", outcome.Failed)
	}
	if outcome.Skipped > 0 {
		message += fmt.Sprintf(", %d skipped", outcome.Skipped)
	}
	a.renderTemplate(w, "status.html", map[string]interface{}{
		"Kind":    "success",
		"Message": message,
		"Detail":  outcome.Detail,
	})
}

// handleExport streams the filtered view as an xlsx download.
func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	collection := collectionParam(r)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(collection)+"-export.xlsx"))
	if err := a.service.Export(w, collection); err != nil {
		log.Printf("[UI] export failed for %s: %v", collection, err)
	}
}

// handleSave pushes the edit modal's form fields and re-renders the modal.
func (a *App) handleSave(w http.ResponseWriter, r *http.Request) {
	collection := collectionParam(r)
	row, err := rowParam(r)
	if err != nil {
		a.renderError(w, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		a.renderError(w, errors.ValidationError("invalid form payload"))
		return
	}

	fields := make(map[string]string)
	for key, values := range r.PostForm {
		if !strings.HasPrefix(key, "field.") || len(values) == 0 {
			continue
		}
		fields[strings.TrimPrefix(key, "field.")] = values[0]
	}

	result, err := a.service.SaveFields(r.Context(), collection, row, fields, r.PostForm.Get("actor"))
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderEditModal(w, r, collection, row, result)
}
