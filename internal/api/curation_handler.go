// Package api exposes the curation operations as a JSON API, mounted beside
// the HTML dashboard for scripts and the front-end's fetch calls.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"catalogops/app"
	"catalogops/domain/catalog"
	"catalogops/internal/errors"
	"catalogops/internal/filter"
	"catalogops/internal/wizard"
)

// CurationHandler handles the JSON curation endpoints
type CurationHandler struct {
	service *app.CurationService
}

// NewCurationHandler creates a new curation handler
func NewCurationHandler(service *app.CurationService) *CurationHandler {
	return &CurationHandler{service: service}
}

// Router builds the gin engine serving /collections endpoints.
func (h *CurationHandler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	collections := r.Group("/collections/:collection")
	{
		collections.POST("/load", h.LoadCollection)
		collections.GET("/products", h.FilterProducts)
		collections.GET("/products/:row", h.GetProduct)
		collections.PUT("/products/:row", h.SaveProduct)
		collections.GET("/analysis", h.GetAnalysis)
		collections.POST("/analysis/refresh", h.RefreshAnalysis)
		collections.GET("/summary", h.GetSummary)
		collections.POST("/bulk/:operation", h.RunBulk)
		collections.POST("/sync", h.SyncCollection)
		collections.GET("/audit", h.GetAudit)

		collections.POST("/wizard/start", h.StartWizard)
	}
	r.GET("/wizard", h.WizardState)
	r.POST("/wizard/advance", h.WizardAdvance)
	r.POST("/wizard/retreat", h.WizardRetreat)
	r.POST("/wizard/fixed", h.WizardRecordFix)
	r.POST("/wizard/exit", h.WizardExit)

	return r
}

func (h *CurationHandler) collection(c *gin.Context) catalog.Collection {
	return catalog.Collection(c.Param("collection"))
}

// respondError maps the error taxonomy onto HTTP statuses. Still-running bulk
// outcomes are a 202 status payload, never a failure.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	switch code {
	case errors.CodeStillRunning:
		c.JSON(http.StatusAccepted, gin.H{"status": "still_running", "message": err.Error()})
	case errors.CodeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.CodeValidationError, errors.CodeInvalidInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.CodeWizardInactive:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.CodeBackendError:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// LoadCollection walks the backend's paginated endpoint into the cache
func (h *CurationHandler) LoadCollection(c *gin.Context) {
	count, err := h.service.LoadCollection(c.Request.Context(), h.collection(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loaded": count})
}

// FilterProducts applies query criteria over the cache snapshot
func (h *CurationHandler) FilterProducts(c *gin.Context) {
	crit := filter.Criteria{
		Quick:  filter.Quick(c.Query("quick")),
		Search: c.Query("search"),
		Brand:  c.Query("brand"),
	}
	if fields, ok := c.GetQueryArray("missing_field"); ok {
		crit.Quick = filter.QuickMissingCustom
		crit.CustomFields = fields
	}
	if rows, ok := c.GetQueryArray("selected"); ok {
		crit.Quick = filter.QuickSelected
		crit.Selected = make(map[int]bool, len(rows))
		for _, raw := range rows {
			if row, err := strconv.Atoi(raw); err == nil {
				crit.Selected[row] = true
			}
		}
	}

	entries, err := h.service.Filter(h.collection(c), crit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, len(entries))
	for i, e := range entries {
		out[i] = gin.H{
			"row_num":             e.Product.RowNum,
			"sku":                 e.Product.SKU(),
			"title":               e.Product.Title(),
			"brand":               e.Product.Brand(),
			"state":               e.Product.State.String(),
			"score":               e.Score,
			"missing_critical":    e.Classification.MissingCritical,
			"missing_recommended": e.Classification.MissingRecommended,
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "products": out})
}

// GetProduct hydrates and returns one full product record
func (h *CurationHandler) GetProduct(c *gin.Context) {
	rowNum, err := strconv.Atoi(c.Param("row"))
	if err != nil || rowNum <= 0 {
		respondError(c, errors.ValidationError("row must be a positive integer"))
		return
	}

	cache, err := h.service.Cache(h.collection(c))
	if err != nil {
		respondError(c, err)
		return
	}
	product, err := cache.Hydrate(c.Request.Context(), rowNum)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"row_num": product.RowNum,
		"state":   product.State.String(),
		"fields":  product.Fields,
	})
}

// SaveProduct pushes field edits for one row
func (h *CurationHandler) SaveProduct(c *gin.Context) {
	rowNum, err := strconv.Atoi(c.Param("row"))
	if err != nil || rowNum <= 0 {
		respondError(c, errors.ValidationError("row must be a positive integer"))
		return
	}

	var body struct {
		Fields map[string]string `json:"fields"`
		Actor  string            `json:"actor"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, errors.ValidationError("request body must carry a fields map"))
		return
	}

	result, err := h.service.SaveFields(c.Request.Context(), h.collection(c), rowNum, body.Fields, body.Actor)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if len(result.FailedFields) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

// GetAnalysis returns the last refreshed analysis records
func (h *CurationHandler) GetAnalysis(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"records": h.service.Analysis(h.collection(c))})
}

// RefreshAnalysis re-pulls and re-merges the missing-info payload
func (h *CurationHandler) RefreshAnalysis(c *gin.Context) {
	records, err := h.service.RefreshAnalysis(c.Request.Context(), h.collection(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// GetSummary returns the completeness distribution
func (h *CurationHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(h.collection(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RunBulk triggers one backend process operation for selected rows
func (h *CurationHandler) RunBulk(c *gin.Context) {
	var body struct {
		SelectedRows []int `json:"selected_rows"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || len(body.SelectedRows) == 0 {
		respondError(c, errors.ValidationError("selected_rows is required"))
		return
	}

	outcome, err := h.service.RunBulk(c.Request.Context(), h.collection(c),
		app.BulkOperation(c.Param("operation")), body.SelectedRows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"succeeded": outcome.Succeeded,
		"failed":    outcome.Failed,
		"skipped":   outcome.Skipped,
		"detail":    outcome.Detail,
	})
}

// SyncCollection pushes the sheet to the e-commerce platform
func (h *CurationHandler) SyncCollection(c *gin.Context) {
	if err := h.service.SyncCollection(c.Request.Context(), h.collection(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// GetAudit returns the newest edit-trail entries
func (h *CurationHandler) GetAudit(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	entries, err := h.service.RecentAudit(c.Request.Context(), h.collection(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// StartWizard opens the guided-fix session for a collection
func (h *CurationHandler) StartWizard(c *gin.Context) {
	state, err := h.service.StartWizard(h.collection(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// WizardState returns the active session
func (h *CurationHandler) WizardState(c *gin.Context) {
	state, collection, err := h.service.WizardState()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collection": collection, "state": state})
}

// WizardAdvance moves to the next queued product
func (h *CurationHandler) WizardAdvance(c *gin.Context) {
	h.wizardTransition(c, h.service.WizardAdvance)
}

// WizardRetreat steps back one product
func (h *CurationHandler) WizardRetreat(c *gin.Context) {
	h.wizardTransition(c, h.service.WizardRetreat)
}

// WizardRecordFix counts a reported successful save
func (h *CurationHandler) WizardRecordFix(c *gin.Context) {
	h.wizardTransition(c, h.service.WizardRecordFix)
}

// WizardExit discards the session
func (h *CurationHandler) WizardExit(c *gin.Context) {
	h.service.WizardExit()
	c.JSON(http.StatusOK, gin.H{"status": "exited"})
}

func (h *CurationHandler) wizardTransition(c *gin.Context, transition func() (wizard.State, error)) {
	state, err := transition()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
