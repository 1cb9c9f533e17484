package ui

import (
	"net/http"

	"catalogops/domain/catalog"
	"catalogops/internal/wizard"
)

// handleWizardStart opens a guided-fix session for the collection and renders
// the wizard panel.
func (a *App) handleWizardStart(w http.ResponseWriter, r *http.Request) {
	collection := collectionParam(r)
	state, err := a.service.StartWizard(collection)
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderWizard(w, collection, state)
}

func (a *App) handleWizardAdvance(w http.ResponseWriter, r *http.Request) {
	a.wizardTransition(w, a.service.WizardAdvance)
}

func (a *App) handleWizardRetreat(w http.ResponseWriter, r *http.Request) {
	a.wizardTransition(w, a.service.WizardRetreat)
}

func (a *App) handleWizardFixed(w http.ResponseWriter, r *http.Request) {
	a.wizardTransition(w, a.service.WizardRecordFix)
}

// handleWizardExit discards the session and clears the panel.
func (a *App) handleWizardExit(w http.ResponseWriter, r *http.Request) {
	a.service.WizardExit()
	w.WriteHeader(http.StatusOK)
}

func (a *App) wizardTransition(w http.ResponseWriter, transition func() (wizard.State, error)) {
	state, err := transition()
	if err != nil {
		a.renderError(w, err)
		return
	}
	_, collection, stateErr := a.service.WizardState()
	if stateErr != nil {
		a.renderError(w, stateErr)
		return
	}
	a.renderWizard(w, collection, state)
}

func (a *App) renderWizard(w http.ResponseWriter, collection catalog.Collection, state wizard.State) {
	a.renderTemplate(w, "wizard.html", map[string]interface{}{
		"Collection": collection,
		"State":      state,
		"Position":   state.Index + 1,
	})
}
