package proposal

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"donorscout/backend/handlers/auth"
	"donorscout/backend/handlers/discovery"
	"donorscout/backend/services/store"
	"donorscout/backend/services/wizard"
)

// OpenHandler starts a proposal wizard for a donor target. Pro-gated: free
// tier users are redirected to billing instead.
func OpenHandler(st *store.Store, manager *wizard.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		if !st.IsPro(userID) {
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(map[string]string{
				"error":    "Pro subscription required",
				"redirect": "billing",
			})
			return
		}

		var openRequest struct {
			LeadID string `json:"lead_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&openRequest); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
			return
		}

		lead, err := st.Lead(userID, openRequest.LeadID)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Lead not found"})
			return
		}

		wiz := manager.Open(userID, lead)
		json.NewEncoder(w).Encode(snapshotWithContext(st, userID, wiz))
	}
}

// GetHandler returns the wizard's current state, including the progress
// indicator while a proposal is generating.
func GetHandler(st *store.Store, manager *wizard.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, wiz, ok := lookupWizard(w, r, manager)
		if !ok {
			return
		}
		json.NewEncoder(w).Encode(snapshotWithContext(st, userID, wiz))
	}
}

// ConfirmHandler advances the wizard from context confirmation to project
// intake. Requires the organization profile to exist.
func ConfirmHandler(st *store.Store, manager *wizard.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, wiz, ok := lookupWizard(w, r, manager)
		if !ok {
			return
		}

		if err := wiz.Confirm(orgContext(st, userID)); err != nil {
			writeWizardError(w, err)
			return
		}
		json.NewEncoder(w).Encode(snapshotWithContext(st, userID, wiz))
	}
}

// SubmitHandler validates the intake form and starts proposal generation,
// moving the wizard into its loading sub-state.
func SubmitHandler(st *store.Store, manager *wizard.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, wiz, ok := lookupWizard(w, r, manager)
		if !ok {
			return
		}

		var intake wizard.Intake
		if err := json.NewDecoder(r.Body).Decode(&intake); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
			return
		}

		if err := wiz.Submit(intake, orgContext(st, userID)); err != nil {
			writeWizardError(w, err)
			return
		}
		json.NewEncoder(w).Encode(snapshotWithContext(st, userID, wiz))
	}
}

// ReviseHandler returns a completed wizard to the intake form.
func ReviseHandler(st *store.Store, manager *wizard.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, wiz, ok := lookupWizard(w, r, manager)
		if !ok {
			return
		}

		if err := wiz.Revise(); err != nil {
			writeWizardError(w, err)
			return
		}
		json.NewEncoder(w).Encode(snapshotWithContext(st, userID, wiz))
	}
}

// SaveHandler stores the generated proposal in the drafts list.
func SaveHandler(st *store.Store, manager *wizard.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, wiz, ok := lookupWizard(w, r, manager)
		if !ok {
			return
		}

		text, err := wiz.Proposal()
		if err != nil {
			writeWizardError(w, err)
			return
		}

		draft := store.DraftProposal{
			ID:           uuid.NewString(),
			DonorName:    wiz.Donor.Name,
			ProjectTitle: wiz.IntakeData().ProjectTitle,
			Content:      text,
			CreatedAt:    time.Now(),
		}
		st.SaveDraft(userID, draft)
		json.NewEncoder(w).Encode(draft)
	}
}

// CloseHandler discards the wizard and any in-progress data.
func CloseHandler(manager *wizard.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		if err := manager.Close(userID, mux.Vars(r)["id"]); err != nil {
			writeWizardError(w, err)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "Wizard closed"})
	}
}

// stateResponse decorates the wizard snapshot with the org context shown in
// step one and a mail link once the proposal is ready.
type stateResponse struct {
	wizard.State
	Organization *store.NonprofitProfile `json:"organization,omitempty"`
	Mailto       string                  `json:"mailto,omitempty"`
}

func snapshotWithContext(st *store.Store, userID int, wiz *wizard.Wizard) stateResponse {
	snap := wiz.Snapshot()
	resp := stateResponse{State: snap, Organization: st.Profile(userID)}
	if snap.Proposal != "" && !snap.Generating {
		resp.Mailto = discovery.BuildMailtoURL(
			wiz.Donor.Email,
			"Grant Proposal: "+snap.Intake.ProjectTitle,
			snap.Proposal,
		)
	}
	return resp
}

func orgContext(st *store.Store, userID int) *wizard.Profile {
	p := st.Profile(userID)
	if p == nil {
		return nil
	}
	return &wizard.Profile{Name: p.Name, Mission: p.Mission}
}

func lookupWizard(w http.ResponseWriter, r *http.Request, manager *wizard.Manager) (int, *wizard.Wizard, bool) {
	userID, err := auth.GetUserIDFromToken(r)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
		return 0, nil, false
	}

	wiz, err := manager.Get(userID, mux.Vars(r)["id"])
	if err != nil {
		writeWizardError(w, err)
		return 0, nil, false
	}
	return userID, wiz, true
}

func writeWizardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wizard.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Wizard not found"})
	case errors.Is(err, wizard.ErrNoProfile):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "Please complete your Organization Profile first."})
	case errors.Is(err, wizard.ErrMissingFields):
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "All project fields are required"})
	case errors.Is(err, wizard.ErrGenerating):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "Proposal generation in progress"})
	case errors.Is(err, wizard.ErrBadStep):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "Action not valid in this step"})
	default:
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Internal error"})
	}
}
