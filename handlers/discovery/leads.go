package discovery

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"donorscout/backend/handlers/auth"
	"donorscout/backend/services/store"
)

// upgradeRequired writes the pro-gate response: the action was not performed
// and the client should take the user to billing.
func upgradeRequired(w http.ResponseWriter) {
	w.WriteHeader(http.StatusPaymentRequired)
	json.NewEncoder(w).Encode(map[string]string{
		"error":    "Pro subscription required",
		"redirect": "billing",
	})
}

// ToggleContactedHandler flips a lead's contact status. Toggling off discards
// the record and its notes.
func ToggleContactedHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		leadID := mux.Vars(r)["id"]
		if _, err := st.Lead(userID, leadID); err != nil {
			writeLeadError(w, err)
			return
		}

		if _, err := st.ToggleContacted(userID, leadID); err != nil {
			writeLeadError(w, err)
			return
		}

		json.NewEncoder(w).Encode(st.Interaction(userID, leadID))
	}
}

// BeginNotesHandler opens the exclusive notes edit session for a lead and
// returns the scratch buffer seeded from the existing note.
func BeginNotesHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		leadID := mux.Vars(r)["id"]
		scratch, err := st.BeginNotes(userID, leadID)
		if err != nil {
			writeLeadError(w, err)
			return
		}

		json.NewEncoder(w).Encode(map[string]string{"scratch": scratch})
	}
}

// SaveNotesHandler commits the submitted notes and exits edit mode.
func SaveNotesHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		var notesRequest struct {
			Notes string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&notesRequest); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
			return
		}

		leadID := mux.Vars(r)["id"]
		if err := st.SaveNotes(userID, leadID, notesRequest.Notes); err != nil {
			writeLeadError(w, err)
			return
		}

		json.NewEncoder(w).Encode(st.Interaction(userID, leadID))
	}
}

// CancelNotesHandler discards the scratch buffer without committing.
func CancelNotesHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		leadID := mux.Vars(r)["id"]
		if err := st.CancelNotes(userID, leadID); err != nil {
			writeLeadError(w, err)
			return
		}

		json.NewEncoder(w).Encode(st.Interaction(userID, leadID))
	}
}

// CopyHandler records copy-to-clipboard feedback for one target on one lead.
// The flag reverts on its own after the 2-second window.
func CopyHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		var copyRequest struct {
			Target string `json:"target"`
		}
		if err := json.NewDecoder(r.Body).Decode(&copyRequest); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
			return
		}
		if copyRequest.Target != "email" && copyRequest.Target != "draft" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Target must be 'email' or 'draft'"})
			return
		}

		leadID := mux.Vars(r)["id"]
		if _, err := st.Lead(userID, leadID); err != nil {
			writeLeadError(w, err)
			return
		}

		st.MarkCopied(userID, leadID+":"+copyRequest.Target)
		json.NewEncoder(w).Encode(st.Interaction(userID, leadID))
	}
}

// OutreachHandler generates an outreach email draft for a lead. Pro-gated:
// on the free tier no generation call is issued. A second request for the
// same lead while one is pending is rejected; different leads may overlap.
func OutreachHandler(st *store.Store, gen Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		if !st.IsPro(userID) {
			upgradeRequired(w)
			return
		}

		leadID := mux.Vars(r)["id"]
		lead, err := st.Lead(userID, leadID)
		if err != nil {
			writeLeadError(w, err)
			return
		}

		if err := st.StartOutreach(userID, leadID); err != nil {
			writeLeadError(w, err)
			return
		}

		_, sector := st.SearchResult(userID)
		draft, err := gen.GenerateOutreachDraft(r.Context(), lead.Name, lead.Type, lead.FocusAreas, sector)
		if err != nil {
			// Back to idle with no draft; the failure is only visible on
			// the debug bus.
			log.Printf("Outreach draft failed for user %d lead %s: %v", userID, leadID, err)
			st.FinishOutreach(userID, leadID, "", true)
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"error": "Failed to generate draft. Please try again."})
			return
		}

		st.FinishOutreach(userID, leadID, draft, false)
		json.NewEncoder(w).Encode(st.Interaction(userID, leadID))
	}
}

// SaveOutreachHandler saves a generated outreach draft to the drafts list.
// Pro-gated. The save feedback flag reverts after the 3-second window.
func SaveOutreachHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		if !st.IsPro(userID) {
			upgradeRequired(w)
			return
		}

		leadID := mux.Vars(r)["id"]
		lead, err := st.Lead(userID, leadID)
		if err != nil {
			writeLeadError(w, err)
			return
		}

		text, ok := st.OutreachDraft(userID, leadID)
		if !ok {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": "No generated draft to save"})
			return
		}

		draft := store.DraftProposal{
			ID:           uuid.NewString(),
			DonorName:    lead.Name,
			ProjectTitle: "Initial Outreach Email",
			Content:      text,
			CreatedAt:    time.Now(),
		}
		st.SaveDraft(userID, draft)
		st.MarkDraftSaved(userID, leadID)
		json.NewEncoder(w).Encode(draft)
	}
}

// MailtoHandler returns a mail-composition link for a lead. When a generated
// draft is ready it is carried as the message body.
func MailtoHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		leadID := mux.Vars(r)["id"]
		lead, err := st.Lead(userID, leadID)
		if err != nil {
			writeLeadError(w, err)
			return
		}

		link := "mailto:" + lead.Email
		if draft, ok := st.OutreachDraft(userID, leadID); ok {
			link = BuildMailtoURL(lead.Email, "Partnership Inquiry", draft)
		}
		json.NewEncoder(w).Encode(map[string]string{"mailto": link})
	}
}

// BuildMailtoURL assembles a mailto: link with URL-encoded subject and body.
func BuildMailtoURL(email, subject, body string) string {
	// QueryEscape uses '+' for spaces, which mail clients do not decode.
	encode := func(s string) string {
		return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	}
	return "mailto:" + email + "?subject=" + encode(subject) + "&body=" + encode(body)
}

func writeLeadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNoSearch):
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "No search result"})
	case errors.Is(err, store.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Lead not found"})
	case errors.Is(err, store.ErrNotContacted):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "Lead has not been contacted"})
	case errors.Is(err, store.ErrNotEditing):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "No notes edit session for this lead"})
	case errors.Is(err, store.ErrDraftPending):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "A draft is already generating for this lead"})
	default:
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Internal error"})
	}
}
