package discovery

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"donorscout/backend/handlers/auth"
	"donorscout/backend/services/gemini"
	"donorscout/backend/services/store"
)

// Generator is the slice of the generation client discovery needs.
type Generator interface {
	FindDonors(ctx context.Context, category, region string) (*gemini.SearchResult, error)
	GenerateOutreachDraft(ctx context.Context, donorName, donorType string, donorFocus []string, sector string) (string, error)
}

// SearchHandler runs donor discovery for a sector and region. It requires a
// completed organization profile and replaces any prior result wholesale.
func SearchHandler(st *store.Store, gen Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		if st.Profile(userID) == nil {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "Complete your organization profile to unlock search"})
			return
		}

		var searchRequest struct {
			Category string `json:"category"`
			Region   string `json:"region"`
		}
		if err := json.NewDecoder(r.Body).Decode(&searchRequest); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
			return
		}
		if searchRequest.Category == "" || searchRequest.Region == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Category and region are required"})
			return
		}

		result, err := gen.FindDonors(r.Context(), searchRequest.Category, searchRequest.Region)
		if err != nil {
			log.Printf("Donor search failed for user %d: %v", userID, err)
			st.ClearSearchResult(userID)
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"error": "Failed to fetch donor data. Please try again."})
			return
		}

		st.SetSearchResult(userID, searchRequest.Category, result)
		json.NewEncoder(w).Encode(resultResponse(st, userID, result, searchRequest.Category))
	}
}

// GetResultHandler returns the current search result with per-lead
// interaction state.
func GetResultHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		result, sector := st.SearchResult(userID)
		if result == nil {
			http.Error(w, "No search result", http.StatusNotFound)
			return
		}

		json.NewEncoder(w).Encode(resultResponse(st, userID, result, sector))
	}
}

type searchResponse struct {
	Sector       string                           `json:"sector"`
	Analysis     string                           `json:"analysis"`
	Leads        []gemini.DonorLead               `json:"leads"`
	Sources      []gemini.GroundingSource         `json:"sources"`
	Interactions map[string]store.LeadInteraction `json:"interactions"`
}

func resultResponse(st *store.Store, userID int, result *gemini.SearchResult, sector string) searchResponse {
	return searchResponse{
		Sector:       sector,
		Analysis:     result.Analysis,
		Leads:        result.Leads,
		Sources:      result.Sources,
		Interactions: st.Interactions(userID),
	}
}
