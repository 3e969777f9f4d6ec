package profile

import (
	"encoding/json"
	"log"
	"net/http"

	"donorscout/backend/handlers/auth"
	"donorscout/backend/services/store"
)

// GetProfileHandler returns the authenticated user's organization profile.
// A 404 means the profile form has not been submitted yet; search and
// proposal generation stay locked until it is.
func GetProfileHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		p := st.Profile(userID)
		if p == nil {
			http.Error(w, "Profile not found", http.StatusNotFound)
			return
		}

		json.NewEncoder(w).Encode(p)
	}
}

// UpdateProfileHandler creates or replaces the organization profile.
func UpdateProfileHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var p store.NonprofitProfile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
			return
		}

		if p.Name == "" || p.Mission == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Organization name and mission are required"})
			return
		}

		st.SetProfile(userID, p)
		log.Printf("Updated organization profile for user %d: %s", userID, p.Name)
		json.NewEncoder(w).Encode(p)
	}
}
