package drafts

import (
	"encoding/json"
	"net/http"

	"donorscout/backend/handlers/auth"
	"donorscout/backend/services/store"
)

// GetDraftsHandler lists the user's saved proposals and outreach emails,
// most recently saved first.
func GetDraftsHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		list := st.Drafts(userID)
		if list == nil {
			list = []store.DraftProposal{}
		}
		json.NewEncoder(w).Encode(list)
	}
}
