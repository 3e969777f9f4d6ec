package billing

import (
	"encoding/json"
	"log"
	"net/http"

	"donorscout/backend/handlers/auth"
	"donorscout/backend/services/store"
)

// Plan describes a subscription tier. Billing is mocked: upgrading and
// cancelling just flip the session's pro flag, no payment is processed.
type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Features []string `json:"features"`
}

var plans = []Plan{
	{
		ID:    "free",
		Name:  "Discovery",
		Price: "$0",
		Features: []string{
			"Donor discovery search",
			"Grounded funding-landscape analysis",
			"Contact tracking and CSV export",
		},
	},
	{
		ID:    "pro",
		Name:  "Impact Pro",
		Price: "$49/mo",
		Features: []string{
			"Everything in Discovery",
			"AI outreach email drafting",
			"Full grant proposal wizard",
			"Save drafts for later",
		},
	},
}

// GetPlansHandler lists the available tiers and the user's current one.
func GetPlansHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		current := "free"
		if st.IsPro(userID) {
			current = "pro"
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"plans":   plans,
			"current": current,
		})
	}
}

// UpgradeHandler switches the session to the pro tier.
func UpgradeHandler(st *store.Store) http.HandlerFunc {
	return setTierHandler(st, true)
}

// CancelHandler drops the session back to the free tier.
func CancelHandler(st *store.Store) http.HandlerFunc {
	return setTierHandler(st, false)
}

func setTierHandler(st *store.Store, pro bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		st.SetPro(userID, pro)
		log.Printf("User %d subscription set to pro=%v", userID, pro)
		json.NewEncoder(w).Encode(map[string]bool{"is_pro": pro})
	}
}
