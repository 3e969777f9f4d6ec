package reviews

import (
	"encoding/json"
	"net/http"

	"donorscout/backend/handlers/auth"
	"donorscout/backend/services/store"
)

// GetReviewsHandler returns the trust-center review feed, newest first.
func GetReviewsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if _, err := auth.GetUserIDFromToken(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		json.NewEncoder(w).Encode(store.Reviews())
	}
}

// AddReviewHandler records an unverified user-submitted donor review.
func AddReviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if _, err := auth.GetUserIDFromToken(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var reviewRequest struct {
			Rating  int    `json:"rating"`
			Comment string `json:"comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&reviewRequest); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
			return
		}
		if reviewRequest.Rating < 1 || reviewRequest.Rating > 5 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Rating must be between 1 and 5"})
			return
		}

		review := store.AddReview(reviewRequest.Rating, reviewRequest.Comment)
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(review)
	}
}
