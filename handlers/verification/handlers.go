package verification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"donorscout/backend/handlers/auth"
	"donorscout/backend/services/gemini"
)

// Verifier is the slice of the generation client this package needs.
type Verifier interface {
	VerifyNonprofit(ctx context.Context, name, regID, region string) (*gemini.VerificationInfo, error)
}

// VerifyHandler checks an organization's registration standing via a grounded
// registry search. Each request's result replaces the prior one client-side.
func VerifyHandler(gen Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if _, err := auth.GetUserIDFromToken(r); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		var verifyRequest struct {
			Name           string `json:"name"`
			RegistrationID string `json:"registration_id"`
			Region         string `json:"region"`
		}
		if err := json.NewDecoder(r.Body).Decode(&verifyRequest); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
			return
		}
		if verifyRequest.Name == "" || verifyRequest.RegistrationID == "" || verifyRequest.Region == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Name, registration ID, and region are required"})
			return
		}

		info, err := gen.VerifyNonprofit(r.Context(), verifyRequest.Name, verifyRequest.RegistrationID, verifyRequest.Region)
		if err != nil {
			log.Printf("Verification failed for %q: %v", verifyRequest.Name, err)
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"error": "Verification request failed. Please try again."})
			return
		}

		json.NewEncoder(w).Encode(info)
	}
}
