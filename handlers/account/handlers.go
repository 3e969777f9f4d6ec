package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/brianvoe/gofakeit/v6"

	"donorscout/backend/handlers/auth"
	"donorscout/backend/services/store"
)

// LoginActivity is a mocked sign-in record for the security portal. The
// product has no real session tracking; entries are generated per request.
type LoginActivity struct {
	ID        string `json:"id"`
	Device    string `json:"device"`
	Location  string `json:"location"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
	IsCurrent bool   `json:"is_current"`
}

var twoFactorCodePattern = regexp.MustCompile(`^\d{6}$`)

// GetAccountHandler returns the signed-in user's account with a security
// score derived from the two-factor flag.
func GetAccountHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		acct, err := st.AccountByID(userID)
		if err != nil {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"user":           acct,
			"security_score": securityScore(acct),
		})
	}
}

// UpdateAccountHandler changes the user's name or email.
func UpdateAccountHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		var updateRequest struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&updateRequest); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
			return
		}

		acct, err := st.UpdateAccount(userID, updateRequest.Name, updateRequest.Email)
		if err != nil {
			if errors.Is(err, store.ErrEmailExists) {
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(map[string]string{"error": "Email already exists"})
				return
			}
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}

		json.NewEncoder(w).Encode(acct)
	}
}

// EnableTwoFactorHandler turns on two-factor with a mock verification code:
// any six-digit code is accepted, nothing is actually provisioned.
func EnableTwoFactorHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		var codeRequest struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&codeRequest); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
			return
		}
		if !twoFactorCodePattern.MatchString(codeRequest.Code) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Verification code must be 6 digits"})
			return
		}

		if err := st.SetTwoFactor(userID, true); err != nil {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]bool{"two_factor_enabled": true})
	}
}

// DisableTwoFactorHandler turns two-factor off directly.
func DisableTwoFactorHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		if err := st.SetTwoFactor(userID, false); err != nil {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]bool{"two_factor_enabled": false})
	}
}

// GetLoginActivityHandler returns mocked recent sign-ins, current session
// first.
func GetLoginActivityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if _, err := auth.GetUserIDFromToken(r); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		activity := []LoginActivity{
			{
				ID:        "1",
				Device:    "MacBook Pro • Chrome",
				Location:  fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.CountryAbr()),
				IP:        r.RemoteAddr,
				Timestamp: "Just now",
				IsCurrent: true,
			},
			{
				ID:        "2",
				Device:    fmt.Sprintf("%s • Safari", gofakeit.ProductName()),
				Location:  fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.CountryAbr()),
				IP:        gofakeit.IPv4Address(),
				Timestamp: "2 hours ago",
			},
			{
				ID:        "3",
				Device:    "Windows PC • Edge",
				Location:  fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.CountryAbr()),
				IP:        gofakeit.IPv4Address(),
				Timestamp: "3 days ago",
			},
		}
		json.NewEncoder(w).Encode(activity)
	}
}

func securityScore(acct *store.Account) int {
	if acct.TwoFactorEnabled {
		return 95
	}
	return 65
}
