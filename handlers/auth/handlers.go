package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"donorscout/backend/services/store"
)

type User struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	CreatedAt        time.Time `json:"created_at"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
}

type LoginResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
	IsPro bool   `json:"is_pro"`
}

// SignupHandler handles user registration. Accounts live in process memory
// only; there is no durable identity store.
// Used by: /api/auth/signup
// Dependencies: GenerateToken
// Response: LoginResponse
func SignupHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var signupRequest struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}

		if err := json.NewDecoder(r.Body).Decode(&signupRequest); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
			return
		}

		if signupRequest.Email == "" || signupRequest.Password == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Email and password are required"})
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(signupRequest.Password), bcrypt.DefaultCost)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "Error hashing password"})
			return
		}

		name := signupRequest.Name
		if name == "" {
			name = displayName(signupRequest.Email)
		}

		acct, err := st.CreateAccount(name, signupRequest.Email, string(hashedPassword))
		if err != nil {
			if errors.Is(err, store.ErrEmailExists) {
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(map[string]string{"error": "Email already exists"})
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "Error creating user"})
			return
		}

		token, err := GenerateToken(acct.ID)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "Error generating token"})
			return
		}

		response := LoginResponse{
			ID:    acct.ID,
			Name:  acct.Name,
			Email: acct.Email,
			Token: token,
			IsPro: st.IsPro(acct.ID),
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

// LoginHandler handles user authentication. Sign-in is mocked: an unknown
// email is auto-provisioned rather than rejected, but a known email still has
// its password checked.
// Used by: /api/auth/login
// Dependencies: GenerateToken
// Response: LoginResponse
func LoginHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var loginRequest struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}

		if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		acct, err := st.AccountByEmail(loginRequest.Email)
		if errors.Is(err, store.ErrNotFound) {
			hashedPassword, hashErr := bcrypt.GenerateFromPassword([]byte(loginRequest.Password), bcrypt.DefaultCost)
			if hashErr != nil {
				http.Error(w, "Error hashing password", http.StatusInternalServerError)
				return
			}
			acct, err = st.CreateAccount(displayName(loginRequest.Email), loginRequest.Email, string(hashedPassword))
			if err != nil {
				http.Error(w, "Error creating user", http.StatusInternalServerError)
				return
			}
			log.Printf("Auto-provisioned account for %s", loginRequest.Email)
		} else if err != nil {
			http.Error(w, "Error looking up user", http.StatusInternalServerError)
			return
		} else {
			if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(loginRequest.Password)) != nil {
				http.Error(w, "Invalid credentials", http.StatusUnauthorized)
				return
			}
			st.OpenSession(acct.ID)
		}

		token, err := GenerateToken(acct.ID)
		if err != nil {
			http.Error(w, "Error generating token", http.StatusInternalServerError)
			return
		}

		response := LoginResponse{
			ID:    acct.ID,
			Name:  acct.Name,
			Email: acct.Email,
			Token: token,
			IsPro: st.IsPro(acct.ID),
		}

		json.NewEncoder(w).Encode(response)
	}
}

// LogoutHandler resets the session's tier flag and search state. The
// organization profile and saved drafts survive sign-out.
// Used by: /api/auth/logout
func LogoutHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		userID, err := GetUserIDFromToken(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		st.SignOut(userID)
		json.NewEncoder(w).Encode(map[string]string{"message": "Signed out"})
	}
}

// displayName derives a fallback name from an email's local part.
func displayName(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
