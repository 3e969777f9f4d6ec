package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/exp/rand"

	"donorscout/backend/handlers/account"
	"donorscout/backend/handlers/auth"
	"donorscout/backend/handlers/billing"
	"donorscout/backend/handlers/debug"
	"donorscout/backend/handlers/discovery"
	"donorscout/backend/handlers/drafts"
	"donorscout/backend/handlers/profile"
	"donorscout/backend/handlers/proposal"
	"donorscout/backend/handlers/reviews"
	"donorscout/backend/handlers/verification"
	"donorscout/backend/services/debugbus"
	"donorscout/backend/services/gemini"
	"donorscout/backend/services/store"
	"donorscout/backend/services/wizard"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	// Check required environment variables
	requiredEnvVars := []string{"GEMINI_API_KEY", "JWT_SECRET_KEY"}
	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
		log.Printf("Environment variable %s is set", envVar)
	}

	// Initialize random seed
	rand.Seed(uint64(time.Now().UnixNano()))

	st := store.New()
	bus := debugbus.New()
	recorder := debugbus.NewRecorder(bus)

	gem, err := gemini.NewClient(context.Background(), gemini.Config{
		APIKey:     os.Getenv("GEMINI_API_KEY"),
		FlashModel: os.Getenv("GEMINI_FLASH_MODEL"),
		ProModel:   os.Getenv("GEMINI_PRO_MODEL"),
	}, bus)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}

	wizards := wizard.NewManager(gem)

	// Create router
	r := mux.NewRouter()

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	})

	// Public routes (no auth required)
	r.HandleFunc("/api/auth/signup", auth.SignupHandler(st)).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/login", auth.LoginHandler(st)).Methods("POST", "OPTIONS")

	// Create a subrouter for protected routes
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(auth.AuthMiddleware)

	protected.HandleFunc("/auth/logout", auth.LogoutHandler(st)).Methods("POST", "OPTIONS")

	// Organization profile routes
	protected.HandleFunc("/me/profile", profile.GetProfileHandler(st)).Methods("GET", "OPTIONS")
	protected.HandleFunc("/me/profile", profile.UpdateProfileHandler(st)).Methods("PUT", "OPTIONS")

	// Donor discovery routes
	protected.HandleFunc("/discovery/search", discovery.SearchHandler(st, gem)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/discovery/result", discovery.GetResultHandler(st)).Methods("GET", "OPTIONS")
	protected.HandleFunc("/discovery/export", discovery.ExportCSVHandler(st)).Methods("GET", "OPTIONS")

	// Lead interaction routes
	protected.HandleFunc("/leads/{id}/contacted", discovery.ToggleContactedHandler(st)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/leads/{id}/notes/edit", discovery.BeginNotesHandler(st)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/leads/{id}/notes/save", discovery.SaveNotesHandler(st)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/leads/{id}/notes/cancel", discovery.CancelNotesHandler(st)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/leads/{id}/copy", discovery.CopyHandler(st)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/leads/{id}/outreach", discovery.OutreachHandler(st, gem)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/leads/{id}/outreach/save", discovery.SaveOutreachHandler(st)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/leads/{id}/mailto", discovery.MailtoHandler(st)).Methods("GET", "OPTIONS")

	// Registry verification
	protected.HandleFunc("/verification", verification.VerifyHandler(gem)).Methods("POST", "OPTIONS")

	// Proposal wizard routes
	protected.HandleFunc("/proposals", proposal.OpenHandler(st, wizards)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/proposals/{id}", proposal.GetHandler(st, wizards)).Methods("GET", "OPTIONS")
	protected.HandleFunc("/proposals/{id}", proposal.CloseHandler(wizards)).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/proposals/{id}/confirm", proposal.ConfirmHandler(st, wizards)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/proposals/{id}/submit", proposal.SubmitHandler(st, wizards)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/proposals/{id}/revise", proposal.ReviseHandler(st, wizards)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/proposals/{id}/save", proposal.SaveHandler(st, wizards)).Methods("POST", "OPTIONS")

	// Saved drafts
	protected.HandleFunc("/drafts", drafts.GetDraftsHandler(st)).Methods("GET", "OPTIONS")

	// Billing routes
	protected.HandleFunc("/billing/plans", billing.GetPlansHandler(st)).Methods("GET", "OPTIONS")
	protected.HandleFunc("/billing/upgrade", billing.UpgradeHandler(st)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/billing/cancel", billing.CancelHandler(st)).Methods("POST", "OPTIONS")

	// Account security routes
	protected.HandleFunc("/account", account.GetAccountHandler(st)).Methods("GET", "OPTIONS")
	protected.HandleFunc("/account", account.UpdateAccountHandler(st)).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/account/2fa", account.EnableTwoFactorHandler(st)).Methods("POST", "OPTIONS")
	protected.HandleFunc("/account/2fa", account.DisableTwoFactorHandler(st)).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/account/activity", account.GetLoginActivityHandler()).Methods("GET", "OPTIONS")

	// Review routes
	protected.HandleFunc("/reviews", reviews.GetReviewsHandler()).Methods("GET", "OPTIONS")
	protected.HandleFunc("/reviews", reviews.AddReviewHandler()).Methods("POST", "OPTIONS")

	// Debug console routes
	protected.HandleFunc("/debug/logs", debug.GetLogsHandler(recorder)).Methods("GET", "OPTIONS")
	protected.HandleFunc("/debug/logs", debug.ClearLogsHandler(recorder)).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/ws/debug", debug.HandleDebugWebSocket(bus))

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, c.Handler(r)))
}
