package store

import (
	"time"

	"donorscout/backend/services/gemini"
)

// Account is a registered user. The password hash only ever lives in process
// memory; there is no durable identity store in this product.
type Account struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
}

// NonprofitProfile is the acting organization. It must be completed before
// search or proposal generation is unlocked.
type NonprofitProfile struct {
	Name            string `json:"name"`
	Mission         string `json:"mission"`
	ImpactStatement string `json:"impact_statement"`
	Website         string `json:"website"`
}

// DraftProposal is a saved outreach email or full proposal.
type DraftProposal struct {
	ID           string    `json:"id"`
	DonorName    string    `json:"donor_name"`
	ProjectTitle string    `json:"project_title"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

// ContactRecord is outreach tracking for one lead.
type ContactRecord struct {
	Date  string `json:"date"`
	Notes string `json:"notes"`
}

// OutreachStatus is the per-lead draft-generation state.
type OutreachStatus string

const (
	OutreachIdle       OutreachStatus = "idle"
	OutreachGenerating OutreachStatus = "generating"
	OutreachReady      OutreachStatus = "ready"
)

type outreachState struct {
	status OutreachStatus
	text   string
}

// LeadInteraction is the externally visible interaction state for one lead.
type LeadInteraction struct {
	Contacted    bool           `json:"contacted"`
	Contact      *ContactRecord `json:"contact,omitempty"`
	EditingNotes bool           `json:"editing_notes"`
	NoteScratch  string         `json:"note_scratch,omitempty"`
	DraftStatus  OutreachStatus `json:"draft_status"`
	DraftText    string         `json:"draft_text,omitempty"`
	CopiedEmail  bool           `json:"copied_email"`
	CopiedDraft  bool           `json:"copied_draft"`
	DraftSaved   bool           `json:"draft_saved"`
}

// Review is feedback on a donor, shown on the trust center.
type Review struct {
	ID         string `json:"id"`
	DonorName  string `json:"donor_name"`
	DonorType  string `json:"donor_type"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	Date       string `json:"date"`
	IsVerified bool   `json:"is_verified"`
}

// session holds one user's ephemeral application state. Nothing here survives
// a process restart.
type session struct {
	profile       *NonprofitProfile
	isPro         bool
	drafts        []DraftProposal
	result        *gemini.SearchResult
	searchSector  string
	contactLog    map[string]ContactRecord
	outreach      map[string]*outreachState
	copied        map[string]time.Time // copy target -> feedback expiry
	saved         map[string]time.Time // lead ID -> save-feedback expiry
	editingNotes  string               // lead ID with the exclusive edit session
	noteScratch   string
}
