package gemini

// DonorLead is a prospective funder surfaced by discovery. ID is a stable
// hash of name+email so interaction state survives re-renders but not a new
// search.
type DonorLead struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Type           string   `json:"type"` // Foundation, Corporate, Individual, Government
	RelevanceScore int      `json:"relevance_score"`
	FocusAreas     []string `json:"focus_areas"`
	Description    string   `json:"description"`
	Email          string   `json:"email"`
}

// GroundingSource is a web citation backing a generated narrative.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// SearchResult is one discovery call's full output.
type SearchResult struct {
	Analysis string            `json:"analysis"`
	Leads    []DonorLead       `json:"leads"`
	Sources  []GroundingSource `json:"sources"`
}

// VerificationInfo is the result of a registry-verification check.
type VerificationInfo struct {
	Status              string            `json:"status"` // Verified, Unverified, Pending, Flagged
	OfficialName        string            `json:"official_name"`
	RegistrationID      string            `json:"registration_id"`
	TaxStatus           string            `json:"tax_status"`
	LastUpdated         string            `json:"last_updated"`
	VerificationSources []GroundingSource `json:"verification_sources"`
	Summary             string            `json:"summary"`
}

// ProjectInfo carries the proposal wizard's intake fields merged with the
// organization's name and mission.
type ProjectInfo struct {
	ProjectTitle    string `json:"project_title"`
	ProjectGoals    string `json:"project_goals"`
	AmountRequested string `json:"amount_requested"`
	Timeline        string `json:"timeline"`
	Beneficiaries   string `json:"beneficiaries"`
	NonprofitName   string `json:"nonprofit_name"`
	Mission         string `json:"mission"`
}
