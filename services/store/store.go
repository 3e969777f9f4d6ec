package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"donorscout/backend/services/gemini"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrEmailExists  = errors.New("email already exists")
	ErrNoProfile    = errors.New("organization profile required")
	ErrNoSearch     = errors.New("no active search result")
	ErrNotContacted = errors.New("lead has not been contacted")
	ErrNotEditing   = errors.New("no notes edit session for this lead")
	ErrDraftPending = errors.New("a draft is already generating for this lead")
)

// Feedback windows for the ephemeral copy/save flags.
const (
	copyFeedbackWindow = 2 * time.Second
	saveFeedbackWindow = 3 * time.Second
)

// Store owns all process state: accounts and per-user sessions. It is the
// composition root's single mutable resource; handlers mutate it only through
// the action methods below.
type Store struct {
	mu       sync.Mutex
	accounts map[int]*Account
	byEmail  map[string]int
	sessions map[int]*session
	nextID   int

	// Now is injectable so feedback-window expiry is testable.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		accounts: make(map[int]*Account),
		byEmail:  make(map[string]int),
		sessions: make(map[int]*session),
		Now:      time.Now,
	}
}

// CreateAccount registers a new user and opens a session. New sessions start
// on the pro tier, matching the product's current trial behavior.
func (s *Store) CreateAccount(name, email, passwordHash string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, exists := s.byEmail[key]; exists {
		return nil, ErrEmailExists
	}

	s.nextID++
	acct := &Account{
		ID:           s.nextID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.Now(),
	}
	s.accounts[acct.ID] = acct
	s.byEmail[key] = acct.ID
	s.sessions[acct.ID] = newSession(true)
	return acct, nil
}

// AccountByEmail looks up an account by email, case-insensitively.
func (s *Store) AccountByEmail(email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *s.accounts[id]
	return &copy, nil
}

// AccountByID returns a copy of the account.
func (s *Store) AccountByID(id int) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *acct
	return &copy, nil
}

// UpdateAccount changes the account's name and email.
func (s *Store) UpdateAccount(id int, name, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if email != "" && !strings.EqualFold(email, acct.Email) {
		key := strings.ToLower(email)
		if _, exists := s.byEmail[key]; exists {
			return nil, ErrEmailExists
		}
		delete(s.byEmail, strings.ToLower(acct.Email))
		s.byEmail[key] = id
		acct.Email = email
	}
	if name != "" {
		acct.Name = name
	}
	copy := *acct
	return &copy, nil
}

// SetTwoFactor toggles the account's two-factor flag.
func (s *Store) SetTwoFactor(id int, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	acct.TwoFactorEnabled = enabled
	return nil
}

// OpenSession re-opens the user's session on login. Signing in always
// restores the pro trial; everything else in an existing session is kept.
func (s *Store) OpenSession(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		s.sessions[userID] = newSession(true)
		return
	}
	sess.isPro = true
}

// SignOut resets the tier flag and the current search, and nothing else: the
// organization profile and saved drafts deliberately survive.
func (s *Store) SignOut(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return
	}
	sess.isPro = false
	sess.result = nil
	sess.searchSector = ""
	sess.clearInteractions()
}

// Profile returns the user's organization profile, or nil.
func (s *Store) Profile(userID int) *NonprofitProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	if sess.profile == nil {
		return nil
	}
	copy := *sess.profile
	return &copy
}

// SetProfile creates or replaces the organization profile.
func (s *Store) SetProfile(userID int, p NonprofitProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(userID).profile = &p
}

// IsPro reports the user's tier flag.
func (s *Store) IsPro(userID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session(userID).isPro
}

// SetPro flips the tier flag (the mocked billing toggle).
func (s *Store) SetPro(userID int, pro bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(userID).isPro = pro
}

// SetSearchResult replaces the current result wholesale. Per-lead interaction
// state never survives a new search.
func (s *Store) SetSearchResult(userID int, sector string, result *gemini.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	sess.result = result
	sess.searchSector = sector
	sess.clearInteractions()
}

// ClearSearchResult drops the current result (a failed search clears the
// prior one before surfacing its error).
func (s *Store) ClearSearchResult(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	sess.result = nil
	sess.searchSector = ""
	sess.clearInteractions()
}

// SearchResult returns the current result and its sector context.
func (s *Store) SearchResult(userID int) (*gemini.SearchResult, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	return sess.result, sess.searchSector
}

// Lead finds a lead in the current result by its stable ID.
func (s *Store) Lead(userID int, leadID string) (gemini.DonorLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	if sess.result == nil {
		return gemini.DonorLead{}, ErrNoSearch
	}
	for _, lead := range sess.result.Leads {
		if lead.ID == leadID {
			return lead, nil
		}
	}
	return gemini.DonorLead{}, ErrNotFound
}

// SaveDraft prepends a draft to the session's append-only list.
func (s *Store) SaveDraft(userID int, draft DraftProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	sess.drafts = append([]DraftProposal{draft}, sess.drafts...)
}

// Drafts returns the saved drafts, newest first.
func (s *Store) Drafts(userID int) []DraftProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	out := make([]DraftProposal, len(sess.drafts))
	copy(out, sess.drafts)
	return out
}

// session returns the user's session, creating an empty (free-tier) one if
// the user signed out earlier.
func (s *Store) session(userID int) *session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = newSession(false)
		s.sessions[userID] = sess
	}
	return sess
}

func newSession(pro bool) *session {
	return &session{
		isPro:      pro,
		contactLog: make(map[string]ContactRecord),
		outreach:   make(map[string]*outreachState),
		copied:     make(map[string]time.Time),
		saved:      make(map[string]time.Time),
	}
}

func (sess *session) clearInteractions() {
	sess.contactLog = make(map[string]ContactRecord)
	sess.outreach = make(map[string]*outreachState)
	sess.copied = make(map[string]time.Time)
	sess.saved = make(map[string]time.Time)
	sess.editingNotes = ""
	sess.noteScratch = ""
}
