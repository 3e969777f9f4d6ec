package store

import "time"

// Per-lead interaction state: contact tracking, the exclusive notes edit
// session, outreach-draft status, and the ephemeral copy/save feedback flags.
// Everything here is keyed by the lead's stable ID.

// ToggleContacted flips a lead's contact status. Toggling on stamps the
// current local time with empty notes; toggling off discards the record and
// its notes entirely.
func (s *Store) ToggleContacted(userID int, leadID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	if sess.result == nil {
		return false, ErrNoSearch
	}
	if _, ok := sess.contactLog[leadID]; ok {
		delete(sess.contactLog, leadID)
		if sess.editingNotes == leadID {
			sess.editingNotes = ""
			sess.noteScratch = ""
		}
		return false, nil
	}
	sess.contactLog[leadID] = ContactRecord{
		Date: s.Now().Format("Jan 2, 2006, 3:04 PM"),
	}
	return true, nil
}

// BeginNotes opens the single exclusive notes edit session, seeding the
// scratch buffer from the existing note. Starting an edit on another lead
// replaces any edit already in progress.
func (s *Store) BeginNotes(userID int, leadID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	record, ok := sess.contactLog[leadID]
	if !ok {
		return "", ErrNotContacted
	}
	sess.editingNotes = leadID
	sess.noteScratch = record.Notes
	return record.Notes, nil
}

// SaveNotes commits the submitted notes into the contact record and exits
// edit mode.
func (s *Store) SaveNotes(userID int, leadID, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	if sess.editingNotes != leadID {
		return ErrNotEditing
	}
	record, ok := sess.contactLog[leadID]
	if !ok {
		return ErrNotContacted
	}
	record.Notes = notes
	sess.contactLog[leadID] = record
	sess.editingNotes = ""
	sess.noteScratch = ""
	return nil
}

// CancelNotes discards the scratch buffer without committing.
func (s *Store) CancelNotes(userID int, leadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	if sess.editingNotes != leadID {
		return ErrNotEditing
	}
	sess.editingNotes = ""
	sess.noteScratch = ""
	return nil
}

// MarkCopied flags a copy target as just-copied for the 2-second window.
// Targets are independent: copying one lead's email does not mark another's.
func (s *Store) MarkCopied(userID int, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	sess.copied[target] = s.Now().Add(copyFeedbackWindow)
}

// MarkDraftSaved flags a lead's save-to-drafts action for the 3-second window.
func (s *Store) MarkDraftSaved(userID int, leadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	sess.saved[leadID] = s.Now().Add(saveFeedbackWindow)
}

// StartOutreach moves a lead's draft state to generating. A second start for
// the same lead while one is pending is rejected; different leads may overlap.
func (s *Store) StartOutreach(userID int, leadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	if sess.result == nil {
		return ErrNoSearch
	}
	state, ok := sess.outreach[leadID]
	if ok && state.status == OutreachGenerating {
		return ErrDraftPending
	}
	sess.outreach[leadID] = &outreachState{status: OutreachGenerating}
	return nil
}

// FinishOutreach settles a lead's draft generation: ready with the text on
// success, back to idle with no draft on failure.
func (s *Store) FinishOutreach(userID int, leadID, text string, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	if failed {
		delete(sess.outreach, leadID)
		return
	}
	sess.outreach[leadID] = &outreachState{status: OutreachReady, text: text}
}

// OutreachDraft returns the generated draft text for a lead, if ready.
func (s *Store) OutreachDraft(userID int, leadID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	state, ok := sess.outreach[leadID]
	if !ok || state.status != OutreachReady {
		return "", false
	}
	return state.text, true
}

// Interaction returns the externally visible state for one lead. Feedback
// flags are computed against the clock so they revert on their own.
func (s *Store) Interaction(userID int, leadID string) LeadInteraction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session(userID).interaction(leadID, s.Now())
}

// Interactions returns the state for every lead in the current result.
func (s *Store) Interactions(userID int) map[string]LeadInteraction {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	out := make(map[string]LeadInteraction)
	if sess.result == nil {
		return out
	}
	now := s.Now()
	for _, lead := range sess.result.Leads {
		out[lead.ID] = sess.interaction(lead.ID, now)
	}
	return out
}

// ContactLog returns a copy of the contact records keyed by lead ID.
func (s *Store) ContactLog(userID int) map[string]ContactRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	out := make(map[string]ContactRecord, len(sess.contactLog))
	for id, record := range sess.contactLog {
		out[id] = record
	}
	return out
}

func (sess *session) interaction(leadID string, now time.Time) LeadInteraction {
	li := LeadInteraction{DraftStatus: OutreachIdle}

	if record, ok := sess.contactLog[leadID]; ok {
		li.Contacted = true
		copy := record
		li.Contact = &copy
	}
	if sess.editingNotes == leadID {
		li.EditingNotes = true
		li.NoteScratch = sess.noteScratch
	}
	if state, ok := sess.outreach[leadID]; ok {
		li.DraftStatus = state.status
		if state.status == OutreachReady {
			li.DraftText = state.text
		}
	}
	if expiry, ok := sess.copied[leadID+":email"]; ok && now.Before(expiry) {
		li.CopiedEmail = true
	}
	if expiry, ok := sess.copied[leadID+":draft"]; ok && now.Before(expiry) {
		li.CopiedDraft = true
	}
	if expiry, ok := sess.saved[leadID]; ok && now.Before(expiry) {
		li.DraftSaved = true
	}
	return li
}
