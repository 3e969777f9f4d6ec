package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchingUser(t *testing.T, s *Store) int {
	t.Helper()
	id := newUser(t, s)
	s.SetSearchResult(id, "Environment", testResult())
	return id
}

func TestToggleContactedRoundTripDiscardsNotes(t *testing.T) {
	s := New()
	id := searchingUser(t, s)

	on, err := s.ToggleContacted(id, "lead-aaaa1111")
	require.NoError(t, err)
	assert.True(t, on)

	_, err = s.BeginNotes(id, "lead-aaaa1111")
	require.NoError(t, err)
	require.NoError(t, s.SaveNotes(id, "lead-aaaa1111", "Spoke with program officer"))

	off, err := s.ToggleContacted(id, "lead-aaaa1111")
	require.NoError(t, err)
	assert.False(t, off)

	// Toggling back on yields a fresh record; the old notes are gone.
	on, err = s.ToggleContacted(id, "lead-aaaa1111")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Empty(t, s.ContactLog(id)["lead-aaaa1111"].Notes)
}

func TestToggleContactedRequiresSearch(t *testing.T) {
	s := New()
	id := newUser(t, s)

	_, err := s.ToggleContacted(id, "lead-aaaa1111")
	assert.ErrorIs(t, err, ErrNoSearch)
}

func TestNotesRequireContact(t *testing.T) {
	s := New()
	id := searchingUser(t, s)

	_, err := s.BeginNotes(id, "lead-aaaa1111")
	assert.ErrorIs(t, err, ErrNotContacted)

	err = s.SaveNotes(id, "lead-aaaa1111", "notes")
	assert.ErrorIs(t, err, ErrNotEditing)
}

func TestNotesEditIsExclusive(t *testing.T) {
	s := New()
	id := searchingUser(t, s)

	_, err := s.ToggleContacted(id, "lead-aaaa1111")
	require.NoError(t, err)
	_, err = s.ToggleContacted(id, "lead-bbbb2222")
	require.NoError(t, err)

	_, err = s.BeginNotes(id, "lead-aaaa1111")
	require.NoError(t, err)

	// Opening an edit on another lead replaces the first.
	_, err = s.BeginNotes(id, "lead-bbbb2222")
	require.NoError(t, err)

	assert.ErrorIs(t, s.SaveNotes(id, "lead-aaaa1111", "late save"), ErrNotEditing)
	require.NoError(t, s.SaveNotes(id, "lead-bbbb2222", "current save"))
	assert.Equal(t, "current save", s.ContactLog(id)["lead-bbbb2222"].Notes)
}

func TestCancelNotesKeepsExistingNote(t *testing.T) {
	s := New()
	id := searchingUser(t, s)

	_, err := s.ToggleContacted(id, "lead-aaaa1111")
	require.NoError(t, err)
	require.NoError(t, func() error {
		_, e := s.BeginNotes(id, "lead-aaaa1111")
		return e
	}())
	require.NoError(t, s.SaveNotes(id, "lead-aaaa1111", "original"))

	seed, err := s.BeginNotes(id, "lead-aaaa1111")
	require.NoError(t, err)
	assert.Equal(t, "original", seed, "edit session seeds from the saved note")

	require.NoError(t, s.CancelNotes(id, "lead-aaaa1111"))
	assert.Equal(t, "original", s.ContactLog(id)["lead-aaaa1111"].Notes)
	assert.False(t, s.Interaction(id, "lead-aaaa1111").EditingNotes)
}

func TestUncontactingExitsEditMode(t *testing.T) {
	s := New()
	id := searchingUser(t, s)

	_, err := s.ToggleContacted(id, "lead-aaaa1111")
	require.NoError(t, err)
	_, err = s.BeginNotes(id, "lead-aaaa1111")
	require.NoError(t, err)

	_, err = s.ToggleContacted(id, "lead-aaaa1111")
	require.NoError(t, err)
	assert.False(t, s.Interaction(id, "lead-aaaa1111").EditingNotes)
}

func TestCopyFeedbackExpires(t *testing.T) {
	s := New()
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return now }
	id := searchingUser(t, s)

	s.MarkCopied(id, "lead-aaaa1111:email")

	assert.True(t, s.Interaction(id, "lead-aaaa1111").CopiedEmail)

	now = now.Add(1900 * time.Millisecond)
	assert.True(t, s.Interaction(id, "lead-aaaa1111").CopiedEmail)

	now = now.Add(200 * time.Millisecond)
	assert.False(t, s.Interaction(id, "lead-aaaa1111").CopiedEmail)
}

func TestCopyTargetsAreIndependent(t *testing.T) {
	s := New()
	id := searchingUser(t, s)

	s.MarkCopied(id, "lead-aaaa1111:email")

	li := s.Interaction(id, "lead-aaaa1111")
	assert.True(t, li.CopiedEmail)
	assert.False(t, li.CopiedDraft)
	assert.False(t, s.Interaction(id, "lead-bbbb2222").CopiedEmail)
}

func TestSaveFeedbackExpiresAfterThreeSeconds(t *testing.T) {
	s := New()
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return now }
	id := searchingUser(t, s)

	s.MarkDraftSaved(id, "lead-aaaa1111")
	assert.True(t, s.Interaction(id, "lead-aaaa1111").DraftSaved)

	now = now.Add(2900 * time.Millisecond)
	assert.True(t, s.Interaction(id, "lead-aaaa1111").DraftSaved)

	now = now.Add(200 * time.Millisecond)
	assert.False(t, s.Interaction(id, "lead-aaaa1111").DraftSaved)
}

func TestOutreachLifecycle(t *testing.T) {
	s := New()
	id := searchingUser(t, s)

	require.NoError(t, s.StartOutreach(id, "lead-aaaa1111"))
	assert.Equal(t, OutreachGenerating, s.Interaction(id, "lead-aaaa1111").DraftStatus)

	// A second start while generating is rejected; another lead may overlap.
	assert.ErrorIs(t, s.StartOutreach(id, "lead-aaaa1111"), ErrDraftPending)
	require.NoError(t, s.StartOutreach(id, "lead-bbbb2222"))

	s.FinishOutreach(id, "lead-aaaa1111", "Dear team, ...", false)
	li := s.Interaction(id, "lead-aaaa1111")
	assert.Equal(t, OutreachReady, li.DraftStatus)
	assert.Equal(t, "Dear team, ...", li.DraftText)

	text, ok := s.OutreachDraft(id, "lead-aaaa1111")
	assert.True(t, ok)
	assert.Equal(t, "Dear team, ...", text)

	// Failure returns the other lead to idle with no draft.
	s.FinishOutreach(id, "lead-bbbb2222", "", true)
	assert.Equal(t, OutreachIdle, s.Interaction(id, "lead-bbbb2222").DraftStatus)
	_, ok = s.OutreachDraft(id, "lead-bbbb2222")
	assert.False(t, ok)

	// Ready state allows regeneration.
	assert.NoError(t, s.StartOutreach(id, "lead-aaaa1111"))
}

func TestInteractionsCoverEveryLead(t *testing.T) {
	s := New()
	id := searchingUser(t, s)

	_, err := s.ToggleContacted(id, "lead-aaaa1111")
	require.NoError(t, err)

	all := s.Interactions(id)
	require.Len(t, all, 2)
	assert.True(t, all["lead-aaaa1111"].Contacted)
	assert.False(t, all["lead-bbbb2222"].Contacted)
}
