package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donorscout/backend/handlers/auth"
	"donorscout/backend/services/gemini"
	"donorscout/backend/services/store"
)

type fakeGen struct {
	searchCalls   int
	outreachCalls int
	result        *gemini.SearchResult
	draft         string
	err           error
}

func (f *fakeGen) FindDonors(ctx context.Context, category, region string) (*gemini.SearchResult, error) {
	f.searchCalls++
	return f.result, f.err
}

func (f *fakeGen) GenerateOutreachDraft(ctx context.Context, donorName, donorType string, donorFocus []string, sector string) (string, error) {
	f.outreachCalls++
	return f.draft, f.err
}

func fixtureResult() *gemini.SearchResult {
	return &gemini.SearchResult{
		Analysis: "Analysis text.",
		Leads: []gemini.DonorLead{
			{ID: "lead-aaaa1111", Name: "Evergreen Trust", Type: "Foundation", Email: "grants@evergreen.org"},
		},
	}
}

func authedRequest(t *testing.T, method, target string, body []byte, userID int) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	token, err := auth.GenerateToken(userID)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func testRouter(st *store.Store, gen Generator) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/discovery/search", SearchHandler(st, gen)).Methods("POST")
	r.HandleFunc("/api/discovery/result", GetResultHandler(st)).Methods("GET")
	r.HandleFunc("/api/leads/{id}/contacted", ToggleContactedHandler(st)).Methods("POST")
	r.HandleFunc("/api/leads/{id}/outreach", OutreachHandler(st, gen)).Methods("POST")
	r.HandleFunc("/api/leads/{id}/outreach/save", SaveOutreachHandler(st)).Methods("POST")
	r.HandleFunc("/api/leads/{id}/mailto", MailtoHandler(st)).Methods("GET")
	return r
}

func setupUser(t *testing.T, st *store.Store) int {
	t.Helper()
	acct, err := st.CreateAccount("Jordan", "jordan@example.org", "hash")
	require.NoError(t, err)
	st.SetProfile(acct.ID, store.NonprofitProfile{Name: "River Keepers", Mission: "Clean rivers"})
	return acct.ID
}

func TestSearchRequiresProfile(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	st := store.New()
	gen := &fakeGen{result: fixtureResult()}
	router := testRouter(st, gen)

	acct, err := st.CreateAccount("Jordan", "jordan@example.org", "hash")
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{"category": "Environment", "region": "Oregon"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "POST", "/api/discovery/search", body, acct.ID))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, gen.searchCalls, "no generation call without a profile")
}

func TestSearchRequiresAuth(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	st := store.New()
	router := testRouter(st, &fakeGen{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/discovery/search", bytes.NewReader([]byte(`{}`)))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchStoresResult(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	st := store.New()
	gen := &fakeGen{result: fixtureResult()}
	router := testRouter(st, gen)
	userID := setupUser(t, st)

	body, _ := json.Marshal(map[string]string{"category": "Environment", "region": "Oregon"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "POST", "/api/discovery/search", body, userID))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Environment", resp.Sector)
	require.Len(t, resp.Leads, 1)
	assert.Contains(t, resp.Interactions, "lead-aaaa1111")

	result, sector := st.SearchResult(userID)
	require.NotNil(t, result)
	assert.Equal(t, "Environment", sector)
}

func TestSearchFailureClearsPriorResult(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	st := store.New()
	gen := &fakeGen{result: fixtureResult()}
	router := testRouter(st, gen)
	userID := setupUser(t, st)
	st.SetSearchResult(userID, "Health", fixtureResult())

	gen.err = assert.AnError
	body, _ := json.Marshal(map[string]string{"category": "Environment", "region": "Oregon"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "POST", "/api/discovery/search", body, userID))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	result, _ := st.SearchResult(userID)
	assert.Nil(t, result, "a failed search does not leave the stale result visible")
}

func TestOutreachProGate(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	st := store.New()
	gen := &fakeGen{draft: "Dear team, ..."}
	router := testRouter(st, gen)
	userID := setupUser(t, st)
	st.SetSearchResult(userID, "Environment", fixtureResult())
	st.SetPro(userID, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "POST", "/api/leads/lead-aaaa1111/outreach", nil, userID))

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Zero(t, gen.outreachCalls, "free tier must not issue a generation call")

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "billing", resp["redirect"])
}

func TestOutreachGeneratesAndSaves(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	st := store.New()
	gen := &fakeGen{draft: "Dear Evergreen Trust team, ..."}
	router := testRouter(st, gen)
	userID := setupUser(t, st)
	st.SetSearchResult(userID, "Environment", fixtureResult())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "POST", "/api/leads/lead-aaaa1111/outreach", nil, userID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, gen.outreachCalls)

	var li store.LeadInteraction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &li))
	assert.Equal(t, store.OutreachReady, li.DraftStatus)
	assert.Equal(t, "Dear Evergreen Trust team, ...", li.DraftText)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "POST", "/api/leads/lead-aaaa1111/outreach/save", nil, userID))
	require.Equal(t, http.StatusOK, rec.Code)

	drafts := st.Drafts(userID)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Initial Outreach Email", drafts[0].ProjectTitle)
	assert.Equal(t, "Evergreen Trust", drafts[0].DonorName)
	assert.True(t, st.Interaction(userID, "lead-aaaa1111").DraftSaved)
}

func TestSaveOutreachWithoutDraft(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	st := store.New()
	router := testRouter(st, &fakeGen{})
	userID := setupUser(t, st)
	st.SetSearchResult(userID, "Environment", fixtureResult())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "POST", "/api/leads/lead-aaaa1111/outreach/save", nil, userID))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, st.Drafts(userID))
}

func TestOutreachFailureReturnsToIdle(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	st := store.New()
	gen := &fakeGen{err: assert.AnError}
	router := testRouter(st, gen)
	userID := setupUser(t, st)
	st.SetSearchResult(userID, "Environment", fixtureResult())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "POST", "/api/leads/lead-aaaa1111/outreach", nil, userID))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, store.OutreachIdle, st.Interaction(userID, "lead-aaaa1111").DraftStatus)
}

func TestToggleContactedUnknownLead(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	st := store.New()
	router := testRouter(st, &fakeGen{})
	userID := setupUser(t, st)
	st.SetSearchResult(userID, "Environment", fixtureResult())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "POST", "/api/leads/lead-missing0/contacted", nil, userID))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMailtoCarriesReadyDraft(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	st := store.New()
	router := testRouter(st, &fakeGen{})
	userID := setupUser(t, st)
	st.SetSearchResult(userID, "Environment", fixtureResult())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "GET", "/api/leads/lead-aaaa1111/mailto", nil, userID))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "mailto:grants@evergreen.org", resp["mailto"], "bare address before a draft exists")

	require.NoError(t, st.StartOutreach(userID, "lead-aaaa1111"))
	st.FinishOutreach(userID, "lead-aaaa1111", "Hello there", false)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, "GET", "/api/leads/lead-aaaa1111/mailto", nil, userID))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["mailto"], "subject=Partnership%20Inquiry")
	assert.Contains(t, resp["mailto"], "body=Hello%20there")
}
