package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"donorscout/backend/services/debugbus"
)

type fakeGenerator struct {
	resp   *genai.GenerateContentResponse
	err    error
	calls  int
	model  string
	config *genai.GenerateContentConfig
}

func (f *fakeGenerator) generate(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.config = config
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: text}},
				},
			},
		},
	}
}

func groundedResponse(text string, chunks ...*genai.GroundingChunk) *genai.GenerateContentResponse {
	resp := textResponse(text)
	resp.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{GroundingChunks: chunks}
	return resp
}

func collectEntries(bus *debugbus.Bus) *[]debugbus.Entry {
	entries := &[]debugbus.Entry{}
	bus.Subscribe(func(e debugbus.Entry) { *entries = append(*entries, e) })
	return entries
}

func TestFindDonorsParsesLeadsFromResponse(t *testing.T) {
	text := "The environmental funding landscape in Oregon is active.\n\n" +
		"```json\n" +
		`[{"name": "Evergreen Trust", "type": "foundation", "relevanceScore": 88, "focusAreas": ["Climate", "Rivers"], "description": "Regional environmental funder.", "email": "grants@evergreen.org"},` +
		`{"name": "Cascade Corp Giving", "type": "corporate", "relevanceScore": 140, "focusAreas": ["Sustainability"], "description": "Corporate giving arm.", "email": "csr@cascade.com"}]` +
		"\n```"

	bus := debugbus.New()
	entries := collectEntries(bus)
	gen := &fakeGenerator{resp: textResponse(text)}
	c := newClient(gen, Config{}, bus)

	result, err := c.FindDonors(context.Background(), "Environment", "Oregon")
	require.NoError(t, err)

	assert.Equal(t, "The environmental funding landscape in Oregon is active.", result.Analysis)
	require.Len(t, result.Leads, 2)

	first := result.Leads[0]
	assert.Equal(t, LeadID("Evergreen Trust", "grants@evergreen.org"), first.ID)
	assert.Equal(t, "Foundation", first.Type)
	assert.Equal(t, 88, first.RelevanceScore)
	assert.Equal(t, []string{"Climate", "Rivers"}, first.FocusAreas)

	second := result.Leads[1]
	assert.Equal(t, "Corporate", second.Type)
	assert.Equal(t, 100, second.RelevanceScore, "scores clamp to 100")

	assert.Equal(t, defaultFlashModel, gen.model)
	require.NotNil(t, gen.config)
	require.Len(t, gen.config.Tools, 1)
	assert.NotNil(t, gen.config.Tools[0].GoogleSearch)

	require.Len(t, *entries, 1)
	entry := (*entries)[0]
	assert.Equal(t, "findDonors", entry.Method)
	assert.Equal(t, "success", entry.Status)
	assert.GreaterOrEqual(t, entry.Latency, int64(0))
}

func TestFindDonorsStableLeadIDs(t *testing.T) {
	a := LeadID("Evergreen Trust", "grants@evergreen.org")
	b := LeadID("Evergreen Trust", "grants@evergreen.org")
	other := LeadID("Evergreen Trust", "info@evergreen.org")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
	assert.Regexp(t, `^lead-[0-9a-f]{8}$`, a)
}

func TestFindDonorsWithoutLeadBlock(t *testing.T) {
	bus := debugbus.New()
	gen := &fakeGenerator{resp: textResponse("Narrative only, no structured list.")}
	c := newClient(gen, Config{}, bus)

	result, err := c.FindDonors(context.Background(), "Arts", "Vermont")
	require.NoError(t, err)
	assert.Equal(t, "Narrative only, no structured list.", result.Analysis)
	assert.Empty(t, result.Leads)
}

func TestFindDonorsEmptyResponseFallsBack(t *testing.T) {
	bus := debugbus.New()
	gen := &fakeGenerator{resp: textResponse("   ")}
	c := newClient(gen, Config{}, bus)

	result, err := c.FindDonors(context.Background(), "Arts", "Vermont")
	require.NoError(t, err)
	assert.Equal(t, "No analysis available.", result.Analysis)
}

func TestFindDonorsErrorPublishesErrorEntry(t *testing.T) {
	bus := debugbus.New()
	entries := collectEntries(bus)
	boom := errors.New("quota exceeded")
	gen := &fakeGenerator{err: boom}
	c := newClient(gen, Config{}, bus)

	_, err := c.FindDonors(context.Background(), "Health", "Texas")
	require.ErrorIs(t, err, boom)

	require.Len(t, *entries, 1)
	entry := (*entries)[0]
	assert.Equal(t, "error", entry.Status)
	assert.Equal(t, "quota exceeded", entry.Response)
}

func TestExtractSourcesFiltersAndDefaults(t *testing.T) {
	resp := groundedResponse("analysis",
		&genai.GroundingChunk{Web: &genai.GroundingChunkWeb{Title: "Foundation Center", URI: "https://example.org/fc"}},
		&genai.GroundingChunk{}, // no web reference, skipped
		nil,
		&genai.GroundingChunk{Web: &genai.GroundingChunkWeb{}},
	)

	sources := extractSources(resp, "External Source")
	require.Len(t, sources, 2)
	assert.Equal(t, GroundingSource{Title: "Foundation Center", URI: "https://example.org/fc"}, sources[0])
	assert.Equal(t, GroundingSource{Title: "External Source", URI: "#"}, sources[1])
}

func TestVerifyNonprofitStatusDerivation(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		status string
	}{
		{"good standing", "The organization is registered and in good standing with the state.", "Verified"},
		{"active", "Status: ACTIVE since 2019.", "Verified"},
		{"revoked", "The registration was revoked in 2021.", "Unverified"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bus := debugbus.New()
			gen := &fakeGenerator{resp: textResponse(tc.text)}
			c := newClient(gen, Config{}, bus)

			info, err := c.VerifyNonprofit(context.Background(), "River Keepers", "93-1234567", "Oregon")
			require.NoError(t, err)
			assert.Equal(t, tc.status, info.Status)
			assert.Equal(t, "River Keepers", info.OfficialName)
			assert.Equal(t, "93-1234567", info.RegistrationID)
			assert.Equal(t, "501(c)(3) or Equivalent", info.TaxStatus)
			assert.Equal(t, tc.text, info.Summary)
		})
	}
}

func TestVerifyNonprofitEmptyResponseFallsBack(t *testing.T) {
	bus := debugbus.New()
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{}}
	c := newClient(gen, Config{}, bus)

	info, err := c.VerifyNonprofit(context.Background(), "River Keepers", "93-1234567", "Oregon")
	require.NoError(t, err)
	assert.Equal(t, "Verification data unavailable.", info.Summary)
	assert.Equal(t, "Unverified", info.Status)
}

func TestGenerateOutreachDraft(t *testing.T) {
	bus := debugbus.New()
	entries := collectEntries(bus)
	gen := &fakeGenerator{resp: textResponse("Dear Evergreen Trust team, ...")}
	c := newClient(gen, Config{}, bus)

	draft, err := c.GenerateOutreachDraft(context.Background(), "Evergreen Trust", "Foundation", []string{"Climate"}, "Environment")
	require.NoError(t, err)
	assert.Equal(t, "Dear Evergreen Trust team, ...", draft)

	assert.Equal(t, defaultFlashModel, gen.model)
	require.NotNil(t, gen.config.Temperature)
	assert.InDelta(t, 0.8, float64(*gen.config.Temperature), 0.001)

	require.Len(t, *entries, 1)
	assert.Equal(t, "generateOutreachDraft", (*entries)[0].Method)
}

func TestGenerateOutreachDraftEmptyFallsBack(t *testing.T) {
	bus := debugbus.New()
	gen := &fakeGenerator{resp: textResponse("")}
	c := newClient(gen, Config{}, bus)

	draft, err := c.GenerateOutreachDraft(context.Background(), "Evergreen Trust", "Foundation", nil, "Environment")
	require.NoError(t, err)
	assert.Equal(t, "Failed to generate draft.", draft)
}

func TestGenerateGrantProposalUsesProModel(t *testing.T) {
	bus := debugbus.New()
	entries := collectEntries(bus)
	gen := &fakeGenerator{resp: textResponse("# Grant Proposal\n\nExecutive summary...")}
	c := newClient(gen, Config{}, bus)

	donor := DonorLead{Name: "Evergreen Trust", Type: "Foundation"}
	project := ProjectInfo{ProjectTitle: "River Restoration", AmountRequested: "$50,000"}

	text, err := c.GenerateGrantProposal(context.Background(), donor, project)
	require.NoError(t, err)
	assert.Contains(t, text, "Executive summary")

	assert.Equal(t, defaultProModel, gen.model)
	require.NotNil(t, gen.config.ThinkingConfig)
	require.NotNil(t, gen.config.ThinkingConfig.ThinkingBudget)
	assert.Equal(t, int32(proposalThinkingBudget), *gen.config.ThinkingConfig.ThinkingBudget)

	require.Len(t, *entries, 1)
	assert.Equal(t, "generateGrantProposal", (*entries)[0].Method)
}

func TestModelOverrides(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("ok")}
	c := newClient(gen, Config{FlashModel: "gemini-custom-flash", ProModel: "gemini-custom-pro"}, debugbus.New())

	_, err := c.GenerateOutreachDraft(context.Background(), "X", "Foundation", nil, "Arts")
	require.NoError(t, err)
	assert.Equal(t, "gemini-custom-flash", gen.model)

	_, err = c.GenerateGrantProposal(context.Background(), DonorLead{Name: "X"}, ProjectInfo{})
	require.NoError(t, err)
	assert.Equal(t, "gemini-custom-pro", gen.model)
}
