package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"

	"donorscout/backend/services/debugbus"
)

const (
	defaultFlashModel = "gemini-3-flash-preview"
	defaultProModel   = "gemini-3-pro-preview"

	// Extended internal reasoning budget for long-form proposal writing.
	proposalThinkingBudget = 4000

	noAnalysisFallback     = "No analysis available."
	noVerificationFallback = "Verification data unavailable."
	draftFallback          = "Failed to generate draft."
	proposalFallback       = "Failed to generate proposal."
)

// Config holds the generation-service settings.
type Config struct {
	APIKey     string
	FlashModel string // grounded discovery/verification and outreach drafting
	ProModel   string // long-form proposal generation
}

// generator is the seam between the client and the Gemini SDK; tests inject a
// fake here.
type generator interface {
	generate(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type sdkGenerator struct {
	client *genai.Client
}

func (g *sdkGenerator) generate(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return g.client.Models.GenerateContent(ctx, model, contents, config)
}

// Client translates the four domain requests into Gemini calls and shapes the
// responses into typed results. Every call publishes one telemetry entry to
// the bus on completion, success or failure; errors are propagated unchanged
// with no retry or backoff.
type Client struct {
	gen        generator
	bus        *debugbus.Bus
	flashModel string
	proModel   string
}

// NewClient creates a generation client backed by the Gemini API.
func NewClient(ctx context.Context, cfg Config, bus *debugbus.Bus) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newClient(&sdkGenerator{client: client}, cfg, bus), nil
}

func newClient(gen generator, cfg Config, bus *debugbus.Bus) *Client {
	flash := cfg.FlashModel
	if flash == "" {
		flash = defaultFlashModel
	}
	pro := cfg.ProModel
	if pro == "" {
		pro = defaultProModel
	}
	return &Client{gen: gen, bus: bus, flashModel: flash, proModel: pro}
}

// FindDonors researches the funding landscape for a sector and region with
// web-search grounding. The narrative, citation sources, and lead list all
// come from the same grounded response; leads are parsed from the JSON block
// the prompt asks the model to append.
func (c *Client) FindDonors(ctx context.Context, category, region string) (*SearchResult, error) {
	start := time.Now()
	payload := map[string]string{"category": category, "region": region}

	resp, err := c.gen.generate(ctx, c.flashModel,
		genai.Text(discoveryPrompt(category, region)),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		})
	if err != nil {
		c.publish("findDonors", payload, nil, start, err)
		log.Printf("Error fetching donors: %v", err)
		return nil, err
	}

	text := responseText(resp)
	analysis, leads := parseLeads(text)
	if analysis == "" {
		analysis = noAnalysisFallback
	}

	result := &SearchResult{
		Analysis: analysis,
		Leads:    leads,
		Sources:  extractSources(resp, "External Source"),
	}
	c.publish("findDonors", payload, text, start, nil)
	return result, nil
}

// VerifyNonprofit checks an organization's registration standing against
// official registries via a grounded search. The status is derived from the
// narrative: "good standing" or "active" means Verified.
func (c *Client) VerifyNonprofit(ctx context.Context, name, regID, region string) (*VerificationInfo, error) {
	start := time.Now()
	payload := map[string]string{"name": name, "registration_id": regID, "region": region}

	resp, err := c.gen.generate(ctx, c.flashModel,
		genai.Text(verificationPrompt(name, regID, region)),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		})
	if err != nil {
		c.publish("verifyNonprofit", payload, nil, start, err)
		log.Printf("Error verifying nonprofit: %v", err)
		return nil, err
	}

	text := responseText(resp)
	if text == "" {
		text = noVerificationFallback
	}

	status := "Unverified"
	lower := strings.ToLower(text)
	if strings.Contains(lower, "good standing") || strings.Contains(lower, "active") {
		status = "Verified"
	}

	info := &VerificationInfo{
		Status:              status,
		OfficialName:        name,
		RegistrationID:      regID,
		TaxStatus:           "501(c)(3) or Equivalent",
		LastUpdated:         time.Now().Format("1/2/2006"),
		VerificationSources: extractSources(resp, "Registry Source"),
		Summary:             text,
	}
	c.publish("verifyNonprofit", payload, text, start, nil)
	return info, nil
}

// GenerateOutreachDraft writes a short outreach email referencing the donor's
// focus areas, with elevated temperature for creative variation.
func (c *Client) GenerateOutreachDraft(ctx context.Context, donorName, donorType string, donorFocus []string, sector string) (string, error) {
	start := time.Now()
	payload := map[string]interface{}{
		"donor_name":  donorName,
		"donor_type":  donorType,
		"donor_focus": donorFocus,
		"sector":      sector,
	}

	resp, err := c.gen.generate(ctx, c.flashModel,
		genai.Text(outreachPrompt(donorName, donorType, donorFocus, sector)),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0.8),
		})
	if err != nil {
		c.publish("generateOutreachDraft", payload, nil, start, err)
		log.Printf("Error generating outreach draft: %v", err)
		return "", err
	}

	text := responseText(resp)
	if text == "" {
		text = draftFallback
	}
	c.publish("generateOutreachDraft", payload, text, start, nil)
	return text, nil
}

// GenerateGrantProposal writes a structured multi-section grant proposal using
// the higher-capability model with an extended reasoning budget.
func (c *Client) GenerateGrantProposal(ctx context.Context, donor DonorLead, project ProjectInfo) (string, error) {
	start := time.Now()
	payload := map[string]interface{}{
		"donor":   donor.Name,
		"project": project.ProjectTitle,
	}

	resp, err := c.gen.generate(ctx, c.proModel,
		genai.Text(proposalPrompt(donor, project)),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0.7),
			ThinkingConfig: &genai.ThinkingConfig{
				ThinkingBudget: genai.Ptr[int32](proposalThinkingBudget),
			},
		})
	if err != nil {
		c.publish("generateGrantProposal", payload, nil, start, err)
		log.Printf("Error generating grant proposal: %v", err)
		return "", err
	}

	text := responseText(resp)
	if text == "" {
		text = proposalFallback
	}
	c.publish("generateGrantProposal", payload, text, start, nil)
	return text, nil
}

// publish emits one telemetry entry for a completed call. It is a side
// effect only and never alters the caller's result.
func (c *Client) publish(method string, payload interface{}, response interface{}, start time.Time, err error) {
	if c.bus == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
		response = err.Error()
	}
	c.bus.Publish(debugbus.Entry{
		Method:   method,
		Payload:  payload,
		Response: response,
		Latency:  time.Since(start).Milliseconds(),
		Status:   status,
	})
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	return strings.TrimSpace(resp.Text())
}

// extractSources pulls citation entries out of the response's grounding
// metadata, keeping only chunks that carry a web reference.
func extractSources(resp *genai.GenerateContentResponse, defaultTitle string) []GroundingSource {
	sources := []GroundingSource{}
	if resp == nil || len(resp.Candidates) == 0 {
		return sources
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return sources
	}
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		title := chunk.Web.Title
		if title == "" {
			title = defaultTitle
		}
		uri := chunk.Web.URI
		if uri == "" {
			uri = "#"
		}
		sources = append(sources, GroundingSource{Title: title, URI: uri})
	}
	return sources
}
