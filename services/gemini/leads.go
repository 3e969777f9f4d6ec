package gemini

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
)

// LeadID derives a stable identifier for a lead from its name and email.
// Interaction state (contact log, draft status) is keyed by this rather than
// by list position, so reordering between renders cannot misattribute it.
func LeadID(name, email string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	h.Write([]byte{'|'})
	h.Write([]byte(email))
	return fmt.Sprintf("lead-%08x", h.Sum32())
}

type leadJSON struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	RelevanceScore int      `json:"relevanceScore"`
	FocusAreas     []string `json:"focusAreas"`
	Description    string   `json:"description"`
	Email          string   `json:"email"`
}

// parseLeads extracts the lead list from the fenced JSON block the discovery
// prompt asks the model to append, and returns the narrative with that block
// removed. A response with no parseable block yields an empty lead list.
func parseLeads(text string) (string, []DonorLead) {
	block, remainder := extractJSONBlock(text)
	if block == "" {
		return strings.TrimSpace(text), nil
	}

	var raw []leadJSON
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return strings.TrimSpace(text), nil
	}

	leads := make([]DonorLead, 0, len(raw))
	for _, l := range raw {
		if l.Name == "" {
			continue
		}
		leads = append(leads, DonorLead{
			ID:             LeadID(l.Name, l.Email),
			Name:           l.Name,
			Type:           normalizeLeadType(l.Type),
			RelevanceScore: clampScore(l.RelevanceScore),
			FocusAreas:     l.FocusAreas,
			Description:    l.Description,
			Email:          l.Email,
		})
	}
	return strings.TrimSpace(remainder), leads
}

// extractJSONBlock finds the last ```json fenced block in text and returns its
// contents plus the text with the block removed.
func extractJSONBlock(text string) (string, string) {
	open := strings.LastIndex(text, "```json")
	if open == -1 {
		open = strings.LastIndex(text, "```")
		if open == -1 {
			return "", text
		}
	}
	body := text[open:]
	start := strings.Index(body, "\n")
	if start == -1 {
		return "", text
	}
	closeIdx := strings.Index(body[start:], "```")
	if closeIdx == -1 {
		return "", text
	}
	block := body[start+1 : start+closeIdx]
	remainder := text[:open] + body[start+closeIdx+3:]
	return strings.TrimSpace(block), remainder
}

func normalizeLeadType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "foundation":
		return "Foundation"
	case "corporate":
		return "Corporate"
	case "individual":
		return "Individual"
	case "government":
		return "Government"
	default:
		return "Foundation"
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
