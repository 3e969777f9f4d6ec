package gemini

import (
	"fmt"
	"strings"
)

func discoveryPrompt(category, region string) string {
	return fmt.Sprintf(`Research and find potential major donors, foundations, and corporate social responsibility (CSR) programs that support "%s" initiatives in the region of "%s".
Provide a detailed analysis of the funding landscape and a list of specific leads.

The response should include:
1. A summary of the regional philanthropic environment for this sector.
2. A list of 5-8 high-potential leads with their focus areas and relevance.
3. Why they are a good fit for a %s nonprofit.

After the analysis, append the lead list as a fenced JSON code block: an array of objects with the keys "name", "type" (one of Foundation, Corporate, Individual, Government), "relevanceScore" (0-100), "focusAreas" (array of strings), "description", and "email".`, category, region, category)
}

func verificationPrompt(name, regID, region string) string {
	return fmt.Sprintf(`Verify the registration status and non-profit credentials for an organization named "%s" with registration/EIN number "%s" in the region "%s".
Search official registries (like IRS, Charity Commission, etc.) and news sources.
Return a summary of their status, whether they are in good standing, and their primary tax-exempt classification.`, name, regID, region)
}

func outreachPrompt(donorName, donorType string, donorFocus []string, sector string) string {
	return fmt.Sprintf(`Write a professional and compelling outreach email draft for a nonprofit in the "%s" sector seeking a partnership or grant from "%s" (%s).
The donor is known for focusing on: %s.

The draft should:
1. Have a clear, engaging subject line.
2. Reference the donor's specific focus areas.
3. Be concise and goal-oriented.
4. Use a collaborative tone.
5. Include placeholders for [Nonprofit Name] and [Specific Project].`, sector, donorName, donorType, strings.Join(donorFocus, ", "))
}

func proposalPrompt(donor DonorLead, project ProjectInfo) string {
	return fmt.Sprintf(`Act as a professional grant writer. Write a comprehensive grant proposal for "%s" directed to "%s" (%s).

The donor focuses on: %s.
The nonprofit's mission: %s
The specific project: "%s"
Goals: %s
Amount Requested: %s
Timeline: %s

The proposal must include:
1. Executive Summary
2. Organizational Mission and Alignment with Donor Goals
3. Problem Statement / Needs Assessment
4. Project Description and Methodology
5. Anticipated Impact and Outcomes
6. Sustainability Plan

Maintain a highly professional, persuasive, and visionary tone. Ensure the alignment between the donor's stated focus and the project is explicitly highlighted.`,
		project.NonprofitName, donor.Name, donor.Type,
		strings.Join(donor.FocusAreas, ", "), project.Mission,
		project.ProjectTitle, project.ProjectGoals,
		project.AmountRequested, project.Timeline)
}
