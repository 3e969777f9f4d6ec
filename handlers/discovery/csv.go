package discovery

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"donorscout/backend/handlers/auth"
	"donorscout/backend/services/gemini"
	"donorscout/backend/services/store"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// ExportCSVHandler streams the current lead list and contact log as a CSV
// attachment named donor_leads_<sanitized-sector>_<ISO-date>.csv.
func ExportCSVHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := auth.GetUserIDFromToken(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		result, sector := st.SearchResult(userID)
		if result == nil || len(result.Leads) == 0 {
			http.Error(w, "No leads to export", http.StatusNotFound)
			return
		}

		filename := fmt.Sprintf("donor_leads_%s_%s.csv",
			sanitizeSector(sector), time.Now().UTC().Format("2006-01-02"))

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.Write([]byte(buildCSV(result.Leads, st.ContactLog(userID))))
	}
}

// buildCSV formats one row per lead under a fixed header. Fields are
// double-quoted with internal quotes doubled; focus areas join with "; ".
// The relevance score is the one unquoted numeric column.
func buildCSV(leads []gemini.DonorLead, contactLog map[string]store.ContactRecord) string {
	lines := []string{"Name,Type,Relevance Score,Email,Focus Areas,Description,Status,Contact Date,Notes"}

	for _, lead := range leads {
		status := "Pending"
		contactDate := "N/A"
		notes := ""
		if record, ok := contactLog[lead.ID]; ok {
			status = "Contacted"
			contactDate = record.Date
			notes = record.Notes
		}

		row := []string{
			quoteCSV(lead.Name),
			quoteCSV(lead.Type),
			fmt.Sprintf("%d", lead.RelevanceScore),
			quoteCSV(lead.Email),
			quoteCSV(strings.Join(lead.FocusAreas, "; ")),
			quoteCSV(lead.Description),
			quoteCSV(status),
			quoteCSV(contactDate),
			quoteCSV(notes),
		}
		lines = append(lines, strings.Join(row, ","))
	}

	return strings.Join(lines, "\n")
}

func quoteCSV(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func sanitizeSector(sector string) string {
	return whitespacePattern.ReplaceAllString(strings.ToLower(sector), "_")
}
