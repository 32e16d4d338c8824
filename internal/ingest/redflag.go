// Package ingest imports teaching jobs from an external job board as
// source=external postings: fetch, red-flag filter, normalise, dedup insert.
package ingest

import "strings"

// ContainsRedFlag reports whether any red flag term appears
// (case-insensitive) in the posting's title, company or description.
func ContainsRedFlag(p Posting, redFlags []string) bool {
	if len(redFlags) == 0 {
		return false
	}
	combined := strings.ToLower(p.Title + " " + p.Company + " " + p.Description)
	for _, flag := range redFlags {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(flag)) {
			return true
		}
	}
	return false
}
