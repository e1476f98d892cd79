// Package refdata holds the reference records the composition engine
// consumes. Records arrive from spreadsheet extraction upstream; this
// package only normalizes and orders them.
package refdata

import (
	"regexp"
	"sort"
	"strings"
)

// Reference is one patent or non-patent-literature result from the
// publication search.
type Reference struct {
	Rank                 string `json:"rank"`
	PublicationNumber    string `json:"publication_number"`
	RawPublicationNumber string `json:"raw_publication_number,omitempty"`
	Title                string `json:"title"`
	URL                  string `json:"url,omitempty"`
	PriorityDate         string `json:"priority_date,omitempty"`
	FilingDate           string `json:"filing_date,omitempty"`
	PublicationDate      string `json:"publication_date,omitempty"`
	OriginalAssignee     string `json:"original_assignee,omitempty"`
	CurrentAssignee      string `json:"current_assignee,omitempty"`
	NPL                  bool   `json:"npl,omitempty"`
}

// RankIndex orders single-letter ranks A..Z; anything else sorts last.
func RankIndex(rank string) int {
	r := strings.ToUpper(strings.TrimSpace(rank))
	if len(r) == 1 && r[0] >= 'A' && r[0] <= 'Z' {
		return int(r[0] - 'A')
	}
	return 999
}

// SortByRank orders references by rank letter, then publication number for a
// stable tie-break.
func SortByRank(refs []Reference) {
	sort.SliceStable(refs, func(i, j int) bool {
		ri, rj := RankIndex(refs[i].Rank), RankIndex(refs[j].Rank)
		if ri != rj {
			return ri < rj
		}
		return refs[i].PublicationNumber < refs[j].PublicationNumber
	})
}

// Label is the short identifier used in claim charts: the raw publication
// number for patents, the title for NPL entries.
func (r Reference) Label() string {
	if r.NPL {
		return r.Title
	}
	if r.RawPublicationNumber != "" {
		return r.RawPublicationNumber
	}
	return r.PublicationNumber
}

var (
	usNumberRe   = regexp.MustCompile(`^(US)(\d+)`)
	shortNameRe  = regexp.MustCompile(`^([^\d]*)(\d+)([A-Z]\d{1,2})?$`)
	digitsOnlyRe = regexp.MustCompile(`\D`)
	leadDigitsRe = regexp.MustCompile(`^\d+`)
)

// CleanPublicationNumber strips kind-code suffixes from US publication
// numbers; other numbers pass through untouched.
func CleanPublicationNumber(pub string) string {
	if m := usNumberRe.FindStringSubmatch(pub); m != nil {
		return m[1] + m[2]
	}
	return pub
}

// ShortPatentName produces the conventional short form, e.g. "'456 Patent"
// for US10,123,456.
func ShortPatentName(patentNumber string) string {
	return "'" + shortDigits(patentNumber) + " Patent"
}

// ShortPatentTag is the bare "'456" form used inside running text.
func ShortPatentTag(patentNumber string) string {
	return "'" + shortDigits(patentNumber)
}

func shortDigits(patentNumber string) string {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(patentNumber)
	if strings.HasPrefix(strings.ToUpper(cleaned), "US") {
		cleaned = cleaned[2:]
	}
	digits := ""
	if m := shortNameRe.FindStringSubmatch(cleaned); m != nil {
		digits = m[2]
	} else {
		digits = digitsOnlyRe.ReplaceAllString(cleaned, "")
	}
	if len(digits) >= 3 {
		return digits[len(digits)-3:]
	}
	return digits
}

// FormatPatentDisplay renders a patent number for prose: US patents become
// "U.S. Patent No. 10,123,456"; non-US numbers are returned as-is with no
// prefix.
func FormatPatentDisplay(patentNumber string, includePrefix bool) string {
	s := strings.TrimSpace(patentNumber)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToUpper(s), "US") {
		return s
	}
	core := s[2:]
	digits := leadDigitsRe.FindString(core)
	if digits == "" {
		return s
	}
	formatted := groupThousands(digits)
	if includePrefix {
		return "U.S. Patent No. " + formatted
	}
	return formatted
}

// IsUSPatent reports whether the publication number carries a US prefix.
func IsUSPatent(publicationNumber string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(publicationNumber)), "US")
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var sb strings.Builder
	head := n % 3
	if head > 0 {
		sb.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
