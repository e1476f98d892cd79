package compose

import (
	"fmt"
	"log"

	"github.com/joelkehle/report-composer/internal/refdata"
)

type Mode string

const (
	// ModeNew builds the report from the blank template alone.
	ModeNew Mode = "new"
	// ModeMerge starts from the hand-edited report, preserving its Criteria
	// and Mappings sections and regenerating everything else.
	ModeMerge Mode = "merge"
)

// LogFn is the caller-supplied sink for the human-readable composition log:
// heading matches, extraction counts, repair actions. A nil sink falls back
// to the standard logger.
type LogFn func(message string)

func logf(sink LogFn, format string, args ...any) {
	if sink == nil {
		log.Printf("compose "+format, args...)
		return
	}
	if len(args) == 0 {
		sink(format)
		return
	}
	sink(fmt.Sprintf(format, args...))
}

// SearchStrategy is one appendix row: the query run against a database and
// the hit count it produced.
type SearchStrategy struct {
	Database string `json:"database"`
	Query    string `json:"query"`
	Hits     int    `json:"hits"`
}

// Request carries everything the orchestrator needs for one composition
// run. References and claim data come from spreadsheet extraction upstream.
type Request struct {
	Mode           Mode                `json:"mode"`
	ReportDate     string              `json:"report_date,omitempty"`
	ClientName     string              `json:"client_name,omitempty"`
	PatentNumber   string              `json:"patent_number"`
	PatentTitle    string              `json:"patent_title,omitempty"`
	Assignee       string              `json:"assignee,omitempty"`
	PriorityDate   string              `json:"priority_date,omitempty"`
	FilingDate     string              `json:"filing_date,omitempty"`
	Claims         []int               `json:"claims"`
	References     []refdata.Reference `json:"references"`
	RelatedRefs    []refdata.Reference `json:"related_references,omitempty"`
	ClaimFragments map[int][]string    `json:"claim_fragments,omitempty"`
	Strategies     []SearchStrategy    `json:"search_strategies,omitempty"`
}

// RunReport summarizes what one composition run did, for the audit log.
type RunReport struct {
	Mode                Mode     `json:"mode"`
	SectionsRegenerated []string `json:"sections_regenerated"`
	SectionsPreserved   []string `json:"sections_preserved"`
	SectionsSkipped     []string `json:"sections_skipped"`
	Warnings            []string `json:"warnings"`
}
