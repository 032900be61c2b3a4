package filter

import (
	"github.com/samber/lo"

	"github.com/aquasecurity/bandit-adapter/pkg/bandit"
)

const Criteria = "Issues containing security-related keywords"

// Document is the filtered report written next to the Bandit report.
type Document struct {
	TotalVulnerabilities int            `json:"total_vulnerabilities"`
	SourceReport         string         `json:"source_report"`
	FilterCriteria       string         `json:"filter_criteria"`
	Results              []bandit.Issue `json:"results"`
	SeverityBreakdown    map[string]int `json:"severity_breakdown"`
	ConfidenceBreakdown  map[string]int `json:"confidence_breakdown"`
}

// Summary condenses a filter run for callers that do not need the issues.
type Summary struct {
	Selected            int            `json:"selected"`
	Total               int            `json:"total"`
	SeverityBreakdown   map[string]int `json:"severity_breakdown"`
	ConfidenceBreakdown map[string]int `json:"confidence_breakdown"`
}

// Filter selects the security vulnerabilities of the report, keeping their
// original order, and tallies them by severity and confidence.
func Filter(source string, report bandit.Report) Document {
	selected := lo.Filter(report.Results, func(issue bandit.Issue, _ int) bool {
		return IsSecurityVulnerability(issue)
	})

	return Document{
		TotalVulnerabilities: len(selected),
		SourceReport:         source,
		FilterCriteria:       Criteria,
		Results:              selected,
		SeverityBreakdown:    lo.CountValuesBy(selected, bandit.Issue.Severity),
		ConfidenceBreakdown:  lo.CountValuesBy(selected, bandit.Issue.Confidence),
	}
}

func (d Document) Summary(total int) Summary {
	return Summary{
		Selected:            d.TotalVulnerabilities,
		Total:               total,
		SeverityBreakdown:   d.SeverityBreakdown,
		ConfidenceBreakdown: d.ConfidenceBreakdown,
	}
}
