package filter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/bandit-adapter/pkg/bandit"
)

func reportFrom(t *testing.T, s string) bandit.Report {
	t.Helper()
	report, err := bandit.ReportFrom(strings.NewReader(s))
	require.NoError(t, err)
	return report
}

func TestFilter(t *testing.T) {
	t.Run("Should select only issues with security keywords", func(t *testing.T) {
		report := reportFrom(t, `{"results": [
			{"issue_text": "Possible SQL injection vulnerability", "issue_severity": "HIGH", "issue_confidence": "HIGH"},
			{"issue_text": "Use of assert detected", "issue_severity": "LOW", "issue_confidence": "MEDIUM"}
		]}`)

		doc := Filter("report.json", report)

		assert.Equal(t, 1, doc.TotalVulnerabilities)
		assert.Equal(t, "report.json", doc.SourceReport)
		assert.Equal(t, Criteria, doc.FilterCriteria)
		require.Len(t, doc.Results, 1)
		assert.Equal(t, "Possible SQL injection vulnerability", doc.Results[0].Text())
		assert.Equal(t, map[string]int{"HIGH": 1}, doc.SeverityBreakdown)
		assert.Equal(t, map[string]int{"HIGH": 1}, doc.ConfidenceBreakdown)
	})

	t.Run("Should count an issue once when it matches several keywords", func(t *testing.T) {
		report := reportFrom(t, `{"results": [
			{"issue_text": "This function has security implications for password storage", "issue_severity": "MEDIUM", "issue_confidence": "LOW"}
		]}`)

		doc := Filter("report.json", report)

		assert.Equal(t, 1, doc.TotalVulnerabilities)
		assert.Len(t, doc.Results, 1)
		assert.Equal(t, map[string]int{"MEDIUM": 1}, doc.SeverityBreakdown)
		assert.Equal(t, map[string]int{"LOW": 1}, doc.ConfidenceBreakdown)
	})

	t.Run("Should tally missing severity and confidence as UNKNOWN", func(t *testing.T) {
		report := reportFrom(t, `{"results": [
			{"issue_text": "vulnerable", "issue_severity": "HIGH"},
			{"issue_text": "vulnerable", "issue_confidence": "HIGH"},
			{"issue_text": "vulnerable"}
		]}`)

		doc := Filter("report.json", report)

		assert.Equal(t, map[string]int{"HIGH": 1, "UNKNOWN": 2}, doc.SeverityBreakdown)
		assert.Equal(t, map[string]int{"HIGH": 1, "UNKNOWN": 2}, doc.ConfidenceBreakdown)
	})

	t.Run("Should return empty document when nothing matches", func(t *testing.T) {
		report := reportFrom(t, `{"results": [{"issue_text": "Use of assert detected"}]}`)

		doc := Filter("report.json", report)

		assert.Equal(t, 0, doc.TotalVulnerabilities)
		assert.NotNil(t, doc.Results)
		assert.Empty(t, doc.Results)
		assert.Empty(t, doc.SeverityBreakdown)
		assert.Empty(t, doc.ConfidenceBreakdown)

		b, err := json.Marshal(doc)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"total_vulnerabilities": 0,
			"source_report": "report.json",
			"filter_criteria": "Issues containing security-related keywords",
			"results": [],
			"severity_breakdown": {},
			"confidence_breakdown": {}
		}`, string(b))
	})

	t.Run("Should return empty document when report has no results", func(t *testing.T) {
		doc := Filter("report.json", reportFrom(t, `{"errors": []}`))

		assert.Equal(t, 0, doc.TotalVulnerabilities)
		assert.NotNil(t, doc.Results)
		assert.Empty(t, doc.Results)
	})

	t.Run("Should keep selected issues in order and unmodified", func(t *testing.T) {
		report := reportFrom(t, `{"results": [
			{"test_id": "B1", "issue_text": "security A", "issue_severity": "LOW", "issue_confidence": "HIGH", "line_range": [3, 4]},
			{"test_id": "B2", "issue_text": "nothing"},
			{"test_id": "B3", "issue_text": "vulnerability B", "issue_severity": "HIGH", "issue_confidence": "LOW", "code": "x = 1\n"},
			{"test_id": "B4", "issue_text": "Vulnerable C", "issue_severity": "LOW", "issue_confidence": "MEDIUM"},
			{"test_id": "B5", "issue_text": "plain"}
		]}`)

		doc := Filter("report.json", report)

		require.Len(t, doc.Results, 3)
		assert.True(t, doc.Results[0].Equal(report.Results[0]))
		assert.True(t, doc.Results[1].Equal(report.Results[2]))
		assert.True(t, doc.Results[2].Equal(report.Results[3]))

		assert.Equal(t, len(doc.Results), doc.TotalVulnerabilities)
		assert.Equal(t, doc.TotalVulnerabilities, lo.Sum(lo.Values(doc.SeverityBreakdown)))
		assert.Equal(t, doc.TotalVulnerabilities, lo.Sum(lo.Values(doc.ConfidenceBreakdown)))
	})
}

func TestDocument_Summary(t *testing.T) {
	doc := Filter("report.json", reportFrom(t, `{"results": [
		{"issue_text": "security", "issue_severity": "LOW", "issue_confidence": "HIGH"},
		{"issue_text": "other"}
	]}`))

	assert.Equal(t, Summary{
		Selected:            1,
		Total:               2,
		SeverityBreakdown:   map[string]int{"LOW": 1},
		ConfidenceBreakdown: map[string]int{"HIGH": 1},
	}, doc.Summary(2))
}
