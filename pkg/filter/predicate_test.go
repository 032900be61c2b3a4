package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/bandit-adapter/pkg/bandit"
)

func issueFrom(t *testing.T, s string) bandit.Issue {
	t.Helper()
	var issue bandit.Issue
	require.NoError(t, json.Unmarshal([]byte(s), &issue))
	return issue
}

func TestIsSecurityVulnerability(t *testing.T) {
	testCases := []struct {
		name     string
		issue    string
		expected bool
	}{
		{
			name:     "Should reject issue without text",
			issue:    `{"issue_severity": "HIGH"}`,
			expected: false,
		},
		{
			name:     "Should reject issue with empty text",
			issue:    `{"issue_text": ""}`,
			expected: false,
		},
		{
			name:     "Should reject issue with null text",
			issue:    `{"issue_text": null}`,
			expected: false,
		},
		{
			name:     "Should reject issue without any keyword",
			issue:    `{"issue_text": "Use of assert detected"}`,
			expected: false,
		},
		{
			name:     "Should accept security implications",
			issue:    `{"issue_text": "Consider possible security implications associated with pickle module."}`,
			expected: true,
		},
		{
			name:     "Should accept security issue",
			issue:    `{"issue_text": "Possible security issue."}`,
			expected: true,
		},
		{
			name:     "Should accept vulnerability",
			issue:    `{"issue_text": "Possible SQL injection vulnerability"}`,
			expected: true,
		},
		{
			name:     "Should accept vulnerable",
			issue:    `{"issue_text": "Using xml.etree.ElementTree to parse untrusted XML data is known to be vulnerable to XML attacks."}`,
			expected: true,
		},
		{
			name:     "Should ignore case",
			issue:    `{"issue_text": "SECURITY hole"}`,
			expected: true,
		},
		{
			name:     "Should match keyword inside a word",
			issue:    `{"issue_text": "Invulnerable code"}`,
			expected: true,
		},
		{
			name:     "Should match security as part of another word",
			issue:    `{"issue_text": "insecurity"}`,
			expected: true,
		},
		{
			name:     "Should not match keywords in other fields",
			issue:    `{"issue_text": "Try, Except, Pass detected.", "test_name": "security_check", "more_info": "vulnerability"}`,
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsSecurityVulnerability(issueFrom(t, tc.issue)))
		})
	}
}
