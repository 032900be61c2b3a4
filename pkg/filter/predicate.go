package filter

import (
	"strings"

	"github.com/samber/lo"

	"github.com/aquasecurity/bandit-adapter/pkg/bandit"
)

// securityKeywords are matched as plain substrings of the lower-cased issue
// text. The first two are subsumed by "security".
var securityKeywords = []string{
	"security implications",
	"security issue",
	"security",
	"vulnerability",
	"vulnerable",
}

// IsSecurityVulnerability reports whether the issue text mentions any of the
// security keywords, ignoring case.
func IsSecurityVulnerability(issue bandit.Issue) bool {
	text := strings.ToLower(issue.Text())
	return lo.ContainsBy(securityKeywords, func(keyword string) bool {
		return strings.Contains(text, keyword)
	})
}
