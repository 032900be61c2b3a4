package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/bandit-adapter/pkg/bandit"
	"github.com/aquasecurity/bandit-adapter/pkg/etc"
	"github.com/aquasecurity/bandit-adapter/pkg/filter"
	"github.com/aquasecurity/bandit-adapter/pkg/job"
	"github.com/aquasecurity/bandit-adapter/pkg/mock"
)

const banditReport = `{
  "results": [
    {
      "filename": "httpie/models.py",
      "issue_confidence": "MEDIUM",
      "issue_severity": "HIGH",
      "issue_text": "Possible SQL injection vector through string-based query construction, a security issue.",
      "line_number": 9,
      "test_id": "B608"
    },
    {
      "filename": "httpie/core.py",
      "issue_confidence": "HIGH",
      "issue_severity": "LOW",
      "issue_text": "Use of assert detected.",
      "line_number": 42,
      "test_id": "B101"
    }
  ]
}`

func TestController_Scan(t *testing.T) {
	ctx := context.TODO()
	config := etc.Bandit{SourcesDir: "/src"}
	request := job.ScanRequest{Source: "httpie", Label: "httpie"}
	target := bandit.Target{Source: "/src/httpie", Label: "httpie"}

	outputDir := t.TempDir()
	reportPath := filepath.Join(outputDir, "full_scan_20251025_210542.json")
	require.NoError(t, os.WriteFile(reportPath, []byte(banditReport), 0644))

	scanResult := bandit.ScanResult{
		Target:    target,
		OutputDir: outputDir,
		Timestamp: "20251025_210542",
		Invocations: []bandit.Invocation{
			{Name: "Full JSON Report", Format: bandit.FormatJSON, Output: reportPath, ExitCode: 1},
			{Name: "Full HTML Report", Format: bandit.FormatHTML, Output: filepath.Join(outputDir, "full_scan_20251025_210542.html"), ExitCode: 1},
			{Name: "Full Text Report", Format: bandit.FormatText, Output: filepath.Join(outputDir, "full_scan_20251025_210542.txt"), Error: "running bandit: signal: killed"},
			{Name: "High Severity Only", Format: bandit.FormatText, Output: filepath.Join(outputDir, "high_severity_20251025_210542.txt"), ExitCode: 1},
		},
	}

	failedJSONResult := bandit.ScanResult{
		Target:    target,
		OutputDir: outputDir,
		Timestamp: "20251025_210542",
		Invocations: []bandit.Invocation{
			{Name: "Full JSON Report", Format: bandit.FormatJSON, Output: reportPath, Error: "locating bandit executable: not found"},
		},
	}

	expectedResult := job.ScanResult{
		Scan:         scanResult,
		FilteredPath: filepath.Join(outputDir, filter.DefaultOutputName),
		ReportDigest: digest.FromString(banditReport).String(),
		Summary: filter.Summary{
			Selected:            1,
			Total:               2,
			SeverityBreakdown:   map[string]int{"HIGH": 1},
			ConfidenceBreakdown: map[string]int{"MEDIUM": 1},
		},
	}

	testCases := []struct {
		name string

		storeExpectation   []*mock.Expectation
		wrapperExpectation *mock.Expectation

		expectedError error
	}{
		{
			name: fmt.Sprintf("Should update job status to %s when everything is fine", job.Finished.String()),
			storeExpectation: []*mock.Expectation{
				{
					Method:     "UpdateStatus",
					Args:       []interface{}{ctx, "job:123", job.Pending, []string(nil)},
					ReturnArgs: []interface{}{nil},
				},
				{
					Method:     "UpdateResult",
					Args:       []interface{}{ctx, "job:123", expectedResult},
					ReturnArgs: []interface{}{nil},
				},
				{
					Method:     "UpdateStatus",
					Args:       []interface{}{ctx, "job:123", job.Finished, []string(nil)},
					ReturnArgs: []interface{}{nil},
				},
			},
			wrapperExpectation: &mock.Expectation{
				Method:     "Scan",
				Args:       []interface{}{ctx, target, nil},
				ReturnArgs: []interface{}{scanResult, nil},
			},
		},
		{
			name: fmt.Sprintf("Should update job status to %s when bandit wrapper fails", job.Failed.String()),
			storeExpectation: []*mock.Expectation{
				{
					Method:     "UpdateStatus",
					Args:       []interface{}{ctx, "job:123", job.Pending, []string(nil)},
					ReturnArgs: []interface{}{nil},
				},
				{
					Method:     "UpdateStatus",
					Args:       []interface{}{ctx, "job:123", job.Failed, []string{"running bandit wrapper: creating output dir: permission denied"}},
					ReturnArgs: []interface{}{nil},
				},
			},
			wrapperExpectation: &mock.Expectation{
				Method:     "Scan",
				Args:       []interface{}{ctx, target, nil},
				ReturnArgs: []interface{}{bandit.ScanResult{}, xerrors.New("creating output dir: permission denied")},
			},
		},
		{
			name: fmt.Sprintf("Should update job status to %s when JSON report is missing", job.Failed.String()),
			storeExpectation: []*mock.Expectation{
				{
					Method:     "UpdateStatus",
					Args:       []interface{}{ctx, "job:123", job.Pending, []string(nil)},
					ReturnArgs: []interface{}{nil},
				},
				{
					Method:     "UpdateStatus",
					Args:       []interface{}{ctx, "job:123", job.Failed, []string{"bandit JSON report not produced for /src/httpie"}},
					ReturnArgs: []interface{}{nil},
				},
			},
			wrapperExpectation: &mock.Expectation{
				Method:     "Scan",
				Args:       []interface{}{ctx, target, nil},
				ReturnArgs: []interface{}{failedJSONResult, nil},
			},
		},
		{
			name: "Should return error when failed status cannot be saved",
			storeExpectation: []*mock.Expectation{
				{
					Method:     "UpdateStatus",
					Args:       []interface{}{ctx, "job:123", job.Pending, []string(nil)},
					ReturnArgs: []interface{}{xerrors.New("connection refused")},
				},
				{
					Method:     "UpdateStatus",
					Args:       []interface{}{ctx, "job:123", job.Failed, []string{"updating scan job status: connection refused"}},
					ReturnArgs: []interface{}{xerrors.New("connection refused")},
				},
			},
			expectedError: xerrors.New("updating scan job as failed: connection refused"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := mock.NewStore()
			wrapper := mock.NewWrapper()

			mock.ApplyExpectations(t, store, tc.storeExpectation...)
			mock.ApplyExpectations(t, wrapper, tc.wrapperExpectation)

			err := NewController(config, store, wrapper).Scan(ctx, "job:123", request)
			if tc.expectedError != nil {
				assert.EqualError(t, err, tc.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			store.AssertExpectations(t)
			wrapper.AssertExpectations(t)
		})
	}

	t.Run("Should write filtered report next to bandit report", func(t *testing.T) {
		_, err := os.Stat(filepath.Join(outputDir, filter.DefaultOutputName))
		assert.NoError(t, err)
	})
}
