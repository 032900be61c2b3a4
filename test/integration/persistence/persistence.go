package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/bandit-adapter/pkg/bandit"
	"github.com/aquasecurity/bandit-adapter/pkg/filter"
	"github.com/aquasecurity/bandit-adapter/pkg/job"
	"github.com/aquasecurity/bandit-adapter/pkg/persistence"
)

// TestStoreInterface is a generic test that is intended to be called by the implementations of the Store interface
func TestStoreInterface(t *testing.T, store persistence.Store) {
	ctx := context.Background()

	t.Run("CRUD", func(t *testing.T) {
		scanJobID := "123"

		err := store.Create(ctx, job.ScanJob{
			ID:     scanJobID,
			Status: job.Queued,
		})
		require.NoError(t, err, "saving scan job should not fail")

		j, err := store.Get(ctx, scanJobID)
		require.NoError(t, err, "getting scan job should not fail")
		assert.Equal(t, &job.ScanJob{
			ID:     scanJobID,
			Status: job.Queued,
		}, j)

		err = store.UpdateStatus(ctx, scanJobID, job.Pending)
		require.NoError(t, err, "updating scan job status should not fail")

		j, err = store.Get(ctx, scanJobID)
		require.NoError(t, err, "getting scan job should not fail")
		assert.Equal(t, &job.ScanJob{
			ID:     scanJobID,
			Status: job.Pending,
		}, j)

		result := job.ScanResult{
			Scan: bandit.ScanResult{
				Target:    bandit.Target{Source: "/src/httpie", Label: "httpie"},
				OutputDir: "analysis_results/httpie",
				Timestamp: "20251025_210542",
				Invocations: []bandit.Invocation{
					{Name: "Full JSON Report", Format: bandit.FormatJSON, Output: "analysis_results/httpie/full_scan_20251025_210542.json", ExitCode: 1},
				},
			},
			FilteredPath: "analysis_results/httpie/security_vulnerabilities.json",
			Summary: filter.Summary{
				Selected:            2,
				Total:               5,
				SeverityBreakdown:   map[string]int{"HIGH": 1, "LOW": 1},
				ConfidenceBreakdown: map[string]int{"HIGH": 2},
			},
		}

		err = store.UpdateResult(ctx, scanJobID, result)
		require.NoError(t, err, "updating scan job result should not fail")

		j, err = store.Get(ctx, scanJobID)
		require.NoError(t, err, "retrieving scan job should not fail")
		require.NotNil(t, j, "retrieved scan job must not be nil")
		assert.Equal(t, &result, j.Result)

		err = store.UpdateStatus(ctx, scanJobID, job.Finished)
		require.NoError(t, err)
	})

	t.Run("Should return nil for unknown scan job", func(t *testing.T) {
		j, err := store.Get(ctx, "unknown")
		require.NoError(t, err)
		assert.Nil(t, j)
	})
}
