package job

import (
	"encoding/json"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/bandit-adapter/pkg/bandit"
	"github.com/aquasecurity/bandit-adapter/pkg/filter"
)

type ScanJobStatus int

const (
	Queued ScanJobStatus = iota
	Pending
	Finished
	Failed
)

func (s ScanJobStatus) String() string {
	if s < 0 || s > 3 {
		return "Unknown"
	}
	return [...]string{
		"Queued",
		"Pending",
		"Finished",
		"Failed",
	}[s]
}

// MarshalJSON marshals the status as its quoted name.
func (s ScanJobStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON unmarshals a quoted status name.
func (s *ScanJobStatus) UnmarshalJSON(b []byte) error {
	var value string
	if err := json.Unmarshal(b, &value); err != nil {
		return err
	}
	for status := Queued; status <= Failed; status++ {
		if status.String() == value {
			*s = status
			return nil
		}
	}
	return xerrors.Errorf("unknown scan job status: %q", value)
}

// ScanRequest asks for a bandit scan of Source, a path relative to the
// configured sources dir, with reports stored under Label.
type ScanRequest struct {
	Source string `json:"source" schema:"source"`
	Label  string `json:"label" schema:"label"`
}

type ScanJob struct {
	ID     string        `json:"id"`
	Status ScanJobStatus `json:"status"`
	Error  string        `json:"error,omitempty"`
	Result *ScanResult   `json:"result,omitempty"`
}

type ScanResult struct {
	Scan         bandit.ScanResult `json:"scan"`
	FilteredPath string            `json:"filtered_path"`
	ReportDigest string            `json:"report_digest"`
	Summary      filter.Summary    `json:"summary"`
}
