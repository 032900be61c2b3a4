package bandit

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"golang.org/x/xerrors"
)

const (
	FieldIssueText       = "issue_text"
	FieldIssueSeverity   = "issue_severity"
	FieldIssueConfidence = "issue_confidence"

	// Unknown labels an issue that carries no severity or confidence.
	Unknown = "UNKNOWN"
)

// ErrTrailingData is returned when a report holds more than one JSON value.
var ErrTrailingData = errors.New("unexpected data after top-level value")

// Report is the part of Bandit's JSON report that the adapter reads. Top level
// fields other than results (errors, generated_at, metrics) are ignored.
type Report struct {
	Results []Issue `json:"results"`
}

// Issue is a single Bandit finding. Only a few fields are interpreted; the
// original JSON object is kept verbatim so that it can be written back
// without losing or reordering anything.
type Issue struct {
	raw    json.RawMessage
	fields map[string]json.RawMessage
}

func (i *Issue) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	i.fields = fields
	i.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (i Issue) MarshalJSON() ([]byte, error) {
	if i.raw == nil {
		return []byte("null"), nil
	}
	return i.raw, nil
}

// String returns the string value of the given field, or def when the field
// is absent or does not hold a JSON string.
func (i Issue) String(field, def string) string {
	raw, ok := i.fields[field]
	if !ok || bytes.Equal(raw, []byte("null")) {
		return def
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return def
	}
	return value
}

func (i Issue) Text() string {
	return i.String(FieldIssueText, "")
}

func (i Issue) Severity() string {
	return i.String(FieldIssueSeverity, Unknown)
}

func (i Issue) Confidence() string {
	return i.String(FieldIssueConfidence, Unknown)
}

// Has reports whether the issue carries the given field at all.
func (i Issue) Has(field string) bool {
	_, ok := i.fields[field]
	return ok
}

// Equal reports whether both issues were decoded from the same JSON text.
func (i Issue) Equal(other Issue) bool {
	return bytes.Equal(i.raw, other.raw)
}

// ReportFrom decodes a Bandit JSON report. A missing or null results field
// yields a report without issues.
// Anything but whitespace after the top-level object is an error.
func ReportFrom(reportFile io.Reader) (report Report, err error) {
	dec := json.NewDecoder(reportFile)
	if err = dec.Decode(&report); err != nil {
		return report, xerrors.Errorf("decoding bandit report: %w", err)
	}
	if _, err = dec.Token(); !errors.Is(err, io.EOF) {
		return Report{}, xerrors.Errorf("decoding bandit report: %w", ErrTrailingData)
	}
	return report, nil
}
