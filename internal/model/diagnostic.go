package model

import (
	"encoding/json"
	"time"

	"github.com/GoPolymarket/schemascope/internal/introspect"
)

// ValidationErrorEntry is one field the validation layer rejected.
type ValidationErrorEntry struct {
	Field         string `json:"field"`
	ProvidedValue any    `json:"providedValue"`
	ExpectedType  string `json:"expectedType"`
	Message       string `json:"message"`
}

// NoValidationErrors is written when the response was not a validation failure.
const NoValidationErrors = "None"

// ValidationReport distinguishes "not a validation failure" (Present=false)
// from a failure that listed zero fields.
type ValidationReport struct {
	Present bool
	Entries []ValidationErrorEntry
}

func (r ValidationReport) MarshalJSON() ([]byte, error) {
	if !r.Present {
		return json.Marshal(NoValidationErrors)
	}
	if r.Entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Entries)
}

func (r *ValidationReport) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = ValidationReport{}
		return nil
	}
	var entries []ValidationErrorEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*r = ValidationReport{Present: true, Entries: entries}
	return nil
}

// DiagnosticRecord correlates one completed request with what was rejected and
// what the touched schemas expect. Built once, then only read.
type DiagnosticRecord struct {
	RequestID        string                           `json:"request_id"`
	URI              string                           `json:"uri"`
	Method           string                           `json:"method"`
	Status           int                              `json:"status"`
	PayloadSent      any                              `json:"payload_sent,omitempty"`
	ValidationErrors ValidationReport                 `json:"validation_errors"`
	ExpectedSchema   map[string]introspect.Descriptor `json:"expected_schema,omitempty"`
	LatencyMs        int64                            `json:"latency_ms"`
	Timestamp        time.Time                        `json:"timestamp"`
}
