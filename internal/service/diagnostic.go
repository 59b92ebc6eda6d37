package service

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/GoPolymarket/schemascope/internal/introspect"
	"github.com/GoPolymarket/schemascope/internal/mismatch"
	"github.com/GoPolymarket/schemascope/internal/model"
	"github.com/GoPolymarket/schemascope/internal/response"
	"github.com/GoPolymarket/schemascope/internal/sanitize"
)

// Completion is everything the HTTP layer knows once a response is final.
type Completion struct {
	RequestID string
	URI       string
	Method    string
	Status    int
	Payload   []byte        // request body as received
	Response  response.Body // captured before transmission
	Resources []string      // frozen scope contents
	Latency   time.Duration
	At        time.Time
}

// IsMutating reports whether method creates, updates or deletes.
func IsMutating(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// ShouldEmit is the noise policy: errors and writes are logged, successful
// reads never are.
func ShouldEmit(method string, status int) bool {
	return status >= http.StatusBadRequest || IsMutating(method)
}

// CarriesPayload reports whether the request body belongs in the record.
// DELETE only counts when it actually sent a body.
func CarriesPayload(method string, body []byte) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	case http.MethodDelete:
		return len(bytes.TrimSpace(body)) > 0
	default:
		return false
	}
}

type Assembler struct {
	introspector *introspect.Introspector
}

func NewAssembler(in *introspect.Introspector) *Assembler {
	return &Assembler{introspector: in}
}

// Assemble builds the record for one completed request. It never fails:
// every degraded input shows up as degraded data.
func (a *Assembler) Assemble(in Completion) model.DiagnosticRecord {
	at := in.At
	if at.IsZero() {
		at = time.Now()
	}
	rec := model.DiagnosticRecord{
		RequestID:        in.RequestID,
		URI:              in.URI,
		Method:           strings.ToUpper(in.Method),
		Status:           in.Status,
		ValidationErrors: mismatch.Report(in.Response),
		LatencyMs:        in.Latency.Milliseconds(),
		Timestamp:        at.UTC(),
	}
	if a != nil {
		rec.ExpectedSchema = a.introspector.DescribeAll(in.Resources)
	}
	if CarriesPayload(in.Method, in.Payload) {
		rec.PayloadSent = sanitize.SanitizeJSON(in.Payload)
	}
	return rec
}
