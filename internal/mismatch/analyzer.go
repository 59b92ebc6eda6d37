// Package mismatch turns a validation-failure response into per-field
// discrepancies between what the caller sent and what was expected.
package mismatch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GoPolymarket/schemascope/internal/model"
	"github.com/GoPolymarket/schemascope/internal/response"
	"github.com/GoPolymarket/schemascope/internal/sanitize"
)

// Analyze returns one entry per rejected field, in the failure's own order.
// ok is false when body is not a validation failure at all; that is not the
// same as a failure with an empty entry list.
func Analyze(body response.Body) (entries []model.ValidationErrorEntry, ok bool) {
	if body.Kind != response.KindValidationFailure || body.Failure == nil {
		return nil, false
	}
	if body.Failure.Errors == nil {
		return nil, false
	}
	entries = make([]model.ValidationErrorEntry, 0, len(body.Failure.Errors))
	for _, fe := range body.Failure.Errors {
		entries = append(entries, entry(fe))
	}
	return entries, true
}

// entry never lets the value sent for a sensitive path through, neither as
// the provided value nor inside the message.
func entry(fe response.FieldError) model.ValidationErrorEntry {
	out := model.ValidationErrorEntry{
		Field:         fe.Path,
		ProvidedValue: fe.Value,
		ExpectedType:  fe.Kind,
		Message:       fe.Message,
	}
	switch fe.Value.(type) {
	case map[string]any, []any:
		out.ProvidedValue = sanitize.Sanitize(fe.Value)
	}
	if !sanitize.IsSensitivePath(fe.Path) {
		return out
	}
	out.ProvidedValue = sanitize.RedactedMarker
	out.Message = scrub(fe.Message, fe.Value)
	return out
}

// scrub replaces every rendering of value in msg with the redaction marker.
func scrub(msg string, value any) string {
	if value == nil || value == sanitize.RedactedMarker {
		return msg
	}
	renderings := []string{fmt.Sprint(value)}
	if raw, err := json.Marshal(value); err == nil {
		renderings = append(renderings, string(raw))
	}
	for _, r := range renderings {
		if r == "" || r == `""` {
			continue
		}
		msg = strings.ReplaceAll(msg, r, sanitize.RedactedMarker)
	}
	return msg
}

// Report wraps Analyze into the value stored on a diagnostic record.
func Report(body response.Body) model.ValidationReport {
	entries, ok := Analyze(body)
	return model.ValidationReport{Present: ok, Entries: entries}
}
