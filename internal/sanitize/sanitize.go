// Package sanitize redacts sensitive fields from request payloads before they
// reach a diagnostic record.
package sanitize

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RedactedMarker replaces the value of every sensitive key.
const RedactedMarker = "***** [REDACTED] *****"

var sensitiveKeys = [...]string{"password", "token", "secret", "auth", "card", "cvv"}

// SensitiveKeys returns the substrings that flag a key for redaction.
func SensitiveKeys() []string {
	out := make([]string, len(sensitiveKeys))
	copy(out, sensitiveKeys[:])
	return out
}

// IsSensitiveKey reports whether key contains a sensitive substring,
// ignoring case.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// IsSensitivePath reports whether any segment of a dotted field path such as
// "card.number" or "items[0].token" is a sensitive key.
func IsSensitivePath(path string) bool {
	for _, part := range strings.Split(path, ".") {
		if i := strings.IndexByte(part, '['); i >= 0 {
			part = part[:i]
		}
		if part != "" && IsSensitiveKey(part) {
			return true
		}
	}
	return false
}

// Sanitize returns a redacted deep copy of v. The input is never modified.
// A nil input, or one that cannot be copied, yields an empty map.
func Sanitize(v any) (out any) {
	if v == nil {
		return map[string]any{}
	}
	defer func() {
		if recover() != nil {
			out = map[string]any{}
		}
	}()

	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	return SanitizeJSON(raw)
}

// SanitizeJSON decodes raw and redacts it. Empty or malformed input yields an
// empty map.
func SanitizeJSON(raw []byte) any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return map[string]any{}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var clone any
	if err := dec.Decode(&clone); err != nil || clone == nil {
		return map[string]any{}
	}
	return redact(clone)
}

// redact works in place on a value the package owns. A matched key's value is
// replaced wholesale; nothing beneath it is visited.
func redact(v any) any {
	switch node := v.(type) {
	case map[string]any:
		for key, val := range node {
			if IsSensitiveKey(key) {
				node[key] = RedactedMarker
				continue
			}
			node[key] = redact(val)
		}
		return node
	case []any:
		for i, val := range node {
			node[i] = redact(val)
		}
		return node
	default:
		return v
	}
}
