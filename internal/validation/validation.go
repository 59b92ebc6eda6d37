// Package validation converts request binding failures into the
// ValidationFailure body, at the point where handlers produce responses.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/GoPolymarket/schemascope/internal/introspect"
	"github.com/GoPolymarket/schemascope/internal/response"
	"github.com/GoPolymarket/schemascope/internal/sanitize"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	castErrorName      = "CastError"
	validatorErrorName = "ValidatorError"
)

var setupOnce sync.Once

// Setup makes validator report fields by their JSON names. Safe to call more
// than once.
func Setup() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(jsonFieldName)
		}
	})
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	default:
		return name
	}
}

// FromBindError returns the ValidationFailure describing err, or nil when err
// is not a field-level problem (malformed JSON, empty body, ...). raw is the
// request body as received; it supplies the values the caller actually sent.
func FromBindError(subject string, err error, raw []byte) *response.ValidationFailure {
	if err == nil {
		return nil
	}
	payload := decodeRaw(raw)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]response.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			path := fieldPath(fe)
			value, found := lookup(payload, path)
			if !found {
				value = providedValue(fe)
			}
			if sanitize.IsSensitivePath(path) {
				value = sanitize.RedactedMarker
			}
			fields = append(fields, response.FieldError{
				Name:    validatorErrorName,
				Path:    path,
				Value:   value,
				Kind:    fe.Tag(),
				Message: ruleMessage(fe, path, value),
			})
		}
		return response.NewValidationFailure(subject, fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		value, _ := lookup(payload, typeErr.Field)
		if sanitize.IsSensitivePath(typeErr.Field) {
			value = sanitize.RedactedMarker
		}
		kind := introspect.TypeTag(typeErr.Type)
		return response.NewValidationFailure(subject, []response.FieldError{{
			Name:    castErrorName,
			Path:    typeErr.Field,
			Value:   value,
			Kind:    kind,
			Message: castMessage(kind, value, typeErr.Value, typeErr.Field),
		}})
	}
	return nil
}

// fieldPath drops the root struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func providedValue(fe validator.FieldError) any {
	v := reflect.ValueOf(fe.Value())
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.IsZero() {
		return nil
	}
	return v.Interface()
}

func ruleMessage(fe validator.FieldError, path string, value any) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Path `%s` is required.", path)
	case "email":
		return fmt.Sprintf("Path `%s` must be a valid email address.", path)
	case "uuid", "uuid4":
		return fmt.Sprintf("Path `%s` must be a valid UUID.", path)
	case "oneof":
		return fmt.Sprintf("`%v` is not a valid enum value for path `%s` (allowed: %s).", value, path, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("Path `%s` (%v) is less than minimum allowed value (%s).", path, value, fe.Param())
	case "gt":
		return fmt.Sprintf("Path `%s` (%v) must be greater than %s.", path, value, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("Path `%s` (%v) is more than maximum allowed value (%s).", path, value, fe.Param())
	default:
		if p := fe.Param(); p != "" {
			return fmt.Sprintf("Validator failed for path `%s` (%s=%s).", path, fe.Tag(), p)
		}
		return fmt.Sprintf("Validator failed for path `%s` (%s).", path, fe.Tag())
	}
}

func castMessage(kind string, value any, jsonType, path string) string {
	rendered, err := json.Marshal(value)
	if err != nil {
		rendered = []byte(fmt.Sprint(value))
	}
	return fmt.Sprintf("Cast to %s failed for value %s (type %s) at path %q", kind, rendered, jsonType, path)
}

func decodeRaw(raw []byte) any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	return out
}

// lookup walks a dotted path such as "items[1].sku" through decoded JSON.
func lookup(root any, path string) (any, bool) {
	if root == nil || path == "" {
		return nil, false
	}
	cur := root
	for _, part := range strings.Split(path, ".") {
		name, indexes := splitIndexes(part)
		if name != "" {
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			if cur, ok = obj[name]; !ok {
				return nil, false
			}
		}
		for _, idx := range indexes {
			arr, ok := cur.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			cur = arr[idx]
		}
	}
	return cur, true
}

func splitIndexes(part string) (string, []int) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		return part, nil
	}
	name := part[:open]
	var idx []int
	for rest := part[open:]; strings.HasPrefix(rest, "["); {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		n, err := strconv.Atoi(rest[1:end])
		if err != nil {
			break
		}
		idx = append(idx, n)
		rest = rest[end+1:]
	}
	return name, idx
}
