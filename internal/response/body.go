// Package response classifies every body a handler sends into a closed set of
// kinds and gives middleware a supported point to intercept emission.
package response

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/GoPolymarket/schemascope/internal/pkg/apperrors"
)

type Kind int

const (
	// KindUnknown marks a body written without going through Emit.
	KindUnknown Kind = iota
	KindSuccess
	KindValidationFailure
	KindGenericError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindValidationFailure:
		return "validation_failure"
	case KindGenericError:
		return "generic_error"
	default:
		return "unknown"
	}
}

// Body is what a handler hands to Emit. Exactly one of Payload, Failure or
// Err is meaningful, selected by Kind.
type Body struct {
	Kind    Kind
	Payload any
	Failure *ValidationFailure
	Err     *apperrors.AppError
}

func Success(payload any) Body {
	return Body{Kind: KindSuccess, Payload: payload}
}

func Invalid(f *ValidationFailure) Body {
	return Body{Kind: KindValidationFailure, Failure: f}
}

func Failed(err *apperrors.AppError) Body {
	return Body{Kind: KindGenericError, Err: err}
}

// Wire is the value serialized to the client.
func (b Body) Wire() any {
	switch b.Kind {
	case KindValidationFailure:
		return b.Failure
	case KindGenericError:
		return b.Err
	default:
		return b.Payload
	}
}

// ValidationErrorName is the discriminator carried by validation failures.
const ValidationErrorName = "ValidationError"

// FieldError describes one rejected field.
type FieldError struct {
	Name    string `json:"name"` // "CastError" or "ValidatorError"
	Path    string `json:"path"`
	Value   any    `json:"value"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ValidationFailure is the 400 body for field-level rejections. Errors keeps
// the order in which fields were rejected.
type ValidationFailure struct {
	Message string
	Errors  []FieldError
}

// MarshalJSON writes {"name":"ValidationError","message":...,"errors":{path:{...}}}
// with the errors object in slice order.
func (f *ValidationFailure) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"name":`)
	name, _ := json.Marshal(ValidationErrorName)
	buf.Write(name)
	buf.WriteString(`,"message":`)
	msg, err := json.Marshal(f.Message)
	if err != nil {
		return nil, err
	}
	buf.Write(msg)
	buf.WriteString(`,"errors":{`)
	for i, fe := range f.Errors {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fe.Path)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(fe)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// NewValidationFailure builds the summary message from the field errors,
// e.g. "User validation failed: age: Cast to Number failed ...".
func NewValidationFailure(subject string, errs []FieldError) *ValidationFailure {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fe.Path+": "+fe.Message)
	}
	msg := "Validation failed"
	if subject != "" {
		msg = subject + " validation failed"
	}
	if len(parts) > 0 {
		msg += ": " + strings.Join(parts, ", ")
	}
	return &ValidationFailure{Message: msg, Errors: errs}
}
