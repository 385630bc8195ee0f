package notify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nimburion/notify/pkg/notify/schema"
)

// ErrorCode is the stable identifier of a configuration violation.
type ErrorCode string

// Error code constants
const (
	CodeMalformedDocument   ErrorCode = "malformed_document"
	CodeMissingDiscriminant ErrorCode = "missing_discriminant"
	CodeUnknownServiceKind  ErrorCode = "unknown_service_kind"
	CodeUnknownEntryKey     ErrorCode = "unknown_entry_key"
	CodeInvalidEventType    ErrorCode = "invalid_event_type"
	CodeUnknownConfigKey    ErrorCode = "unknown_config_key"
	CodeMissingRequiredKey  ErrorCode = "missing_required_key"
	CodeTypeMismatch        ErrorCode = "type_mismatch"
)

// Sentinel errors matched with errors.Is against a *ConfigError.
var (
	ErrMalformedDocument   = errors.New("malformed document")
	ErrMissingDiscriminant = errors.New("missing service")
	ErrUnknownServiceKind  = errors.New("unknown service kind")
	ErrUnknownEntryKey     = errors.New("unknown entry key")
	ErrInvalidEventType    = errors.New("invalid event type")
	ErrUnknownConfigKey    = errors.New("unknown config key")
	ErrMissingRequiredKey  = errors.New("missing required config key")
	ErrTypeMismatch        = errors.New("type mismatch")
)

var sentinels = map[ErrorCode]error{
	CodeMalformedDocument:   ErrMalformedDocument,
	CodeMissingDiscriminant: ErrMissingDiscriminant,
	CodeUnknownServiceKind:  ErrUnknownServiceKind,
	CodeUnknownEntryKey:     ErrUnknownEntryKey,
	CodeInvalidEventType:    ErrInvalidEventType,
	CodeUnknownConfigKey:    ErrUnknownConfigKey,
	CodeMissingRequiredKey:  ErrMissingRequiredKey,
	CodeTypeMismatch:        ErrTypeMismatch,
}

// ConfigError is one violation found in a notification document.
type ConfigError struct {
	Code ErrorCode
	// Index is the position of the entry in services, or -1 for document-level errors.
	Index int
	// Service is the resolved kind, empty when the entry has none.
	Service schema.ServiceKind
	// Field is the offending key: "service", "types", "config" or a config key.
	Field string
	// Value is the offending value rendered as text, when there is one.
	Value string
	// Expected is the declared type for type mismatches.
	Expected string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	return e.location() + ": " + e.message()
}

// Unwrap exposes the sentinel error for the code.
func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return sentinels[e.Code]
}

func (e *ConfigError) location() string {
	if e.Index < 0 {
		return "services"
	}
	if e.Service != "" {
		return fmt.Sprintf("services[%d] (%s)", e.Index, e.Service)
	}
	return fmt.Sprintf("services[%d]", e.Index)
}

func (e *ConfigError) message() string {
	switch e.Code {
	case CodeMalformedDocument:
		if e.Value != "" {
			return e.Value
		}
		return "malformed document"
	case CodeMissingDiscriminant:
		return "service is required"
	case CodeUnknownServiceKind:
		return fmt.Sprintf("unknown service %q", e.Value)
	case CodeUnknownEntryKey:
		return fmt.Sprintf("unknown key %q", e.Field)
	case CodeInvalidEventType:
		return fmt.Sprintf("event type %q is not allowed for %s", e.Value, e.Service)
	case CodeUnknownConfigKey:
		return fmt.Sprintf("config.%s is not a recognized key", e.Field)
	case CodeMissingRequiredKey:
		return fmt.Sprintf("config.%s is required", e.Field)
	case CodeTypeMismatch:
		path := e.Field
		if path != fieldTypes && path != fieldConfig {
			path = fieldConfig + "." + path
		}
		return fmt.Sprintf("%s must be of type %s", path, e.Expected)
	default:
		return string(e.Code)
	}
}

// ValidationErrors aggregates every violation found in one validation pass.
type ValidationErrors []*ConfigError

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	switch len(v) {
	case 0:
		return "no validation errors"
	case 1:
		return "invalid notify configuration: " + v[0].Error()
	}
	lines := make([]string, 0, len(v))
	for _, e := range v {
		lines = append(lines, e.Error())
	}
	return fmt.Sprintf("invalid notify configuration (%d errors):\n  %s", len(v), strings.Join(lines, "\n  "))
}

// Unwrap exposes every member so errors.Is and errors.As traverse the list.
func (v ValidationErrors) Unwrap() []error {
	out := make([]error, 0, len(v))
	for _, e := range v {
		out = append(out, e)
	}
	return out
}

// ForEntry returns the errors reported for the entry at index.
func (v ValidationErrors) ForEntry(index int) ValidationErrors {
	var out ValidationErrors
	for _, e := range v {
		if e.Index == index {
			out = append(out, e)
		}
	}
	return out
}

// Codes lists the error codes in report order.
func (v ValidationErrors) Codes() []ErrorCode {
	out := make([]ErrorCode, 0, len(v))
	for _, e := range v {
		out = append(out, e.Code)
	}
	return out
}
