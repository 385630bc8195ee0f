package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nimburion/notify/pkg/notify/schema"
)

const (
	fieldServices = "services"
	fieldService  = "service"
	fieldTypes    = "types"
	fieldConfig   = "config"

	expectedNonEmpty = "non-empty string"
)

var entryFields = map[string]struct{}{
	fieldService: {},
	fieldTypes:   {},
	fieldConfig:  {},
}

var defaultValidator = NewValidator(nil)

// Validate checks raw against schema.Default. See Validator.Validate.
func Validate(raw any) (*Document, error) {
	return defaultValidator.Validate(raw)
}

// Validator validates raw documents against a schema registry.
// A Validator holds no mutable state and is safe for concurrent use.
type Validator struct {
	registry *schema.Registry
}

// NewValidator creates a validator. A nil registry selects schema.Default.
func NewValidator(registry *schema.Registry) *Validator {
	if registry == nil {
		registry = schema.Default
	}
	return &Validator{registry: registry}
}

// Validate resolves, checks and normalizes every entry of raw.
// It returns the Document when no violation is found. Otherwise it returns a
// nil Document and a ValidationErrors holding every violation of every entry.
func (v *Validator) Validate(raw any) (*Document, error) {
	root, ok := asRecord(raw)
	if !ok {
		return nil, ValidationErrors{malformed(-1, "document must be a record")}
	}
	rawServices, present := root[fieldServices]
	if !present {
		return nil, ValidationErrors{malformed(-1, "services is required")}
	}
	items, ok := asSequence(rawServices)
	if !ok {
		return nil, ValidationErrors{malformed(-1, "services must be a sequence")}
	}

	var errs ValidationErrors
	entries := make([]ServiceEntry, 0, len(items))
	for index, item := range items {
		entry, entryErrs := v.validateEntry(index, item)
		if len(entryErrs) > 0 {
			errs = append(errs, entryErrs...)
			continue
		}
		entries = append(entries, entry)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return &Document{services: entries}, nil
}

func (v *Validator) validateEntry(index int, item any) (ServiceEntry, ValidationErrors) {
	record, ok := asRecord(item)
	if !ok {
		return ServiceEntry{}, ValidationErrors{malformed(index, "entry must be a record")}
	}

	rawKind, present := record[fieldService]
	if !present || rawKind == nil {
		return ServiceEntry{}, ValidationErrors{{
			Code:  CodeMissingDiscriminant,
			Index: index,
			Field: fieldService,
		}}
	}
	name, isString := rawKind.(string)
	rules, known := v.registry.Lookup(schema.ServiceKind(name))
	if !isString || !known {
		return ServiceEntry{}, ValidationErrors{{
			Code:  CodeUnknownServiceKind,
			Index: index,
			Field: fieldService,
			Value: render(rawKind),
		}}
	}

	var errs ValidationErrors
	types, typeErrs := resolveTypes(index, rules, record)
	errs = append(errs, typeErrs...)
	values, configErrs := resolveConfig(index, rules, record)
	errs = append(errs, configErrs...)
	for _, key := range sortedKeys(record) {
		if _, ok := entryFields[key]; !ok {
			errs = append(errs, &ConfigError{
				Code:    CodeUnknownEntryKey,
				Index:   index,
				Service: rules.Kind,
				Field:   key,
			})
		}
	}
	if len(errs) > 0 {
		return ServiceEntry{}, errs
	}

	config, err := newBackendConfig(rules.Kind, values)
	if err != nil {
		return ServiceEntry{}, ValidationErrors{{
			Code:  CodeUnknownServiceKind,
			Index: index,
			Field: fieldService,
			Value: name,
		}}
	}
	return ServiceEntry{Service: rules.Kind, Config: config, types: types}, nil
}

// resolveTypes returns the subscribed event types. Absent types subscribe to
// every event type the kind allows.
func resolveTypes(index int, rules schema.KindRules, record map[string]any) ([]schema.EventType, ValidationErrors) {
	raw, present := record[fieldTypes]
	if !present || raw == nil {
		return rules.EventTypes, nil
	}
	items, ok := asSequence(raw)
	if !ok {
		return nil, ValidationErrors{{
			Code:     CodeTypeMismatch,
			Index:    index,
			Service:  rules.Kind,
			Field:    fieldTypes,
			Expected: "array",
		}}
	}

	var errs ValidationErrors
	selected := make([]schema.EventType, 0, len(items))
	for _, item := range items {
		value, isString := item.(string)
		eventType, known := schema.ParseEventType(value)
		if !isString || !known || !rules.AllowsEventType(eventType) {
			errs = append(errs, &ConfigError{
				Code:    CodeInvalidEventType,
				Index:   index,
				Service: rules.Kind,
				Field:   fieldTypes,
				Value:   render(item),
			})
			continue
		}
		selected = append(selected, eventType)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return schema.SortEventTypes(selected), nil
}

// resolveConfig checks the config record and returns it with defaults merged.
func resolveConfig(index int, rules schema.KindRules, record map[string]any) (map[string]string, ValidationErrors) {
	config := map[string]any{}
	if raw, present := record[fieldConfig]; present && raw != nil {
		parsed, ok := asRecord(raw)
		if !ok {
			return nil, ValidationErrors{{
				Code:     CodeTypeMismatch,
				Index:    index,
				Service:  rules.Kind,
				Field:    fieldConfig,
				Expected: "object",
			}}
		}
		config = parsed
	}

	var errs ValidationErrors
	keys := sortedKeys(config)
	for _, key := range keys {
		if _, known := rules.Key(key); !known {
			errs = append(errs, &ConfigError{
				Code:    CodeUnknownConfigKey,
				Index:   index,
				Service: rules.Kind,
				Field:   key,
			})
		}
	}

	for _, spec := range rules.Keys {
		if !spec.Required {
			continue
		}
		value, supplied := config[spec.Name]
		text, isString := value.(string)
		if !supplied || value == nil || (isString && spec.NonEmpty && strings.TrimSpace(text) == "") {
			errs = append(errs, &ConfigError{
				Code:    CodeMissingRequiredKey,
				Index:   index,
				Service: rules.Kind,
				Field:   spec.Name,
			})
		}
	}

	values := make(map[string]string, len(rules.Keys))
	for _, key := range keys {
		spec, known := rules.Key(key)
		if !known {
			continue
		}
		value := config[key]
		if value == nil && spec.Required {
			continue
		}
		text, isString := value.(string)
		if !isString {
			errs = append(errs, &ConfigError{
				Code:     CodeTypeMismatch,
				Index:    index,
				Service:  rules.Kind,
				Field:    key,
				Value:    render(value),
				Expected: string(spec.Type),
			})
			continue
		}
		if spec.NonEmpty && !spec.Required && strings.TrimSpace(text) == "" {
			errs = append(errs, &ConfigError{
				Code:     CodeTypeMismatch,
				Index:    index,
				Service:  rules.Kind,
				Field:    key,
				Value:    render(value),
				Expected: expectedNonEmpty,
			})
			continue
		}
		values[key] = text
	}
	if len(errs) > 0 {
		return nil, errs
	}

	for _, spec := range rules.Keys {
		if _, supplied := values[spec.Name]; supplied || spec.Required || !spec.HasDefault {
			continue
		}
		values[spec.Name] = spec.Default
	}
	return values, nil
}

func newBackendConfig(kind schema.ServiceKind, values map[string]string) (BackendConfig, error) {
	switch kind {
	case schema.ServiceChanify:
		return ChanifyConfig{
			Token: values[schema.KeyToken],
			URL:   values[schema.KeyURL],
		}, nil
	case schema.ServiceFileReporter:
		return FileReporterConfig{
			FilePath: values[schema.KeyFilePath],
		}, nil
	default:
		return nil, fmt.Errorf("no backend config for service %q", kind)
	}
}

func malformed(index int, reason string) *ConfigError {
	return &ConfigError{Code: CodeMalformedDocument, Index: index, Value: reason}
}

func asRecord(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for key, item := range m {
			out[key] = item
		}
		return out, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for key, item := range m {
			name, ok := key.(string)
			if !ok {
				return nil, false
			}
			out[name] = item
		}
		return out, true
	default:
		return nil, false
	}
}

func asSequence(value any) ([]any, bool) {
	switch s := value.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, 0, len(s))
		for _, item := range s {
			out = append(out, item)
		}
		return out, true
	case []map[string]any:
		out := make([]any, 0, len(s))
		for _, item := range s {
			out = append(out, item)
		}
		return out, true
	default:
		return nil, false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func render(value any) string {
	if value == nil {
		return "null"
	}
	return fmt.Sprintf("%v", value)
}
