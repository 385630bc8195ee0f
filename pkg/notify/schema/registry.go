package schema

import (
	"fmt"
	"sort"
)

// Default backend settings
const (
	// DefaultChanifyURL is the public Chanify relay endpoint
	DefaultChanifyURL = "https://api.chanify.net"
	// DefaultReportFilePath is where file_reporter writes when no path is configured
	DefaultReportFilePath = "config/report.json"
)

// Config keys
const (
	KeyToken    = "token"
	KeyURL      = "url"
	KeyFilePath = "file_path"
)

// ValueType is the primitive type a config key accepts.
type ValueType string

// Value type constants
const (
	ValueString ValueType = "string"
)

// KeySpec describes one config key of a backend.
type KeySpec struct {
	Name     string
	Type     ValueType
	Required bool
	// NonEmpty rejects blank values. A blank required key is reported as
	// missing, a blank optional key as a type mismatch.
	NonEmpty bool
	// Secret marks values that are masked when a document is printed.
	Secret bool
	// Default is applied when the key is absent. Ignored for required keys.
	Default    string
	HasDefault bool
}

// KindRules holds the validation rules for one service kind.
type KindRules struct {
	Kind        ServiceKind
	Description string
	Keys        []KeySpec
	EventTypes  []EventType
}

// Key returns the spec for name.
func (r KindRules) Key(name string) (KeySpec, bool) {
	for _, key := range r.Keys {
		if key.Name == name {
			return key, true
		}
	}
	return KeySpec{}, false
}

// AllowsEventType reports whether the kind may subscribe to t.
func (r KindRules) AllowsEventType(t EventType) bool {
	for _, allowed := range r.EventTypes {
		if allowed == t {
			return true
		}
	}
	return false
}

// Registry is an immutable table of KindRules keyed by ServiceKind.
// A Registry is safe for concurrent use.
type Registry struct {
	order []ServiceKind
	rules map[ServiceKind]KindRules
}

// Default is the process-wide registry of supported backends.
var Default = MustNewRegistry(
	KindRules{
		Kind:        ServiceChanify,
		Description: "Chanify push relay",
		Keys: []KeySpec{
			{Name: KeyToken, Type: ValueString, Required: true, NonEmpty: true, Secret: true},
			{Name: KeyURL, Type: ValueString, NonEmpty: true, Default: DefaultChanifyURL, HasDefault: true},
		},
		EventTypes: []EventType{EventException, EventReport, EventShutdown, EventStart, EventStop},
	},
	KindRules{
		Kind:        ServiceFileReporter,
		Description: "Local JSON report file",
		Keys: []KeySpec{
			{Name: KeyFilePath, Type: ValueString, NonEmpty: true, Default: DefaultReportFilePath, HasDefault: true},
		},
		EventTypes: []EventType{EventReport},
	},
)

// NewRegistry builds a registry from rules. Rules are copied, so later changes
// to the arguments do not leak into the registry.
func NewRegistry(rules ...KindRules) (*Registry, error) {
	reg := &Registry{rules: make(map[ServiceKind]KindRules, len(rules))}
	for _, rule := range rules {
		if rule.Kind == "" {
			return nil, fmt.Errorf("service kind is required")
		}
		if _, exists := reg.rules[rule.Kind]; exists {
			return nil, fmt.Errorf("duplicate service kind %q", rule.Kind)
		}
		names := make(map[string]struct{}, len(rule.Keys))
		for _, key := range rule.Keys {
			if key.Name == "" {
				return nil, fmt.Errorf("%s: config key name is required", rule.Kind)
			}
			if _, dup := names[key.Name]; dup {
				return nil, fmt.Errorf("%s: duplicate config key %q", rule.Kind, key.Name)
			}
			if key.Required && key.HasDefault {
				return nil, fmt.Errorf("%s.%s: required keys cannot declare a default", rule.Kind, key.Name)
			}
			names[key.Name] = struct{}{}
		}
		for _, t := range rule.EventTypes {
			if _, ok := ParseEventType(string(t)); !ok {
				return nil, fmt.Errorf("%s: unknown event type %q", rule.Kind, t)
			}
		}

		cp := rule
		cp.Keys = append([]KeySpec(nil), rule.Keys...)
		sort.Slice(cp.Keys, func(i, j int) bool { return cp.Keys[i].Name < cp.Keys[j].Name })
		cp.EventTypes = SortEventTypes(rule.EventTypes)
		reg.rules[rule.Kind] = cp
		reg.order = append(reg.order, rule.Kind)
	}
	return reg, nil
}

// MustNewRegistry is NewRegistry that panics on invalid rules.
func MustNewRegistry(rules ...KindRules) *Registry {
	reg, err := NewRegistry(rules...)
	if err != nil {
		panic(fmt.Sprintf("schema: %v", err))
	}
	return reg
}

// Kinds returns the registered kinds in declaration order.
func (r *Registry) Kinds() []ServiceKind {
	return append([]ServiceKind(nil), r.order...)
}

// Lookup returns the rules for kind.
func (r *Registry) Lookup(kind ServiceKind) (KindRules, bool) {
	rules, ok := r.rules[kind]
	if !ok {
		return KindRules{}, false
	}
	rules.Keys = append([]KeySpec(nil), rules.Keys...)
	rules.EventTypes = append([]EventType(nil), rules.EventTypes...)
	return rules, true
}

// RequiredConfigKeys returns the sorted names of keys that must be supplied.
func (r *Registry) RequiredConfigKeys(kind ServiceKind) []string {
	var out []string
	for _, key := range r.rules[kind].Keys {
		if key.Required {
			out = append(out, key.Name)
		}
	}
	return out
}

// AllowedConfigKeys returns the sorted names of every key the kind accepts.
func (r *Registry) AllowedConfigKeys(kind ServiceKind) []string {
	keys := r.rules[kind].Keys
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, key.Name)
	}
	return out
}

// DefaultValue returns the default for an optional key.
func (r *Registry) DefaultValue(kind ServiceKind, key string) (string, bool) {
	spec, ok := r.rules[kind].Key(key)
	if !ok || spec.Required || !spec.HasDefault {
		return "", false
	}
	return spec.Default, true
}

// AllowedEventTypes returns the event types the kind may subscribe to, in canonical order.
func (r *Registry) AllowedEventTypes(kind ServiceKind) []EventType {
	return append([]EventType(nil), r.rules[kind].EventTypes...)
}

// DescribeEventTypes renders the allowed event types of kind for messages.
func (r *Registry) DescribeEventTypes(kind ServiceKind) string {
	return joinEventTypes(r.rules[kind].EventTypes)
}
