// Package configschema exports the notify service rules as a JSON Schema
// document for editors and CI checks.
package configschema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/nimburion/notify/pkg/notify/schema"
)

const draft202012 = "https://json-schema.org/draft/2020-12/schema"

// BuildSchema returns a closed JSON Schema describing documents accepted by
// notify.Validate for the given registry. A nil registry selects schema.Default.
func BuildSchema(registry *schema.Registry) (*jsonschema.Schema, error) {
	if registry == nil {
		registry = schema.Default
	}
	kinds := registry.Kinds()
	if len(kinds) == 0 {
		return nil, errors.New("registry has no service kinds")
	}

	kindEnum := make([]any, 0, len(kinds))
	for _, kind := range kinds {
		kindEnum = append(kindEnum, string(kind))
	}

	entry := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"service"},
		Properties: map[string]*jsonschema.Schema{
			"service": {
				Type:        "string",
				Description: "Notification backend.",
				Enum:        kindEnum,
			},
			"types": {
				Type:        "array",
				Description: "Event types delivered to the backend. Defaults to every type the backend allows.",
				Items:       &jsonschema.Schema{Type: "string", Enum: eventEnum(schema.EventTypes())},
			},
			"config": {
				Type:        "object",
				Description: "Backend settings.",
			},
		},
		PropertyOrder:        []string{"service", "types", "config"},
		AdditionalProperties: falseSchema(),
	}

	for _, kind := range kinds {
		rules, _ := registry.Lookup(kind)
		variant, err := variantSchema(rules)
		if err != nil {
			return nil, fmt.Errorf("build %s schema: %w", kind, err)
		}
		entry.AllOf = append(entry.AllOf, variant)
	}

	return &jsonschema.Schema{
		Schema:      draft202012,
		Title:       "Notify Services Configuration",
		Description: "Schema for the notification services list.",
		Type:        "object",
		Required:    []string{"services"},
		Properties: map[string]*jsonschema.Schema{
			"services": {
				Type:        "array",
				Description: "Backends notified in order.",
				Items:       entry,
			},
		},
	}, nil
}

// Marshal renders s as indented JSON.
func Marshal(s *jsonschema.Schema) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}

// variantSchema narrows types and config once service equals rules.Kind.
func variantSchema(rules schema.KindRules) (*jsonschema.Schema, error) {
	config := &jsonschema.Schema{
		Type:                 "object",
		Properties:           make(map[string]*jsonschema.Schema, len(rules.Keys)),
		AdditionalProperties: falseSchema(),
	}
	for _, key := range rules.Keys {
		prop := &jsonschema.Schema{Type: string(key.Type)}
		if key.Required {
			config.Required = append(config.Required, key.Name)
		}
		if key.NonEmpty {
			prop.MinLength = intPtr(1)
			prop.Pattern = `\S`
		}
		if key.HasDefault && !key.Required {
			raw, err := json.Marshal(key.Default)
			if err != nil {
				return nil, err
			}
			prop.Default = raw
		}
		config.Properties[key.Name] = prop
		config.PropertyOrder = append(config.PropertyOrder, key.Name)
	}

	allowed := eventEnum(rules.EventTypes)
	typesDefault, err := json.Marshal(allowed)
	if err != nil {
		return nil, err
	}

	service := any(string(rules.Kind))
	return &jsonschema.Schema{
		If: &jsonschema.Schema{
			Required: []string{"service"},
			Properties: map[string]*jsonschema.Schema{
				"service": {Const: &service},
			},
		},
		Then: &jsonschema.Schema{
			Description: rules.Description,
			Properties: map[string]*jsonschema.Schema{
				"types": {
					Type:    "array",
					Items:   &jsonschema.Schema{Enum: allowed},
					Default: typesDefault,
				},
				"config": config,
			},
		},
	}, nil
}

func eventEnum(types []schema.EventType) []any {
	out := make([]any, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

// falseSchema rejects every instance.
func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

func intPtr(v int) *int {
	return &v
}
