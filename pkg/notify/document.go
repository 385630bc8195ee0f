// Package notify validates and normalizes the service list of a notification
// dispatcher.
//
// A raw document is a decoded YAML, TOML or JSON value shaped like
//
//	services:
//	  - service: chanify
//	    types: [exception, start]
//	    config:
//	      token: "..."
//	  - service: file_reporter
//
// Validate resolves each entry's backend, checks it against the rules in
// schema.Default, fills defaults and returns an immutable Document, or every
// violation found at once as ValidationErrors.
package notify

import (
	"github.com/nimburion/notify/pkg/notify/schema"
)

// Document is a validated, normalized service list. It is never modified after
// Validate returns it; accessors hand out copies.
type Document struct {
	services []ServiceEntry
}

// Services returns the entries in configuration order.
func (d *Document) Services() []ServiceEntry {
	if d == nil {
		return nil
	}
	out := make([]ServiceEntry, len(d.services))
	copy(out, d.services)
	return out
}

// Len returns the number of entries.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.services)
}

// Raw renders the document in its input shape with every field explicit.
// Validating the result yields an equal Document.
func (d *Document) Raw() map[string]any {
	services := make([]any, 0, d.Len())
	if d != nil {
		for _, entry := range d.services {
			services = append(services, entry.Raw())
		}
	}
	return map[string]any{fieldServices: services}
}

// ServiceEntry is one configured backend instance.
type ServiceEntry struct {
	Service schema.ServiceKind
	Config  BackendConfig
	types   []schema.EventType
}

// Types returns the subscribed event types in canonical order.
func (e ServiceEntry) Types() []schema.EventType {
	return append([]schema.EventType(nil), e.types...)
}

// Subscribed reports whether the entry receives events of type t.
func (e ServiceEntry) Subscribed(t schema.EventType) bool {
	for _, subscribed := range e.types {
		if subscribed == t {
			return true
		}
	}
	return false
}

// Raw renders the entry in its input shape.
func (e ServiceEntry) Raw() map[string]any {
	types := make([]any, 0, len(e.types))
	for _, t := range e.types {
		types = append(types, string(t))
	}
	config := map[string]any{}
	if e.Config != nil {
		for key, value := range e.Config.Values() {
			config[key] = value
		}
	}
	return map[string]any{
		fieldService: string(e.Service),
		fieldTypes:   types,
		fieldConfig:  config,
	}
}

// BackendConfig is the validated settings of one backend. The set of
// implementations is closed: ChanifyConfig and FileReporterConfig.
type BackendConfig interface {
	Kind() schema.ServiceKind
	// Values returns the settings keyed by config key.
	Values() map[string]string
	backendConfig()
}

// ChanifyConfig configures the Chanify push relay backend.
type ChanifyConfig struct {
	Token string
	URL   string
}

// Kind returns schema.ServiceChanify.
func (ChanifyConfig) Kind() schema.ServiceKind { return schema.ServiceChanify }

// Values returns the token and url keyed by config key.
func (c ChanifyConfig) Values() map[string]string {
	return map[string]string{schema.KeyToken: c.Token, schema.KeyURL: c.URL}
}

func (ChanifyConfig) backendConfig() {}

// FileReporterConfig configures the local report file backend.
type FileReporterConfig struct {
	FilePath string
}

// Kind returns schema.ServiceFileReporter.
func (FileReporterConfig) Kind() schema.ServiceKind { return schema.ServiceFileReporter }

// Values returns the file path keyed by config key.
func (c FileReporterConfig) Values() map[string]string {
	return map[string]string{schema.KeyFilePath: c.FilePath}
}

func (FileReporterConfig) backendConfig() {}
