// Package schema declares the closed set of notification backends and the
// per-backend rules used to validate service configuration.
package schema

import "strings"

// ServiceKind identifies a notification backend.
type ServiceKind string

// Service kind constants
const (
	// ServiceChanify delivers notifications through a Chanify push relay
	ServiceChanify ServiceKind = "chanify"
	// ServiceFileReporter appends reports to a local JSON file
	ServiceFileReporter ServiceKind = "file_reporter"
)

// EventType is a category of application event a backend can subscribe to.
type EventType string

// Event type constants
const (
	EventException EventType = "exception"
	EventReport    EventType = "report"
	EventShutdown  EventType = "shutdown"
	EventStart     EventType = "start"
	EventStop      EventType = "stop"
)

// eventTypeOrder is the canonical order used when a set of event types is rendered.
var eventTypeOrder = []EventType{
	EventException,
	EventReport,
	EventShutdown,
	EventStart,
	EventStop,
}

// EventTypes returns every known event type in canonical order.
func EventTypes() []EventType {
	return append([]EventType(nil), eventTypeOrder...)
}

// ParseEventType returns the event type matching value exactly.
func ParseEventType(value string) (EventType, bool) {
	for _, candidate := range eventTypeOrder {
		if string(candidate) == value {
			return candidate, true
		}
	}
	return "", false
}

// ParseServiceKind returns the service kind matching value exactly.
func ParseServiceKind(value string) (ServiceKind, bool) {
	for _, candidate := range Default.Kinds() {
		if string(candidate) == value {
			return candidate, true
		}
	}
	return "", false
}

// SortEventTypes returns the distinct members of types in canonical order.
// Unknown values are dropped.
func SortEventTypes(types []EventType) []EventType {
	seen := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		seen[t] = struct{}{}
	}
	out := make([]EventType, 0, len(seen))
	for _, t := range eventTypeOrder {
		if _, ok := seen[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (k ServiceKind) String() string { return string(k) }

func (t EventType) String() string { return string(t) }

func joinEventTypes(types []EventType) string {
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ", ")
}
