// Package dispatch delivers events to the backends listed in a validated
// notify document.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/nimburion/notify/pkg/notify/schema"
)

// ErrUnknownEventType is returned when an event carries a type outside the
// closed event type set.
var ErrUnknownEventType = errors.New("unknown event type")

// Notifier is a pluggable backend sender.
type Notifier interface {
	Send(ctx context.Context, event Event) error
	Close() error
}

// Event is a single notification.
type Event struct {
	ID     string
	Type   schema.EventType
	Text   string
	Extras map[string]string
	Time   time.Time
}

func (e Event) validate() error {
	if _, ok := schema.ParseEventType(string(e.Type)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}
	return nil
}

// Message renders the event as plain text: the type tag and text on the
// first line, then one "key: value" line per extra in key order.
func (e Event) Message() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(string(e.Type))
	b.WriteString("]")
	if text := strings.TrimSpace(e.Text); text != "" {
		b.WriteString(" ")
		b.WriteString(text)
	}
	for _, key := range slices.Sorted(maps.Keys(e.Extras)) {
		b.WriteString("\n")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(e.Extras[key])
	}
	return b.String()
}

// DeliveryError reports a failed delivery to one document entry.
type DeliveryError struct {
	Index   int
	Service schema.ServiceKind
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("services[%d] (%s): %v", e.Index, e.Service, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
